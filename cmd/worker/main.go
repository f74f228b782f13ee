// Package main implements the background worker that sends verification
// e-mails and builds candidate reports from the job queue.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phrazzld/candidate-api/internal/config"
	"github.com/phrazzld/candidate-api/internal/platform/logger"
	"github.com/phrazzld/candidate-api/internal/platform/mailer"
	"github.com/phrazzld/candidate-api/internal/platform/mongodb"
	"github.com/phrazzld/candidate-api/internal/platform/monitoring"
	"github.com/phrazzld/candidate-api/internal/task"
	"github.com/redis/go-redis/v9"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("worker exited with error: %v", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	l = l.With("process", "worker")

	reporter, err := monitoring.Init(cfg.Monitoring)
	if err != nil {
		return fmt.Errorf("failed to initialize monitoring: %w", err)
	}
	defer reporter.Flush(2 * time.Second)

	if cfg.Mail.Host == "" || cfg.Mail.From == "" {
		l.Warn("mail is not configured; e-mail jobs will fail permanently")
	}

	mongoClient, err := mongodb.Connect(ctx, cfg.Database, l)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Close(closeCtx); err != nil {
			l.Error("failed to disconnect from document store", "error", err)
		}
	}()

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	db := mongoClient.Database()
	runner, err := newWorker(ctx, cfg, workerDeps{
		redis:      rdb,
		results:    mongodb.NewTaskResultStore(db, cfg.Task.ResultCollection, l),
		candidates: mongodb.NewCandidateStore(db, l),
		mailer:     mailer.NewSMTPMailer(cfg.Mail, l),
		reporter:   reporter,
		logger:     l,
	})
	if err != nil {
		return err
	}

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		reporter.CaptureError(context.Background(), err)
		return fmt.Errorf("runner stopped: %w", err)
	}

	l.Info("worker shutdown completed")
	return nil
}

// workerDeps are the collaborators of the job runner.
type workerDeps struct {
	redis      redis.Cmdable
	results    task.ResultStore
	candidates task.CandidateSource
	mailer     task.Mailer
	reporter   task.ErrorReporter
	logger     *slog.Logger
}

// newWorker builds the broker, ensures its consumer group and registers the
// job handlers.
func newWorker(ctx context.Context, cfg *config.Config, d workerDeps) (*task.Runner, error) {
	reclaimIdle := time.Duration(cfg.Task.ReclaimIdleSeconds) * time.Second
	broker := task.NewRedisBroker(d.redis, cfg.Task.Stream, d.logger,
		task.WithGroup(cfg.Task.Group),
		task.WithBlockTime(time.Duration(cfg.Task.BlockTimeoutMS)*time.Millisecond),
		task.WithBatchSize(int64(cfg.Task.BatchSize)),
		task.WithReclaimIdle(reclaimIdle),
		task.WithMaxLen(cfg.Task.MaxLen),
		task.WithResults(d.results))

	if err := broker.EnsureGroup(ctx); err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	backlog, err := broker.QueueLength(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect job stream: %w", err)
	}

	policy := task.RetryPolicy{
		MaxRetries: cfg.Task.MaxRetries,
		Delay:      time.Duration(cfg.Task.RetryDelaySeconds) * time.Second,
	}
	runnerCfg := task.DefaultRunnerConfig()
	runnerCfg.WorkerCount = cfg.Task.WorkerCount
	if cfg.Task.JobTimeoutSeconds > 0 {
		runnerCfg.JobTimeout = time.Duration(cfg.Task.JobTimeoutSeconds) * time.Second
	}
	// Several heartbeats fit in one idle window, so a single missed beat
	// does not let another worker take a running job.
	if hb := reclaimIdle / 3; hb > 0 {
		runnerCfg.HeartbeatInterval = hb
	}

	runner := task.NewRunner(broker, d.results, d.reporter, policy, runnerCfg, d.logger)
	runner.Register(task.JobTypeVerificationEmail, task.NewVerificationEmailHandler(d.mailer))
	runner.Register(task.JobTypeReport, task.NewReportHandler(d.candidates, d.mailer, cfg.Report.Dir, cfg.Report.BatchSize))

	d.logger.Info("worker configured",
		"stream", cfg.Task.Stream,
		"group", cfg.Task.Group,
		"worker_count", runnerCfg.WorkerCount,
		"max_retries", policy.MaxRetries,
		"job_timeout", runnerCfg.JobTimeout.String(),
		"heartbeat_interval", runnerCfg.HeartbeatInterval.String(),
		"stream_length", backlog)
	return runner, nil
}
