package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/phrazzld/candidate-api/internal/platform/logger"
	"github.com/phrazzld/candidate-api/internal/redact"
	"golang.org/x/sync/errgroup"
)

// Broker is the consumer side of the job queue.
type Broker interface {
	Read(ctx context.Context) ([]*Delivery, error)
	ReclaimStale(ctx context.Context) ([]*Delivery, error)
	Ack(ctx context.Context, d *Delivery) error
	Retry(ctx context.Context, d *Delivery, delay time.Duration) error
	DeadLetter(ctx context.Context, d *Delivery, cause error) error
	PromoteDue(ctx context.Context) (int, error)

	// Extend resets the idle time of entries this consumer is still working
	// on, so ReclaimStale elsewhere does not hand them out again.
	Extend(ctx context.Context, messageIDs []string) error
}

// ErrorReporter receives job failures for external monitoring.
type ErrorReporter interface {
	CaptureError(ctx context.Context, err error)
}

// RunnerConfig holds configuration for the job runner.
type RunnerConfig struct {
	// WorkerCount determines how many jobs execute concurrently
	WorkerCount int

	// JobTimeout bounds a single execution
	JobTimeout time.Duration

	// PromoteInterval defines how often due retries are moved back to the queue
	PromoteInterval time.Duration

	// ReclaimInterval defines how often entries abandoned by crashed workers are claimed
	ReclaimInterval time.Duration

	// ErrorBackoff is the pause after a failed broker read
	ErrorBackoff time.Duration

	// HeartbeatInterval defines how often in-flight entries are extended.
	// It must be well below the broker's reclaim idle time.
	HeartbeatInterval time.Duration
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount:     4,
		JobTimeout:      5 * time.Minute,
		PromoteInterval: time.Second,
		ReclaimInterval: time.Minute,
		ErrorBackoff:    time.Second,

		HeartbeatInterval: 30 * time.Second,
	}
}

// Runner consumes jobs from a Broker and dispatches them to registered handlers.
type Runner struct {
	broker   Broker
	handlers map[string]Handler
	results  ResultStore
	reporter ErrorReporter
	policy   RetryPolicy
	config   RunnerConfig
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewRunner creates a Runner. results and reporter may be nil.
func NewRunner(
	broker Broker,
	results ResultStore,
	reporter ErrorReporter,
	policy RetryPolicy,
	config RunnerConfig,
	log *slog.Logger,
) *Runner {
	if log == nil {
		log = slog.Default()
	}

	defaults := DefaultRunnerConfig()
	if config.WorkerCount <= 0 {
		log.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", defaults.WorkerCount)
		config.WorkerCount = defaults.WorkerCount
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = defaults.JobTimeout
	}
	if config.PromoteInterval <= 0 {
		config.PromoteInterval = defaults.PromoteInterval
	}
	if config.ReclaimInterval <= 0 {
		config.ReclaimInterval = defaults.ReclaimInterval
	}
	if config.ErrorBackoff <= 0 {
		config.ErrorBackoff = defaults.ErrorBackoff
	}
	if config.HeartbeatInterval <= 0 {
		config.HeartbeatInterval = defaults.HeartbeatInterval
	}

	return &Runner{
		broker:   broker,
		handlers: make(map[string]Handler),
		results:  results,
		reporter: reporter,
		policy:   policy,
		config:   config,
		logger:   log.With(slog.String("component", "job_runner")),
		now:      time.Now,
		inflight: make(map[string]struct{}),
	}
}

// Register binds a handler to a job type. It must be called before Run.
func (r *Runner) Register(jobType string, h Handler) {
	r.handlers[jobType] = h
}

// Run processes jobs until ctx is canceled. Jobs already handed to a worker
// run to completion (bounded by JobTimeout) before Run returns.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("job runner starting",
		"worker_count", r.config.WorkerCount,
		"max_retries", r.policy.MaxRetries,
		"retry_delay", r.policy.Delay.String())

	deliveries := make(chan *Delivery)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(deliveries)
		r.fetch(gctx, deliveries)
		return nil
	})

	for i := 0; i < r.config.WorkerCount; i++ {
		workerID := i
		g.Go(func() error {
			r.worker(gctx, workerID, deliveries)
			return nil
		})
	}

	g.Go(func() error {
		r.promoteLoop(gctx)
		return nil
	})

	// The heartbeat outlives gctx: workers drain in-flight jobs after
	// cancellation and those entries must stay claimed until settled.
	stopHeartbeat := make(chan struct{})
	heartbeatDone := make(chan struct{})
	go func() {
		defer close(heartbeatDone)
		r.heartbeatLoop(context.WithoutCancel(ctx), stopHeartbeat)
	}()

	err := g.Wait()
	close(stopHeartbeat)
	<-heartbeatDone

	r.logger.Info("job runner stopped")
	return err
}

// fetch is the only producer on deliveries. It interleaves reclaiming of
// stale entries with reads of new ones.
func (r *Runner) fetch(ctx context.Context, out chan<- *Delivery) {
	var lastReclaim time.Time

	for ctx.Err() == nil {
		var batch []*Delivery

		if r.now().Sub(lastReclaim) >= r.config.ReclaimInterval {
			lastReclaim = r.now()
			reclaimed, err := r.broker.ReclaimStale(ctx)
			if err != nil && ctx.Err() == nil {
				r.logger.Warn("failed to reclaim stale jobs", "error", redact.Error(err))
			}
			batch = append(batch, reclaimed...)
		}

		fresh, err := r.broker.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.logger.Error("failed to read jobs", "error", redact.Error(err))
			if !sleep(ctx, r.config.ErrorBackoff) {
				return
			}
			continue
		}
		batch = append(batch, fresh...)

		for _, d := range batch {
			if !r.claim(d.MessageID) {
				r.logger.Debug("skipping entry already in flight", "message_id", d.MessageID)
				continue
			}
			select {
			case out <- d:
			case <-ctx.Done():
				// Unacknowledged entries stay pending and are reclaimed later.
				r.release(d.MessageID)
				return
			}
		}
	}
}

func (r *Runner) worker(ctx context.Context, id int, in <-chan *Delivery) {
	log := r.logger.With("worker_id", id)
	log.Debug("worker started")

	// In-flight jobs are allowed to finish after shutdown begins.
	jobCtx := context.WithoutCancel(ctx)
	for d := range in {
		r.process(logger.WithLogger(jobCtx, log), d)
		r.release(d.MessageID)
	}

	log.Debug("worker stopped")
}

func (r *Runner) promoteLoop(ctx context.Context) {
	ticker := time.NewTicker(r.config.PromoteInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.broker.PromoteDue(ctx)
			if err != nil && ctx.Err() == nil {
				r.logger.Warn("failed to promote delayed jobs", "error", redact.Error(err))
			}
			if n > 0 {
				r.logger.Debug("promoted delayed jobs", "count", n)
			}
		}
	}
}

// heartbeatLoop extends every in-flight entry until stop is closed.
func (r *Runner) heartbeatLoop(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(r.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ids := r.inflightIDs()
			if len(ids) == 0 {
				continue
			}
			if err := r.broker.Extend(ctx, ids); err != nil {
				r.logger.Warn("failed to extend in-flight jobs",
					"count", len(ids),
					"error", redact.Error(err))
			}
		}
	}
}

// claim marks an entry as in flight. It reports false when this runner
// already holds it, which happens when ReclaimStale returns our own entry.
func (r *Runner) claim(messageID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.inflight[messageID]; busy {
		return false
	}
	r.inflight[messageID] = struct{}{}
	return true
}

func (r *Runner) release(messageID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inflight, messageID)
}

func (r *Runner) inflightIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.inflight))
	for id := range r.inflight {
		ids = append(ids, id)
	}
	return ids
}

// process executes one delivery and settles it with the broker.
func (r *Runner) process(ctx context.Context, d *Delivery) {
	log := logger.FromContextOrDefault(ctx, r.logger)

	if d.Job == nil {
		log.Error("dropping undecodable job", "message_id", d.MessageID, "error", redact.Error(d.DecodeErr))
		r.deadLetter(ctx, d, d.DecodeErr)
		return
	}

	job := d.Job
	log = log.With("job_id", job.ID, "job_type", job.Type, "attempt", job.Attempt)
	ctx = logger.WithLogger(ctx, log)

	handler, ok := r.handlers[job.Type]
	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownJobType, job.Type)
		log.Error("no handler registered for job")
		r.deadLetter(ctx, d, err)
		r.record(ctx, job, StatusFailed, err)
		return
	}

	r.record(ctx, job, StatusProcessing, nil)
	start := r.now()

	err := r.execute(ctx, handler, job)
	if err == nil {
		if ackErr := r.broker.Ack(ctx, d); ackErr != nil {
			log.Error("failed to acknowledge job", "error", redact.Error(ackErr))
		}
		r.record(ctx, job, StatusCompleted, nil)
		log.Info("job completed", "duration", r.now().Sub(start).String())
		return
	}

	log.Error("job execution failed", "error", redact.Error(err))
	if r.reporter != nil {
		r.reporter.CaptureError(ctx, fmt.Errorf("job %s (%s) attempt %d: %w", job.ID, job.Type, job.Attempt, err))
	}

	if !IsPermanent(err) && r.policy.ShouldRetry(job.Attempt) {
		if retryErr := r.broker.Retry(ctx, d, r.policy.Delay); retryErr != nil {
			// Left unacknowledged; the entry is reclaimed after the idle timeout.
			log.Error("failed to schedule retry", "error", redact.Error(retryErr))
			return
		}
		r.record(ctx, job, StatusRetrying, err)
		log.Info("job scheduled for retry", "delay", r.policy.Delay.String())
		return
	}

	r.deadLetter(ctx, d, err)
	r.record(ctx, job, StatusFailed, err)
}

// execute runs the handler with a timeout, converting panics into errors.
func (r *Runner) execute(ctx context.Context, h Handler, job *Job) (err error) {
	ctx, cancel := context.WithTimeout(ctx, r.config.JobTimeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			logger.FromContext(ctx).Error("job handler panicked",
				"panic", fmt.Sprint(rec),
				"stack", redact.String(string(debug.Stack())))
			err = fmt.Errorf("job handler panicked: %v", rec)
		}
	}()

	return h.Handle(ctx, job)
}

func (r *Runner) deadLetter(ctx context.Context, d *Delivery, cause error) {
	if cause == nil {
		cause = errors.New("unknown failure")
	}
	if err := r.broker.DeadLetter(ctx, d, cause); err != nil {
		logger.FromContext(ctx).Error("failed to dead-letter job",
			"message_id", d.MessageID,
			"error", redact.Error(err))
	}
}

func (r *Runner) record(ctx context.Context, job *Job, status Status, cause error) {
	if r.results == nil {
		return
	}

	result := &Result{
		JobID:      job.ID,
		Type:       job.Type,
		Status:     status,
		Attempt:    job.Attempt,
		EnqueuedAt: job.EnqueuedAt,
		UpdatedAt:  r.now().UTC(),
	}
	if cause != nil {
		result.Error = redact.Error(cause)
	}

	if err := r.results.SaveResult(ctx, result); err != nil {
		logger.FromContext(ctx).Warn("failed to record job status",
			"status", string(status),
			"error", redact.Error(err))
	}
}

// sleep waits for d or until ctx is done. It reports whether the full wait elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
