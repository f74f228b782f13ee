package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/candidate-api/internal/config"
	"github.com/phrazzld/candidate-api/internal/platform/mongodb"
	"github.com/phrazzld/candidate-api/internal/platform/monitoring"
	"github.com/phrazzld/candidate-api/internal/service"
	"github.com/phrazzld/candidate-api/internal/service/auth"
	"github.com/phrazzld/candidate-api/internal/task"
	"github.com/redis/go-redis/v9"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	mongo    *mongodb.Client
	redis    *redis.Client
	reporter *monitoring.Reporter

	tokens     auth.TokenService
	users      service.UserService
	candidates service.CandidateService
	reports    service.ReportService
}

// newApplication connects to the document store and the broker and builds
// the services. On error everything opened so far is closed.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	reporter *monitoring.Reporter,
) (_ *application, err error) {
	app := &application{
		config:   cfg,
		logger:   logger,
		reporter: reporter,
	}
	defer func() {
		if err != nil {
			app.cleanup()
		}
	}()

	app.tokens, err = auth.NewTokenService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"algorithm", cfg.Auth.JWTAlgorithm,
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.mongo, err = mongodb.Connect(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	db := app.mongo.Database()
	if err = mongodb.EnsureIndexes(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to ensure indexes: %w", err)
	}

	app.redis, err = connectRedis(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}

	results := mongodb.NewTaskResultStore(db, cfg.Task.ResultCollection, logger)
	broker := task.NewRedisBroker(app.redis, cfg.Task.Stream, logger,
		task.WithGroup(cfg.Task.Group),
		task.WithMaxLen(cfg.Task.MaxLen),
		task.WithResults(results))

	userStore := mongodb.NewUserStore(db, logger)
	candidateStore := mongodb.NewCandidateStore(db, logger)

	app.users = service.NewUserService(userStore, app.tokens, auth.NewBcryptHasher(cfg.Auth.BcryptCost), logger)
	app.candidates, err = service.NewCandidateService(candidateStore, broker, reporter, cfg.Server.BackendURL, logger)
	if err != nil {
		return nil, err
	}
	app.reports = service.NewReportService(broker, logger)

	logger.Info("Application initialized successfully")
	return app, nil
}

// connectRedis parses the broker URL and verifies the connection.
func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// router builds the HTTP handler from the application's services.
func (app *application) router() (http.Handler, error) {
	return newRouter(routerDeps{
		logger:      app.logger,
		monitor:     app.reporter,
		capturer:    app.reporter,
		tokens:      app.tokens,
		users:       app.users,
		candidates:  app.candidates,
		reports:     app.reports,
		securePaths: app.config.Server.SecurePaths,
		enableDebug: app.config.Server.EnableDebugRoutes,
	})
}

// Run serves HTTP until ctx is canceled.
func (app *application) Run(ctx context.Context) error {
	handler, err := app.router()
	if err != nil {
		return err
	}
	if err := app.startHTTPServer(ctx, handler); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup releases connections and flushes pending monitoring events.
func (app *application) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
	}
	if app.mongo != nil {
		errs = append(errs, app.mongo.Close(ctx))
	}
	if err := errors.Join(errs...); err != nil {
		app.logger.Error("failed to close connections", "error", err)
	}

	app.reporter.Flush(2 * time.Second)
}
