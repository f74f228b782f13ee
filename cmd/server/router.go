package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/candidate-api/internal/api"
	apiMiddleware "github.com/phrazzld/candidate-api/internal/api/middleware"
	"github.com/phrazzld/candidate-api/internal/service"
	"github.com/phrazzld/candidate-api/internal/service/auth"
)

// routerDeps are the collaborators the HTTP surface needs.
type routerDeps struct {
	logger      *slog.Logger
	monitor     apiMiddleware.Monitor
	capturer    api.MessageCapturer
	tokens      auth.TokenService
	users       service.UserService
	candidates  service.CandidateService
	reports     service.ReportService
	securePaths []string
	enableDebug bool
}

// newRouter builds the router. Middleware order: telemetry, real IP, trace,
// auth gate.
func newRouter(d routerDeps) (http.Handler, error) {
	gate, err := apiMiddleware.NewAuthGate(d.tokens, d.securePaths)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth gate: %w", err)
	}

	r := chi.NewRouter()

	r.Use(apiMiddleware.TelemetryMiddleware(d.monitor))
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.TraceMiddleware(d.logger))
	r.Use(gate.Authenticate)

	authHandler := api.NewAuthHandler(d.users, d.logger)
	candidateHandler := api.NewCandidateHandler(d.candidates, d.logger)
	reportHandler := api.NewReportHandler(d.reports, d.logger)

	r.Get("/health", api.Health)

	r.Post("/user/register", authHandler.Register)
	r.Post("/user/login", authHandler.Login)

	r.Get("/all-candidates", candidateHandler.List)
	r.Post("/candidate", candidateHandler.Create)
	r.Get("/candidate/{id}", candidateHandler.Get)
	r.Put("/candidate/{id}", candidateHandler.Update)
	r.Delete("/candidate/{id}", candidateHandler.Delete)
	r.Get("/verify-email", candidateHandler.VerifyEmail)

	r.Get("/send-report", reportHandler.SendReport)

	if d.enableDebug {
		r.Get("/trigger-error", api.TriggerError(d.capturer))
	}

	return r, nil
}
