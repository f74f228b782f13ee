package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/phrazzld/candidate-api/internal/api/shared"
	"github.com/phrazzld/candidate-api/internal/platform/logger"
)

// TraceHeader carries the trace ID on responses, and on requests from
// upstream proxies that already assigned one.
const TraceHeader = "X-Request-ID"

var validTraceID = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

// withRequestTraceID keeps a trace ID already in the context, then a valid
// upstream header, and generates one otherwise.
func withRequestTraceID(r *http.Request) context.Context {
	ctx := r.Context()
	if shared.GetTraceID(ctx) != "" {
		return ctx
	}
	if incoming := r.Header.Get(TraceHeader); validTraceID.MatchString(incoming) {
		return shared.WithTraceID(ctx, incoming)
	}
	return shared.SetTraceID(ctx)
}

// TraceMiddleware adds a request-scoped logger carrying the trace ID to the
// request context, assigning the ID if TelemetryMiddleware has not already.
func TraceMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := withRequestTraceID(r)
			traceID := shared.GetTraceID(ctx)

			log := base.With(slog.String("trace_id", traceID))
			ctx = logger.WithLogger(ctx, log)

			log.Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			w.Header().Set(TraceHeader, traceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
