package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/candidate-api/internal/api/shared"
	"github.com/phrazzld/candidate-api/internal/platform/logger"
	"github.com/phrazzld/candidate-api/internal/redact"
)

// MsgInternalError is the only detail a client sees for an unhandled failure.
const MsgInternalError = "An internal server error occurred. Our team has been notified."

// Monitor is the monitoring surface used by TelemetryMiddleware.
// *monitoring.Reporter implements it.
type Monitor interface {
	WithRequestHub(ctx context.Context) context.Context
	CaptureError(ctx context.Context, err error)
	Recover(ctx context.Context, recovered any)
}

// TelemetryMiddleware gives every request its own monitoring scope and turns
// panics anywhere below it into a generic 500 after reporting them. It is the
// outermost middleware, so it assigns the trace ID that later stages reuse.
func TelemetryMiddleware(monitor Monitor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := withRequestTraceID(r)
			traceID := shared.GetTraceID(ctx)
			w.Header().Set(TraceHeader, traceID)
			if monitor != nil {
				ctx = monitor.WithRequestHub(ctx)
				ctx = shared.WithReporter(ctx, monitor)
			}
			r = r.WithContext(ctx)

			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.FromContext(ctx).Error("unhandled panic",
					slog.String("trace_id", traceID),
					slog.String("path", r.URL.Path),
					slog.String("method", r.Method),
					slog.String("panic", redact.String(fmt.Sprint(rec))))
				if monitor != nil {
					monitor.Recover(ctx, rec)
				}

				shared.RespondWithError(w, r, http.StatusInternalServerError, MsgInternalError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
