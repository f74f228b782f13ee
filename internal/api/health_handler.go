package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/phrazzld/candidate-api/internal/api/shared"
)

// Health reports process liveness with {"status":"healthy"}.
func Health(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "healthy"})
}

// ErrDebugTriggered is raised by the debug endpoint.
var ErrDebugTriggered = errors.New("test error for monitoring integration")

// MessageCapturer records a plain message in monitoring.
type MessageCapturer interface {
	CaptureMessage(ctx context.Context, message string)
}

// TriggerError returns a handler that sends a test message to monitoring and
// then panics, exercising the telemetry middleware end to end.
func TriggerError(capturer MessageCapturer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if capturer != nil {
			capturer.CaptureMessage(r.Context(), "Testing monitoring error capture!")
		}
		panic(ErrDebugTriggered)
	}
}
