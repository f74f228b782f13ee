package shared

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/candidate-api/internal/domain"
)

// Key type for context values
type ContextKey string

// Context keys for various values
const (
	// IdentityContextKey is the context key for the authenticated domain.Identity
	IdentityContextKey ContextKey = "identity"

	// TraceIDKey is the key for the trace ID in the request context
	TraceIDKey ContextKey = "traceID"

	// ReporterContextKey is the context key for the request's ErrorReporter
	ReporterContextKey ContextKey = "errorReporter"

	// TraceIDLength is the number of bytes used to generate the trace ID
	TraceIDLength = 16 // 32 hex characters
)

// SetTraceID adds a freshly generated trace ID to the context.
func SetTraceID(ctx context.Context) context.Context {
	return WithTraceID(ctx, generateTraceID())
}

// WithTraceID adds the given trace ID to the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from the context.
// If no trace ID exists, it returns an empty string.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// WithIdentity attaches the authenticated caller to the context.
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, identity)
}

// IdentityFrom returns the authenticated caller stored in ctx.
// The boolean is false when the request did not pass the auth gate.
func IdentityFrom(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(IdentityContextKey).(domain.Identity)
	if !ok || identity.Email == "" {
		return domain.Identity{}, false
	}
	return identity, true
}

// ErrorReporter forwards unexpected failures to monitoring.
type ErrorReporter interface {
	CaptureError(ctx context.Context, err error)
}

// WithReporter attaches the reporter used by ReportError.
func WithReporter(ctx context.Context, reporter ErrorReporter) context.Context {
	return context.WithValue(ctx, ReporterContextKey, reporter)
}

// ReportError sends err to the reporter stored in ctx, if any.
func ReportError(ctx context.Context, err error) {
	if reporter, ok := ctx.Value(ReporterContextKey).(ErrorReporter); ok && reporter != nil && err != nil {
		reporter.CaptureError(ctx, err)
	}
}

// generateTraceID creates a random 32-character hex trace ID.
// If crypto/rand fails it falls back to a time-ordered UUID, never a static value.
func generateTraceID() string {
	b := make([]byte, TraceIDLength)
	n, err := rand.Read(b)

	if err != nil || n != TraceIDLength {
		slog.Error("failed to generate secure random trace ID",
			"error", err,
			"bytes_read", n,
			"bytes_requested", TraceIDLength,
			"fallback", "uuid v7")

		return generateFallbackTraceID()
	}

	return hex.EncodeToString(b)
}

func generateFallbackTraceID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return strings.ReplaceAll(id.String(), "-", "")
}
