// Package monitoring reports unexpected failures to Sentry.
//
// A Reporter created with an empty DSN is fully functional but sends nothing,
// so callers never need to check whether monitoring is enabled.
package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/phrazzld/candidate-api/internal/config"
	"github.com/phrazzld/candidate-api/internal/redact"
)

// Reporter sends errors and recovered panics to Sentry.
type Reporter struct {
	hub     *sentry.Hub
	enabled bool
}

// Init creates a Reporter from the monitoring configuration.
func Init(cfg config.MonitoringConfig) (*Reporter, error) {
	return New(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		TracesSampleRate: cfg.TracesSampleRate,
		Debug:            cfg.Debug,
		AttachStacktrace: true,
	})
}

// New creates a Reporter with explicit client options. Event messages are
// redacted before any user supplied BeforeSend hook runs.
func New(opts sentry.ClientOptions) (*Reporter, error) {
	userHook := opts.BeforeSend
	opts.BeforeSend = func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
		scrub(event)
		if userHook != nil {
			return userHook(event, hint)
		}
		return event
	}

	client, err := sentry.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create sentry client: %w", err)
	}

	return &Reporter{
		hub:     sentry.NewHub(client, sentry.NewScope()),
		enabled: opts.Dsn != "",
	}, nil
}

// Enabled reports whether events leave the process.
func (r *Reporter) Enabled() bool {
	return r != nil && r.enabled
}

// WithRequestHub returns a context carrying a hub cloned for one request or
// job, so scope data set on it does not leak into other requests.
func (r *Reporter) WithRequestHub(ctx context.Context) context.Context {
	if r == nil {
		return ctx
	}
	return sentry.SetHubOnContext(ctx, r.hub.Clone())
}

// CaptureError reports err using the hub from ctx when present.
func (r *Reporter) CaptureError(ctx context.Context, err error) {
	if r == nil || err == nil {
		return
	}
	r.hubFrom(ctx).CaptureException(err)
}

// CaptureMessage reports a plain message.
func (r *Reporter) CaptureMessage(ctx context.Context, message string) {
	if r == nil || message == "" {
		return
	}
	r.hubFrom(ctx).CaptureMessage(message)
}

// Recover reports a value recovered from a panic.
func (r *Reporter) Recover(ctx context.Context, recovered any) {
	if r == nil || recovered == nil {
		return
	}
	r.hubFrom(ctx).RecoverWithContext(ctx, recovered)
}

// Flush waits up to timeout for queued events to be sent.
func (r *Reporter) Flush(timeout time.Duration) bool {
	if r == nil {
		return true
	}
	return r.hub.Flush(timeout)
}

func (r *Reporter) hubFrom(ctx context.Context) *sentry.Hub {
	if ctx != nil {
		if hub := sentry.GetHubFromContext(ctx); hub != nil {
			return hub
		}
	}
	return r.hub
}

// scrub removes credentials and personal data from event text.
func scrub(event *sentry.Event) {
	if event == nil {
		return
	}
	event.Message = redact.String(event.Message)
	for i := range event.Exception {
		event.Exception[i].Value = redact.String(event.Exception[i].Value)
	}
}
