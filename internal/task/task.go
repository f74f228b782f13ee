package task

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Job types understood by the worker.
const (
	JobTypeVerificationEmail = "send_verification_email"
	JobTypeReport            = "generate_and_send_report"
)

// Status represents the lifecycle state of a job as recorded in the result store.
type Status string

const (
	// StatusPending indicates the job is queued but not yet picked up
	StatusPending Status = "pending"

	// StatusProcessing indicates a worker is executing the job
	StatusProcessing Status = "processing"

	// StatusRetrying indicates the job failed and is scheduled to run again
	StatusRetrying Status = "retrying"

	// StatusCompleted indicates the job finished successfully
	StatusCompleted Status = "completed"

	// StatusFailed indicates the job exhausted its retries or cannot be run
	StatusFailed Status = "failed"
)

// Job is the envelope published to the broker.
type Job struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	// Attempt counts previous failed executions; the first run has Attempt 0.
	Attempt    int       `json:"attempt"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewJob builds a job with a fresh ID and the JSON encoding of payload.
func NewJob(jobType string, payload any) (*Job, error) {
	if jobType == "" {
		return nil, fmt.Errorf("%w: empty job type", ErrInvalidJob)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode payload: %v", ErrInvalidJob, err)
	}

	return &Job{
		ID:         uuid.NewString(),
		Type:       jobType,
		Payload:    data,
		EnqueuedAt: time.Now().UTC(),
	}, nil
}

// Decode unmarshals the payload into v. Decoding failures are permanent.
func (j *Job) Decode(v any) error {
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return Permanent(fmt.Errorf("%w: %v", ErrInvalidPayload, err))
	}
	return nil
}

// Handler executes one job type.
type Handler interface {
	Handle(ctx context.Context, job *Job) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, job *Job) error

// Handle calls f(ctx, job).
func (f HandlerFunc) Handle(ctx context.Context, job *Job) error {
	return f(ctx, job)
}

// Enqueuer publishes jobs for asynchronous execution.
type Enqueuer interface {
	// Enqueue publishes a job of the given type and returns its ID.
	Enqueue(ctx context.Context, jobType string, payload any) (string, error)
}

// Result is the persisted state of a job.
type Result struct {
	JobID      string
	Type       string
	Status     Status
	Attempt    int
	Error      string
	EnqueuedAt time.Time
	UpdatedAt  time.Time
}

// ResultStore persists job state transitions.
type ResultStore interface {
	SaveResult(ctx context.Context, result *Result) error
}
