package task

import "errors"

var (
	// ErrInvalidJob is returned when a job cannot be built or decoded.
	ErrInvalidJob = errors.New("invalid job")

	// ErrInvalidPayload is returned when a job payload does not match its type.
	ErrInvalidPayload = errors.New("invalid job payload")

	// ErrUnknownJobType is returned when no handler is registered for a job type.
	ErrUnknownJobType = errors.New("unknown job type")

	// ErrQueueUnavailable is returned when the broker rejects an operation.
	ErrQueueUnavailable = errors.New("queue unavailable")
)

// permanentError marks a failure that retrying cannot fix.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so the runner dead-letters the job instead of retrying it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err, or any error it wraps, was marked Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}
