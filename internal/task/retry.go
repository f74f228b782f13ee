package task

import "time"

// RetryPolicy is a fixed-delay retry policy.
type RetryPolicy struct {
	// MaxRetries is the number of re-executions after the first failure.
	MaxRetries int
	// Delay is the wait before each re-execution.
	Delay time.Duration
}

// DefaultRetryPolicy retries three times, one minute apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, Delay: time.Minute}
}

// ShouldRetry reports whether a job that failed on the given attempt gets another run.
func (p RetryPolicy) ShouldRetry(attempt int) bool {
	return attempt < p.MaxRetries
}
