package task

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phrazzld/candidate-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDelivery(t *testing.T, jobType string, attempt int) *Delivery {
	t.Helper()
	job, err := NewJob(jobType, map[string]string{"k": "v"})
	require.NoError(t, err)
	job.Attempt = attempt
	return &Delivery{MessageID: "1-" + job.ID[:4], Job: job}
}

func newTestRunner(t *testing.T, broker Broker) (*Runner, *memoryResultStore, *recordingReporter, *logger.TestLogBuffer) {
	t.Helper()
	buf, log := logger.NewTestLogger(t)
	results := &memoryResultStore{}
	reporter := &recordingReporter{}
	policy := RetryPolicy{MaxRetries: 3, Delay: time.Minute}
	cfg := RunnerConfig{WorkerCount: 1, JobTimeout: time.Second}
	return NewRunner(broker, results, reporter, policy, cfg, log), results, reporter, buf
}

func TestRunnerProcessSuccess(t *testing.T) {
	broker := &stubBroker{}
	r, results, reporter, _ := newTestRunner(t, broker)
	r.Register(JobTypeReport, HandlerFunc(func(context.Context, *Job) error { return nil }))

	d := newDelivery(t, JobTypeReport, 0)
	r.process(context.Background(), d)

	assert.Equal(t, []string{d.MessageID}, broker.acked)
	assert.Empty(t, broker.retried)
	assert.Empty(t, broker.deadLettered)
	assert.Equal(t, []Status{StatusProcessing, StatusCompleted}, results.statuses())
	assert.Equal(t, d.Job.ID, results.last().JobID)
	assert.Empty(t, results.last().Error)
	assert.Zero(t, reporter.count())
}

func TestRunnerProcessFailures(t *testing.T) {
	tests := []struct {
		name         string
		attempt      int
		handlerErr   error
		wantRetry    bool
		wantStatuses []Status
	}{
		{
			name:         "transient failure is retried",
			attempt:      0,
			handlerErr:   errTransient,
			wantRetry:    true,
			wantStatuses: []Status{StatusProcessing, StatusRetrying},
		},
		{
			name:         "last retry still allowed",
			attempt:      2,
			handlerErr:   errTransient,
			wantRetry:    true,
			wantStatuses: []Status{StatusProcessing, StatusRetrying},
		},
		{
			name:         "retries exhausted",
			attempt:      3,
			handlerErr:   errTransient,
			wantRetry:    false,
			wantStatuses: []Status{StatusProcessing, StatusFailed},
		},
		{
			name:         "permanent failure skips retries",
			attempt:      0,
			handlerErr:   Permanent(ErrInvalidPayload),
			wantRetry:    false,
			wantStatuses: []Status{StatusProcessing, StatusFailed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			broker := &stubBroker{}
			r, results, reporter, _ := newTestRunner(t, broker)
			r.Register(JobTypeReport, HandlerFunc(func(context.Context, *Job) error { return tt.handlerErr }))

			d := newDelivery(t, JobTypeReport, tt.attempt)
			r.process(context.Background(), d)

			assert.Empty(t, broker.acked)
			if tt.wantRetry {
				assert.Equal(t, []string{d.MessageID}, broker.retried)
				assert.Equal(t, []time.Duration{time.Minute}, broker.retryDelays)
				assert.Empty(t, broker.deadLettered)
			} else {
				assert.Empty(t, broker.retried)
				assert.Equal(t, []string{d.MessageID}, broker.deadLettered)
				assert.ErrorIs(t, broker.causes[0], tt.handlerErr)
			}
			assert.Equal(t, tt.wantStatuses, results.statuses())
			assert.Equal(t, tt.attempt, results.last().Attempt)
			assert.NotEmpty(t, results.last().Error)
			assert.Equal(t, 1, reporter.count())
		})
	}
}

func TestRunnerProcessUnknownJobType(t *testing.T) {
	broker := &stubBroker{}
	r, results, _, _ := newTestRunner(t, broker)

	d := newDelivery(t, "mystery", 0)
	r.process(context.Background(), d)

	require.Len(t, broker.deadLettered, 1)
	assert.ErrorIs(t, broker.causes[0], ErrUnknownJobType)
	assert.Equal(t, []Status{StatusFailed}, results.statuses())
}

func TestRunnerProcessUndecodableDelivery(t *testing.T) {
	broker := &stubBroker{}
	r, results, _, _ := newTestRunner(t, broker)

	d := &Delivery{MessageID: "9-0", Raw: "{", DecodeErr: ErrInvalidJob}
	r.process(context.Background(), d)

	assert.Equal(t, []string{"9-0"}, broker.deadLettered)
	assert.ErrorIs(t, broker.causes[0], ErrInvalidJob)
	assert.Empty(t, results.statuses())
}

func TestRunnerProcessRecoversPanics(t *testing.T) {
	broker := &stubBroker{}
	r, results, _, buf := newTestRunner(t, broker)
	r.Register(JobTypeReport, HandlerFunc(func(context.Context, *Job) error { panic("boom") }))

	d := newDelivery(t, JobTypeReport, 0)
	require.NotPanics(t, func() { r.process(context.Background(), d) })

	assert.Equal(t, []string{d.MessageID}, broker.retried)
	assert.Contains(t, results.last().Error, "panicked")
	logger.AssertLogContains(t, buf, "job handler panicked")
}

func TestRunnerProcessRetrySchedulingFailure(t *testing.T) {
	broker := &stubBroker{retryErr: ErrQueueUnavailable}
	r, results, _, _ := newTestRunner(t, broker)
	r.Register(JobTypeReport, HandlerFunc(func(context.Context, *Job) error { return errTransient }))

	d := newDelivery(t, JobTypeReport, 0)
	r.process(context.Background(), d)

	// The entry stays pending for reclaim.
	assert.Empty(t, broker.acked)
	assert.Empty(t, broker.deadLettered)
	assert.Equal(t, []Status{StatusProcessing}, results.statuses())
}

func TestRunnerJobTimeout(t *testing.T) {
	broker := &stubBroker{}
	r, _, _, _ := newTestRunner(t, broker)
	r.config.JobTimeout = 10 * time.Millisecond

	var sawDeadline atomic.Bool
	r.Register(JobTypeReport, HandlerFunc(func(ctx context.Context, _ *Job) error {
		<-ctx.Done()
		sawDeadline.Store(errors.Is(ctx.Err(), context.DeadlineExceeded))
		return ctx.Err()
	}))

	r.process(context.Background(), newDelivery(t, JobTypeReport, 0))

	assert.True(t, sawDeadline.Load())
	assert.Len(t, broker.retried, 1)
}

func TestRunnerResultStoreFailureDoesNotBlockJob(t *testing.T) {
	broker := &stubBroker{}
	r, results, _, _ := newTestRunner(t, broker)
	results.err = errors.New("write concern error")
	r.Register(JobTypeReport, HandlerFunc(func(context.Context, *Job) error { return nil }))

	d := newDelivery(t, JobTypeReport, 0)
	r.process(context.Background(), d)

	assert.Equal(t, []string{d.MessageID}, broker.acked)
}

func TestNewRunnerAppliesDefaults(t *testing.T) {
	r := NewRunner(&stubBroker{}, nil, nil, DefaultRetryPolicy(), RunnerConfig{}, nil)

	assert.Equal(t, DefaultRunnerConfig(), r.config)
	assert.Equal(t, 3, r.policy.MaxRetries)
}

func TestRunnerRunEndToEnd(t *testing.T) {
	b, _, _ := newTestBroker(t)
	_, log := logger.NewTestLogger(t)
	results := &memoryResultStore{}

	r := NewRunner(b, results, nil, DefaultRetryPolicy(), RunnerConfig{
		WorkerCount:     2,
		JobTimeout:      time.Second,
		PromoteInterval: 10 * time.Millisecond,
		ErrorBackoff:    10 * time.Millisecond,
	}, log)

	handled := make(chan string, 1)
	r.Register(JobTypeVerificationEmail, HandlerFunc(func(_ context.Context, job *Job) error {
		var p VerificationEmailPayload
		if err := job.Decode(&p); err != nil {
			return err
		}
		handled <- p.Email
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	_, err := b.Enqueue(context.Background(), JobTypeVerificationEmail,
		VerificationEmailPayload{Email: "jane@example.com", Link: "http://localhost/verify-email?token=t"})
	require.NoError(t, err)

	select {
	case email := <-handled:
		assert.Equal(t, "jane@example.com", email)
	case <-time.After(5 * time.Second):
		t.Fatal("job was not handled")
	}

	require.Eventually(t, func() bool {
		statuses := results.statuses()
		return len(statuses) > 0 && statuses[len(statuses)-1] == StatusCompleted
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop")
	}
}

func TestRunnerClaimSkipsEntriesAlreadyInFlight(t *testing.T) {
	r, _, _, _ := newTestRunner(t, &stubBroker{})

	assert.True(t, r.claim("1-0"))
	assert.False(t, r.claim("1-0"), "a reclaimed copy of a running entry must not be dispatched")
	assert.True(t, r.claim("2-0"))
	assert.ElementsMatch(t, []string{"1-0", "2-0"}, r.inflightIDs())

	r.release("1-0")
	assert.Equal(t, []string{"2-0"}, r.inflightIDs())
	assert.True(t, r.claim("1-0"))
}

func TestRunnerHeartbeatExtendsInFlightEntries(t *testing.T) {
	broker := &stubBroker{}
	_, log := logger.NewTestLogger(t)
	r := NewRunner(broker, nil, nil, DefaultRetryPolicy(), RunnerConfig{
		WorkerCount:       1,
		HeartbeatInterval: 10 * time.Millisecond,
	}, log)

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.heartbeatLoop(context.Background(), stop)
	}()

	// Nothing in flight: no extension calls.
	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, broker.extendedIDs())

	require.True(t, r.claim("7-0"))
	require.Eventually(t, func() bool { return len(broker.extendedIDs()) > 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"7-0"}, broker.extendedIDs()[0])

	close(stop)
	<-done
}

// slowJobRunner starts a runner whose handler takes hold to finish and counts executions.
func slowJobRunner(t *testing.T, b *RedisBroker, cfg RunnerConfig, hold time.Duration, started chan<- struct{}) (*atomic.Int32, func()) {
	t.Helper()
	_, log := logger.NewTestLogger(t)

	var executions atomic.Int32
	r := NewRunner(b, nil, nil, DefaultRetryPolicy(), cfg, log)
	r.Register(JobTypeReport, HandlerFunc(func(context.Context, *Job) error {
		executions.Add(1)
		if started != nil {
			select {
			case started <- struct{}{}:
			default:
			}
		}
		time.Sleep(hold)
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	return &executions, func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("runner did not stop")
		}
	}
}

func TestRunnerDoesNotRerunItsOwnLongJob(t *testing.T) {
	ctx := context.Background()
	b, rdb, _ := newTestBroker(t, WithReclaimIdle(100*time.Millisecond))

	executions, stop := slowJobRunner(t, b, RunnerConfig{
		WorkerCount:       2,
		JobTimeout:        5 * time.Second,
		ReclaimInterval:   20 * time.Millisecond,
		HeartbeatInterval: 25 * time.Millisecond,
	}, 400*time.Millisecond, nil)

	_, err := b.Enqueue(ctx, JobTypeReport, ReportPayload{RecipientEmail: "john@example.com"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		pending, err := rdb.XPending(ctx, "test:jobs", "workers").Result()
		return err == nil && executions.Load() == 1 && pending.Count == 0
	}, 5*time.Second, 10*time.Millisecond)

	// Several reclaim intervals past completion.
	time.Sleep(150 * time.Millisecond)
	stop()

	assert.Equal(t, int32(1), executions.Load())
}

func TestRunnerRunningJobIsNotReclaimedByAnotherConsumer(t *testing.T) {
	ctx := context.Background()
	owner, rdb, _ := newTestBroker(t, WithReclaimIdle(100*time.Millisecond))
	other := NewRedisBroker(rdb, "test:jobs", nil,
		WithConsumerName("other-consumer"),
		WithBlockTime(20*time.Millisecond),
		WithReclaimIdle(100*time.Millisecond))

	started := make(chan struct{}, 1)
	ownerRuns, stopOwner := slowJobRunner(t, owner, RunnerConfig{
		WorkerCount:       1,
		JobTimeout:        5 * time.Second,
		ReclaimInterval:   time.Minute,
		HeartbeatInterval: 25 * time.Millisecond,
	}, 500*time.Millisecond, started)

	_, err := owner.Enqueue(ctx, JobTypeReport, ReportPayload{RecipientEmail: "john@example.com"})
	require.NoError(t, err)

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("job was not picked up")
	}

	otherRuns, stopOther := slowJobRunner(t, other, RunnerConfig{
		WorkerCount:       1,
		ReclaimInterval:   20 * time.Millisecond,
		HeartbeatInterval: 25 * time.Millisecond,
	}, 0, nil)

	require.Eventually(t, func() bool {
		pending, err := rdb.XPending(ctx, "test:jobs", "workers").Result()
		return err == nil && pending.Count == 0
	}, 5*time.Second, 10*time.Millisecond)

	stopOther()
	stopOwner()

	assert.Equal(t, int32(1), ownerRuns.Load())
	assert.Equal(t, int32(0), otherRuns.Load(), "entry was reclaimed while its owner was still running it")
}
