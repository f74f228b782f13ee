package task

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/phrazzld/candidate-api/internal/domain"
	"github.com/phrazzld/candidate-api/internal/platform/mailer"
	"github.com/redis/go-redis/v9"
)

// newTestBroker starts a miniredis server and returns a broker with its group created.
func newTestBroker(t *testing.T, opts ...BrokerOption) (*RedisBroker, *redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	opts = append([]BrokerOption{
		WithConsumerName("test-consumer"),
		WithBlockTime(20 * time.Millisecond),
	}, opts...)
	b := NewRedisBroker(rdb, "test:jobs", nil, opts...)
	if err := b.EnsureGroup(context.Background()); err != nil {
		t.Fatalf("ensure group: %v", err)
	}
	return b, rdb, mr
}

type fakeMailer struct {
	mu       sync.Mutex
	messages []mailer.Message
	err      error
	// onSend runs before the message is recorded, while attachments still exist.
	onSend func(msg mailer.Message)
}

func (m *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.onSend != nil {
		m.onSend(msg)
	}
	m.messages = append(m.messages, msg)
	return m.err
}

func (m *fakeMailer) sent() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message(nil), m.messages...)
}

type fakeCandidateSource struct {
	candidates []*domain.Candidate
	err        error
	batchSizes []int
}

func (s *fakeCandidateSource) Each(_ context.Context, batchSize int, fn func(*domain.Candidate) error) error {
	s.batchSizes = append(s.batchSizes, batchSize)
	for _, c := range s.candidates {
		if err := fn(c); err != nil {
			return err
		}
	}
	return s.err
}

type memoryResultStore struct {
	mu      sync.Mutex
	history []Result
	err     error
}

func (s *memoryResultStore) SaveResult(_ context.Context, r *Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, *r)
	return s.err
}

func (s *memoryResultStore) statuses() []Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Status, 0, len(s.history))
	for _, r := range s.history {
		out = append(out, r.Status)
	}
	return out
}

func (s *memoryResultStore) last() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history[len(s.history)-1]
}

type recordingReporter struct {
	mu     sync.Mutex
	errors []error
}

func (r *recordingReporter) CaptureError(_ context.Context, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, err)
}

func (r *recordingReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errors)
}

// stubBroker records how the runner settles each delivery.
type stubBroker struct {
	mu           sync.Mutex
	acked        []string
	retried      []string
	retryDelays  []time.Duration
	deadLettered []string
	causes       []error
	retryErr     error
	extended     [][]string
}

func (b *stubBroker) Read(ctx context.Context) ([]*Delivery, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (b *stubBroker) ReclaimStale(context.Context) ([]*Delivery, error) { return nil, nil }
func (b *stubBroker) PromoteDue(context.Context) (int, error)           { return 0, nil }

func (b *stubBroker) Extend(_ context.Context, ids []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.extended = append(b.extended, append([]string(nil), ids...))
	return nil
}

func (b *stubBroker) extendedIDs() [][]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]string(nil), b.extended...)
}

func (b *stubBroker) Ack(_ context.Context, d *Delivery) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.acked = append(b.acked, d.MessageID)
	return nil
}

func (b *stubBroker) Retry(_ context.Context, d *Delivery, delay time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.retryErr != nil {
		return b.retryErr
	}
	b.retried = append(b.retried, d.MessageID)
	b.retryDelays = append(b.retryDelays, delay)
	return nil
}

func (b *stubBroker) DeadLetter(_ context.Context, d *Delivery, cause error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deadLettered = append(b.deadLettered, d.MessageID)
	b.causes = append(b.causes, cause)
	return nil
}

var errTransient = errors.New("smtp: connection reset")
