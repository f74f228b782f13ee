package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/candidate-api/internal/redact"
	"github.com/redis/go-redis/v9"
)

// jobField is the stream entry field holding the JSON-encoded Job.
const jobField = "job"

// Delivery is one stream entry handed to a worker. Job is nil when the entry
// could not be decoded; DecodeErr then says why.
type Delivery struct {
	MessageID string
	Job       *Job
	Raw       string
	DecodeErr error
}

// RedisBroker is a durable job queue on Redis Streams.
//
// Ready jobs live in a stream consumed through a consumer group. Jobs waiting
// for a retry live in a sorted set scored by their due time and are moved
// back into the stream by PromoteDue. Jobs that exhausted their retries are
// appended to a dead-letter stream.
type RedisBroker struct {
	rdb      redis.Cmdable
	logger   *slog.Logger
	stream   string
	group    string
	consumer string

	blockTime   time.Duration
	batchSize   int64
	reclaimIdle time.Duration
	maxLen      int64

	results ResultStore
	now     func() time.Time
}

// Ensure RedisBroker implements Enqueuer and Broker interfaces
var (
	_ Enqueuer = (*RedisBroker)(nil)
	_ Broker   = (*RedisBroker)(nil)
)

// BrokerOption configures a RedisBroker.
type BrokerOption func(*RedisBroker)

// WithGroup sets the consumer group name.
func WithGroup(group string) BrokerOption {
	return func(b *RedisBroker) {
		b.group = group
	}
}

// WithConsumerName sets this process's consumer name within the group.
func WithConsumerName(name string) BrokerOption {
	return func(b *RedisBroker) {
		b.consumer = name
	}
}

// WithBlockTime sets how long Read waits for new entries.
func WithBlockTime(d time.Duration) BrokerOption {
	return func(b *RedisBroker) {
		b.blockTime = d
	}
}

// WithBatchSize sets the maximum number of entries returned per read.
func WithBatchSize(size int64) BrokerOption {
	return func(b *RedisBroker) {
		b.batchSize = size
	}
}

// WithReclaimIdle sets how long an entry must sit unacknowledged before
// another consumer may claim it.
func WithReclaimIdle(d time.Duration) BrokerOption {
	return func(b *RedisBroker) {
		b.reclaimIdle = d
	}
}

// WithMaxLen caps the approximate stream length. Zero disables trimming.
func WithMaxLen(n int64) BrokerOption {
	return func(b *RedisBroker) {
		b.maxLen = n
	}
}

// WithResults records every published job as pending in rs.
func WithResults(rs ResultStore) BrokerOption {
	return func(b *RedisBroker) {
		b.results = rs
	}
}

// NewRedisBroker creates a broker on the given stream.
func NewRedisBroker(rdb redis.Cmdable, stream string, logger *slog.Logger, opts ...BrokerOption) *RedisBroker {
	if logger == nil {
		logger = slog.Default()
	}

	b := &RedisBroker{
		rdb:         rdb,
		logger:      logger.With(slog.String("component", "redis_broker")),
		stream:      stream,
		group:       "workers",
		consumer:    defaultConsumerName(),
		blockTime:   time.Second,
		batchSize:   10,
		reclaimIdle: 5 * time.Minute,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func defaultConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return host + "-" + uuid.NewString()[:8]
}

// DelayedKey returns the sorted set holding jobs waiting for a retry.
func (b *RedisBroker) DelayedKey() string {
	return b.stream + ":delayed"
}

// DeadLetterStream returns the stream receiving jobs that cannot be run.
func (b *RedisBroker) DeadLetterStream() string {
	return b.stream + ":dlq"
}

// EnsureGroup creates the consumer group, and the stream if needed.
// An existing group is not an error.
func (b *RedisBroker) EnsureGroup(ctx context.Context) error {
	err := b.rdb.XGroupCreateMkStream(ctx, b.stream, b.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("%w: failed to create consumer group: %v", ErrQueueUnavailable, err)
	}
	return nil
}

// Enqueue implements Enqueuer.
func (b *RedisBroker) Enqueue(ctx context.Context, jobType string, payload any) (string, error) {
	job, err := NewJob(jobType, payload)
	if err != nil {
		return "", err
	}

	if err := b.publish(ctx, job); err != nil {
		return "", err
	}
	b.recordPending(ctx, job)

	b.logger.DebugContext(ctx, "job enqueued",
		"job_id", job.ID,
		"job_type", job.Type)
	return job.ID, nil
}

func (b *RedisBroker) publish(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("%w: failed to encode job: %v", ErrInvalidJob, err)
	}

	args := &redis.XAddArgs{
		Stream: b.stream,
		Values: map[string]interface{}{jobField: string(data)},
	}
	if b.maxLen > 0 {
		args.MaxLen = b.maxLen
		args.Approx = true
	}

	if err := b.rdb.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("%w: failed to publish job: %v", ErrQueueUnavailable, err)
	}
	return nil
}

func (b *RedisBroker) recordPending(ctx context.Context, job *Job) {
	if b.results == nil {
		return
	}
	err := b.results.SaveResult(ctx, &Result{
		JobID:      job.ID,
		Type:       job.Type,
		Status:     StatusPending,
		EnqueuedAt: job.EnqueuedAt,
		UpdatedAt:  b.now().UTC(),
	})
	if err != nil {
		b.logger.WarnContext(ctx, "failed to record pending job",
			"job_id", job.ID,
			"error", redact.Error(err))
	}
}

// Read implements Broker. It returns new entries for this consumer, waiting
// up to the block time. An empty result with a nil error means nothing arrived.
func (b *RedisBroker) Read(ctx context.Context) ([]*Delivery, error) {
	streams, err := b.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    b.group,
		Consumer: b.consumer,
		Streams:  []string{b.stream, ">"},
		Count:    b.batchSize,
		Block:    b.blockTime,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to read stream: %v", ErrQueueUnavailable, err)
	}

	var deliveries []*Delivery
	for _, s := range streams {
		for _, msg := range s.Messages {
			deliveries = append(deliveries, decodeMessage(msg))
		}
	}
	return deliveries, nil
}

// ReclaimStale implements Broker. It claims entries that another consumer
// read but never acknowledged, typically because that worker crashed.
func (b *RedisBroker) ReclaimStale(ctx context.Context) ([]*Delivery, error) {
	msgs, _, err := b.rdb.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   b.stream,
		Group:    b.group,
		Consumer: b.consumer,
		MinIdle:  b.reclaimIdle,
		Start:    "0-0",
		Count:    b.batchSize,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to reclaim pending entries: %v", ErrQueueUnavailable, err)
	}

	deliveries := make([]*Delivery, 0, len(msgs))
	for _, msg := range msgs {
		deliveries = append(deliveries, decodeMessage(msg))
	}
	if len(deliveries) > 0 {
		b.logger.InfoContext(ctx, "reclaimed stale jobs", "count", len(deliveries))
	}
	return deliveries, nil
}

// Extend implements Broker. XCLAIM with a zero min-idle to this consumer
// resets the idle clock without changing ownership or returning payloads.
// IDs that were acknowledged in the meantime are ignored by Redis.
func (b *RedisBroker) Extend(ctx context.Context, messageIDs []string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	err := b.rdb.XClaimJustID(ctx, &redis.XClaimArgs{
		Stream:   b.stream,
		Group:    b.group,
		Consumer: b.consumer,
		MinIdle:  0,
		Messages: messageIDs,
	}).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: failed to extend %d pending entries: %v", ErrQueueUnavailable, len(messageIDs), err)
	}
	return nil
}

// Ack implements Broker.
func (b *RedisBroker) Ack(ctx context.Context, d *Delivery) error {
	if err := b.rdb.XAck(ctx, b.stream, b.group, d.MessageID).Err(); err != nil {
		return fmt.Errorf("%w: failed to ack %s: %v", ErrQueueUnavailable, d.MessageID, err)
	}
	return nil
}

// Retry implements Broker. The job is parked in the delayed set with its
// attempt counter incremented, then the original entry is acknowledged.
func (b *RedisBroker) Retry(ctx context.Context, d *Delivery, delay time.Duration) error {
	if d.Job == nil {
		return fmt.Errorf("%w: cannot retry undecodable entry %s", ErrInvalidJob, d.MessageID)
	}

	next := *d.Job
	next.Attempt++
	data, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("%w: failed to encode job: %v", ErrInvalidJob, err)
	}

	due := b.now().Add(delay).UnixMilli()
	if err := b.rdb.ZAdd(ctx, b.DelayedKey(), redis.Z{Score: float64(due), Member: string(data)}).Err(); err != nil {
		return fmt.Errorf("%w: failed to schedule retry: %v", ErrQueueUnavailable, err)
	}

	return b.Ack(ctx, d)
}

// PromoteDue implements Broker. It moves delayed jobs whose due time has
// passed back into the stream and returns how many were moved. Removal from
// the set decides ownership, so concurrent promoters never publish a job twice.
func (b *RedisBroker) PromoteDue(ctx context.Context) (int, error) {
	members, err := b.rdb.ZRangeByScore(ctx, b.DelayedKey(), &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(b.now().UnixMilli(), 10),
		Count: 100,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to scan delayed jobs: %v", ErrQueueUnavailable, err)
	}

	promoted := 0
	for _, member := range members {
		removed, err := b.rdb.ZRem(ctx, b.DelayedKey(), member).Result()
		if err != nil {
			return promoted, fmt.Errorf("%w: failed to claim delayed job: %v", ErrQueueUnavailable, err)
		}
		if removed == 0 {
			continue
		}

		args := &redis.XAddArgs{
			Stream: b.stream,
			Values: map[string]interface{}{jobField: member},
		}
		if err := b.rdb.XAdd(ctx, args).Err(); err != nil {
			// Put it back so the job is not lost.
			restore := redis.Z{Score: float64(b.now().UnixMilli()), Member: member}
			if zerr := b.rdb.ZAdd(ctx, b.DelayedKey(), restore).Err(); zerr != nil {
				b.logger.ErrorContext(ctx, "failed to restore delayed job", "error", redact.Error(zerr))
			}
			return promoted, fmt.Errorf("%w: failed to republish delayed job: %v", ErrQueueUnavailable, err)
		}
		promoted++
	}
	return promoted, nil
}

// DeadLetter implements Broker. The entry is copied to the dead-letter stream
// with the redacted failure reason, then acknowledged.
func (b *RedisBroker) DeadLetter(ctx context.Context, d *Delivery, cause error) error {
	raw := d.Raw
	if d.Job != nil {
		if data, err := json.Marshal(d.Job); err == nil {
			raw = string(data)
		}
	}

	err := b.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: b.DeadLetterStream(),
		Values: map[string]interface{}{
			jobField:    raw,
			"error":     redact.Error(cause),
			"source_id": d.MessageID,
			"failed_at": b.now().UTC().Format(time.RFC3339),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("%w: failed to dead-letter %s: %v", ErrQueueUnavailable, d.MessageID, err)
	}

	return b.Ack(ctx, d)
}

// QueueLength returns the number of entries in the ready stream,
// acknowledged or not.
func (b *RedisBroker) QueueLength(ctx context.Context) (int64, error) {
	return b.rdb.XLen(ctx, b.stream).Result()
}

func decodeMessage(msg redis.XMessage) *Delivery {
	d := &Delivery{MessageID: msg.ID}

	raw, ok := msg.Values[jobField].(string)
	if !ok {
		d.DecodeErr = fmt.Errorf("%w: entry has no %q field", ErrInvalidJob, jobField)
		return d
	}
	d.Raw = raw

	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		d.DecodeErr = fmt.Errorf("%w: %v", ErrInvalidJob, err)
		return d
	}
	if job.ID == "" || job.Type == "" {
		d.DecodeErr = fmt.Errorf("%w: missing id or type", ErrInvalidJob)
		return d
	}

	d.Job = &job
	return d
}
