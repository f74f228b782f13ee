package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/candidate-api/internal/store"
	"github.com/phrazzld/candidate-api/internal/task"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type taskResultDocument struct {
	JobID      string    `bson:"_id"`
	Type       string    `bson:"type"`
	Status     string    `bson:"status"`
	Attempt    int       `bson:"attempt"`
	Error      string    `bson:"error,omitempty"`
	EnqueuedAt time.Time `bson:"enqueued_at"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

func (d taskResultDocument) toTask() *task.Result {
	return &task.Result{
		JobID:      d.JobID,
		Type:       d.Type,
		Status:     task.Status(d.Status),
		Attempt:    d.Attempt,
		Error:      d.Error,
		EnqueuedAt: d.EnqueuedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

// TaskResultStore keeps the latest state of every job, one document per job ID.
type TaskResultStore struct {
	coll   *mongo.Collection
	logger *slog.Logger
}

var _ task.ResultStore = (*TaskResultStore)(nil)

// NewTaskResultStore creates a TaskResultStore on the named collection.
func NewTaskResultStore(db *mongo.Database, collection string, logger *slog.Logger) *TaskResultStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &TaskResultStore{
		coll:   db.Collection(collection),
		logger: logger.With(slog.String("component", "task_result_store")),
	}
}

// SaveResult implements task.ResultStore. The stored document is replaced
// field by field so later transitions overwrite earlier ones.
func (s *TaskResultStore) SaveResult(ctx context.Context, result *task.Result) error {
	if result == nil || result.JobID == "" {
		return fmt.Errorf("%w: task result without job id", store.ErrInvalidEntity)
	}

	updatedAt := result.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	set := bson.M{
		"type":        result.Type,
		"status":      string(result.Status),
		"attempt":     result.Attempt,
		"error":       result.Error,
		"enqueued_at": result.EnqueuedAt,
		"updated_at":  updatedAt,
	}

	_, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": result.JobID},
		bson.M{"$set": set},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return store.NewStoreError("task_result", "save", "failed to save task result", MapError(err))
	}

	s.logger.DebugContext(ctx, "task result saved",
		slog.String("job_id", result.JobID),
		slog.String("status", string(result.Status)))
	return nil
}

// Get returns the latest recorded state of a job.
func (s *TaskResultStore) Get(ctx context.Context, jobID string) (*task.Result, error) {
	var doc taskResultDocument
	if err := s.coll.FindOne(ctx, bson.M{"_id": jobID}).Decode(&doc); err != nil {
		return nil, MapError(err)
	}
	return doc.toTask(), nil
}
