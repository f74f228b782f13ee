package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/candidate-api/internal/domain"
	"github.com/phrazzld/candidate-api/internal/store"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// CandidateStore implements store.CandidateStore on the candidates collection.
type CandidateStore struct {
	coll     *mongo.Collection
	logger   *slog.Logger
	timeFunc func() time.Time
}

// Ensure CandidateStore implements store.CandidateStore interface
var _ store.CandidateStore = (*CandidateStore)(nil)

// NewCandidateStore creates a CandidateStore. If logger is nil, slog.Default() is used.
func NewCandidateStore(db *mongo.Database, logger *slog.Logger) *CandidateStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &CandidateStore{
		coll:     db.Collection(CandidatesCollection),
		logger:   logger.With(slog.String("component", "candidate_store")),
		timeFunc: func() time.Time { return time.Now().UTC() },
	}
}

// List implements store.CandidateStore.List
func (s *CandidateStore) List(ctx context.Context, params store.ListParams) ([]*domain.Candidate, error) {
	filter := bson.M{}
	if params.Search != "" {
		filter["$text"] = bson.M{"$search": params.Search}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(params.Skip()).
		SetLimit(int64(params.Size))

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, store.NewStoreError("candidate", "list", "failed to query candidates", MapError(err))
	}

	var docs []candidateDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, store.NewStoreError("candidate", "list", "failed to decode candidates", MapError(err))
	}

	candidates := make([]*domain.Candidate, 0, len(docs))
	for _, doc := range docs {
		candidates = append(candidates, doc.toDomain())
	}
	return candidates, nil
}

// Create implements store.CandidateStore.Create
func (s *CandidateStore) Create(ctx context.Context, candidate *domain.Candidate) error {
	if err := candidate.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	res, err := s.coll.InsertOne(ctx, newCandidateDocument(candidate))
	if err != nil {
		mapped := mapEntityError(err, nil, store.ErrCandidateEmailExists)
		if store.IsDuplicateError(mapped) {
			s.logger.DebugContext(ctx, "duplicate candidate email on insert")
			return mapped
		}
		return store.NewStoreError("candidate", "create", "failed to insert candidate", mapped)
	}

	if oid, ok := res.InsertedID.(bson.ObjectID); ok {
		candidate.ID = oid.Hex()
	}
	return nil
}

// GetByID implements store.CandidateStore.GetByID
func (s *CandidateStore) GetByID(ctx context.Context, id string) (*domain.Candidate, error) {
	oid, err := parseObjectID(id, store.ErrCandidateNotFound)
	if err != nil {
		return nil, err
	}

	var doc candidateDocument
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, s.wrap("get", "failed to find candidate", err)
	}
	return doc.toDomain(), nil
}

// ExistsByEmail implements store.CandidateStore.ExistsByEmail
func (s *CandidateStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"email": email}, options.Count().SetLimit(1))
	if err != nil {
		return false, store.NewStoreError("candidate", "exists", "failed to count candidates", MapError(err))
	}
	return n > 0, nil
}

// Update implements store.CandidateStore.Update
//
// An empty update performs no write and returns the current record.
func (s *CandidateStore) Update(
	ctx context.Context,
	id string,
	update domain.CandidateUpdate,
) (*domain.Candidate, error) {
	if update.IsEmpty() {
		return s.GetByID(ctx, id)
	}
	if err := update.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	oid, err := parseObjectID(id, store.ErrCandidateNotFound)
	if err != nil {
		return nil, err
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc candidateDocument
	err = s.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": oid},
		bson.M{"$set": candidateUpdateSet(update, s.timeFunc())},
		opts,
	).Decode(&doc)
	if err != nil {
		return nil, s.wrap("update", "failed to update candidate", err)
	}
	return doc.toDomain(), nil
}

// Delete implements store.CandidateStore.Delete
func (s *CandidateStore) Delete(ctx context.Context, id string) error {
	oid, err := parseObjectID(id, store.ErrCandidateNotFound)
	if err != nil {
		return err
	}

	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return s.wrap("delete", "failed to delete candidate", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrCandidateNotFound
	}
	return nil
}

// VerifyByToken implements store.CandidateStore.VerifyByToken
//
// The lookup and the flag flip happen in one findAndModify, so a token can
// be consumed at most once even under concurrent requests.
func (s *CandidateStore) VerifyByToken(ctx context.Context, token string) (*domain.Candidate, error) {
	if token == "" {
		return nil, store.ErrVerificationTokenNotFound
	}

	filter := bson.M{"verification_token": token, "is_verified": false}
	update := bson.M{"$set": bson.M{
		"is_verified":        true,
		"verification_token": nil,
		"updated_at":         s.timeFunc(),
	}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc candidateDocument
	if err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		mapped := mapEntityError(err, store.ErrVerificationTokenNotFound, nil)
		if store.IsNotFoundError(mapped) {
			return nil, mapped
		}
		return nil, store.NewStoreError("candidate", "verify", "failed to verify candidate", mapped)
	}
	return doc.toDomain(), nil
}

// Each implements store.CandidateStore.Each
func (s *CandidateStore) Each(ctx context.Context, batchSize int, fn func(*domain.Candidate) error) error {
	if batchSize <= 0 {
		batchSize = 1000
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetBatchSize(int32(batchSize))

	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return store.NewStoreError("candidate", "iterate", "failed to open cursor", MapError(err))
	}
	defer func() {
		if cerr := cur.Close(context.WithoutCancel(ctx)); cerr != nil {
			s.logger.WarnContext(ctx, "failed to close candidate cursor", "error", cerr)
		}
	}()

	for cur.Next(ctx) {
		var doc candidateDocument
		if err := cur.Decode(&doc); err != nil {
			return store.NewStoreError("candidate", "iterate", "failed to decode candidate", err)
		}
		if err := fn(doc.toDomain()); err != nil {
			return err
		}
	}

	if err := cur.Err(); err != nil {
		return store.NewStoreError("candidate", "iterate", "cursor failed", MapError(err))
	}
	return nil
}

// wrap maps err for candidate operations addressed by id.
func (s *CandidateStore) wrap(op, message string, err error) error {
	mapped := mapEntityError(err, store.ErrCandidateNotFound, store.ErrCandidateEmailExists)
	if store.IsNotFoundError(mapped) || store.IsDuplicateError(mapped) {
		return mapped
	}
	return store.NewStoreError("candidate", op, message, mapped)
}
