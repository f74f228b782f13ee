package mongodb

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/candidate-api/internal/domain"
	"github.com/phrazzld/candidate-api/internal/store"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// UserStore implements store.UserStore on the users collection.
type UserStore struct {
	coll   *mongo.Collection
	logger *slog.Logger
}

// Ensure UserStore implements store.UserStore interface
var _ store.UserStore = (*UserStore)(nil)

// NewUserStore creates a UserStore. If logger is nil, slog.Default() is used.
func NewUserStore(db *mongo.Database, logger *slog.Logger) *UserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &UserStore{
		coll:   db.Collection(UsersCollection),
		logger: logger.With(slog.String("component", "user_store")),
	}
}

// Create implements store.UserStore.Create
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	res, err := s.coll.InsertOne(ctx, newUserDocument(user))
	if err != nil {
		mapped := mapEntityError(err, nil, store.ErrEmailExists)
		if store.IsDuplicateError(mapped) {
			s.logger.DebugContext(ctx, "duplicate user email on insert")
			return mapped
		}
		return store.NewStoreError("user", "create", "failed to insert user", mapped)
	}

	if oid, ok := res.InsertedID.(bson.ObjectID); ok {
		user.ID = oid.Hex()
	}
	return nil
}

// GetByEmail implements store.UserStore.GetByEmail
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var doc userDocument
	err := s.coll.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if err != nil {
		mapped := mapEntityError(err, store.ErrUserNotFound, nil)
		if store.IsNotFoundError(mapped) {
			return nil, mapped
		}
		return nil, store.NewStoreError("user", "get", "failed to find user by email", mapped)
	}
	return doc.toDomain(), nil
}

// ExistsByEmail implements store.UserStore.ExistsByEmail
func (s *UserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"email": email}, options.Count().SetLimit(1))
	if err != nil {
		return false, store.NewStoreError("user", "exists", "failed to count users", MapError(err))
	}
	return n > 0, nil
}
