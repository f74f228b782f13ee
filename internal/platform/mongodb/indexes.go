package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection names.
const (
	UsersCollection      = "users"
	CandidatesCollection = "candidates"
)

// EnsureIndexes creates the indexes the stores rely on. It is idempotent.
//
// The unique e-mail indexes back the duplicate pre-checks done by the
// services: two concurrent creations with the same e-mail cannot both
// succeed, the loser gets a duplicate-key error mapped to the same
// conflict error as the pre-check.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}

	_, err = db.Collection(CandidatesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("candidates_email_unique"),
		},
		{
			Keys:    bson.D{{Key: "name", Value: "text"}, {Key: "email", Value: "text"}},
			Options: options.Index().SetName("candidates_text"),
		},
		{
			Keys: bson.D{{Key: "verification_token", Value: 1}},
			Options: options.Index().
				SetName("candidates_verification_token").
				SetPartialFilterExpression(bson.D{{Key: "is_verified", Value: false}}),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create candidates indexes: %w", err)
	}

	return nil
}
