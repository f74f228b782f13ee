package mongodb

import (
	"errors"
	"fmt"

	"github.com/phrazzld/candidate-api/internal/store"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// MapError maps a driver error to the matching store error, keeping the
// original error in the chain for logging.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	}

	return err
}

// mapEntityError maps err and substitutes entity-specific sentinels for the
// generic not-found and duplicate errors.
func mapEntityError(err error, notFound, duplicate error) error {
	mapped := MapError(err)
	switch {
	case mapped == nil:
		return nil
	case notFound != nil && errors.Is(mapped, store.ErrNotFound):
		return notFound
	case duplicate != nil && errors.Is(mapped, store.ErrDuplicate):
		return duplicate
	default:
		return mapped
	}
}

// parseObjectID converts a hex id. A malformed id cannot match any record,
// so it is reported as notFound.
func parseObjectID(id string, notFound error) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.NilObjectID, fmt.Errorf("%w: malformed id %q", notFound, id)
	}
	return oid, nil
}
