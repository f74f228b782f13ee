//go:build integration

package testdb

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/candidate-api/internal/platform/mongodb"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// URLEnv names the environment variable holding the test server URL.
const URLEnv = "CANDIDATE_TEST_DATABASE_URL"

// TestTimeout bounds setup and teardown operations.
const TestTimeout = 10 * time.Second

// IsIntegrationTestEnvironment reports whether a test server is configured.
func IsIntegrationTestEnvironment() bool {
	return strings.TrimSpace(os.Getenv(URLEnv)) != ""
}

// ShouldSkipDatabaseTest reports whether database tests must be skipped.
func ShouldSkipDatabaseTest() bool {
	return !IsIntegrationTestEnvironment()
}

// Setup returns a fresh, indexed database that is dropped after the test.
func Setup(t *testing.T) *mongo.Database {
	t.Helper()

	if ShouldSkipDatabaseTest() {
		t.Skip(URLEnv + " not set - skipping integration test")
	}

	client, err := mongo.Connect(options.Client().
		ApplyURI(os.Getenv(URLEnv)).
		SetServerSelectionTimeout(TestTimeout))
	require.NoError(t, err, "failed to create mongo client")

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()
	require.NoError(t, client.Ping(ctx, readpref.Primary()), "failed to reach test database")

	db := client.Database("candidate_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	require.NoError(t, mongodb.EnsureIndexes(ctx, db), "failed to create indexes")

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
		defer cancel()
		if err := db.Drop(ctx); err != nil {
			t.Logf("failed to drop test database %s: %v", db.Name(), err)
		}
		_ = client.Disconnect(ctx)
	})

	return db
}
