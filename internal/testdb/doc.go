//go:build integration

// Package testdb provides per-test MongoDB databases for integration tests.
//
// Each call to Setup creates a database with a unique name, applies the
// application indexes, and drops the database when the test finishes, so
// tests can run in parallel without seeing each other's data.
//
// Tests are skipped unless CANDIDATE_TEST_DATABASE_URL points at a server:
//
//	func TestCandidateStore(t *testing.T) {
//	    t.Parallel()
//	    db := testdb.Setup(t)
//	    s := mongodb.NewCandidateStore(db, nil)
//	    ...
//	}
package testdb
