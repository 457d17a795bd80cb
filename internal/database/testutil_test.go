package database

import (
	"context"
	"testing"

	"github.com/ar1ocker/currencyledger/internal/models"
)

// openTestStore opens an in-memory SQLite-backed Store with the schema
// applied, mirroring the teacher's setupBalanceTestDB fixture shape
// (balances_test.go) adapted to this package's exported Open.
func openTestStore(t *testing.T) *Store {
	t.Helper()

	cfg := models.DatabaseConfig{
		Path:         "file::memory:?cache=shared",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}

	db, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}
