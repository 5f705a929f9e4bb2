// Package testdb provides a shared in-memory SQLite database helper for
// fast, realistic tests.
package testdb

import (
	"context"
	"testing"

	"github.com/fixhound/fixhound/infrastructure/persistence"
	"github.com/fixhound/fixhound/internal/database"
)

// Dimension is the embedding dimension used throughout tests. Small on
// purpose: fixtures stay readable and cosine math stays checkable by hand.
const Dimension = 3

// New creates an in-memory SQLite database with all migrations applied,
// using the test embedding dimension. The database is closed when the test
// finishes.
func New(t *testing.T) database.Database {
	t.Helper()
	return NewWithDimension(t, Dimension)
}

// NewWithDimension creates an in-memory SQLite database migrated for the
// given embedding dimension.
func NewWithDimension(t *testing.T, dimension int) database.Database {
	t.Helper()
	ctx := context.Background()

	db, err := database.New(ctx, "sqlite:///:memory:")
	if err != nil {
		t.Fatalf("testdb: open database: %v", err)
	}
	if err := persistence.Migrate(db, dimension); err != nil {
		_ = db.Close()
		t.Fatalf("testdb: migrate: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}
