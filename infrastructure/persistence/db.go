package persistence

import (
	"errors"
	"fmt"

	"github.com/fixhound/fixhound/internal/database"
)

// ErrNotFound indicates the requested row does not exist.
var ErrNotFound = errors.New("record not found")

const (
	pgCreateVectorExtension = `CREATE EXTENSION IF NOT EXISTS vector`

	pgEmbeddingColumnExists = `
SELECT EXISTS(
	SELECT 1 FROM information_schema.columns
	WHERE table_name = 'issues' AND column_name = 'embedding'
)`

	// atttypmod holds the declared dimension for vector columns.
	pgEmbeddingDimension = `
SELECT a.atttypmod AS dimension
FROM pg_attribute a
JOIN pg_class c ON a.attrelid = c.oid
WHERE c.relname = 'issues' AND a.attname = 'embedding'`

	pgCreateEmbeddingIndex = `
CREATE INDEX IF NOT EXISTS issues_embedding_idx
ON issues
USING ivfflat (embedding vector_cosine_ops)
WITH (lists = 100)`

	sqliteEmbeddingColumnExists = `
SELECT COUNT(*) FROM pragma_table_info('issues') WHERE name = 'embedding'`
)

// Migrate creates or updates the schema, including the backend-specific
// embedding column sized to the deployment's pinned dimension. It doubles as
// the startup self-check: an existing embedding column with a different
// dimension fails fast with database.ErrDimensionMismatch instead of
// surfacing per-request schema errors later.
func Migrate(db database.Database, dimension int) error {
	if err := db.GORM().AutoMigrate(&ApplicationModel{}, &IssueModel{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if db.IsPostgres() {
		return migratePostgresEmbedding(db, dimension)
	}
	return migrateSQLiteEmbedding(db)
}

func migratePostgresEmbedding(db database.Database, dimension int) error {
	gdb := db.GORM()

	if err := gdb.Exec(pgCreateVectorExtension).Error; err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}

	var columnExists bool
	if err := gdb.Raw(pgEmbeddingColumnExists).Scan(&columnExists).Error; err != nil {
		return err
	}

	if !columnExists {
		addColumn := fmt.Sprintf(`ALTER TABLE issues ADD COLUMN embedding vector(%d)`, dimension)
		if err := gdb.Exec(addColumn).Error; err != nil {
			return fmt.Errorf("add embedding column: %w", err)
		}
	}

	var dbDimension int
	if err := gdb.Raw(pgEmbeddingDimension).Scan(&dbDimension).Error; err != nil {
		return err
	}
	if dbDimension > 0 && dbDimension != dimension {
		return fmt.Errorf(
			"issues.embedding is vector(%d) but deployment is pinned to %d: %w",
			dbDimension, dimension, database.ErrDimensionMismatch,
		)
	}

	if err := gdb.Exec(pgCreateEmbeddingIndex).Error; err != nil {
		// The index may already exist with different parameters; similarity
		// queries still work without it, only slower.
		return nil
	}
	return nil
}

func migrateSQLiteEmbedding(db database.Database) error {
	gdb := db.GORM()

	var count int
	if err := gdb.Raw(sqliteEmbeddingColumnExists).Scan(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		if err := gdb.Exec(`ALTER TABLE issues ADD COLUMN embedding TEXT`).Error; err != nil {
			return fmt.Errorf("add embedding column: %w", err)
		}
	}
	return nil
}
