// internal/ingest/collectioncheck/registry.go
package collectioncheck

import (
	"context"
	"database/sql"

	"stac-ingestor/internal/common/errors"
	"stac-ingestor/internal/models"
)

// Registry is the catalog's collection registry: the read path used during
// validation, plus the writes that make collections exist in the first place.
type Registry interface {
	Exists(ctx context.Context, collectionID string) (bool, error)
	Register(ctx context.Context, collection models.Collection) error
	Delete(ctx context.Context, collectionID string) error
}

// PostgresRegistry reads and writes the collections table in the catalog store.
type PostgresRegistry struct {
	db *sql.DB
}

func NewPostgresRegistry(db *sql.DB) *PostgresRegistry {
	return &PostgresRegistry{db: db}
}

func (r *PostgresRegistry) Exists(ctx context.Context, collectionID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM collections WHERE id = $1`, collectionID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewRegistryLookupFailedError(err)
	}
	return true, nil
}

func (r *PostgresRegistry) Register(ctx context.Context, collection models.Collection) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO collections (id, title, description, license)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE
		 SET title = EXCLUDED.title, description = EXCLUDED.description, license = EXCLUDED.license`,
		collection.ID, collection.Title, collection.Description, collection.License)
	if err != nil {
		return errors.Normalize(err)
	}
	return nil
}

func (r *PostgresRegistry) Delete(ctx context.Context, collectionID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM collections WHERE id = $1`, collectionID)
	if err != nil {
		return errors.Normalize(err)
	}
	return nil
}
