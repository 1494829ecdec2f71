// internal/ingest/writer/store.go
package writer

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"stac-ingestor/internal/common/errors"
	"stac-ingestor/internal/models"
)

// Store is the catalog's write surface. BulkWrite returns one outcome per
// record in input order; a non-nil error means the whole attempt failed
// transiently and no outcomes are usable.
type Store interface {
	BulkWrite(ctx context.Context, records []models.Record) ([]models.CommitOutcome, error)
}

// PostgresStore writes items into the catalog database. Each BulkWrite
// attempt runs in one transaction so a transient failure mid-batch leaves
// no rows behind and a retried attempt cannot collide with its own earlier
// inserts. Record-level failures (duplicate id, integrity violations) roll
// back to a savepoint and are reported per record; connection-level
// failures roll back the whole attempt so the writer can retry the batch.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const insertItemQuery = `
	INSERT INTO items (id, collection, geometry, properties, content)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (id) DO NOTHING`

const (
	savepointQuery  = "SAVEPOINT insert_item"
	rollbackToQuery = "ROLLBACK TO SAVEPOINT insert_item"
)

func (s *PostgresStore) BulkWrite(ctx context.Context, records []models.Record) ([]models.CommitOutcome, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Normalize(err)
	}

	outcomes := make([]models.CommitOutcome, len(records))

	for i, record := range records {
		props, err := json.Marshal(record.Properties)
		if err != nil {
			outcomes[i] = rejectedOutcome(record.ID, errors.NewStoreRejectedError(record.ID, err))
			continue
		}
		content, err := json.Marshal(record)
		if err != nil {
			outcomes[i] = rejectedOutcome(record.ID, errors.NewStoreRejectedError(record.ID, err))
			continue
		}

		// A record-level error aborts the surrounding transaction in
		// Postgres, so every insert gets its own savepoint to roll back to.
		if _, err := tx.ExecContext(ctx, savepointQuery); err != nil {
			tx.Rollback()
			return nil, errors.Normalize(err)
		}

		res, err := tx.ExecContext(ctx, insertItemQuery,
			record.ID, record.Collection, []byte(record.Geometry), props, content)
		if err != nil {
			stdErr := errors.Normalize(err)
			if stdErr.Retryable {
				tx.Rollback()
				return nil, stdErr
			}
			if _, err := tx.ExecContext(ctx, rollbackToQuery); err != nil {
				tx.Rollback()
				return nil, errors.Normalize(err)
			}
			outcomes[i] = rejectedOutcome(record.ID, stdErr)
			continue
		}

		affected, err := res.RowsAffected()
		if err != nil {
			tx.Rollback()
			return nil, errors.NewStoreUnavailableError(err)
		}
		if affected == 0 {
			outcomes[i] = rejectedOutcome(record.ID, errors.NewDuplicateItemError(record.ID))
			continue
		}

		outcomes[i] = models.CommitOutcome{
			ItemID: record.ID,
			Status: models.OutcomeCommitted,
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewStoreUnavailableError(err)
	}

	return outcomes, nil
}

func rejectedOutcome(itemID string, stdErr *errors.StandardError) models.CommitOutcome {
	msg := stdErr.Message
	if stdErr.Details != "" {
		msg = fmt.Sprintf("%s: %s", stdErr.Message, stdErr.Details)
	}
	return models.CommitOutcome{
		ItemID: itemID,
		Status: models.OutcomeRejected,
		Reasons: []models.Reason{{
			Check:   models.CheckStore,
			Code:    string(stdErr.Code),
			Message: msg,
		}},
	}
}
