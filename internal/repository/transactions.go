package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	apperrors "cellar/internal/infrastructure/errors"
	"cellar/internal/infrastructure/logging"
)

// WithTransaction runs fn against a repository bound to one transaction.
// Begin and commit failures are retried; an error from fn rolls back and is returned as is.
func (r *SQLiteRepository) WithTransaction(ctx context.Context, fn func(repo BottleRepository) error) error {
	start := time.Now()

	err := apperrors.WithRetry(ctx, r.retryConfig, func() error {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return r.wrap("WithTransaction.Begin", err, nil)
		}

		committed := false
		defer func() {
			if committed {
				return
			}
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				r.logger.Debug("Failed to rollback transaction", "rollback_error", rollbackErr)
			}
		}()

		txRepo := &SQLiteRepository{
			db:          r.db,
			queries:     r.queries.withTx(tx),
			dbService:   r.dbService,
			retryConfig: r.retryConfig,
			logger:      r.logger,
		}

		if err := fn(txRepo); err != nil {
			r.logger.Debug("Transaction function failed", "error", err)
			return err
		}

		if err := tx.Commit(); err != nil {
			return r.wrap("WithTransaction.Commit", err, nil)
		}
		committed = true
		return nil
	})

	if err == nil {
		logging.LogOperation(r.logger, "WithTransaction", time.Since(start), nil)
	}
	return err
}
