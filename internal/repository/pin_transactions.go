package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	repoerrors "sidedock/internal/infrastructure/errors"
	"sidedock/internal/infrastructure/logging"
)

// withTransaction runs fn against a repository bound to one transaction, retrying
// the whole unit on busy or connection errors. fn's error rolls the transaction back.
func (r *SQLiteRepository) withTransaction(ctx context.Context, fn func(tx *SQLiteRepository) error) error {
	start := time.Now()

	err := repoerrors.WithRetryContext(ctx, r.retryConfig, func() error {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return r.wrap("TogglePin.Begin", err, nil)
		}

		committed := false
		defer func() {
			if committed {
				return
			}
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				r.logger.Debug("Failed to rollback transaction", "rollback_error", rbErr)
			}
		}()

		txRepo := &SQLiteRepository{
			db:          r.db,
			queries:     r.queries.WithTx(tx),
			dbService:   r.dbService,
			retryConfig: r.retryConfig,
			logger:      r.logger,
		}

		if err := fn(txRepo); err != nil {
			r.logger.Debug("Transaction function failed", "error", err)
			return err
		}

		if err := tx.Commit(); err != nil {
			return r.wrap("TogglePin.Commit", err, nil)
		}
		committed = true
		return nil
	}, "TogglePin.Transaction")

	if err == nil {
		logging.LogOperation(r.logger, "TogglePin.Transaction", time.Since(start), nil)
	}
	return err
}
