package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"sidedock/internal/database"
	"sidedock/internal/database/queries"
	repoerrors "sidedock/internal/infrastructure/errors"
	"sidedock/internal/infrastructure/logging"
)

// SQLiteRepository implements PinRepository on the pins table
type SQLiteRepository struct {
	db          *sql.DB
	queries     *queries.Queries
	dbService   database.Service
	retryConfig *repoerrors.RetryConfig
	logger      logging.Logger
}

var _ PinRepository = (*SQLiteRepository)(nil)

// NewSQLiteRepositoryWithConfig creates a repository with retryConfig (the default policy when nil).
// Retry progress is reported through logger.
func NewSQLiteRepositoryWithConfig(dbService database.Service, retryConfig *repoerrors.RetryConfig, logger logging.Logger) *SQLiteRepository {
	if retryConfig == nil {
		retryConfig = repoerrors.DefaultRetryConfig()
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	return &SQLiteRepository{
		db:          dbService.DB(),
		queries:     dbService.GetQueries(),
		dbService:   dbService,
		retryConfig: retryConfig.WithLogger(repoerrors.NewLoggerBridge(logger)),
		logger:      logger,
	}
}

// NewSQLiteRepositoryWithPreparedQueries creates a repository backed by the service's
// prepared statements, using retryConfig (the default policy when nil)
func NewSQLiteRepositoryWithPreparedQueries(ctx context.Context, dbService database.Service, retryConfig *repoerrors.RetryConfig, logger logging.Logger) (*SQLiteRepository, error) {
	preparedQueries, err := dbService.GetPreparedQueries(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteRepositoryWithPreparedQueries: failed to get prepared queries from database service: %w", err)
	}

	repo := NewSQLiteRepositoryWithConfig(dbService, retryConfig, logger)
	repo.queries = preparedQueries
	return repo, nil
}

// ListPins returns every pinned path in the order it was pinned
func (r *SQLiteRepository) ListPins(ctx context.Context) ([]string, error) {
	var rows []queries.Pin
	err := repoerrors.WithRetryContext(ctx, r.retryConfig, func() error {
		var err error
		rows, err = r.queries.ListPins(ctx)
		if err != nil {
			return r.wrap("ListPins", err, nil)
		}
		return nil
	}, "ListPins")
	if err != nil {
		return nil, err
	}

	paths := make([]string, len(rows))
	for i, row := range rows {
		paths[i] = row.Path
	}
	return paths, nil
}

// TogglePin reads the current state and flips it inside one transaction, so
// concurrent toggles of the same path serialize instead of double-inserting
func (r *SQLiteRepository) TogglePin(ctx context.Context, path string) (bool, error) {
	if err := validatePath("TogglePin", path); err != nil {
		logging.LogError(r.logger, err, "TogglePin", map[string]interface{}{"path": path})
		return false, err
	}

	var pinned bool
	err := r.withTransaction(ctx, func(tx *SQLiteRepository) error {
		current, err := tx.queries.IsPinned(ctx, path)
		if err != nil {
			return tx.wrap("TogglePin", err, map[string]string{"path": path})
		}
		pinned = !current
		return tx.setPinned(ctx, path, pinned)
	})
	if err != nil {
		return false, err
	}

	r.logger.Info("Pin toggled", "path", path, "pinned", pinned)
	return pinned, nil
}

// setPinned writes the new state; the caller has already read the current one
func (r *SQLiteRepository) setPinned(ctx context.Context, path string, pinned bool) error {
	ctxMap := map[string]string{"path": path, "pinned": fmt.Sprint(pinned)}

	if pinned {
		if err := r.queries.InsertPin(ctx, path); err != nil {
			return r.wrap("TogglePin.Insert", err, ctxMap)
		}
		return nil
	}
	if _, err := r.queries.DeletePin(ctx, path); err != nil {
		return r.wrap("TogglePin.Delete", err, ctxMap)
	}
	return nil
}

func validatePath(op, path string) error {
	if strings.TrimSpace(path) == "" {
		return repoerrors.HandleValidationError(op, "path", path, "must not be empty")
	}
	return nil
}

// wrap classifies err; retryable failures are logged at debug since WithRetry reports them
func (r *SQLiteRepository) wrap(op string, err error, ctxMap map[string]string) error {
	repoErr := repoerrors.NewWithContext(op, err, repoerrors.ClassifyError(err), ctxMap)
	if repoErr.IsRetryable() {
		r.logger.Debug("Retryable error in "+op, "error", err)
	} else {
		logCtx := make(map[string]interface{}, len(ctxMap))
		for k, v := range ctxMap {
			logCtx[k] = v
		}
		logging.LogError(r.logger, repoErr, op, logCtx)
	}
	return repoErr
}
