package repository

import (
	"database/sql"

	"cellar/internal/database"
	apperrors "cellar/internal/infrastructure/errors"
	"cellar/internal/infrastructure/logging"
)

// SQLiteRepository implements BottleRepository using SQLite
type SQLiteRepository struct {
	db          *sql.DB
	queries     *queries
	dbService   database.Service
	retryConfig *apperrors.RetryConfig
	logger      logging.Logger
}

var _ BottleRepository = (*SQLiteRepository)(nil)

// NewSQLiteRepository creates a new SQLite repository instance
func NewSQLiteRepository(dbService database.Service, logger logging.Logger) *SQLiteRepository {
	return NewSQLiteRepositoryWithConfig(dbService, nil, logger)
}

// NewSQLiteRepositoryWithConfig creates a repository with a custom retry configuration
func NewSQLiteRepositoryWithConfig(dbService database.Service, retryConfig *apperrors.RetryConfig, logger logging.Logger) *SQLiteRepository {
	if retryConfig == nil {
		retryConfig = apperrors.DefaultRetryConfig()
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	return &SQLiteRepository{
		db:          dbService.DB(),
		queries:     newQueries(dbService.DB()),
		dbService:   dbService,
		retryConfig: retryConfig,
		logger:      logger,
	}
}

// SetRetryConfig updates the retry configuration for the repository
func (r *SQLiteRepository) SetRetryConfig(config *apperrors.RetryConfig) {
	if config != nil {
		r.retryConfig = config
	}
}

// GetRetryConfig returns the current retry configuration
func (r *SQLiteRepository) GetRetryConfig() *apperrors.RetryConfig {
	return r.retryConfig
}

// SetLogger updates the logger for the repository
func (r *SQLiteRepository) SetLogger(logger logging.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// wrap classifies err and logs it: retryable failures at debug, the rest through LogError
func (r *SQLiteRepository) wrap(op string, err error, ctx map[string]string) *apperrors.AppError {
	appErr := apperrors.NewWithContext(op, err, apperrors.ClassifyError(err), ctx)
	if appErr.IsRetryable() {
		r.logger.Debug("Retryable error in "+op, "error", err)
		return appErr
	}

	fields := make(map[string]interface{}, len(ctx))
	for k, v := range ctx {
		fields[k] = v
	}
	logging.LogError(r.logger, appErr, op, fields)
	return appErr
}
