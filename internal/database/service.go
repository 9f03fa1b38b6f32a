package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	apperrors "cellar/internal/infrastructure/errors"
	"cellar/internal/infrastructure/logging"

	_ "github.com/mattn/go-sqlite3"
)

// sqliteMaxWALConns caps the pool even in WAL mode; SQLite still serialises writers
const sqliteMaxWALConns = 4

// SQLiteService implements Service for the bottle store
//
// Lifecycle:
// 1. Create service with NewSQLiteService()
// 2. Connect to database with Connect()
// 3. Optionally run migrations with Migrate()
// 4. Hand DB() to the repository
// 5. Close service with Close()
type SQLiteService struct {
	db              *sql.DB
	config          *Config
	migrationRunner MigrationManager
	logger          logging.Logger
}

var _ Service = (*SQLiteService)(nil)

// NewSQLiteService creates a new SQLite database service
func NewSQLiteService(logger logging.Logger) *SQLiteService {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &SQLiteService{
		logger: logger,
	}
}

// Connect opens the database, replacing any previous connection
func (s *SQLiteService) Connect(ctx context.Context, config *Config) error {
	if config == nil {
		return apperrors.HandleValidationError("Connect", "config", "nil", "config is required")
	}
	s.config = config

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close existing database connection", "error", err)
		}
		s.db = nil
		s.migrationRunner = nil
	}

	db, err := sql.Open("sqlite3", config.GetConnectionString())
	if err != nil {
		return apperrors.HandleConnectionError("Connect", fmt.Sprintf("failed to open database: %v", err))
	}

	s.configureConnectionPool(db, config)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return apperrors.HandleConnectionError("Connect", fmt.Sprintf("failed to ping database: %v", err))
	}

	s.db = db
	s.migrationRunner = NewMigrationRunner(db, s.logger)

	s.logger.Info("Connected to SQLite database", "path", config.Path)
	return nil
}

// Close closes the database connection
func (s *SQLiteService) Close() error {
	if s.db == nil {
		return nil
	}

	if err := s.db.Close(); err != nil {
		return apperrors.HandleConnectionError("Close", fmt.Sprintf("failed to close database: %v", err))
	}

	s.db = nil
	s.migrationRunner = nil

	s.logger.Info("Closed SQLite database connection")
	return nil
}

// Migrate validates and then applies the embedded migrations
func (s *SQLiteService) Migrate(ctx context.Context) error {
	if s.db == nil {
		return apperrors.HandleConnectionError("Migrate", "database not connected")
	}

	if s.migrationRunner == nil {
		return apperrors.HandleValidationError("Migrate", "migrationRunner", "nil", "migration runner not initialized")
	}

	if err := s.migrationRunner.ValidateMigrations(); err != nil {
		return apperrors.WrapStoreErrorWithContext("Migrate", err, map[string]string{
			"phase": "validation",
		})
	}

	if err := s.migrationRunner.RunMigrations(ctx); err != nil {
		return apperrors.WrapStoreErrorWithContext("Migrate", err, map[string]string{
			"phase": "execution",
		})
	}

	return nil
}

// Health checks the database connection health
func (s *SQLiteService) Health(ctx context.Context) error {
	if s.db == nil {
		return apperrors.HandleConnectionError("Health", "database not connected")
	}

	if err := s.db.PingContext(ctx); err != nil {
		return apperrors.WrapStoreErrorWithContext("Health", err, map[string]string{
			"phase": "ping",
		})
	}

	var result int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return apperrors.WrapStoreErrorWithContext("Health", err, map[string]string{
			"phase": "query",
		})
	}

	if result != 1 {
		return apperrors.HandleValidationError("Health", "query_result", fmt.Sprintf("%d", result), "expected result 1")
	}

	return nil
}

// DB returns the underlying database connection for use by repositories
func (s *SQLiteService) DB() *sql.DB {
	return s.db
}

// GetMigrationVersion returns the current migration version
func (s *SQLiteService) GetMigrationVersion(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, apperrors.HandleConnectionError("GetMigrationVersion", "database not connected")
	}
	if s.migrationRunner == nil {
		return 0, apperrors.HandleValidationError("GetMigrationVersion", "migrationRunner", "nil", "migration runner not initialized")
	}

	version, err := s.migrationRunner.GetCurrentVersion(ctx)
	if err != nil {
		return 0, apperrors.WrapStoreError("GetMigrationVersion", err)
	}
	return version, nil
}

// GetStats returns database connection pool statistics
func (s *SQLiteService) GetStats() sql.DBStats {
	if s.db == nil {
		return sql.DBStats{}
	}
	return s.db.Stats()
}

// Optimize runs ANALYZE and VACUUM; the app calls it on shutdown
func (s *SQLiteService) Optimize(ctx context.Context) error {
	if s.db == nil {
		return apperrors.HandleConnectionError("Optimize", "database not connected")
	}

	if _, err := s.db.ExecContext(ctx, "ANALYZE"); err != nil {
		return apperrors.WrapStoreErrorWithContext("Optimize", err, map[string]string{
			"phase": "analyze",
		})
	}

	// Best effort; fails harmlessly outside WAL mode
	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		s.logger.Warn("wal_checkpoint failed", "error", err)
	}

	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return apperrors.WrapStoreErrorWithContext("Optimize", err, map[string]string{
			"phase": "vacuum",
		})
	}

	if _, err := s.db.ExecContext(ctx, "PRAGMA optimize"); err != nil {
		s.logger.Warn("PRAGMA optimize failed", "error", err)
	}

	s.logger.Info("Database optimization completed")
	return nil
}

// configureConnectionPool keeps non-WAL databases on a single connection
// and caps WAL databases at sqliteMaxWALConns
func (s *SQLiteService) configureConnectionPool(db *sql.DB, config *Config) {
	switch {
	case config.ForceSingleConnection:
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		s.logger.Debug("Configured SQLite for single connection mode (forced by config)")
	case !strings.EqualFold(config.JournalMode, "WAL"):
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		s.logger.Debug("Configured SQLite for single connection mode (non-WAL journal mode)",
			"journalMode", config.JournalMode)
	default:
		maxConns := config.MaxConnections
		if maxConns <= 0 {
			maxConns = sqliteMaxWALConns
		}
		maxConns = min(maxConns, sqliteMaxWALConns)

		idleConns := min(config.MaxIdleConns, maxConns)
		if idleConns <= 0 {
			idleConns = 1
		}

		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(idleConns)
		s.logger.Debug("Configured SQLite for limited connection pool (WAL mode)",
			"maxOpenConns", maxConns, "maxIdleConns", idleConns)
	}

	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)
}
