package database

import (
	"context"
	"database/sql"
)

// Service defines connection management, migrations and maintenance for the bottle store
type Service interface {
	// Connection management
	Connect(ctx context.Context, config *Config) error
	Close() error
	Health(ctx context.Context) error

	// Database access
	DB() *sql.DB

	// Migration management
	Migrate(ctx context.Context) error
	GetMigrationVersion(ctx context.Context) (int64, error)

	// Maintenance operations
	Optimize(ctx context.Context) error
	GetStats() sql.DBStats
}

// MigrationManager handles schema evolution
type MigrationManager interface {
	RunMigrations(ctx context.Context) error
	GetCurrentVersion(ctx context.Context) (int64, error)
	ValidateMigrations() error
}
