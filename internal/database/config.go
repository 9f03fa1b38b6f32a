package database

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ParseBoolEnv reads an environment variable and parses it as a boolean.
// Returns the parsed value and a boolean indicating if the variable was present.
// Supports true/false, 1/0, yes/no, on/off, t/f, y/n (case-insensitive).
func ParseBoolEnv(key string) (bool, bool) {
	value := os.Getenv(key)
	if value == "" {
		return false, false
	}

	if parsed, err := strconv.ParseBool(value); err == nil {
		return parsed, true
	}

	switch strings.ToLower(value) {
	case "yes", "y", "on":
		return true, true
	case "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}

// Config holds the bottle store connection options
type Config struct {
	// Connection settings
	Path                  string        `json:"path" yaml:"path"`                                   // Database file path
	MaxConnections        int           `json:"maxConnections" yaml:"maxConnections"`               // Maximum number of open connections
	MaxIdleConns          int           `json:"maxIdleConns" yaml:"maxIdleConns"`                   // Maximum number of idle connections
	ConnMaxLifetime       time.Duration `json:"connMaxLifetime" yaml:"connMaxLifetime"`             // Maximum connection lifetime
	ConnMaxIdleTime       time.Duration `json:"connMaxIdleTime" yaml:"connMaxIdleTime"`             // Maximum connection idle time
	ForceSingleConnection bool          `json:"forceSingleConnection" yaml:"forceSingleConnection"` // Force single connection mode

	// Whether to run the embedded migrations on startup
	AutoMigrate bool `json:"autoMigrate" yaml:"autoMigrate"`

	// SQLite pragmas
	JournalMode     string `json:"journalMode" yaml:"journalMode"`         // WAL, DELETE, MEMORY, ...
	SynchronousMode string `json:"synchronousMode" yaml:"synchronousMode"` // FULL, NORMAL, OFF
	CacheSize       int    `json:"cacheSize" yaml:"cacheSize"`             // cache size in KB
	BusyTimeout     int    `json:"busyTimeout" yaml:"busyTimeout"`         // busy timeout in milliseconds
	ForeignKeys     bool   `json:"foreignKeys" yaml:"foreignKeys"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Path:                  "cellar.db",
		MaxConnections:        4,
		MaxIdleConns:          2,
		ConnMaxLifetime:       24 * time.Hour,
		ConnMaxIdleTime:       30 * time.Minute,
		ForceSingleConnection: false,

		AutoMigrate: true,

		JournalMode:     "WAL",
		SynchronousMode: "NORMAL",
		CacheSize:       2000,
		BusyTimeout:     5000,
		ForeignKeys:     true,
	}
}

// DevelopmentConfig returns a configuration for local development builds
func DevelopmentConfig() *Config {
	config := DefaultConfig()
	config.Path = "cellar_dev.db"
	return config
}

// TestConfig returns an in-memory configuration.
// Each connection to :memory: sees its own database, so the pool is held at
// one connection that never expires.
func TestConfig() *Config {
	config := DefaultConfig()
	config.Path = ":memory:"
	config.ForceSingleConnection = true
	config.ConnMaxLifetime = 0
	config.ConnMaxIdleTime = 0
	config.JournalMode = "MEMORY"
	config.SynchronousMode = "OFF"
	config.CacheSize = 1000
	config.BusyTimeout = 1000
	return config
}

// LoadFromEnvironment applies CELLAR_DB_* overrides. Malformed values are ignored.
func (c *Config) LoadFromEnvironment() error {
	if path := os.Getenv("CELLAR_DB_PATH"); path != "" {
		c.Path = path
	}

	if maxConns := os.Getenv("CELLAR_DB_MAX_CONNECTIONS"); maxConns != "" {
		if val, err := strconv.Atoi(maxConns); err == nil && val > 0 {
			c.MaxConnections = val
		}
	}

	if maxIdle := os.Getenv("CELLAR_DB_MAX_IDLE_CONNECTIONS"); maxIdle != "" {
		if val, err := strconv.Atoi(maxIdle); err == nil && val >= 0 {
			c.MaxIdleConns = val
		}
	}

	if lifetime := os.Getenv("CELLAR_DB_CONN_MAX_LIFETIME"); lifetime != "" {
		if val, err := time.ParseDuration(lifetime); err == nil {
			c.ConnMaxLifetime = val
		}
	}

	if idleTime := os.Getenv("CELLAR_DB_CONN_MAX_IDLE_TIME"); idleTime != "" {
		if val, err := time.ParseDuration(idleTime); err == nil {
			c.ConnMaxIdleTime = val
		}
	}

	if forceSingle, present := ParseBoolEnv("CELLAR_DB_FORCE_SINGLE_CONNECTION"); present {
		c.ForceSingleConnection = forceSingle
	}

	if autoMigrate, present := ParseBoolEnv("CELLAR_DB_AUTO_MIGRATE"); present {
		c.AutoMigrate = autoMigrate
	}

	if journalMode := os.Getenv("CELLAR_DB_JOURNAL_MODE"); journalMode != "" {
		c.JournalMode = journalMode
	}

	if syncMode := os.Getenv("CELLAR_DB_SYNCHRONOUS_MODE"); syncMode != "" {
		c.SynchronousMode = syncMode
	}

	if cacheSize := os.Getenv("CELLAR_DB_CACHE_SIZE"); cacheSize != "" {
		if val, err := strconv.Atoi(cacheSize); err == nil && val > 0 {
			c.CacheSize = val
		}
	}

	if busyTimeout := os.Getenv("CELLAR_DB_BUSY_TIMEOUT"); busyTimeout != "" {
		if val, err := strconv.Atoi(busyTimeout); err == nil && val >= 0 {
			c.BusyTimeout = val
		}
	}

	if foreignKeys, present := ParseBoolEnv("CELLAR_DB_FOREIGN_KEYS"); present {
		c.ForeignKeys = foreignKeys
	}

	return nil
}

// Validate checks the configuration and creates the database directory if needed
func (c *Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}

	if !c.IsInMemory() {
		dir := filepath.Dir(c.Path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	if c.MaxConnections <= 0 {
		return fmt.Errorf("maxConnections must be positive, got %d", c.MaxConnections)
	}

	if c.MaxIdleConns < 0 {
		return fmt.Errorf("maxIdleConns cannot be negative, got %d", c.MaxIdleConns)
	}

	if c.MaxIdleConns > c.MaxConnections {
		return fmt.Errorf("maxIdleConns (%d) cannot be greater than maxConnections (%d)", c.MaxIdleConns, c.MaxConnections)
	}

	if c.ConnMaxLifetime < 0 {
		return fmt.Errorf("connMaxLifetime cannot be negative, got %v", c.ConnMaxLifetime)
	}

	if c.ConnMaxIdleTime < 0 {
		return fmt.Errorf("connMaxIdleTime cannot be negative, got %v", c.ConnMaxIdleTime)
	}

	switch strings.ToUpper(c.JournalMode) {
	case "DELETE", "TRUNCATE", "PERSIST", "MEMORY", "WAL", "OFF":
	default:
		return fmt.Errorf("invalid journalMode: %s", c.JournalMode)
	}

	if c.IsInMemory() && strings.EqualFold(c.JournalMode, "WAL") {
		return fmt.Errorf("journalMode cannot be WAL when using in-memory database")
	}

	switch strings.ToUpper(c.SynchronousMode) {
	case "OFF", "NORMAL", "FULL", "EXTRA":
	default:
		return fmt.Errorf("invalid synchronousMode: %s", c.SynchronousMode)
	}

	if c.CacheSize <= 0 {
		return fmt.Errorf("cacheSize must be positive, got %d", c.CacheSize)
	}

	if c.BusyTimeout < 0 {
		return fmt.Errorf("busyTimeout cannot be negative, got %d", c.BusyTimeout)
	}

	return nil
}

// GetConnectionString builds the go-sqlite3 DSN with the configured pragmas
func (c *Config) GetConnectionString() string {
	values := url.Values{}

	if c.ForeignKeys {
		values.Set("_foreign_keys", "on")
	} else {
		values.Set("_foreign_keys", "off")
	}
	values.Set("_journal_mode", c.JournalMode)
	values.Set("_synchronous", c.SynchronousMode)
	// Negative so SQLite reads it as KB rather than pages
	values.Set("_cache_size", strconv.Itoa(-c.CacheSize))
	values.Set("_busy_timeout", strconv.Itoa(c.BusyTimeout))

	// Only the characters that would break query parsing are escaped
	path := c.Path
	if strings.ContainsAny(path, "?&") {
		path = strings.ReplaceAll(path, "?", "%3F")
		path = strings.ReplaceAll(path, "&", "%26")
	}

	return path + "?" + values.Encode()
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// IsInMemory returns true if the database is configured to use in-memory storage
func (c *Config) IsInMemory() bool {
	return c.Path == ":memory:"
}

// ConfigForEnvironment returns the store configuration for the given environment,
// placing file databases under dataDir
func ConfigForEnvironment(env string, dataDir string) *Config {
	switch env {
	case "development":
		config := DevelopmentConfig()
		config.Path = filepath.Join(dataDir, config.Path)
		return config
	case "test":
		return TestConfig()
	default:
		config := DefaultConfig()
		config.Path = filepath.Join(dataDir, config.Path)
		return config
	}
}
