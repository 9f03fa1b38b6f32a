package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cellar/internal/database"
	apperrors "cellar/internal/infrastructure/errors"

	"gopkg.in/yaml.v3"
)

const (
	// EnvConfigPath points at the YAML config file
	EnvConfigPath = "CELLAR_CONFIG"
	// EnvEnvironment selects production, development or test defaults
	EnvEnvironment = "CELLAR_ENV"
	// EnvDataDir overrides the per-user data directory
	EnvDataDir = "CELLAR_DATA_DIR"

	defaultFileName = "config.yaml"
)

// Config is the application configuration
type Config struct {
	Environment   string              `yaml:"environment"`
	LogLevel      string              `yaml:"logLevel"`
	DataDir       string              `yaml:"dataDir"`
	BottlesDir    string              `yaml:"bottlesDir"`
	Database      database.Config     `yaml:"database"`
	Wine          WineConfig          `yaml:"wine"`
	Mutator       MutatorConfig       `yaml:"mutator"`
	Notifications NotificationsConfig `yaml:"notifications"`
}

// WineConfig locates the compatibility layer and bounds how many of its
// processes run at once
type WineConfig struct {
	LibraryDir            string `yaml:"libraryDir"`
	MaxConcurrentCommands int64  `yaml:"maxConcurrentCommands"`
}

// MutatorConfig tunes how failed setting changes are handled
type MutatorConfig struct {
	RevertFailedToggles bool `yaml:"revertFailedToggles"`
}

// NotificationsConfig toggles desktop notifications
type NotificationsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DefaultDataDir returns the per-user directory cellar keeps its state in
func DefaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "cellar")
	}
	return filepath.Join(base, "cellar")
}

// Default returns the configuration for env rooted at dataDir
func Default(env, dataDir string) *Config {
	if env == "" {
		env = "production"
	}
	if dataDir == "" {
		dataDir = DefaultDataDir()
	}

	logLevel := "info"
	if env == "development" {
		logLevel = "debug"
	}

	return &Config{
		Environment: env,
		LogLevel:    logLevel,
		DataDir:     dataDir,
		BottlesDir:  filepath.Join(dataDir, "Bottles"),
		Database:    *database.ConfigForEnvironment(env, dataDir),
		Wine: WineConfig{
			MaxConcurrentCommands: 4,
		},
		Notifications: NotificationsConfig{Enabled: env != "test"},
	}
}

// Load builds the configuration from defaults, the YAML file at path and
// CELLAR_* environment variables, in that order. An empty path falls back to
// CELLAR_CONFIG, then to config.yaml in the data directory. A missing file is
// not an error.
//
// Environment and DataDir are resolved first (file, then environment) so the
// defaults derived from them follow the final values; paths set explicitly in
// the file still win.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfigPath)
		explicit = path != ""
	}
	if path == "" {
		dataDir := os.Getenv(EnvDataDir)
		if dataDir == "" {
			dataDir = DefaultDataDir()
		}
		path = filepath.Join(dataDir, defaultFileName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) || explicit {
			return nil, err
		}
		data = nil
	}

	var roots struct {
		Environment string `yaml:"environment"`
		DataDir     string `yaml:"dataDir"`
	}
	if err := decodeFile(path, data, &roots); err != nil {
		return nil, err
	}
	if env := os.Getenv(EnvEnvironment); env != "" {
		roots.Environment = env
	}
	if dir := os.Getenv(EnvDataDir); dir != "" {
		roots.DataDir = dir
	}

	cfg := Default(roots.Environment, roots.DataDir)
	env, dataDir := cfg.Environment, cfg.DataDir
	if err := decodeFile(path, data, cfg); err != nil {
		return nil, err
	}
	cfg.Environment, cfg.DataDir = env, dataDir

	if err := cfg.LoadFromEnvironment(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeFile(path string, data []byte, out interface{}) error {
	if len(data) == 0 {
		return nil
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return apperrors.NewWithContext("LoadConfig", fmt.Errorf("parsing %s: %w", path, err), apperrors.ErrCodeValidation,
			map[string]string{"path": path})
	}
	return nil
}

// LoadFromEnvironment applies CELLAR_* overrides, including the CELLAR_DB_* store settings
func (c *Config) LoadFromEnvironment() error {
	if level := os.Getenv("CELLAR_LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
	if dir := os.Getenv("CELLAR_BOTTLES_DIR"); dir != "" {
		c.BottlesDir = dir
	}
	if dir := os.Getenv("CELLAR_WINE_LIBRARY_DIR"); dir != "" {
		c.Wine.LibraryDir = dir
	}
	if n := os.Getenv("CELLAR_WINE_MAX_CONCURRENT"); n != "" {
		if val, err := strconv.ParseInt(n, 10, 64); err == nil && val > 0 {
			c.Wine.MaxConcurrentCommands = val
		}
	}
	if v, ok := database.ParseBoolEnv("CELLAR_REVERT_FAILED_TOGGLES"); ok {
		c.Mutator.RevertFailedToggles = v
	}
	if v, ok := database.ParseBoolEnv("CELLAR_NOTIFICATIONS"); ok {
		c.Notifications.Enabled = v
	}

	return c.Database.LoadFromEnvironment()
}

// Validate checks the configuration and creates the bottles directory
func (c *Config) Validate() error {
	switch c.Environment {
	case "production", "development", "test":
	default:
		return apperrors.HandleValidationError("ValidateConfig", "environment", c.Environment, "must be production, development or test")
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return apperrors.HandleValidationError("ValidateConfig", "logLevel", c.LogLevel, "unknown log level")
	}

	if c.Wine.MaxConcurrentCommands <= 0 {
		return apperrors.HandleValidationError("ValidateConfig", "wine.maxConcurrentCommands",
			strconv.FormatInt(c.Wine.MaxConcurrentCommands, 10), "must be positive")
	}

	if c.BottlesDir == "" {
		return apperrors.HandleValidationError("ValidateConfig", "bottlesDir", "", "required")
	}
	if err := os.MkdirAll(c.BottlesDir, 0755); err != nil {
		return apperrors.NewWithContext("ValidateConfig", err, apperrors.ErrCodePermission,
			map[string]string{"path": c.BottlesDir})
	}

	return c.Database.Validate()
}
