package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	apperrors "cellar/internal/infrastructure/errors"
	"cellar/internal/infrastructure/logging"
	"cellar/internal/types"
)

// CreateBottle inserts a new bottle. An empty WindowsVersion gets the default
// and zero timestamps are set to now.
func (r *SQLiteRepository) CreateBottle(ctx context.Context, bottle *types.Bottle) error {
	start := time.Now()

	if err := validateBottle(bottle); err != nil {
		logging.LogError(r.logger, err, "CreateBottle", nil)
		return err
	}

	if bottle.Settings.WindowsVersion == "" {
		bottle.Settings.WindowsVersion = types.DefaultWinVersion
	}
	now := time.Now().UTC()
	if bottle.CreatedAt.IsZero() {
		bottle.CreatedAt = now
	}
	if bottle.UpdatedAt.IsZero() {
		bottle.UpdatedAt = now
	}

	err := apperrors.WithRetry(ctx, r.retryConfig, func() error {
		if err := r.queries.insertBottle(ctx, bottle); err != nil {
			return r.wrap("CreateBottle", err, map[string]string{
				"bottle": bottle.Name,
				"path":   bottle.Path,
			})
		}
		return nil
	})

	if err == nil {
		logging.LogOperation(r.logger, "CreateBottle", time.Since(start), map[string]interface{}{
			"bottle": bottle.Name,
		})
	}
	return err
}

// GetBottle returns the named bottle or a NotFound error
func (r *SQLiteRepository) GetBottle(ctx context.Context, name string) (*types.Bottle, error) {
	var result types.Bottle

	err := apperrors.WithRetry(ctx, r.retryConfig, func() error {
		b, err := r.queries.getBottle(ctx, name)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperrors.HandleNotFound("GetBottle", "bottle", name)
			}
			return r.wrap("GetBottle", err, map[string]string{"bottle": name})
		}
		result = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListBottles returns every bottle ordered by name
func (r *SQLiteRepository) ListBottles(ctx context.Context) ([]types.Bottle, error) {
	start := time.Now()
	var result []types.Bottle

	err := apperrors.WithRetry(ctx, r.retryConfig, func() error {
		bottles, err := r.queries.listBottles(ctx)
		if err != nil {
			return r.wrap("ListBottles", err, nil)
		}
		result = bottles
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result == nil {
		result = []types.Bottle{}
	}
	r.logger.Debug("Listed bottles", "count", len(result), "duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

// SaveSettings replaces the stored settings of an existing bottle
func (r *SQLiteRepository) SaveSettings(ctx context.Context, name string, settings types.Settings) error {
	start := time.Now()

	if !settings.WindowsVersion.Valid() {
		err := apperrors.HandleValidationError("SaveSettings", "windowsVersion", string(settings.WindowsVersion), "unknown windows version")
		logging.LogError(r.logger, err, "SaveSettings", map[string]interface{}{"bottle": name})
		return err
	}

	err := apperrors.WithRetry(ctx, r.retryConfig, func() error {
		affected, err := r.queries.updateSettings(ctx, name, settings, time.Now().UTC())
		if err != nil {
			return r.wrap("SaveSettings", err, map[string]string{
				"bottle":          name,
				"windows_version": string(settings.WindowsVersion),
			})
		}
		if affected == 0 {
			return apperrors.HandleNotFound("SaveSettings", "bottle", name)
		}
		return nil
	})

	if err == nil {
		logging.LogOperation(r.logger, "SaveSettings", time.Since(start), map[string]interface{}{
			"bottle":          name,
			"windows_version": string(settings.WindowsVersion),
		})
	}
	return err
}

// DeleteBottle removes the named bottle or returns a NotFound error
func (r *SQLiteRepository) DeleteBottle(ctx context.Context, name string) error {
	start := time.Now()

	err := apperrors.WithRetry(ctx, r.retryConfig, func() error {
		affected, err := r.queries.deleteBottle(ctx, name)
		if err != nil {
			return r.wrap("DeleteBottle", err, map[string]string{"bottle": name})
		}
		if affected == 0 {
			return apperrors.HandleNotFound("DeleteBottle", "bottle", name)
		}
		return nil
	})

	if err == nil {
		logging.LogOperation(r.logger, "DeleteBottle", time.Since(start), map[string]interface{}{
			"bottle": name,
		})
	}
	return err
}

func validateBottle(bottle *types.Bottle) error {
	if bottle == nil {
		return apperrors.New("CreateBottle", errors.New("bottle is nil"), apperrors.ErrCodeValidation)
	}
	if strings.TrimSpace(bottle.Name) == "" {
		return apperrors.HandleValidationError("CreateBottle", "name", bottle.Name, "name is required")
	}
	if strings.ContainsAny(bottle.Name, `/\`) {
		return apperrors.HandleValidationError("CreateBottle", "name", bottle.Name, "name cannot contain path separators")
	}
	if name := strings.TrimSpace(bottle.Name); name == "." || name == ".." {
		return apperrors.HandleValidationError("CreateBottle", "name", bottle.Name, "name cannot be a relative directory")
	}
	if strings.TrimSpace(bottle.Path) == "" {
		return apperrors.HandleValidationError("CreateBottle", "path", bottle.Path, "path is required")
	}
	if v := bottle.Settings.WindowsVersion; v != "" && !v.Valid() {
		return apperrors.HandleValidationError("CreateBottle", "windowsVersion", string(v), "unknown windows version")
	}
	return nil
}
