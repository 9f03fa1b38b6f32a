package repository

import (
	"context"

	"cellar/internal/types"
)

// BottleRepository persists bottles and their settings
type BottleRepository interface {
	CreateBottle(ctx context.Context, bottle *types.Bottle) error
	GetBottle(ctx context.Context, name string) (*types.Bottle, error)
	ListBottles(ctx context.Context) ([]types.Bottle, error)

	// SaveSettings replaces the stored settings of an existing bottle
	SaveSettings(ctx context.Context, name string, settings types.Settings) error

	// DeleteBottle removes the bottle row; the prefix directory is left to the caller
	DeleteBottle(ctx context.Context, name string) error

	WithTransaction(ctx context.Context, fn func(repo BottleRepository) error) error
}
