package repository

import (
	"context"
	"testing"
	"time"

	apperrors "cellar/internal/infrastructure/errors"
	"cellar/internal/types"
)

func TestSQLiteRepository_CreateAndGetBottle(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	bottle := &types.Bottle{
		Name: "Steam",
		Path: "/bottles/steam",
		Settings: types.Settings{
			WindowsVersion: types.Win7,
			DXVK:           true,
			MetalHud:       true,
		},
	}

	if err := repo.CreateBottle(ctx, bottle); err != nil {
		t.Fatalf("CreateBottle failed: %v", err)
	}
	if bottle.CreatedAt.IsZero() || bottle.UpdatedAt.IsZero() {
		t.Error("CreateBottle should fill timestamps")
	}

	got, err := repo.GetBottle(ctx, "Steam")
	if err != nil {
		t.Fatalf("GetBottle failed: %v", err)
	}
	if got.Path != bottle.Path {
		t.Errorf("Path = %q, want %q", got.Path, bottle.Path)
	}
	if got.Settings != bottle.Settings {
		t.Errorf("Settings = %+v, want %+v", got.Settings, bottle.Settings)
	}
	if !got.CreatedAt.Equal(bottle.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, bottle.CreatedAt)
	}
}

func TestSQLiteRepository_CreateBottle_DefaultVersion(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	if err := repo.CreateBottle(ctx, &types.Bottle{Name: "Empty", Path: "/bottles/empty"}); err != nil {
		t.Fatalf("CreateBottle failed: %v", err)
	}

	got, err := repo.GetBottle(ctx, "Empty")
	if err != nil {
		t.Fatalf("GetBottle failed: %v", err)
	}
	if got.Settings.WindowsVersion != types.DefaultWinVersion {
		t.Errorf("WindowsVersion = %q, want %q", got.Settings.WindowsVersion, types.DefaultWinVersion)
	}
}

func TestSQLiteRepository_CreateBottle_Validation(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		bottle *types.Bottle
	}{
		{"nil bottle", nil},
		{"empty name", &types.Bottle{Name: " ", Path: "/bottles/x"}},
		{"name with separator", &types.Bottle{Name: "a/b", Path: "/bottles/x"}},
		{"current directory", &types.Bottle{Name: ".", Path: "/bottles"}},
		{"parent directory", &types.Bottle{Name: " .. ", Path: "/"}},
		{"empty path", &types.Bottle{Name: "x"}},
		{"unknown version", &types.Bottle{Name: "x", Path: "/bottles/x", Settings: types.Settings{WindowsVersion: "win95"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.CreateBottle(ctx, tt.bottle)
			if !apperrors.IsValidation(err) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}

func TestSQLiteRepository_CreateBottle_Duplicate(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	if err := repo.CreateBottle(ctx, &types.Bottle{Name: "Dup", Path: "/bottles/dup"}); err != nil {
		t.Fatalf("CreateBottle failed: %v", err)
	}

	err := repo.CreateBottle(ctx, &types.Bottle{Name: "Dup", Path: "/bottles/dup2"})
	if !apperrors.IsDuplicate(err) {
		t.Errorf("Expected duplicate error for same name, got %v", err)
	}

	err = repo.CreateBottle(ctx, &types.Bottle{Name: "Other", Path: "/bottles/dup"})
	if !apperrors.IsDuplicate(err) {
		t.Errorf("Expected duplicate error for same path, got %v", err)
	}
}

func TestSQLiteRepository_GetBottle_NotFound(t *testing.T) {
	repo := setupTestRepository(t)

	_, err := repo.GetBottle(context.Background(), "missing")
	if !apperrors.IsNotFound(err) {
		t.Errorf("Expected NotFound error, got: %v", err)
	}
}

func TestSQLiteRepository_ListBottles(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	empty, err := repo.ListBottles(ctx)
	if err != nil {
		t.Fatalf("ListBottles failed: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("Expected empty non-nil slice, got %#v", empty)
	}

	for _, name := range []string{"zeta", "Alpha", "beta"} {
		if err := repo.CreateBottle(ctx, &types.Bottle{Name: name, Path: "/bottles/" + name}); err != nil {
			t.Fatalf("CreateBottle(%s) failed: %v", name, err)
		}
	}

	bottles, err := repo.ListBottles(ctx)
	if err != nil {
		t.Fatalf("ListBottles failed: %v", err)
	}

	want := []string{"Alpha", "beta", "zeta"}
	if len(bottles) != len(want) {
		t.Fatalf("Expected %d bottles, got %d", len(want), len(bottles))
	}
	for i, name := range want {
		if bottles[i].Name != name {
			t.Errorf("bottles[%d] = %q, want %q", i, bottles[i].Name, name)
		}
	}
}

func TestSQLiteRepository_SaveSettings(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	created := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	bottle := &types.Bottle{Name: "Game", Path: "/bottles/game", CreatedAt: created, UpdatedAt: created}
	if err := repo.CreateBottle(ctx, bottle); err != nil {
		t.Fatalf("CreateBottle failed: %v", err)
	}

	settings := types.Settings{WindowsVersion: types.Win11, DXVK: true, DXVKHud: true, ESync: true}
	if err := repo.SaveSettings(ctx, "Game", settings); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}

	got, err := repo.GetBottle(ctx, "Game")
	if err != nil {
		t.Fatalf("GetBottle failed: %v", err)
	}
	if got.Settings != settings {
		t.Errorf("Settings = %+v, want %+v", got.Settings, settings)
	}
	if !got.UpdatedAt.After(created) {
		t.Errorf("UpdatedAt should advance past %v, got %v", created, got.UpdatedAt)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt changed to %v", got.CreatedAt)
	}
}

func TestSQLiteRepository_SaveSettings_Errors(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	err := repo.SaveSettings(ctx, "missing", types.DefaultSettings())
	if !apperrors.IsNotFound(err) {
		t.Errorf("Expected NotFound for missing bottle, got %v", err)
	}

	err = repo.SaveSettings(ctx, "missing", types.Settings{WindowsVersion: "win2000"})
	if !apperrors.IsValidation(err) {
		t.Errorf("Expected validation error for unknown version, got %v", err)
	}
}

func TestSQLiteRepository_DeleteBottle(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	if err := repo.CreateBottle(ctx, &types.Bottle{Name: "Temp", Path: "/bottles/temp"}); err != nil {
		t.Fatalf("CreateBottle failed: %v", err)
	}

	if err := repo.DeleteBottle(ctx, "Temp"); err != nil {
		t.Fatalf("DeleteBottle failed: %v", err)
	}
	if _, err := repo.GetBottle(ctx, "Temp"); !apperrors.IsNotFound(err) {
		t.Errorf("Expected deleted bottle to be gone, got %v", err)
	}
	if err := repo.DeleteBottle(ctx, "Temp"); !apperrors.IsNotFound(err) {
		t.Errorf("Expected NotFound on second delete, got %v", err)
	}
}
