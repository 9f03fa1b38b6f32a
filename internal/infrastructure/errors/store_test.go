package errors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorCode
	}{
		{"nil error", nil, ErrCodeUnknown},
		{"no rows", sql.ErrNoRows, ErrCodeNotFound},
		{"wrapped no rows", fmt.Errorf("lookup: %w", sql.ErrNoRows), ErrCodeNotFound},
		{"deadline exceeded", context.DeadlineExceeded, ErrCodeTimeout},
		{"canceled", context.Canceled, ErrCodeTimeout},
		{"unique constraint text", errors.New("UNIQUE constraint failed: bottles.name"), ErrCodeDuplicate},
		{"locked text", errors.New("database is locked"), ErrCodeBusy},
		{"missing table", errors.New("no such table: bottles"), ErrCodeSchema},
		{"permission text", errors.New("open cellar.db: permission denied"), ErrCodePermission},
		{"no space", errors.New("write: no space left on device"), ErrCodeDiskSpace},
		{"unknown", errors.New("something odd"), ErrCodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.expected {
				t.Errorf("ClassifyError(%v) = %v, expected %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestWrapStoreError(t *testing.T) {
	if WrapStoreError("op", nil) != nil {
		t.Error("Expected nil for nil error")
	}

	err := WrapStoreError("GetBottle", sql.ErrNoRows)
	if !IsNotFound(err) {
		t.Errorf("Expected NotFound error, got %v", err)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		t.Error("Expected wrapped error to match sql.ErrNoRows")
	}
}

func TestWrapStoreErrorWithContext(t *testing.T) {
	err := WrapStoreErrorWithContext("SaveSettings", errors.New("database is locked"), map[string]string{
		"bottle": "steam",
	})

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("Expected *AppError, got %T", err)
	}
	if appErr.Code != ErrCodeBusy {
		t.Errorf("Expected code BUSY, got %v", appErr.Code)
	}
	if !appErr.Retryable {
		t.Error("Expected busy store error to be retryable")
	}
	if appErr.Context["bottle"] != "steam" {
		t.Errorf("Expected bottle context, got %v", appErr.Context)
	}
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		key   string
		value string
	}{
		{"not found", HandleNotFound("GetBottle", "bottle", "steam"), IsNotFound, "identifier", "steam"},
		{"validation", HandleValidationError("CreateBottle", "name", "", "empty"), IsValidation, "field", "name"},
		{"duplicate", HandleDuplicateError("CreateBottle", "bottle", "name", "steam"), IsDuplicate, "value", "steam"},
		{"connection", HandleConnectionError("Connect", "no file"), IsConnection, "details", "no file"},
		{"busy", HandleBusyError("RequestVersionChange", "bottle", "steam"), IsBusy, "identifier", "steam"},
		{"unsupported", HandleUnsupportedError("Verify", "windows host"), IsUnsupported, "details", "windows host"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(tt.err) {
				t.Errorf("Constructor produced wrong classification: %v", tt.err)
			}
			var appErr *AppError
			if !errors.As(tt.err, &appErr) {
				t.Fatalf("Expected *AppError, got %T", tt.err)
			}
			if appErr.Context[tt.key] != tt.value {
				t.Errorf("Expected context %s=%s, got %v", tt.key, tt.value, appErr.Context)
			}
		})
	}
}
