package errors

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// ClassifyError classifies store errors into error codes
func ClassifyError(err error) ErrorCode {
	if err == nil {
		return ErrCodeUnknown
	}

	// Driver-specific codes are more accurate than message matching
	if code := classifySQLiteError(err); code != ErrCodeUnknown {
		return code
	}

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrCodeNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return ErrCodeTimeout
	case errors.Is(err, context.Canceled):
		return ErrCodeTimeout
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "unique constraint"):
		return ErrCodeDuplicate
	case strings.Contains(errStr, "foreign key constraint"),
		strings.Contains(errStr, "check constraint"),
		strings.Contains(errStr, "not null constraint"):
		return ErrCodeConstraint
	case strings.Contains(errStr, "database is locked"):
		return ErrCodeBusy
	case strings.Contains(errStr, "database disk image is malformed"):
		return ErrCodeCorruption
	case strings.Contains(errStr, "no such table"), strings.Contains(errStr, "no such column"):
		return ErrCodeSchema
	case strings.Contains(errStr, "permission denied"), strings.Contains(errStr, "access denied"):
		return ErrCodePermission
	case strings.Contains(errStr, "disk full"), strings.Contains(errStr, "no space left"):
		return ErrCodeDiskSpace
	case strings.Contains(errStr, "timeout"):
		return ErrCodeTimeout
	default:
		return ErrCodeUnknown
	}
}

// WrapStoreError wraps a store error with its classification
func WrapStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return New(op, err, ClassifyError(err))
}

// WrapStoreErrorWithContext wraps a store error with its classification and extra context
func WrapStoreErrorWithContext(op string, err error, contextMap map[string]string) error {
	if err == nil {
		return nil
	}
	return NewWithContext(op, err, ClassifyError(err), contextMap)
}

// HandleNotFound creates a standardized not found error
func HandleNotFound(op string, resource string, identifier string) error {
	return NewWithContext(op, sql.ErrNoRows, ErrCodeNotFound, map[string]string{
		"resource":   resource,
		"identifier": identifier,
	})
}

// HandleValidationError creates a standardized validation error
func HandleValidationError(op string, field string, value string, reason string) error {
	return NewWithContext(op, errors.New("validation failed"), ErrCodeValidation, map[string]string{
		"field":  field,
		"value":  value,
		"reason": reason,
	})
}

// HandleDuplicateError creates a standardized duplicate error
func HandleDuplicateError(op string, resource string, field string, value string) error {
	return NewWithContext(op, errors.New("duplicate entry"), ErrCodeDuplicate, map[string]string{
		"resource": resource,
		"field":    field,
		"value":    value,
	})
}

// HandleConnectionError creates a standardized connection error
func HandleConnectionError(op string, details string) error {
	return NewWithContext(op, errors.New("connection error"), ErrCodeConnection, map[string]string{
		"details": details,
	})
}
