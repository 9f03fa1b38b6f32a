package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrorCode classifies application errors
type ErrorCode int

const (
	ErrCodeUnknown ErrorCode = iota
	ErrCodeExternalInvocation
	ErrCodeValidation
	ErrCodeBusy
	ErrCodeNotFound
	ErrCodeDuplicate
	ErrCodeConstraint
	ErrCodeConnection
	ErrCodeTransaction
	ErrCodeTimeout
	ErrCodePermission
	ErrCodeDiskSpace
	ErrCodeCorruption
	ErrCodeInternal
	ErrCodeSchema
	ErrCodeUnsupported
)

// String returns a string representation of the error code
func (e ErrorCode) String() string {
	switch e {
	case ErrCodeExternalInvocation:
		return "EXTERNAL_INVOCATION"
	case ErrCodeValidation:
		return "VALIDATION"
	case ErrCodeBusy:
		return "BUSY"
	case ErrCodeNotFound:
		return "NOT_FOUND"
	case ErrCodeDuplicate:
		return "DUPLICATE"
	case ErrCodeConstraint:
		return "CONSTRAINT"
	case ErrCodeConnection:
		return "CONNECTION"
	case ErrCodeTransaction:
		return "TRANSACTION"
	case ErrCodeTimeout:
		return "TIMEOUT"
	case ErrCodePermission:
		return "PERMISSION"
	case ErrCodeDiskSpace:
		return "DISK_SPACE"
	case ErrCodeCorruption:
		return "CORRUPTION"
	case ErrCodeInternal:
		return "INTERNAL"
	case ErrCodeSchema:
		return "SCHEMA"
	case ErrCodeUnsupported:
		return "UNSUPPORTED"
	default:
		return "UNKNOWN"
	}
}

// AppError is the error type shared by the store, the wine invoker and the services.
// Context carries flat key/value details that the logger expands into fields.
type AppError struct {
	Op        string            // operation name
	Err       error             // underlying error
	Code      ErrorCode         // error classification
	Retryable bool              // whether the error is retryable
	Context   map[string]string // additional context information
	Timestamp time.Time         // when the error occurred
}

func (e *AppError) Error() string {
	if e == nil {
		return "cellar error"
	}

	var parts []string

	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}

	if e.Code != ErrCodeUnknown {
		parts = append(parts, fmt.Sprintf("code=%s", e.Code.String()))
	}

	if e.Retryable {
		parts = append(parts, "retryable=true")
	}

	// Sorted so messages are stable in logs and tests
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", k, e.Context[k]))
		}
	}

	contextStr := ""
	if len(parts) > 0 {
		contextStr = fmt.Sprintf(" [%s]", strings.Join(parts, " "))
	}

	if e.Err != nil {
		return e.Err.Error() + contextStr
	}
	return "cellar error" + contextStr
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another *AppError by code, otherwise defers to the wrapped error
func (e *AppError) Is(target error) bool {
	if e == nil {
		return false
	}
	if t, ok := target.(*AppError); ok {
		return e.Code == t.Code
	}
	if e.Err != nil {
		return errors.Is(e.Err, target)
	}
	return false
}

// IsRetryable returns whether the error is retryable
func (e *AppError) IsRetryable() bool {
	if e == nil {
		return false
	}
	return e.Retryable
}

// GetCode returns the error code as a string (for logging interface compatibility)
func (e *AppError) GetCode() string {
	if e == nil {
		return ErrCodeUnknown.String()
	}
	return e.Code.String()
}

// GetContext returns the error context (for logging interface compatibility)
func (e *AppError) GetContext() map[string]string {
	if e == nil || e.Context == nil {
		return make(map[string]string)
	}
	return e.Context
}

// GetTimestamp returns the error timestamp (for logging interface compatibility)
func (e *AppError) GetTimestamp() time.Time {
	if e == nil {
		return time.Time{}
	}
	return e.Timestamp
}

// WithContext adds context information to the error by mutating the receiver.
// Not safe once the error has been handed to another goroutine.
func (e *AppError) WithContext(key, value string) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// New creates a new application error
func New(op string, err error, code ErrorCode) *AppError {
	return &AppError{
		Op:        op,
		Err:       err,
		Code:      code,
		Retryable: isRetryableError(code, err),
		Context:   make(map[string]string),
		Timestamp: time.Now(),
	}
}

// NewWithContext creates a new application error with a copy of the given context
func NewWithContext(op string, err error, code ErrorCode, context map[string]string) *AppError {
	appErr := New(op, err, code)
	if context != nil {
		appErr.Context = make(map[string]string, len(context))
		for k, v := range context {
			appErr.Context[k] = v
		}
	}
	return appErr
}

// isRetryableError determines if an error is retryable based on its code
func isRetryableError(code ErrorCode, err error) bool {
	switch code {
	case ErrCodeConnection, ErrCodeTimeout, ErrCodeTransaction, ErrCodeBusy:
		return true
	case ErrCodeExternalInvocation, ErrCodeValidation, ErrCodeNotFound, ErrCodeDuplicate,
		ErrCodeConstraint, ErrCodePermission, ErrCodeDiskSpace, ErrCodeCorruption,
		ErrCodeInternal, ErrCodeSchema, ErrCodeUnsupported:
		return false
	default:
		if err != nil {
			errStr := strings.ToLower(err.Error())
			return strings.Contains(errStr, "temporary") ||
				strings.Contains(errStr, "retry") ||
				strings.Contains(errStr, "busy") ||
				strings.Contains(errStr, "locked")
		}
		return false
	}
}

// HasCode reports whether err is an *AppError with the given code
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsExternalInvocation checks if the error came from a failed external command
func IsExternalInvocation(err error) bool { return HasCode(err, ErrCodeExternalInvocation) }

// IsValidation checks if the error is a validation error
func IsValidation(err error) bool { return HasCode(err, ErrCodeValidation) }

// IsBusy checks if the error reports work already in progress or a locked store
func IsBusy(err error) bool { return HasCode(err, ErrCodeBusy) }

// IsNotFound checks if the error is a "not found" error
func IsNotFound(err error) bool { return HasCode(err, ErrCodeNotFound) }

// IsDuplicate checks if the error is a "duplicate" error
func IsDuplicate(err error) bool { return HasCode(err, ErrCodeDuplicate) }

// IsConstraint checks if the error is a "constraint violation" error
func IsConstraint(err error) bool { return HasCode(err, ErrCodeConstraint) }

// IsConnection checks if the error is a "connection" error
func IsConnection(err error) bool { return HasCode(err, ErrCodeConnection) }

// IsTimeout checks if the error is a "timeout" error
func IsTimeout(err error) bool { return HasCode(err, ErrCodeTimeout) }

// IsUnsupported checks if the error reports an unsupported platform or toolchain
func IsUnsupported(err error) bool { return HasCode(err, ErrCodeUnsupported) }

// IsRetryable checks if the error is retryable
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}
