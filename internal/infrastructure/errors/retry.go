package errors

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
)

// RetryLogger defines the interface for logging retry operations
type RetryLogger interface {
	Printf(format string, v ...interface{})
}

// RetryConfig holds configuration for retry logic
type RetryConfig struct {
	MaxAttempts     int           // Maximum number of attempts, including the first
	InitialDelay    time.Duration // Initial delay between retries
	MaxDelay        time.Duration // Maximum delay between retries
	BackoffFactor   float64       // Exponential backoff factor
	Jitter          bool          // Whether to add jitter to delays
	RetryableErrors []ErrorCode   // Specific error codes to retry
}

var retryLogger RetryLogger

// DefaultRetryConfig returns the retry configuration used for store writes.
// SQLite reports lock contention as BUSY, so it is retried alongside the
// connection-level codes.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        true,
		RetryableErrors: []ErrorCode{
			ErrCodeConnection,
			ErrCodeTimeout,
			ErrCodeTransaction,
			ErrCodeBusy,
		},
	}
}

// RetryableOperation represents an operation that can be retried
type RetryableOperation func() error

// SetRetryLogger sets the package-level logger for retry operations
func SetRetryLogger(logger RetryLogger) {
	retryLogger = logger
}

func logRetryMessage(format string, v ...interface{}) {
	if retryLogger != nil {
		retryLogger.Printf(format, v...)
	}
}

func withRetryImpl(ctx context.Context, config *RetryConfig, operation RetryableOperation, operationName string) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var lastErr error

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		err := operation()
		if err == nil {
			if attempt > 0 && operationName != "" {
				logRetryMessage("Operation '%s' succeeded after %d attempts", operationName, attempt+1)
			}
			return nil
		}

		lastErr = err

		if !shouldRetry(err, config) {
			if operationName != "" {
				logRetryMessage("Operation '%s' failed with non-retryable error: %v", operationName, err)
			}
			return err
		}

		if attempt == config.MaxAttempts-1 {
			break
		}

		delay := calculateDelay(attempt, config)

		if operationName != "" {
			logRetryMessage("Operation '%s' failed (attempt %d/%d), retrying in %v: %v",
				operationName, attempt+1, config.MaxAttempts, delay, err)
		} else {
			logRetryMessage("Operation failed (attempt %d/%d), retrying in %v: %v",
				attempt+1, config.MaxAttempts, delay, err)
		}

		select {
		case <-ctx.Done():
			if operationName != "" {
				return fmt.Errorf("operation '%s' cancelled during retry: %w", operationName, ctx.Err())
			}
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	if operationName != "" {
		return fmt.Errorf("operation '%s' failed after %d attempts: %w", operationName, config.MaxAttempts, lastErr)
	}
	return fmt.Errorf("operation failed after %d attempts: %w", config.MaxAttempts, lastErr)
}

// WithRetry executes an operation with retry logic
func WithRetry(ctx context.Context, config *RetryConfig, operation RetryableOperation) error {
	return withRetryImpl(ctx, config, operation, "")
}

// WithRetryContext executes an operation with retry logic and names it in retry logs
func WithRetryContext(ctx context.Context, config *RetryConfig, operation RetryableOperation, operationName string) error {
	return withRetryImpl(ctx, config, operation, operationName)
}

// shouldRetry only retries *AppError values whose code is both retryable and listed
func shouldRetry(err error, config *RetryConfig) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}

	if !appErr.IsRetryable() {
		return false
	}

	return slices.Contains(config.RetryableErrors, appErr.Code)
}

// calculateDelay calculates the delay for the next retry attempt
func calculateDelay(attempt int, config *RetryConfig) time.Duration {
	multiplier := 1.0
	for range attempt {
		multiplier *= config.BackoffFactor
	}

	delay := time.Duration(float64(config.InitialDelay) * multiplier)

	// Up to 25% jitter, applied before the cap
	if config.Jitter && delay > 0 {
		jitterAmount := time.Duration(float64(delay) * 0.25)
		if jitterAmount > 0 {
			delay += time.Duration(time.Now().UnixNano() % int64(jitterAmount))
		}
	}

	return min(delay, config.MaxDelay)
}
