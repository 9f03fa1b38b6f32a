package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func fastRetryConfig() *RetryConfig {
	config := DefaultRetryConfig()
	config.InitialDelay = 1 * time.Millisecond
	config.Jitter = false
	return config
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxAttempts != 3 {
		t.Errorf("Expected MaxAttempts to be 3, got %d", config.MaxAttempts)
	}
	if config.InitialDelay != 100*time.Millisecond {
		t.Errorf("Expected InitialDelay to be 100ms, got %v", config.InitialDelay)
	}
	if config.BackoffFactor != 2.0 {
		t.Errorf("Expected BackoffFactor to be 2.0, got %f", config.BackoffFactor)
	}

	expectedCodes := []ErrorCode{ErrCodeConnection, ErrCodeTimeout, ErrCodeTransaction, ErrCodeBusy}
	if len(config.RetryableErrors) != len(expectedCodes) {
		t.Errorf("Expected %d retryable error codes, got %d", len(expectedCodes), len(config.RetryableErrors))
	}
}

func TestWithRetry_Success(t *testing.T) {
	callCount := 0
	err := WithRetry(context.Background(), DefaultRetryConfig(), func() error {
		callCount++
		return nil
	})
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("Expected operation to be called once, got %d", callCount)
	}
}

func TestWithRetry_SuccessAfterBusy(t *testing.T) {
	callCount := 0
	err := WithRetry(context.Background(), fastRetryConfig(), func() error {
		callCount++
		if callCount < 3 {
			return New("SaveSettings", errors.New("database is locked"), ErrCodeBusy)
		}
		return nil
	})
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if callCount != 3 {
		t.Errorf("Expected operation to be called 3 times, got %d", callCount)
	}
}

func TestWithRetry_NonRetryableError(t *testing.T) {
	callCount := 0
	err := WithRetry(context.Background(), fastRetryConfig(), func() error {
		callCount++
		return New("SetPlatformVersion", errors.New("exit status 1"), ErrCodeExternalInvocation)
	})
	if !IsExternalInvocation(err) {
		t.Errorf("Expected external invocation error, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("Expected operation to be called once, got %d", callCount)
	}
}

func TestWithRetry_MaxAttemptsExceeded(t *testing.T) {
	callCount := 0
	err := WithRetry(context.Background(), fastRetryConfig(), func() error {
		callCount++
		return New("test", errors.New("connection failed"), ErrCodeConnection)
	})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if callCount != 3 {
		t.Errorf("Expected operation to be called 3 times, got %d", callCount)
	}
	if !strings.Contains(err.Error(), "failed after 3 attempts") {
		t.Errorf("Expected attempts in error message, got %v", err)
	}
	if !IsConnection(err) {
		t.Error("Expected last error to remain classifiable")
	}
}

func TestWithRetry_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	config := DefaultRetryConfig()
	config.InitialDelay = time.Second
	config.Jitter = false

	callCount := 0
	err := WithRetryContext(ctx, config, func() error {
		callCount++
		cancel()
		return New("test", errors.New("timeout"), ErrCodeTimeout)
	}, "cancelled-op")

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("Expected operation to be called once, got %d", callCount)
	}
}

func TestWithRetry_NilConfig(t *testing.T) {
	callCount := 0
	err := WithRetry(context.Background(), nil, func() error {
		callCount++
		return nil
	})
	if err != nil || callCount != 1 {
		t.Errorf("Expected single successful call, got err=%v calls=%d", err, callCount)
	}
}

func TestShouldRetry(t *testing.T) {
	config := DefaultRetryConfig()

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"busy", New("test", errors.New("locked"), ErrCodeBusy), true},
		{"connection", New("test", errors.New("connection failed"), ErrCodeConnection), true},
		{"external invocation", New("test", errors.New("exit 1"), ErrCodeExternalInvocation), false},
		{"validation", New("test", errors.New("bad"), ErrCodeValidation), false},
		{"plain error", errors.New("regular error"), false},
		{"disk space", New("test", errors.New("disk full"), ErrCodeDiskSpace), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := shouldRetry(tt.err, config); result != tt.expected {
				t.Errorf("shouldRetry() = %v, expected %v for error: %v", result, tt.expected, tt.err)
			}
		})
	}
}

func TestCalculateDelay(t *testing.T) {
	config := &RetryConfig{
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      1 * time.Second,
		BackoffFactor: 2.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, 1 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if result := calculateDelay(tt.attempt, config); result != tt.expected {
				t.Errorf("calculateDelay(%d) = %v, expected %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestCalculateDelay_WithJitter(t *testing.T) {
	config := &RetryConfig{
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      1 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        true,
	}

	for i := 0; i < 10; i++ {
		delay := calculateDelay(0, config)
		if delay < 100*time.Millisecond || delay > 125*time.Millisecond {
			t.Errorf("Jittered delay %v outside [100ms, 125ms]", delay)
		}
	}
}

// mockRetryLogger implements RetryLogger for testing
type mockRetryLogger struct {
	messages []string
}

func (m *mockRetryLogger) Printf(format string, v ...interface{}) {
	m.messages = append(m.messages, fmt.Sprintf(format, v...))
}

func TestSetRetryLogger(t *testing.T) {
	originalLogger := retryLogger
	defer func() {
		retryLogger = originalLogger
	}()

	mockLogger := &mockRetryLogger{}
	SetRetryLogger(mockLogger)

	callCount := 0
	err := WithRetryContext(context.Background(), fastRetryConfig(), func() error {
		callCount++
		if callCount < 2 {
			return New("test", errors.New("connection failed"), ErrCodeConnection)
		}
		return nil
	}, "save-settings")
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	if len(mockLogger.messages) != 2 {
		t.Fatalf("Expected 2 log messages, got %d", len(mockLogger.messages))
	}
	if !strings.Contains(mockLogger.messages[0], "save-settings") {
		t.Errorf("Expected first message to contain operation name, got: %s", mockLogger.messages[0])
	}
	if !strings.Contains(mockLogger.messages[1], "succeeded after 2 attempts") {
		t.Errorf("Expected second message to contain success message, got: %s", mockLogger.messages[1])
	}
}

func TestLogRetryMessage_NilLogger(t *testing.T) {
	originalLogger := retryLogger
	defer func() {
		retryLogger = originalLogger
	}()

	SetRetryLogger(nil)
	logRetryMessage("test message %s", "param")
}
