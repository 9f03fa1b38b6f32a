package logging

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"
)

// Logger is the structured logger used across cellar.
// Fields are alternating key/value pairs.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// Level orders log severities
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the level token written into log entries
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

// ParseLevel maps a config value (debug, info, warn, error) to a Level.
// Unknown values fall back to info.
func ParseLevel(level string) Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// DefaultLogger writes one JSON object per entry through the standard log package
type DefaultLogger struct {
	minLevel Level
}

// NewDefaultLogger creates a logger that emits every level
func NewDefaultLogger() Logger {
	return &DefaultLogger{minLevel: LevelDebug}
}

// NewLogger creates a logger that drops entries below the given level
func NewLogger(level string) Logger {
	return &DefaultLogger{minLevel: ParseLevel(level)}
}

type logEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields"`
}

// fieldsToMap converts key1, value1, key2, value2, ... into a map.
// Non-string keys and a dangling value are kept under positional keys.
func fieldsToMap(fields []interface{}) map[string]interface{} {
	result := make(map[string]interface{})

	for i := 0; i < len(fields); i += 2 {
		if i+1 >= len(fields) {
			result[fmt.Sprintf("field_%d", i/2)] = fields[i]
			continue
		}
		if key, ok := fields[i].(string); ok {
			result[key] = normalizeValue(fields[i+1])
		} else {
			result[fmt.Sprintf("field_%d", i/2)] = fields[i]
			result[fmt.Sprintf("field_%d_value", i/2)] = normalizeValue(fields[i+1])
		}
	}
	return result
}

// normalizeValue renders errors as their message; json.Marshal would otherwise emit {}
func normalizeValue(v interface{}) interface{} {
	if err, ok := v.(error); ok && err != nil {
		return err.Error()
	}
	return v
}

func (l *DefaultLogger) logStructured(level Level, msg string, fields []interface{}) {
	if level < l.minLevel {
		return
	}

	entry := logEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level.String(),
		Message:   msg,
		Fields:    fieldsToMap(fields),
	}

	jsonBytes, err := json.Marshal(entry)
	if err != nil {
		fallbackFields := fmt.Sprintf("%v", fields)
		entry.Fields = map[string]interface{}{
			"original_fields": fallbackFields,
			"marshal_error":   err.Error(),
		}
		if jsonBytes, err = json.Marshal(entry); err != nil {
			log.Printf("[%s] %s %s", level, msg, fallbackFields)
			return
		}
	}

	log.Println(string(jsonBytes))
}

func (l *DefaultLogger) Debug(msg string, fields ...interface{}) {
	l.logStructured(LevelDebug, msg, fields)
}

func (l *DefaultLogger) Info(msg string, fields ...interface{}) {
	l.logStructured(LevelInfo, msg, fields)
}

func (l *DefaultLogger) Warn(msg string, fields ...interface{}) {
	l.logStructured(LevelWarn, msg, fields)
}

func (l *DefaultLogger) Error(msg string, fields ...interface{}) {
	l.logStructured(LevelError, msg, fields)
}

// ClassifiedError is satisfied by errors.AppError; declared here to avoid an import cycle
type ClassifiedError interface {
	Error() string
	GetCode() string
	IsRetryable() bool
	GetContext() map[string]string
	GetTimestamp() time.Time
}

// LogError logs err at ERROR with its classification and context expanded into fields
func LogError(logger Logger, err error, operation string, context map[string]interface{}) {
	if logger == nil {
		logger = NewDefaultLogger()
	}
	if err == nil {
		return
	}

	var fields []interface{}
	var msg string

	if classified, ok := asClassified(err); ok {
		fields = []interface{}{
			"operation", operation,
			"error_code", classified.GetCode(),
			"retryable", classified.IsRetryable(),
			"timestamp", classified.GetTimestamp(),
		}
		for k, v := range classified.GetContext() {
			fields = append(fields, k, v)
		}
		msg = fmt.Sprintf("Operation failed: %s", err.Error())
	} else {
		fields = []interface{}{
			"operation", operation,
			"error_type", fmt.Sprintf("%T", err),
		}
		msg = fmt.Sprintf("Unexpected error: %s", err.Error())
	}

	for k, v := range context {
		fields = append(fields, k, v)
	}

	logger.Error(msg, fields...)
}

// LogOperation logs a completed operation and its duration at INFO
func LogOperation(logger Logger, operation string, duration time.Duration, context map[string]interface{}) {
	if logger == nil {
		logger = NewDefaultLogger()
	}

	fields := []interface{}{
		"operation", operation,
		"duration_ms", duration.Milliseconds(),
	}
	for k, v := range context {
		fields = append(fields, k, v)
	}

	logger.Info(fmt.Sprintf("Operation completed: %s", operation), fields...)
}

// asClassified unwraps err until it finds a ClassifiedError
func asClassified(err error) (ClassifiedError, bool) {
	for err != nil {
		if c, ok := err.(ClassifiedError); ok {
			return c, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}
