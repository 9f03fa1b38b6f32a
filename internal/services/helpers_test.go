package services

import (
	"sync"
	"time"

	apperrors "cellar/internal/infrastructure/errors"
)

const testTimeout = 2 * time.Second

type logEntry struct {
	level  string
	msg    string
	fields []any
}

// recordingLogger captures log entries for assertions
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) log(level, msg string, fields []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, fields: fields})
}

func (l *recordingLogger) Debug(msg string, fields ...any) { l.log("debug", msg, fields) }
func (l *recordingLogger) Info(msg string, fields ...any)  { l.log("info", msg, fields) }
func (l *recordingLogger) Warn(msg string, fields ...any)  { l.log("warn", msg, fields) }
func (l *recordingLogger) Error(msg string, fields ...any) { l.log("error", msg, fields) }

func (l *recordingLogger) errorEntries() []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logEntry
	for _, e := range l.entries {
		if e.level == "error" {
			out = append(out, e)
		}
	}
	return out
}

// recordingNotifier counts notifications
type recordingNotifier struct {
	mu     sync.Mutex
	titles []string
}

func (n *recordingNotifier) Notify(title, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.titles = append(n.titles, title)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.titles)
}

// noRetry keeps failing store writes from sleeping between attempts
func noRetry() *apperrors.RetryConfig {
	cfg := apperrors.DefaultRetryConfig()
	cfg.MaxAttempts = 1
	return cfg
}
