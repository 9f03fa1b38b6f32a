package notify

import (
	"errors"
	"testing"

	"cellar/internal/infrastructure/logging"
)

type recordingLogger struct {
	warnings []string
}

func (l *recordingLogger) Debug(msg string, fields ...interface{}) {}
func (l *recordingLogger) Info(msg string, fields ...interface{})  {}
func (l *recordingLogger) Warn(msg string, fields ...interface{}) {
	l.warnings = append(l.warnings, msg)
}
func (l *recordingLogger) Error(msg string, fields ...interface{}) {}

var _ logging.Logger = (*recordingLogger)(nil)

func TestDesktopNotifier_Notify(t *testing.T) {
	logger := &recordingLogger{}
	n := NewDesktopNotifier("cellar-test", logger)

	var gotTitle, gotMessage string
	n.send = func(title, message string) error {
		gotTitle, gotMessage = title, message
		return nil
	}

	if err := n.Notify("Install failed", "bad image"); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if gotTitle != "Install failed" || gotMessage != "bad image" {
		t.Errorf("sent (%q, %q)", gotTitle, gotMessage)
	}
	if len(logger.warnings) != 0 {
		t.Errorf("Unexpected warnings: %v", logger.warnings)
	}
}

func TestDesktopNotifier_SendFailure(t *testing.T) {
	logger := &recordingLogger{}
	n := NewDesktopNotifier("cellar-test", logger)
	want := errors.New("no notification daemon")
	n.send = func(string, string) error { return want }

	if err := n.Notify("t", "m"); !errors.Is(err, want) {
		t.Errorf("Notify() error = %v, want %v", err, want)
	}
	if len(logger.warnings) != 1 {
		t.Errorf("Expected one warning, got %v", logger.warnings)
	}
}

func TestNew(t *testing.T) {
	if _, ok := New(false, "cellar", nil).(NopNotifier); !ok {
		t.Error("Disabled notifications should use NopNotifier")
	}
	if _, ok := New(true, "cellar", nil).(*DesktopNotifier); !ok {
		t.Error("Enabled notifications should use DesktopNotifier")
	}
	if err := (NopNotifier{}).Notify("t", "m"); err != nil {
		t.Errorf("NopNotifier.Notify() error = %v", err)
	}
}
