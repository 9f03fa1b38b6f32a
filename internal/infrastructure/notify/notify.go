package notify

import (
	"sync"

	"cellar/internal/infrastructure/logging"

	"github.com/gen2brain/beeep"
)

// Notifier raises user-visible desktop notifications
type Notifier interface {
	Notify(title, message string) error
}

// DesktopNotifier sends notifications through the OS notification center
type DesktopNotifier struct {
	logger logging.Logger
	send   func(title, message string) error
}

var appNameOnce sync.Once

// NewDesktopNotifier creates a notifier that posts under appName
func NewDesktopNotifier(appName string, logger logging.Logger) *DesktopNotifier {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	appNameOnce.Do(func() {
		beeep.AppName = appName
	})
	return &DesktopNotifier{
		logger: logger,
		send:   sendDesktop,
	}
}

// Notify posts the notification; failures are logged and returned
func (d *DesktopNotifier) Notify(title, message string) error {
	if err := d.send(title, message); err != nil {
		d.logger.Warn("Desktop notification failed", "title", title, "error", err)
		return err
	}
	return nil
}

func sendDesktop(title, message string) error {
	return beeep.Notify(title, message, "")
}

// NopNotifier discards notifications
type NopNotifier struct{}

func (NopNotifier) Notify(title, message string) error { return nil }

// New returns a DesktopNotifier when enabled, otherwise a NopNotifier
func New(enabled bool, appName string, logger logging.Logger) Notifier {
	if !enabled {
		return NopNotifier{}
	}
	return NewDesktopNotifier(appName, logger)
}
