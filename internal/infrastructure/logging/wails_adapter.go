package logging

import "github.com/wailsapp/wails/v2/pkg/logger"

// WailsLoggerAdapter routes Wails runtime logging into the structured logger
type WailsLoggerAdapter struct {
	logger Logger
}

var _ logger.Logger = (*WailsLoggerAdapter)(nil)

// NewWailsLoggerAdapter creates a new Wails logger adapter using our structured logger
func NewWailsLoggerAdapter(l Logger) *WailsLoggerAdapter {
	if l == nil {
		l = NewDefaultLogger()
	}
	return &WailsLoggerAdapter{logger: l}
}

func (w *WailsLoggerAdapter) Print(message string) {
	w.logger.Info(message, "source", "wails")
}

func (w *WailsLoggerAdapter) Trace(message string) {
	w.logger.Debug(message, "source", "wails", "level", "trace")
}

func (w *WailsLoggerAdapter) Debug(message string) {
	w.logger.Debug(message, "source", "wails")
}

func (w *WailsLoggerAdapter) Info(message string) {
	w.logger.Info(message, "source", "wails")
}

func (w *WailsLoggerAdapter) Warning(message string) {
	w.logger.Warn(message, "source", "wails")
}

func (w *WailsLoggerAdapter) Error(message string) {
	w.logger.Error(message, "source", "wails")
}

// Fatal is logged at ERROR; Wails must not terminate the process from a log call
func (w *WailsLoggerAdapter) Fatal(message string) {
	w.logger.Error(message, "source", "wails", "level", "fatal")
}
