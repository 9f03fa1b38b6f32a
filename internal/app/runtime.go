package app

import (
	"context"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

const (
	// EventBottleChanged carries a services.ChangeEvent
	EventBottleChanged = "bottle-changed"
	// EventInstallStateChanged carries a services.InstallEvent
	EventInstallStateChanged = "install-state-changed"
)

// Runtime is the part of the Wails runtime the app talks to
type Runtime interface {
	EventsEmit(ctx context.Context, name string, data ...interface{})
	OnFileDrop(ctx context.Context, callback func(x, y int, paths []string))
}

// WailsRuntime forwards to github.com/wailsapp/wails/v2/pkg/runtime
type WailsRuntime struct{}

func (WailsRuntime) EventsEmit(ctx context.Context, name string, data ...interface{}) {
	runtime.EventsEmit(ctx, name, data...)
}

func (WailsRuntime) OnFileDrop(ctx context.Context, callback func(x, y int, paths []string)) {
	runtime.OnFileDrop(ctx, callback)
}
