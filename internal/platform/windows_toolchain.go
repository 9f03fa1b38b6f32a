//go:build windows

package platform

import (
	apperrors "cellar/internal/infrastructure/errors"
)

// WindowsToolchain reports that no compatibility layer is needed or available
type WindowsToolchain struct{}

// NewToolchain creates the Windows toolchain; librariesDir is ignored
func NewToolchain(librariesDir string) Toolchain {
	return &WindowsToolchain{}
}

func (w *WindowsToolchain) WineBinary() string { return "" }
func (w *WindowsToolchain) LibraryDir() string { return "" }

// Verify always fails: bottles are a macOS and Linux concept
func (w *WindowsToolchain) Verify() error {
	return apperrors.HandleUnsupportedError("Verify", "bottles are not supported on windows hosts")
}
