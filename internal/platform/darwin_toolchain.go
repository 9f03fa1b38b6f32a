//go:build darwin

package platform

import (
	"os"
	"path/filepath"

	apperrors "cellar/internal/infrastructure/errors"
)

// DarwinToolchain resolves the bundled Wine build under Application Support
type DarwinToolchain struct {
	libraries string
}

// NewToolchain creates the macOS toolchain. librariesDir overrides
// ~/Library/Application Support/cellar/Libraries when non-empty.
func NewToolchain(librariesDir string) Toolchain {
	if librariesDir == "" {
		librariesDir = defaultLibrariesDir()
	}
	return &DarwinToolchain{libraries: librariesDir}
}

func defaultLibrariesDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("Libraries")
	}
	return filepath.Join(home, "Library", "Application Support", "cellar", "Libraries")
}

// WineBinary returns the bundled wine64 path
func (d *DarwinToolchain) WineBinary() string {
	return filepath.Join(d.libraries, "Wine", "bin", "wine64")
}

// LibraryDir returns the Wine lib directory GPTK is copied into
func (d *DarwinToolchain) LibraryDir() string {
	return filepath.Join(d.libraries, "Wine", "lib")
}

// Verify checks the bundled wine64 is present and executable
func (d *DarwinToolchain) Verify() error {
	if err := checkExecutable(d.WineBinary()); err != nil {
		return apperrors.HandleUnsupportedError("Verify", err.Error())
	}
	return nil
}
