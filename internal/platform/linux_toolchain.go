//go:build linux

package platform

import (
	"os"
	"os/exec"
	"path/filepath"

	apperrors "cellar/internal/infrastructure/errors"
)

// LinuxToolchain uses the distribution's wine64 from PATH
type LinuxToolchain struct {
	libraries string
}

// NewToolchain creates the Linux toolchain. librariesDir overrides
// $XDG_DATA_HOME/cellar/Libraries when non-empty.
func NewToolchain(librariesDir string) Toolchain {
	if librariesDir == "" {
		librariesDir = defaultLibrariesDir()
	}
	return &LinuxToolchain{libraries: librariesDir}
}

func defaultLibrariesDir() string {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "cellar", "Libraries")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("Libraries")
	}
	return filepath.Join(home, ".local", "share", "cellar", "Libraries")
}

// WineBinary resolves wine64 from PATH, falling back to the bare name
func (l *LinuxToolchain) WineBinary() string {
	if path, err := exec.LookPath("wine64"); err == nil {
		return path
	}
	return "wine64"
}

// LibraryDir returns the directory GPTK libraries would be copied into
func (l *LinuxToolchain) LibraryDir() string {
	return filepath.Join(l.libraries, "Wine", "lib")
}

// Verify checks wine64 resolves to an executable
func (l *LinuxToolchain) Verify() error {
	path, err := exec.LookPath("wine64")
	if err != nil {
		return apperrors.HandleUnsupportedError("Verify", "wine64 not found in PATH")
	}
	if err := checkExecutable(path); err != nil {
		return apperrors.HandleUnsupportedError("Verify", err.Error())
	}
	return nil
}
