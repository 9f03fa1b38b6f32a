package wine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "cellar/internal/infrastructure/errors"
	"cellar/internal/infrastructure/logging"
	"cellar/internal/platform"
)

// redistLibDir is where the toolkit image keeps its libraries
const redistLibDir = "redist/lib"

// GPTKInstaller copies the Game Porting Toolkit libraries out of a .dmg
type GPTKInstaller struct {
	toolchain platform.Toolchain
	runner    Runner
	logger    logging.Logger
	tempDir   string
}

var _ PackageInstaller = (*GPTKInstaller)(nil)

// NewGPTKInstaller creates an installer that writes into the toolchain library directory
func NewGPTKInstaller(toolchain platform.Toolchain, runner Runner, logger logging.Logger) *GPTKInstaller {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &GPTKInstaller{
		toolchain: toolchain,
		runner:    runner,
		logger:    logger,
	}
}

// InstallPackage mounts the image read-only, copies redist/lib and always detaches
func (g *GPTKInstaller) InstallPackage(ctx context.Context, path string) error {
	start := time.Now()

	if !strings.EqualFold(filepath.Ext(path), ".dmg") {
		return apperrors.HandleValidationError("InstallPackage", "path", path, "not a disk image")
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return apperrors.HandleValidationError("InstallPackage", "path", path, statErr.Error())
	}

	libDir := g.toolchain.LibraryDir()
	if libDir == "" {
		return apperrors.HandleUnsupportedError("InstallPackage", "toolchain has no library directory")
	}

	mountPoint, err := os.MkdirTemp(g.tempDir, "cellar-gptk-")
	if err != nil {
		return apperrors.New("InstallPackage", fmt.Errorf("create mount point: %w", err), apperrors.ErrCodeInternal)
	}
	defer os.Remove(mountPoint)

	if _, err := g.runner.Run(ctx, Command{
		Op:   "InstallPackage.Attach",
		Path: "hdiutil",
		Args: []string{"attach", "-nobrowse", "-readonly", "-mountpoint", mountPoint, path},
	}); err != nil {
		return err
	}
	defer g.detach(ctx, mountPoint)

	src := filepath.Join(mountPoint, redistLibDir)
	if info, statErr := os.Stat(src); statErr != nil || !info.IsDir() {
		return apperrors.HandleValidationError("InstallPackage", "path", path, "image does not contain "+redistLibDir)
	}

	if err := os.MkdirAll(libDir, 0o755); err != nil {
		return apperrors.New("InstallPackage", fmt.Errorf("create library directory: %w", err), apperrors.ErrCodePermission)
	}

	// Trailing separators make ditto merge the directory contents
	if _, err := g.runner.Run(ctx, Command{
		Op:   "InstallPackage.Copy",
		Path: "ditto",
		Args: []string{src + string(filepath.Separator), libDir + string(filepath.Separator)},
	}); err != nil {
		return err
	}

	logging.LogOperation(g.logger, "InstallPackage", time.Since(start), map[string]interface{}{
		"image":       path,
		"library_dir": libDir,
	})
	return nil
}

func (g *GPTKInstaller) detach(ctx context.Context, mountPoint string) {
	_, err := g.runner.Run(context.WithoutCancel(ctx), Command{
		Op:   "InstallPackage.Detach",
		Path: "hdiutil",
		Args: []string{"detach", mountPoint},
	})
	if err != nil {
		logging.LogError(g.logger, err, "InstallPackage.Detach", map[string]interface{}{
			"mount_point": mountPoint,
		})
	}
}
