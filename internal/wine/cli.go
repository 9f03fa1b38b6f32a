package wine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "cellar/internal/infrastructure/errors"
	"cellar/internal/infrastructure/logging"
	"cellar/internal/platform"
	"cellar/internal/types"
)

const dllOverridesKey = `HKCU\Software\Wine\DllOverrides`

// CLI implements Invoker by running the toolchain's wine64
type CLI struct {
	toolchain platform.Toolchain
	runner    Runner
	logger    logging.Logger
}

var _ Invoker = (*CLI)(nil)

// NewCLI creates an invoker for the given toolchain
func NewCLI(toolchain platform.Toolchain, runner Runner, logger logging.Logger) *CLI {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &CLI{
		toolchain: toolchain,
		runner:    runner,
		logger:    logger,
	}
}

// OpenConfigTool runs winecfg in the bottle
func (c *CLI) OpenConfigTool(ctx context.Context, bottle types.Bottle) error {
	_, err := c.wine(ctx, "OpenConfigTool", bottle, "winecfg")
	return err
}

// SetPlatformVersion runs winecfg -v with the requested version
func (c *CLI) SetPlatformVersion(ctx context.Context, bottle types.Bottle, version types.WinVersion) error {
	if !version.Valid() {
		return apperrors.HandleValidationError("SetPlatformVersion", "version", string(version), "unknown windows version")
	}
	_, err := c.wine(ctx, "SetPlatformVersion", bottle, "winecfg", "-v", version.WinecfgArg())
	return err
}

// SetFeature writes the DXVK DLL overrides into the prefix registry.
// The other flags only affect the launch environment and need no command.
func (c *CLI) SetFeature(ctx context.Context, bottle types.Bottle, flag types.FeatureFlag, enabled bool) error {
	if !flag.Valid() {
		return apperrors.HandleValidationError("SetFeature", "flag", string(flag), "unknown feature flag")
	}
	if flag != types.FeatureDXVK {
		c.logger.Debug("Feature applies at launch", "bottle", bottle.Name, "flag", string(flag), "enabled", enabled)
		return nil
	}

	if enabled {
		for _, dll := range dxvkDLLs {
			args := []string{"reg", "add", dllOverridesKey, "/v", dll, "/d", "native,builtin", "/f"}
			if _, err := c.wine(ctx, "SetFeature", bottle, args...); err != nil {
				return err
			}
		}
		return nil
	}

	// Every override is attempted; a value that is already gone counts as removed
	var errs []error
	for _, dll := range dxvkDLLs {
		out, err := c.wine(ctx, "SetFeature", bottle, "reg", "delete", dllOverridesKey, "/v", dll, "/f")
		if err == nil {
			continue
		}
		if isMissingRegistryValue(out) {
			c.logger.Debug("DLL override already absent", "bottle", bottle.Name, "dll", dll)
			continue
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// isMissingRegistryValue reports whether reg failed only because the value does not exist
func isMissingRegistryValue(out Output) bool {
	if out.ExitCode != 1 {
		return false
	}
	text := strings.ToLower(out.Stderr + out.Stdout)
	return strings.Contains(text, "unable to find")
}

func (c *CLI) wine(ctx context.Context, op string, bottle types.Bottle, args ...string) (Output, error) {
	if bottle.Path == "" {
		return Output{}, apperrors.HandleValidationError(op, "bottle.path", "", "bottle has no prefix path")
	}
	if err := c.toolchain.Verify(); err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return Output{}, err
		}
		return Output{}, apperrors.New(op, fmt.Errorf("toolchain unavailable: %w", err), apperrors.ErrCodeUnsupported)
	}

	return c.runner.Run(ctx, Command{
		Op:   op,
		Path: c.toolchain.WineBinary(),
		Args: args,
		Env:  LaunchEnvironment(bottle),
	})
}
