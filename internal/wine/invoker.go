package wine

import (
	"context"

	"cellar/internal/types"
)

// Invoker drives the compatibility layer for one bottle
type Invoker interface {
	// OpenConfigTool launches winecfg and returns when it exits
	OpenConfigTool(ctx context.Context, bottle types.Bottle) error
	// SetPlatformVersion changes the Windows version the prefix reports
	SetPlatformVersion(ctx context.Context, bottle types.Bottle, version types.WinVersion) error
	// SetFeature applies a graphics or sync flag to the prefix
	SetFeature(ctx context.Context, bottle types.Bottle, flag types.FeatureFlag, enabled bool) error
}

// PackageInstaller installs a downloaded toolkit image
type PackageInstaller interface {
	InstallPackage(ctx context.Context, path string) error
}
