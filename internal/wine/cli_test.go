package wine

import (
	"context"
	"errors"
	"slices"
	"testing"

	apperrors "cellar/internal/infrastructure/errors"
	"cellar/internal/platform"
	"cellar/internal/types"
)

func newTestCLI() (*CLI, *fakeRunner) {
	runner := newFakeRunner()
	toolchain := &platform.StaticToolchain{Wine: "/opt/wine/bin/wine64", Library: "/opt/wine/lib"}
	return NewCLI(toolchain, runner, nil), runner
}

var testBottle = types.Bottle{Name: "Game", Path: "/bottles/game", Settings: types.DefaultSettings()}

func TestCLI_SetPlatformVersion(t *testing.T) {
	tests := []struct {
		version  types.WinVersion
		wantArgs []string
	}{
		{types.Win7, []string{"winecfg", "-v", "win7"}},
		{types.Win11, []string{"winecfg", "-v", "win11"}},
		{types.WinXP, []string{"winecfg", "-v", "winxp64"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.version), func(t *testing.T) {
			cli, runner := newTestCLI()

			if err := cli.SetPlatformVersion(context.Background(), testBottle, tt.version); err != nil {
				t.Fatalf("SetPlatformVersion() error = %v", err)
			}

			cmds := runner.Commands()
			if len(cmds) != 1 {
				t.Fatalf("Expected 1 command, got %d", len(cmds))
			}
			if cmds[0].Path != "/opt/wine/bin/wine64" {
				t.Errorf("Path = %q", cmds[0].Path)
			}
			if !slices.Equal(cmds[0].Args, tt.wantArgs) {
				t.Errorf("Args = %v, want %v", cmds[0].Args, tt.wantArgs)
			}
			if !slices.Contains(cmds[0].Env, "WINEPREFIX=/bottles/game") {
				t.Errorf("Env missing WINEPREFIX: %v", cmds[0].Env)
			}
		})
	}
}

func TestCLI_SetPlatformVersion_Invalid(t *testing.T) {
	cli, runner := newTestCLI()

	err := cli.SetPlatformVersion(context.Background(), testBottle, "win98")
	if !apperrors.IsValidation(err) {
		t.Errorf("Expected validation error, got %v", err)
	}
	if n := len(runner.Commands()); n != 0 {
		t.Errorf("Expected no commands, got %d", n)
	}
}

func TestCLI_OpenConfigTool(t *testing.T) {
	cli, runner := newTestCLI()

	if err := cli.OpenConfigTool(context.Background(), testBottle); err != nil {
		t.Fatalf("OpenConfigTool() error = %v", err)
	}
	cmds := runner.Commands()
	if len(cmds) != 1 || !slices.Equal(cmds[0].Args, []string{"winecfg"}) {
		t.Errorf("Unexpected commands: %+v", cmds)
	}
}

func TestCLI_SetFeature_DXVK(t *testing.T) {
	cli, runner := newTestCLI()
	ctx := context.Background()

	if err := cli.SetFeature(ctx, testBottle, types.FeatureDXVK, true); err != nil {
		t.Fatalf("SetFeature(enable) error = %v", err)
	}
	cmds := runner.Commands()
	if len(cmds) != len(dxvkDLLs) {
		t.Fatalf("Expected %d commands, got %d", len(dxvkDLLs), len(cmds))
	}
	for i, dll := range dxvkDLLs {
		want := []string{"reg", "add", dllOverridesKey, "/v", dll, "/d", "native,builtin", "/f"}
		if !slices.Equal(cmds[i].Args, want) {
			t.Errorf("command %d args = %v, want %v", i, cmds[i].Args, want)
		}
	}

	if err := cli.SetFeature(ctx, testBottle, types.FeatureDXVK, false); err != nil {
		t.Fatalf("SetFeature(disable) error = %v", err)
	}
	cmds = runner.Commands()[len(dxvkDLLs):]
	for i, dll := range dxvkDLLs {
		want := []string{"reg", "delete", dllOverridesKey, "/v", dll, "/f"}
		if !slices.Equal(cmds[i].Args, want) {
			t.Errorf("command %d args = %v, want %v", i, cmds[i].Args, want)
		}
	}
}

func TestCLI_SetFeature_DXVKStopsOnFailure(t *testing.T) {
	cli, runner := newTestCLI()
	runner.failOn["reg"] = true

	err := cli.SetFeature(context.Background(), testBottle, types.FeatureDXVK, true)
	if !apperrors.IsExternalInvocation(err) {
		t.Fatalf("Expected external invocation error, got %v", err)
	}
	if n := len(runner.Commands()); n != 1 {
		t.Errorf("Expected to stop after first failure, ran %d commands", n)
	}
}

func TestCLI_SetFeature_DXVKDisableTolerance(t *testing.T) {
	missing := Output{ExitCode: 1, Stderr: "reg: Unable to find the specified registry key or value"}
	denied := Output{ExitCode: 1, Stderr: "reg: Access denied"}

	tests := []struct {
		name    string
		answers map[string]Output // keyed by dll; absent means success
		wantErr bool
	}{
		{"all present", nil, false},
		{"some already removed", map[string]Output{"d3d9": missing, "dxgi": missing}, false},
		{"real failure", map[string]Output{"d3d10core": denied}, true},
		{"real failure among missing", map[string]Output{"d3d9": missing, "d3d11": denied}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, runner := newTestCLI()
			runner.hook = func(cmd Command) (Output, error) {
				dll := cmd.Args[4]
				if out, ok := tt.answers[dll]; ok {
					return out, apperrors.HandleInvocationError(cmd.Op, cmd.String(), out.ExitCode, out.Stderr, errors.New("exit status 1"))
				}
				return Output{}, nil
			}

			err := cli.SetFeature(context.Background(), testBottle, types.FeatureDXVK, false)
			if tt.wantErr {
				if !apperrors.IsExternalInvocation(err) {
					t.Errorf("Expected external invocation error, got %v", err)
				}
			} else if err != nil {
				t.Errorf("SetFeature(disable) error = %v", err)
			}

			if n := len(runner.Commands()); n != len(dxvkDLLs) {
				t.Errorf("Expected every override to be attempted, ran %d commands", n)
			}
		})
	}
}

func TestCLI_SetFeature_EnvironmentOnly(t *testing.T) {
	for _, flag := range []types.FeatureFlag{types.FeatureDXVKHud, types.FeatureMetalHud, types.FeatureMetalTrace, types.FeatureESync} {
		t.Run(string(flag), func(t *testing.T) {
			cli, runner := newTestCLI()
			if err := cli.SetFeature(context.Background(), testBottle, flag, true); err != nil {
				t.Errorf("SetFeature() error = %v", err)
			}
			if n := len(runner.Commands()); n != 0 {
				t.Errorf("Expected no commands, got %d", n)
			}
		})
	}

	cli, _ := newTestCLI()
	if err := cli.SetFeature(context.Background(), testBottle, "vsync", true); !apperrors.IsValidation(err) {
		t.Errorf("Expected validation error for unknown flag, got %v", err)
	}
}

func TestCLI_ToolchainUnavailable(t *testing.T) {
	runner := newFakeRunner()

	unsupported := &platform.StaticToolchain{Err: apperrors.HandleUnsupportedError("Verify", "missing")}
	cli := NewCLI(unsupported, runner, nil)
	if err := cli.OpenConfigTool(context.Background(), testBottle); !apperrors.IsUnsupported(err) {
		t.Errorf("Expected unsupported error, got %v", err)
	}

	plain := &platform.StaticToolchain{Err: errors.New("no wine64")}
	cli = NewCLI(plain, runner, nil)
	if err := cli.OpenConfigTool(context.Background(), testBottle); !apperrors.IsUnsupported(err) {
		t.Errorf("Expected plain verify error to be classified unsupported, got %v", err)
	}

	if n := len(runner.Commands()); n != 0 {
		t.Errorf("Expected no commands, got %d", n)
	}
}

func TestCLI_MissingPrefix(t *testing.T) {
	cli, runner := newTestCLI()

	err := cli.OpenConfigTool(context.Background(), types.Bottle{Name: "NoPath"})
	if !apperrors.IsValidation(err) {
		t.Errorf("Expected validation error, got %v", err)
	}
	if n := len(runner.Commands()); n != 0 {
		t.Errorf("Expected no commands, got %d", n)
	}
}
