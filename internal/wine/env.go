package wine

import (
	"sort"
	"strings"

	"cellar/internal/types"
)

// dxvkDLLs are the Direct3D libraries DXVK replaces
var dxvkDLLs = []string{"d3d9", "d3d10core", "d3d11", "dxgi"}

// LaunchEnvironment returns the KEY=VALUE pairs programs in the bottle run with.
// The DXVK HUD is only exported while DXVK itself is on.
func LaunchEnvironment(bottle types.Bottle) []string {
	env := map[string]string{
		"WINEPREFIX": bottle.Path,
		"WINEDEBUG":  "fixme-all",
	}

	s := bottle.Settings
	if s.DXVK {
		env["WINEDLLOVERRIDES"] = strings.Join(dxvkDLLs, ",") + "=n,b"
		if s.DXVKHud {
			env["DXVK_HUD"] = "full"
		}
	}
	if s.MetalHud {
		env["MTL_HUD_ENABLED"] = "1"
	}
	if s.MetalTrace {
		env["METAL_CAPTURE_ENABLED"] = "1"
	}
	if s.ESync {
		env["WINEESYNC"] = "1"
	}

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+env[k])
	}
	return pairs
}
