package types

import (
	"fmt"
	"strings"
)

// WinVersion is the Windows release a bottle reports to programs
type WinVersion string

const (
	WinXP WinVersion = "winxp"
	Win7  WinVersion = "win7"
	Win8  WinVersion = "win8"
	Win81 WinVersion = "win81"
	Win10 WinVersion = "win10"
	Win11 WinVersion = "win11"
)

// DefaultWinVersion is assigned to new bottles
const DefaultWinVersion = Win10

// AllWinVersions lists the selectable versions, oldest first
var AllWinVersions = []WinVersion{WinXP, Win7, Win8, Win81, Win10, Win11}

// Valid reports whether v is one of AllWinVersions
func (v WinVersion) Valid() bool {
	for _, known := range AllWinVersions {
		if v == known {
			return true
		}
	}
	return false
}

// Pretty returns the name shown in the version picker
func (v WinVersion) Pretty() string {
	switch v {
	case WinXP:
		return "Windows XP"
	case Win7:
		return "Windows 7"
	case Win8:
		return "Windows 8"
	case Win81:
		return "Windows 8.1"
	case Win10:
		return "Windows 10"
	case Win11:
		return "Windows 11"
	default:
		return string(v)
	}
}

// WinecfgArg returns the value winecfg -v expects.
// 64-bit prefixes need winxp64 rather than winxp.
func (v WinVersion) WinecfgArg() string {
	if v == WinXP {
		return "winxp64"
	}
	return string(v)
}

// ParseWinVersion accepts a version identifier in any case
func ParseWinVersion(s string) (WinVersion, error) {
	v := WinVersion(strings.ToLower(strings.TrimSpace(s)))
	if !v.Valid() {
		return "", fmt.Errorf("unknown windows version %q", s)
	}
	return v, nil
}
