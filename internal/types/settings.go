package types

import "fmt"

// FeatureFlag names one boolean bottle setting
type FeatureFlag string

const (
	FeatureDXVK       FeatureFlag = "dxvk"
	FeatureDXVKHud    FeatureFlag = "dxvk_hud"
	FeatureMetalHud   FeatureFlag = "metal_hud"
	FeatureMetalTrace FeatureFlag = "metal_trace"
	FeatureESync      FeatureFlag = "esync"
)

// AllFeatureFlags lists every flag in display order
var AllFeatureFlags = []FeatureFlag{FeatureDXVK, FeatureDXVKHud, FeatureMetalHud, FeatureMetalTrace, FeatureESync}

// Valid reports whether f is a known flag
func (f FeatureFlag) Valid() bool {
	for _, known := range AllFeatureFlags {
		if f == known {
			return true
		}
	}
	return false
}

// Settings is the per-bottle configuration
type Settings struct {
	WindowsVersion WinVersion `json:"windowsVersion"`
	DXVK           bool       `json:"dxvk"`
	DXVKHud        bool       `json:"dxvkHud"`
	MetalHud       bool       `json:"metalHud"`
	MetalTrace     bool       `json:"metalTrace"`
	ESync          bool       `json:"esync"`
}

// DefaultSettings returns the settings given to a new bottle
func DefaultSettings() Settings {
	return Settings{WindowsVersion: DefaultWinVersion}
}

// Flag returns the value of f
func (s Settings) Flag(f FeatureFlag) (bool, error) {
	switch f {
	case FeatureDXVK:
		return s.DXVK, nil
	case FeatureDXVKHud:
		return s.DXVKHud, nil
	case FeatureMetalHud:
		return s.MetalHud, nil
	case FeatureMetalTrace:
		return s.MetalTrace, nil
	case FeatureESync:
		return s.ESync, nil
	default:
		return false, fmt.Errorf("unknown feature flag %q", f)
	}
}

// WithFlag returns a copy of s with f set to enabled
func (s Settings) WithFlag(f FeatureFlag, enabled bool) (Settings, error) {
	switch f {
	case FeatureDXVK:
		s.DXVK = enabled
	case FeatureDXVKHud:
		s.DXVKHud = enabled
	case FeatureMetalHud:
		s.MetalHud = enabled
	case FeatureMetalTrace:
		s.MetalTrace = enabled
	case FeatureESync:
		s.ESync = enabled
	default:
		return s, fmt.Errorf("unknown feature flag %q", f)
	}
	return s, nil
}

// OverlayEditable reports whether the DXVK HUD toggle may be changed.
// The stored DXVKHud value is kept even while DXVK is off.
func (s Settings) OverlayEditable() bool {
	return s.DXVK
}
