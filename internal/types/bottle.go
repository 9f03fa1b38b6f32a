package types

import "time"

// Bottle is one Wine prefix and its settings
type Bottle struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Settings  Settings  `json:"settings"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// InstallState is the state of the drop-triggered installer
type InstallState string

const (
	InstallIdle       InstallState = "idle"
	InstallInstalling InstallState = "installing"
	InstallSucceeded  InstallState = "succeeded"
	InstallFailed     InstallState = "failed"
)

// Terminal reports whether an install attempt has finished
func (s InstallState) Terminal() bool {
	return s == InstallSucceeded || s == InstallFailed
}
