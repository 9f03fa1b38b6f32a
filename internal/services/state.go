package services

import (
	"sort"
	"sync"

	apperrors "cellar/internal/infrastructure/errors"
	"cellar/internal/infrastructure/logging"
	"cellar/internal/types"
)

// ChangeKind describes what happened to a bottle view
type ChangeKind string

const (
	ChangeLoaded           ChangeKind = "loaded"
	ChangeRemoved          ChangeKind = "removed"
	ChangeVersionPending   ChangeKind = "version_pending"
	ChangeVersionCommitted ChangeKind = "version_committed"
	ChangeVersionReverted  ChangeKind = "version_reverted"
	ChangeFeatureUpdated   ChangeKind = "feature_updated"
	ChangeFeatureReverted  ChangeKind = "feature_reverted"
)

// BottleView is what the settings screen shows for one bottle.
// Bottle.Settings holds the stored values; DisplayedVersion may run ahead of
// Bottle.Settings.WindowsVersion only while ChangeInProgress is set.
type BottleView struct {
	Bottle           types.Bottle     `json:"bottle"`
	DisplayedVersion types.WinVersion `json:"displayedVersion"`
	ChangeInProgress bool             `json:"changeInProgress"`
	OverlayEditable  bool             `json:"overlayEditable"`
}

// ChangeEvent is published after every mutation of a bottle view
type ChangeEvent struct {
	Bottle string     `json:"bottle"`
	Kind   ChangeKind `json:"kind"`
	View   BottleView `json:"view"`
}

// SettingsState owns the in-memory settings of every loaded bottle.
// All reads and writes go through its mutex; background jobs only call the
// commit and revert methods.
type SettingsState struct {
	mu     sync.Mutex
	views  map[string]*BottleView
	events *broadcaster[ChangeEvent]
	logger logging.Logger
}

// NewSettingsState creates an empty state container
func NewSettingsState(logger logging.Logger) *SettingsState {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &SettingsState{
		views:  make(map[string]*BottleView),
		events: newBroadcaster[ChangeEvent](),
		logger: logger,
	}
}

// Load adds or replaces a bottle. A change already in flight keeps its gate
// and displayed version.
func (s *SettingsState) Load(bottle types.Bottle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := &BottleView{Bottle: bottle, DisplayedVersion: bottle.Settings.WindowsVersion}
	if existing, ok := s.views[bottle.Name]; ok && existing.ChangeInProgress {
		view.ChangeInProgress = true
		view.DisplayedVersion = existing.DisplayedVersion
	}
	s.views[bottle.Name] = view
	s.publishLocked(ChangeLoaded, view)
}

// Remove drops a bottle from the state
func (s *SettingsState) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	view, ok := s.views[name]
	if !ok {
		return
	}
	delete(s.views, name)
	s.publishLocked(ChangeRemoved, view)
}

// View returns a copy of the named bottle's view
func (s *SettingsState) View(name string) (BottleView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	view, ok := s.views[name]
	if !ok {
		return BottleView{}, false
	}
	return snapshot(view), true
}

// Views returns copies of all views ordered by bottle name
func (s *SettingsState) Views() []BottleView {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]BottleView, 0, len(s.views))
	for _, view := range s.views {
		out = append(out, snapshot(view))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bottle.Name < out[j].Bottle.Name })
	return out
}

// Subscribe returns a channel of change events and a func that ends the subscription.
// Events are dropped for subscribers that fall behind.
func (s *SettingsState) Subscribe() (<-chan ChangeEvent, func()) {
	return s.events.subscribe()
}

// beginVersionChange sets the gate and the displayed version.
// noop is true when version already matches the stored one.
func (s *SettingsState) beginVersionChange(name string, version types.WinVersion) (bottle types.Bottle, noop bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	view, ok := s.views[name]
	if !ok {
		return types.Bottle{}, false, apperrors.HandleNotFound("RequestVersionChange", "bottle", name)
	}
	if view.ChangeInProgress {
		return types.Bottle{}, false, apperrors.HandleBusyError("RequestVersionChange", "bottle", name)
	}
	if view.Bottle.Settings.WindowsVersion == version {
		return view.Bottle, true, nil
	}

	view.ChangeInProgress = true
	view.DisplayedVersion = version
	s.publishLocked(ChangeVersionPending, view)
	return view.Bottle, false, nil
}

// commitVersion stores version and clears the gate
func (s *SettingsState) commitVersion(name string, version types.WinVersion) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	view, ok := s.views[name]
	if !ok {
		return false
	}
	view.Bottle.Settings.WindowsVersion = version
	view.DisplayedVersion = version
	view.ChangeInProgress = false
	s.publishLocked(ChangeVersionCommitted, view)
	return true
}

// revertVersion restores the displayed version from the stored one and clears the gate
func (s *SettingsState) revertVersion(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	view, ok := s.views[name]
	if !ok {
		return
	}
	view.DisplayedVersion = view.Bottle.Settings.WindowsVersion
	view.ChangeInProgress = false
	s.publishLocked(ChangeVersionReverted, view)
}

// applyFeature stores the flag immediately and returns the previous value
// and the updated bottle
func (s *SettingsState) applyFeature(name string, flag types.FeatureFlag, enabled bool) (previous bool, bottle types.Bottle, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	view, ok := s.views[name]
	if !ok {
		return false, types.Bottle{}, apperrors.HandleNotFound("RequestFeatureToggle", "bottle", name)
	}
	if flag == types.FeatureDXVKHud && !view.Bottle.Settings.OverlayEditable() {
		return false, types.Bottle{}, apperrors.HandleValidationError("RequestFeatureToggle", "flag", string(flag), "dxvk is disabled")
	}

	previous, err = view.Bottle.Settings.Flag(flag)
	if err != nil {
		return false, types.Bottle{}, apperrors.HandleValidationError("RequestFeatureToggle", "flag", string(flag), err.Error())
	}
	updated, err := view.Bottle.Settings.WithFlag(flag, enabled)
	if err != nil {
		return false, types.Bottle{}, apperrors.HandleValidationError("RequestFeatureToggle", "flag", string(flag), err.Error())
	}

	view.Bottle.Settings = updated
	s.publishLocked(ChangeFeatureUpdated, view)
	return previous, view.Bottle, nil
}

// revertFeature puts a flag back to value
func (s *SettingsState) revertFeature(name string, flag types.FeatureFlag, value bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	view, ok := s.views[name]
	if !ok {
		return
	}
	updated, err := view.Bottle.Settings.WithFlag(flag, value)
	if err != nil {
		return
	}
	view.Bottle.Settings = updated
	s.publishLocked(ChangeFeatureReverted, view)
}

// storedSettings returns the current stored settings for persistence
func (s *SettingsState) storedSettings(name string) (types.Settings, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	view, ok := s.views[name]
	if !ok {
		return types.Settings{}, false
	}
	return view.Bottle.Settings, true
}

// publishLocked must be called with s.mu held so events leave in mutation order
func (s *SettingsState) publishLocked(kind ChangeKind, view *BottleView) {
	ev := ChangeEvent{Bottle: view.Bottle.Name, Kind: kind, View: snapshot(view)}
	if dropped := s.events.publish(ev); dropped > 0 {
		s.logger.Debug("Dropped settings events for slow subscribers", "bottle", ev.Bottle, "kind", string(kind), "dropped", dropped)
	}
}

func snapshot(view *BottleView) BottleView {
	out := *view
	out.OverlayEditable = view.Bottle.Settings.OverlayEditable()
	return out
}
