package services

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	apperrors "cellar/internal/infrastructure/errors"
	"cellar/internal/infrastructure/logging"
	"cellar/internal/infrastructure/notify"
	"cellar/internal/types"
	"cellar/internal/wine"
)

// FileURLType is the only drop type the installer accepts
const FileURLType = "public.file-url"

// DropItem is one item of a drag-and-drop payload
type DropItem struct {
	TypeIdentifier string
	Data           []byte
}

// InstallResult is delivered once when an install attempt finishes
type InstallResult struct {
	Path  string
	State types.InstallState
	Err   error
}

// InstallEvent is published on every installer state change
type InstallEvent struct {
	State types.InstallState `json:"state"`
	Path  string             `json:"path,omitempty"`
	Error string             `json:"error,omitempty"`
}

// Installer runs the toolkit install triggered by dropping a .dmg
type Installer struct {
	installer wine.PackageInstaller
	notifier  notify.Notifier
	logger    logging.Logger

	mu      sync.Mutex
	state   types.InstallState
	path    string
	lastErr error
	events  *broadcaster[InstallEvent]
	jobs    sync.WaitGroup
}

// NewInstaller creates an idle installer. notifier may be nil.
func NewInstaller(installer wine.PackageInstaller, notifier notify.Notifier, logger logging.Logger) *Installer {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &Installer{
		installer: installer,
		notifier:  notifier,
		logger:    logger,
		state:     types.InstallIdle,
		events:    newBroadcaster[InstallEvent](),
	}
}

// HandleDrop inspects the first dropped item. handled reports whether the
// gesture was consumed; result is nil unless an install was started.
func (i *Installer) HandleDrop(ctx context.Context, items []DropItem) (handled bool, result <-chan InstallResult) {
	if len(items) == 0 {
		return false, nil
	}
	item := items[0]
	if item.TypeIdentifier != FileURLType {
		i.logger.Debug("Ignoring drop of unsupported type", "type", item.TypeIdentifier)
		return false, nil
	}

	path, err := decodeFileURL(item.Data)
	if err != nil {
		logging.LogError(i.logger, err, "HandleDrop", nil)
		return true, nil
	}
	if !strings.EqualFold(filepath.Ext(path), ".dmg") {
		err := apperrors.HandleValidationError("HandleDrop", "path", path, "not a dmg")
		logging.LogError(i.logger, err, "HandleDrop", nil)
		return true, nil
	}

	return true, i.start(ctx, path)
}

// HandleFilePaths adapts native file drops into a single file-url item
func (i *Installer) HandleFilePaths(ctx context.Context, paths []string) (bool, <-chan InstallResult) {
	if len(paths) == 0 {
		return false, nil
	}
	u := url.URL{Scheme: "file", Path: paths[0]}
	return i.HandleDrop(ctx, []DropItem{{TypeIdentifier: FileURLType, Data: []byte(u.String())}})
}

// State returns the current install state
func (i *Installer) State() types.InstallState {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// LastError returns the error of the last failed install, if any
func (i *Installer) LastError() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.lastErr
}

// Reset moves a finished installer back to idle
func (i *Installer) Reset() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state == types.InstallInstalling {
		return apperrors.HandleBusyError("ResetInstaller", "installer", i.path)
	}
	if i.state == types.InstallIdle {
		return nil
	}
	i.state = types.InstallIdle
	i.path = ""
	i.lastErr = nil
	i.publishLocked()
	return nil
}

// Subscribe returns a channel of install state changes and a func that ends the subscription
func (i *Installer) Subscribe() (<-chan InstallEvent, func()) {
	return i.events.subscribe()
}

// Wait blocks until a running install finishes or ctx is done
func (i *Installer) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		i.jobs.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (i *Installer) start(ctx context.Context, path string) <-chan InstallResult {
	i.mu.Lock()
	if i.state == types.InstallInstalling {
		running := i.path
		i.mu.Unlock()
		i.logger.Info("Install already running, ignoring drop", "path", path, "running", running)
		return nil
	}
	i.state = types.InstallInstalling
	i.path = path
	i.lastErr = nil
	i.publishLocked()
	i.jobs.Add(1)
	i.mu.Unlock()

	i.logger.Info("Installing toolkit", "path", path)

	results := make(chan InstallResult, 1)
	jobCtx := context.WithoutCancel(ctx)
	go func() {
		defer i.jobs.Done()
		defer close(results)

		start := time.Now()
		err := i.installer.InstallPackage(jobCtx, path)
		results <- i.finish(path, err)

		if err != nil {
			logging.LogError(i.logger, err, "InstallPackage", map[string]interface{}{"path": path})
			if nerr := i.notifier.Notify("Toolkit install failed", fmt.Sprintf("%s could not be installed.", filepath.Base(path))); nerr != nil {
				i.logger.Debug("Notification not shown", "error", nerr)
			}
			return
		}
		logging.LogOperation(i.logger, "InstallPackage", time.Since(start), map[string]interface{}{"path": path})
	}()
	return results
}

func (i *Installer) finish(path string, err error) InstallResult {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.state = types.InstallSucceeded
	i.lastErr = err
	if err != nil {
		i.state = types.InstallFailed
	}
	i.publishLocked()
	return InstallResult{Path: path, State: i.state, Err: err}
}

func (i *Installer) publishLocked() {
	ev := InstallEvent{State: i.state, Path: i.path}
	if i.lastErr != nil {
		ev.Error = i.lastErr.Error()
	}
	if dropped := i.events.publish(ev); dropped > 0 {
		i.logger.Debug("Dropped install events for slow subscribers", "state", string(i.state), "dropped", dropped)
	}
}

// decodeFileURL turns dropped file-url data into a local path.
// A bare absolute path is accepted as well.
func decodeFileURL(data []byte) (string, error) {
	raw := strings.TrimSpace(strings.TrimRight(string(data), "\x00"))
	if raw == "" {
		return "", apperrors.HandleValidationError("HandleDrop", "data", "", "empty file reference")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", apperrors.HandleValidationError("HandleDrop", "data", raw, err.Error())
	}
	switch u.Scheme {
	case "file":
		if u.Path == "" {
			return "", apperrors.HandleValidationError("HandleDrop", "data", raw, "file url has no path")
		}
		return u.Path, nil
	case "":
		return raw, nil
	default:
		return "", apperrors.HandleValidationError("HandleDrop", "data", raw, "not a file url")
	}
}
