package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	apperrors "cellar/internal/infrastructure/errors"
	"cellar/internal/infrastructure/logging"
	"cellar/internal/infrastructure/notify"
	"cellar/internal/repository"
	"cellar/internal/types"
	"cellar/internal/wine"

	"github.com/google/uuid"
)

// TokenKind is the kind of change a token tracks
type TokenKind string

const (
	TokenVersion    TokenKind = "version"
	TokenFeature    TokenKind = "feature"
	TokenConfigTool TokenKind = "config_tool"
)

// ChangeToken identifies one in-flight external invocation. It is never persisted.
type ChangeToken struct {
	ID       uuid.UUID `json:"id"`
	Bottle   string    `json:"bottle"`
	Kind     TokenKind `json:"kind"`
	Value    string    `json:"value"`
	IssuedAt time.Time `json:"issuedAt"`
}

func newToken(bottle string, kind TokenKind, value string) ChangeToken {
	return ChangeToken{
		ID:       uuid.New(),
		Bottle:   bottle,
		Kind:     kind,
		Value:    value,
		IssuedAt: time.Now(),
	}
}

// Result is delivered once per request when its job finishes
type Result struct {
	Token ChangeToken
	Err   error
}

// MutatorOptions tunes failure handling
type MutatorOptions struct {
	// RevertFailedToggles restores a toggle's stored value when the external call fails
	RevertFailedToggles bool
	// RetryConfig is used when persisting settings; nil means the default
	RetryConfig *apperrors.RetryConfig
}

// SettingsMutator applies user changes to bottles through the compatibility layer
// and commits or rolls back SettingsState by the outcome
type SettingsMutator struct {
	state    *SettingsState
	invoker  wine.Invoker
	repo     repository.BottleRepository
	notifier notify.Notifier
	logger   logging.Logger
	opts     MutatorOptions

	// persistMu serialises writes so the last write always carries the newest settings
	persistMu sync.Mutex
	jobs      sync.WaitGroup
}

// NewSettingsMutator creates a mutator. repo and notifier may be nil.
func NewSettingsMutator(state *SettingsState, invoker wine.Invoker, repo repository.BottleRepository,
	notifier notify.Notifier, logger logging.Logger, opts MutatorOptions) *SettingsMutator {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	if opts.RetryConfig == nil {
		opts.RetryConfig = apperrors.DefaultRetryConfig()
	}
	return &SettingsMutator{
		state:    state,
		invoker:  invoker,
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		opts:     opts,
	}
}

// RequestVersionChange switches the bottle's Windows version.
// The returned channel yields exactly one Result and is then closed.
func (m *SettingsMutator) RequestVersionChange(ctx context.Context, bottle string, version types.WinVersion) (<-chan Result, error) {
	if !version.Valid() {
		err := apperrors.HandleValidationError("RequestVersionChange", "version", string(version), "unknown windows version")
		logging.LogError(m.logger, err, "RequestVersionChange", map[string]interface{}{"bottle": bottle})
		return nil, err
	}

	snapshot, noop, err := m.state.beginVersionChange(bottle, version)
	if err != nil {
		m.logger.Info("Version change rejected", "bottle", bottle, "version", string(version), "error", err)
		return nil, err
	}

	token := newToken(bottle, TokenVersion, string(version))
	results := make(chan Result, 1)

	if noop {
		results <- Result{Token: token}
		close(results)
		return results, nil
	}

	m.logger.Info("Changing windows version", "bottle", bottle, "version", string(version), "token", token.ID.String())
	m.dispatch(ctx, results, func(jobCtx context.Context) Result {
		start := time.Now()

		if err := m.invoker.SetPlatformVersion(jobCtx, snapshot, version); err != nil {
			m.state.revertVersion(bottle)
			logging.LogError(m.logger, err, "RequestVersionChange", map[string]interface{}{
				"bottle":  bottle,
				"version": string(version),
				"token":   token.ID.String(),
			})
			m.notify("Windows version not changed",
				fmt.Sprintf("%s could not switch to %s.", bottle, version.Pretty()))
			return Result{Token: token, Err: err}
		}

		if !m.state.commitVersion(bottle, version) {
			return Result{Token: token, Err: apperrors.HandleNotFound("RequestVersionChange", "bottle", bottle)}
		}
		persistErr := m.persist(jobCtx, bottle)

		logging.LogOperation(m.logger, "RequestVersionChange", time.Since(start), map[string]interface{}{
			"bottle":  bottle,
			"version": string(version),
		})
		return Result{Token: token, Err: persistErr}
	})
	return results, nil
}

// RequestFeatureToggle stores the flag immediately, then applies it through the
// compatibility layer exactly once
func (m *SettingsMutator) RequestFeatureToggle(ctx context.Context, bottle string, flag types.FeatureFlag, enabled bool) (<-chan Result, error) {
	if !flag.Valid() {
		err := apperrors.HandleValidationError("RequestFeatureToggle", "flag", string(flag), "unknown feature flag")
		logging.LogError(m.logger, err, "RequestFeatureToggle", map[string]interface{}{"bottle": bottle})
		return nil, err
	}

	previous, snapshot, err := m.state.applyFeature(bottle, flag, enabled)
	if err != nil {
		logging.LogError(m.logger, err, "RequestFeatureToggle", map[string]interface{}{
			"bottle": bottle,
			"flag":   string(flag),
		})
		return nil, err
	}

	token := newToken(bottle, TokenFeature, string(flag)+"="+strconv.FormatBool(enabled))
	results := make(chan Result, 1)

	m.dispatch(ctx, results, func(jobCtx context.Context) Result {
		if err := m.persist(jobCtx, bottle); err != nil {
			m.logger.Warn("Feature stored in memory only", "bottle", bottle, "flag", string(flag))
		}

		err := m.invoker.SetFeature(jobCtx, snapshot, flag, enabled)
		if err == nil {
			return Result{Token: token}
		}

		logging.LogError(m.logger, err, "RequestFeatureToggle", map[string]interface{}{
			"bottle":  bottle,
			"flag":    string(flag),
			"enabled": enabled,
			"token":   token.ID.String(),
		})
		if m.opts.RevertFailedToggles {
			m.state.revertFeature(bottle, flag, previous)
			m.persist(jobCtx, bottle)
		}
		m.notify("Setting not applied", fmt.Sprintf("%s could not apply %s.", bottle, flag))
		return Result{Token: token, Err: err}
	})
	return results, nil
}

// OpenConfigTool launches winecfg for the bottle; failure is only logged
func (m *SettingsMutator) OpenConfigTool(ctx context.Context, bottle string) (<-chan Result, error) {
	view, ok := m.state.View(bottle)
	if !ok {
		return nil, apperrors.HandleNotFound("OpenConfigTool", "bottle", bottle)
	}

	token := newToken(bottle, TokenConfigTool, "")
	results := make(chan Result, 1)

	m.dispatch(ctx, results, func(jobCtx context.Context) Result {
		err := m.invoker.OpenConfigTool(jobCtx, view.Bottle)
		if err != nil {
			logging.LogError(m.logger, err, "OpenConfigTool", map[string]interface{}{"bottle": bottle})
		}
		return Result{Token: token, Err: err}
	})
	return results, nil
}

// Wait blocks until every dispatched job has finished or ctx is done
func (m *SettingsMutator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.jobs.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// dispatch runs job in its own goroutine. Jobs are not cancelled with the request.
func (m *SettingsMutator) dispatch(ctx context.Context, results chan<- Result, job func(context.Context) Result) {
	jobCtx := context.WithoutCancel(ctx)
	m.jobs.Add(1)
	go func() {
		defer m.jobs.Done()
		defer close(results)
		results <- job(jobCtx)
	}()
}

// persist writes the bottle's current stored settings
func (m *SettingsMutator) persist(ctx context.Context, bottle string) error {
	if m.repo == nil {
		return nil
	}

	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	settings, ok := m.state.storedSettings(bottle)
	if !ok {
		return nil
	}

	err := apperrors.WithRetryContext(ctx, m.opts.RetryConfig, func() error {
		return m.repo.SaveSettings(ctx, bottle, settings)
	}, "SaveSettings")
	if err != nil {
		logging.LogError(m.logger, err, "PersistSettings", map[string]interface{}{"bottle": bottle})
	}
	return err
}

func (m *SettingsMutator) notify(title, message string) {
	if err := m.notifier.Notify(title, message); err != nil {
		m.logger.Debug("Notification not shown", "title", title, "error", err)
	}
}
