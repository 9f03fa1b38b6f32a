package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"cellar/internal/config"
	"cellar/internal/database"
	"cellar/internal/infrastructure/errors"
	"cellar/internal/infrastructure/logging"
	"cellar/internal/infrastructure/notify"
	"cellar/internal/platform"
	"cellar/internal/repository"
	"cellar/internal/services"
	"cellar/internal/types"
	"cellar/internal/wine"

	"golang.org/x/sync/errgroup"
)

const (
	// shutdownTimeout bounds how long shutdown waits for running wine jobs and the store
	shutdownTimeout = 30 * time.Second
	// storeHealthTimeout bounds the startup ping of the bottle store
	storeHealthTimeout = 5 * time.Second

	appName = "Cellar"
)

// Dependencies are the collaborators App is assembled from
type Dependencies struct {
	Config     *config.Config
	Logger     logging.Logger
	DB         database.Service
	Repository repository.BottleRepository
	Toolchain  platform.Toolchain
	Invoker    wine.Invoker
	Packages   wine.PackageInstaller
	Notifier   notify.Notifier
	Runtime    Runtime
}

// App struct represents the main application
type App struct {
	ctx       context.Context
	cfg       *config.Config
	logger    logging.Logger
	dbService database.Service
	repo      repository.BottleRepository
	toolchain platform.Toolchain
	runtime   Runtime

	state     *services.SettingsState
	mutator   *services.SettingsMutator
	installer *services.Installer

	unsubscribe []func()
	forwarders  sync.WaitGroup
}

// NewApp wires the production stack from cfg: the SQLite store, the wine CLI
// and the GPTK installer
func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewLogger(cfg.LogLevel)
	errors.SetRetryLogger(errors.NewLoggerBridge(logger))

	dbService := database.NewSQLiteService(logger)
	if err := dbService.Connect(context.Background(), &cfg.Database); err != nil {
		return nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := dbService.Migrate(context.Background()); err != nil {
			dbService.Close()
			return nil, err
		}
	}

	repo := repository.NewSQLiteRepository(dbService, logger)

	toolchain := platform.NewToolchain(cfg.Wine.LibraryDir)
	runner := wine.NewExecRunner(cfg.Wine.MaxConcurrentCommands, logger)

	return New(Dependencies{
		Config:     cfg,
		Logger:     logger,
		DB:         dbService,
		Repository: repo,
		Toolchain:  toolchain,
		Invoker:    wine.NewCLI(toolchain, runner, logger),
		Packages:   wine.NewGPTKInstaller(toolchain, runner, logger),
		Notifier:   notify.New(cfg.Notifications.Enabled, appName, logger),
		Runtime:    WailsRuntime{},
	}), nil
}

// New assembles an App from already constructed dependencies
func New(deps Dependencies) *App {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	state := services.NewSettingsState(logger)
	mutator := services.NewSettingsMutator(state, deps.Invoker, deps.Repository, deps.Notifier, logger,
		services.MutatorOptions{RevertFailedToggles: deps.Config.Mutator.RevertFailedToggles})

	return &App{
		ctx:       context.Background(),
		cfg:       deps.Config,
		logger:    logger,
		dbService: deps.DB,
		repo:      deps.Repository,
		toolchain: deps.Toolchain,
		runtime:   deps.Runtime,
		state:     state,
		mutator:   mutator,
		installer: services.NewInstaller(deps.Packages, deps.Notifier, logger),
	}
}

// Startup is called at application startup
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx

	if a.toolchain != nil {
		if err := a.toolchain.Verify(); err != nil {
			// Bottles stay editable; wine commands fail until the toolkit is installed
			logging.LogError(a.logger, err, "VerifyToolchain", nil)
		}
	}

	if err := a.checkStore(ctx); err != nil {
		logging.LogError(a.logger, err, "CheckStore", nil)
	}

	if err := a.loadBottles(ctx); err != nil {
		logging.LogError(a.logger, err, "LoadBottles", nil)
	}

	if a.runtime != nil {
		a.forwardEvents(ctx)
		a.runtime.OnFileDrop(ctx, func(x, y int, paths []string) {
			a.installer.HandleFilePaths(a.ctx, paths)
		})
	}

	a.logger.Info("Application started", "environment", a.cfg.Environment, "bottles", len(a.state.Views()))
}

// checkStore pings the bottle store before the bottles are loaded
func (a *App) checkStore(ctx context.Context) error {
	if a.dbService == nil {
		return errors.HandleConnectionError("CheckStore", "database service not initialized")
	}

	healthCtx, cancel := context.WithTimeout(ctx, storeHealthTimeout)
	defer cancel()

	return a.dbService.Health(healthCtx)
}

// loadBottles fills the settings state from the store
func (a *App) loadBottles(ctx context.Context) error {
	bottles, err := a.repo.ListBottles(ctx)
	if err != nil {
		return err
	}
	for _, b := range bottles {
		a.state.Load(b)
	}
	return nil
}

// forwardEvents pushes settings and installer changes to the frontend
func (a *App) forwardEvents(ctx context.Context) {
	bottleEvents, cancelBottles := a.state.Subscribe()
	installEvents, cancelInstall := a.installer.Subscribe()
	a.unsubscribe = append(a.unsubscribe, cancelBottles, cancelInstall)

	a.forwarders.Add(2)
	go func() {
		defer a.forwarders.Done()
		for ev := range bottleEvents {
			a.runtime.EventsEmit(ctx, EventBottleChanged, ev)
		}
	}()
	go func() {
		defer a.forwarders.Done()
		for ev := range installEvents {
			a.runtime.EventsEmit(ctx, EventInstallStateChanged, ev)
		}
	}()
}

// DomReady is called after front-end resources have been loaded
func (a *App) DomReady(ctx context.Context) {}

// BeforeClose is called when the application is about to quit
func (a *App) BeforeClose(ctx context.Context) (prevent bool) {
	return false
}

// Shutdown waits for running wine jobs and the installer, then closes the store
func (a *App) Shutdown(ctx context.Context) {
	a.logger.Info("Starting application shutdown sequence")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(shutdownCtx)
	g.Go(func() error { return a.mutator.Wait(gctx) })
	g.Go(func() error { return a.installer.Wait(gctx) })
	if err := g.Wait(); err != nil {
		a.logger.Warn("Background jobs still running at shutdown", "error", err)
	}

	for _, unsub := range a.unsubscribe {
		unsub()
	}
	a.forwarders.Wait()

	if err := a.closeDatabaseConnection(shutdownCtx); err != nil {
		logging.LogError(a.logger, err, "Shutdown", nil)
	}

	a.logger.Info("Application shutdown completed")
}

// closeDatabaseConnection optimizes and closes the store, giving up when ctx is done
func (a *App) closeDatabaseConnection(ctx context.Context) error {
	if a.dbService == nil {
		return nil
	}

	stats := a.dbService.GetStats()
	a.logger.Debug("Database pool at shutdown",
		"open_connections", stats.OpenConnections,
		"in_use", stats.InUse,
		"wait_count", stats.WaitCount,
		"wait_duration_ms", stats.WaitDuration.Milliseconds())

	if err := a.dbService.Optimize(ctx); err != nil {
		a.logger.Warn("Database optimize failed", "error", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- a.dbService.Close()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return errors.New("Shutdown", ctx.Err(), errors.ErrCodeTimeout)
	}
}

// ListBottles returns every bottle as shown on the settings screen
func (a *App) ListBottles() []services.BottleView {
	return a.state.Views()
}

// GetBottle returns one bottle's view
func (a *App) GetBottle(name string) (services.BottleView, error) {
	view, ok := a.state.View(name)
	if !ok {
		return services.BottleView{}, errors.HandleNotFound("GetBottle", "bottle", name)
	}
	return view, nil
}

// CreateBottle stores a new bottle and creates its prefix directory under the bottles dir.
// An empty version selects the default.
func (a *App) CreateBottle(name string, version string) (services.BottleView, error) {
	settings := types.DefaultSettings()
	if version != "" {
		v, err := types.ParseWinVersion(version)
		if err != nil {
			return services.BottleView{}, errors.HandleValidationError("CreateBottle", "version", version, err.Error())
		}
		settings.WindowsVersion = v
	}

	name = strings.TrimSpace(name)
	bottle := &types.Bottle{
		Name:     name,
		Path:     filepath.Join(a.cfg.BottlesDir, name),
		Settings: settings,
	}

	// The record only commits once the prefix directory exists
	err := a.repo.WithTransaction(a.ctx, func(tx repository.BottleRepository) error {
		if err := tx.CreateBottle(a.ctx, bottle); err != nil {
			return err
		}
		if err := os.MkdirAll(bottle.Path, 0755); err != nil {
			return errors.NewWithContext("CreateBottle", err, errors.ErrCodePermission,
				map[string]string{"path": bottle.Path})
		}
		return nil
	})
	if err != nil {
		return services.BottleView{}, err
	}

	a.state.Load(*bottle)
	a.logger.Info("Bottle created", "bottle", name, "path", bottle.Path)

	view, _ := a.state.View(name)
	return view, nil
}

// DeleteBottle removes the bottle record. removeFiles also deletes the prefix
// directory when it lives under the bottles dir.
func (a *App) DeleteBottle(name string, removeFiles bool) error {
	view, ok := a.state.View(name)
	if !ok {
		return errors.HandleNotFound("DeleteBottle", "bottle", name)
	}
	if view.ChangeInProgress {
		return errors.HandleBusyError("DeleteBottle", "bottle", name)
	}

	if err := a.repo.DeleteBottle(a.ctx, name); err != nil {
		return err
	}
	a.state.Remove(name)

	if removeFiles {
		if !isWithin(a.cfg.BottlesDir, view.Bottle.Path) {
			a.logger.Warn("Not removing prefix outside the bottles directory", "bottle", name, "path", view.Bottle.Path)
			return nil
		}
		if err := os.RemoveAll(view.Bottle.Path); err != nil {
			return errors.NewWithContext("DeleteBottle", err, errors.ErrCodePermission,
				map[string]string{"path": view.Bottle.Path})
		}
	}
	return nil
}

// ChangeWindowsVersion starts a version change. The outcome arrives as a bottle-changed event.
func (a *App) ChangeWindowsVersion(name string, version string) error {
	v, err := types.ParseWinVersion(version)
	if err != nil {
		return errors.HandleValidationError("ChangeWindowsVersion", "version", version, err.Error())
	}
	_, err = a.mutator.RequestVersionChange(a.ctx, name, v)
	return err
}

// SetFeature stores a feature flag and applies it in the background
func (a *App) SetFeature(name string, flag string, enabled bool) error {
	_, err := a.mutator.RequestFeatureToggle(a.ctx, name, types.FeatureFlag(flag), enabled)
	return err
}

// OpenWinecfg launches winecfg for the bottle
func (a *App) OpenWinecfg(name string) error {
	_, err := a.mutator.OpenConfigTool(a.ctx, name)
	return err
}

// InstallStatus is the installer state as shown by the install view
type InstallStatus struct {
	State types.InstallState `json:"state"`
	Error string             `json:"error,omitempty"`
}

// GetInstallState returns the installer state and the last failure
func (a *App) GetInstallState() InstallStatus {
	status := InstallStatus{State: a.installer.State()}
	if err := a.installer.LastError(); err != nil {
		status.Error = err.Error()
	}
	return status
}

// ResetInstaller returns a finished installer to idle
func (a *App) ResetInstaller() error {
	return a.installer.Reset()
}

// VersionOption is one entry of the Windows version picker
type VersionOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// WindowsVersions lists the selectable Windows versions, oldest first
func (a *App) WindowsVersions() []VersionOption {
	out := make([]VersionOption, 0, len(types.AllWinVersions))
	for _, v := range types.AllWinVersions {
		out = append(out, VersionOption{Value: string(v), Label: v.Pretty()})
	}
	return out
}

// ToolchainStatus reports why wine commands cannot run, or "" when they can
func (a *App) ToolchainStatus() string {
	if a.toolchain == nil {
		return "no toolchain configured"
	}
	if err := a.toolchain.Verify(); err != nil {
		return err.Error()
	}
	return ""
}

// GetLogger returns the application's structured logger
func (a *App) GetLogger() logging.Logger {
	return a.logger
}

func isWithin(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
