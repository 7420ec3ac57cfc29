package app

import (
	"context"
	"sync"
	"time"

	"sidedock/internal/cache"
	"sidedock/internal/config"
	"sidedock/internal/database"
	"sidedock/internal/discovery"
	"sidedock/internal/infrastructure/errors"
	"sidedock/internal/infrastructure/logging"
	"sidedock/internal/overlay"
	"sidedock/internal/platform"
	"sidedock/internal/repository"
	"sidedock/internal/router"
	"sidedock/internal/services"
	"sidedock/internal/settings"
	"sidedock/internal/types"
)

// WindowTitle is the native window title; the Windows layer finds its handle by it
const WindowTitle = "sidedock"

// EventAppsLoaded carries every AppIndex snapshot to the frontend
const EventAppsLoaded = "apps-loaded"

const shutdownTimeout = 5 * time.Second

// Deps are the collaborators App is built from. Zero fields get platform defaults.
type Deps struct {
	Config *config.Config
	Logger logging.Logger
	Shell  platform.Shell
	Window platform.Window
	// Runtime defaults to the Wails runtime bound in Startup
	Runtime Runtime
}

// App is the single object bound to the frontend. It owns the pushed app
// snapshot, the discovery builder, the overlay controller, settings and pins.
type App struct {
	cfg    *config.Config
	logger logging.Logger
	shell  platform.Shell
	window platform.Window
	rt     Runtime

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	cache      *cache.Store
	settings   *settings.Store
	builder    *discovery.Builder
	controller *overlay.Controller
	dbService  database.Service
	pins       *services.PinService

	mu       sync.RWMutex
	snapshot types.AppIndex
}

// NewApp creates the application for cfg on the current platform
func NewApp(cfg *config.Config, logger logging.Logger) *App {
	return New(Deps{Config: cfg, Logger: logger})
}

// New creates an App from deps
func New(deps Deps) *App {
	if deps.Config == nil {
		deps.Config = config.Default()
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewDefaultLogger()
	}
	if deps.Shell == nil {
		deps.Shell = platform.NewShell()
	}
	if deps.Window == nil {
		deps.Window = platform.NewWindow(WindowTitle)
	}

	bounds := settings.DefaultBounds()
	bounds.MinWidth = deps.Config.MinPanelWidth
	bounds.MaxWidth = deps.Config.MaxPanelWidth
	defaults := settings.Defaults()
	defaults.Behavior.Hotkey = deps.Config.Hotkey

	return &App{
		cfg:      deps.Config,
		logger:   deps.Logger,
		shell:    deps.Shell,
		window:   deps.Window,
		rt:       deps.Runtime,
		cache:    cache.NewStore(deps.Config.DataDir, deps.Logger),
		settings: settings.NewStoreWithDefaults(settingsPath(deps.Config), defaults, bounds, deps.Logger),
		snapshot: types.AppIndex{},
	}
}

// Startup is called at application startup
func (a *App) Startup(ctx context.Context) {
	if a.rt == nil {
		a.rt = newWailsRuntime(ctx)
	}
	a.start(ctx)
}

func (a *App) start(ctx context.Context) {
	a.ctx, a.cancel = context.WithCancel(ctx)

	current, err := a.settings.Load()
	if err != nil {
		logging.LogError(a.logger, err, "Startup.LoadSettings", nil)
	}

	a.pins = services.NewPinService(a.openPins(a.ctx), a.logger)
	if err := a.pins.Load(a.ctx); err != nil {
		a.logger.Warn("Pins unavailable, starting with none", "error", err)
	}

	a.startOverlay(current)

	// the cached snapshot goes out before any scan starts
	a.publish(a.cache.Load())

	roots := a.shortcutRoots()
	a.builder = discovery.NewBuilder(discovery.BuilderConfig{
		Roots:     roots,
		MaxDepth:  a.cfg.MaxDepth,
		EmitEvery: a.cfg.EmitEvery,
	}, discovery.NewScanner(a.cfg.JunkKeywords, a.logger), discovery.NewIconResolver(a.shell, a.logger), a.cache, a.logger)

	if len(roots) == 0 {
		a.logger.Warn("No shortcut roots available, keeping cached apps")
	} else {
		a.refreshAsync()
	}

	a.logger.Info("Application started", "environment", a.cfg.Environment, "data_dir", a.cfg.DataDir)
}

// openPins opens the pins database; on failure pins are kept in memory only
func (a *App) openPins(ctx context.Context) repository.PinRepository {
	dbConfig := database.ConfigForDataDir(a.cfg.DataDir, a.cfg.Environment)
	if err := dbConfig.LoadFromEnvironment(); err != nil {
		logging.LogError(a.logger, err, "Startup.DatabaseConfig", nil)
		return nil
	}

	svc, err := database.Open(ctx, dbConfig, a.logger)
	if err != nil {
		logging.LogError(a.logger, err, "Startup.OpenDatabase", map[string]interface{}{"path": dbConfig.Path})
		a.logger.Warn("Continuing without pin persistence")
		return nil
	}
	a.dbService = svc

	// every pin call blocks a binding, so retries stay short
	retry := errors.QuickRetryConfig()
	repo, err := repository.NewSQLiteRepositoryWithPreparedQueries(ctx, svc, retry, a.logger)
	if err != nil {
		a.logger.Warn("Prepared statements unavailable, using plain queries", "error", err)
		return repository.NewSQLiteRepositoryWithConfig(svc, retry, a.logger)
	}
	return repo
}

func (a *App) startOverlay(current settings.Settings) {
	r := router.New(router.Config{
		MinWidth:         a.cfg.MinPanelWidth,
		MaxWidth:         a.cfg.MaxPanelWidth,
		HysteresisBuffer: a.cfg.HysteresisBuffer,
	}, current.RouterLayout())

	a.controller = overlay.NewController(r, a.window, a.rt, overlay.Options{
		PollInterval: a.cfg.PollInterval,
		ScreenWidth:  a.rt.ScreenWidth,
	}, a.logger)

	a.rt.FitToScreen()
	a.rt.SetAlwaysOnTop(current.Behavior.AlwaysOnTop)
	a.controller.Start(a.ctx)

	if err := a.controller.SetHotkey(current.Behavior.Hotkey); err != nil {
		a.logHotkeyError(err, current.Behavior.Hotkey)
	}
}

func (a *App) logHotkeyError(err error, accel string) {
	if errors.IsUnsupported(err) {
		a.logger.Warn("Global hotkey not supported on this platform", "accelerator", accel)
		return
	}
	logging.LogError(a.logger, err, "RegisterHotkey", map[string]interface{}{"accelerator": accel})
}

// shortcutRoots returns the configured roots, or the platform's Start Menu folders
func (a *App) shortcutRoots() []string {
	if len(a.cfg.ShortcutRoots) > 0 {
		return a.cfg.ShortcutRoots
	}

	machine, user, err := a.shell.ShortcutRoots()
	if err != nil {
		if errors.IsUnsupported(err) {
			a.logger.Debug("Platform has no shortcut roots")
		} else {
			logging.LogError(a.logger, err, "ShortcutRoots", nil)
		}
		return nil
	}

	var roots []string
	for _, root := range []string{machine, user} {
		if root != "" {
			roots = append(roots, root)
		}
	}
	return roots
}

// refreshAsync runs a scan in the background; a scan already running is joined
func (a *App) refreshAsync() {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if _, err := a.builder.Refresh(a.ctx, a.publish); err != nil && a.ctx.Err() == nil {
			logging.LogError(a.logger, err, "RefreshApps", nil)
		}
	}()
}

// publish records index as the latest snapshot and pushes it to the frontend
func (a *App) publish(index types.AppIndex) {
	a.mu.Lock()
	a.snapshot = index
	a.mu.Unlock()
	a.rt.Emit(EventAppsLoaded, index)
}

// DomReady pushes the current snapshot to a frontend that has just loaded
func (a *App) DomReady(ctx context.Context) {
	a.mu.RLock()
	snapshot := a.snapshot
	a.mu.RUnlock()
	if len(snapshot) > 0 {
		a.rt.Emit(EventAppsLoaded, snapshot)
	}
}

// BeforeClose is called when the application is about to quit
func (a *App) BeforeClose(ctx context.Context) (prevent bool) {
	return false
}

// Shutdown stops background work, releases the hotkey and closes the database
func (a *App) Shutdown(ctx context.Context) {
	a.logger.Info("Starting application shutdown sequence")

	if a.cancel != nil {
		a.cancel()
	}
	if a.controller != nil {
		a.controller.Stop()
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		a.logger.Warn("Background scan did not stop in time")
	}

	if a.dbService != nil {
		if err := a.dbService.Close(); err != nil {
			logging.LogError(a.logger, err, "Shutdown.CloseDatabase", nil)
		}
	}

	a.logger.Info("Application shutdown completed")
}

// GetLogger returns the application's structured logger
func (a *App) GetLogger() logging.Logger {
	return a.logger
}
