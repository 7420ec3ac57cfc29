package app

import (
	"path/filepath"

	"sidedock/internal/config"
	"sidedock/internal/discovery"
	"sidedock/internal/infrastructure/errors"
	"sidedock/internal/infrastructure/logging"
	"sidedock/internal/router"
	"sidedock/internal/settings"
	"sidedock/internal/types"
)

func settingsPath(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, settings.FileName)
}

// GetApps returns the latest snapshot with pinned apps first
func (a *App) GetApps() types.AppIndex {
	return discovery.Arrange(a.latest(), a.pins.Pinned(), "")
}

// GetAppsForce returns the last pushed snapshot as it was pushed
func (a *App) GetAppsForce() types.AppIndex {
	return a.latest()
}

// SearchApps filters the latest snapshot by name, pinned apps first
func (a *App) SearchApps(query string) types.AppIndex {
	return discovery.Arrange(a.latest(), a.pins.Pinned(), query)
}

// RefreshApps starts a rescan unless one is already running
func (a *App) RefreshApps() {
	if a.builder == nil {
		return
	}
	a.refreshAsync()
}

func (a *App) latest() types.AppIndex {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshot.Clone()
}

// LaunchApp opens path. On success the panel collapses when auto-hide is on.
func (a *App) LaunchApp(path string) error {
	if err := a.shell.Launch(path); err != nil {
		logging.LogError(a.logger, err, "LaunchApp", map[string]interface{}{"path": path})
		return err
	}
	a.logger.Debug("Launched app", "path", path)
	a.controller.Launched()
	return nil
}

// OpenFileLocation shows path selected in the file manager
func (a *App) OpenFileLocation(path string) error {
	if err := a.shell.Reveal(path); err != nil {
		logging.LogError(a.logger, err, "OpenFileLocation", map[string]interface{}{"path": path})
		return err
	}
	return nil
}

// TogglePin pins or unpins path and returns the new state
func (a *App) TogglePin(path string) (bool, error) {
	return a.pins.Toggle(a.ctx, path)
}

// GetPinned returns the pinned paths in pin order
func (a *App) GetPinned() []string {
	pinned := a.pins.Pinned()
	if pinned == nil {
		return []string{}
	}
	return pinned
}

// ShowAppContextMenu shows the native menu for path, performs the chosen
// action and returns it
func (a *App) ShowAppContextMenu(path string) (types.ContextAction, error) {
	action, err := a.window.ShowContextMenu(a.pins.IsPinned(path))
	if err != nil {
		if !errors.IsUnsupported(err) {
			logging.LogError(a.logger, err, "ShowAppContextMenu", map[string]interface{}{"path": path})
		}
		return types.ActionNone, err
	}

	switch action {
	case types.ActionTogglePin:
		if _, err := a.TogglePin(path); err != nil {
			return action, err
		}
	case types.ActionOpenFolder:
		if err := a.OpenFileLocation(path); err != nil {
			return action, err
		}
	}
	return action, nil
}

// HandlePointerMove routes a pointer move reported by the frontend
func (a *App) HandlePointerMove(x, y, screenWidth int) router.Decision {
	return a.controller.HandlePointer(router.PointerEvent{X: x, Y: y, ScreenWidth: screenWidth})
}

// BeginResize starts dragging the panel edge
func (a *App) BeginResize() router.Decision {
	return a.controller.BeginResize()
}

// EndResize stops dragging and persists the resulting width
func (a *App) EndResize() router.Decision {
	d := a.controller.EndResize()
	width := a.controller.State().Layout.PanelWidth
	if _, err := a.settings.Apply(settings.SetWindowWidth{Width: width}); err != nil {
		logging.LogError(a.logger, err, "EndResize.SaveWidth", map[string]interface{}{"width": width})
	}
	return d
}

// SetSettingsOpen keeps the window capturing input while the settings modal is shown
func (a *App) SetSettingsOpen(open bool) router.Decision {
	return a.controller.SetModalOpen(open)
}

// ToggleLauncher flips the panel as the global hotkey does
func (a *App) ToggleLauncher() router.Decision {
	return a.controller.Toggle()
}

// GetLauncherState returns the current panel state
func (a *App) GetLauncherState() types.LauncherState {
	s := a.controller.State()
	return types.LauncherState{
		Expanded:    s.Expanded,
		PanelWidth:  s.Layout.PanelWidth,
		Anchor:      s.Layout.Anchor,
		PassThrough: s.PassThrough,
	}
}

// GetSettings returns the current settings
func (a *App) GetSettings() settings.Settings {
	return a.settings.Get()
}

// SetAutoHide turns hover-to-reveal on or off
func (a *App) SetAutoHide(enabled bool) (settings.Settings, error) {
	return a.applySettings(settings.SetAutoHide{Enabled: enabled})
}

// SetAlwaysOnTop keeps the window above others and returns the resulting flag
func (a *App) SetAlwaysOnTop(enabled bool) (bool, error) {
	s, err := a.applySettings(settings.SetAlwaysOnTop{Enabled: enabled})
	return s.Behavior.AlwaysOnTop, err
}

// SetHotkey changes the global toggle hotkey
func (a *App) SetHotkey(accelerator string) (settings.Settings, error) {
	return a.applySettings(settings.SetHotkey{Accelerator: accelerator})
}

// SetAnchorSide moves the panel to the left or right edge
func (a *App) SetAnchorSide(side types.AnchorSide) (settings.Settings, error) {
	return a.applySettings(settings.SetAnchorSide{Side: side})
}

// SetWindowWidth sets the panel width, clamped to the allowed range
func (a *App) SetWindowWidth(width int) (settings.Settings, error) {
	return a.applySettings(settings.SetWindowWidth{Width: width})
}

// SetTriggerWidth sets the width of the reveal zone
func (a *App) SetTriggerWidth(width int) (settings.Settings, error) {
	return a.applySettings(settings.SetTriggerWidth{Width: width})
}

// UpdateWindowLayout applies an anchor side and width together
func (a *App) UpdateWindowLayout(side types.AnchorSide, width int) (settings.Settings, error) {
	if _, err := a.applySettings(settings.SetAnchorSide{Side: side}); err != nil {
		return a.settings.Get(), err
	}
	return a.applySettings(settings.SetWindowWidth{Width: width})
}

// applySettings persists cmd and pushes its effect to the window
func (a *App) applySettings(cmd settings.Command) (settings.Settings, error) {
	before := a.settings.Get()
	after, err := a.settings.Apply(cmd)
	if err != nil {
		if !errors.IsValidation(err) {
			logging.LogError(a.logger, err, "ApplySettings", map[string]interface{}{"command": cmd.String()})
		}
		return after, err
	}

	switch cmd.(type) {
	case settings.SetAlwaysOnTop:
		a.rt.SetAlwaysOnTop(after.Behavior.AlwaysOnTop)
	case settings.SetHotkey:
		if after.Behavior.Hotkey != before.Behavior.Hotkey {
			if err := a.controller.SetHotkey(after.Behavior.Hotkey); err != nil {
				a.logHotkeyError(err, after.Behavior.Hotkey)
				return after, err
			}
		}
	default:
		if after.Layout != before.Layout || after.Behavior.AutoHide != before.Behavior.AutoHide {
			a.controller.Configure(after.RouterLayout())
		}
	}
	return after, nil
}
