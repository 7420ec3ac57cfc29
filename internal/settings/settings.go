package settings

import (
	"fmt"
	"strings"

	apperrors "sidedock/internal/infrastructure/errors"
	"sidedock/internal/platform"
	"sidedock/internal/router"
	"sidedock/internal/types"
)

// Settings are the user-editable launcher preferences
type Settings struct {
	Behavior Behavior `yaml:"behavior" json:"behavior"`
	Layout   Layout   `yaml:"layout" json:"layout"`
}

// Behavior controls how the panel reacts
type Behavior struct {
	AutoHide    bool   `yaml:"autoHide" json:"autoHide"`
	AlwaysOnTop bool   `yaml:"alwaysOnTop" json:"alwaysOnTop"`
	Hotkey      string `yaml:"hotkey" json:"hotkey"`
}

// Layout controls where the panel sits and how wide it is
type Layout struct {
	AnchorSide   types.AnchorSide `yaml:"anchorSide" json:"anchorSide"`
	WindowWidth  int              `yaml:"windowWidth" json:"windowWidth"`
	TriggerWidth int              `yaml:"triggerWidth" json:"triggerWidth"`
}

// Defaults returns the settings of a fresh install
func Defaults() Settings {
	return Settings{
		Behavior: Behavior{
			AutoHide:    true,
			AlwaysOnTop: true,
			Hotkey:      "Alt+Space",
		},
		Layout: Layout{
			AnchorSide:   types.AnchorRight,
			WindowWidth:  router.DefaultPanelWidth,
			TriggerWidth: router.DefaultTriggerZone,
		},
	}
}

// RouterLayout converts the settings into the router's view of them
func (s Settings) RouterLayout() router.Layout {
	return router.Layout{
		PanelWidth:  s.Layout.WindowWidth,
		TriggerZone: s.Layout.TriggerWidth,
		Anchor:      s.Layout.AnchorSide,
		AutoHide:    s.Behavior.AutoHide,
	}
}

// Bounds limits the values commands may set
type Bounds struct {
	MinWidth        int
	MaxWidth        int
	MaxTriggerWidth int
}

// DefaultBounds mirrors the router's resize limits
func DefaultBounds() Bounds {
	return Bounds{MinWidth: router.DefaultMinWidth, MaxWidth: router.DefaultMaxWidth, MaxTriggerWidth: 100}
}

// normalize repairs values loaded from disk instead of rejecting the whole file,
// falling back to d field by field
func (s *Settings) normalize(d Settings, b Bounds) {
	if !s.Layout.AnchorSide.Valid() {
		s.Layout.AnchorSide = d.Layout.AnchorSide
	}
	s.Layout.WindowWidth = min(max(s.Layout.WindowWidth, b.MinWidth), b.MaxWidth)
	if s.Layout.TriggerWidth < 1 || s.Layout.TriggerWidth > b.MaxTriggerWidth {
		s.Layout.TriggerWidth = d.Layout.TriggerWidth
	}
	if _, err := platform.ParseAccelerator(s.Behavior.Hotkey); err != nil {
		s.Behavior.Hotkey = d.Behavior.Hotkey
	}
}

// Command is one settings update. The concrete types below are the only implementations.
type Command interface {
	apply(s *Settings, b Bounds) error
	fmt.Stringer
}

// SetAutoHide toggles hover-to-reveal
type SetAutoHide struct{ Enabled bool }

// SetAlwaysOnTop keeps the window above others
type SetAlwaysOnTop struct{ Enabled bool }

// SetHotkey changes the global toggle accelerator
type SetHotkey struct{ Accelerator string }

// SetAnchorSide moves the panel to the other screen edge
type SetAnchorSide struct{ Side types.AnchorSide }

// SetWindowWidth sets the panel width; out-of-range values are clamped
type SetWindowWidth struct{ Width int }

// SetTriggerWidth sets the width of the reveal zone along the edge
type SetTriggerWidth struct{ Width int }

func (c SetAutoHide) apply(s *Settings, _ Bounds) error {
	s.Behavior.AutoHide = c.Enabled
	return nil
}

func (c SetAlwaysOnTop) apply(s *Settings, _ Bounds) error {
	s.Behavior.AlwaysOnTop = c.Enabled
	return nil
}

func (c SetHotkey) apply(s *Settings, _ Bounds) error {
	accel := strings.TrimSpace(c.Accelerator)
	if _, err := platform.ParseAccelerator(accel); err != nil {
		return apperrors.HandleValidationError("settings.SetHotkey", "hotkey", c.Accelerator, err.Error())
	}
	s.Behavior.Hotkey = accel
	return nil
}

func (c SetAnchorSide) apply(s *Settings, _ Bounds) error {
	if !c.Side.Valid() {
		return apperrors.HandleValidationError("settings.SetAnchorSide", "anchorSide", string(c.Side), "must be left or right")
	}
	s.Layout.AnchorSide = c.Side
	return nil
}

func (c SetWindowWidth) apply(s *Settings, b Bounds) error {
	s.Layout.WindowWidth = min(max(c.Width, b.MinWidth), b.MaxWidth)
	return nil
}

func (c SetTriggerWidth) apply(s *Settings, b Bounds) error {
	if c.Width < 1 || c.Width > b.MaxTriggerWidth {
		return apperrors.HandleValidationError("settings.SetTriggerWidth", "triggerWidth", fmt.Sprint(c.Width),
			fmt.Sprintf("must be between 1 and %d", b.MaxTriggerWidth))
	}
	s.Layout.TriggerWidth = c.Width
	return nil
}

func (c SetAutoHide) String() string     { return fmt.Sprintf("SetAutoHide(%t)", c.Enabled) }
func (c SetAlwaysOnTop) String() string  { return fmt.Sprintf("SetAlwaysOnTop(%t)", c.Enabled) }
func (c SetHotkey) String() string       { return fmt.Sprintf("SetHotkey(%s)", c.Accelerator) }
func (c SetAnchorSide) String() string   { return fmt.Sprintf("SetAnchorSide(%s)", c.Side) }
func (c SetWindowWidth) String() string  { return fmt.Sprintf("SetWindowWidth(%d)", c.Width) }
func (c SetTriggerWidth) String() string { return fmt.Sprintf("SetTriggerWidth(%d)", c.Width) }
