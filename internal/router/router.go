// Package router decides, for every pointer event, whether the overlay window
// should capture input or let it fall through to the desktop, and whether the
// panel is expanded. It performs no I/O; callers apply the returned Decision.
package router

import "sidedock/internal/types"

const (
	DefaultMinWidth         = 200
	DefaultMaxWidth         = 800
	DefaultHysteresisBuffer = 40
	DefaultPanelWidth       = 400
	DefaultTriggerZone      = 10
)

// Config holds the fixed bounds of the router
type Config struct {
	MinWidth         int
	MaxWidth         int
	HysteresisBuffer int
}

// Layout is the user-adjustable geometry and behavior
type Layout struct {
	PanelWidth  int
	TriggerZone int
	Anchor      types.AnchorSide
	AutoHide    bool
}

// DefaultLayout matches a fresh install: right edge, 400px panel, auto-hide on
func DefaultLayout() Layout {
	return Layout{
		PanelWidth:  DefaultPanelWidth,
		TriggerZone: DefaultTriggerZone,
		Anchor:      types.AnchorRight,
		AutoHide:    true,
	}
}

// PointerEvent is a pointer position in window coordinates
type PointerEvent struct {
	X           int
	Y           int
	ScreenWidth int
}

// Decision is the outcome of one router call
type Decision struct {
	// Emit is set when the capture state must be pushed to the window layer
	Emit    bool
	Capture bool
	// Forward asks the window layer to keep delivering pointer moves while passing clicks through
	Forward bool

	Expanded        bool
	ExpandedChanged bool
	PanelWidth      int
	WidthChanged    bool
	ClearSearch     bool
}

// Changed reports whether anything in d needs to be applied
func (d Decision) Changed() bool {
	return d.Emit || d.ExpandedChanged || d.WidthChanged || d.ClearSearch
}

// State is a snapshot of the router
type State struct {
	Expanded    bool
	Resizing    bool
	ModalOpen   bool
	PassThrough bool
	Layout      Layout
}

// Router is not safe for concurrent use; the overlay controller serializes access
type Router struct {
	cfg    Config
	layout Layout

	expanded  bool
	resizing  bool
	modalOpen bool

	// the window starts out passing input through
	capturing bool
}

// New creates a collapsed router in pass-through mode
func New(cfg Config, layout Layout) *Router {
	if cfg.MinWidth <= 0 {
		cfg.MinWidth = DefaultMinWidth
	}
	if cfg.MaxWidth < cfg.MinWidth {
		cfg.MaxWidth = max(DefaultMaxWidth, cfg.MinWidth)
	}
	if cfg.HysteresisBuffer < 0 {
		cfg.HysteresisBuffer = DefaultHysteresisBuffer
	}
	r := &Router{cfg: cfg}
	r.Configure(layout)
	return r
}

// Configure replaces the layout. The panel width is clamped to the configured bounds.
func (r *Router) Configure(layout Layout) {
	if !layout.Anchor.Valid() {
		layout.Anchor = types.AnchorRight
	}
	if layout.TriggerZone < 0 {
		layout.TriggerZone = 0
	}
	layout.PanelWidth = r.clampWidth(layout.PanelWidth)
	r.layout = layout
}

// State returns a snapshot of the current state
func (r *Router) State() State {
	return State{
		Expanded:    r.expanded,
		Resizing:    r.resizing,
		ModalOpen:   r.modalOpen,
		PassThrough: !r.capturing,
		Layout:      r.layout,
	}
}

// Move handles a pointer move
func (r *Router) Move(ev PointerEvent) Decision {
	var d Decision

	if r.resizing {
		width := ev.X
		if r.layout.Anchor == types.AnchorRight {
			width = ev.ScreenWidth - ev.X
		}
		if width = r.clampWidth(width); width != r.layout.PanelWidth {
			r.layout.PanelWidth = width
			d.WidthChanged = true
		}
		r.setCapture(&d, true, false, false)
		return r.finish(d)
	}

	if r.modalOpen {
		r.setCapture(&d, true, false, false)
		return r.finish(d)
	}

	active := r.layout.TriggerZone
	if r.expanded {
		active = r.layout.PanelWidth
	}
	over := r.within(ev, active)
	r.setCapture(&d, over, !over, false)

	if r.layout.AutoHide {
		switch {
		case !r.expanded && over:
			r.expanded = true
			d.ExpandedChanged = true
		case r.expanded && !r.within(ev, r.layout.PanelWidth+r.cfg.HysteresisBuffer):
			r.expanded = false
			d.ExpandedChanged = true
			d.ClearSearch = true
		}
	}
	return r.finish(d)
}

// Toggle flips the panel regardless of pointer position. Expanding captures input,
// collapsing passes it through with forwarding unless a modal or a resize still
// needs the pointer.
func (r *Router) Toggle() Decision {
	var d Decision
	r.expanded = !r.expanded
	d.ExpandedChanged = true
	capture := r.expanded || r.modalOpen || r.resizing
	r.setCapture(&d, capture, !capture, true)
	return r.finish(d)
}

// BeginResize starts a drag of the panel edge
func (r *Router) BeginResize() Decision {
	var d Decision
	r.resizing = true
	r.setCapture(&d, true, false, false)
	return r.finish(d)
}

// EndResize ends a drag; the next Move re-evaluates capture
func (r *Router) EndResize() Decision {
	r.resizing = false
	return r.finish(Decision{})
}

// SetModalOpen records whether a modal (settings) is covering the panel
func (r *Router) SetModalOpen(open bool) Decision {
	var d Decision
	r.modalOpen = open
	if open {
		r.setCapture(&d, true, false, false)
	}
	return r.finish(d)
}

// Launched collapses the panel after an app is started when auto-hide is on
func (r *Router) Launched() Decision {
	var d Decision
	if !r.layout.AutoHide {
		return r.finish(d)
	}
	if r.expanded {
		r.expanded = false
		d.ExpandedChanged = true
	}
	d.ClearSearch = true
	r.setCapture(&d, false, true, true)
	return r.finish(d)
}

// setCapture records the capture state, flagging emission on change or when forced
func (r *Router) setCapture(d *Decision, capture, forward, force bool) {
	d.Capture = capture
	d.Forward = !capture && forward
	if capture != r.capturing || force {
		d.Emit = true
	}
	r.capturing = capture
}

func (r *Router) finish(d Decision) Decision {
	d.Expanded = r.expanded
	d.PanelWidth = r.layout.PanelWidth
	if !d.Emit {
		d.Capture = r.capturing
		d.Forward = !r.capturing
	}
	return d
}

// within reports whether the pointer is inside a band of width w along the anchored edge
func (r *Router) within(ev PointerEvent, w int) bool {
	if r.layout.Anchor == types.AnchorRight {
		return ev.X >= ev.ScreenWidth-w
	}
	return ev.X <= w
}

func (r *Router) clampWidth(w int) int {
	return min(max(w, r.cfg.MinWidth), r.cfg.MaxWidth)
}
