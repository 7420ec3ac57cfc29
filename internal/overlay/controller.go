package overlay

import (
	"context"
	"sync"
	"time"

	apperrors "sidedock/internal/infrastructure/errors"
	"sidedock/internal/infrastructure/logging"
	"sidedock/internal/router"
	"sidedock/internal/types"
)

// Events pushed to the frontend. Both carry the resulting types.LauncherState;
// toggle-launcher follows launcher-state when the global hotkey flipped the panel.
const (
	EventLauncherState  = "launcher-state"
	EventToggleLauncher = "toggle-launcher"
)

const (
	DefaultPollInterval = 16 * time.Millisecond
	queueSize           = 64
)

// Window is the part of the platform window layer the controller drives
type Window interface {
	SetClickThrough(enabled bool) error
	CursorPosition() (x int, y int, ok bool)
	RegisterHotkey(accel string, fn func()) (unregister func(), err error)
}

// Emitter pushes named events to the frontend
type Emitter interface {
	Emit(event string, payload interface{})
}

// Options tunes the controller
type Options struct {
	PollInterval time.Duration
	// ScreenWidth reports the current width of the window's screen; 0 means unknown
	ScreenWidth func() int
}

// Controller owns the router. Calls may come from any goroutine; decisions are
// applied to the window in the order they were made by a single worker.
type Controller struct {
	mu     sync.Mutex
	router *router.Router

	window  Window
	emitter Emitter
	opts    Options
	logger  logging.Logger

	queue chan delivery
	stop  chan struct{}
	wg    sync.WaitGroup

	startOnce sync.Once
	stopOnce  sync.Once

	hotkeyMu   sync.Mutex
	unregister func()

	unsupportedOnce sync.Once
}

// NewController wraps r; Start must be called before decisions reach the window
func NewController(r *router.Router, window Window, emitter Emitter, opts Options, logger logging.Logger) *Controller {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.ScreenWidth == nil {
		opts.ScreenWidth = func() int { return 0 }
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Controller{
		router:  r,
		window:  window,
		emitter: emitter,
		opts:    opts,
		logger:  logger,
		queue:   make(chan delivery, queueSize),
		stop:    make(chan struct{}),
	}
}

// Start launches the delivery worker and the cursor poller and puts the window
// into its initial pass-through state. Both goroutines exit on Stop or when ctx ends.
func (c *Controller) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		c.wg.Add(2)
		go c.deliver(ctx)
		go c.poll(ctx)

		c.mu.Lock()
		s := c.router.State()
		c.enqueue(router.Decision{
			Emit:       true,
			Capture:    !s.PassThrough,
			Forward:    s.PassThrough,
			Expanded:   s.Expanded,
			PanelWidth: s.Layout.PanelWidth,
		})
		c.mu.Unlock()
	})
}

// Stop unregisters the hotkey and waits for the worker and poller to exit
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		c.hotkeyMu.Lock()
		if c.unregister != nil {
			c.unregister()
			c.unregister = nil
		}
		c.hotkeyMu.Unlock()

		close(c.stop)
		c.wg.Wait()
	})
}

// SetHotkey replaces the global toggle hotkey
func (c *Controller) SetHotkey(accel string) error {
	c.hotkeyMu.Lock()
	defer c.hotkeyMu.Unlock()

	if c.unregister != nil {
		c.unregister()
		c.unregister = nil
	}

	unregister, err := c.window.RegisterHotkey(accel, c.hotkeyToggle)
	if err != nil {
		return err
	}
	c.unregister = unregister
	c.logger.Info("Global hotkey registered", "accelerator", accel)
	return nil
}

// HandlePointer routes a pointer move
func (c *Controller) HandlePointer(ev router.PointerEvent) router.Decision {
	return c.apply(func(r *router.Router) router.Decision { return r.Move(ev) })
}

// Toggle flips the panel
func (c *Controller) Toggle() router.Decision {
	return c.apply((*router.Router).Toggle)
}

func (c *Controller) hotkeyToggle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enqueueItem(c.router.Toggle(), true)
}

// BeginResize starts an edge drag
func (c *Controller) BeginResize() router.Decision {
	return c.apply((*router.Router).BeginResize)
}

// EndResize ends an edge drag
func (c *Controller) EndResize() router.Decision {
	return c.apply((*router.Router).EndResize)
}

// SetModalOpen records whether the settings modal is showing
func (c *Controller) SetModalOpen(open bool) router.Decision {
	return c.apply(func(r *router.Router) router.Decision { return r.SetModalOpen(open) })
}

// Launched collapses the panel after a launch when auto-hide is on
func (c *Controller) Launched() router.Decision {
	return c.apply((*router.Router).Launched)
}

// Configure applies a new layout and pushes the resulting state
func (c *Controller) Configure(layout router.Layout) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.router.Configure(layout)
	s := c.router.State()
	c.enqueue(router.Decision{
		Capture:      !s.PassThrough,
		Forward:      s.PassThrough,
		Expanded:     s.Expanded,
		PanelWidth:   s.Layout.PanelWidth,
		WidthChanged: true,
	})
}

// State returns a snapshot of the router state
func (c *Controller) State() router.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.router.State()
}

func (c *Controller) apply(fn func(*router.Router) router.Decision) router.Decision {
	c.mu.Lock()
	defer c.mu.Unlock()

	d := fn(c.router)
	if d.Changed() {
		c.enqueue(d)
	}
	return d
}

// delivery is a decision plus the router state the worker needs to report it
type delivery struct {
	decision router.Decision
	anchor   types.AnchorSide
	hotkey   bool
}

// enqueue must be called with mu held so queue order matches decision order
func (c *Controller) enqueue(d router.Decision) {
	c.enqueueItem(d, false)
}

func (c *Controller) enqueueItem(d router.Decision, hotkey bool) {
	item := delivery{decision: d, anchor: c.router.State().Layout.Anchor, hotkey: hotkey}
	select {
	case c.queue <- item:
	case <-c.stop:
	}
}

func (c *Controller) deliver(ctx context.Context) {
	defer c.wg.Done()
	for {
		select {
		case item := <-c.queue:
			c.applyToWindow(item)
		case <-c.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *Controller) applyToWindow(item delivery) {
	d := item.decision
	if d.Emit {
		if err := c.window.SetClickThrough(!d.Capture); err != nil {
			if apperrors.IsUnsupported(err) {
				c.unsupportedOnce.Do(func() {
					c.logger.Warn("Click-through is not supported on this platform", "error", err)
				})
			} else {
				logging.LogError(c.logger, err, "overlay.SetClickThrough", map[string]interface{}{
					"capture": d.Capture,
				})
			}
		}
	}

	if d.Changed() {
		state := types.LauncherState{
			Expanded:    d.Expanded,
			PanelWidth:  d.PanelWidth,
			Anchor:      item.anchor,
			ClearSearch: d.ClearSearch,
			PassThrough: !d.Capture,
		}
		c.emitter.Emit(EventLauncherState, state)
		if item.hotkey {
			c.emitter.Emit(EventToggleLauncher, state)
		}
	}
}

// poll feeds the cursor position to the router while the window passes input
// through, since the webview then receives no pointer events of its own
func (c *Controller) poll(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	lastX, lastY, seen := 0, 0, false
	for {
		select {
		case <-ticker.C:
		case <-c.stop:
			return
		case <-ctx.Done():
			return
		}

		if !c.State().PassThrough {
			seen = false
			continue
		}
		width := c.opts.ScreenWidth()
		if width <= 0 {
			continue
		}
		x, y, ok := c.window.CursorPosition()
		if !ok || (seen && x == lastX && y == lastY) {
			continue
		}
		lastX, lastY, seen = x, y, true
		c.HandlePointer(router.PointerEvent{X: x, Y: y, ScreenWidth: width})
	}
}
