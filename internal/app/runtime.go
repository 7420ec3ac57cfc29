package app

import (
	"context"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// Runtime is the slice of the Wails runtime the app drives. Tests substitute a fake.
type Runtime interface {
	Emit(event string, payload interface{})
	SetAlwaysOnTop(enabled bool)
	// ScreenWidth returns the width of the window's current screen, 0 when unknown
	ScreenWidth() int
	// FitToScreen stretches the window over the current screen
	FitToScreen()
}

// wailsRuntime calls the Wails runtime with the context received in OnStartup
type wailsRuntime struct {
	ctx context.Context

	mu     sync.Mutex
	width  int
	height int
}

func newWailsRuntime(ctx context.Context) *wailsRuntime {
	return &wailsRuntime{ctx: ctx}
}

func (w *wailsRuntime) Emit(event string, payload interface{}) {
	runtime.EventsEmit(w.ctx, event, payload)
}

func (w *wailsRuntime) SetAlwaysOnTop(enabled bool) {
	runtime.WindowSetAlwaysOnTop(w.ctx, enabled)
}

func (w *wailsRuntime) ScreenWidth() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.width == 0 {
		w.width, w.height = w.currentScreen()
	}
	return w.width
}

func (w *wailsRuntime) FitToScreen() {
	width, height := w.currentScreen()
	if width == 0 || height == 0 {
		return
	}
	w.mu.Lock()
	w.width, w.height = width, height
	w.mu.Unlock()

	runtime.WindowSetPosition(w.ctx, 0, 0)
	runtime.WindowSetSize(w.ctx, width, height)
}

// currentScreen prefers the screen holding the window, then the primary one
func (w *wailsRuntime) currentScreen() (int, int) {
	screens, err := runtime.ScreenGetAll(w.ctx)
	if err != nil || len(screens) == 0 {
		return 0, 0
	}
	chosen := screens[0]
	for _, s := range screens {
		if s.IsCurrent {
			chosen = s
			break
		}
		if s.IsPrimary {
			chosen = s
		}
	}
	return chosen.Size.Width, chosen.Size.Height
}
