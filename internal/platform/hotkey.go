package platform

import (
	"fmt"
	"strings"
)

// Modifier flags and virtual-key codes as understood by RegisterHotKey
const (
	modAlt      = 0x0001
	modControl  = 0x0002
	modShift    = 0x0004
	modWin      = 0x0008
	modNoRepeat = 0x4000
)

// Accelerator is a parsed hotkey such as "Ctrl+Shift+K"
type Accelerator struct {
	Modifiers uint32
	Key       uint32
}

var namedKeys = map[string]uint32{
	"space":     0x20,
	"tab":       0x09,
	"enter":     0x0D,
	"return":    0x0D,
	"esc":       0x1B,
	"escape":    0x1B,
	"backspace": 0x08,
	"delete":    0x2E,
	"insert":    0x2D,
	"home":      0x24,
	"end":       0x23,
	"pageup":    0x21,
	"pagedown":  0x22,
	"up":        0x26,
	"down":      0x28,
	"left":      0x25,
	"right":     0x27,
	"`":         0xC0,
}

// ParseAccelerator parses strings like "Alt+Space" or "CommandOrControl+Shift+L".
// Exactly one non-modifier key is required.
func ParseAccelerator(s string) (Accelerator, error) {
	var acc Accelerator
	keySet := false

	for _, part := range strings.Split(s, "+") {
		token := strings.ToLower(strings.TrimSpace(part))
		switch token {
		case "":
			return Accelerator{}, fmt.Errorf("accelerator %q: empty key", s)
		case "alt", "option":
			acc.Modifiers |= modAlt
		case "ctrl", "control", "cmdorctrl", "commandorcontrol":
			acc.Modifiers |= modControl
		case "shift":
			acc.Modifiers |= modShift
		case "win", "super", "meta", "cmd", "command":
			acc.Modifiers |= modWin
		default:
			if keySet {
				return Accelerator{}, fmt.Errorf("accelerator %q: more than one key", s)
			}
			vk, ok := virtualKey(token)
			if !ok {
				return Accelerator{}, fmt.Errorf("accelerator %q: unknown key %q", s, part)
			}
			acc.Key = vk
			keySet = true
		}
	}

	if !keySet {
		return Accelerator{}, fmt.Errorf("accelerator %q: missing key", s)
	}
	return acc, nil
}

func virtualKey(token string) (uint32, bool) {
	if vk, ok := namedKeys[token]; ok {
		return vk, true
	}
	if len(token) == 1 {
		c := token[0]
		switch {
		case c >= 'a' && c <= 'z':
			return uint32(c-'a') + 0x41, true
		case c >= '0' && c <= '9':
			return uint32(c-'0') + 0x30, true
		}
	}
	if strings.HasPrefix(token, "f") {
		var n int
		if _, err := fmt.Sscanf(token, "f%d", &n); err == nil && n >= 1 && n <= 24 && token == fmt.Sprintf("f%d", n) {
			return uint32(0x70 + n - 1), true
		}
	}
	return 0, false
}
