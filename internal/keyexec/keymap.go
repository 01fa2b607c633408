// -- internal/keyexec/keymap.go --
package keyexec

import "strings"

// symbolicKeys maps every key name the navigation language may produce to
// the driver's canonical vocabulary. Lookups happen on the lowercased,
// trimmed token; a miss means the token is literal text, not a named key.
var symbolicKeys = map[string]string{
	"up": "up", "arrowup": "up",
	"down": "down", "arrowdown": "down",
	"left": "left", "arrowleft": "left",
	"right": "right", "arrowright": "right",
	"tab":    "tab",
	"enter":  "enter",
	"return": "enter",
	"escape": "escape", "esc": "escape",
	"space": "space", "spacebar": "space",
	"backspace": "backspace",
	"delete":    "delete", "del": "delete",
	"insert": "insert", "ins": "insert",
	"home":     "home",
	"end":      "end",
	"pageup":   "pageup", "pgup": "pageup",
	"pagedown": "pagedown", "pgdn": "pagedown",
	"f1": "f1", "f2": "f2", "f3": "f3", "f4": "f4",
	"f5": "f5", "f6": "f6", "f7": "f7", "f8": "f8",
	"f9": "f9", "f10": "f10", "f11": "f11", "f12": "f12",
}

// resolveKey returns the canonical symbolic name for a key token. ok is
// false when the token names no known key and should be typed literally.
func resolveKey(token string) (canonical string, ok bool) {
	canonical, ok = symbolicKeys[strings.ToLower(strings.TrimSpace(token))]
	return canonical, ok
}
