package protocol

import (
	"sort"
	"strings"
)

// allowedKeys maps a lower-cased key name to its canonical spelling.
var allowedKeys = map[string]string{
	"enter":      "Enter",
	"tab":        "Tab",
	"escape":     "Escape",
	"backspace":  "Backspace",
	"delete":     "Delete",
	"space":      "Space",
	"arrowup":    "ArrowUp",
	"arrowdown":  "ArrowDown",
	"arrowleft":  "ArrowLeft",
	"arrowright": "ArrowRight",
	"home":       "Home",
	"end":        "End",
	"pageup":     "PageUp",
	"pagedown":   "PageDown",
}

// CanonicalKey returns the canonical spelling of an allow-listed key.
// Matching is case-insensitive.
func CanonicalKey(name string) (string, bool) {
	k, ok := allowedKeys[strings.ToLower(strings.TrimSpace(name))]
	return k, ok
}

// AllowedKeys lists the canonical key names, sorted.
func AllowedKeys() []string {
	keys := make([]string, 0, len(allowedKeys))
	for _, k := range allowedKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
