// internal/browser/keys.go
package browser

import (
	"fmt"

	"github.com/chromedp/chromedp/kb"
)

// keyEvents maps canonical key names to the key sequences chromedp sends.
var keyEvents = map[string]string{
	"Enter":      kb.Enter,
	"Tab":        kb.Tab,
	"Escape":     kb.Escape,
	"Backspace":  kb.Backspace,
	"Delete":     kb.Delete,
	"Space":      " ",
	"ArrowUp":    kb.ArrowUp,
	"ArrowDown":  kb.ArrowDown,
	"ArrowLeft":  kb.ArrowLeft,
	"ArrowRight": kb.ArrowRight,
	"Home":       kb.Home,
	"End":        kb.End,
	"PageUp":     kb.PageUp,
	"PageDown":   kb.PageDown,
}

func keyEvent(name string) (string, error) {
	if seq, ok := keyEvents[name]; ok {
		return seq, nil
	}
	return "", fmt.Errorf("no key mapping for %q", name)
}
