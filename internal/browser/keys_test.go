// internal/browser/keys_test.go
package browser

import (
	"testing"

	"github.com/chromedp/chromedp/kb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/speckled/internal/protocol"
)

func TestKeyEvent_CoversEveryAllowedKey(t *testing.T) {
	for _, name := range protocol.AllowedKeys() {
		seq, err := keyEvent(name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, seq, name)
	}
	assert.Len(t, keyEvents, len(protocol.AllowedKeys()), "key map and allow-list must agree")
}

func TestKeyEvent(t *testing.T) {
	seq, err := keyEvent("Enter")
	require.NoError(t, err)
	assert.Equal(t, kb.Enter, seq)

	seq, err = keyEvent("Space")
	require.NoError(t, err)
	assert.Equal(t, " ", seq)

	_, err = keyEvent("F13")
	assert.ErrorContains(t, err, "no key mapping")
}
