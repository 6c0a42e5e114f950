package llmclient

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/speckled/api/schemas"
	"github.com/xkilldash9x/speckled/internal/config"
)

// setupTestLogger is a helper to create a zap logger for testing with an observer.
func setupTestLogger(t *testing.T) (*zap.Logger, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core), logs
}

// getValidLLMConfig returns a valid LLMConfig for testing purposes.
func getValidLLMConfig() config.LLMConfig {
	return config.LLMConfig{
		Provider:    config.ProviderGemini,
		APIKey:      "test-api-key",
		Model:       "test-model",
		APITimeout:  5 * time.Second,
		Temperature: 0.2,
	}
}

// testConversation is the shape the agent sends on its second oracle call.
func testConversation() []schemas.Entry {
	return []schemas.Entry{
		schemas.TextEntry(schemas.RoleSystem, "You drive a browser."),
		schemas.TextEntry(schemas.RoleUser, "Test: the login form accepts valid credentials."),
		schemas.TextEntry(schemas.RoleUser, "[$0] (Username) value: \"\"\n[#1] Sign in"),
		schemas.TextEntry(schemas.RoleAssistant, `{"type":"click","id":1}`),
		{Role: schemas.RoleUser, Image: []byte{0x89, 'P', 'N', 'G'}, MIMEType: "image/png"},
	}
}
