package llmclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/speckled/api/schemas"
	"github.com/xkilldash9x/speckled/internal/config"
)

func setupOllamaClient(t *testing.T, handler http.HandlerFunc) (*OllamaClient, func() []zapEntry) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger, logs := setupTestLogger(t)
	cfg := getValidLLMConfig()
	cfg.Provider = config.ProviderOllama
	cfg.APIKey = ""
	cfg.Endpoint = server.URL

	client, err := NewOllamaClient(cfg, logger)
	require.NoError(t, err)
	return client, func() []zapEntry {
		var out []zapEntry
		for _, e := range logs.All() {
			out = append(out, zapEntry{Message: e.Message, Fields: e.ContextMap()})
		}
		return out
	}
}

type zapEntry struct {
	Message string
	Fields  map[string]any
}

func TestOllamaClient_Complete(t *testing.T) {
	var req struct {
		Model    string `json:"model"`
		Stream   *bool  `json:"stream"`
		Format   string `json:"format"`
		Messages []struct {
			Role    string   `json:"role"`
			Content string   `json:"content"`
			Images  []string `json:"images"`
		} `json:"messages"`
		Options map[string]any `json:"options"`
	}
	client, entries := setupOllamaClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &req))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"model":"test-model","created_at":"2025-01-01T00:00:00Z","message":{"role":"assistant","content":"{\"type\":\"click\",\"id\":1}"},"done":true,"prompt_eval_count":42,"eval_count":7}`+"\n")
	})

	out, err := client.Complete(context.Background(), testConversation())
	require.NoError(t, err)
	assert.Equal(t, `{"type":"click","id":1}`, out)

	assert.Equal(t, "test-model", req.Model)
	require.NotNil(t, req.Stream)
	assert.False(t, *req.Stream)
	assert.Equal(t, "json", req.Format)
	assert.InDelta(t, 0.2, req.Options["temperature"], 0.0001)

	require.Len(t, req.Messages, 5)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Equal(t, "assistant", req.Messages[3].Role)
	assert.Len(t, req.Messages[4].Images, 1, "screenshots are attached as images")

	var found bool
	for _, e := range entries() {
		if e.Message == "LLM generation complete." {
			found = true
			assert.EqualValues(t, 42, e.Fields["prompt_tokens"])
			assert.EqualValues(t, 7, e.Fields["completion_tokens"])
		}
	}
	assert.True(t, found, "completion is logged")
}

func TestOllamaClient_ServerError(t *testing.T) {
	client, _ := setupOllamaClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"model 'test-model' not found"}`)
	})

	_, err := client.Complete(context.Background(), testConversation())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama chat")
	assert.Contains(t, err.Error(), "not found")
}

func TestOllamaClient_EmptyResponse(t *testing.T) {
	client, _ := setupOllamaClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"model":"test-model","message":{"role":"assistant","content":""},"done":true}`+"\n")
	})

	_, err := client.Complete(context.Background(), testConversation())
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestNewOllamaClient_BadEndpoint(t *testing.T) {
	cfg := getValidLLMConfig()
	cfg.Endpoint = "http://[::1"
	_, err := NewOllamaClient(cfg, zap.NewNop())
	assert.ErrorContains(t, err, "bad endpoint")
}

func TestToOllamaMessages(t *testing.T) {
	msgs := toOllamaMessages(testConversation())
	require.Len(t, msgs, 5)
	assert.Equal(t, string(schemas.RoleUser), msgs[1].Role)
	assert.Empty(t, msgs[1].Images)
	assert.Empty(t, msgs[4].Content)
	require.Len(t, msgs[4].Images, 1)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, []byte(msgs[4].Images[0]))
}
