package llmclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"

	"github.com/xkilldash9x/speckled/api/schemas"
	"github.com/xkilldash9x/speckled/internal/config"
)

// OllamaClient implements schemas.Oracle against a local Ollama server.
type OllamaClient struct {
	client *api.Client
	logger *zap.Logger
	cfg    config.LLMConfig
}

var _ schemas.Oracle = (*OllamaClient)(nil)

// NewOllamaClient connects to cfg.Endpoint, or to the host named by
// OLLAMA_HOST when no endpoint is configured.
func NewOllamaClient(cfg config.LLMConfig, logger *zap.Logger) (*OllamaClient, error) {
	var client *api.Client
	if cfg.Endpoint != "" {
		u, err := url.Parse(cfg.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("ollama: bad endpoint %q: %w", cfg.Endpoint, err)
		}
		// api.NewClient does not substitute a default for a nil *http.Client.
		client = api.NewClient(u, http.DefaultClient)
	} else {
		c, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("ollama: %w", err)
		}
		client = c
	}
	return &OllamaClient{
		client: client,
		logger: logger.Named("llm_client.ollama"),
		cfg:    cfg,
	}, nil
}

// Complete sends the conversation as a single non-streamed chat request
// constrained to JSON output.
func (c *OllamaClient) Complete(ctx context.Context, conversation []schemas.Entry) (string, error) {
	if c.cfg.APITimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.APITimeout)
		defer cancel()
	}

	stream := false
	req := &api.ChatRequest{
		Model:    c.cfg.Model,
		Messages: toOllamaMessages(conversation),
		Stream:   &stream,
		Format:   []byte(`"json"`),
		Options:  map[string]any{"temperature": c.cfg.Temperature},
	}

	start := time.Now()
	var out strings.Builder
	var promptTokens, evalTokens int
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		out.WriteString(resp.Message.Content)
		if resp.Done {
			promptTokens, evalTokens = resp.PromptEvalCount, resp.EvalCount
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	if out.Len() == 0 {
		return "", ErrEmptyResponse
	}

	c.logger.Debug("LLM generation complete.",
		zap.Duration("duration", time.Since(start)),
		zap.Int("entries", len(conversation)),
		zap.Int("prompt_tokens", promptTokens),
		zap.Int("completion_tokens", evalTokens),
	)
	return out.String(), nil
}

// toOllamaMessages maps entries one to one. Image entries carry an empty
// text body and the screenshot as an attached image.
func toOllamaMessages(conversation []schemas.Entry) []api.Message {
	msgs := make([]api.Message, 0, len(conversation))
	for _, e := range conversation {
		msg := api.Message{Role: string(e.Role), Content: e.Text}
		if e.IsImage() {
			msg.Images = []api.ImageData{e.Image}
		}
		msgs = append(msgs, msg)
	}
	return msgs
}
