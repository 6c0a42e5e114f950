package llmclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/xkilldash9x/speckled/api/schemas"
	"github.com/xkilldash9x/speckled/internal/config"
)

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("llm returned no content")

// GeminiClient implements schemas.Oracle on top of the Gemini API.
type GeminiClient struct {
	client *genai.Client
	logger *zap.Logger
	cfg    config.LLMConfig
}

var _ schemas.Oracle = (*GeminiClient)(nil)

// NewGeminiClient initializes the client. cfg.Endpoint overrides the API
// base URL.
func NewGeminiClient(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		cc.HTTPOptions.BaseURL = cfg.Endpoint
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiClient{
		client: client,
		logger: logger.Named("llm_client.gemini"),
		cfg:    cfg,
	}, nil
}

// Complete sends the conversation and returns the model's raw JSON text.
func (c *GeminiClient) Complete(ctx context.Context, conversation []schemas.Entry) (string, error) {
	if c.cfg.APITimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.APITimeout)
		defer cancel()
	}

	system, contents := toGeminiContents(conversation)
	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: system,
		Temperature:       genai.Ptr(c.cfg.Temperature),
		ResponseMIMEType:  "application/json",
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.cfg.Model, contents, genCfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	candidate := resp.Candidates[0]
	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		if candidate.FinishReason == genai.FinishReasonSafety || candidate.FinishReason == genai.FinishReasonBlocklist {
			return "", fmt.Errorf("gemini blocked the request (reason: %s)", candidate.FinishReason)
		}
		return "", ErrEmptyResponse
	}

	fields := []zap.Field{zap.Duration("duration", time.Since(start)), zap.Int("entries", len(conversation))}
	if u := resp.UsageMetadata; u != nil {
		fields = append(fields,
			zap.Int32("prompt_tokens", u.PromptTokenCount),
			zap.Int32("completion_tokens", u.CandidatesTokenCount),
			zap.Int32("total_tokens", u.TotalTokenCount),
		)
	}
	c.logger.Debug("LLM generation complete.", fields...)
	return sb.String(), nil
}

// toGeminiContents maps the conversation onto Gemini's content model.
// System entries become the system instruction; assistant entries are sent
// with the model role.
func toGeminiContents(conversation []schemas.Entry) (*genai.Content, []*genai.Content) {
	var system *genai.Content
	contents := make([]*genai.Content, 0, len(conversation))
	for _, e := range conversation {
		part := &genai.Part{Text: e.Text}
		if e.IsImage() {
			part = &genai.Part{InlineData: &genai.Blob{MIMEType: e.MIMEType, Data: e.Image}}
		}
		switch e.Role {
		case schemas.RoleSystem:
			if system == nil {
				system = &genai.Content{}
			}
			system.Parts = append(system.Parts, part)
		case schemas.RoleAssistant:
			contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{part}})
		default:
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{part}})
		}
	}
	return system, contents
}
