package cmd

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/xkilldash9x/speckled/api/schemas"
	"github.com/xkilldash9x/speckled/internal/agent"
	"github.com/xkilldash9x/speckled/internal/browser"
	"github.com/xkilldash9x/speckled/internal/config"
	"github.com/xkilldash9x/speckled/internal/llmclient"
	"github.com/xkilldash9x/speckled/internal/observer"
)

// browserSession is a page source that owns a browser process.
type browserSession interface {
	schemas.PageOpener
	Close() error
}

// Seams replaced in tests.
var (
	newOracle  = llmclient.NewClient
	newBrowser = func(logger *zap.Logger, cfg config.BrowserConfig) browserSession {
		return browser.NewManager(logger, cfg)
	}
)

// components holds everything a command needs to execute specs.
type components struct {
	agent   *agent.Agent
	browser browserSession
}

func (c *components) Shutdown(logger *zap.Logger) {
	if err := c.browser.Close(); err != nil {
		logger.Warn("Failed to close browser.", zap.Error(err))
	}
}

func initializeComponents(ctx context.Context, cfg config.Interface, logger *zap.Logger) (*components, error) {
	oracle, err := newOracle(ctx, cfg.LLM(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}
	provider, err := observer.NewProvider(logger, schemas.ObservationMode(cfg.Agent().ObservationMode))
	if err != nil {
		return nil, err
	}

	session := newBrowser(logger, cfg.Browser())
	a, err := agent.NewFromConfig(logger, cfg, session, provider, oracle)
	if err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("failed to initialize agent: %w", err)
	}
	return &components{agent: a, browser: session}, nil
}

// nopWriteCloser lets reporters write to a stream they must not close.
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
