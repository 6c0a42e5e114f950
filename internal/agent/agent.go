// internal/agent/agent.go
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/speckled/api/schemas"
	"github.com/xkilldash9x/speckled/internal/config"
	"github.com/xkilldash9x/speckled/internal/dispatch"
	"github.com/xkilldash9x/speckled/internal/observability"
	"github.com/xkilldash9x/speckled/internal/protocol"
)

// Agent executes natural-language test specifications. It holds no
// per-run state, so one Agent may serve concurrent runs as long as its
// collaborators are safe for concurrent use.
type Agent struct {
	logger     *zap.Logger
	opts       Options
	opener     schemas.PageOpener
	provider   schemas.ObservationProvider
	oracle     schemas.Oracle
	dispatcher ActionDispatcher
	listener   StepListener
	newRunID   func() string
}

// New creates an Agent from explicit collaborators.
func New(logger *zap.Logger, opts Options, opener schemas.PageOpener, provider schemas.ObservationProvider, oracle schemas.Oracle, dispatcher ActionDispatcher) (*Agent, error) {
	if opts.MaxSteps <= 0 {
		return nil, fmt.Errorf("max steps must be positive, got %d", opts.MaxSteps)
	}
	if !opts.Mode.Valid() {
		return nil, fmt.Errorf("unsupported observation mode %q", opts.Mode)
	}
	if opener == nil || provider == nil || oracle == nil || dispatcher == nil {
		return nil, errors.New("page opener, observation provider, oracle and dispatcher are all required")
	}
	return &Agent{
		logger:     logger.Named("agent"),
		opts:       opts,
		opener:     opener,
		provider:   provider,
		oracle:     oracle,
		dispatcher: dispatcher,
		newRunID:   uuid.NewString,
	}, nil
}

// NewFromConfig wires an Agent and its dispatcher from application config.
func NewFromConfig(logger *zap.Logger, cfg config.Interface, opener schemas.PageOpener, provider schemas.ObservationProvider, oracle schemas.Oracle) (*Agent, error) {
	agentCfg := cfg.Agent()
	browserCfg := cfg.Browser()

	dispatcher := dispatch.New(logger, dispatch.Options{
		SettleDelay:     agentCfg.SettleDelay(),
		SubmitAfterFill: agentCfg.SubmitAfterFill,
		ActionTimeout:   browserCfg.ActionTimeout,
	})
	return New(logger, Options{
		MaxSteps:          agentCfg.MaxSteps,
		Mode:              schemas.ObservationMode(agentCfg.ObservationMode),
		RunTimeout:        agentCfg.RunTimeout,
		NavigationTimeout: browserCfg.NavigationTimeout,
	}, opener, provider, oracle, dispatcher)
}

// SetStepListener registers a callback for step events. It must be called
// before any run starts.
func (a *Agent) SetStepListener(l StepListener) { a.listener = l }

// RunSpec executes one specification against target and returns the
// oracle's verdict. Every failure is returned as a *RunError.
func (a *Agent) RunSpec(ctx context.Context, description, target string) (*schemas.Verdict, error) {
	if a.opts.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.RunTimeout)
		defer cancel()
	}

	r := &run{
		agent:       a,
		id:          a.newRunID(),
		description: description,
		target:      target,
		state:       StateInit,
	}
	r.logger = observability.ForRun(a.logger, r.id, target)
	r.logger.Info("Run started.", zap.Int("max_steps", a.opts.MaxSteps), zap.String("mode", string(a.opts.Mode)))

	page, err := a.opener.NewPage(ctx)
	if err != nil {
		return nil, r.fail(ctx, fmt.Errorf("open page: %w", err))
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			r.logger.Warn("Failed to close page.", zap.Error(cerr))
		}
	}()

	if target != "" {
		if err := a.navigate(ctx, page, target); err != nil {
			return nil, r.fail(ctx, err)
		}
	}

	r.conversation = []schemas.Entry{
		schemas.TextEntry(schemas.RoleSystem, protocol.SystemPrompt(a.opts.Mode)),
		schemas.TextEntry(schemas.RoleUser, protocol.SpecPrompt(description)),
	}
	return r.loop(ctx, page)
}

func (a *Agent) navigate(ctx context.Context, page schemas.Page, target string) error {
	navCtx := ctx
	if a.opts.NavigationTimeout > 0 {
		var cancel context.CancelFunc
		navCtx, cancel = context.WithTimeout(ctx, a.opts.NavigationTimeout)
		defer cancel()
	}
	if err := page.Navigate(navCtx, target); err != nil {
		return &NavigationFailedError{Target: target, Cause: err}
	}
	return nil
}
