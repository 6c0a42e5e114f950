// Package dispatch carries out decoded, non-terminal instructions against
// a page driver.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/speckled/api/schemas"
	"github.com/xkilldash9x/speckled/internal/protocol"
)

// EnterKey is the key pressed after every fill when SubmitAfterFill is on.
const EnterKey = "Enter"

// Options configures a Dispatcher.
type Options struct {
	// SettleDelay is waited after every successful primitive so that
	// asynchronous page updates land before the next observation.
	SettleDelay time.Duration
	// SubmitAfterFill presses Enter on the element after every text fill.
	SubmitAfterFill bool
	// ActionTimeout bounds each driver primitive. Zero means no bound.
	ActionTimeout time.Duration
}

// Dispatcher maps an instruction to exactly one driver primitive (two for
// a text fill with SubmitAfterFill). It never retries.
type Dispatcher struct {
	logger *zap.Logger
	opts   Options
	// sleep waits for the settle delay; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Dispatcher.
func New(logger *zap.Logger, opts Options) *Dispatcher {
	return &Dispatcher{
		logger: logger.Named("dispatcher"),
		opts:   opts,
		sleep:  sleepContext,
	}
}

// Dispatch resolves the instruction's target against the observation in
// effect and calls the matching driver primitive.
func (d *Dispatcher) Dispatch(ctx context.Context, driver schemas.Driver, inst protocol.Instruction, obs schemas.Observation) error {
	target, ok := inst.(protocol.Targeted)
	if !ok {
		return fmt.Errorf("instruction %s is terminal and cannot be dispatched", inst.Kind())
	}
	loc, ok := obs.Lookup(target.Target())
	if !ok {
		return &UnknownElementIDError{ID: target.Target(), Known: len(obs.IDs)}
	}

	d.logger.Debug("Dispatching instruction",
		zap.String("kind", string(inst.Kind())),
		zap.Int("id", target.Target()),
		zap.String("locator", string(loc)))

	switch v := inst.(type) {
	case protocol.Click:
		if v.Double {
			if err := d.run(ctx, inst, "double_click", func(c context.Context) error { return driver.DoubleClick(c, loc) }); err != nil {
				return err
			}
		} else {
			if err := d.run(ctx, inst, "click", func(c context.Context) error { return driver.Click(c, loc) }); err != nil {
				return err
			}
		}
	case protocol.KeyInput:
		if err := d.run(ctx, inst, "press", func(c context.Context) error { return driver.Press(c, loc, v.Key) }); err != nil {
			return err
		}
	case protocol.TextInput:
		if err := d.run(ctx, inst, "fill", func(c context.Context) error { return driver.Fill(c, loc, v.Text) }); err != nil {
			return err
		}
		if d.opts.SubmitAfterFill {
			if err := d.run(ctx, inst, "press", func(c context.Context) error { return driver.Press(c, loc, EnterKey) }); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("no dispatch rule for instruction type %s", inst.Kind())
	}

	if err := d.sleep(ctx, d.opts.SettleDelay); err != nil {
		return &DispatchFailedError{Instruction: inst, Primitive: "settle", Code: classify(err), Cause: err}
	}
	return nil
}

// run calls a single primitive under the action timeout and wraps its
// failure.
func (d *Dispatcher) run(ctx context.Context, inst protocol.Instruction, primitive string, fn func(context.Context) error) error {
	opCtx := ctx
	if d.opts.ActionTimeout > 0 {
		var cancel context.CancelFunc
		opCtx, cancel = context.WithTimeout(ctx, d.opts.ActionTimeout)
		defer cancel()
	}
	if err := fn(opCtx); err != nil {
		code := classify(err)
		d.logger.Warn("Driver primitive failed",
			zap.String("primitive", primitive),
			zap.String("code", string(code)),
			zap.Error(err))
		return &DispatchFailedError{Instruction: inst, Primitive: primitive, Code: code, Cause: err}
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
