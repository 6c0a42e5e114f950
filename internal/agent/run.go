// internal/agent/run.go
package agent

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/speckled/api/schemas"
	"github.com/xkilldash9x/speckled/internal/llmutil"
	"github.com/xkilldash9x/speckled/internal/protocol"
)

// run is the mutable state of one RunSpec call. It is owned by a single
// goroutine and discarded when the call returns.
type run struct {
	agent       *Agent
	logger      *zap.Logger
	id          string
	description string
	target      string

	state State
	steps int
	// conversation holds committed entries only. An observation and the
	// instruction it produced are committed together once the instruction
	// has been carried out, so a failed step leaves no partial entries.
	conversation []schemas.Entry
	observation  *schemas.Observation
	instruction  protocol.Instruction
}

func (r *run) transition(s State) {
	r.logger.Debug("State transition.", zap.String("from", string(r.state)), zap.String("to", string(s)), zap.Int("step", r.steps))
	r.state = s
}

func (r *run) loop(ctx context.Context, page schemas.Page) (*schemas.Verdict, error) {
	a := r.agent
	for {
		r.transition(StateObserving)
		obs, err := a.provider.Describe(ctx, page)
		if err != nil {
			return nil, r.fail(ctx, &ObservationFailedError{Cause: err})
		}
		if obs.Mode != a.opts.Mode {
			return nil, r.fail(ctx, &ObservationFailedError{
				Cause: fmt.Errorf("provider returned a %q observation for a %q run", obs.Mode, a.opts.Mode),
			})
		}
		r.observation = &obs
		r.instruction = nil
		pending := obs.Entry()

		r.transition(StateAwaitingInstruction)
		r.steps++
		if r.steps > a.opts.MaxSteps {
			r.steps = a.opts.MaxSteps
			return nil, r.fail(ctx, &ExhaustedStepsError{SpecDescription: r.description, Steps: a.opts.MaxSteps})
		}

		// The oracle sees the committed history plus the pending observation.
		request := append(r.conversation[:len(r.conversation):len(r.conversation)], pending)
		raw, err := a.oracle.Complete(ctx, request)
		if err != nil {
			return nil, r.fail(ctx, &OracleFailedError{Cause: err})
		}
		inst, err := protocol.Decode(raw)
		if err != nil {
			return nil, r.fail(ctx, err)
		}
		r.instruction = inst

		r.transition(StateDispatching)
		a.notify(StepEvent{RunID: r.id, Step: r.steps, Instruction: inst, Elements: len(obs.IDs)})

		if done, ok := inst.(protocol.Complete); ok {
			r.commit(pending, inst)
			r.transition(StateTerminated)
			r.logger.Info("Run completed.", zap.Bool("success", done.Success), zap.Int("steps", r.steps))
			return r.verdict(done), nil
		}

		if err := a.dispatcher.Dispatch(ctx, page, inst, obs); err != nil {
			return nil, r.fail(ctx, err)
		}
		r.commit(pending, inst)
	}
}

func (r *run) commit(observation schemas.Entry, inst protocol.Instruction) {
	r.conversation = append(r.conversation, observation, schemas.TextEntry(schemas.RoleAssistant, protocol.Encode(inst)))
}

func (r *run) verdict(done protocol.Complete) *schemas.Verdict {
	transcript := make([]string, 0, len(r.conversation))
	for _, e := range r.conversation {
		transcript = append(transcript, string(e.Role)+": "+e.Summary())
	}
	return &schemas.Verdict{
		RunID:       r.id,
		Success:     done.Success,
		Explanation: done.Explanation,
		Steps:       r.steps,
		Transcript:  transcript,
	}
}

// fail moves the run to Failed and packages err with diagnostics.
func (r *run) fail(ctx context.Context, err error) error {
	failedIn := r.state
	r.transition(StateFailed)

	kind := classifyCause(err)
	if ctx.Err() != nil && kind != KindExhaustedSteps {
		kind = KindCanceled
	}

	fields := []zap.Field{zap.String("kind", string(kind)), zap.String("state", string(failedIn)), zap.Int("step", r.steps), zap.Error(err)}
	if r.instruction != nil {
		fields = append(fields, zap.String("instruction", protocol.Encode(r.instruction)))
	}
	if r.observation != nil {
		fields = append(fields, zap.Int("elements", len(r.observation.IDs)))
	}
	var bad *protocol.MalformedInstructionError
	if errors.As(err, &bad) {
		fields = append(fields, zap.String("response", llmutil.Truncate(bad.Raw, 500)))
	}
	r.logger.Error("Run failed.", fields...)

	history := make([]schemas.Entry, len(r.conversation))
	copy(history, r.conversation)
	return &RunError{
		RunID:           r.id,
		Kind:            kind,
		State:           failedIn,
		Step:            r.steps,
		LastInstruction: r.instruction,
		Observation:     r.observation,
		Conversation:    history,
		Err:             err,
	}
}

func (a *Agent) notify(ev StepEvent) {
	if a.listener != nil {
		a.listener(ev)
	}
}
