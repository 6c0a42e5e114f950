// internal/agent/errors.go
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/xkilldash9x/speckled/api/schemas"
	"github.com/xkilldash9x/speckled/internal/dispatch"
	"github.com/xkilldash9x/speckled/internal/protocol"
)

// FailureKind names the category of a failed run.
type FailureKind string

const (
	KindMalformedInstruction FailureKind = "malformed_instruction"
	KindUnknownElementID     FailureKind = "unknown_element_id"
	KindDispatchFailed       FailureKind = "dispatch_failed"
	KindObservationFailed    FailureKind = "observation_failed"
	KindExhaustedSteps       FailureKind = "exhausted_steps"
	KindOracleFailed         FailureKind = "oracle_failed"
	KindNavigationFailed     FailureKind = "navigation_failed"
	KindCanceled             FailureKind = "canceled"
	KindInternal             FailureKind = "internal"
)

// ExhaustedStepsError reports a run that hit its step bound without the
// oracle declaring it complete.
type ExhaustedStepsError struct {
	SpecDescription string
	Steps           int
}

func (e *ExhaustedStepsError) Error() string {
	return fmt.Sprintf("step budget of %d exhausted without completion for spec %q", e.Steps, e.SpecDescription)
}

// ObservationFailedError wraps an observation provider failure.
type ObservationFailedError struct {
	Cause error
}

func (e *ObservationFailedError) Error() string { return "observation failed: " + e.Cause.Error() }
func (e *ObservationFailedError) Unwrap() error { return e.Cause }

// OracleFailedError wraps a transport or service failure of the oracle.
// Undecodable responses are reported as protocol.MalformedInstructionError.
type OracleFailedError struct {
	Cause error
}

func (e *OracleFailedError) Error() string { return "oracle call failed: " + e.Cause.Error() }
func (e *OracleFailedError) Unwrap() error { return e.Cause }

// NavigationFailedError reports that the target could not be loaded.
type NavigationFailedError struct {
	Target string
	Cause  error
}

func (e *NavigationFailedError) Error() string {
	return fmt.Sprintf("navigation to %q failed: %v", e.Target, e.Cause)
}
func (e *NavigationFailedError) Unwrap() error { return e.Cause }

// RunError is the single typed failure a run returns. It carries the
// context needed to diagnose or replay the failure.
type RunError struct {
	RunID string
	Kind  FailureKind
	// State is the phase the run failed in.
	State State
	Step  int
	// LastInstruction is the instruction being dispatched, if any.
	LastInstruction protocol.Instruction
	// Observation is the observation in effect when the run failed.
	Observation *schemas.Observation
	// Conversation is the committed history at the time of failure.
	Conversation []schemas.Entry
	Err          error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run %s failed at step %d (%s): %v", e.RunID, e.Step, e.Kind, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// Classify maps any error returned by RunSpec onto a FailureKind.
func Classify(err error) FailureKind {
	if err == nil {
		return ""
	}
	var runErr *RunError
	if errors.As(err, &runErr) && runErr.Kind != "" {
		return runErr.Kind
	}
	return classifyCause(err)
}

func classifyCause(err error) FailureKind {
	var (
		exhausted  *ExhaustedStepsError
		malformed  *protocol.MalformedInstructionError
		unknown    *dispatch.UnknownElementIDError
		failed     *dispatch.DispatchFailedError
		observe    *ObservationFailedError
		oracle     *OracleFailedError
		navigation *NavigationFailedError
	)
	switch {
	case errors.As(err, &exhausted):
		return KindExhaustedSteps
	case errors.As(err, &malformed):
		return KindMalformedInstruction
	case errors.As(err, &unknown):
		return KindUnknownElementID
	case errors.As(err, &failed):
		return KindDispatchFailed
	case errors.As(err, &observe):
		return KindObservationFailed
	case errors.As(err, &oracle):
		return KindOracleFailed
	case errors.As(err, &navigation):
		return KindNavigationFailed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	}
	return KindInternal
}
