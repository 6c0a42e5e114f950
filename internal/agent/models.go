// internal/agent/models.go
package agent

import (
	"time"

	"github.com/xkilldash9x/speckled/api/schemas"
	"github.com/xkilldash9x/speckled/internal/protocol"
)

// State is the phase a run is in. Terminated and Failed are terminal.
type State string

const (
	StateInit                State = "INIT"
	StateObserving           State = "OBSERVING"
	StateAwaitingInstruction State = "AWAITING_INSTRUCTION"
	StateDispatching         State = "DISPATCHING"
	StateTerminated          State = "TERMINATED"
	StateFailed              State = "FAILED"
)

// Options is the static configuration of an Agent.
type Options struct {
	// MaxSteps bounds the number of oracle calls per run.
	MaxSteps int
	// Mode selects text or image observations for every run.
	Mode schemas.ObservationMode
	// RunTimeout bounds a whole run. Zero means unbounded.
	RunTimeout time.Duration
	// NavigationTimeout bounds the initial navigation. Zero means unbounded.
	NavigationTimeout time.Duration
}

// StepEvent describes one dispatched or terminal instruction.
type StepEvent struct {
	RunID       string
	Step        int
	Instruction protocol.Instruction
	Elements    int
}

// StepListener receives step events. It is called synchronously from the
// run's goroutine.
type StepListener func(StepEvent)
