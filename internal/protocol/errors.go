package protocol

import (
	"errors"
	"fmt"
)

// ErrMalformedInstruction matches any MalformedInstructionError via errors.Is.
var ErrMalformedInstruction = errors.New("malformed instruction")

// MalformedInstructionError reports an oracle response that does not
// decode to exactly one known instruction shape.
type MalformedInstructionError struct {
	Raw    string
	Reason string
}

func (e *MalformedInstructionError) Error() string {
	return fmt.Sprintf("malformed instruction: %s", e.Reason)
}

// Is makes errors.Is(err, ErrMalformedInstruction) hold.
func (e *MalformedInstructionError) Is(target error) bool {
	return target == ErrMalformedInstruction
}

func malformed(raw, format string, args ...any) error {
	return &MalformedInstructionError{Raw: raw, Reason: fmt.Sprintf(format, args...)}
}
