package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xkilldash9x/speckled/internal/protocol"
)

// ErrorCode classifies a driver failure for diagnostics.
type ErrorCode string

const (
	ErrCodeExecutionFailure ErrorCode = "EXECUTION_FAILURE"
	ErrCodeElementNotFound  ErrorCode = "ELEMENT_NOT_FOUND"
	ErrCodeNotInteractable  ErrorCode = "NOT_INTERACTABLE"
	ErrCodeTimeout          ErrorCode = "TIMEOUT_ERROR"
	ErrCodeNavigation       ErrorCode = "NAVIGATION_ERROR"
	ErrCodeCanceled         ErrorCode = "CANCELED"
)

// UnknownElementIDError reports an instruction that references an
// identifier absent from the observation in effect. No driver primitive
// has been called when this error is returned.
type UnknownElementIDError struct {
	ID    int
	Known int
}

func (e *UnknownElementIDError) Error() string {
	return fmt.Sprintf("unknown element id %d (current observation has %d elements)", e.ID, e.Known)
}

// DispatchFailedError wraps a driver primitive failure together with the
// instruction that was being carried out.
type DispatchFailedError struct {
	Instruction protocol.Instruction
	Primitive   string
	Code        ErrorCode
	Cause       error
}

func (e *DispatchFailedError) Error() string {
	return fmt.Sprintf("dispatch %s failed at %s [%s]: %v", e.Instruction.Kind(), e.Primitive, e.Code, e.Cause)
}

func (e *DispatchFailedError) Unwrap() error { return e.Cause }

// classify maps a driver error onto an ErrorCode. The heuristics follow
// the error texts chromedp produces.
func classify(err error) ErrorCode {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrCodeTimeout
	case errors.Is(err, context.Canceled):
		return ErrCodeCanceled
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no element found"), strings.Contains(msg, "could not find node"), strings.Contains(msg, "selector"):
		return ErrCodeElementNotFound
	case strings.Contains(msg, "not interactable"), strings.Contains(msg, "not visible"), strings.Contains(msg, "zero size"), strings.Contains(msg, "disabled"):
		return ErrCodeNotInteractable
	case strings.Contains(msg, "timeout"):
		return ErrCodeTimeout
	case strings.Contains(msg, "net::err"), strings.Contains(msg, "navigat"):
		return ErrCodeNavigation
	}
	return ErrCodeExecutionFailure
}
