package reporting

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/xkilldash9x/speckled/api/schemas"
)

// TextReporter prints one line per result as it arrives and a summary on
// Close.
type TextReporter struct {
	mu     sync.Mutex
	writer io.WriteCloser
	passed int
	failed int
	closed bool
}

// NewTextReporter creates a reporter that takes ownership of w.
func NewTextReporter(w io.WriteCloser) *TextReporter {
	return &TextReporter{writer: w}
}

// Write implements Reporter.
func (r *TextReporter) Write(result *schemas.SpecResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("reporter is closed")
	}

	status, detail := "PASS", result.Explanation
	switch {
	case result.Failed():
		status, detail = "ERROR", fmt.Sprintf("%s: %s", result.FailureKind, result.Error)
		r.failed++
	case !result.Success:
		status = "FAIL"
		r.failed++
	default:
		r.passed++
	}
	_, err := fmt.Fprintf(r.writer, "%-5s %s (%d steps, %s): %s\n",
		status, result.Name, result.Steps, result.Duration.Round(time.Millisecond), detail)
	return err
}

// Close implements Reporter. It is safe to call more than once.
func (r *TextReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	_, err := fmt.Fprintf(r.writer, "%d passed, %d failed\n", r.passed, r.failed)
	if cerr := r.writer.Close(); err == nil {
		err = cerr
	}
	return err
}
