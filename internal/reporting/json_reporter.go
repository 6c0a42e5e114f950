package reporting

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/speckled/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONReporter accumulates results and writes one schemas.SuiteReport
// document on Close.
type JSONReporter struct {
	mu     sync.Mutex
	writer io.WriteCloser
	report schemas.SuiteReport
	now    func() time.Time
	closed bool
}

// NewJSONReporter creates a reporter that takes ownership of w.
func NewJSONReporter(w io.WriteCloser) *JSONReporter {
	r := &JSONReporter{writer: w, now: time.Now}
	r.report = schemas.SuiteReport{
		ID:        uuid.NewString(),
		StartedAt: r.now().UTC(),
		Results:   []schemas.SpecResult{},
	}
	return r
}

// Write implements Reporter.
func (r *JSONReporter) Write(result *schemas.SpecResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("reporter is closed")
	}
	r.report.Results = append(r.report.Results, *result)
	if result.Passed() {
		r.report.Passed++
	} else {
		r.report.Failed++
	}
	return nil
}

// Report returns a snapshot of the accumulated report.
func (r *JSONReporter) Report() schemas.SuiteReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.report
	out.Results = append([]schemas.SpecResult(nil), r.report.Results...)
	return out
}

// Close implements Reporter. It is safe to call more than once.
func (r *JSONReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.report.Duration = r.now().UTC().Sub(r.report.StartedAt)

	enc := json.NewEncoder(r.writer)
	enc.SetIndent("", "  ")
	encErr := enc.Encode(&r.report)
	closeErr := r.writer.Close()
	if encErr != nil {
		return fmt.Errorf("failed to encode suite report: %w", encErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close report output: %w", closeErr)
	}
	return nil
}
