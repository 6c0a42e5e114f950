package schemas

import "time"

// SpecResult is the outcome of one specification in a suite. Exactly one
// of a verdict (Success/Explanation) or a failure (FailureKind/Error) is
// meaningful.
type SpecResult struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Target      string        `json:"target,omitempty"`
	RunID       string        `json:"run_id,omitempty"`
	Success     bool          `json:"success"`
	Explanation string        `json:"explanation,omitempty"`
	FailureKind string        `json:"failure_kind,omitempty"`
	Error       string        `json:"error,omitempty"`
	Steps       int           `json:"steps"`
	Duration    time.Duration `json:"duration_ns"`
	Transcript  []string      `json:"transcript,omitempty"`
}

// Failed reports whether the run ended without a verdict.
func (r SpecResult) Failed() bool { return r.FailureKind != "" }

// Passed reports whether the run produced a successful verdict.
func (r SpecResult) Passed() bool { return r.Success && !r.Failed() }

// SuiteReport aggregates the results of a suite run.
type SuiteReport struct {
	ID        string        `json:"id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	Passed    int           `json:"passed"`
	Failed    int           `json:"failed"`
	Results   []SpecResult  `json:"results"`
}

// OK reports whether every spec passed.
func (r *SuiteReport) OK() bool { return r.Failed == 0 && r.Passed == len(r.Results) }
