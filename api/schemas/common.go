package schemas

// Verdict is the terminal judgment of a run.
type Verdict struct {
	RunID       string   `json:"run_id"`
	Success     bool     `json:"success"`
	Explanation string   `json:"explanation"`
	Steps       int      `json:"steps"`
	Transcript  []string `json:"transcript,omitempty"`
}
