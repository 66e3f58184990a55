package domain

import "time"

// Failure is one failed URL in the final report, with its terminal
// error classification.
type Failure struct {
	URL      string    `json:"url"`
	Kind     ErrorKind `json:"kind"`
	Attempts int       `json:"attempts"`
	Error    string    `json:"error,omitempty"`
}

// RunReport aggregates the terminal outcomes of a whole run. Counts are
// order-independent; Failures are listed in original submission order so
// logs are reproducible across runs.
type RunReport struct {
	Submitted    int       `json:"submitted"`
	Completed    int       `json:"completed"`
	Skipped      int       `json:"skipped"`
	Failed       int       `json:"failed"`
	BytesWritten int64     `json:"bytes_written"`
	Failures     []Failure `json:"failures,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

// OK reports whether every task ended Completed or Skipped.
func (r *RunReport) OK() bool {
	return r.Failed == 0
}
