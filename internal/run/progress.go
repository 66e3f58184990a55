package run

import (
	"sync/atomic"

	"github.com/goeslapse/goesdown/internal/domain"
)

// Snapshot is a point-in-time view of run progress, served by the status
// endpoint and logged at a coarse interval.
type Snapshot struct {
	Submitted int64 `json:"submitted"`
	Completed int64 `json:"completed"`
	Skipped   int64 `json:"skipped"`
	Failed    int64 `json:"failed"`
	InFlight  int64 `json:"in_flight"`
	Pending   int64 `json:"pending"`
}

// Progress tracks live counters for a run. All updates are atomic; the
// coordinator and the status server read it concurrently.
type Progress struct {
	submitted atomic.Int64
	completed atomic.Int64
	skipped   atomic.Int64
	failed    atomic.Int64
	inFlight  atomic.Int64
}

func (p *Progress) submit(n int) {
	p.submitted.Add(int64(n))
}

func (p *Progress) transferStarted() {
	p.inFlight.Add(1)
}

func (p *Progress) transferDone() {
	p.inFlight.Add(-1)
}

func (p *Progress) observe(o domain.Outcome) {
	switch o.Status {
	case domain.OutcomeCompleted:
		p.completed.Add(1)
	case domain.OutcomeSkipped:
		p.skipped.Add(1)
	case domain.OutcomeFailed:
		p.failed.Add(1)
	}
}

// Snapshot returns the current counters.
func (p *Progress) Snapshot() Snapshot {
	s := Snapshot{
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Skipped:   p.skipped.Load(),
		Failed:    p.failed.Load(),
		InFlight:  p.inFlight.Load(),
	}
	s.Pending = s.Submitted - s.Completed - s.Skipped - s.Failed - s.InFlight
	return s
}
