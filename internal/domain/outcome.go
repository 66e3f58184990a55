package domain

// OutcomeStatus represents the terminal state of a DownloadTask.
type OutcomeStatus string

const (
	OutcomeCompleted OutcomeStatus = "completed"
	OutcomeSkipped   OutcomeStatus = "skipped"
	OutcomeFailed    OutcomeStatus = "failed"
)

// ErrorKind classifies a failed transfer for reporting and retry decisions.
type ErrorKind string

const (
	ErrKindNetwork     ErrorKind = "network"
	ErrKindHTTPStatus  ErrorKind = "http_status"
	ErrKindRateLimited ErrorKind = "rate_limited"
	ErrKindIO          ErrorKind = "io"
	ErrKindConfig      ErrorKind = "configuration"
)

// SkipReason explains why a task was resolved without a transfer.
type SkipReason string

const SkipAlreadyComplete SkipReason = "already_complete"

// Outcome is the single terminal result of a DownloadTask. Exactly one
// Outcome is produced per task.
type Outcome struct {
	Task         DownloadTask
	Status       OutcomeStatus
	BytesWritten int64
	SkipReason   SkipReason
	ErrorKind    ErrorKind
	Attempts     int
	Error        string
}

// CompletedOutcome builds the terminal result of a successful transfer.
func CompletedOutcome(task DownloadTask, bytes int64, attempts int) Outcome {
	return Outcome{Task: task, Status: OutcomeCompleted, BytesWritten: bytes, Attempts: attempts}
}

// SkippedOutcome builds the terminal result of a task resolved without
// any network activity.
func SkippedOutcome(task DownloadTask, reason SkipReason) Outcome {
	return Outcome{Task: task, Status: OutcomeSkipped, SkipReason: reason}
}

// FailedOutcome builds the terminal result of a task that exhausted its
// attempts or hit a non-retriable error.
func FailedOutcome(task DownloadTask, kind ErrorKind, attempts int, err error) Outcome {
	o := Outcome{Task: task, Status: OutcomeFailed, ErrorKind: kind, Attempts: attempts}
	if err != nil {
		o.Error = err.Error()
	}
	return o
}
