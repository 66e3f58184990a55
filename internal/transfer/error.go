package transfer

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/goeslapse/goesdown/internal/domain"
)

// Error classifies a failed transfer attempt. Temporary errors are retried
// up to the configured limit; everything else surfaces immediately.
type Error struct {
	Kind      domain.ErrorKind
	Temporary bool
	// RetryAfter is a server-provided delay hint (429 responses). Zero
	// means no hint; the standard backoff schedule applies.
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func networkError(err error) *Error {
	return &Error{Kind: domain.ErrKindNetwork, Temporary: true, Err: err}
}

func ioError(err error) *Error {
	return &Error{Kind: domain.ErrKindIO, Err: err}
}

// statusError classifies a non-2xx response. 5xx is transient, 429 is
// rate limiting with an optional server hint, any other 4xx is terminal.
func statusError(resp *http.Response) *Error {
	err := fmt.Errorf("unexpected status: %s", resp.Status)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &Error{
			Kind:       domain.ErrKindRateLimited,
			Temporary:  true,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        err,
		}
	case resp.StatusCode >= 500:
		return &Error{Kind: domain.ErrKindHTTPStatus, Temporary: true, Err: err}
	default:
		return &Error{Kind: domain.ErrKindHTTPStatus, Err: err}
	}
}

func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
