package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/goeslapse/goesdown/internal/config"
	"github.com/goeslapse/goesdown/internal/domain"
)

// Unit performs one URL-to-file download including retries. Bytes are
// staged in a temporary file next to the destination and renamed into
// place only after the full body has been received and verified, so a
// partially written file is never visible at the final path.
type Unit struct {
	client *http.Client
	cfg    *config.Config
	logger *slog.Logger
}

// NewUnit creates a Unit using the provided HTTP client and configuration.
func NewUnit(client *http.Client, cfg *config.Config, logger *slog.Logger) *Unit {
	if client == nil {
		client = &http.Client{Timeout: cfg.TransferTimeout}
	}
	return &Unit{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// Fetch downloads the task's URL into its destination path, retrying
// transient failures with exponential backoff. It always returns a
// terminal outcome; it never panics the run on a single bad URL.
func (u *Unit) Fetch(ctx context.Context, task domain.DownloadTask) domain.Outcome {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = u.cfg.RetryBaseDelay
	bo.MaxInterval = u.cfg.RetryMaxDelay
	bo.MaxElapsedTime = 0
	// Deterministic schedule: delays grow monotonically up to the cap.
	bo.RandomizationFactor = 0
	bo.Reset()

	maxAttempts := u.cfg.RetryLimit + 1

	for attempt := 1; ; attempt++ {
		written, err := u.attempt(ctx, task)
		if err == nil {
			u.logger.Debug("transfer completed",
				"url", task.SourceURL,
				"bytes", written,
				"attempts", attempt,
			)
			return domain.CompletedOutcome(task, written, attempt)
		}

		var terr *Error
		if !errors.As(err, &terr) {
			terr = ioError(err)
		}

		if ctx.Err() != nil {
			return domain.FailedOutcome(task, domain.ErrKindNetwork, attempt, ctx.Err())
		}

		if !terr.Temporary || attempt >= maxAttempts {
			u.logger.Error("transfer failed",
				"url", task.SourceURL,
				"kind", terr.Kind,
				"attempts", attempt,
				"error", terr.Err,
			)
			return domain.FailedOutcome(task, terr.Kind, attempt, terr.Err)
		}

		delay := bo.NextBackOff()
		if terr.RetryAfter > 0 {
			delay = terr.RetryAfter
		}

		u.logger.Warn("transfer attempt failed, retrying",
			"url", task.SourceURL,
			"kind", terr.Kind,
			"attempt", attempt,
			"delay", delay,
			"error", terr.Err,
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return domain.FailedOutcome(task, domain.ErrKindNetwork, attempt, ctx.Err())
		}
	}
}

// attempt performs a single GET and staged write. Any temporary file is
// removed before returning an error.
func (u *Unit) attempt(ctx context.Context, task domain.DownloadTask) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, task.SourceURL, nil)
	if err != nil {
		return 0, &Error{Kind: domain.ErrKindNetwork, Err: fmt.Errorf("create request: %w", err)}
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return 0, networkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, statusError(resp)
	}

	tempPath := fmt.Sprintf("%s.%s.part", task.DestPath, uuid.NewString()[:8])
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, ioError(fmt.Errorf("create temp file: %w", err))
	}

	written, copyErr := copyWithContext(ctx, file, resp.Body)
	closeErr := file.Close()

	if copyErr != nil {
		_ = os.Remove(tempPath)
		return 0, copyErr
	}
	if closeErr != nil {
		_ = os.Remove(tempPath)
		return 0, ioError(fmt.Errorf("close temp file: %w", closeErr))
	}

	// A short body against an advertised Content-Length means the
	// connection was cut; the server copy is assumed intact, retry.
	if resp.ContentLength >= 0 && written != resp.ContentLength {
		_ = os.Remove(tempPath)
		return 0, networkError(fmt.Errorf("truncated body: got %d of %d bytes", written, resp.ContentLength))
	}

	if err := os.Rename(tempPath, task.DestPath); err != nil {
		_ = os.Remove(tempPath)
		return 0, ioError(fmt.Errorf("rename into place: %w", err))
	}

	return written, nil
}

// copyWithContext streams src into dst, aborting between reads when ctx
// is cancelled. Read failures are network errors, write failures are
// local I/O errors.
func copyWithContext(ctx context.Context, dst *os.File, src io.Reader) (int64, error) {
	buf := make([]byte, 32*1024)
	var total int64

	for {
		select {
		case <-ctx.Done():
			return total, networkError(ctx.Err())
		default:
			nr, rerr := src.Read(buf)
			if nr > 0 {
				nw, werr := dst.Write(buf[:nr])
				if nw > 0 {
					total += int64(nw)
				}
				if werr != nil {
					return total, ioError(werr)
				}
				if nr != nw {
					return total, ioError(io.ErrShortWrite)
				}
			}
			if rerr != nil {
				if rerr == io.EOF {
					return total, nil
				}
				return total, networkError(rerr)
			}
		}
	}
}
