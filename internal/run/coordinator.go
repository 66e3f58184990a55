// Package run drives a whole download job: it ingests the URL list,
// hands tasks to the governor, aggregates terminal outcomes, and emits
// the final report. A single failed URL never aborts the batch.
package run

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/goeslapse/goesdown/internal/config"
	"github.com/goeslapse/goesdown/internal/domain"
	errpkg "github.com/goeslapse/goesdown/internal/errors"
	"github.com/goeslapse/goesdown/internal/governor"
	"github.com/goeslapse/goesdown/internal/metrics"
	"github.com/goeslapse/goesdown/internal/resolve"
	"github.com/goeslapse/goesdown/internal/validation"
)

// Fetcher performs one download and reports its terminal outcome.
type Fetcher interface {
	Fetch(ctx context.Context, task domain.DownloadTask) domain.Outcome
}

// Coordinator owns one download job from URL list to final report.
type Coordinator struct {
	cfg      *config.Config
	resolver *resolve.Resolver
	fetcher  Fetcher
	gov      *governor.Governor
	logger   *slog.Logger
	progress *Progress
}

// New creates a Coordinator writing into outputDir.
func New(cfg *config.Config, outputDir string, fetcher Fetcher, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		cfg:      cfg,
		resolver: resolve.New(outputDir),
		fetcher:  fetcher,
		gov:      governor.New(cfg.MaxConcurrent, cfg.MaxPerHost),
		logger:   logger,
		progress: &Progress{},
	}
}

// Progress exposes the live counters, for the status server.
func (c *Coordinator) Progress() *Progress {
	return c.progress
}

// Run executes the job to completion. Duplicate URLs are collapsed to
// their first occurrence. The run finishes only when every submitted task
// has a terminal outcome; on cancellation it stops dispatching, lets
// in-flight transfers wind down, and reports what completed.
func (c *Coordinator) Run(ctx context.Context, urls []string) (*domain.RunReport, error) {
	ordered := dedupe(urls)
	if len(ordered) == 0 {
		return nil, errpkg.ErrNoURLs
	}

	if err := validation.ValidateURLs(ordered); err != nil {
		return nil, err
	}

	c.progress.submit(len(ordered))
	metrics.DownloadsSubmitted.Add(float64(len(ordered)))

	report := &domain.RunReport{
		Submitted: len(ordered),
		StartedAt: time.Now(),
	}

	var mu sync.Mutex
	outcomes := make(map[string]domain.Outcome, len(ordered))
	record := func(o domain.Outcome) {
		mu.Lock()
		outcomes[o.Task.SourceURL] = o
		mu.Unlock()
		c.progress.observe(o)
		observeMetrics(o)
	}

	// Resolution happens up front and touches only the local filesystem:
	// already-complete files are skipped with zero network requests, and
	// destination collisions fail here before anything is dispatched.
	var backlog []domain.DownloadTask
	for _, u := range ordered {
		res, err := c.resolver.Resolve(u)
		if err != nil {
			record(domain.FailedOutcome(domain.DownloadTask{SourceURL: u}, domain.ErrKindConfig, 0, err))
			continue
		}
		if res.AlreadyComplete {
			c.logger.Debug("skipping, destination already complete", "url", u, "path", res.Task.DestPath)
			record(domain.SkippedOutcome(res.Task, domain.SkipAlreadyComplete))
			continue
		}
		backlog = append(backlog, res.Task)
	}

	c.logger.Info("run started",
		"submitted", len(ordered),
		"to_download", len(backlog),
		"skipped", len(ordered)-len(backlog),
	)

	stopProgress := make(chan struct{})
	go c.logProgress(stopProgress)

	// FIFO dispatch in submission order. The governor blocks until both
	// a global and a per-host slot are free; cancellation unblocks it.
	var g errgroup.Group
	for _, task := range backlog {
		if err := c.gov.Acquire(ctx, task.Host()); err != nil {
			c.logger.Warn("dispatch stopped", "reason", err)
			break
		}

		task := task
		g.Go(func() error {
			defer c.gov.Release(task.Host())

			c.progress.transferStarted()
			metrics.DownloadsInFlight.Inc()
			start := time.Now()

			outcome := c.fetcher.Fetch(ctx, task)

			metrics.DownloadDuration.Observe(time.Since(start).Seconds())
			metrics.DownloadsInFlight.Dec()
			c.progress.transferDone()

			record(outcome)
			return nil
		})
	}

	_ = g.Wait()
	close(stopProgress)

	c.buildReport(report, ordered, outcomes)

	c.logger.Info("run finished",
		"completed", report.Completed,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"bytes", report.BytesWritten,
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)
	for _, f := range report.Failures {
		c.logger.Error("download failed",
			"url", f.URL,
			"kind", f.Kind,
			"attempts", f.Attempts,
			"error", f.Error,
		)
	}

	return report, nil
}

// buildReport folds the outcome map into the report. Failures keep the
// original submission order so logs are reproducible; tasks that never
// got an outcome (cancelled before dispatch) are counted nowhere.
func (c *Coordinator) buildReport(report *domain.RunReport, ordered []string, outcomes map[string]domain.Outcome) {
	for _, u := range ordered {
		o, ok := outcomes[u]
		if !ok {
			continue
		}
		switch o.Status {
		case domain.OutcomeCompleted:
			report.Completed++
			report.BytesWritten += o.BytesWritten
		case domain.OutcomeSkipped:
			report.Skipped++
		case domain.OutcomeFailed:
			report.Failed++
			report.Failures = append(report.Failures, domain.Failure{
				URL:      u,
				Kind:     o.ErrorKind,
				Attempts: o.Attempts,
				Error:    o.Error,
			})
		}
	}
	report.FinishedAt = time.Now()
}

func (c *Coordinator) logProgress(stop <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.ProgressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s := c.progress.Snapshot()
			c.logger.Info("progress",
				"completed", s.Completed,
				"skipped", s.Skipped,
				"failed", s.Failed,
				"in_flight", s.InFlight,
				"pending", s.Pending,
			)
		case <-stop:
			return
		}
	}
}

func observeMetrics(o domain.Outcome) {
	switch o.Status {
	case domain.OutcomeCompleted:
		metrics.DownloadsCompleted.Inc()
		metrics.DownloadBytes.Add(float64(o.BytesWritten))
	case domain.OutcomeSkipped:
		metrics.DownloadsSkipped.Inc()
	case domain.OutcomeFailed:
		metrics.DownloadsFailed.Inc()
	}
}

// dedupe collapses repeated URLs, keeping first occurrences in order.
func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
