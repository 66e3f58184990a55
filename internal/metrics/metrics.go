package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DownloadsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "goesdown_downloads_submitted_total",
		Help: "Total number of download tasks submitted",
	})

	DownloadsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "goesdown_downloads_completed_total",
		Help: "Total number of downloads completed",
	})

	DownloadsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "goesdown_downloads_skipped_total",
		Help: "Total number of downloads skipped as already complete",
	})

	DownloadsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "goesdown_downloads_failed_total",
		Help: "Total number of downloads failed",
	})

	DownloadsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "goesdown_downloads_in_flight",
		Help: "Number of transfers currently holding a slot",
	})

	DownloadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "goesdown_download_duration_seconds",
		Help:    "Download duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	DownloadBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "goesdown_download_bytes_total",
		Help: "Total bytes downloaded",
	})
)
