package transfer

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goeslapse/goesdown/internal/config"
	"github.com/goeslapse/goesdown/internal/domain"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(retries int) *config.Config {
	return &config.Config{
		MaxConcurrent:   4,
		MaxPerHost:      4,
		RetryLimit:      retries,
		RetryBaseDelay:  20 * time.Millisecond,
		RetryMaxDelay:   100 * time.Millisecond,
		TransferTimeout: 5 * time.Second,
	}
}

func taskFor(t *testing.T, url string) domain.DownloadTask {
	t.Helper()
	return domain.DownloadTask{
		SourceURL: url,
		DestPath:  filepath.Join(t.TempDir(), "out.jpg"),
	}
}

// leftovers returns any .part files next to the destination.
func leftovers(t *testing.T, destPath string) []string {
	t.Helper()
	matches, err := filepath.Glob(destPath + ".*.part")
	require.NoError(t, err)
	return matches
}

func TestUnit_Fetch_Success(t *testing.T) {
	const body = "jpeg bytes"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, body)
	}))
	defer server.Close()

	unit := NewUnit(nil, testConfig(3), newTestLogger())
	task := taskFor(t, server.URL+"/frame.jpg")

	outcome := unit.Fetch(context.Background(), task)

	assert.Equal(t, domain.OutcomeCompleted, outcome.Status)
	assert.Equal(t, int64(len(body)), outcome.BytesWritten)
	assert.Equal(t, 1, outcome.Attempts)

	data, err := os.ReadFile(task.DestPath)
	require.NoError(t, err)
	assert.Equal(t, body, string(data))
	assert.Empty(t, leftovers(t, task.DestPath))
}

func TestUnit_Fetch_RetriesTransientThenSucceeds(t *testing.T) {
	var calls atomic.Int32

	// Successive attempts run in separate handler goroutines; the gap
	// log needs its own lock.
	var mu sync.Mutex
	var lastStart time.Time
	var gaps []time.Duration

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		mu.Lock()
		if !lastStart.IsZero() {
			gaps = append(gaps, now.Sub(lastStart))
		}
		lastStart = now
		mu.Unlock()
		if calls.Add(1) <= 2 {
			http.Error(w, "flaky", http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, "ok")
	}))
	defer server.Close()

	unit := NewUnit(nil, testConfig(3), newTestLogger())
	outcome := unit.Fetch(context.Background(), taskFor(t, server.URL+"/frame.jpg"))

	assert.Equal(t, domain.OutcomeCompleted, outcome.Status)
	assert.Equal(t, 3, outcome.Attempts)
	assert.Equal(t, int32(3), calls.Load())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, gaps, 2)
	assert.GreaterOrEqual(t, gaps[1], gaps[0])
}

func TestUnit_Fetch_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer server.Close()

	unit := NewUnit(nil, testConfig(2), newTestLogger())
	task := taskFor(t, server.URL+"/frame.jpg")
	outcome := unit.Fetch(context.Background(), task)

	assert.Equal(t, domain.OutcomeFailed, outcome.Status)
	assert.Equal(t, domain.ErrKindHTTPStatus, outcome.ErrorKind)
	assert.Equal(t, 3, outcome.Attempts)
	assert.Equal(t, int32(3), calls.Load())

	_, err := os.Stat(task.DestPath)
	assert.True(t, os.IsNotExist(err))
	assert.Empty(t, leftovers(t, task.DestPath))
}

func TestUnit_Fetch_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	unit := NewUnit(nil, testConfig(3), newTestLogger())
	outcome := unit.Fetch(context.Background(), taskFor(t, server.URL+"/missing.jpg"))

	assert.Equal(t, domain.OutcomeFailed, outcome.Status)
	assert.Equal(t, domain.ErrKindHTTPStatus, outcome.ErrorKind)
	assert.Equal(t, 1, outcome.Attempts)
	assert.Equal(t, int32(1), calls.Load())
}

func TestUnit_Fetch_RateLimitHonorsRetryAfter(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = io.WriteString(w, "ok")
	}))
	defer server.Close()

	unit := NewUnit(nil, testConfig(3), newTestLogger())
	start := time.Now()
	outcome := unit.Fetch(context.Background(), taskFor(t, server.URL+"/frame.jpg"))

	assert.Equal(t, domain.OutcomeCompleted, outcome.Status)
	assert.Equal(t, 2, outcome.Attempts)
	// The server hint overrides the much shorter configured base delay.
	assert.GreaterOrEqual(t, time.Since(start), 900*time.Millisecond)
}

func TestUnit_Fetch_TruncatedBodyLeavesNoFinalFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "short")
	}))
	defer server.Close()

	unit := NewUnit(nil, testConfig(0), newTestLogger())
	task := taskFor(t, server.URL+"/frame.jpg")
	outcome := unit.Fetch(context.Background(), task)

	assert.Equal(t, domain.OutcomeFailed, outcome.Status)
	assert.Equal(t, domain.ErrKindNetwork, outcome.ErrorKind)

	_, err := os.Stat(task.DestPath)
	assert.True(t, os.IsNotExist(err))
	assert.Empty(t, leftovers(t, task.DestPath))
}

func TestUnit_Fetch_CancellationRemovesTempFile(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1048576")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(make([]byte, 1024))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-release
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	unit := NewUnit(nil, testConfig(3), newTestLogger())
	task := taskFor(t, server.URL+"/frame.jpg")
	outcome := unit.Fetch(ctx, task)

	assert.Equal(t, domain.OutcomeFailed, outcome.Status)

	_, err := os.Stat(task.DestPath)
	assert.True(t, os.IsNotExist(err))
	assert.Empty(t, leftovers(t, task.DestPath))
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "empty", value: "", want: 0},
		{name: "seconds", value: "7", want: 7 * time.Second},
		{name: "negative", value: "-3", want: 0},
		{name: "garbage", value: "soon", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseRetryAfter(tt.value); got != tt.want {
				t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
