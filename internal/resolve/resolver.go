package resolve

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/goeslapse/goesdown/internal/domain"
	errpkg "github.com/goeslapse/goesdown/internal/errors"
)

// Resolution is the result of mapping a source URL onto the local
// filesystem before any network activity.
type Resolution struct {
	Task domain.DownloadTask
	// AlreadyComplete is set when a finished file is already present at
	// the destination; the task must be resolved to a Skipped outcome
	// without invoking a transfer.
	AlreadyComplete bool
}

// Resolver derives deterministic destination paths from source URLs and
// detects work that is already done. Destination paths are claimed on
// first use; a second URL resolving to the same path is a data error.
type Resolver struct {
	outputDir string

	mu      sync.Mutex
	claimed map[string]string // destination path -> first claiming URL
}

// New creates a Resolver rooted at the given output directory.
func New(outputDir string) *Resolver {
	return &Resolver{
		outputDir: outputDir,
		claimed:   make(map[string]string),
	}
}

// Resolve maps sourceURL to a destination path under the output directory,
// named after the URL's final path segment, and checks the local filesystem
// for an existing complete file. Completed files are only ever visible at
// the final path, so a non-empty file there is authoritative proof of
// completion.
func (r *Resolver) Resolve(sourceURL string) (Resolution, error) {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return Resolution{}, fmt.Errorf("parse URL %q: %w", sourceURL, err)
	}

	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return Resolution{}, fmt.Errorf("URL %q has no usable file name", sourceURL)
	}

	destPath := filepath.Join(r.outputDir, name)

	r.mu.Lock()
	if first, taken := r.claimed[destPath]; taken {
		r.mu.Unlock()
		return Resolution{}, fmt.Errorf("%w: %q and %q both resolve to %s",
			errpkg.ErrDestinationCollision, first, sourceURL, destPath)
	}
	r.claimed[destPath] = sourceURL
	r.mu.Unlock()

	task := domain.DownloadTask{SourceURL: sourceURL, DestPath: destPath}

	if info, err := os.Stat(destPath); err == nil && info.Mode().IsRegular() && info.Size() > 0 {
		return Resolution{Task: task, AlreadyComplete: true}, nil
	}

	return Resolution{Task: task}, nil
}
