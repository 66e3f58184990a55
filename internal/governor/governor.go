// Package governor bounds how many transfers run at once, globally and
// per remote host.
package governor

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Governor hands out slots to transfer units. At most the configured
// number of global slots exist, and independently at most the per-host
// limit may target the same host. Acquisition blocks; tasks are never
// dropped.
type Governor struct {
	global       *semaphore.Weighted
	perHostLimit int64

	mu    sync.Mutex
	hosts map[string]*semaphore.Weighted
}

// New creates a Governor with the given global and per-host limits.
func New(maxConcurrent, maxPerHost int) *Governor {
	return &Governor{
		global:       semaphore.NewWeighted(int64(maxConcurrent)),
		perHostLimit: int64(maxPerHost),
		hosts:        make(map[string]*semaphore.Weighted),
	}
}

func (g *Governor) hostSem(host string) *semaphore.Weighted {
	g.mu.Lock()
	defer g.mu.Unlock()

	sem, ok := g.hosts[host]
	if !ok {
		sem = semaphore.NewWeighted(g.perHostLimit)
		g.hosts[host] = sem
	}
	return sem
}

// Acquire blocks until the caller holds both a slot for host and a
// global slot, or ctx is cancelled. The host slot is taken first so a
// host-saturated task does not pin a global slot while it waits.
func (g *Governor) Acquire(ctx context.Context, host string) error {
	hostSem := g.hostSem(host)

	if err := hostSem.Acquire(ctx, 1); err != nil {
		return err
	}
	if err := g.global.Acquire(ctx, 1); err != nil {
		hostSem.Release(1)
		return err
	}
	return nil
}

// Release returns both slots. It must be called exactly once per
// successful Acquire, on every path including failures.
func (g *Governor) Release(host string) {
	g.global.Release(1)
	g.hostSem(host).Release(1)
}
