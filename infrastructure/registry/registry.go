// Package registry tracks live tunnels and evicts idle ones, adapted
// from the teacher's session.Repository + ConcurrentRepository +
// RunIdleReaperLoop pattern (spec.md §3 TunnelRegistry, §4.6).
package registry

import (
	"context"
	"sync"
	"time"

	"github.com/y5a9f2y/proxy/application"
	"github.com/y5a9f2y/proxy/infrastructure/tunnel"
)

// Registry is a concurrency-safe set of live tunnels, keyed by ID.
type Registry struct {
	mu      sync.Mutex
	tunnels map[uint64]*tunnel.Tunnel

	logger      application.Logger
	maxIdleTime time.Duration
}

// New builds an empty Registry. maxIdleTime configures the idle-reaper
// loop's eviction threshold (spec.md §6's max_idle_time).
func New(logger application.Logger, maxIdleTime time.Duration) *Registry {
	return &Registry{
		tunnels:     make(map[uint64]*tunnel.Tunnel),
		logger:      logger,
		maxIdleTime: maxIdleTime,
	}
}

// Add registers t under its ID. A duplicate ID replaces the prior entry
// without closing it — callers must not reuse IDs for distinct tunnels.
func (r *Registry) Add(t *tunnel.Tunnel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tunnels[t.ID] = t
}

// Remove drops id from the registry without closing the tunnel. Callers
// that want the socket closed too should call tunnel.Close separately;
// the eviction loop does both (see evictOnce).
func (r *Registry) Remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tunnels, id)
}

// Get returns the tunnel registered under id, if any.
func (r *Registry) Get(id uint64) (*tunnel.Tunnel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tunnels[id]
	return t, ok
}

// Len reports the number of tracked tunnels.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tunnels)
}

// snapshot copies the current tunnel set so eviction can run its idle
// checks without holding the registry lock across Close calls.
func (r *Registry) snapshot() []*tunnel.Tunnel {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*tunnel.Tunnel, 0, len(r.tunnels))
	for _, t := range r.tunnels {
		out = append(out, t)
	}
	return out
}

// evictOnce closes and drops every tunnel idle for longer than
// maxIdleTime, returning how many were evicted.
func (r *Registry) evictOnce(now time.Time) int {
	evicted := 0
	for _, t := range r.snapshot() {
		if t.IdleFor(now) <= r.maxIdleTime {
			continue
		}
		t.Close()
		r.Remove(t.ID)
		evicted++
	}
	return evicted
}

// RunIdleReaperLoop polls every interval until ctx is cancelled,
// evicting tunnels that have been idle past maxIdleTime. Mirrors the
// teacher's session reaper: a single goroutine, no per-tunnel timers.
func (r *Registry) RunIdleReaperLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := r.evictOnce(now); n > 0 {
				r.logger.Printf("registry: evicted %d idle tunnel(s)", n)
			}
		}
	}
}

// CloseAll closes every tracked tunnel, used on shutdown.
func (r *Registry) CloseAll() {
	for _, t := range r.snapshot() {
		t.Close()
		r.Remove(t.ID)
	}
}
