// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/pdfview/internal/logging"
)

// DefaultMaxPoolSize is the default number of idle surfaces kept by a Pool.
const DefaultMaxPoolSize = 20

// PoolStats contains pool statistics for diagnostics panels.
// The counters never influence pool behavior.
type PoolStats struct {
	// Idle is the number of surfaces waiting for reuse.
	Idle int
	// InUse is the number of surfaces handed out and not yet released.
	InUse int
	// MaxSize is the idle capacity.
	MaxSize int
	// Created is the number of surfaces allocated by Acquire.
	Created uint64
	// Reused is the number of Acquire calls served from the idle list.
	Reused uint64
	// Destroyed is the number of surfaces destroyed by Release, Cleanup or Close,
	// plus idle surfaces found destroyed by a former holder.
	Destroyed uint64
	// ReuseRate is Reused / (Created + Reused), or 0 before the first Acquire.
	ReuseRate float64
}

// String returns a human-readable summary of the stats.
func (s PoolStats) String() string {
	return fmt.Sprintf("Pool[%d idle, %d in use, %d created, %d reused, %d destroyed, %.1f%% reuse]",
		s.Idle, s.InUse, s.Created, s.Reused, s.Destroyed, s.ReuseRate*100)
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithPoolLogger sets the logger used for warnings and cleanup diagnostics.
func WithPoolLogger(l *slog.Logger) PoolOption {
	return func(p *Pool) {
		p.logger = logging.OrNop(l)
	}
}

// Pool recycles surfaces to avoid allocation churn while scrolling.
//
// Every surface created by the pool is either idle (owned by the pool) or in
// use (owned by whoever acquired it). Idle surfaces have no size affinity:
// Acquire takes any idle surface and resizes it.
//
// Pool is safe for concurrent use.
type Pool struct {
	mu      sync.Mutex
	idle    []*Surface
	inUse   map[*Surface]struct{}
	maxSize int
	closed  bool
	logger  *slog.Logger

	// Statistics (atomic for lock-free reads)
	created   atomic.Uint64
	reused    atomic.Uint64
	destroyed atomic.Uint64
}

// NewPool creates a pool that keeps at most maxSize idle surfaces.
// A non-positive maxSize selects DefaultMaxPoolSize.
func NewPool(maxSize int, opts ...PoolOption) *Pool {
	if maxSize <= 0 {
		maxSize = DefaultMaxPoolSize
	}
	p := &Pool{
		idle:    make([]*Surface, 0, maxSize),
		inUse:   make(map[*Surface]struct{}),
		maxSize: maxSize,
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Acquire returns a cleared surface of the given size, reusing an idle
// surface when one exists. Width and height must be positive.
func (p *Pool) Acquire(width, height int) *Surface {
	mustPositive(width, height)

	p.mu.Lock()
	defer p.mu.Unlock()

	for n := len(p.idle); n > 0; n = len(p.idle) {
		s := p.idle[n-1]
		p.idle[n-1] = nil
		p.idle = p.idle[:n-1]
		// Resize clears the pixels. It fails only for a surface destroyed
		// by a former holder after release.
		if err := s.Resize(width, height); err != nil {
			p.logger.Warn("surface: dropped idle surface", "id", s.ID(), "error", err)
			p.destroyed.Add(1)
			continue
		}
		p.inUse[s] = struct{}{}
		p.reused.Add(1)
		return s
	}

	s := New(width, height)
	p.inUse[s] = struct{}{}
	p.created.Add(1)
	return s
}

// Release hands a surface back to the pool. The surface is kept for reuse
// while the idle list has room and destroyed otherwise.
//
// Releasing a surface that is not in use is logged and ignored.
func (p *Pool) Release(s *Surface) {
	if s == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.inUse[s]; !ok {
		p.logger.Warn("surface: release of surface not in use",
			"id", s.ID(), "disposed", s.Disposed())
		return
	}
	delete(p.inUse, s)

	if s.Disposed() {
		p.logger.Warn("surface: released surface was destroyed by its holder", "id", s.ID())
		return
	}
	if p.closed || len(p.idle) >= p.maxSize {
		p.destroy(s)
		return
	}
	s.Clear()
	p.idle = append(p.idle, s)
}

// Cleanup shrinks the idle list to half of the pool capacity so a burst of
// large surfaces does not linger. It returns the number of surfaces destroyed.
func (p *Pool) Cleanup() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	target := p.maxSize / 2
	n := 0
	for len(p.idle) > target {
		last := len(p.idle) - 1
		p.destroy(p.idle[last])
		p.idle[last] = nil
		p.idle = p.idle[:last]
		n++
	}
	if n > 0 {
		p.logger.Debug("surface: pool cleanup", "destroyed", n, "idle", len(p.idle))
	}
	return n
}

// Run calls Cleanup every interval until ctx is done.
func (p *Pool) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Cleanup()
		}
	}
}

// Close destroys all idle surfaces. Surfaces released after Close are
// destroyed instead of pooled.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, s := range p.idle {
		p.destroy(s)
		p.idle[i] = nil
	}
	p.idle = p.idle[:0]
	p.closed = true
}

// Stats returns current pool statistics.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	idle, inUse := len(p.idle), len(p.inUse)
	p.mu.Unlock()

	created := p.created.Load()
	reused := p.reused.Load()

	var rate float64
	if total := created + reused; total > 0 {
		rate = float64(reused) / float64(total)
	}

	return PoolStats{
		Idle:      idle,
		InUse:     inUse,
		MaxSize:   p.maxSize,
		Created:   created,
		Reused:    reused,
		Destroyed: p.destroyed.Load(),
		ReuseRate: rate,
	}
}

// destroy must be called with p.mu held.
func (p *Pool) destroy(s *Surface) {
	s.Destroy()
	p.destroyed.Add(1)
}
