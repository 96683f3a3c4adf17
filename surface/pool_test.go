// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"bytes"
	"context"
	"image/color"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"testing/synctest"
	"time"
)

func TestNewPool(t *testing.T) {
	tests := []struct {
		name    string
		maxSize int
		want    int
	}{
		{"positive size", 5, 5},
		{"zero defaults", 0, DefaultMaxPoolSize},
		{"negative defaults", -3, DefaultMaxPoolSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewPool(tt.maxSize).Stats().MaxSize; got != tt.want {
				t.Errorf("MaxSize = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPool_ReuseDoesNotCreate(t *testing.T) {
	p := NewPool(4)

	first := p.Acquire(100, 100)
	p.Release(first)
	second := p.Acquire(50, 70)

	if second != first {
		t.Error("Acquire should reuse the released surface")
	}
	if second.Width() != 50 || second.Height() != 70 {
		t.Errorf("reused surface is %dx%d, want 50x70", second.Width(), second.Height())
	}

	stats := p.Stats()
	if stats.Created != 1 {
		t.Errorf("Created = %d, want 1", stats.Created)
	}
	if stats.Reused != 1 {
		t.Errorf("Reused = %d, want 1", stats.Reused)
	}
	if stats.ReuseRate != 0.5 {
		t.Errorf("ReuseRate = %v, want 0.5", stats.ReuseRate)
	}
	if stats.InUse != 1 || stats.Idle != 0 {
		t.Errorf("InUse/Idle = %d/%d, want 1/0", stats.InUse, stats.Idle)
	}
}

func TestPool_AcquireClears(t *testing.T) {
	p := NewPool(2)
	s := p.Acquire(8, 8)
	s.Fill(color.White)
	p.Release(s)

	s = p.Acquire(8, 8)
	for i, v := range s.Data() {
		if v != 0 {
			t.Fatalf("Data()[%d] = %d on reacquired surface, want 0", i, v)
		}
	}
}

func TestPool_ReleaseBeyondCapacityDestroys(t *testing.T) {
	const maxSize = 3
	p := NewPool(maxSize)

	surfaces := make([]*Surface, maxSize+2)
	for i := range surfaces {
		surfaces[i] = p.Acquire(10, 10)
	}
	for _, s := range surfaces {
		p.Release(s)
	}

	stats := p.Stats()
	if stats.Idle != maxSize {
		t.Errorf("Idle = %d, want %d", stats.Idle, maxSize)
	}
	if stats.Destroyed != 2 {
		t.Errorf("Destroyed = %d, want 2", stats.Destroyed)
	}
	if stats.InUse != 0 {
		t.Errorf("InUse = %d, want 0", stats.InUse)
	}
	for _, s := range surfaces[maxSize:] {
		if !s.Disposed() {
			t.Error("surface released into a full pool should be destroyed")
		}
	}
}

func TestPool_DoubleReleaseIsNoop(t *testing.T) {
	var buf bytes.Buffer
	p := NewPool(4, WithPoolLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	s := p.Acquire(10, 10)
	p.Release(s)
	p.Release(s)

	stats := p.Stats()
	if stats.Idle != 1 {
		t.Errorf("Idle = %d after double release, want 1", stats.Idle)
	}
	if !strings.Contains(buf.String(), "not in use") {
		t.Errorf("expected a warning, got %q", buf.String())
	}
}

func TestPool_ReleaseUntracked(t *testing.T) {
	var buf bytes.Buffer
	p := NewPool(4, WithPoolLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	p.Release(New(5, 5))
	p.Release(nil)

	if stats := p.Stats(); stats.Idle != 0 || stats.Destroyed != 0 {
		t.Errorf("untracked release changed the pool: %v", stats)
	}
	if !strings.Contains(buf.String(), "level=WARN") {
		t.Errorf("expected a warning, got %q", buf.String())
	}
}

func TestPool_ReleaseDisposedByHolder(t *testing.T) {
	p := NewPool(4)
	s := p.Acquire(5, 5)
	s.Destroy()
	p.Release(s)

	if stats := p.Stats(); stats.Idle != 0 || stats.InUse != 0 {
		t.Errorf("disposed surface should leave the pool, got %v", stats)
	}
}

func TestPool_AcquireSkipsIdleDestroyedAfterRelease(t *testing.T) {
	p := NewPool(4)
	stale := p.Acquire(10, 10)
	p.Release(stale)
	stale.Destroy()

	s := p.Acquire(20, 30)
	if s == stale {
		t.Fatal("Acquire returned a surface destroyed after release")
	}
	if s.Disposed() || s.Width() != 20 || s.Height() != 30 || len(s.Data()) != 20*30*BytesPerPixel {
		t.Errorf("Acquire() = %dx%d disposed=%v, want live 20x30", s.Width(), s.Height(), s.Disposed())
	}

	stats := p.Stats()
	if stats.Created != 2 || stats.Reused != 0 || stats.Destroyed != 1 {
		t.Errorf("stats = %v, want 2 created, 0 reused, 1 destroyed", stats)
	}
	if stats.Idle != 0 || stats.InUse != 1 {
		t.Errorf("Idle/InUse = %d/%d, want 0/1", stats.Idle, stats.InUse)
	}
}

func TestPool_Cleanup(t *testing.T) {
	p := NewPool(8)
	surfaces := make([]*Surface, 8)
	for i := range surfaces {
		surfaces[i] = p.Acquire(10, 10)
	}
	for _, s := range surfaces {
		p.Release(s)
	}

	if n := p.Cleanup(); n != 4 {
		t.Errorf("Cleanup() = %d, want 4", n)
	}
	if idle := p.Stats().Idle; idle != 4 {
		t.Errorf("Idle = %d, want 4", idle)
	}
	if n := p.Cleanup(); n != 0 {
		t.Errorf("second Cleanup() = %d, want 0", n)
	}
}

func TestPool_RunShrinksIdle(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		p := NewPool(4)
		acquired := []*Surface{p.Acquire(1, 1), p.Acquire(1, 1), p.Acquire(1, 1), p.Acquire(1, 1)}
		for _, s := range acquired {
			p.Release(s)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go p.Run(ctx, time.Second)

		time.Sleep(time.Second + time.Millisecond)
		synctest.Wait()
		if idle := p.Stats().Idle; idle != 2 {
			t.Errorf("Idle = %d after cleanup tick, want 2", idle)
		}
	})
}

func TestPool_Close(t *testing.T) {
	p := NewPool(4)
	a, b := p.Acquire(1, 1), p.Acquire(1, 1)
	p.Release(a)
	p.Close()

	if !a.Disposed() {
		t.Error("Close should destroy idle surfaces")
	}
	p.Release(b)
	if !b.Disposed() {
		t.Error("release after Close should destroy")
	}
	if idle := p.Stats().Idle; idle != 0 {
		t.Errorf("Idle = %d after Close, want 0", idle)
	}
}

func TestPool_Concurrent(t *testing.T) {
	p := NewPool(8)
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				s := p.Acquire(16, 16)
				p.Release(s)
			}
		}()
	}
	wg.Wait()

	stats := p.Stats()
	if stats.InUse != 0 {
		t.Errorf("InUse = %d, want 0", stats.InUse)
	}
	if stats.Idle > 8 {
		t.Errorf("Idle = %d exceeds capacity", stats.Idle)
	}
	if stats.Created+stats.Reused != 1600 {
		t.Errorf("Created+Reused = %d, want 1600", stats.Created+stats.Reused)
	}
}

func TestPoolStatsString(t *testing.T) {
	s := PoolStats{Idle: 1, InUse: 2, Created: 3, Reused: 1, ReuseRate: 0.25}
	if got := s.String(); !strings.Contains(got, "25.0% reuse") {
		t.Errorf("String() = %q", got)
	}
}
