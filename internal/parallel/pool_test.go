package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"testing/synctest"
)

// =============================================================================
// WorkerPool Creation Tests
// =============================================================================

func TestWorkerPool_Create(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}
	if !pool.IsRunning() {
		t.Error("Pool should be running after creation")
	}
}

func TestWorkerPool_CreateDefaultWorkers(t *testing.T) {
	for _, n := range []int{0, -5} {
		pool := NewWorkerPool(n)
		if want := runtime.GOMAXPROCS(0); pool.Workers() != want {
			t.Errorf("NewWorkerPool(%d).Workers() = %d, want %d (GOMAXPROCS)", n, pool.Workers(), want)
		}
		pool.Close()
	}
}

// =============================================================================
// ExecuteAll Tests
// =============================================================================

func TestWorkerPool_ExecuteAll(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var counter atomic.Int64
	work := make([]func(), 100)
	for i := range work {
		work[i] = func() { counter.Add(1) }
	}
	pool.ExecuteAll(work)

	if got := counter.Load(); got != 100 {
		t.Errorf("counter = %d, want 100", got)
	}
}

func TestWorkerPool_ExecuteAll_Results(t *testing.T) {
	pool := NewWorkerPool(3)
	defer pool.Close()

	results := make([]int, 50)
	work := make([]func(), len(results))
	for i := range work {
		work[i] = func() { results[i] = i * i }
	}
	pool.ExecuteAll(work)

	for i, got := range results {
		if got != i*i {
			t.Errorf("results[%d] = %d, want %d", i, got, i*i)
		}
	}
}

func TestWorkerPool_ExecuteAll_Empty(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()

	pool.ExecuteAll(nil)
	pool.ExecuteAll([]func(){})
}

func TestWorkerPool_ExecuteAll_RunsConcurrently(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		pool := NewWorkerPool(2)
		defer pool.Close()

		// Each item waits for the other, so both must run at once.
		var barrier sync.WaitGroup
		barrier.Add(2)
		item := func() {
			barrier.Done()
			barrier.Wait()
		}
		pool.ExecuteAll([]func(){item, item})
	})
}

// =============================================================================
// Close Tests
// =============================================================================

func TestWorkerPool_CloseIdempotent(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()
	pool.Close()

	if pool.IsRunning() {
		t.Error("Pool should not be running after Close")
	}
}

func TestWorkerPool_ExecuteAfterClose(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()

	var counter atomic.Int64
	pool.ExecuteAll([]func(){
		func() { counter.Add(1) },
		func() { counter.Add(1) },
	})
	if got := counter.Load(); got != 2 {
		t.Errorf("counter = %d, want 2 (work runs inline after Close)", got)
	}
}

func TestWorkerPool_ConcurrentBatchesAndClose(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		pool := NewWorkerPool(4)

		var (
			counter atomic.Int64
			wg      sync.WaitGroup
		)
		for range 8 {
			wg.Go(func() {
				work := make([]func(), 25)
				for i := range work {
					work[i] = func() { counter.Add(1) }
				}
				pool.ExecuteAll(work)
			})
		}
		wg.Go(pool.Close)
		wg.Wait()

		if got := counter.Load(); got != 200 {
			t.Errorf("counter = %d, want 200", got)
		}
	})
}
