// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewPool(t *testing.T) {
	p := NewPool(4)
	defer p.Close()

	if p.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", p.Workers())
	}
	if !p.Running() {
		t.Error("pool should be running after creation")
	}
}

func TestNewPool_DefaultWorkers(t *testing.T) {
	for _, n := range []int{0, -3} {
		p := NewPool(n)
		if got, want := p.Workers(), runtime.GOMAXPROCS(0); got != want {
			t.Errorf("NewPool(%d).Workers() = %d, want %d", n, got, want)
		}
		p.Close()
	}
}

func TestPool_RunCoversEveryIndex(t *testing.T) {
	p := NewPool(4)
	defer p.Close()

	const n = 1000
	hits := make([]atomic.Int32, n)
	p.Run(n, func(i int) { hits[i].Add(1) })

	for i := range hits {
		if got := hits[i].Load(); got != 1 {
			t.Fatalf("index %d ran %d times, want 1", i, got)
		}
	}
}

func TestPool_RunZero(t *testing.T) {
	p := NewPool(2)
	defer p.Close()

	called := false
	p.Run(0, func(int) { called = true })
	if called {
		t.Error("Run(0) must not call fn")
	}
}

func TestPool_RunUnevenWork(t *testing.T) {
	p := NewPool(4)
	defer p.Close()

	var total atomic.Int64
	p.Run(64, func(i int) {
		if i%16 == 0 {
			time.Sleep(2 * time.Millisecond)
		}
		total.Add(int64(i))
	})
	if got, want := total.Load(), int64(64*63/2); got != want {
		t.Errorf("sum = %d, want %d", got, want)
	}
}

func TestPool_RunAfterClose(t *testing.T) {
	p := NewPool(2)
	p.Close()

	var count atomic.Int32
	p.Run(10, func(int) { count.Add(1) })
	if count.Load() != 10 {
		t.Errorf("Run on closed pool executed %d tasks, want 10", count.Load())
	}
}

func TestPool_Go(t *testing.T) {
	p := NewPool(3)
	defer p.Close()

	var wg sync.WaitGroup
	var count atomic.Int32
	wg.Add(20)
	for range 20 {
		p.Go(func() {
			defer wg.Done()
			count.Add(1)
		})
	}
	wg.Wait()
	if count.Load() != 20 {
		t.Errorf("count = %d, want 20", count.Load())
	}
}

func TestPool_CloseIdempotent(t *testing.T) {
	p := NewPool(2)
	p.Close()
	p.Close()
	if p.Running() {
		t.Error("pool should not be running after Close")
	}
	p.Go(func() { t.Error("Go on closed pool must not run") })
}

func TestPool_ConcurrentRun(t *testing.T) {
	p := NewPool(4)
	defer p.Close()

	var wg sync.WaitGroup
	var total atomic.Int64
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Run(100, func(int) { total.Add(1) })
		}()
	}
	wg.Wait()
	if total.Load() != 800 {
		t.Errorf("total = %d, want 800", total.Load())
	}
}
