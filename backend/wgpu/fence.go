// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/dispatch"
)

const (
	pollMin = 20 * time.Microsecond
	pollMax = 2 * time.Millisecond
)

// Fence is the submission index it was attached to.
type Fence struct {
	q *Queue

	mu        sync.Mutex
	index     uint64
	submitted bool
}

var _ dispatch.Fence = (*Fence)(nil)

func (f *Fence) arm(index uint64) {
	f.mu.Lock()
	f.index, f.submitted = index, true
	f.mu.Unlock()
}

func (f *Fence) load() (uint64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.index, f.submitted
}

func (f *Fence) Wait() error {
	index, ok := f.load()
	if !ok {
		return dispatch.ErrFenceNotSubmitted
	}
	return f.q.wait(index)
}

func (f *Fence) Signaled() bool {
	index, ok := f.load()
	return ok && f.q.completed(index)
}

func (f *Fence) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitted && !f.q.completed(f.index) {
		return ErrFencePending
	}
	f.submitted = false
	f.index = 0
	return nil
}

// wait polls the HAL queue until index has completed, backing off
// exponentially between polls.
func (q *Queue) wait(index uint64) error {
	var deadline time.Time
	if q.dev.fenceTimeout > 0 {
		deadline = time.Now().Add(q.dev.fenceTimeout)
	}
	delay := pollMin
	for !q.completed(index) {
		if q.dev.destroyed.Load() {
			return fmt.Errorf("wgpu: wait on submission %d: %w", index, dispatch.ErrDeviceLost)
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return fmt.Errorf("%w: submission %d after %s", ErrFenceTimeout, index, q.dev.fenceTimeout)
		}
		time.Sleep(delay)
		delay = min(delay*2, pollMax)
	}
	return nil
}
