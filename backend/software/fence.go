// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"sync"

	"github.com/gogpu/dispatch"
)

type fenceState uint8

const (
	fenceUnsubmitted fenceState = iota
	fencePending
	fenceSignaled
)

// Fence is signaled by the queue goroutine after its submission executed.
type Fence struct {
	mu    sync.Mutex
	state fenceState
	done  chan struct{}
}

var _ dispatch.Fence = (*Fence)(nil)

func (f *Fence) Wait() error {
	f.mu.Lock()
	state, done := f.state, f.done
	f.mu.Unlock()

	switch state {
	case fenceUnsubmitted:
		return dispatch.ErrFenceNotSubmitted
	case fencePending:
		<-done
	}
	return nil
}

func (f *Fence) Signaled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state == fenceSignaled
}

func (f *Fence) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == fencePending {
		return ErrFencePending
	}
	f.state = fenceUnsubmitted
	f.done = nil
	return nil
}

func (f *Fence) arm() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == fencePending {
		return ErrFencePending
	}
	f.state = fencePending
	f.done = make(chan struct{})
	return nil
}

func (f *Fence) signal() {
	f.mu.Lock()
	f.state = fenceSignaled
	close(f.done)
	f.mu.Unlock()
}
