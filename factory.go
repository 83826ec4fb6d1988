// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package dispatch

import (
	"errors"
	"fmt"
	"sync"
)

// Opener opens the device and queue for an adapter index.
type Opener func(index int) (Device, Queue, error)

// Factory hands out one Context per device index, created on first use.
// Close tears contexts down in reverse creation order.
//
// Factory is safe for concurrent use.
type Factory struct {
	open Opener
	opts []Option

	mu       sync.Mutex
	contexts map[int]*Context
	order    []int
	closed   bool
}

// NewFactory returns a Factory that opens devices with open and creates
// contexts with opts.
func NewFactory(open Opener, opts ...Option) *Factory {
	return &Factory{open: open, opts: opts, contexts: make(map[int]*Context)}
}

// Context returns the Context for device index, creating it if needed.
func (f *Factory) Context(index int) (*Context, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, ErrContextClosed
	}
	if c, ok := f.contexts[index]; ok {
		return c, nil
	}

	device, queue, err := f.open(index)
	if err != nil {
		return nil, fmt.Errorf("dispatch: open device %d: %w", index, err)
	}
	c, err := NewContext(device, queue, f.opts...)
	if err != nil {
		device.Destroy()
		return nil, err
	}
	f.contexts[index] = c
	f.order = append(f.order, index)
	return c, nil
}

// Available reports whether a Context for index exists or can be created.
func (f *Factory) Available(index int) bool {
	_, err := f.Context(index)
	return err == nil
}

// Close closes every Context, newest first, and makes the factory unusable.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true

	var errs []error
	for i := len(f.order) - 1; i >= 0; i-- {
		index := f.order[i]
		if err := f.contexts[index].Close(); err != nil {
			errs = append(errs, fmt.Errorf("dispatch: close device %d: %w", index, err))
		}
		delete(f.contexts, index)
	}
	f.order = nil
	return errors.Join(errs...)
}
