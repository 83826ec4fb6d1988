// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/dispatch"
	"github.com/gogpu/dispatch/backend/software"
	"github.com/gogpu/dispatch/backend/wgpu"
)

// Backend names.
const (
	WGPU     = "wgpu"
	Software = "software"
)

// ErrNotRegistered is returned for a backend name nobody registered.
var ErrNotRegistered = errors.New("backend: not registered")

// priority is tried by Open with an empty name; first that opens wins.
var priority = []string{WGPU, Software}

var registry = gpucontext.NewRegistry[dispatch.Opener](gpucontext.WithPriority(priority...))

func init() {
	Register(WGPU, wgpu.Open)
	Register(Software, software.Open)
}

// Register adds or replaces a backend.
func Register(name string, open dispatch.Opener) {
	registry.Register(name, func() dispatch.Opener { return open })
}

// Unregister removes a backend.
func Unregister(name string) {
	registry.Unregister(name)
}

// Available returns the registered backend names, sorted.
func Available() []string {
	names := registry.Available()
	slices.Sort(names)
	return names
}

// Get returns the opener registered under name.
func Get(name string) (dispatch.Opener, error) {
	if !registry.Has(name) {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	return registry.Get(name), nil
}

// Default returns the name of the preferred registered backend, or "" when
// none is registered. The preferred backend may still fail to open.
func Default() string {
	return registry.BestName()
}

// Open opens adapter index on the named backend. An empty name tries every
// registered backend, preferred first, and returns the first success.
func Open(name string, index int) (dispatch.Device, dispatch.Queue, error) {
	if name != "" {
		open, err := Get(name)
		if err != nil {
			return nil, nil, err
		}
		return open(index)
	}

	var errs []error
	for _, n := range order() {
		open := registry.Get(n)
		if open == nil {
			continue
		}
		dev, queue, err := open(index)
		if err == nil {
			dispatch.Logger().Debug("backend: selected", "backend", n, "index", index)
			return dev, queue, nil
		}
		dispatch.Logger().Debug("backend: unavailable", "backend", n, "err", err)
		errs = append(errs, fmt.Errorf("%s: %w", n, err))
	}
	if len(errs) == 0 {
		return nil, nil, fmt.Errorf("%w: no backends", ErrNotRegistered)
	}
	return nil, nil, errors.Join(errs...)
}

// Opener returns a dispatch.Opener bound to name, with the same empty-name
// fallback as Open.
func Opener(name string) dispatch.Opener {
	return func(index int) (dispatch.Device, dispatch.Queue, error) {
		return Open(name, index)
	}
}

// NewFactory returns a context factory over the named backend. It fails
// early for an unregistered name.
func NewFactory(name string, opts ...dispatch.Option) (*dispatch.Factory, error) {
	if name != "" && !registry.Has(name) {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	return dispatch.NewFactory(Opener(name), opts...), nil
}

// order lists registered names: priority names first, the rest sorted.
func order() []string {
	names := make([]string, 0, registry.Count())
	for _, n := range priority {
		if registry.Has(n) {
			names = append(names, n)
		}
	}
	for _, n := range Available() {
		if !slices.Contains(priority, n) {
			names = append(names, n)
		}
	}
	return names
}
