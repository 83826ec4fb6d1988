// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Register the platform HAL backends.
	_ "github.com/gogpu/wgpu/hal/allbackends"

	"github.com/gogpu/dispatch"
)

// backendPriority is the order Open tries HAL backends in.
var backendPriority = []gputypes.Backend{
	gputypes.BackendVulkan,
	gputypes.BackendMetal,
	gputypes.BackendDX12,
	gputypes.BackendGL,
}

// Open opens adapter index on the first registered HAL backend that has it.
// Its signature matches dispatch.Opener.
func Open(index int) (dispatch.Device, dispatch.Queue, error) {
	var errs []error
	for _, variant := range backendPriority {
		d, err := OpenBackend(variant, index)
		if err == nil {
			return d, d.queue, nil
		}
		if !errors.Is(err, hal.ErrBackendNotFound) {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil, nil, fmt.Errorf("wgpu: open adapter %d: %w", index, hal.ErrBackendNotFound)
	}
	return nil, nil, errors.Join(errs...)
}

// OpenBackend opens adapter index of one HAL backend. The returned device
// owns the HAL instance and device.
func OpenBackend(variant gputypes.Backend, index int, opts ...Option) (*Device, error) {
	backend, ok := hal.GetBackend(variant)
	if !ok {
		return nil, fmt.Errorf("wgpu: %s: %w", variant, hal.ErrBackendNotFound)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Backends: gputypes.BackendsAll})
	if err != nil {
		return nil, fmt.Errorf("wgpu: %s: create instance: %w", variant, err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if index < 0 || index >= len(adapters) {
		instance.Destroy()
		return nil, fmt.Errorf("%w: %s has %d adapters, want index %d", ErrNoAdapter, variant, len(adapters), index)
	}
	exposed := adapters[index]
	open, err := exposed.Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("wgpu: %s: open %q: %w", variant, exposed.Info.Name, err)
	}

	d := New(open.Device, open.Queue, opts...)
	d.instance = instance
	d.info = exposed.Info
	dispatch.Logger().Info("wgpu: device opened",
		"adapter", exposed.Info.Name, "type", exposed.Info.DeviceType.String(),
		"backend", variant.String(), "driver", exposed.Info.Driver)
	return d, nil
}

// NewFromProvider wraps the HAL device of a gpucontext.DeviceProvider.
// The provider must implement HalDevice() and HalQueue(), returning
// hal.Device and hal.Queue. The provider keeps ownership.
func NewFromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok {
		return nil, fmt.Errorf("%w: HalDevice is %T", ErrProvider, hp.HalDevice())
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok {
		return nil, fmt.Errorf("%w: HalQueue is %T", ErrProvider, hp.HalQueue())
	}
	d := New(device, queue, opts...)
	d.info.Name = provider.AdapterInfo().Name
	return d, nil
}
