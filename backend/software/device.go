// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/dispatch"
	"github.com/gogpu/dispatch/internal/parallel"
)

// Stats counts device activity.
type Stats struct {
	Submissions      uint64
	Dispatches       uint64
	Invocations      uint64
	Copies           uint64
	BuffersCreated   uint64
	BuffersDestroyed uint64
	ImagesCreated    uint64
	ImagesDestroyed  uint64
	// UseAfterFree counts commands skipped because they referenced a
	// destroyed buffer or image.
	UseAfterFree uint64
	// DoubleFree counts destroy calls on already destroyed resources.
	DoubleFree uint64
}

// Option configures a Device.
type Option func(*config)

type config struct {
	workers int
	trace   bool
}

// WithWorkers sets the number of goroutines running workgroups.
// Zero means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *config) { c.workers = n }
}

// WithTrace records every executed command; see Device.Trace.
func WithTrace() Option {
	return func(c *config) { c.trace = true }
}

// Device is a CPU device. Create it with New.
type Device struct {
	pool  *parallel.Pool
	queue *Queue
	trace *Trace

	nextID    atomic.Uint64
	destroyed atomic.Bool

	dispatches       atomic.Uint64
	invocations      atomic.Uint64
	copies           atomic.Uint64
	buffersCreated   atomic.Uint64
	buffersDestroyed atomic.Uint64
	imagesCreated    atomic.Uint64
	imagesDestroyed  atomic.Uint64
	useAfterFree     atomic.Uint64
	doubleFree       atomic.Uint64
}

var _ dispatch.Device = (*Device)(nil)

// New creates a device and starts its queue.
func New(opts ...Option) *Device {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	d := &Device{pool: parallel.NewPool(cfg.workers)}
	if cfg.trace {
		d.trace = &Trace{}
	}
	d.queue = newQueue(d)
	dispatch.Logger().Debug("software: device created", "workers", d.pool.Workers())
	return d
}

// Open opens adapter index. The software backend has a single adapter.
func Open(index int) (dispatch.Device, dispatch.Queue, error) {
	if index != 0 {
		return nil, nil, fmt.Errorf("%w: %d", ErrNoAdapter, index)
	}
	d := New()
	return d, d.queue, nil
}

// Queue returns the device queue.
func (d *Device) Queue() *Queue { return d.queue }

// Trace returns the command log, or nil without WithTrace.
func (d *Device) Trace() *Trace { return d.trace }

// Stats returns a snapshot of the counters.
func (d *Device) Stats() Stats {
	return Stats{
		Submissions:      d.queue.submitted.Load(),
		Dispatches:       d.dispatches.Load(),
		Invocations:      d.invocations.Load(),
		Copies:           d.copies.Load(),
		BuffersCreated:   d.buffersCreated.Load(),
		BuffersDestroyed: d.buffersDestroyed.Load(),
		ImagesCreated:    d.imagesCreated.Load(),
		ImagesDestroyed:  d.imagesDestroyed.Load(),
		UseAfterFree:     d.useAfterFree.Load(),
		DoubleFree:       d.doubleFree.Load(),
	}
}

func (d *Device) newResource(label string, size uint64) resource {
	return resource{id: d.nextID.Add(1), label: label, data: make([]byte, size)}
}

func (d *Device) CreateBuffer(desc dispatch.BufferDescriptor) (dispatch.Buffer, error) {
	if desc.Size == 0 {
		return nil, fmt.Errorf("software: buffer %q has zero size", desc.Label)
	}
	d.buffersCreated.Add(1)
	return &Buffer{resource: d.newResource(desc.Label, desc.Size), size: desc.Size, hostVisible: desc.HostVisible}, nil
}

func (d *Device) DestroyBuffer(b dispatch.Buffer) {
	buf, ok := b.(*Buffer)
	if !ok {
		return
	}
	if buf.free() {
		d.buffersDestroyed.Add(1)
	} else {
		d.doubleFree.Add(1)
	}
}

func (d *Device) CreateImage(desc dispatch.ImageDescriptor) (dispatch.Image, error) {
	size := desc.Extent.Volume() * uint64(desc.Format.TexelSize())
	if size == 0 {
		return nil, fmt.Errorf("software: image %q has zero size", desc.Label)
	}
	d.imagesCreated.Add(1)
	return &Image{resource: d.newResource(desc.Label, size), extent: desc.Extent, format: desc.Format}, nil
}

func (d *Device) DestroyImage(img dispatch.Image) {
	im, ok := img.(*Image)
	if !ok {
		return
	}
	if im.free() {
		d.imagesDestroyed.Add(1)
	} else {
		d.doubleFree.Add(1)
	}
}

func (d *Device) CreateSampler(desc dispatch.SamplerDescriptor) (dispatch.Sampler, error) {
	return &Sampler{label: desc.Label, linear: desc.Linear}, nil
}

func (d *Device) DestroySampler(dispatch.Sampler) {}

func (d *Device) CreatePipeline(shader dispatch.ShaderInfo, local dispatch.UVec3) (dispatch.Pipeline, error) {
	if !local.Positive() {
		return nil, fmt.Errorf("%w: local %s", dispatch.ErrInvalidWorkShape, local)
	}
	k, ok := lookupKernel(shader.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKernel, shader.Name)
	}
	return &Pipeline{shader: shader, local: local, kernel: k}, nil
}

func (d *Device) DestroyPipeline(dispatch.Pipeline) {}

func (d *Device) CreateDescriptorSet(p dispatch.Pipeline) (dispatch.DescriptorSet, error) {
	pl, ok := p.(*Pipeline)
	if !ok {
		return nil, fmt.Errorf("%w: pipeline", ErrForeignResource)
	}
	return &DescriptorSet{slots: make([]*resource, len(pl.shader.Layout))}, nil
}

func (d *Device) DestroyDescriptorSet(dispatch.DescriptorSet) {}

func (d *Device) CreateCommandBuffer() (dispatch.CommandBuffer, error) {
	return &CommandBuffer{}, nil
}

func (d *Device) FreeCommandBuffer(dispatch.CommandBuffer) {}

func (d *Device) CreateFence() (dispatch.Fence, error) {
	return &Fence{}, nil
}

func (d *Device) DestroyFence(dispatch.Fence) {}

func (d *Device) WaitIdle() error {
	return d.queue.waitIdle()
}

// Destroy drains the queue and stops the workers. Destroy is idempotent.
func (d *Device) Destroy() {
	if !d.destroyed.CompareAndSwap(false, true) {
		return
	}
	d.queue.close()
	d.pool.Close()
	dispatch.Logger().Debug("software: device destroyed", "submissions", d.queue.submitted.Load())
}
