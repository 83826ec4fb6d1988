// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/dispatch"
)

// Stats counts device activity.
type Stats struct {
	Submissions      uint64
	BuffersCreated   uint64
	BuffersDestroyed uint64
	ImagesCreated    uint64
	ImagesDestroyed  uint64
	PipelinesCreated uint64
}

// Option configures a Device.
type Option func(*Device)

// WithFenceTimeout bounds Fence.Wait. Zero, the default, waits forever.
func WithFenceTimeout(d time.Duration) Option {
	return func(dev *Device) { dev.fenceTimeout = d }
}

// Device adapts a hal.Device to dispatch.Device.
type Device struct {
	raw   hal.Device
	queue *Queue
	info  gputypes.AdapterInfo

	// instance is set when the device was opened by this package and must
	// be released with it.
	instance hal.Instance

	fenceTimeout time.Duration
	destroyed    atomic.Bool

	buffersCreated   atomic.Uint64
	buffersDestroyed atomic.Uint64
	imagesCreated    atomic.Uint64
	imagesDestroyed  atomic.Uint64
	pipelinesCreated atomic.Uint64
}

var _ dispatch.Device = (*Device)(nil)

// New wraps an open HAL device and queue. The caller keeps ownership:
// Destroy waits for idle but does not destroy the HAL device.
func New(device hal.Device, queue hal.Queue, opts ...Option) *Device {
	d := &Device{raw: device}
	d.queue = &Queue{dev: d, raw: queue}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Queue returns the device queue.
func (d *Device) Queue() *Queue { return d.queue }

// Raw returns the HAL device.
func (d *Device) Raw() hal.Device { return d.raw }

// Info describes the adapter the device was opened on. It is zero for
// devices created with New.
func (d *Device) Info() gputypes.AdapterInfo { return d.info }

// Stats returns a snapshot of the counters.
func (d *Device) Stats() Stats {
	return Stats{
		Submissions:      d.queue.submitted.Load(),
		BuffersCreated:   d.buffersCreated.Load(),
		BuffersDestroyed: d.buffersDestroyed.Load(),
		ImagesCreated:    d.imagesCreated.Load(),
		ImagesDestroyed:  d.imagesDestroyed.Load(),
		PipelinesCreated: d.pipelinesCreated.Load(),
	}
}

func (d *Device) CreateBuffer(desc dispatch.BufferDescriptor) (dispatch.Buffer, error) {
	if desc.Size == 0 {
		return nil, fmt.Errorf("wgpu: buffer %q has zero size", desc.Label)
	}
	raw, err := d.raw.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  desc.Size,
		Usage: bufferUsage(desc),
	})
	if err != nil {
		return nil, deviceErr("create buffer", err)
	}
	d.buffersCreated.Add(1)
	return &Buffer{raw: raw, label: desc.Label, size: desc.Size, hostVisible: desc.HostVisible}, nil
}

func (d *Device) DestroyBuffer(b dispatch.Buffer) {
	buf, ok := b.(*Buffer)
	if !ok || buf.raw == nil {
		return
	}
	d.raw.DestroyBuffer(buf.raw)
	buf.raw = nil
	d.buffersDestroyed.Add(1)
}

func (d *Device) CreateImage(desc dispatch.ImageDescriptor) (dispatch.Image, error) {
	if !desc.Extent.Positive() {
		return nil, fmt.Errorf("wgpu: image %q has empty extent %s", desc.Label, desc.Extent)
	}
	format, err := textureFormat(desc.Format)
	if err != nil {
		return nil, err
	}
	dim, viewDim := imageDimension(desc.Extent)
	tex, err := d.raw.CreateTexture(&hal.TextureDescriptor{
		Label:         desc.Label,
		Size:          extent3D(desc.Extent),
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     dim,
		Format:        format,
		Usage:         imageUsage,
	})
	if err != nil {
		return nil, deviceErr("create texture", err)
	}
	view, err := d.raw.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:           desc.Label,
		Format:          format,
		Dimension:       viewDim,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		d.raw.DestroyTexture(tex)
		return nil, deviceErr("create texture view", err)
	}
	d.imagesCreated.Add(1)
	return &Image{raw: tex, view: view, label: desc.Label, extent: desc.Extent, format: desc.Format}, nil
}

func (d *Device) DestroyImage(img dispatch.Image) {
	im, ok := img.(*Image)
	if !ok || im.raw == nil {
		return
	}
	d.raw.DestroyTextureView(im.view)
	d.raw.DestroyTexture(im.raw)
	im.raw, im.view = nil, nil
	d.imagesDestroyed.Add(1)
}

func (d *Device) CreateSampler(desc dispatch.SamplerDescriptor) (dispatch.Sampler, error) {
	filter, mip := gputypes.FilterModeNearest, gputypes.FilterModeNearest
	if desc.Linear {
		filter, mip = gputypes.FilterModeLinear, gputypes.FilterModeLinear
	}
	raw, err := d.raw.CreateSampler(&hal.SamplerDescriptor{
		Label:        desc.Label,
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    filter,
		MinFilter:    filter,
		MipmapFilter: mip,
		LodMaxClamp:  32,
		Anisotropy:   1,
	})
	if err != nil {
		return nil, deviceErr("create sampler", err)
	}
	return &Sampler{raw: raw, label: desc.Label}, nil
}

func (d *Device) DestroySampler(s dispatch.Sampler) {
	sm, ok := s.(*Sampler)
	if !ok || sm.raw == nil {
		return
	}
	d.raw.DestroySampler(sm.raw)
	sm.raw = nil
}

// CreatePipeline specializes the shader source for local, compiles it and
// builds the layouts from the shader's binding list.
func (d *Device) CreatePipeline(shader dispatch.ShaderInfo, local dispatch.UVec3) (dispatch.Pipeline, error) {
	if !local.Positive() {
		return nil, fmt.Errorf("%w: local %s", dispatch.ErrInvalidWorkShape, local)
	}
	code, err := compileSPIRV(shader.Name, specialize(shader.Source, local))
	if err != nil {
		return nil, err
	}

	p := &Pipeline{shader: shader, local: local}
	ok := false
	defer func() {
		if !ok {
			p.destroy(d.raw)
		}
	}()

	label := fmt.Sprintf("%s@%s", shader.Name, local)
	if p.module, err = d.raw.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: code},
	}); err != nil {
		return nil, deviceErr("create shader module", err)
	}

	entries := make([]gputypes.BindGroupLayoutEntry, len(shader.Layout))
	for i, t := range shader.Layout {
		entries[i] = layoutEntry(uint32(i), t)
	}
	if p.bindLayout, err = d.raw.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   label,
		Entries: entries,
	}); err != nil {
		return nil, deviceErr("create bind group layout", err)
	}
	if p.pipelineLayout, err = d.raw.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	}); err != nil {
		return nil, deviceErr("create pipeline layout", err)
	}
	entry := shader.EntryPoint
	if entry == "" {
		entry = "main"
	}
	if p.raw, err = d.raw.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:   label,
		Layout:  p.pipelineLayout,
		Compute: hal.ComputeState{Module: p.module, EntryPoint: entry},
	}); err != nil {
		return nil, deviceErr("create compute pipeline", err)
	}

	ok = true
	d.pipelinesCreated.Add(1)
	dispatch.Logger().Debug("wgpu: pipeline created", "shader", shader.Name, "local", local.String(), "words", len(code))
	return p, nil
}

func (d *Device) DestroyPipeline(p dispatch.Pipeline) {
	if pl, ok := p.(*Pipeline); ok {
		pl.destroy(d.raw)
	}
}

func (d *Device) CreateDescriptorSet(p dispatch.Pipeline) (dispatch.DescriptorSet, error) {
	pl, ok := p.(*Pipeline)
	if !ok {
		return nil, fmt.Errorf("%w: pipeline", ErrForeignResource)
	}
	n := len(pl.shader.Layout)
	return &DescriptorSet{
		pipeline: pl,
		entries:  make([]gputypes.BindGroupEntry, n),
		bound:    make([]bool, n),
	}, nil
}

func (d *Device) DestroyDescriptorSet(s dispatch.DescriptorSet) {
	if set, ok := s.(*DescriptorSet); ok {
		set.destroy(d.raw)
	}
}

func (d *Device) CreateCommandBuffer() (dispatch.CommandBuffer, error) {
	enc, err := d.raw.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "dispatch"})
	if err != nil {
		return nil, deviceErr("create command encoder", err)
	}
	return &CommandBuffer{dev: d, enc: enc}, nil
}

func (d *Device) FreeCommandBuffer(cmd dispatch.CommandBuffer) {
	cb, ok := cmd.(*CommandBuffer)
	if !ok || cb.enc == nil {
		return
	}
	if cb.raw != nil {
		d.raw.FreeCommandBuffer(cb.raw)
		cb.raw = nil
	}
	cb.enc.Destroy()
	cb.enc = nil
}

func (d *Device) CreateFence() (dispatch.Fence, error) {
	return &Fence{q: d.queue}, nil
}

func (d *Device) DestroyFence(dispatch.Fence) {}

func (d *Device) WaitIdle() error {
	if err := d.raw.WaitIdle(); err != nil {
		return deviceErr("wait idle", err)
	}
	return nil
}

// Destroy waits for the GPU to go idle. A device opened by Open or
// OpenBackend is released together with its instance. Destroy is idempotent.
func (d *Device) Destroy() {
	if !d.destroyed.CompareAndSwap(false, true) {
		return
	}
	if err := d.raw.WaitIdle(); err != nil && !errors.Is(err, hal.ErrDeviceLost) {
		dispatch.Logger().Warn("wgpu: wait idle on destroy", "err", err)
	}
	if d.instance != nil {
		d.raw.Destroy()
		d.instance.Destroy()
		d.instance = nil
	}
	dispatch.Logger().Debug("wgpu: device destroyed", "submissions", d.queue.submitted.Load(), "adapter", d.info.Name)
}
