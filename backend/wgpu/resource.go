// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/dispatch"
)

// Buffer wraps a hal.Buffer.
type Buffer struct {
	raw         hal.Buffer
	label       string
	size        uint64
	hostVisible bool
}

var _ dispatch.Buffer = (*Buffer)(nil)

func (b *Buffer) Label() string     { return b.label }
func (b *Buffer) Size() uint64      { return b.size }
func (b *Buffer) HostVisible() bool { return b.hostVisible }

// Raw returns the HAL buffer.
func (b *Buffer) Raw() hal.Buffer { return b.raw }

// Image wraps a hal.Texture and a view covering all of it.
type Image struct {
	raw    hal.Texture
	view   hal.TextureView
	label  string
	extent dispatch.UVec3
	format dispatch.ImageFormat
}

var _ dispatch.Image = (*Image)(nil)

func (img *Image) Label() string                { return img.label }
func (img *Image) Extent() dispatch.UVec3       { return img.extent }
func (img *Image) Format() dispatch.ImageFormat { return img.format }

// Raw returns the HAL texture.
func (img *Image) Raw() hal.Texture { return img.raw }

type Sampler struct {
	raw   hal.Sampler
	label string
}

var _ dispatch.Sampler = (*Sampler)(nil)

func (s *Sampler) Label() string { return s.label }

// Pipeline owns everything created for one shader at one local shape.
type Pipeline struct {
	shader dispatch.ShaderInfo
	local  dispatch.UVec3

	module         hal.ShaderModule
	bindLayout     hal.BindGroupLayout
	pipelineLayout hal.PipelineLayout
	raw            hal.ComputePipeline
}

var _ dispatch.Pipeline = (*Pipeline)(nil)

func (p *Pipeline) Shader() dispatch.ShaderInfo { return p.shader }
func (p *Pipeline) Local() dispatch.UVec3       { return p.local }

func (p *Pipeline) destroy(d hal.Device) {
	if p.raw != nil {
		d.DestroyComputePipeline(p.raw)
	}
	if p.pipelineLayout != nil {
		d.DestroyPipelineLayout(p.pipelineLayout)
	}
	if p.bindLayout != nil {
		d.DestroyBindGroupLayout(p.bindLayout)
	}
	if p.module != nil {
		d.DestroyShaderModule(p.module)
	}
}

// DescriptorSet collects bindings and builds the bind group on first use.
// Rebinding after a group was built builds a new one; superseded groups are
// destroyed with the set, since recorded commands may still reference them.
type DescriptorSet struct {
	pipeline *Pipeline

	mu      sync.Mutex
	entries []gputypes.BindGroupEntry
	bound   []bool
	group   hal.BindGroup
	retired []hal.BindGroup
}

var _ dispatch.DescriptorSet = (*DescriptorSet)(nil)

func (s *DescriptorSet) set(slot uint32, r gputypes.BindingResource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if int(slot) >= len(s.entries) {
		dispatch.Logger().Warn("wgpu: binding slot outside layout", "slot", slot, "shader", s.pipeline.shader.Name)
		return
	}
	s.entries[slot] = gputypes.BindGroupEntry{Binding: slot, Resource: r}
	s.bound[slot] = true
	if s.group != nil {
		s.retired = append(s.retired, s.group)
		s.group = nil
	}
}

func (s *DescriptorSet) BindBuffer(slot uint32, b dispatch.Buffer) {
	buf, ok := b.(*Buffer)
	if !ok {
		return
	}
	s.set(slot, gputypes.BufferBinding{Buffer: buf.raw.NativeHandle(), Size: buf.size})
}

func (s *DescriptorSet) BindImage(slot uint32, img dispatch.Image) {
	im, ok := img.(*Image)
	if !ok {
		return
	}
	s.set(slot, gputypes.TextureViewBinding{TextureView: im.view.NativeHandle()})
}

func (s *DescriptorSet) BindSampler(slot uint32, smp dispatch.Sampler) {
	sm, ok := smp.(*Sampler)
	if !ok {
		return
	}
	s.set(slot, gputypes.SamplerBinding{Sampler: sm.raw.NativeHandle()})
}

func (s *DescriptorSet) bindGroup(d hal.Device) (hal.BindGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.group != nil {
		return s.group, nil
	}
	for slot, ok := range s.bound {
		if !ok {
			return nil, fmt.Errorf("wgpu: %s: slot %d not bound", s.pipeline.shader.Name, slot)
		}
	}
	g, err := d.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   s.pipeline.shader.Name,
		Layout:  s.pipeline.bindLayout,
		Entries: slices.Clone(s.entries),
	})
	if err != nil {
		return nil, deviceErr("create bind group", err)
	}
	s.group = g
	return g, nil
}

func (s *DescriptorSet) destroy(d hal.Device) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.retired {
		d.DestroyBindGroup(g)
	}
	s.retired = nil
	if s.group != nil {
		d.DestroyBindGroup(s.group)
		s.group = nil
	}
}
