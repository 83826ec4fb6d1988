// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"fmt"
	"sync"

	"github.com/gogpu/dispatch"
)

// resource is the host memory behind a buffer or image. mu is held for
// reading while a command uses the memory and for writing while it is freed.
type resource struct {
	id    uint64
	label string

	mu        sync.RWMutex
	destroyed bool
	data      []byte
}

// ID returns the identifier used in trace entries.
func (r *resource) ID() uint64 { return r.id }

func (r *resource) Label() string { return r.label }

// Destroyed reports whether the memory was freed.
func (r *resource) Destroyed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.destroyed
}

// free releases the memory and reports whether it was live.
func (r *resource) free() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.destroyed {
		return false
	}
	r.destroyed = true
	r.data = nil
	return true
}

// Buffer is host memory standing in for a GPU buffer.
type Buffer struct {
	resource
	size        uint64
	hostVisible bool
}

var _ dispatch.Buffer = (*Buffer)(nil)

func (b *Buffer) Size() uint64      { return b.size }
func (b *Buffer) HostVisible() bool { return b.hostVisible }

// Image is host memory standing in for a GPU image, laid out row-major with
// X fastest.
type Image struct {
	resource
	extent dispatch.UVec3
	format dispatch.ImageFormat
}

var _ dispatch.Image = (*Image)(nil)

func (img *Image) Extent() dispatch.UVec3       { return img.extent }
func (img *Image) Format() dispatch.ImageFormat { return img.format }

// offset returns the byte offset of texel (x, y, z).
func (img *Image) offset(x, y, z uint32) uint64 {
	e := img.extent
	return ((uint64(z)*uint64(e.Y)+uint64(y))*uint64(e.X) + uint64(x)) * uint64(img.format.TexelSize())
}

// Sampler carries no state on the CPU.
type Sampler struct {
	label  string
	linear bool
}

var _ dispatch.Sampler = (*Sampler)(nil)

func (s *Sampler) Label() string { return s.label }

// Pipeline pairs a shader with its kernel and local work shape.
type Pipeline struct {
	shader dispatch.ShaderInfo
	local  dispatch.UVec3
	kernel Kernel
}

var _ dispatch.Pipeline = (*Pipeline)(nil)

func (p *Pipeline) Shader() dispatch.ShaderInfo { return p.shader }
func (p *Pipeline) Local() dispatch.UVec3       { return p.local }

// DescriptorSet records the resource bound to each slot of a pipeline.
type DescriptorSet struct {
	slots []*resource
	err   error
}

var _ dispatch.DescriptorSet = (*DescriptorSet)(nil)

func (s *DescriptorSet) bind(slot uint32, r *resource, ok bool, kind string) {
	switch {
	case int(slot) >= len(s.slots):
		s.err = fmt.Errorf("software: %s slot %d out of range (%d slots)", kind, slot, len(s.slots))
	case !ok:
		s.err = fmt.Errorf("%w: %s at slot %d", ErrForeignResource, kind, slot)
	default:
		s.slots[slot] = r
	}
}

func (s *DescriptorSet) BindBuffer(slot uint32, b dispatch.Buffer) {
	buf, ok := b.(*Buffer)
	var r *resource
	if ok {
		r = &buf.resource
	}
	s.bind(slot, r, ok, "buffer")
}

func (s *DescriptorSet) BindImage(slot uint32, img dispatch.Image) {
	im, ok := img.(*Image)
	var r *resource
	if ok {
		r = &im.resource
	}
	s.bind(slot, r, ok, "image")
}

// BindSampler leaves the slot without memory; kernels see an empty binding.
func (s *DescriptorSet) BindSampler(slot uint32, smp dispatch.Sampler) {
	_, ok := smp.(*Sampler)
	s.bind(slot, nil, ok, "sampler")
}

func (s *DescriptorSet) snapshot() []*resource {
	out := make([]*resource, len(s.slots))
	copy(out, s.slots)
	return out
}
