// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package dispatch

import (
	"errors"
	"sync"
)

// fakeDevice counts resource lifetimes without executing anything. Fences
// signal as soon as they are submitted.
type fakeDevice struct {
	mu                sync.Mutex
	destroyedBuffers  []Buffer
	destroyedImages   []Image
	destroyedFences   int
	freedCommands     int
	liveSets          int
	failCommandBuffer bool
}

type fakeBuffer struct {
	label string
	size  uint64
}

func (b *fakeBuffer) Label() string     { return b.label }
func (b *fakeBuffer) Size() uint64      { return b.size }
func (b *fakeBuffer) HostVisible() bool { return true }

type fakeImage struct {
	extent UVec3
	format ImageFormat
}

func (i *fakeImage) Label() string       { return "image" }
func (i *fakeImage) Extent() UVec3       { return i.extent }
func (i *fakeImage) Format() ImageFormat { return i.format }

type fakeFence struct {
	submitted, signaled bool
	resetErr            error
}

func (f *fakeFence) Wait() error {
	if !f.submitted {
		return ErrFenceNotSubmitted
	}
	return nil
}

func (f *fakeFence) Signaled() bool { return f.signaled }

func (f *fakeFence) Reset() error {
	if f.resetErr != nil {
		return f.resetErr
	}
	f.submitted, f.signaled = false, false
	return nil
}

type fakeCommandBuffer struct {
	recorded []string
	resets   int
}

func (c *fakeCommandBuffer) Begin() error { return nil }
func (c *fakeCommandBuffer) End() error   { return nil }

func (c *fakeCommandBuffer) Reset() {
	c.recorded = nil
	c.resets++
}

func (c *fakeCommandBuffer) PipelineBarrier(Barrier)         { c.recorded = append(c.recorded, "barrier") }
func (c *fakeCommandBuffer) BindPipeline(Pipeline)           {}
func (c *fakeCommandBuffer) BindDescriptorSet(DescriptorSet) {}
func (c *fakeCommandBuffer) Dispatch(UVec3)                  { c.recorded = append(c.recorded, "dispatch") }

func (c *fakeCommandBuffer) CopyBufferToBuffer(_, _ Buffer, _ BufferCopy) {
	c.recorded = append(c.recorded, "copy_buffer_to_buffer")
}
func (c *fakeCommandBuffer) CopyImageToImage(_, _ Image, _ ImageCopy) {
	c.recorded = append(c.recorded, "copy_image_to_image")
}
func (c *fakeCommandBuffer) CopyImageToBuffer(Image, Buffer, BufferImageCopy) {
	c.recorded = append(c.recorded, "copy_image_to_buffer")
}
func (c *fakeCommandBuffer) CopyBufferToImage(Buffer, Image, BufferImageCopy) {
	c.recorded = append(c.recorded, "copy_buffer_to_image")
}

type fakePipeline struct {
	shader ShaderInfo
	local  UVec3
}

func (p *fakePipeline) Shader() ShaderInfo { return p.shader }
func (p *fakePipeline) Local() UVec3       { return p.local }

type fakeSet struct{}

func (fakeSet) BindBuffer(uint32, Buffer)   {}
func (fakeSet) BindImage(uint32, Image)     {}
func (fakeSet) BindSampler(uint32, Sampler) {}

func (d *fakeDevice) CreateBuffer(desc BufferDescriptor) (Buffer, error) {
	return &fakeBuffer{label: desc.Label, size: desc.Size}, nil
}

func (d *fakeDevice) DestroyBuffer(b Buffer) {
	d.mu.Lock()
	d.destroyedBuffers = append(d.destroyedBuffers, b)
	d.mu.Unlock()
}

func (d *fakeDevice) CreateImage(desc ImageDescriptor) (Image, error) {
	return &fakeImage{extent: desc.Extent, format: desc.Format}, nil
}

func (d *fakeDevice) DestroyImage(img Image) {
	d.mu.Lock()
	d.destroyedImages = append(d.destroyedImages, img)
	d.mu.Unlock()
}

func (d *fakeDevice) CreateSampler(SamplerDescriptor) (Sampler, error) { return nil, errors.New("fake: no samplers") }
func (d *fakeDevice) DestroySampler(Sampler)                           {}

func (d *fakeDevice) CreatePipeline(shader ShaderInfo, local UVec3) (Pipeline, error) {
	return &fakePipeline{shader: shader, local: local}, nil
}
func (d *fakeDevice) DestroyPipeline(Pipeline) {}

func (d *fakeDevice) CreateDescriptorSet(Pipeline) (DescriptorSet, error) {
	d.mu.Lock()
	d.liveSets++
	d.mu.Unlock()
	return fakeSet{}, nil
}

func (d *fakeDevice) DestroyDescriptorSet(DescriptorSet) {
	d.mu.Lock()
	d.liveSets--
	d.mu.Unlock()
}

func (d *fakeDevice) CreateCommandBuffer() (CommandBuffer, error) {
	if d.failCommandBuffer {
		return nil, errors.New("fake: out of memory")
	}
	return &fakeCommandBuffer{}, nil
}

func (d *fakeDevice) FreeCommandBuffer(CommandBuffer) {
	d.mu.Lock()
	d.freedCommands++
	d.mu.Unlock()
}

func (d *fakeDevice) CreateFence() (Fence, error) { return &fakeFence{}, nil }

func (d *fakeDevice) DestroyFence(Fence) {
	d.mu.Lock()
	d.destroyedFences++
	d.mu.Unlock()
}

func (d *fakeDevice) WaitIdle() error { return nil }
func (d *fakeDevice) Destroy()        {}

type fakeQueue struct {
	submitted []CommandBuffer
	// holdSignal leaves submitted fences unsignaled; Wait still succeeds.
	holdSignal bool
}

func (q *fakeQueue) Submit(cmd CommandBuffer, fence Fence) error {
	q.submitted = append(q.submitted, cmd)
	if f, ok := fence.(*fakeFence); ok {
		f.submitted, f.signaled = true, !q.holdSignal
	}
	return nil
}

func (q *fakeQueue) WriteBuffer(Buffer, uint64, []byte) error { return nil }
func (q *fakeQueue) ReadBuffer(Buffer, uint64, []byte) error  { return nil }
