// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package dispatch

// The interfaces in this file are the capability set a backend provides.
// A Context drives them; callers normally only see Buffer, Image, Sampler and
// Fence handles.

// Buffer is a linear GPU allocation.
type Buffer interface {
	Label() string
	// Size is the allocation size in bytes.
	Size() uint64
	// HostVisible reports whether Queue.WriteBuffer and Queue.ReadBuffer
	// may access the buffer.
	HostVisible() bool
}

// Image is a 1D, 2D or 3D texel array.
type Image interface {
	Label() string
	Extent() UVec3
	Format() ImageFormat
}

// Sampler is an opaque sampler state object.
type Sampler interface {
	Label() string
}

// Pipeline is a compute pipeline for one shader at one local work shape.
type Pipeline interface {
	Shader() ShaderInfo
	Local() UVec3
}

// DescriptorSet holds the resources bound to one dispatch, by slot.
type DescriptorSet interface {
	BindBuffer(slot uint32, b Buffer)
	BindImage(slot uint32, img Image)
	BindSampler(slot uint32, s Sampler)
}

// Fence is signaled by the queue when the submission it was attached to
// completes.
type Fence interface {
	// Wait blocks until the fence is signaled. It returns
	// ErrFenceNotSubmitted if the fence was not submitted since its last
	// reset, and a wrapped device error if the device failed.
	Wait() error
	// Signaled reports completion without blocking.
	Signaled() bool
	// Reset returns the fence to the unsubmitted state.
	Reset() error
}

// CommandBuffer records commands for one submission.
type CommandBuffer interface {
	Begin() error
	End() error
	// Reset discards recorded commands. Only valid once the submission that
	// used the buffer has completed.
	Reset()

	PipelineBarrier(b Barrier)
	BindPipeline(p Pipeline)
	BindDescriptorSet(s DescriptorSet)
	// Dispatch records global invocations. The backend derives the
	// workgroup count from the bound pipeline's local shape.
	Dispatch(global UVec3)

	CopyBufferToBuffer(src, dst Buffer, region BufferCopy)
	CopyImageToImage(src, dst Image, region ImageCopy)
	CopyImageToBuffer(src Image, dst Buffer, region BufferImageCopy)
	CopyBufferToImage(src Buffer, dst Image, region BufferImageCopy)
}

// BufferUsage is a bit set of the ways a buffer is used.
type BufferUsage uint32

const (
	BufferUniform BufferUsage = 1 << iota
	BufferStorage
	BufferTransferSrc
	BufferTransferDst
)

// BufferDescriptor describes a buffer to create.
type BufferDescriptor struct {
	Label       string
	Size        uint64
	Usage       BufferUsage
	HostVisible bool
}

// ImageDescriptor describes an image to create.
type ImageDescriptor struct {
	Label  string
	Extent UVec3
	Format ImageFormat
}

// SamplerDescriptor describes a sampler to create.
type SamplerDescriptor struct {
	Label  string
	Linear bool
}

// Device creates and destroys resources on one logical GPU.
type Device interface {
	CreateBuffer(desc BufferDescriptor) (Buffer, error)
	DestroyBuffer(b Buffer)
	CreateImage(desc ImageDescriptor) (Image, error)
	DestroyImage(img Image)
	CreateSampler(desc SamplerDescriptor) (Sampler, error)
	DestroySampler(s Sampler)

	CreatePipeline(shader ShaderInfo, local UVec3) (Pipeline, error)
	DestroyPipeline(p Pipeline)
	CreateDescriptorSet(p Pipeline) (DescriptorSet, error)
	DestroyDescriptorSet(s DescriptorSet)

	CreateCommandBuffer() (CommandBuffer, error)
	FreeCommandBuffer(cmd CommandBuffer)
	CreateFence() (Fence, error)
	DestroyFence(f Fence)

	// WaitIdle blocks until all submitted work has completed.
	WaitIdle() error
	// Destroy releases the device. All resources must be destroyed first.
	Destroy()
}

// Queue executes command buffers in submission order.
type Queue interface {
	// Submit enqueues an ended command buffer. The fence, if non-nil, is
	// signaled when the command buffer completes.
	Submit(cmd CommandBuffer, fence Fence) error
	WriteBuffer(b Buffer, offset uint64, data []byte) error
	ReadBuffer(b Buffer, offset uint64, data []byte) error
}

// BufferCopy is a buffer-to-buffer region in bytes.
type BufferCopy struct {
	SrcOffset uint64
	DstOffset uint64
	Size      uint64
}

// ImageCopy is an image-to-image region in texels.
type ImageCopy struct {
	SrcOrigin UVec3
	DstOrigin UVec3
	Extent    UVec3
}

// BufferImageCopy relates a tightly packed, row-major buffer range starting
// at BufferOffset bytes to an image region.
type BufferImageCopy struct {
	BufferOffset uint64
	ImageOrigin  UVec3
	Extent       UVec3
}

// Access is a bit set of memory access kinds used in barriers.
type Access uint32

const (
	AccessShaderRead Access = 1 << iota
	AccessShaderWrite
	AccessUniformRead
	AccessTransferRead
	AccessTransferWrite
	AccessHostRead
	AccessHostWrite
)

// BufferBarrier orders accesses to one buffer.
type BufferBarrier struct {
	Buffer Buffer
	Src    Access
	Dst    Access
}

// ImageBarrier orders accesses to one image.
type ImageBarrier struct {
	Image Image
	Src   Access
	Dst   Access
}

// Barrier makes writes recorded before it visible to accesses recorded after it.
// The zero Barrier is an execution-only barrier.
type Barrier struct {
	Buffers []BufferBarrier
	Images  []ImageBarrier
}

// Empty reports whether the barrier names no resources.
func (b Barrier) Empty() bool { return len(b.Buffers) == 0 && len(b.Images) == 0 }
