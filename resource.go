// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package dispatch

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"runtime"
	"sync"
)

// noCopy makes go vet's copylocks check flag copies of the wrappers.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// owned holds a GPU resource until it is handed to the Context's cleanup
// lists. The wrappers attach a runtime cleanup to it as well, so a wrapper
// that becomes unreachable without Release still defers its resource.
type owned[T any] struct {
	mu       sync.Mutex
	res      T
	live     bool
	register func(T)
}

func newOwned[T any](res T, register func(T)) *owned[T] {
	return &owned[T]{res: res, live: true, register: register}
}

func (o *owned[T]) get() (T, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.res, o.live
}

func (o *owned[T]) take() (T, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	res, live := o.res, o.live
	var zero T
	o.res, o.live = zero, false
	return res, live
}

func (o *owned[T]) release() {
	if res, ok := o.take(); ok {
		o.register(res)
	}
}

// UniformParamsBuffer is a host-visible uniform buffer holding one parameter
// block, written when the wrapper is created.
//
// A UniformParamsBuffer must not be copied. Ownership is transferred with
// Move, which leaves the source empty.
type UniformParamsBuffer struct {
	_    noCopy
	ctx  *Context
	h    *owned[Buffer]
	size uint64
}

// uniformAlignment is the size granularity of uniform buffers.
const uniformAlignment = 16

// NewUniformParamsBuffer creates a uniform buffer containing block encoded
// in little-endian order. block must be a fixed-size value as accepted by
// encoding/binary, typically a struct of fixed-size fields.
func NewUniformParamsBuffer(ctx *Context, block any) (*UniformParamsBuffer, error) {
	n := binary.Size(block)
	if n <= 0 {
		return nil, fmt.Errorf("%w: parameter block %T", ErrInvalidSize, block)
	}
	var data bytes.Buffer
	if err := binary.Write(&data, binary.LittleEndian, block); err != nil {
		return nil, fmt.Errorf("dispatch: encode parameter block: %w", err)
	}
	size := (uint64(n) + uniformAlignment - 1) / uniformAlignment * uniformAlignment

	b, err := ctx.device.CreateBuffer(BufferDescriptor{
		Label:       fmt.Sprintf("params[%T]", block),
		Size:        size,
		Usage:       BufferUniform | BufferTransferDst,
		HostVisible: true,
	})
	if err != nil {
		return nil, fmt.Errorf("dispatch: create uniform buffer: %w", err)
	}
	if err := ctx.queue.WriteBuffer(b, 0, data.Bytes()); err != nil {
		// Nothing has referenced the buffer yet.
		ctx.device.DestroyBuffer(b)
		return nil, fmt.Errorf("dispatch: write uniform buffer: %w", err)
	}
	return newUniformParamsBuffer(ctx, b, size), nil
}

func newUniformParamsBuffer(ctx *Context, b Buffer, size uint64) *UniformParamsBuffer {
	u := &UniformParamsBuffer{ctx: ctx, h: newOwned(b, ctx.RegisterBufferCleanup), size: size}
	runtime.AddCleanup(u, (*owned[Buffer]).release, u.h)
	return u
}

// Move transfers the buffer to a new wrapper. u is left empty: its Release
// is a no-op and its Arg binds nothing.
func (u *UniformParamsBuffer) Move() *UniformParamsBuffer {
	b, ok := u.h.take()
	if !ok {
		return &UniformParamsBuffer{ctx: u.ctx, h: &owned[Buffer]{register: u.ctx.RegisterBufferCleanup}}
	}
	return newUniformParamsBuffer(u.ctx, b, u.size)
}

// Buffer returns the underlying buffer, or nil once moved or released.
func (u *UniformParamsBuffer) Buffer() Buffer {
	b, _ := u.h.get()
	return b
}

// Size returns the buffer size in bytes.
func (u *UniformParamsBuffer) Size() uint64 { return u.size }

// Arg binds the buffer to a uniform slot.
func (u *UniformParamsBuffer) Arg() Arg { return BufferArg(u.Buffer()) }

// Release hands the buffer to the Context for destruction at the next
// Flush. It is safe to call right after submitting work that reads the
// buffer.
func (u *UniformParamsBuffer) Release() { u.h.release() }

// StorageBuffer is a buffer of numel elements of one scalar type. A GPU-only
// storage buffer is not host visible.
//
// A StorageBuffer must not be copied or moved; pass the pointer.
type StorageBuffer struct {
	_       noCopy
	ctx     *Context
	h       *owned[Buffer]
	dtype   ScalarType
	numel   int
	gpuOnly bool
}

// NewStorageBuffer creates a storage buffer of numel elements of dtype.
func NewStorageBuffer(ctx *Context, dtype ScalarType, numel int, gpuOnly bool) (*StorageBuffer, error) {
	if numel <= 0 || dtype.Size() == 0 {
		return nil, fmt.Errorf("%w: %d x %s", ErrInvalidSize, numel, dtype)
	}
	b, err := ctx.device.CreateBuffer(BufferDescriptor{
		Label:       fmt.Sprintf("storage[%s x %d]", dtype, numel),
		Size:        uint64(numel) * uint64(dtype.Size()),
		Usage:       BufferStorage | BufferTransferSrc | BufferTransferDst,
		HostVisible: !gpuOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("dispatch: create storage buffer: %w", err)
	}
	s := &StorageBuffer{
		ctx:     ctx,
		h:       newOwned(b, ctx.RegisterBufferCleanup),
		dtype:   dtype,
		numel:   numel,
		gpuOnly: gpuOnly,
	}
	runtime.AddCleanup(s, (*owned[Buffer]).release, s.h)
	return s, nil
}

// Type returns the element type.
func (s *StorageBuffer) Type() ScalarType { return s.dtype }

// Numel returns the element count.
func (s *StorageBuffer) Numel() int { return s.numel }

// GPUOnly reports whether the buffer is inaccessible from the host.
func (s *StorageBuffer) GPUOnly() bool { return s.gpuOnly }

// Size returns the buffer size in bytes.
func (s *StorageBuffer) Size() uint64 { return uint64(s.numel) * uint64(s.dtype.Size()) }

// Buffer returns the underlying buffer, or nil once released.
func (s *StorageBuffer) Buffer() Buffer {
	b, _ := s.h.get()
	return b
}

// Arg binds the buffer to a storage slot.
func (s *StorageBuffer) Arg() Arg { return BufferArg(s.Buffer()) }

// Endpoint addresses the buffer in elements for SubmitCopy.
func (s *StorageBuffer) Endpoint() Endpoint { return TypedBufferEndpoint(s.Buffer(), s.dtype) }

// Write copies raw little-endian element data to the start of the buffer.
// The caller must make sure no submitted work uses the buffer concurrently.
func (s *StorageBuffer) Write(data []byte) error {
	b, err := s.hostBuffer()
	if err != nil {
		return err
	}
	if uint64(len(data)) > s.Size() {
		return fmt.Errorf("%w: write %d bytes into %d", ErrCopyOutOfBounds, len(data), s.Size())
	}
	return s.ctx.queue.WriteBuffer(b, 0, data)
}

// Read copies the start of the buffer into data. Flush first so submitted
// writes are complete.
func (s *StorageBuffer) Read(data []byte) error {
	b, err := s.hostBuffer()
	if err != nil {
		return err
	}
	if uint64(len(data)) > s.Size() {
		return fmt.Errorf("%w: read %d bytes from %d", ErrCopyOutOfBounds, len(data), s.Size())
	}
	return s.ctx.queue.ReadBuffer(b, 0, data)
}

// WriteFloat32s converts values to the element type and writes them.
func (s *StorageBuffer) WriteFloat32s(values []float32) error {
	data, err := encodeFloat32s(s.dtype, values)
	if err != nil {
		return err
	}
	return s.Write(data)
}

// ReadFloat32s reads every element converted to float32.
func (s *StorageBuffer) ReadFloat32s() ([]float32, error) {
	data := make([]byte, s.Size())
	if err := s.Read(data); err != nil {
		return nil, err
	}
	return decodeFloat32s(s.dtype, data)
}

// Release hands the buffer to the Context for destruction at the next Flush.
func (s *StorageBuffer) Release() { s.h.release() }

func (s *StorageBuffer) hostBuffer() (Buffer, error) {
	if s.gpuOnly {
		return nil, ErrNotHostVisible
	}
	b, ok := s.h.get()
	if !ok {
		return nil, fmt.Errorf("%w: storage buffer released", ErrNilResource)
	}
	return b, nil
}

// StorageImage is an image usable as a storage or sampled binding and as a
// copy endpoint.
//
// A StorageImage must not be copied; pass the pointer.
type StorageImage struct {
	_ noCopy
	h *owned[Image]
}

// NewStorageImage creates an image of the given extent and format.
func NewStorageImage(ctx *Context, extent UVec3, format ImageFormat) (*StorageImage, error) {
	if !extent.Positive() || format.TexelSize() == 0 {
		return nil, fmt.Errorf("%w: image %s %s", ErrInvalidSize, extent, format)
	}
	img, err := ctx.device.CreateImage(ImageDescriptor{
		Label:  fmt.Sprintf("image[%s %s]", format, extent),
		Extent: extent,
		Format: format,
	})
	if err != nil {
		return nil, fmt.Errorf("dispatch: create image: %w", err)
	}
	s := &StorageImage{h: newOwned(img, ctx.RegisterImageCleanup)}
	runtime.AddCleanup(s, (*owned[Image]).release, s.h)
	return s, nil
}

// Image returns the underlying image, or nil once released.
func (s *StorageImage) Image() Image {
	img, _ := s.h.get()
	return img
}

// Arg binds the image.
func (s *StorageImage) Arg() Arg { return ImageArg(s.Image()) }

// Endpoint addresses the image in texels for SubmitCopy.
func (s *StorageImage) Endpoint() Endpoint { return ImageEndpoint(s.Image()) }

// Release hands the image to the Context for destruction at the next Flush.
func (s *StorageImage) Release() { s.h.release() }
