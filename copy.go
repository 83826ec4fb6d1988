// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package dispatch

import "fmt"

type endpointKind uint8

const (
	endpointNone endpointKind = iota
	endpointBuffer
	endpointImage
)

// Endpoint is the source or destination of a copy: a buffer or an image.
//
// Buffer endpoints are addressed in elements of the endpoint's element type,
// image endpoints in texels.
type Endpoint struct {
	kind   endpointKind
	buffer Buffer
	elem   ScalarType
	image  Image
}

// BufferEndpoint addresses b in bytes.
func BufferEndpoint(b Buffer) Endpoint {
	return Endpoint{kind: endpointBuffer, buffer: b, elem: Byte}
}

// TypedBufferEndpoint addresses b in elements of type t.
func TypedBufferEndpoint(b Buffer, t ScalarType) Endpoint {
	return Endpoint{kind: endpointBuffer, buffer: b, elem: t}
}

// ImageEndpoint addresses img in texels.
func ImageEndpoint(img Image) Endpoint {
	return Endpoint{kind: endpointImage, image: img}
}

func (e Endpoint) String() string {
	switch e.kind {
	case endpointBuffer:
		return "buffer"
	case endpointImage:
		return "image"
	default:
		return "none"
	}
}

func (e Endpoint) isNil() bool {
	switch e.kind {
	case endpointBuffer:
		return e.buffer == nil
	case endpointImage:
		return e.image == nil
	default:
		return false
	}
}

// byteRange converts an element offset and count to bytes.
func (e Endpoint) byteRange(offset, count uint64) (uint64, uint64) {
	size := uint64(e.elem.Size())
	return offset * size, count * size
}

// Copy describes one copy between two endpoints. For buffer-to-buffer copies
// only the X component of Extent and the offsets is used and Extent.Y and
// Extent.Z must be 1.
type Copy struct {
	Barrier   Barrier
	Src       Endpoint
	Dst       Endpoint
	Extent    UVec3
	SrcOffset UVec3
	DstOffset UVec3
}

// copyCommand is a validated copy ready to be recorded.
type copyCommand struct {
	name   string
	record func(cmd CommandBuffer)
}

// plan validates c and selects the copy command for its endpoint kinds.
// Nothing is recorded when plan fails.
func (c *Copy) plan() (copyCommand, error) {
	if c.Src.isNil() || c.Dst.isNil() {
		return copyCommand{}, fmt.Errorf("%w: copy %s -> %s", ErrNilResource, c.Src, c.Dst)
	}
	if !c.Extent.Positive() {
		return copyCommand{}, fmt.Errorf("%w: %s", ErrInvalidCopyExtent, c.Extent)
	}

	switch [2]endpointKind{c.Src.kind, c.Dst.kind} {
	case [2]endpointKind{endpointBuffer, endpointBuffer}:
		return c.planBufferToBuffer()
	case [2]endpointKind{endpointImage, endpointImage}:
		return c.planImageToImage()
	case [2]endpointKind{endpointImage, endpointBuffer}:
		return c.planImageToBuffer()
	case [2]endpointKind{endpointBuffer, endpointImage}:
		return c.planBufferToImage()
	default:
		return copyCommand{}, fmt.Errorf("%w: %s -> %s", ErrUnsupportedCopy, c.Src, c.Dst)
	}
}

func (c *Copy) planBufferToBuffer() (copyCommand, error) {
	if c.Extent.Y != 1 || c.Extent.Z != 1 {
		return copyCommand{}, fmt.Errorf("%w: buffer copy extent %s", ErrInvalidCopyExtent, c.Extent)
	}
	if c.Src.elem.Size() != c.Dst.elem.Size() {
		return copyCommand{}, fmt.Errorf("%w: element size %s vs %s", ErrUnsupportedCopy, c.Src.elem, c.Dst.elem)
	}
	srcOff, n := c.Src.byteRange(uint64(c.SrcOffset.X), uint64(c.Extent.X))
	dstOff, _ := c.Dst.byteRange(uint64(c.DstOffset.X), uint64(c.Extent.X))
	if srcOff+n > c.Src.buffer.Size() || dstOff+n > c.Dst.buffer.Size() {
		return copyCommand{}, fmt.Errorf("%w: %d bytes from %d (size %d) to %d (size %d)",
			ErrCopyOutOfBounds, n, srcOff, c.Src.buffer.Size(), dstOff, c.Dst.buffer.Size())
	}
	src, dst := c.Src.buffer, c.Dst.buffer
	region := BufferCopy{SrcOffset: srcOff, DstOffset: dstOff, Size: n}
	return copyCommand{
		name:   "copy_buffer_to_buffer",
		record: func(cmd CommandBuffer) { cmd.CopyBufferToBuffer(src, dst, region) },
	}, nil
}

func (c *Copy) planImageToImage() (copyCommand, error) {
	src, dst := c.Src.image, c.Dst.image
	if src.Format().TexelSize() != dst.Format().TexelSize() {
		return copyCommand{}, fmt.Errorf("%w: format %s vs %s", ErrUnsupportedCopy, src.Format(), dst.Format())
	}
	if !WithinBounds(c.SrcOffset, c.Extent, src.Extent()) || !WithinBounds(c.DstOffset, c.Extent, dst.Extent()) {
		return copyCommand{}, fmt.Errorf("%w: %s at %s -> %s", ErrCopyOutOfBounds, c.Extent, c.SrcOffset, c.DstOffset)
	}
	region := ImageCopy{SrcOrigin: c.SrcOffset, DstOrigin: c.DstOffset, Extent: c.Extent}
	return copyCommand{
		name:   "copy_image_to_image",
		record: func(cmd CommandBuffer) { cmd.CopyImageToImage(src, dst, region) },
	}, nil
}

func (c *Copy) planImageToBuffer() (copyCommand, error) {
	src, dst := c.Src.image, c.Dst.buffer
	if !WithinBounds(c.SrcOffset, c.Extent, src.Extent()) {
		return copyCommand{}, fmt.Errorf("%w: image region %s at %s", ErrCopyOutOfBounds, c.Extent, c.SrcOffset)
	}
	off, err := bufferSpan(c.Dst, c.DstOffset, c.Extent, src.Format())
	if err != nil {
		return copyCommand{}, err
	}
	region := BufferImageCopy{BufferOffset: off, ImageOrigin: c.SrcOffset, Extent: c.Extent}
	return copyCommand{
		name:   "copy_image_to_buffer",
		record: func(cmd CommandBuffer) { cmd.CopyImageToBuffer(src, dst, region) },
	}, nil
}

func (c *Copy) planBufferToImage() (copyCommand, error) {
	src, dst := c.Src.buffer, c.Dst.image
	if !WithinBounds(c.DstOffset, c.Extent, dst.Extent()) {
		return copyCommand{}, fmt.Errorf("%w: image region %s at %s", ErrCopyOutOfBounds, c.Extent, c.DstOffset)
	}
	off, err := bufferSpan(c.Src, c.SrcOffset, c.Extent, dst.Format())
	if err != nil {
		return copyCommand{}, err
	}
	region := BufferImageCopy{BufferOffset: off, ImageOrigin: c.DstOffset, Extent: c.Extent}
	return copyCommand{
		name:   "copy_buffer_to_image",
		record: func(cmd CommandBuffer) { cmd.CopyBufferToImage(src, dst, region) },
	}, nil
}

// bufferSpan returns the byte offset of a packed image region inside a
// buffer endpoint and checks that the region fits.
func bufferSpan(e Endpoint, offset, extent UVec3, format ImageFormat) (uint64, error) {
	start, _ := e.byteRange(uint64(offset.X), 0)
	n := extent.Volume() * uint64(format.TexelSize())
	if start+n > e.buffer.Size() {
		return 0, fmt.Errorf("%w: %d bytes at %d exceed buffer of %d", ErrCopyOutOfBounds, n, start, e.buffer.Size())
	}
	return start, nil
}
