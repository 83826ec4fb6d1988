// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package dispatch

import "fmt"

// ArgKind tags the resource held by an Arg.
type ArgKind uint8

const (
	argNone ArgKind = iota
	ArgBuffer
	ArgImage
	ArgSampler
)

func (k ArgKind) String() string {
	switch k {
	case ArgBuffer:
		return "buffer"
	case ArgImage:
		return "image"
	case ArgSampler:
		return "sampler"
	default:
		return fmt.Sprintf("ArgKind(%d)", uint8(k))
	}
}

// Arg is a resource bound to one descriptor slot. Arguments bind to slots in
// the order they are passed.
type Arg struct {
	kind    ArgKind
	buffer  Buffer
	image   Image
	sampler Sampler
}

// BufferArg binds a buffer.
func BufferArg(b Buffer) Arg { return Arg{kind: ArgBuffer, buffer: b} }

// ImageArg binds an image.
func ImageArg(img Image) Arg { return Arg{kind: ArgImage, image: img} }

// SamplerArg binds a sampler.
func SamplerArg(s Sampler) Arg { return Arg{kind: ArgSampler, sampler: s} }

// Kind returns the resource kind.
func (a Arg) Kind() ArgKind { return a.kind }

func (a Arg) isNil() bool {
	switch a.kind {
	case ArgBuffer:
		return a.buffer == nil
	case ArgImage:
		return a.image == nil
	case ArgSampler:
		return a.sampler == nil
	default:
		return true
	}
}

func (a Arg) bind(set DescriptorSet, slot uint32) {
	switch a.kind {
	case ArgBuffer:
		set.BindBuffer(slot, a.buffer)
	case ArgImage:
		set.BindImage(slot, a.image)
	case ArgSampler:
		set.BindSampler(slot, a.sampler)
	}
}
