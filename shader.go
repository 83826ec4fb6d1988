// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package dispatch

import "fmt"

// DescriptorType is the kind of resource a shader binding expects.
type DescriptorType uint8

const (
	DescriptorUniformBuffer DescriptorType = iota
	DescriptorStorageBuffer
	DescriptorReadOnlyStorageBuffer
	DescriptorStorageImage
	DescriptorSampledImage
	DescriptorSampler
)

func (d DescriptorType) String() string {
	switch d {
	case DescriptorUniformBuffer:
		return "uniform-buffer"
	case DescriptorStorageBuffer:
		return "storage-buffer"
	case DescriptorReadOnlyStorageBuffer:
		return "read-only-storage-buffer"
	case DescriptorStorageImage:
		return "storage-image"
	case DescriptorSampledImage:
		return "sampled-image"
	case DescriptorSampler:
		return "sampler"
	default:
		return fmt.Sprintf("DescriptorType(%d)", uint8(d))
	}
}

// accepts reports whether an argument of kind k can be bound to d.
func (d DescriptorType) accepts(k ArgKind) bool {
	switch d {
	case DescriptorUniformBuffer, DescriptorStorageBuffer, DescriptorReadOnlyStorageBuffer:
		return k == ArgBuffer
	case DescriptorStorageImage, DescriptorSampledImage:
		return k == ArgImage
	case DescriptorSampler:
		return k == ArgSampler
	default:
		return false
	}
}

// ShaderInfo identifies a compute shader and describes its bindings.
//
// Source is WGSL. Backends that compile shaders substitute the tokens WG_X,
// WG_Y and WG_Z with the local work shape the pipeline is created for.
type ShaderInfo struct {
	Name       string
	Source     string
	EntryPoint string

	// Layout lists the descriptor type of each binding, by slot.
	Layout []DescriptorType

	// TileSize is the number of output elements one invocation produces per
	// dimension. Zero components count as 1.
	TileSize UVec3
}

// ComputeJob is one dispatch of a shader.
type ComputeJob struct {
	Shader  ShaderInfo
	Barrier Barrier
	Global  UVec3
	Local   UVec3
}

// validate checks the work shapes and the arguments against the layout.
func (j *ComputeJob) validate(args []Arg) error {
	if !j.Global.Positive() || !j.Local.Positive() {
		return fmt.Errorf("%w: %s global=%s local=%s", ErrInvalidWorkShape, j.Shader.Name, j.Global, j.Local)
	}
	if len(args) != len(j.Shader.Layout) {
		return fmt.Errorf("%w: %s wants %d, got %d", ErrBindingCountMismatch, j.Shader.Name, len(j.Shader.Layout), len(args))
	}
	for i, a := range args {
		if a.isNil() {
			return fmt.Errorf("%w: %s argument %d", ErrNilResource, j.Shader.Name, i)
		}
		if want := j.Shader.Layout[i]; !want.accepts(a.kind) {
			return fmt.Errorf("%w: %s slot %d is %s, got %s", ErrBindingKindMismatch, j.Shader.Name, i, want, a.kind)
		}
	}
	return nil
}
