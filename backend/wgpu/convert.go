// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/dispatch"
)

func textureFormat(f dispatch.ImageFormat) (gputypes.TextureFormat, error) {
	switch f {
	case dispatch.FormatR32Float:
		return gputypes.TextureFormatR32Float, nil
	case dispatch.FormatRGBA8Unorm:
		return gputypes.TextureFormatRGBA8Unorm, nil
	case dispatch.FormatRGBA32Float:
		return gputypes.TextureFormatRGBA32Float, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
}

// bufferUsage maps a descriptor to HAL usage flags. Every buffer can be a
// copy source and destination; the Context stages uploads through copies.
func bufferUsage(desc dispatch.BufferDescriptor) gputypes.BufferUsage {
	u := gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst
	if desc.Usage&dispatch.BufferUniform != 0 {
		u |= gputypes.BufferUsageUniform
	}
	if desc.Usage&dispatch.BufferStorage != 0 {
		u |= gputypes.BufferUsageStorage
	}
	if desc.HostVisible {
		u |= gputypes.BufferUsageMapRead | gputypes.BufferUsageMapWrite
	}
	return u
}

const imageUsage = gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst |
	gputypes.TextureUsageStorageBinding | gputypes.TextureUsageTextureBinding

func extent3D(e dispatch.UVec3) hal.Extent3D {
	return hal.Extent3D{Width: e.X, Height: e.Y, DepthOrArrayLayers: e.Z}
}

func origin3D(o dispatch.UVec3) hal.Origin3D {
	return hal.Origin3D{X: o.X, Y: o.Y, Z: o.Z}
}

func imageDimension(e dispatch.UVec3) (gputypes.TextureDimension, gputypes.TextureViewDimension) {
	if e.Z > 1 {
		return gputypes.TextureDimension3D, gputypes.TextureViewDimension3D
	}
	return gputypes.TextureDimension2D, gputypes.TextureViewDimension2D
}

func bufferAccess(a dispatch.Access) gputypes.BufferUsage {
	var u gputypes.BufferUsage
	if a&(dispatch.AccessShaderRead|dispatch.AccessShaderWrite) != 0 {
		u |= gputypes.BufferUsageStorage
	}
	if a&dispatch.AccessUniformRead != 0 {
		u |= gputypes.BufferUsageUniform
	}
	if a&dispatch.AccessTransferRead != 0 {
		u |= gputypes.BufferUsageCopySrc
	}
	if a&dispatch.AccessTransferWrite != 0 {
		u |= gputypes.BufferUsageCopyDst
	}
	if a&dispatch.AccessHostRead != 0 {
		u |= gputypes.BufferUsageMapRead
	}
	if a&dispatch.AccessHostWrite != 0 {
		u |= gputypes.BufferUsageMapWrite
	}
	return u
}

func textureAccess(a dispatch.Access) gputypes.TextureUsage {
	var u gputypes.TextureUsage
	if a&dispatch.AccessShaderWrite != 0 {
		u |= gputypes.TextureUsageStorageBinding
	} else if a&dispatch.AccessShaderRead != 0 {
		u |= gputypes.TextureUsageTextureBinding
	}
	if a&dispatch.AccessTransferRead != 0 {
		u |= gputypes.TextureUsageCopySrc
	}
	if a&dispatch.AccessTransferWrite != 0 {
		u |= gputypes.TextureUsageCopyDst
	}
	return u
}

// layoutEntry describes one shader binding. Storage images are declared as
// 2D rgba32float; sampled images as filterable float.
func layoutEntry(slot uint32, t dispatch.DescriptorType) gputypes.BindGroupLayoutEntry {
	e := gputypes.BindGroupLayoutEntry{Binding: slot, Visibility: gputypes.ShaderStageCompute}
	switch t {
	case dispatch.DescriptorUniformBuffer:
		e.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}
	case dispatch.DescriptorStorageBuffer:
		e.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}
	case dispatch.DescriptorReadOnlyStorageBuffer:
		e.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}
	case dispatch.DescriptorStorageImage:
		e.StorageTexture = &gputypes.StorageTextureBindingLayout{
			Access:        gputypes.StorageTextureAccessReadWrite,
			Format:        gputypes.TextureFormatRGBA32Float,
			ViewDimension: gputypes.TextureViewDimension2D,
		}
	case dispatch.DescriptorSampledImage:
		e.Texture = &gputypes.TextureBindingLayout{
			SampleType:    gputypes.TextureSampleTypeFloat,
			ViewDimension: gputypes.TextureViewDimension2D,
		}
	case dispatch.DescriptorSampler:
		e.Sampler = &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering}
	}
	return e
}
