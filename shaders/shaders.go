// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package shaders holds the built-in compute shaders. Every shader has a
// WGSL source for GPU backends and a kernel of the same name in
// backend/software.
package shaders

import (
	_ "embed"

	"github.com/gogpu/dispatch"
)

//go:embed fill.wgsl
var fillSource string

//go:embed iota_vec4.wgsl
var iotaVec4Source string

//go:embed scale.wgsl
var scaleSource string

//go:embed relu.wgsl
var reluSource string

// FillParams is the uniform block of Fill.
type FillParams struct {
	Value float32
	Count uint32
}

// ScaleParams is the uniform block of Scale.
type ScaleParams struct {
	Alpha float32
	Count uint32
}

var (
	// Fill writes FillParams.Value to the first FillParams.Count elements.
	// Bindings: output storage buffer, FillParams uniform.
	Fill = dispatch.ShaderInfo{
		Name:       "fill_f32",
		Source:     fillSource,
		EntryPoint: "main",
		Layout:     []dispatch.DescriptorType{dispatch.DescriptorStorageBuffer, dispatch.DescriptorUniformBuffer},
		TileSize:   dispatch.Vec3(1, 1, 1),
	}

	// IotaVec4 writes output[i] = i, four elements per invocation.
	// Bindings: output storage buffer.
	IotaVec4 = dispatch.ShaderInfo{
		Name:       "iota_vec4",
		Source:     iotaVec4Source,
		EntryPoint: "main",
		Layout:     []dispatch.DescriptorType{dispatch.DescriptorStorageBuffer},
		TileSize:   dispatch.Vec3(4, 1, 1),
	}

	// Scale writes output[i] = input[i] * ScaleParams.Alpha.
	// Bindings: output storage buffer, input read-only storage buffer,
	// ScaleParams uniform.
	Scale = dispatch.ShaderInfo{
		Name:       "scale_f32",
		Source:     scaleSource,
		EntryPoint: "main",
		Layout: []dispatch.DescriptorType{
			dispatch.DescriptorStorageBuffer,
			dispatch.DescriptorReadOnlyStorageBuffer,
			dispatch.DescriptorUniformBuffer,
		},
		TileSize: dispatch.Vec3(1, 1, 1),
	}

	// ReLU writes output[i] = max(input[i], 0).
	// Bindings: output storage buffer, input read-only storage buffer.
	ReLU = dispatch.ShaderInfo{
		Name:       "relu_f32",
		Source:     reluSource,
		EntryPoint: "main",
		Layout:     []dispatch.DescriptorType{dispatch.DescriptorStorageBuffer, dispatch.DescriptorReadOnlyStorageBuffer},
		TileSize:   dispatch.Vec3(1, 1, 1),
	}
)

// All returns every built-in shader.
func All() []dispatch.ShaderInfo {
	return []dispatch.ShaderInfo{Fill, IotaVec4, Scale, ReLU}
}
