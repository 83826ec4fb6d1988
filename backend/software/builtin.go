// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/dispatch/shaders"
)

func init() {
	RegisterKernel(shaders.Fill.Name, fillKernel)
	RegisterKernel(shaders.IotaVec4.Name, iotaVec4Kernel)
	RegisterKernel(shaders.Scale.Name, scaleKernel)
	RegisterKernel(shaders.ReLU.Name, reluKernel)
}

// Uniform blocks are {f32, u32}: word 0 is the scalar, word 1 the count.

func fillKernel(inv *Invocation) {
	idx := int(inv.ID.X)
	if uint32(idx) >= inv.Uint32(1, 1) || idx >= inv.Len32(0) {
		return
	}
	inv.SetFloat32(0, idx, inv.Float32(1, 0))
}

func iotaVec4Kernel(inv *Invocation) {
	n := inv.Len32(0)
	base := int(inv.ID.X) * 4
	for k := range 4 {
		if idx := base + k; idx < n {
			inv.SetFloat32(0, idx, float32(idx))
		}
	}
}

func scaleKernel(inv *Invocation) {
	idx := int(inv.ID.X)
	if uint32(idx) >= inv.Uint32(2, 1) || idx >= inv.Len32(0) || idx >= inv.Len32(1) {
		return
	}
	inv.SetFloat32(0, idx, inv.Float32(1, idx)*inv.Float32(2, 0))
}

func reluKernel(inv *Invocation) {
	idx := int(inv.ID.X)
	if idx >= inv.Len32(0) || idx >= inv.Len32(1) {
		return
	}
	inv.SetFloat32(0, idx, math32.Max(inv.Float32(1, idx), 0))
}
