// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgpu implements the dispatch device and queue on the gogpu/wgpu
// hardware abstraction layer.
//
// It runs on any HAL backend registered in the process: Vulkan on Linux and
// Windows, Metal on macOS, and the noop backend everywhere. Shaders are WGSL;
// the workgroup-size tokens are substituted per pipeline and the result is
// compiled to SPIR-V with gogpu/naga.
//
// # Mapping
//
//	dispatch.Buffer         hal.Buffer (host-visible buffers carry MapRead|MapWrite)
//	dispatch.Image          hal.Texture plus one full view
//	dispatch.Pipeline       shader module, bind group layout, pipeline layout, compute pipeline
//	dispatch.DescriptorSet  hal.BindGroup, built when first dispatched
//	dispatch.CommandBuffer  hal.CommandEncoder, one compute pass per dispatch
//	dispatch.Fence          a queue submission index
//
// HAL queues report completion as a monotonically increasing submission
// index, so a Fence is simply the index of the submission it was attached
// to, polled against Queue.PollCompleted.
//
// # Opening a device
//
//	dev, queue, err := wgpu.Open(0)
//
// or, when another component already owns the GPU:
//
//	dev, queue, err := wgpu.NewFromProvider(provider)
package wgpu
