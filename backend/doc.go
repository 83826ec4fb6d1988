// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package backend selects a device implementation by name.
//
// Two backends are registered on import:
//
//   - "wgpu": the gogpu/wgpu HAL (Vulkan, Metal, DX12, GL)
//   - "software": the CPU device in backend/software
//
// Open with an empty name tries them in that order and returns the first
// that opens, so a machine without a GPU falls back to the CPU:
//
//	f, err := backend.NewFactory("")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer f.Close()
//	ctx, err := f.Context(0)
//
// Additional backends can be added with Register.
package backend
