// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package dispatch batches compute and copy work for one logical GPU device
// into a shared command buffer and defers destruction of GPU memory until the
// work that references it has completed.
//
// A [Context] owns the device and queue handles, one pool each for command
// buffers, descriptor sets and fences, a pipeline cache, and the deferred
// destruction lists. Callers record work in one of two ways:
//
//	// Fire and forget: the Context locks internally and flushes on its own
//	// every Config.SubmitFrequency submissions.
//	err := ctx.SubmitComputeJob(job, dispatch.BufferArg(out), params.Arg())
//
//	// Fenced: hold the dispatch lock for the whole submit, wait, flush span.
//	lock := ctx.AcquireDispatchLock()
//	defer lock.Unlock()
//	fence, _ := ctx.FencePool().Get()
//	defer ctx.FencePool().Put(fence)
//	if err := lock.SubmitComputeJob(job, fence, dispatch.BufferArg(out)); err != nil {
//		return err
//	}
//	if err := fence.Wait(); err != nil {
//		return err
//	}
//	return lock.Flush()
//
// The fenced path exists only on [DispatchLock], so recording without the
// lock cannot compile.
//
// Scoped wrappers ([UniformParamsBuffer], [StorageBuffer], [StorageImage])
// never free GPU memory directly. Release hands the handle to the owning
// Context, which destroys it during the next [Context.Flush] after all
// submitted work has finished.
//
// Devices are supplied by backends: backend/software runs kernels on the CPU,
// backend/wgpu drives a gogpu/wgpu HAL device.
package dispatch
