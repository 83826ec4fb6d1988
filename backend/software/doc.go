// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package software is a CPU implementation of the dispatch device and queue.
//
// Submitted command buffers execute in order on a queue goroutine. Each
// dispatch runs its workgroups on a worker pool; a workgroup calls the Go
// [Kernel] registered under the shader's name once per invocation inside the
// global work shape. Copies move real bytes, fences signal when their
// submission has executed, and destroyed resources are tracked so that a
// command touching freed memory is counted in [Stats.UseAfterFree] instead of
// corrupting anything.
//
// Built-in kernels for the shaders package are registered on import.
package software
