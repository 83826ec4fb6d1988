// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/dispatch"
)

var (
	// ErrNoAdapter is returned by Open when the adapter index does not exist.
	ErrNoAdapter = errors.New("wgpu: no such adapter")

	// ErrForeignResource is returned when a resource from another backend is used.
	ErrForeignResource = errors.New("wgpu: resource does not belong to this backend")

	// ErrNotRecording is reported by End when commands were recorded outside
	// Begin/End.
	ErrNotRecording = errors.New("wgpu: command buffer not recording")

	// ErrNotEnded is returned when submitting a command buffer that was not ended.
	ErrNotEnded = errors.New("wgpu: command buffer not ended")

	// ErrNoPipeline is reported by End when a dispatch was recorded with no
	// pipeline or descriptor set bound.
	ErrNoPipeline = errors.New("wgpu: dispatch without bound pipeline")

	// ErrFencePending is returned when resetting a fence whose submission
	// has not completed.
	ErrFencePending = errors.New("wgpu: fence still pending")

	// ErrOutOfRange is returned for host access beyond a buffer.
	ErrOutOfRange = errors.New("wgpu: access out of range")

	// ErrFenceTimeout is returned by Fence.Wait when WithFenceTimeout is set
	// and the submission did not complete in time.
	ErrFenceTimeout = errors.New("wgpu: fence wait timed out")

	// ErrUnsupportedFormat is returned for an image format with no texture
	// format equivalent.
	ErrUnsupportedFormat = errors.New("wgpu: unsupported image format")

	// ErrProvider is returned by NewFromProvider when the provider does not
	// expose HAL objects.
	ErrProvider = errors.New("wgpu: provider does not expose a HAL device")
)

// deviceErr marks HAL device loss with dispatch.ErrDeviceLost so callers can
// test for it without importing hal.
func deviceErr(op string, err error) error {
	if errors.Is(err, hal.ErrDeviceLost) || errors.Is(err, hal.ErrDeviceOutOfMemory) {
		return fmt.Errorf("wgpu: %s: %w: %w", op, dispatch.ErrDeviceLost, err)
	}
	return fmt.Errorf("wgpu: %s: %w", op, err)
}
