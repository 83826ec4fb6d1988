// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import "errors"

var (
	// ErrUnknownKernel is returned when no kernel is registered for a shader.
	ErrUnknownKernel = errors.New("software: no kernel registered for shader")

	// ErrNoAdapter is returned by Open for an index other than 0.
	ErrNoAdapter = errors.New("software: no such adapter")

	// ErrForeignResource is returned when a resource from another backend is used.
	ErrForeignResource = errors.New("software: resource does not belong to the software backend")

	// ErrDestroyed is returned for host access to a destroyed resource.
	ErrDestroyed = errors.New("software: resource destroyed")

	// ErrOutOfRange is returned for host access beyond a buffer.
	ErrOutOfRange = errors.New("software: access out of range")

	// ErrNotRecording is reported by End when commands were recorded outside
	// Begin/End.
	ErrNotRecording = errors.New("software: command buffer not recording")

	// ErrNotEnded is returned when submitting a command buffer that was not ended.
	ErrNotEnded = errors.New("software: command buffer not ended")

	// ErrFencePending is returned when resetting or resubmitting a fence whose
	// submission has not executed yet.
	ErrFencePending = errors.New("software: fence still pending")

	// ErrQueueClosed is returned when submitting to a destroyed device.
	ErrQueueClosed = errors.New("software: queue closed")
)
