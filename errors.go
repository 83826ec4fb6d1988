// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package dispatch

import "errors"

// Precondition violations. Reported before anything is recorded.
var (
	// ErrInvalidWorkShape is returned when a global or local work shape has a
	// zero component.
	ErrInvalidWorkShape = errors.New("dispatch: work shape must be positive in every dimension")

	// ErrBindingCountMismatch is returned when the number of arguments differs
	// from the number of bindings the shader declares.
	ErrBindingCountMismatch = errors.New("dispatch: argument count does not match shader layout")

	// ErrBindingKindMismatch is returned when an argument cannot be bound to
	// the descriptor type at its position.
	ErrBindingKindMismatch = errors.New("dispatch: argument kind does not match descriptor type")

	// ErrUnsupportedCopy is returned for a copy whose endpoint kinds are not
	// one of buffer->buffer, image->image, image->buffer, buffer->image.
	ErrUnsupportedCopy = errors.New("dispatch: unsupported copy endpoint pairing")

	// ErrInvalidCopyExtent is returned when a copy extent has a zero
	// component, or a buffer-to-buffer copy uses the Y or Z dimension.
	ErrInvalidCopyExtent = errors.New("dispatch: invalid copy extent")

	// ErrCopyOutOfBounds is returned when a copy region exceeds either endpoint.
	ErrCopyOutOfBounds = errors.New("dispatch: copy region out of bounds")

	// ErrNilResource is returned when an argument or endpoint has no resource.
	ErrNilResource = errors.New("dispatch: nil resource")

	// ErrInvalidSize is returned when a wrapper is created with a
	// non-positive element count or an empty parameter block.
	ErrInvalidSize = errors.New("dispatch: invalid resource size")

	// ErrNotHostVisible is returned for host access to a GPU-only buffer.
	ErrNotHostVisible = errors.New("dispatch: buffer is not host visible")
)

// Resource exhaustion.
var (
	// ErrPoolExhausted is returned when a pool reached its configured capacity.
	ErrPoolExhausted = errors.New("dispatch: pool exhausted")
)

// Device-level and lifecycle errors.
var (
	// ErrDeviceLost is returned once a submission or wait failed at the device
	// level. The Context rejects all further work after that.
	ErrDeviceLost = errors.New("dispatch: device lost")

	// ErrFenceNotSubmitted is returned when waiting on a fence that was never
	// attached to a submission since its last reset.
	ErrFenceNotSubmitted = errors.New("dispatch: fence not submitted")

	// ErrContextClosed is returned by operations on a closed Context.
	ErrContextClosed = errors.New("dispatch: context closed")

	// ErrLockReleased is returned by a DispatchLock used after Unlock.
	ErrLockReleased = errors.New("dispatch: dispatch lock already released")
)
