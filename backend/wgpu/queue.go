// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/dispatch"
)

// Queue serializes access to a hal.Queue.
type Queue struct {
	dev *Device
	raw hal.Queue

	mu        sync.Mutex // guards raw submissions and writes
	submitted atomic.Uint64
}

var _ dispatch.Queue = (*Queue)(nil)

// Raw returns the HAL queue.
func (q *Queue) Raw() hal.Queue { return q.raw }

func (q *Queue) completed(index uint64) bool {
	return q.raw.PollCompleted() >= index
}

func (q *Queue) Submit(cmd dispatch.CommandBuffer, fence dispatch.Fence) error {
	cb, ok := cmd.(*CommandBuffer)
	if !ok {
		return fmt.Errorf("%w: command buffer", ErrForeignResource)
	}
	if cb.state != cmdEnded {
		return ErrNotEnded
	}
	var f *Fence
	if fence != nil {
		if f, ok = fence.(*Fence); !ok {
			return fmt.Errorf("%w: fence", ErrForeignResource)
		}
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.dev.destroyed.Load() {
		return fmt.Errorf("wgpu: submit: %w", dispatch.ErrDeviceLost)
	}
	index, err := q.raw.Submit([]hal.CommandBuffer{cb.raw})
	if err != nil {
		return deviceErr("submit", err)
	}
	q.submitted.Add(1)
	if f != nil {
		f.arm(index)
	}
	dispatch.Logger().Debug("wgpu: submitted", "index", index, "dispatches", cb.dispatches)
	return nil
}

func hostBuffer(b dispatch.Buffer, offset, n uint64) (*Buffer, error) {
	buf, ok := b.(*Buffer)
	if !ok {
		return nil, fmt.Errorf("%w: buffer", ErrForeignResource)
	}
	if !buf.hostVisible {
		return nil, fmt.Errorf("wgpu: %q: %w", buf.label, dispatch.ErrNotHostVisible)
	}
	if offset+n > buf.size {
		return nil, fmt.Errorf("%w: [%d, %d) of %d bytes", ErrOutOfRange, offset, offset+n, buf.size)
	}
	return buf, nil
}

func (q *Queue) WriteBuffer(b dispatch.Buffer, offset uint64, data []byte) error {
	buf, err := hostBuffer(b, offset, uint64(len(data)))
	if err != nil || len(data) == 0 {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.raw.WriteBuffer(buf.raw, offset, data); err != nil {
		return deviceErr("write buffer", err)
	}
	return nil
}

// ReadBuffer maps the range and copies it out. The caller must have waited
// for every submission writing the buffer.
func (q *Queue) ReadBuffer(b dispatch.Buffer, offset uint64, data []byte) error {
	buf, err := hostBuffer(b, offset, uint64(len(data)))
	if err != nil || len(data) == 0 {
		return err
	}
	m, err := q.dev.raw.MapBuffer(buf.raw, offset, uint64(len(data)))
	if err != nil {
		return deviceErr("map buffer", err)
	}
	copy(data, unsafe.Slice((*byte)(m.Ptr), len(data)))
	if err := q.dev.raw.UnmapBuffer(buf.raw); err != nil {
		return deviceErr("unmap buffer", err)
	}
	return nil
}
