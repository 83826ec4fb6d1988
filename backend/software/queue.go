// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/dispatch"
)

type job struct {
	ops   []op
	fence *Fence
	index uint64
}

// Queue executes submissions in order on one goroutine.
type Queue struct {
	dev  *Device
	jobs chan job

	mu     sync.Mutex // guards closed and sends on jobs
	closed bool
	wg     sync.WaitGroup

	submitted atomic.Uint64
	submitErr atomic.Pointer[error]
}

var _ dispatch.Queue = (*Queue)(nil)

func newQueue(dev *Device) *Queue {
	q := &Queue{dev: dev, jobs: make(chan job, 64)}
	q.wg.Add(1)
	go q.run()
	return q
}

func (q *Queue) run() {
	defer q.wg.Done()
	for j := range q.jobs {
		for i := range j.ops {
			q.dev.execute(&j.ops[i], j.index)
		}
		if j.fence != nil {
			j.fence.signal()
		}
	}
}

// FailSubmissions makes every later Submit return err, simulating a lost
// device. Pass nil to restore normal operation.
func (q *Queue) FailSubmissions(err error) {
	if err == nil {
		q.submitErr.Store(nil)
		return
	}
	q.submitErr.Store(&err)
}

func (q *Queue) Submit(cmd dispatch.CommandBuffer, fence dispatch.Fence) error {
	if errp := q.submitErr.Load(); errp != nil {
		return *errp
	}
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
	ops := make([]op, len(cb.ops))
	copy(ops, cb.ops)
	return q.enqueue(ops, f)
}

func (q *Queue) enqueue(ops []op, f *Fence) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	if f != nil {
		if err := f.arm(); err != nil {
			return err
		}
	}
	q.jobs <- job{ops: ops, fence: f, index: q.submitted.Add(1)}
	return nil
}

// waitIdle blocks until every job enqueued so far has executed.
func (q *Queue) waitIdle() error {
	f := &Fence{}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	_ = f.arm()
	q.jobs <- job{fence: f}
	q.mu.Unlock()
	return f.Wait()
}

func (q *Queue) close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()
	q.wg.Wait()
}

func (q *Queue) WriteBuffer(b dispatch.Buffer, offset uint64, data []byte) error {
	buf, err := hostBuffer(b, offset, uint64(len(data)))
	if err != nil {
		return err
	}
	buf.mu.RLock()
	defer buf.mu.RUnlock()
	if buf.destroyed {
		return ErrDestroyed
	}
	copy(buf.data[offset:], data)
	return nil
}

func (q *Queue) ReadBuffer(b dispatch.Buffer, offset uint64, data []byte) error {
	buf, err := hostBuffer(b, offset, uint64(len(data)))
	if err != nil {
		return err
	}
	buf.mu.RLock()
	defer buf.mu.RUnlock()
	if buf.destroyed {
		return ErrDestroyed
	}
	copy(data, buf.data[offset:])
	return nil
}

func hostBuffer(b dispatch.Buffer, offset, n uint64) (*Buffer, error) {
	buf, ok := b.(*Buffer)
	if !ok {
		return nil, fmt.Errorf("%w: buffer", ErrForeignResource)
	}
	if !buf.hostVisible {
		return nil, dispatch.ErrNotHostVisible
	}
	if offset+n > buf.size {
		return nil, fmt.Errorf("%w: %d bytes at %d in buffer of %d", ErrOutOfRange, n, offset, buf.size)
	}
	return buf, nil
}
