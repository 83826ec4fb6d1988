// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package dispatch

// DispatchLock is exclusive access to a Context's shared command buffer,
// obtained from [Context.AcquireDispatchLock].
//
// Submissions through the lock take an optional caller-supplied fence. With a
// fence, the command buffer is submitted immediately and the fence signals
// when it completes. Keep the lock until the fence has been waited on and
// Flush has been called, otherwise another goroutine could record into or
// submit on top of the fenced command buffer:
//
//	lock := ctx.AcquireDispatchLock()
//	defer lock.Unlock()
//	if err := lock.SubmitComputeJob(job, fence, args...); err != nil {
//		return err
//	}
//	if err := fence.Wait(); err != nil {
//		return err
//	}
//	return lock.Flush()
//
// Several submissions made through one lock with a nil fence form a single
// contiguous block in the command stream.
//
// A DispatchLock must not be shared between goroutines. After Unlock every
// method returns ErrLockReleased.
type DispatchLock struct {
	ctx      *Context
	released bool
}

// Context returns the Context the lock belongs to.
func (l *DispatchLock) Context() *Context { return l.ctx }

// SubmitComputeJob records job without further locking. With a non-nil fence
// the command buffer is submitted right away and fence is signaled on
// completion.
func (l *DispatchLock) SubmitComputeJob(job ComputeJob, fence Fence, args ...Arg) error {
	if l.released {
		return ErrLockReleased
	}
	return l.ctx.submitComputeJobLocked(&job, fence, args)
}

// SubmitCopy records cp without further locking; fence behaves as in
// SubmitComputeJob.
func (l *DispatchLock) SubmitCopy(cp Copy, fence Fence) error {
	if l.released {
		return ErrLockReleased
	}
	return l.ctx.submitCopyLocked(&cp, fence)
}

// Flush behaves like Context.Flush but keeps the lock held.
func (l *DispatchLock) Flush() error {
	if l.released {
		return ErrLockReleased
	}
	return l.ctx.flushLocked()
}

// Unlock releases the dispatch lock. Calling it more than once is a no-op.
func (l *DispatchLock) Unlock() {
	if l.released {
		return
	}
	l.released = true
	l.ctx.mu.Unlock()
}
