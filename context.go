// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package dispatch

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// submission is a command buffer handed to the queue and not yet known to
// have completed.
type submission struct {
	cmd   CommandBuffer
	fence Fence
	owned bool // fence came from the fence pool
	sets  []DescriptorSet
}

// Stats is a snapshot of Context activity.
type Stats struct {
	// Recorded counts dispatches and copies recorded.
	Recorded uint64
	// Submissions counts command buffers handed to the queue.
	Submissions uint64
	// Flushes counts completed Flush calls.
	Flushes uint64
	// InFlight is the number of submissions not yet reclaimed.
	InFlight int
	// PendingBuffers and PendingImages are awaiting deferred destruction.
	PendingBuffers int
	PendingImages  int
}

// Context batches work for one device into a shared command buffer.
//
// The shared command buffer, the submission counter and the in-flight list
// are guarded by the dispatch lock. Methods on Context that record work take
// the lock themselves; methods on [DispatchLock] run under a lock the caller
// already holds. Deferred destruction lists have their own locks, so
// RegisterBufferCleanup and RegisterImageCleanup never wait for recording.
type Context struct {
	cfg          Config
	device       Device
	queue        Queue
	sharedDevice bool

	commands    *CommandPool
	descriptors *DescriptorPool
	fences      *FencePool
	pipelines   *PipelineCache
	profiler    Profiler
	cleanup     cleanupRegistry

	// mu is the dispatch lock.
	mu          sync.Mutex
	cmd         CommandBuffer // open command buffer, nil when idle
	sets        []DescriptorSet
	submitCount int
	inflight    []submission
	lost        error
	closed      bool

	recorded    atomic.Uint64
	submissions atomic.Uint64
	flushes     atomic.Uint64
	inflightN   atomic.Int64
}

// NewContext creates a Context that drives device and queue.
// Unless WithSharedDevice is given, Close destroys the device.
func NewContext(device Device, queue Queue, opts ...Option) (*Context, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("%w: device and queue are required", ErrNilResource)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	cfg := o.cfg.normalize()

	profiler := o.profiler
	if profiler == nil {
		profiler = newProfiler(cfg)
	}

	c := &Context{
		cfg:          cfg,
		device:       device,
		queue:        queue,
		sharedDevice: o.sharedDevice,
		commands:     newCommandPool(device, cfg.CommandPoolSize),
		descriptors:  newDescriptorPool(device, cfg.DescriptorPoolSize),
		fences:       newFencePool(device, cfg.FencePoolSize),
		pipelines:    newPipelineCache(device),
		profiler:     profiler,
	}
	Logger().Info("dispatch: context created",
		"submitFrequency", cfg.SubmitFrequency,
		"commandPool", cfg.CommandPoolSize,
		"descriptorPool", cfg.DescriptorPoolSize)
	return c, nil
}

// Config returns the effective configuration.
func (c *Context) Config() Config { return c.cfg }

// Device returns the device handle.
func (c *Context) Device() Device { return c.device }

// Queue returns the queue handle.
func (c *Context) Queue() Queue { return c.queue }

// CommandPool returns the command buffer pool.
func (c *Context) CommandPool() *CommandPool { return c.commands }

// DescriptorPool returns the descriptor set pool.
func (c *Context) DescriptorPool() *DescriptorPool { return c.descriptors }

// FencePool returns the fence pool. Callers use it to obtain fences for the
// fenced submission path.
func (c *Context) FencePool() *FencePool { return c.fences }

// Pipelines returns the pipeline cache.
func (c *Context) Pipelines() *PipelineCache { return c.pipelines }

// Profiler returns the profiler in use.
func (c *Context) Profiler() Profiler { return c.profiler }

// Stats returns a snapshot of counters. It does not take the dispatch lock.
func (c *Context) Stats() Stats {
	b, i := c.cleanup.pending()
	return Stats{
		Recorded:       c.recorded.Load(),
		Submissions:    c.submissions.Load(),
		Flushes:        c.flushes.Load(),
		InFlight:       int(c.inflightN.Load()),
		PendingBuffers: b,
		PendingImages:  i,
	}
}

// AcquireDispatchLock blocks until the caller has exclusive access to the
// shared command buffer. The returned handle is the only way to submit with
// a caller-supplied fence. Release it with Unlock.
func (c *Context) AcquireDispatchLock() *DispatchLock {
	c.mu.Lock()
	return &DispatchLock{ctx: c}
}

// SubmitComputeJob records job with args bound to consecutive slots. It
// takes the dispatch lock for its own duration and submits the shared command
// buffer once Config.SubmitFrequency jobs and copies have accumulated.
func (c *Context) SubmitComputeJob(job ComputeJob, args ...Arg) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitComputeJobLocked(&job, nil, args)
}

// SubmitCopy records cp under the dispatch lock. Unsupported endpoint
// pairings and out-of-bounds regions are rejected before anything is
// recorded.
func (c *Context) SubmitCopy(cp Copy) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitCopyLocked(&cp, nil)
}

// Flush submits the open command buffer, waits for every submission to
// complete, recycles their command buffers and descriptor sets, and destroys
// all resources registered for cleanup. Flush on an idle Context only
// drains the cleanup lists.
func (c *Context) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flushLocked()
}

// RegisterBufferCleanup schedules b for destruction at the next Flush.
// It never blocks on GPU work.
func (c *Context) RegisterBufferCleanup(b Buffer) {
	if b == nil {
		return
	}
	c.cleanup.addBuffer(b)
}

// RegisterImageCleanup schedules img for destruction at the next Flush.
func (c *Context) RegisterImageCleanup(img Image) {
	if img == nil {
		return
	}
	c.cleanup.addImage(img)
}

// Close flushes, waits for the device to go idle and releases pools and
// pipelines. The device is destroyed unless it is shared. Close is
// idempotent.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}

	err := c.flushLocked()
	if c.lost == nil {
		if werr := c.device.WaitIdle(); werr != nil {
			err = errors.Join(err, fmt.Errorf("dispatch: wait idle: %w", werr))
		}
	}
	c.closed = true

	// Whatever is still in flight after a device failure is abandoned.
	for _, s := range c.inflight {
		c.device.FreeCommandBuffer(s.cmd)
	}
	c.inflight = nil
	c.inflightN.Store(0)
	if c.cmd != nil {
		c.device.FreeCommandBuffer(c.cmd)
		c.cmd = nil
	}

	c.pipelines.Purge()
	c.commands.release()
	c.fences.release()
	if !c.sharedDevice {
		c.device.Destroy()
	}
	Logger().Info("dispatch: context closed", "submissions", c.submissions.Load(), "flushes", c.flushes.Load())
	return err
}

func (c *Context) usableLocked() error {
	if c.closed {
		return ErrContextClosed
	}
	return c.lost
}

// fail records a device-level failure. Every later operation returns it.
func (c *Context) fail(op string, err error) error {
	if c.lost == nil {
		c.lost = fmt.Errorf("%w: %s: %w", ErrDeviceLost, op, err)
		Logger().Error("dispatch: device failure", "op", op, "err", err)
	}
	return c.lost
}

func (c *Context) submitComputeJobLocked(job *ComputeJob, fence Fence, args []Arg) error {
	if err := c.usableLocked(); err != nil {
		return err
	}
	if err := job.validate(args); err != nil {
		return err
	}
	pipeline, err := c.pipelines.Get(job.Shader, job.Local)
	if err != nil {
		return err
	}
	if err := c.openLocked(); err != nil {
		return err
	}
	set, err := c.allocateSetLocked(pipeline)
	if err != nil {
		return err
	}
	for i, a := range args {
		a.bind(set, uint32(i))
	}

	global := EffectiveGlobal(job.Global, job.Shader.TileSize)
	span := c.profiler.Begin(c.cmd, job.Shader.Name, global, job.Local)
	c.cmd.PipelineBarrier(job.Barrier)
	c.cmd.BindPipeline(pipeline)
	c.cmd.BindDescriptorSet(set)
	c.cmd.Dispatch(global)
	c.profiler.End(c.cmd, span)

	return c.recordedLocked(fence)
}

func (c *Context) submitCopyLocked(cp *Copy, fence Fence) error {
	if err := c.usableLocked(); err != nil {
		return err
	}
	op, err := cp.plan()
	if err != nil {
		return err
	}
	if err := c.openLocked(); err != nil {
		return err
	}

	span := c.profiler.Begin(c.cmd, op.name, cp.Extent, Vec3(1, 1, 1))
	c.cmd.PipelineBarrier(cp.Barrier)
	op.record(c.cmd)
	c.profiler.End(c.cmd, span)

	return c.recordedLocked(fence)
}

// recordedLocked counts one recorded operation and submits when a fence was
// supplied or the threshold is reached.
func (c *Context) recordedLocked(fence Fence) error {
	c.recorded.Add(1)
	c.submitCount++
	if fence != nil || c.submitCount >= c.cfg.SubmitFrequency {
		return c.submitLocked(fence)
	}
	return nil
}

// openLocked makes sure a command buffer is recording. When every command
// buffer is in flight it waits for the oldest submission.
func (c *Context) openLocked() error {
	if c.cmd != nil {
		return nil
	}
	if !c.commands.Available() && len(c.inflight) > 0 {
		if err := c.reclaimOldestLocked(); err != nil {
			return err
		}
	}
	cmd, err := c.commands.Get()
	if err != nil {
		return err
	}
	if err := cmd.Begin(); err != nil {
		c.commands.Put(cmd)
		return c.fail("begin", err)
	}
	c.cmd = cmd
	return nil
}

// allocateSetLocked allocates a descriptor set, waiting for in-flight
// submissions to return theirs when the pool is full.
func (c *Context) allocateSetLocked(p Pipeline) (DescriptorSet, error) {
	set, err := c.descriptors.Allocate(p)
	for errors.Is(err, ErrPoolExhausted) && len(c.inflight) > 0 {
		if rerr := c.reclaimOldestLocked(); rerr != nil {
			return nil, rerr
		}
		set, err = c.descriptors.Allocate(p)
	}
	if err != nil {
		return nil, err
	}
	c.sets = append(c.sets, set)
	return set, nil
}

// acquireFenceLocked takes an internal fence, waiting for in-flight
// submissions to return theirs when the pool is empty.
func (c *Context) acquireFenceLocked() (Fence, error) {
	f, err := c.fences.Get()
	for errors.Is(err, ErrPoolExhausted) && c.ownedInflight() {
		if rerr := c.reclaimOldestLocked(); rerr != nil {
			return nil, rerr
		}
		f, err = c.fences.Get()
	}
	return f, err
}

func (c *Context) ownedInflight() bool {
	for _, s := range c.inflight {
		if s.owned {
			return true
		}
	}
	return false
}

// submitLocked ends the open command buffer and hands it to the queue. A
// nil fence is replaced with one from the fence pool.
func (c *Context) submitLocked(fence Fence) error {
	if c.cmd == nil {
		return nil
	}
	owned := fence == nil
	if owned {
		f, err := c.acquireFenceLocked()
		if err != nil {
			return err
		}
		fence = f
	}

	cmd := c.cmd
	if err := cmd.End(); err != nil {
		c.releaseFence(fence, owned)
		return c.fail("end", err)
	}
	if err := c.queue.Submit(cmd, fence); err != nil {
		c.releaseFence(fence, owned)
		return c.fail("submit", err)
	}

	c.inflight = append(c.inflight, submission{cmd: cmd, fence: fence, owned: owned, sets: c.sets})
	c.inflightN.Store(int64(len(c.inflight)))
	c.cmd = nil
	c.sets = nil
	Logger().Debug("dispatch: submitted", "operations", c.submitCount, "fenced", !owned)
	c.submitCount = 0
	c.submissions.Add(1)

	return c.reclaimLocked(false)
}

func (c *Context) releaseFence(f Fence, owned bool) {
	if owned {
		c.fences.Put(f)
	}
}

// reclaimLocked recycles completed submissions in order. With wait set it
// blocks until every submission has completed.
func (c *Context) reclaimLocked(wait bool) error {
	for len(c.inflight) > 0 {
		s := c.inflight[0]
		if !wait && !s.fence.Signaled() {
			break
		}
		if wait {
			if err := c.waitSubmission(s); err != nil {
				return err
			}
		}
		c.recycle(s)
		c.inflight = c.inflight[1:]
	}
	if len(c.inflight) == 0 {
		c.inflight = nil
	}
	c.inflightN.Store(int64(len(c.inflight)))
	return nil
}

func (c *Context) reclaimOldestLocked() error {
	s := c.inflight[0]
	if err := c.waitSubmission(s); err != nil {
		return err
	}
	c.recycle(s)
	c.inflight = c.inflight[1:]
	c.inflightN.Store(int64(len(c.inflight)))
	return nil
}

// waitSubmission blocks until s completed. A caller-owned fence that was
// already reset has been observed signaled by its owner.
func (c *Context) waitSubmission(s submission) error {
	err := s.fence.Wait()
	if err == nil || (!s.owned && errors.Is(err, ErrFenceNotSubmitted)) {
		return nil
	}
	return c.fail("wait", err)
}

func (c *Context) recycle(s submission) {
	c.commands.Put(s.cmd)
	c.descriptors.Free(s.sets)
	c.releaseFence(s.fence, s.owned)
}

func (c *Context) flushLocked() error {
	if c.closed {
		return ErrContextClosed
	}
	if c.lost != nil {
		return c.lost
	}
	if err := c.submitLocked(nil); err != nil {
		return err
	}
	if err := c.reclaimLocked(true); err != nil {
		return err
	}
	buffers, images := c.cleanup.drain(c.device)
	c.flushes.Add(1)
	Logger().Debug("dispatch: flushed", "buffers", buffers, "images", images)
	return nil
}
