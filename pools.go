// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package dispatch

import (
	"fmt"
	"sync"
)

// PoolStats describes the occupancy of a pool.
type PoolStats struct {
	// Capacity is the maximum number of live objects.
	Capacity int
	// Live is the number of objects created and not yet destroyed.
	Live int
	// Idle is the number of live objects waiting for reuse.
	Idle int
}

func (s PoolStats) String() string {
	return fmt.Sprintf("Pool[%d/%d live, %d idle]", s.Live, s.Capacity, s.Idle)
}

// CommandPool recycles command buffers. A buffer returned with Put is reused
// by a later Get; Put must only be called once the submission that used the
// buffer has completed.
//
// CommandPool is safe for concurrent use.
type CommandPool struct {
	mu       sync.Mutex
	device   Device
	capacity int
	live     int
	idle     []CommandBuffer
}

func newCommandPool(device Device, capacity int) *CommandPool {
	return &CommandPool{device: device, capacity: capacity}
}

// Get returns a reset command buffer, creating one if none is idle.
// It fails with ErrPoolExhausted when capacity buffers are already live.
func (p *CommandPool) Get() (CommandBuffer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n := len(p.idle); n > 0 {
		cmd := p.idle[n-1]
		p.idle = p.idle[:n-1]
		return cmd, nil
	}
	if p.live >= p.capacity {
		return nil, fmt.Errorf("%w: %d command buffers", ErrPoolExhausted, p.capacity)
	}
	cmd, err := p.device.CreateCommandBuffer()
	if err != nil {
		return nil, fmt.Errorf("dispatch: create command buffer: %w", err)
	}
	p.live++
	return cmd, nil
}

// Put resets cmd and makes it available to Get.
func (p *CommandPool) Put(cmd CommandBuffer) {
	cmd.Reset()
	p.mu.Lock()
	p.idle = append(p.idle, cmd)
	p.mu.Unlock()
}

// Available reports whether Get can succeed without waiting for a
// submission to complete.
func (p *CommandPool) Available() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle) > 0 || p.live < p.capacity
}

// Stats returns the pool occupancy.
func (p *CommandPool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PoolStats{Capacity: p.capacity, Live: p.live, Idle: len(p.idle)}
}

// release frees the idle buffers.
func (p *CommandPool) release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, cmd := range p.idle {
		p.device.FreeCommandBuffer(cmd)
	}
	p.live -= len(p.idle)
	p.idle = nil
}

// FencePool hands out reset fences.
//
// FencePool is safe for concurrent use.
type FencePool struct {
	mu       sync.Mutex
	device   Device
	capacity int
	live     int
	idle     []Fence
}

func newFencePool(device Device, capacity int) *FencePool {
	return &FencePool{device: device, capacity: capacity}
}

// Get returns an unsubmitted fence. It fails with ErrPoolExhausted when
// capacity fences are out.
func (p *FencePool) Get() (Fence, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n := len(p.idle); n > 0 {
		f := p.idle[n-1]
		p.idle = p.idle[:n-1]
		return f, nil
	}
	if p.live >= p.capacity {
		return nil, fmt.Errorf("%w: %d fences", ErrPoolExhausted, p.capacity)
	}
	f, err := p.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("dispatch: create fence: %w", err)
	}
	p.live++
	return f, nil
}

// Put resets f and returns it to the pool. The fence must not be pending.
func (p *FencePool) Put(f Fence) {
	if f == nil {
		return
	}
	if err := f.Reset(); err != nil {
		Logger().Warn("dispatch: fence reset failed, destroying", "err", err)
		p.device.DestroyFence(f)
		p.mu.Lock()
		p.live--
		p.mu.Unlock()
		return
	}
	p.mu.Lock()
	p.idle = append(p.idle, f)
	p.mu.Unlock()
}

// Stats returns the pool occupancy.
func (p *FencePool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PoolStats{Capacity: p.capacity, Live: p.live, Idle: len(p.idle)}
}

func (p *FencePool) release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, f := range p.idle {
		p.device.DestroyFence(f)
	}
	p.live -= len(p.idle)
	p.idle = nil
}

// DescriptorPool allocates descriptor sets for pipelines. Sets are returned
// in bulk once the submission using them has completed.
//
// DescriptorPool is safe for concurrent use.
type DescriptorPool struct {
	mu       sync.Mutex
	device   Device
	capacity int
	live     int
}

func newDescriptorPool(device Device, capacity int) *DescriptorPool {
	return &DescriptorPool{device: device, capacity: capacity}
}

// Allocate creates a descriptor set laid out for p.
func (p *DescriptorPool) Allocate(pipeline Pipeline) (DescriptorSet, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.live >= p.capacity {
		return nil, fmt.Errorf("%w: %d descriptor sets", ErrPoolExhausted, p.capacity)
	}
	set, err := p.device.CreateDescriptorSet(pipeline)
	if err != nil {
		return nil, fmt.Errorf("dispatch: create descriptor set: %w", err)
	}
	p.live++
	return set, nil
}

// Free destroys sets.
func (p *DescriptorPool) Free(sets []DescriptorSet) {
	if len(sets) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range sets {
		p.device.DestroyDescriptorSet(s)
	}
	p.live -= len(sets)
}

// Stats returns the pool occupancy. Descriptor sets are never idle.
func (p *DescriptorPool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PoolStats{Capacity: p.capacity, Live: p.live}
}
