// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"errors"
	"fmt"

	"github.com/gogpu/dispatch"
)

type opKind uint8

const (
	opBarrier opKind = iota
	opDispatch
	opCopyBufferToBuffer
	opCopyImageToImage
	opCopyImageToBuffer
	opCopyBufferToImage
)

func (k opKind) String() string {
	switch k {
	case opBarrier:
		return "barrier"
	case opDispatch:
		return "dispatch"
	case opCopyBufferToBuffer:
		return "copy_buffer_to_buffer"
	case opCopyImageToImage:
		return "copy_image_to_image"
	case opCopyImageToBuffer:
		return "copy_image_to_buffer"
	case opCopyBufferToImage:
		return "copy_buffer_to_image"
	default:
		return fmt.Sprintf("op(%d)", uint8(k))
	}
}

// op is one recorded command.
type op struct {
	kind opKind

	// barrier
	barrier []*resource

	// dispatch
	pipeline *Pipeline
	bindings []*resource
	global   dispatch.UVec3

	// copies
	src, dst  *resource
	srcImage  *Image
	dstImage  *Image
	bufCopy   dispatch.BufferCopy
	imgCopy   dispatch.ImageCopy
	bufImgCpy dispatch.BufferImageCopy
}

// resources returns every resource the op touches.
func (o *op) resources() []*resource {
	switch o.kind {
	case opBarrier:
		return o.barrier
	case opDispatch:
		return o.bindings
	default:
		return []*resource{o.src, o.dst}
	}
}

type cmdState uint8

const (
	cmdIdle cmdState = iota
	cmdRecording
	cmdEnded
)

// CommandBuffer records ops for the queue.
//
// State machine:
//
//	Idle      -> Begin -> Recording
//	Recording -> End   -> Ended
//	any       -> Reset -> Idle
//
// Recording calls outside the Recording state are reported by End.
// CommandBuffer is not safe for concurrent use.
type CommandBuffer struct {
	state    cmdState
	ops      []op
	pipeline *Pipeline
	set      *DescriptorSet
	err      error
}

var _ dispatch.CommandBuffer = (*CommandBuffer)(nil)

func (c *CommandBuffer) Begin() error {
	if c.state != cmdIdle {
		return fmt.Errorf("software: begin: command buffer in state %d", c.state)
	}
	c.state = cmdRecording
	return nil
}

func (c *CommandBuffer) End() error {
	if c.state != cmdRecording {
		return ErrNotRecording
	}
	c.state = cmdEnded
	return c.err
}

func (c *CommandBuffer) Reset() {
	c.state = cmdIdle
	c.ops = c.ops[:0]
	c.pipeline = nil
	c.set = nil
	c.err = nil
}

// Len returns the number of recorded ops.
func (c *CommandBuffer) Len() int { return len(c.ops) }

func (c *CommandBuffer) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

func (c *CommandBuffer) record(o op) {
	if c.state != cmdRecording {
		c.fail(fmt.Errorf("%w: %s", ErrNotRecording, o.kind))
		return
	}
	c.ops = append(c.ops, o)
}

func (c *CommandBuffer) PipelineBarrier(b dispatch.Barrier) {
	var res []*resource
	for _, bb := range b.Buffers {
		if buf, ok := bb.Buffer.(*Buffer); ok {
			res = append(res, &buf.resource)
		}
	}
	for _, ib := range b.Images {
		if img, ok := ib.Image.(*Image); ok {
			res = append(res, &img.resource)
		}
	}
	c.record(op{kind: opBarrier, barrier: res})
}

func (c *CommandBuffer) BindPipeline(p dispatch.Pipeline) {
	pl, ok := p.(*Pipeline)
	if !ok {
		c.fail(fmt.Errorf("%w: pipeline", ErrForeignResource))
		return
	}
	c.pipeline = pl
}

func (c *CommandBuffer) BindDescriptorSet(s dispatch.DescriptorSet) {
	set, ok := s.(*DescriptorSet)
	if !ok {
		c.fail(fmt.Errorf("%w: descriptor set", ErrForeignResource))
		return
	}
	c.set = set
}

func (c *CommandBuffer) Dispatch(global dispatch.UVec3) {
	switch {
	case c.pipeline == nil || c.set == nil:
		c.fail(errors.New("software: dispatch without bound pipeline and descriptor set"))
		return
	case c.set.err != nil:
		c.fail(c.set.err)
		return
	}
	c.record(op{kind: opDispatch, pipeline: c.pipeline, bindings: c.set.snapshot(), global: global})
}

func (c *CommandBuffer) CopyBufferToBuffer(src, dst dispatch.Buffer, region dispatch.BufferCopy) {
	s, ok1 := src.(*Buffer)
	d, ok2 := dst.(*Buffer)
	if !ok1 || !ok2 {
		c.fail(fmt.Errorf("%w: copy buffer", ErrForeignResource))
		return
	}
	c.record(op{kind: opCopyBufferToBuffer, src: &s.resource, dst: &d.resource, bufCopy: region})
}

func (c *CommandBuffer) CopyImageToImage(src, dst dispatch.Image, region dispatch.ImageCopy) {
	s, ok1 := src.(*Image)
	d, ok2 := dst.(*Image)
	if !ok1 || !ok2 {
		c.fail(fmt.Errorf("%w: copy image", ErrForeignResource))
		return
	}
	c.record(op{kind: opCopyImageToImage, src: &s.resource, dst: &d.resource, srcImage: s, dstImage: d, imgCopy: region})
}

func (c *CommandBuffer) CopyImageToBuffer(src dispatch.Image, dst dispatch.Buffer, region dispatch.BufferImageCopy) {
	s, ok1 := src.(*Image)
	d, ok2 := dst.(*Buffer)
	if !ok1 || !ok2 {
		c.fail(fmt.Errorf("%w: copy image to buffer", ErrForeignResource))
		return
	}
	c.record(op{kind: opCopyImageToBuffer, src: &s.resource, dst: &d.resource, srcImage: s, bufImgCpy: region})
}

func (c *CommandBuffer) CopyBufferToImage(src dispatch.Buffer, dst dispatch.Image, region dispatch.BufferImageCopy) {
	s, ok1 := src.(*Buffer)
	d, ok2 := dst.(*Image)
	if !ok1 || !ok2 {
		c.fail(fmt.Errorf("%w: copy buffer to image", ErrForeignResource))
		return
	}
	c.record(op{kind: opCopyBufferToImage, src: &s.resource, dst: &d.resource, dstImage: d, bufImgCpy: region})
}
