// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/dispatch"
)

type cmdState uint8

const (
	cmdInitial cmdState = iota
	cmdRecording
	cmdEnded
)

// CommandBuffer records into a hal.CommandEncoder. Recording errors are
// collected and reported by End.
type CommandBuffer struct {
	dev *Device
	enc hal.CommandEncoder
	raw hal.CommandBuffer

	state    cmdState
	pipeline *Pipeline
	set      *DescriptorSet
	errs     []error

	dispatches int
}

var _ dispatch.CommandBuffer = (*CommandBuffer)(nil)

func (c *CommandBuffer) fail(err error) {
	c.errs = append(c.errs, err)
}

func (c *CommandBuffer) recording() bool {
	if c.state != cmdRecording {
		c.fail(ErrNotRecording)
		return false
	}
	return true
}

func (c *CommandBuffer) Begin() error {
	if c.state == cmdRecording {
		return ErrNotRecording
	}
	if c.raw != nil {
		c.Reset()
	}
	if err := c.enc.BeginEncoding("dispatch"); err != nil {
		return deviceErr("begin encoding", err)
	}
	c.state = cmdRecording
	return nil
}

func (c *CommandBuffer) End() error {
	if c.state != cmdRecording {
		return ErrNotRecording
	}
	if err := errors.Join(c.errs...); err != nil {
		c.enc.DiscardEncoding()
		c.state = cmdInitial
		c.errs = nil
		return err
	}
	raw, err := c.enc.EndEncoding()
	if err != nil {
		c.state = cmdInitial
		return deviceErr("end encoding", err)
	}
	c.raw = raw
	c.state = cmdEnded
	return nil
}

func (c *CommandBuffer) Reset() {
	if c.raw != nil {
		c.enc.ResetAll([]hal.CommandBuffer{c.raw})
		c.raw = nil
	} else if c.state == cmdRecording {
		c.enc.DiscardEncoding()
	}
	c.state = cmdInitial
	c.pipeline = nil
	c.set = nil
	c.errs = nil
	c.dispatches = 0
}

func (c *CommandBuffer) PipelineBarrier(b dispatch.Barrier) {
	if !c.recording() {
		return
	}
	if len(b.Buffers) > 0 {
		barriers := make([]hal.BufferBarrier, 0, len(b.Buffers))
		for _, bb := range b.Buffers {
			buf, ok := bb.Buffer.(*Buffer)
			if !ok {
				c.fail(fmt.Errorf("%w: barrier buffer", ErrForeignResource))
				return
			}
			barriers = append(barriers, hal.BufferBarrier{
				Buffer: buf.raw,
				Usage: hal.BufferUsageTransition{
					OldUsage: bufferAccess(bb.Src),
					NewUsage: bufferAccess(bb.Dst),
				},
			})
		}
		c.enc.TransitionBuffers(barriers)
	}
	if len(b.Images) > 0 {
		barriers := make([]hal.TextureBarrier, 0, len(b.Images))
		for _, ib := range b.Images {
			img, ok := ib.Image.(*Image)
			if !ok {
				c.fail(fmt.Errorf("%w: barrier image", ErrForeignResource))
				return
			}
			barriers = append(barriers, hal.TextureBarrier{
				Texture: img.raw,
				Range: hal.TextureRange{
					Aspect:          gputypes.TextureAspectAll,
					MipLevelCount:   1,
					ArrayLayerCount: 1,
				},
				Usage: hal.TextureUsageTransition{
					OldUsage: textureAccess(ib.Src),
					NewUsage: textureAccess(ib.Dst),
				},
			})
		}
		c.enc.TransitionTextures(barriers)
	}
}

func (c *CommandBuffer) BindPipeline(p dispatch.Pipeline) {
	if !c.recording() {
		return
	}
	pl, ok := p.(*Pipeline)
	if !ok {
		c.fail(fmt.Errorf("%w: pipeline", ErrForeignResource))
		return
	}
	c.pipeline = pl
}

func (c *CommandBuffer) BindDescriptorSet(s dispatch.DescriptorSet) {
	if !c.recording() {
		return
	}
	set, ok := s.(*DescriptorSet)
	if !ok {
		c.fail(fmt.Errorf("%w: descriptor set", ErrForeignResource))
		return
	}
	c.set = set
}

// Dispatch records one compute pass. The workgroup count is the global
// shape divided by the pipeline's local shape, rounded up.
func (c *CommandBuffer) Dispatch(global dispatch.UVec3) {
	if !c.recording() {
		return
	}
	if c.pipeline == nil || c.set == nil {
		c.fail(ErrNoPipeline)
		return
	}
	group, err := c.set.bindGroup(c.dev.raw)
	if err != nil {
		c.fail(err)
		return
	}
	n := dispatch.DivUp3(global, c.pipeline.local)
	pass := c.enc.BeginComputePass(&hal.ComputePassDescriptor{Label: c.pipeline.shader.Name})
	pass.SetPipeline(c.pipeline.raw)
	pass.SetBindGroup(0, group, nil)
	pass.Dispatch(n.X, n.Y, n.Z)
	pass.End()
	c.dispatches++
}

func (c *CommandBuffer) CopyBufferToBuffer(src, dst dispatch.Buffer, region dispatch.BufferCopy) {
	if !c.recording() {
		return
	}
	s, sok := src.(*Buffer)
	d, dok := dst.(*Buffer)
	if !sok || !dok {
		c.fail(fmt.Errorf("%w: copy buffer", ErrForeignResource))
		return
	}
	c.enc.CopyBufferToBuffer(s.raw, d.raw, []hal.BufferCopy{{
		SrcOffset: region.SrcOffset,
		DstOffset: region.DstOffset,
		Size:      region.Size,
	}})
}

func (c *CommandBuffer) CopyImageToImage(src, dst dispatch.Image, region dispatch.ImageCopy) {
	if !c.recording() {
		return
	}
	s, sok := src.(*Image)
	d, dok := dst.(*Image)
	if !sok || !dok {
		c.fail(fmt.Errorf("%w: copy image", ErrForeignResource))
		return
	}
	c.enc.CopyTextureToTexture(s.raw, d.raw, []hal.TextureCopy{{
		SrcBase: imageCopyTexture(s, region.SrcOrigin),
		DstBase: imageCopyTexture(d, region.DstOrigin),
		Size:    extent3D(region.Extent),
	}})
}

func (c *CommandBuffer) CopyImageToBuffer(src dispatch.Image, dst dispatch.Buffer, region dispatch.BufferImageCopy) {
	if !c.recording() {
		return
	}
	img, iok := src.(*Image)
	buf, bok := dst.(*Buffer)
	if !iok || !bok {
		c.fail(fmt.Errorf("%w: copy image to buffer", ErrForeignResource))
		return
	}
	c.enc.CopyTextureToBuffer(img.raw, buf.raw, []hal.BufferTextureCopy{bufferTextureCopy(img, region)})
}

func (c *CommandBuffer) CopyBufferToImage(src dispatch.Buffer, dst dispatch.Image, region dispatch.BufferImageCopy) {
	if !c.recording() {
		return
	}
	buf, bok := src.(*Buffer)
	img, iok := dst.(*Image)
	if !iok || !bok {
		c.fail(fmt.Errorf("%w: copy buffer to image", ErrForeignResource))
		return
	}
	c.enc.CopyBufferToTexture(buf.raw, img.raw, []hal.BufferTextureCopy{bufferTextureCopy(img, region)})
}

func imageCopyTexture(img *Image, origin dispatch.UVec3) hal.ImageCopyTexture {
	return hal.ImageCopyTexture{
		Texture: img.raw,
		Origin:  origin3D(origin),
		Aspect:  gputypes.TextureAspectAll,
	}
}

// bufferTextureCopy describes tightly packed rows: one row is the region
// width in texels.
func bufferTextureCopy(img *Image, r dispatch.BufferImageCopy) hal.BufferTextureCopy {
	return hal.BufferTextureCopy{
		BufferLayout: hal.ImageDataLayout{
			Offset:       r.BufferOffset,
			BytesPerRow:  r.Extent.X * img.format.TexelSize(),
			RowsPerImage: r.Extent.Y,
		},
		TextureBase: imageCopyTexture(img, r.ImageOrigin),
		Size:        extent3D(r.Extent),
	}
}
