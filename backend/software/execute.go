// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"sync/atomic"

	"github.com/gogpu/dispatch"
)

// execute runs one op on the queue goroutine. Every resource the op touches
// is read-locked for the duration, so a concurrent Destroy waits for the op
// and a later op sees the resource as destroyed.
func (d *Device) execute(o *op, submission uint64) {
	res := uniqueResources(o.resources())
	for _, r := range res {
		r.mu.RLock()
	}
	defer func() {
		for _, r := range res {
			r.mu.RUnlock()
		}
	}()

	for _, r := range res {
		if r.destroyed {
			d.useAfterFree.Add(1)
			dispatch.Logger().Warn("software: command uses destroyed resource",
				"op", o.kind.String(), "resource", r.id, "label", r.label, "submission", submission)
			return
		}
	}

	if d.trace != nil {
		e := TraceEntry{Op: o.kind.String(), Submission: submission}
		if o.kind == opDispatch {
			e.Kernel = o.pipeline.shader.Name
		}
		for _, r := range o.resources() {
			if r != nil {
				e.Resources = append(e.Resources, r.id)
			}
		}
		d.trace.add(e)
	}

	switch o.kind {
	case opBarrier:
		// Execution is serial; nothing to order.
	case opDispatch:
		d.dispatch(o)
	case opCopyBufferToBuffer:
		d.copyBuffer(o)
	case opCopyImageToImage:
		d.copyImage(o)
	case opCopyImageToBuffer, opCopyBufferToImage:
		d.copyBufferImage(o)
	}
}

func uniqueResources(in []*resource) []*resource {
	out := make([]*resource, 0, len(in))
next:
	for _, r := range in {
		if r == nil {
			continue
		}
		for _, seen := range out {
			if seen == r {
				continue next
			}
		}
		out = append(out, r)
	}
	return out
}

func (d *Device) dispatch(o *op) {
	global := o.global
	local := o.pipeline.local
	groups := dispatch.DivUp3(global, local)
	if !groups.Positive() {
		return
	}

	bindings := make([][]byte, len(o.bindings))
	for i, r := range o.bindings {
		if r != nil {
			bindings[i] = r.data
		}
	}

	kernel := o.pipeline.kernel
	var invocations atomic.Uint64
	gx, gy := int(groups.X), int(groups.Y)
	d.pool.Run(int(groups.Volume()), func(i int) {
		g := dispatch.UVec3{X: uint32(i % gx), Y: uint32(i / gx % gy), Z: uint32(i / (gx * gy))}
		inv := Invocation{Global: global, bindings: bindings}
		var n uint64
		for lz := range local.Z {
			z := g.Z*local.Z + lz
			if z >= global.Z {
				break
			}
			for ly := range local.Y {
				y := g.Y*local.Y + ly
				if y >= global.Y {
					break
				}
				for lx := range local.X {
					x := g.X*local.X + lx
					if x >= global.X {
						break
					}
					inv.ID = dispatch.UVec3{X: x, Y: y, Z: z}
					kernel(&inv)
					n++
				}
			}
		}
		invocations.Add(n)
	})

	d.dispatches.Add(1)
	d.invocations.Add(invocations.Load())
}

func (d *Device) copyBuffer(o *op) {
	r := o.bufCopy
	if r.SrcOffset+r.Size > uint64(len(o.src.data)) || r.DstOffset+r.Size > uint64(len(o.dst.data)) {
		d.outOfRange(o)
		return
	}
	copy(o.dst.data[r.DstOffset:r.DstOffset+r.Size], o.src.data[r.SrcOffset:r.SrcOffset+r.Size])
	d.copies.Add(1)
}

func (d *Device) copyImage(o *op) {
	r := o.imgCopy
	src, dst := o.srcImage, o.dstImage
	if !dispatch.WithinBounds(r.SrcOrigin, r.Extent, src.extent) || !dispatch.WithinBounds(r.DstOrigin, r.Extent, dst.extent) {
		d.outOfRange(o)
		return
	}
	row := uint64(r.Extent.X) * uint64(src.format.TexelSize())
	for z := range r.Extent.Z {
		for y := range r.Extent.Y {
			s := src.offset(r.SrcOrigin.X, r.SrcOrigin.Y+y, r.SrcOrigin.Z+z)
			t := dst.offset(r.DstOrigin.X, r.DstOrigin.Y+y, r.DstOrigin.Z+z)
			copy(dst.data[t:t+row], src.data[s:s+row])
		}
	}
	d.copies.Add(1)
}

// copyBufferImage moves texels between an image region and tightly packed
// rows in a buffer.
func (d *Device) copyBufferImage(o *op) {
	r := o.bufImgCpy
	img, buf := o.srcImage, o.dst
	toImage := o.kind == opCopyBufferToImage
	if toImage {
		img, buf = o.dstImage, o.src
	}
	row := uint64(r.Extent.X) * uint64(img.format.TexelSize())
	if !dispatch.WithinBounds(r.ImageOrigin, r.Extent, img.extent) ||
		r.BufferOffset+row*uint64(r.Extent.Y)*uint64(r.Extent.Z) > uint64(len(buf.data)) {
		d.outOfRange(o)
		return
	}
	for z := range r.Extent.Z {
		for y := range r.Extent.Y {
			t := img.offset(r.ImageOrigin.X, r.ImageOrigin.Y+y, r.ImageOrigin.Z+z)
			b := r.BufferOffset + (uint64(z)*uint64(r.Extent.Y)+uint64(y))*row
			if toImage {
				copy(img.data[t:t+row], buf.data[b:b+row])
			} else {
				copy(buf.data[b:b+row], img.data[t:t+row])
			}
		}
	}
	d.copies.Add(1)
}

func (d *Device) outOfRange(o *op) {
	dispatch.Logger().Error("software: copy region out of range, skipped",
		"op", o.kind.String(), "src", o.src.id, "dst", o.dst.id)
}
