// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package dispatch

import "fmt"

// UVec3 is a three-component extent, offset or work shape.
type UVec3 struct {
	X, Y, Z uint32
}

// Vec3 is shorthand for UVec3{x, y, z}.
func Vec3(x, y, z uint32) UVec3 { return UVec3{X: x, Y: y, Z: z} }

// Positive reports whether every component is non-zero.
func (v UVec3) Positive() bool { return v.X > 0 && v.Y > 0 && v.Z > 0 }

// Volume returns X*Y*Z.
func (v UVec3) Volume() uint64 { return uint64(v.X) * uint64(v.Y) * uint64(v.Z) }

// Add returns the component-wise sum.
func (v UVec3) Add(o UVec3) UVec3 { return UVec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v UVec3) String() string { return fmt.Sprintf("(%d,%d,%d)", v.X, v.Y, v.Z) }

// DivUp returns ceil(n/d). d must be non-zero.
func DivUp(n, d uint32) uint32 {
	q := n / d
	if n%d != 0 {
		q++
	}
	return q
}

// DivUp3 applies DivUp per component.
func DivUp3(n, d UVec3) UVec3 {
	return UVec3{DivUp(n.X, d.X), DivUp(n.Y, d.Y), DivUp(n.Z, d.Z)}
}

// EffectiveGlobal returns the number of invocations to dispatch for a global
// work shape when every invocation produces tile outputs per dimension:
// ceil(global[i] / tile[i]). A zero tile component counts as 1.
func EffectiveGlobal(global, tile UVec3) UVec3 {
	return DivUp3(global, tile.orOnes())
}

// orOnes replaces zero components with 1.
func (v UVec3) orOnes() UVec3 {
	if v.X == 0 {
		v.X = 1
	}
	if v.Y == 0 {
		v.Y = 1
	}
	if v.Z == 0 {
		v.Z = 1
	}
	return v
}

// WithinBounds reports whether the region [offset, offset+extent) lies inside
// [0, bounds) in every dimension. Overflow counts as out of bounds.
func WithinBounds(offset, extent, bounds UVec3) bool {
	return within(offset.X, extent.X, bounds.X) &&
		within(offset.Y, extent.Y, bounds.Y) &&
		within(offset.Z, extent.Z, bounds.Z)
}

func within(off, n, bound uint32) bool {
	end := uint64(off) + uint64(n)
	return end <= uint64(bound)
}
