// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"encoding/binary"
	"math"
	"sort"
	"sync"

	"github.com/gogpu/dispatch"
)

// Kernel is the CPU body of a compute shader. It is called once per
// invocation; invocations of one dispatch run concurrently.
type Kernel func(inv *Invocation)

var (
	kernelsMu sync.RWMutex
	kernels   = make(map[string]Kernel)
)

// RegisterKernel registers k for shaders named name, replacing any previous
// registration. Typically called from init.
func RegisterKernel(name string, k Kernel) {
	kernelsMu.Lock()
	defer kernelsMu.Unlock()
	kernels[name] = k
}

// UnregisterKernel removes a registration. Useful in tests.
func UnregisterKernel(name string) {
	kernelsMu.Lock()
	defer kernelsMu.Unlock()
	delete(kernels, name)
}

// Kernels returns the registered kernel names, sorted.
func Kernels() []string {
	kernelsMu.RLock()
	defer kernelsMu.RUnlock()
	names := make([]string, 0, len(kernels))
	for name := range kernels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupKernel(name string) (Kernel, bool) {
	kernelsMu.RLock()
	defer kernelsMu.RUnlock()
	k, ok := kernels[name]
	return k, ok
}

// Invocation is one shader invocation. Bindings are the raw little-endian
// bytes of the resource at each slot.
type Invocation struct {
	// ID is the global invocation id.
	ID dispatch.UVec3
	// Global is the dispatched invocation count.
	Global dispatch.UVec3

	bindings [][]byte
}

// Bytes returns the memory bound at slot, or nil for samplers.
func (inv *Invocation) Bytes(slot int) []byte { return inv.bindings[slot] }

// Len32 returns the number of 32-bit words bound at slot.
func (inv *Invocation) Len32(slot int) int { return len(inv.bindings[slot]) / 4 }

// Float32 loads element i of slot.
func (inv *Invocation) Float32(slot, i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(inv.bindings[slot][i*4:]))
}

// SetFloat32 stores element i of slot.
func (inv *Invocation) SetFloat32(slot, i int, v float32) {
	binary.LittleEndian.PutUint32(inv.bindings[slot][i*4:], math.Float32bits(v))
}

// Uint32 loads word i of slot.
func (inv *Invocation) Uint32(slot, i int) uint32 {
	return binary.LittleEndian.Uint32(inv.bindings[slot][i*4:])
}
