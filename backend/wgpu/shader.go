// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/naga"

	"github.com/gogpu/dispatch"
)

// specialize replaces the workgroup-size tokens with the local shape.
func specialize(source string, local dispatch.UVec3) string {
	return strings.NewReplacer(
		"WG_X", strconv.FormatUint(uint64(local.X), 10),
		"WG_Y", strconv.FormatUint(uint64(local.Y), 10),
		"WG_Z", strconv.FormatUint(uint64(local.Z), 10),
	).Replace(source)
}

// compileSPIRV compiles WGSL to SPIR-V words.
func compileSPIRV(name, source string) ([]uint32, error) {
	code, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("wgpu: compile %s: %w", name, err)
	}
	if len(code)%4 != 0 {
		return nil, fmt.Errorf("wgpu: compile %s: SPIR-V size %d is not a multiple of 4", name, len(code))
	}
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[i*4:])
	}
	return words, nil
}
