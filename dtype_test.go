// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarType_Size(t *testing.T) {
	assert.Equal(t, uint32(1), Byte.Size())
	assert.Equal(t, uint32(1), Int8.Size())
	assert.Equal(t, uint32(2), Float16.Size())
	assert.Equal(t, uint32(4), Int32.Size())
	assert.Equal(t, uint32(4), Float32.Size())
	assert.Equal(t, uint32(0), ScalarType(200).Size())
	assert.Equal(t, "ScalarType(200)", ScalarType(200).String())
}

func TestEncodeFloat32s_Float16(t *testing.T) {
	data, err := encodeFloat32s(Float16, []float32{1, -2.5, 0.25})
	require.NoError(t, err)
	require.Len(t, data, 6)
	// 1.0 in binary16 is 0x3C00.
	assert.Equal(t, []byte{0x00, 0x3C}, data[:2])

	back, err := decodeFloat32s(Float16, data)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, -2.5, 0.25}, back)
}

func TestEncodeFloat32s_Integers(t *testing.T) {
	data, err := encodeFloat32s(Int32, []float32{-3, 7.9})
	require.NoError(t, err)
	back, err := decodeFloat32s(Int32, data)
	require.NoError(t, err)
	assert.Equal(t, []float32{-3, 7}, back)

	data, err = encodeFloat32s(Int8, []float32{-1})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF}, data)
}

func TestEncodeFloat32s_UnknownType(t *testing.T) {
	_, err := encodeFloat32s(ScalarType(99), []float32{1})
	assert.Error(t, err)
	_, err = decodeFloat32s(ScalarType(99), []byte{1})
	assert.Error(t, err)
}

func TestImageFormat_TexelSize(t *testing.T) {
	assert.Equal(t, uint32(4), FormatR32Float.TexelSize())
	assert.Equal(t, uint32(4), FormatRGBA8Unorm.TexelSize())
	assert.Equal(t, uint32(16), FormatRGBA32Float.TexelSize())
}
