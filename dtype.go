// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package dispatch

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/x448/float16"
)

// ScalarType tags the element type of a storage buffer.
type ScalarType uint8

const (
	// Byte is an untyped 8-bit element. Raw buffers use it.
	Byte ScalarType = iota
	Uint8
	Int8
	Int32
	Float16
	Float32
)

// Size returns the element size in bytes.
func (t ScalarType) Size() uint32 {
	switch t {
	case Byte, Uint8, Int8:
		return 1
	case Float16:
		return 2
	case Int32, Float32:
		return 4
	default:
		return 0
	}
}

func (t ScalarType) String() string {
	switch t {
	case Byte:
		return "byte"
	case Uint8:
		return "uint8"
	case Int8:
		return "int8"
	case Int32:
		return "int32"
	case Float16:
		return "float16"
	case Float32:
		return "float32"
	default:
		return fmt.Sprintf("ScalarType(%d)", uint8(t))
	}
}

// encodeFloat32s converts values to little-endian elements of type t.
func encodeFloat32s(t ScalarType, values []float32) ([]byte, error) {
	size := int(t.Size())
	if size == 0 {
		return nil, fmt.Errorf("dispatch: encode %s: unknown element type", t)
	}
	out := make([]byte, len(values)*size)
	for i, v := range values {
		b := out[i*size:]
		switch t {
		case Byte, Uint8:
			b[0] = uint8(v)
		case Int8:
			b[0] = byte(int8(v))
		case Int32:
			binary.LittleEndian.PutUint32(b, uint32(int32(v)))
		case Float16:
			binary.LittleEndian.PutUint16(b, float16.Fromfloat32(v).Bits())
		case Float32:
			binary.LittleEndian.PutUint32(b, math.Float32bits(v))
		}
	}
	return out, nil
}

// decodeFloat32s is the inverse of encodeFloat32s.
func decodeFloat32s(t ScalarType, data []byte) ([]float32, error) {
	size := int(t.Size())
	if size == 0 {
		return nil, fmt.Errorf("dispatch: decode %s: unknown element type", t)
	}
	out := make([]float32, len(data)/size)
	for i := range out {
		b := data[i*size:]
		switch t {
		case Byte, Uint8:
			out[i] = float32(b[0])
		case Int8:
			out[i] = float32(int8(b[0]))
		case Int32:
			out[i] = float32(int32(binary.LittleEndian.Uint32(b)))
		case Float16:
			out[i] = float16.Frombits(binary.LittleEndian.Uint16(b)).Float32()
		case Float32:
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b))
		}
	}
	return out, nil
}

// ImageFormat is the texel format of an image.
type ImageFormat uint8

const (
	FormatR32Float ImageFormat = iota
	FormatRGBA8Unorm
	FormatRGBA32Float
)

// TexelSize returns the size of one texel in bytes.
func (f ImageFormat) TexelSize() uint32 {
	switch f {
	case FormatR32Float, FormatRGBA8Unorm:
		return 4
	case FormatRGBA32Float:
		return 16
	default:
		return 0
	}
}

func (f ImageFormat) String() string {
	switch f {
	case FormatR32Float:
		return "r32float"
	case FormatRGBA8Unorm:
		return "rgba8unorm"
	case FormatRGBA32Float:
		return "rgba32float"
	default:
		return fmt.Sprintf("ImageFormat(%d)", uint8(f))
	}
}
