// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package params lays out and packs the per-level parameter records the
// bloom passes read from a shared GPU buffer.
package params

import (
	"fmt"
	"math/bits"
)

// Byte offsets of the record fields. The layout matches the WGSL struct
// Params: three vec2<u32> handles, a vec2<f32> texel scale and six f32
// scalars, with no padding between members.
const (
	OffsetInputTexture        = 0
	OffsetDownsampleTexture   = 8
	OffsetUpsampleTexture     = 16
	OffsetTexelScale          = 24
	OffsetSourceLOD           = 32
	OffsetLevelCount          = 36
	OffsetUpsampleRadius      = 40
	OffsetMixWeight           = 44
	OffsetTonemapLuminanceMax = 48
	OffsetTonemapAlpha        = 52

	// RecordSize is the unaligned size of one record in bytes.
	RecordSize = 56
)

// AlignOffset rounds offset up to the next multiple of alignment.
// alignment must be a power of two.
func AlignOffset(offset, alignment uint64) uint64 {
	if alignment == 0 || bits.OnesCount64(alignment) != 1 {
		panic(fmt.Sprintf("params: alignment %d is not a power of two", alignment))
	}
	return (offset + alignment - 1) &^ (alignment - 1)
}

// Layout is the record placement for one device.
type Layout struct {
	// Alignment is the device's minimum buffer offset alignment.
	Alignment uint64

	// Stride is the distance in bytes between consecutive records.
	Stride uint64
}

// NewLayout returns the layout for a device whose dynamic buffer offsets
// must be multiples of alignment.
func NewLayout(alignment uint64) Layout {
	return Layout{
		Alignment: alignment,
		Stride:    AlignOffset(RecordSize, alignment),
	}
}

// Offset returns the byte offset of record i.
func (l Layout) Offset(i int) uint64 { return uint64(i) * l.Stride }

// Capacity returns the bytes required to hold levels records.
func (l Layout) Capacity(levels int) uint64 { return uint64(levels) * l.Stride }
