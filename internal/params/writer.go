// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package params

import (
	"encoding/binary"
	"fmt"
	"math"

	"golang.org/x/image/math/f32"
)

// Handle is an opaque 64-bit texture reference. The shader receives it as
// two 32-bit words.
//
// Handles name a heap slot and a sampler, not a texture. Textures reach the
// shaders through the bind group, and the shipped shaders do not read the
// handle words; they are reserved for bindless backends.
type Handle uint64

// Split returns the low and high 32-bit words of h.
func (h Handle) Split() (lo, hi uint32) {
	return uint32(h & 0xffffffff), uint32(h >> 32)
}

// JoinHandle reassembles a handle from its two words.
func JoinHandle(lo, hi uint32) Handle {
	return Handle(uint64(hi)<<32 | uint64(lo))
}

// Record is the parameter set of one pass, indexed by its source level.
type Record struct {
	InputTexture        Handle
	DownsampleTexture   Handle
	UpsampleTexture     Handle
	TexelScale          f32.Vec2
	SourceLOD           float32
	LevelCount          float32
	UpsampleRadius      float32
	MixWeight           float32
	TonemapLuminanceMax float32
	TonemapAlpha        float32
}

// Writer packs records into a CPU-side byte slice laid out by a Layout.
type Writer struct {
	layout  Layout
	data    []byte
	written uint64
}

// NewWriter wraps data, which must be large enough for every record the
// caller intends to write.
func NewWriter(layout Layout, data []byte) *Writer {
	return &Writer{layout: layout, data: data}
}

// Reset forgets the written range without clearing the data.
func (w *Writer) Reset() { w.written = 0 }

// Written returns the number of bytes from the start of the buffer that
// cover every record written since the last Reset.
func (w *Writer) Written() uint64 { return w.written }

// Write stores r as record i.
func (w *Writer) Write(i int, r *Record) {
	off := w.layout.Offset(i)
	end := off + RecordSize
	if end > uint64(len(w.data)) {
		panic(fmt.Sprintf("params: record %d at %d overflows %d byte buffer", i, off, len(w.data)))
	}
	b := w.data[off:end]

	putHandle(b[OffsetInputTexture:], r.InputTexture)
	putHandle(b[OffsetDownsampleTexture:], r.DownsampleTexture)
	putHandle(b[OffsetUpsampleTexture:], r.UpsampleTexture)
	putFloat(b[OffsetTexelScale:], r.TexelScale[0])
	putFloat(b[OffsetTexelScale+4:], r.TexelScale[1])
	putFloat(b[OffsetSourceLOD:], r.SourceLOD)
	putFloat(b[OffsetLevelCount:], r.LevelCount)
	putFloat(b[OffsetUpsampleRadius:], r.UpsampleRadius)
	putFloat(b[OffsetMixWeight:], r.MixWeight)
	putFloat(b[OffsetTonemapLuminanceMax:], r.TonemapLuminanceMax)
	putFloat(b[OffsetTonemapAlpha:], r.TonemapAlpha)

	w.written = max(w.written, min(off+w.layout.Stride, uint64(len(w.data))))
}

// Read decodes record i. It is the inverse of Write.
func (w *Writer) Read(i int) Record {
	off := w.layout.Offset(i)
	b := w.data[off : off+RecordSize]
	return Record{
		InputTexture:        getHandle(b[OffsetInputTexture:]),
		DownsampleTexture:   getHandle(b[OffsetDownsampleTexture:]),
		UpsampleTexture:     getHandle(b[OffsetUpsampleTexture:]),
		TexelScale:          f32.Vec2{getFloat(b[OffsetTexelScale:]), getFloat(b[OffsetTexelScale+4:])},
		SourceLOD:           getFloat(b[OffsetSourceLOD:]),
		LevelCount:          getFloat(b[OffsetLevelCount:]),
		UpsampleRadius:      getFloat(b[OffsetUpsampleRadius:]),
		MixWeight:           getFloat(b[OffsetMixWeight:]),
		TonemapLuminanceMax: getFloat(b[OffsetTonemapLuminanceMax:]),
		TonemapAlpha:        getFloat(b[OffsetTonemapAlpha:]),
	}
}

func putHandle(b []byte, h Handle) {
	lo, hi := h.Split()
	binary.LittleEndian.PutUint32(b[0:], lo)
	binary.LittleEndian.PutUint32(b[4:], hi)
}

func getHandle(b []byte) Handle {
	return JoinHandle(binary.LittleEndian.Uint32(b[0:]), binary.LittleEndian.Uint32(b[4:]))
}

func putFloat(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

func getFloat(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}
