// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Buffer is a uniform buffer with a CPU-side shadow copy. Callers write
// into Bytes and make ranges visible to the GPU with Device.Flush.
type Buffer struct {
	raw    hal.Buffer
	label  string
	shadow []byte
}

// Label returns the debug label.
func (b *Buffer) Label() string { return b.label }

// Size returns the buffer size in bytes.
func (b *Buffer) Size() uint64 { return uint64(len(b.shadow)) }

// Bytes returns the CPU-side contents. Writes become visible to the GPU
// only after Flush.
func (b *Buffer) Bytes() []byte { return b.shadow }

// CreateUniformBuffer creates a size byte buffer usable as a uniform
// binding with dynamic offsets.
func (d *Device) CreateUniformBuffer(label string, size uint64) (*Buffer, error) {
	raw, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("render: create buffer %q: %w", label, err)
	}
	return &Buffer{raw: raw, label: label, shadow: make([]byte, size)}, nil
}

// Flush uploads bytes [offset, offset+size) of the shadow copy.
func (d *Device) Flush(b *Buffer, offset, size uint64) error {
	if b == nil || b.raw == nil {
		return fmt.Errorf("render: flush: %w", ErrReleased)
	}
	if offset+size > uint64(len(b.shadow)) {
		return fmt.Errorf("render: flush %q: range [%d, %d) exceeds %d bytes",
			b.label, offset, offset+size, len(b.shadow))
	}
	if size == 0 {
		return nil
	}
	if err := d.queue.WriteBuffer(b.raw, offset, b.shadow[offset:offset+size]); err != nil {
		return fmt.Errorf("render: flush %q: %w", b.label, err)
	}
	d.stats.Flushes++
	d.stats.BytesFlushed += size
	return nil
}

// DestroyBuffer releases b.
func (d *Device) DestroyBuffer(b *Buffer) {
	if b == nil || b.raw == nil {
		return
	}
	d.device.DestroyBuffer(b.raw)
	b.raw = nil
}
