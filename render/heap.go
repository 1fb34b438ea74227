// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import "fmt"

// TextureHeap assigns texture and sampler pairs to numbered slots and hands
// out opaque 64-bit handles for them. Shaders receive a handle as two 32-bit
// words: the low word is the slot and the high word the sampler ID.
//
// A handle does not identify the view. Reassigning a slot to another view
// with the same sampler yields the same handle, so a handle stays valid
// while the slot is rebound. Use Slot to find the view a handle refers to.
type TextureHeap struct {
	slots []heapSlot
}

type heapSlot struct {
	view    *TextureView
	sampler *Sampler
}

// NewTextureHeap returns a heap with size slots.
func NewTextureHeap(size int) *TextureHeap {
	return &TextureHeap{slots: make([]heapSlot, size)}
}

// Len returns the number of slots.
func (h *TextureHeap) Len() int { return len(h.slots) }

// Reset empties every slot.
func (h *TextureHeap) Reset() {
	clear(h.slots)
}

// Assign places view and sampler in slot and returns their handle.
func (h *TextureHeap) Assign(slot int, view *TextureView, sampler *Sampler) (uint64, error) {
	if slot < 0 || slot >= len(h.slots) {
		return 0, fmt.Errorf("render: heap slot %d out of range [0, %d)", slot, len(h.slots))
	}
	if view == nil || sampler == nil {
		return 0, fmt.Errorf("render: heap slot %d: nil view or sampler", slot)
	}
	h.slots[slot] = heapSlot{view: view, sampler: sampler}
	return heapHandle(slot, sampler), nil
}

// Handle returns the handle of an assigned pair.
func (h *TextureHeap) Handle(view *TextureView, sampler *Sampler) (uint64, bool) {
	for i, s := range h.slots {
		if s.view == view && s.sampler == sampler && view != nil {
			return heapHandle(i, sampler), true
		}
	}
	return 0, false
}

// Slot returns the pair stored in slot i.
func (h *TextureHeap) Slot(i int) (*TextureView, *Sampler) {
	s := h.slots[i]
	return s.view, s.sampler
}

func heapHandle(slot int, sampler *Sampler) uint64 {
	return uint64(sampler.id)<<32 | uint64(uint32(slot))
}
