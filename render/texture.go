// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"math/bits"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// TextureUsage specifies how a texture can be used.
// These flags can be combined with bitwise OR.
type TextureUsage uint32

const (
	// TextureUsageCopySrc allows the texture to be used as a copy source.
	TextureUsageCopySrc TextureUsage = 1 << iota

	// TextureUsageCopyDst allows the texture to be used as a copy destination.
	TextureUsageCopyDst

	// TextureUsageTextureBinding allows the texture to be sampled.
	TextureUsageTextureBinding

	// TextureUsageStorageBinding allows the texture to be used in a storage binding.
	TextureUsageStorageBinding

	// TextureUsageRenderAttachment allows the texture to be used as a render attachment.
	TextureUsageRenderAttachment
)

func (u TextureUsage) gpu() gputypes.TextureUsage {
	var out gputypes.TextureUsage
	if u&TextureUsageCopySrc != 0 {
		out |= gputypes.TextureUsageCopySrc
	}
	if u&TextureUsageCopyDst != 0 {
		out |= gputypes.TextureUsageCopyDst
	}
	if u&TextureUsageTextureBinding != 0 {
		out |= gputypes.TextureUsageTextureBinding
	}
	if u&TextureUsageStorageBinding != 0 {
		out |= gputypes.TextureUsageStorageBinding
	}
	if u&TextureUsageRenderAttachment != 0 {
		out |= gputypes.TextureUsageRenderAttachment
	}
	return out
}

// TextureDescriptor describes a 2D texture.
type TextureDescriptor struct {
	// Label is an optional debug label for the texture.
	Label string

	// Width is the texture width in pixels.
	Width uint32

	// Height is the texture height in pixels.
	Height uint32

	// MipLevelCount is the number of mipmap levels.
	// Use 1 for no mipmaps, or FullMipLevelCount for a complete chain.
	MipLevelCount uint32

	// Format is the texture pixel format.
	Format gputypes.TextureFormat

	// Usage specifies how the texture will be used.
	Usage TextureUsage
}

// DefaultTextureDescriptor returns a single-level descriptor usable as a
// render target and a sampled texture.
func DefaultTextureDescriptor(width, height uint32, format gputypes.TextureFormat) TextureDescriptor {
	return TextureDescriptor{
		Width:         width,
		Height:        height,
		MipLevelCount: 1,
		Format:        format,
		Usage:         TextureUsageTextureBinding | TextureUsageRenderAttachment,
	}
}

// FullMipLevelCount returns the number of levels of a complete mip chain
// for a width x height texture, down to and including 1x1.
func FullMipLevelCount(width, height uint32) uint32 {
	m := max(width, height)
	if m == 0 {
		return 0
	}
	return uint32(bits.Len32(m))
}

// Texture is a GPU texture created by a Device.
type Texture struct {
	raw  hal.Texture
	desc TextureDescriptor
}

// Width returns the width of level 0.
func (t *Texture) Width() uint32 { return t.desc.Width }

// Height returns the height of level 0.
func (t *Texture) Height() uint32 { return t.desc.Height }

// Format returns the pixel format.
func (t *Texture) Format() gputypes.TextureFormat { return t.desc.Format }

// MipLevelCount returns the number of mip levels.
func (t *Texture) MipLevelCount() uint32 { return t.desc.MipLevelCount }

// Label returns the debug label.
func (t *Texture) Label() string { return t.desc.Label }

// LevelSize returns the size of mip level. Each dimension halves per level
// and stops at 1; a zero dimension stays zero.
func (t *Texture) LevelSize(level uint32) (width, height uint32) {
	return levelDim(t.desc.Width, level), levelDim(t.desc.Height, level)
}

func levelDim(size, level uint32) uint32 {
	if size == 0 {
		return 0
	}
	return max(1, size>>level)
}

// Released reports whether the texture has been destroyed.
func (t *Texture) Released() bool { return t.raw == nil }

// ViewDescriptor selects the mip range of a texture view. A zero
// MipLevelCount selects every level from BaseMipLevel on.
type ViewDescriptor struct {
	Label         string
	BaseMipLevel  uint32
	MipLevelCount uint32
}

// TextureView is a view of a mip range of one array layer of a texture.
type TextureView struct {
	raw     hal.TextureView
	texture *Texture
	label   string
	base    uint32
	count   uint32
}

// Texture returns the viewed texture.
func (v *TextureView) Texture() *Texture { return v.texture }

// Label returns the debug label.
func (v *TextureView) Label() string { return v.label }

// BaseMipLevel returns the first viewed level.
func (v *TextureView) BaseMipLevel() uint32 { return v.base }

// MipLevelCount returns the number of viewed levels.
func (v *TextureView) MipLevelCount() uint32 { return v.count }

// Width returns the width of the first viewed level.
func (v *TextureView) Width() uint32 {
	w, _ := v.texture.LevelSize(v.base)
	return w
}

// Height returns the height of the first viewed level.
func (v *TextureView) Height() uint32 {
	_, h := v.texture.LevelSize(v.base)
	return h
}

// Released reports whether the view has been destroyed.
func (v *TextureView) Released() bool { return v.raw == nil }

// CreateTexture creates a 2D texture.
func (d *Device) CreateTexture(desc TextureDescriptor) (*Texture, error) {
	if desc.MipLevelCount == 0 {
		desc.MipLevelCount = 1
	}
	raw, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label: desc.Label,
		Size: hal.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: desc.MipLevelCount,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.Format,
		Usage:         desc.Usage.gpu(),
	})
	if err != nil {
		return nil, fmt.Errorf("render: create texture %q: %w", desc.Label, err)
	}
	d.stats.TexturesCreated++
	return &Texture{raw: raw, desc: desc}, nil
}

// DestroyTexture releases t. Destroying a nil or released texture is a no-op.
func (d *Device) DestroyTexture(t *Texture) {
	if t == nil || t.raw == nil {
		return
	}
	d.device.DestroyTexture(t.raw)
	t.raw = nil
	d.stats.TexturesDestroyed++
}

// CreateView creates a view of one array layer of t.
func (d *Device) CreateView(t *Texture, desc ViewDescriptor) (*TextureView, error) {
	if t == nil || t.raw == nil {
		return nil, fmt.Errorf("render: create view %q: %w", desc.Label, ErrReleased)
	}
	count := desc.MipLevelCount
	if count == 0 {
		count = t.desc.MipLevelCount - desc.BaseMipLevel
	}
	if desc.BaseMipLevel+count > t.desc.MipLevelCount {
		return nil, fmt.Errorf("render: view %q levels [%d, %d) outside texture with %d levels",
			desc.Label, desc.BaseMipLevel, desc.BaseMipLevel+count, t.desc.MipLevelCount)
	}
	raw, err := d.device.CreateTextureView(t.raw, &hal.TextureViewDescriptor{
		Label:           desc.Label,
		Format:          t.desc.Format,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		BaseMipLevel:    desc.BaseMipLevel,
		MipLevelCount:   count,
		BaseArrayLayer:  0,
		ArrayLayerCount: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("render: create view %q: %w", desc.Label, err)
	}
	d.stats.ViewsCreated++
	return &TextureView{
		raw:     raw,
		texture: t,
		label:   desc.Label,
		base:    desc.BaseMipLevel,
		count:   count,
	}, nil
}

// DestroyView releases v. Destroying a nil or released view is a no-op.
func (d *Device) DestroyView(v *TextureView) {
	if v == nil || v.raw == nil {
		return
	}
	d.device.DestroyTextureView(v.raw)
	v.raw = nil
	d.stats.ViewsDestroyed++
}
