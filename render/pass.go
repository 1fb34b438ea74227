// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// RenderPassDescriptor describes a render pass with a single color
// attachment.
type RenderPassDescriptor struct {
	Label string

	// Target is the color attachment. Its first mip level is rendered to.
	Target *TextureView

	LoadOp     gputypes.LoadOp
	StoreOp    gputypes.StoreOp
	ClearValue gputypes.Color
}

// RenderPass is a reusable render pass description bound to one target
// view. Begin it on a CommandEncoder to record draws into the target.
type RenderPass struct {
	desc     RenderPassDescriptor
	released bool
}

// Label returns the debug label.
func (p *RenderPass) Label() string { return p.desc.Label }

// Target returns the color attachment view.
func (p *RenderPass) Target() *TextureView { return p.desc.Target }

// Width returns the width of the render target.
func (p *RenderPass) Width() uint32 { return p.desc.Target.Width() }

// Height returns the height of the render target.
func (p *RenderPass) Height() uint32 { return p.desc.Target.Height() }

// Released reports whether the pass has been destroyed.
func (p *RenderPass) Released() bool { return p.released }

// CreateRenderPass creates a render pass targeting desc.Target.
func (d *Device) CreateRenderPass(desc RenderPassDescriptor) (*RenderPass, error) {
	if desc.Target == nil || desc.Target.Released() {
		return nil, fmt.Errorf("render: create render pass %q: %w", desc.Label, ErrReleased)
	}
	if desc.LoadOp == 0 {
		desc.LoadOp = gputypes.LoadOpClear
	}
	if desc.StoreOp == 0 {
		desc.StoreOp = gputypes.StoreOpStore
	}
	d.stats.RenderPassesCreated++
	return &RenderPass{desc: desc}, nil
}

// DestroyRenderPass releases p. The target view is not destroyed.
func (d *Device) DestroyRenderPass(p *RenderPass) {
	if p == nil || p.released {
		return
	}
	p.released = true
	d.stats.RenderPassesDestroyed++
}

func (p *RenderPass) halDescriptor() *hal.RenderPassDescriptor {
	return &hal.RenderPassDescriptor{
		Label: p.desc.Label,
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       p.desc.Target.raw,
			LoadOp:     p.desc.LoadOp,
			StoreOp:    p.desc.StoreOp,
			ClearValue: p.desc.ClearValue,
		}},
	}
}
