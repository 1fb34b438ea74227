// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"
)

// CommandEncoder records render passes for one submission.
type CommandEncoder struct {
	d   *Device
	raw hal.CommandEncoder
}

// BeginCommands starts recording. Command buffers from earlier submissions
// that the queue reports complete are released first.
func (d *Device) BeginCommands(label string) (*CommandEncoder, error) {
	d.reclaim()
	raw, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("render: create command encoder %q: %w", label, err)
	}
	if err := raw.BeginEncoding(label); err != nil {
		raw.DiscardEncoding()
		return nil, fmt.Errorf("render: begin encoding %q: %w", label, err)
	}
	return &CommandEncoder{d: d, raw: raw}, nil
}

// BeginRenderPass starts recording into p. The viewport covers the whole
// target.
func (e *CommandEncoder) BeginRenderPass(p *RenderPass) *RenderCommandEncoder {
	raw := e.raw.BeginRenderPass(p.halDescriptor())
	raw.SetViewport(0, 0, float32(p.Width()), float32(p.Height()), 0, 1)
	return &RenderCommandEncoder{d: e.d, raw: raw, pass: p}
}

// Submit finishes recording and submits the commands to the queue.
func (e *CommandEncoder) Submit() error {
	cmd, err := e.raw.EndEncoding()
	if err != nil {
		return fmt.Errorf("render: end encoding: %w", err)
	}
	index, err := e.d.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		e.d.device.FreeCommandBuffer(cmd)
		return fmt.Errorf("render: submit: %w", err)
	}
	e.d.pending = append(e.d.pending, pendingSubmit{index: index, cmd: cmd})
	e.d.stats.Submits++
	return nil
}

// RenderCommandEncoder records draws into one render pass.
type RenderCommandEncoder struct {
	d    *Device
	raw  hal.RenderPassEncoder
	pass *RenderPass
}

// Pass returns the render pass being recorded.
func (r *RenderCommandEncoder) Pass() *RenderPass { return r.pass }

// SetPipeline binds p.
func (r *RenderCommandEncoder) SetPipeline(p *Pipeline) {
	r.raw.SetPipeline(p.raw)
}

// SetBindGroup binds g as group 0. offset is the dynamic offset applied to
// its buffer binding.
func (r *RenderCommandEncoder) SetBindGroup(g *BindGroup, offset uint32) {
	r.raw.SetBindGroup(0, g.raw, []uint32{offset})
}

// Draw issues a non-indexed draw of vertexCount vertices with no vertex
// buffers bound.
func (r *RenderCommandEncoder) Draw(vertexCount uint32) {
	r.raw.Draw(vertexCount, 1, 0, 0)
	r.d.stats.Draws++
}

// End finishes the render pass.
func (r *RenderCommandEncoder) End() {
	r.raw.End()
}
