// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// BindingLayout is a bind group layout plus the pipeline layout that uses
// it as group 0.
type BindingLayout struct {
	group    hal.BindGroupLayout
	pipeline hal.PipelineLayout
}

// CreateBindingLayout creates a single-group layout from entries.
func (d *Device) CreateBindingLayout(label string, entries []gputypes.BindGroupLayoutEntry) (*BindingLayout, error) {
	group, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   label,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("render: create bind group layout %q: %w", label, err)
	}
	pipeline, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: []hal.BindGroupLayout{group},
	})
	if err != nil {
		d.device.DestroyBindGroupLayout(group)
		return nil, fmt.Errorf("render: create pipeline layout %q: %w", label, err)
	}
	return &BindingLayout{group: group, pipeline: pipeline}, nil
}

// DestroyBindingLayout releases l.
func (d *Device) DestroyBindingLayout(l *BindingLayout) {
	if l == nil || l.group == nil {
		return
	}
	d.device.DestroyPipelineLayout(l.pipeline)
	d.device.DestroyBindGroupLayout(l.group)
	l.group, l.pipeline = nil, nil
}

// ShaderSource holds a shader as WGSL text or precompiled SPIR-V words.
// SPIRV takes precedence when both are set.
type ShaderSource struct {
	WGSL  string
	SPIRV []uint32
}

// PipelineDescriptor describes a full-screen render pipeline: no vertex
// buffers, triangle list, no culling, one color target without blending.
type PipelineDescriptor struct {
	Label         string
	Layout        *BindingLayout
	Source        ShaderSource
	VertexEntry   string
	FragmentEntry string
	TargetFormat  gputypes.TextureFormat
}

// Pipeline is a render pipeline and the shader module it was built from.
type Pipeline struct {
	raw    hal.RenderPipeline
	module hal.ShaderModule
	label  string
}

// Label returns the debug label.
func (p *Pipeline) Label() string { return p.label }

// CreatePipeline compiles desc.Source and creates the pipeline.
func (d *Device) CreatePipeline(desc PipelineDescriptor) (*Pipeline, error) {
	if desc.Layout == nil {
		return nil, fmt.Errorf("render: create pipeline %q: nil layout", desc.Label)
	}
	src := hal.ShaderSource{WGSL: desc.Source.WGSL}
	if len(desc.Source.SPIRV) > 0 {
		src = hal.ShaderSource{SPIRV: desc.Source.SPIRV}
	}
	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.Label,
		Source: src,
	})
	if err != nil {
		return nil, fmt.Errorf("render: create shader module %q: %w", desc.Label, err)
	}

	raw, err := d.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: desc.Layout.pipeline,
		Vertex: hal.VertexState{
			Module:     module,
			EntryPoint: desc.VertexEntry,
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleList,
			FrontFace: gputypes.FrontFaceCCW,
			CullMode:  gputypes.CullModeNone,
		},
		Multisample: gputypes.DefaultMultisampleState(),
		Fragment: &hal.FragmentState{
			Module:     module,
			EntryPoint: desc.FragmentEntry,
			Targets: []gputypes.ColorTargetState{{
				Format:    desc.TargetFormat,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
	})
	if err != nil {
		d.device.DestroyShaderModule(module)
		return nil, fmt.Errorf("render: create render pipeline %q: %w", desc.Label, err)
	}
	d.stats.PipelinesCreated++
	return &Pipeline{raw: raw, module: module, label: desc.Label}, nil
}

// DestroyPipeline releases p and its shader module.
func (d *Device) DestroyPipeline(p *Pipeline) {
	if p == nil || p.raw == nil {
		return
	}
	d.device.DestroyRenderPipeline(p.raw)
	d.device.DestroyShaderModule(p.module)
	p.raw, p.module = nil, nil
	d.stats.PipelinesDestroyed++
}

// BindGroup is a set of resources bound as group 0.
type BindGroup struct {
	raw   hal.BindGroup
	label string
}

// Label returns the debug label.
func (g *BindGroup) Label() string { return g.label }

// BufferEntry binds size bytes of b, starting at the dynamic offset given
// when the group is set.
func BufferEntry(binding uint32, b *Buffer, size uint64) gputypes.BindGroupEntry {
	return gputypes.BindGroupEntry{
		Binding:  binding,
		Resource: gputypes.BufferBinding{Buffer: b.raw.NativeHandle(), Offset: 0, Size: size},
	}
}

// SamplerEntry binds s.
func SamplerEntry(binding uint32, s *Sampler) gputypes.BindGroupEntry {
	return gputypes.BindGroupEntry{
		Binding:  binding,
		Resource: gputypes.SamplerBinding{Sampler: s.raw.NativeHandle()},
	}
}

// ViewEntry binds v as a sampled texture.
func ViewEntry(binding uint32, v *TextureView) gputypes.BindGroupEntry {
	return gputypes.BindGroupEntry{
		Binding:  binding,
		Resource: gputypes.TextureViewBinding{TextureView: v.raw.NativeHandle()},
	}
}

// CreateBindGroup creates a bind group for layout.
func (d *Device) CreateBindGroup(label string, layout *BindingLayout, entries []gputypes.BindGroupEntry) (*BindGroup, error) {
	raw, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   label,
		Layout:  layout.group,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("render: create bind group %q: %w", label, err)
	}
	d.stats.BindGroupsCreated++
	return &BindGroup{raw: raw, label: label}, nil
}

// DestroyBindGroup releases g.
func (d *Device) DestroyBindGroup(g *BindGroup) {
	if g == nil || g.raw == nil {
		return
	}
	d.device.DestroyBindGroup(g.raw)
	g.raw = nil
	d.stats.BindGroupsDestroyed++
}
