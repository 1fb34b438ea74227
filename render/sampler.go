// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// SamplerDescriptor describes a clamp-to-edge sampler.
type SamplerDescriptor struct {
	Label        string
	MinFilter    gputypes.FilterMode
	MagFilter    gputypes.FilterMode
	MipmapFilter gputypes.FilterMode
	LodMaxClamp  float32
}

// Sampler is a texture sampler created by a Device.
type Sampler struct {
	raw   hal.Sampler
	label string
	id    uint32
}

// Label returns the debug label.
func (s *Sampler) Label() string { return s.label }

// ID returns a device-unique, non-zero sampler number.
func (s *Sampler) ID() uint32 { return s.id }

// CreateSampler creates a sampler that clamps all coordinates to the edge.
func (d *Device) CreateSampler(desc SamplerDescriptor) (*Sampler, error) {
	lodMax := desc.LodMaxClamp
	if lodMax == 0 {
		lodMax = 32
	}
	raw, err := d.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        desc.Label,
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    desc.MagFilter,
		MinFilter:    desc.MinFilter,
		MipmapFilter: desc.MipmapFilter,
		LodMinClamp:  0,
		LodMaxClamp:  lodMax,
		Anisotropy:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("render: create sampler %q: %w", desc.Label, err)
	}
	d.nextSamplerID++
	return &Sampler{raw: raw, label: desc.Label, id: d.nextSamplerID}, nil
}

// DestroySampler releases s.
func (d *Device) DestroySampler(s *Sampler) {
	if s == nil || s.raw == nil {
		return
	}
	d.device.DestroySampler(s.raw)
	s.raw = nil
}
