// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// DeviceHandle provides GPU device access from the host application.
//
// DeviceHandle is an alias for gpucontext.DeviceProvider. Hosts such as
// gogpu.App implement it; [NewDeviceFromProvider] extracts the HAL device
// and queue from it.
type DeviceHandle = gpucontext.DeviceProvider

var (
	// ErrNilDevice is returned when a nil HAL device or queue is supplied.
	ErrNilDevice = errors.New("render: nil device or queue")

	// ErrNoHAL is returned when a provider does not expose HAL objects.
	ErrNoHAL = errors.New("render: provider does not expose HAL device")

	// ErrReleased is returned when a destroyed object is used.
	ErrReleased = errors.New("render: object already released")
)

// defaultAlignment is used when the limits report no offset alignment.
const defaultAlignment = 256

// Stats counts objects created and destroyed through a Device and the
// work recorded with it.
type Stats struct {
	TexturesCreated       int
	TexturesDestroyed     int
	ViewsCreated          int
	ViewsDestroyed        int
	RenderPassesCreated   int
	RenderPassesDestroyed int
	BindGroupsCreated     int
	BindGroupsDestroyed   int
	PipelinesCreated      int
	PipelinesDestroyed    int
	Draws                 int
	Flushes               int
	BytesFlushed          uint64
	Submits               int
}

// LiveTextures returns the number of textures currently alive.
func (s Stats) LiveTextures() int { return s.TexturesCreated - s.TexturesDestroyed }

// LiveViews returns the number of texture views currently alive.
func (s Stats) LiveViews() int { return s.ViewsCreated - s.ViewsDestroyed }

// LiveRenderPasses returns the number of render passes currently alive.
func (s Stats) LiveRenderPasses() int { return s.RenderPassesCreated - s.RenderPassesDestroyed }

// Sub returns the counts accumulated between o and s.
func (s Stats) Sub(o Stats) Stats {
	return Stats{
		TexturesCreated:       s.TexturesCreated - o.TexturesCreated,
		TexturesDestroyed:     s.TexturesDestroyed - o.TexturesDestroyed,
		ViewsCreated:          s.ViewsCreated - o.ViewsCreated,
		ViewsDestroyed:        s.ViewsDestroyed - o.ViewsDestroyed,
		RenderPassesCreated:   s.RenderPassesCreated - o.RenderPassesCreated,
		RenderPassesDestroyed: s.RenderPassesDestroyed - o.RenderPassesDestroyed,
		BindGroupsCreated:     s.BindGroupsCreated - o.BindGroupsCreated,
		BindGroupsDestroyed:   s.BindGroupsDestroyed - o.BindGroupsDestroyed,
		PipelinesCreated:      s.PipelinesCreated - o.PipelinesCreated,
		PipelinesDestroyed:    s.PipelinesDestroyed - o.PipelinesDestroyed,
		Draws:                 s.Draws - o.Draws,
		Flushes:               s.Flushes - o.Flushes,
		BytesFlushed:          s.BytesFlushed - o.BytesFlushed,
		Submits:               s.Submits - o.Submits,
	}
}

// Device wraps a HAL device and queue.
type Device struct {
	device hal.Device
	queue  hal.Queue
	limits gputypes.Limits
	stats  Stats

	nextSamplerID uint32

	// pending holds submitted command buffers until the queue reports them
	// complete.
	pending []pendingSubmit
}

type pendingSubmit struct {
	index uint64
	cmd   hal.CommandBuffer
}

// NewDevice wraps device and queue. The Device does not take ownership:
// destroying the HAL device remains the caller's job.
func NewDevice(device hal.Device, queue hal.Queue, limits gputypes.Limits) (*Device, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	return &Device{
		device: device,
		queue:  queue,
		limits: limits,
	}, nil
}

// NewDeviceFromProvider wraps the HAL objects of a host provider. The
// provider must implement HalDevice() any and HalQueue() any returning
// hal.Device and hal.Queue.
func NewDeviceFromProvider(provider DeviceHandle, limits gputypes.Limits) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is %T", ErrNoHAL, hp.HalDevice())
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is %T", ErrNoHAL, hp.HalQueue())
	}
	return NewDevice(device, queue, limits)
}

// HAL returns the wrapped HAL device.
func (d *Device) HAL() hal.Device { return d.device }

// Queue returns the wrapped HAL queue.
func (d *Device) Queue() hal.Queue { return d.queue }

// Limits returns the limits the device was opened with.
func (d *Device) Limits() gputypes.Limits { return d.limits }

// Stats returns a snapshot of the device counters.
func (d *Device) Stats() Stats { return d.stats }

// BufferAlignment returns the alignment dynamic buffer offsets must honor:
// the larger of the uniform and storage offset alignments.
func (d *Device) BufferAlignment() uint64 {
	a := max(d.limits.MinUniformBufferOffsetAlignment, d.limits.MinStorageBufferOffsetAlignment)
	if a == 0 {
		return defaultAlignment
	}
	return uint64(a)
}

// WaitIdle blocks until the GPU has finished all submitted work and
// releases the command buffers that were waiting on it.
func (d *Device) WaitIdle() error {
	if err := d.device.WaitIdle(); err != nil {
		return fmt.Errorf("render: wait idle: %w", err)
	}
	for _, p := range d.pending {
		d.device.FreeCommandBuffer(p.cmd)
	}
	d.pending = d.pending[:0]
	return nil
}

// reclaim frees command buffers whose submissions have completed.
func (d *Device) reclaim() {
	done := d.queue.PollCompleted()
	kept := d.pending[:0]
	for _, p := range d.pending {
		if p.index <= done {
			d.device.FreeCommandBuffer(p.cmd)
			continue
		}
		kept = append(kept, p)
	}
	d.pending = kept
}
