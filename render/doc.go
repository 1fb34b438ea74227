// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render is the graphics layer the bloom compositor draws through.
//
// It wraps a gogpu/wgpu HAL device with the handful of objects the
// compositor needs: mipmapped textures, single-level views, render passes
// bound to one view, samplers, a CPU-shadowed parameter buffer, a texture
// heap that hands out opaque texture handles, pipelines, and a command
// encoder that records full-screen draws.
//
// # Key Principle
//
// The package RECEIVES a GPU device from the host application, it does NOT
// create one. Use [NewDevice] with a hal.Device and hal.Queue, or
// [NewDeviceFromProvider] with a [DeviceHandle] that exposes its HAL objects.
//
// # Statistics
//
// Every Device counts the objects it creates and destroys and the draws it
// records. [Device.Stats] returns a snapshot; resize and per-frame costs
// are observable without a GPU by running on the hal/noop backend:
//
//	api := noop.API{}
//	instance, _ := api.CreateInstance(nil)
//	adapters := instance.EnumerateAdapters(nil)
//	open, _ := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
//	dev, _ := render.NewDevice(open.Device, open.Queue, gputypes.DefaultLimits())
//
// # Threading
//
// A Device is not safe for concurrent use. All calls must come from the
// thread that owns the render graph.
package render
