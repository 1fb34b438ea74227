// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package rendergraph schedules per-frame GPU work as a graph of nodes.
//
// Nodes register keyed inputs and outputs. Connecting an output to an
// input with the same key creates a dependency edge: the producer runs
// before the consumer, and the consumer can ask for the producer's texture
// through [NodeBase.ConsumerInputTexture].
//
//	g := rendergraph.New()
//	scene, _ := rendergraph.NewTextureNode("scene", device, rendergraph.KeyViewportTexture, format)
//	g.Register(scene)
//	g.Register(post)
//	g.Connect(rendergraph.KeyViewportTexture, scene, post)
//
//	for running {
//	    if err := g.Execute(); err != nil {
//	        // the frame is lost; the next one is attempted normally
//	    }
//	}
package rendergraph
