// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rendergraph

import (
	"fmt"

	"github.com/gogpu/bloom/render"
	"github.com/gogpu/gputypes"
)

// TextureNode is a producer that owns a single-level color texture sized
// to its viewport. Each frame it clears the texture to ClearColor, so it
// stands in for a scene renderer upstream of post-processing.
type TextureNode struct {
	NodeBase

	// ClearColor is the color the texture is cleared to every frame. It is
	// read when the texture is allocated.
	ClearColor gputypes.Color

	device *render.Device
	key    Key
	format gputypes.TextureFormat

	width, height uint32

	texture *render.Texture
	view    *render.TextureView
	pass    *render.RenderPass
}

// NewTextureNode returns a node producing a format texture under key.
func NewTextureNode(name string, device *render.Device, key Key, format gputypes.TextureFormat) (*TextureNode, error) {
	n := &TextureNode{
		NodeBase: NewNodeBase(name),
		device:   device,
		key:      key,
		format:   format,
	}
	if err := n.RegisterOutput(name, key); err != nil {
		return nil, err
	}
	return n, nil
}

// Base implements Node.
func (n *TextureNode) Base() *NodeBase { return &n.NodeBase }

// SetViewport sets the texture size used from the next frame on.
func (n *TextureNode) SetViewport(width, height uint32) {
	n.width, n.height = width, height
}

// Viewport returns the requested texture size.
func (n *TextureNode) Viewport() (width, height uint32) {
	return n.width, n.height
}

// ProducerOutputTexture implements Node.
func (n *TextureNode) ProducerOutputTexture(key Key) *render.TextureView {
	if key != n.key && key != KeyWildcard {
		return nil
	}
	return n.view
}

// ExecuteRenderGraphNode reallocates the texture when the viewport
// changed and clears it.
func (n *TextureNode) ExecuteRenderGraphNode() error {
	if err := n.resize(); err != nil {
		return err
	}
	if n.pass == nil {
		return nil
	}
	enc, err := n.device.BeginCommands(n.name)
	if err != nil {
		return err
	}
	enc.BeginRenderPass(n.pass).End()
	return enc.Submit()
}

func (n *TextureNode) resize() error {
	if n.texture != nil && n.texture.Width() == n.width && n.texture.Height() == n.height {
		return nil
	}
	n.Destroy()
	if n.width < 1 || n.height < 1 {
		return nil
	}

	desc := render.DefaultTextureDescriptor(n.width, n.height, n.format)
	desc.Label = n.name
	tex, err := n.device.CreateTexture(desc)
	if err != nil {
		return fmt.Errorf("rendergraph: node %q: %w", n.name, err)
	}
	view, err := n.device.CreateView(tex, render.ViewDescriptor{Label: n.name})
	if err != nil {
		n.device.DestroyTexture(tex)
		return fmt.Errorf("rendergraph: node %q: %w", n.name, err)
	}
	pass, err := n.device.CreateRenderPass(render.RenderPassDescriptor{
		Label:      n.name,
		Target:     view,
		ClearValue: n.ClearColor,
	})
	if err != nil {
		n.device.DestroyView(view)
		n.device.DestroyTexture(tex)
		return fmt.Errorf("rendergraph: node %q: %w", n.name, err)
	}
	n.texture, n.view, n.pass = tex, view, pass
	slogger().Info("rendergraph: texture node resized", "node", n.name, "width", n.width, "height", n.height)
	return nil
}

// Destroy releases the texture. The node allocates a new one on its next
// execution if the viewport is valid.
func (n *TextureNode) Destroy() {
	n.device.DestroyRenderPass(n.pass)
	n.device.DestroyView(n.view)
	n.device.DestroyTexture(n.texture)
	n.texture, n.view, n.pass = nil, nil, nil
}
