// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rendergraph

import (
	"fmt"
	"slices"

	"github.com/gogpu/bloom/render"
)

// Key identifies a resource passed along a graph edge. An input and an
// output connect when they are registered under the same key.
type Key int

const (
	// KeyNone is the zero key. It is never registered.
	KeyNone Key = iota

	// KeyWildcard matches any key when asking a producer for its output.
	KeyWildcard

	// KeyViewportTexture is the color texture of a rendered viewport.
	KeyViewportTexture

	// KeyShadowMaps is the shadow map array of a scene.
	KeyShadowMaps
)

// String returns the key name.
func (k Key) String() string {
	switch k {
	case KeyNone:
		return "none"
	case KeyWildcard:
		return "wildcard"
	case KeyViewportTexture:
		return "viewport_texture"
	case KeyShadowMaps:
		return "shadow_maps"
	default:
		return fmt.Sprintf("key(%d)", int(k))
	}
}

// Node is a unit of per-frame GPU work in a Graph.
//
// Implementations embed NodeBase and return it from Base.
type Node interface {
	// Base returns the connector state shared by all nodes.
	Base() *NodeBase

	// ProducerOutputTexture returns the texture this node produces for key,
	// or nil when it has none yet. Consumers treat nil as "not ready".
	ProducerOutputTexture(key Key) *render.TextureView

	// ExecuteRenderGraphNode records the node's work for the current frame.
	ExecuteRenderGraphNode() error
}

// ConsumerConnector is a registered input of a node.
type ConsumerConnector struct {
	Label     string
	Key       Key
	Producers []Node
}

// ProducerConnector is a registered output of a node.
type ProducerConnector struct {
	Label     string
	Key       Key
	Consumers []Node
}

// NodeBase holds the name, enabled flag, depth and connectors of a node.
type NodeBase struct {
	name     string
	disabled bool
	depth    int
	inputs   []ConsumerConnector
	outputs  []ProducerConnector
}

// NewNodeBase returns an enabled node base with no connectors.
func NewNodeBase(name string) NodeBase {
	return NodeBase{name: name}
}

// Name returns the node name.
func (b *NodeBase) Name() string { return b.name }

// Enabled reports whether the graph executes the node. Nodes start enabled.
func (b *NodeBase) Enabled() bool { return !b.disabled }

// SetEnabled enables or disables the node.
func (b *NodeBase) SetEnabled(enabled bool) { b.disabled = !enabled }

// Depth returns the length of the longest producer chain seen when the
// node's inputs were connected.
func (b *NodeBase) Depth() int { return b.depth }

// Inputs returns the registered inputs.
func (b *NodeBase) Inputs() []ConsumerConnector { return b.inputs }

// Outputs returns the registered outputs.
func (b *NodeBase) Outputs() []ProducerConnector { return b.outputs }

// RegisterInput adds an input slot for key.
func (b *NodeBase) RegisterInput(label string, key Key) error {
	if b.input(key) != nil {
		return fmt.Errorf("rendergraph: node %q input %s: %w", b.name, key, ErrDuplicateKey)
	}
	b.inputs = append(b.inputs, ConsumerConnector{Label: label, Key: key})
	return nil
}

// RegisterOutput adds an output slot for key.
func (b *NodeBase) RegisterOutput(label string, key Key) error {
	if b.output(key) != nil {
		return fmt.Errorf("rendergraph: node %q output %s: %w", b.name, key, ErrDuplicateKey)
	}
	b.outputs = append(b.outputs, ProducerConnector{Label: label, Key: key})
	return nil
}

// ConsumerInputNode returns the producer connected to input key, or nil.
func (b *NodeBase) ConsumerInputNode(key Key) Node {
	in := b.input(key)
	if in == nil {
		slogger().Error("rendergraph: input not registered", "node", b.name, "key", key)
		return nil
	}
	if len(in.Producers) == 0 {
		return nil
	}
	return in.Producers[0]
}

// ConsumerInputTexture returns the texture the producer connected to
// input key provides, or nil when there is no producer or it has no
// texture yet.
func (b *NodeBase) ConsumerInputTexture(key Key) *render.TextureView {
	producer := b.ConsumerInputNode(key)
	if producer == nil {
		return nil
	}
	return producer.ProducerOutputTexture(key)
}

func (b *NodeBase) input(key Key) *ConsumerConnector {
	for i := range b.inputs {
		if b.inputs[i].Key == key {
			return &b.inputs[i]
		}
	}
	return nil
}

func (b *NodeBase) output(key Key) *ProducerConnector {
	for i := range b.outputs {
		if b.outputs[i].Key == key {
			return &b.outputs[i]
		}
	}
	return nil
}

// connectInput adds producer to input key. An input carries a single
// texture, so it accepts only one producer.
func (b *NodeBase) connectInput(key Key, producer Node) error {
	in := b.input(key)
	if in == nil {
		return fmt.Errorf("rendergraph: node %q input %s: %w", b.name, key, ErrNotRegistered)
	}
	if len(in.Producers) > 0 {
		return fmt.Errorf("rendergraph: node %q input %s already fed by %q: %w",
			b.name, key, in.Producers[0].Base().Name(), ErrDuplicateProducer)
	}
	in.Producers = append(in.Producers, producer)
	b.depth = max(b.depth, producer.Base().depth+1)
	return nil
}

func (b *NodeBase) connectOutput(key Key, consumer Node) error {
	out := b.output(key)
	if out == nil {
		return fmt.Errorf("rendergraph: node %q output %s: %w", b.name, key, ErrNotRegistered)
	}
	if slices.Contains(out.Consumers, consumer) {
		return fmt.Errorf("rendergraph: node %q output %s already feeds %q: %w",
			b.name, key, consumer.Base().Name(), ErrDuplicateProducer)
	}
	out.Consumers = append(out.Consumers, consumer)
	return nil
}

func (b *NodeBase) disconnectInput(key Key, producer Node) bool {
	in := b.input(key)
	if in == nil {
		return false
	}
	n := len(in.Producers)
	in.Producers = slices.DeleteFunc(in.Producers, func(p Node) bool { return p == producer })
	return len(in.Producers) != n
}

func (b *NodeBase) disconnectOutput(key Key, consumer Node) bool {
	out := b.output(key)
	if out == nil {
		return false
	}
	n := len(out.Consumers)
	out.Consumers = slices.DeleteFunc(out.Consumers, func(c Node) bool { return c == consumer })
	return len(out.Consumers) != n
}

func (b *NodeBase) producers() []Node {
	var nodes []Node
	for _, in := range b.inputs {
		nodes = append(nodes, in.Producers...)
	}
	return nodes
}
