// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rendergraph

import (
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/bloom/render"
)

// stubNode records its executions into a shared log.
type stubNode struct {
	NodeBase
	log  *[]string
	err  error
	view *render.TextureView
}

func newStub(t *testing.T, name string, log *[]string, in, out bool) *stubNode {
	t.Helper()
	n := &stubNode{NodeBase: NewNodeBase(name), log: log}
	if in {
		if err := n.RegisterInput("in", KeyViewportTexture); err != nil {
			t.Fatal(err)
		}
	}
	if out {
		if err := n.RegisterOutput("out", KeyViewportTexture); err != nil {
			t.Fatal(err)
		}
	}
	return n
}

func (n *stubNode) Base() *NodeBase { return &n.NodeBase }

func (n *stubNode) ProducerOutputTexture(key Key) *render.TextureView {
	if key != KeyViewportTexture && key != KeyWildcard {
		return nil
	}
	return n.view
}

func (n *stubNode) ExecuteRenderGraphNode() error {
	*n.log = append(*n.log, n.name)
	return n.err
}

func names(nodes []Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Base().Name()
	}
	return out
}

func TestRegisterDuplicateKey(t *testing.T) {
	n := NewNodeBase("n")
	if err := n.RegisterInput("a", KeyViewportTexture); err != nil {
		t.Fatal(err)
	}
	if err := n.RegisterInput("b", KeyViewportTexture); !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("second RegisterInput error = %v, want ErrDuplicateKey", err)
	}
	if err := n.RegisterOutput("a", KeyViewportTexture); err != nil {
		t.Errorf("output with the input's key: %v", err)
	}
	if err := n.RegisterOutput("b", KeyViewportTexture); !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("second RegisterOutput error = %v, want ErrDuplicateKey", err)
	}
}

func TestGraphRegister(t *testing.T) {
	var log []string
	g := New()
	a := newStub(t, "a", &log, false, true)
	if err := g.Register(a); err != nil {
		t.Fatal(err)
	}
	if err := g.Register(a); !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("double Register error = %v", err)
	}
	b := newStub(t, "b", &log, true, false)
	if err := g.Connect(KeyViewportTexture, a, b); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("Connect to unregistered node error = %v", err)
	}
	if err := g.Unregister(b); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("Unregister unknown node error = %v", err)
	}
}

func TestConnectRules(t *testing.T) {
	var log []string
	g := New()
	a := newStub(t, "a", &log, false, true)
	b := newStub(t, "b", &log, false, true)
	c := newStub(t, "c", &log, true, false)
	for _, n := range []Node{a, b, c} {
		if err := g.Register(n); err != nil {
			t.Fatal(err)
		}
	}

	if err := g.Connect(KeyShadowMaps, a, c); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("Connect with unregistered key error = %v", err)
	}
	if err := g.Connect(KeyViewportTexture, a, c); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := g.Connect(KeyViewportTexture, b, c); !errors.Is(err, ErrDuplicateProducer) {
		t.Errorf("second producer error = %v, want ErrDuplicateProducer", err)
	}
	if len(b.Outputs()[0].Consumers) != 0 {
		t.Error("failed Connect left a consumer on the producer")
	}
	if c.Depth() != 1 {
		t.Errorf("consumer depth = %d, want 1", c.Depth())
	}
	if got := c.ConsumerInputNode(KeyViewportTexture); got != Node(a) {
		t.Errorf("ConsumerInputNode = %v, want a", got)
	}

	if err := g.Disconnect(KeyViewportTexture, a, c); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if err := g.Disconnect(KeyViewportTexture, a, c); !errors.Is(err, ErrNotConnected) {
		t.Errorf("second Disconnect error = %v, want ErrNotConnected", err)
	}
	if c.ConsumerInputNode(KeyViewportTexture) != nil {
		t.Error("input still connected after Disconnect")
	}
}

func TestConsumerInputTexture(t *testing.T) {
	var log []string
	g := New()
	a := newStub(t, "a", &log, false, true)
	c := newStub(t, "c", &log, true, false)
	g.Register(a)
	g.Register(c)

	if c.ConsumerInputTexture(KeyViewportTexture) != nil {
		t.Error("texture without a producer")
	}
	if err := g.Connect(KeyViewportTexture, a, c); err != nil {
		t.Fatal(err)
	}
	if c.ConsumerInputTexture(KeyViewportTexture) != nil {
		t.Error("texture from a producer that has none")
	}
	a.view = &render.TextureView{}
	if c.ConsumerInputTexture(KeyViewportTexture) != a.view {
		t.Error("producer texture not routed to consumer")
	}
	if c.ConsumerInputTexture(KeyShadowMaps) != nil {
		t.Error("texture for an unregistered input key")
	}
}

func TestSortOrder(t *testing.T) {
	var log []string
	g := New()
	post := newStub(t, "post", &log, true, true)
	present := newStub(t, "present", &log, true, false)
	scene := newStub(t, "scene", &log, false, true)
	// Registered consumer first so that Sort has to reorder.
	for _, n := range []Node{present, post, scene} {
		if err := g.Register(n); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.Connect(KeyViewportTexture, scene, post); err != nil {
		t.Fatal(err)
	}
	if err := g.Connect(KeyViewportTexture, post, present); err != nil {
		t.Fatal(err)
	}
	if err := g.Sort(); err != nil {
		t.Fatalf("Sort: %v", err)
	}
	want := []string{"scene", "post", "present"}
	if got := names(g.Nodes()); !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
	if present.Depth() != 2 {
		t.Errorf("present depth = %d, want 2", present.Depth())
	}
}

func TestSortCycle(t *testing.T) {
	var log []string
	g := New()
	a := newStub(t, "a", &log, true, true)
	b := newStub(t, "b", &log, true, true)
	g.Register(a)
	g.Register(b)
	if err := g.Connect(KeyViewportTexture, a, b); err != nil {
		t.Fatal(err)
	}
	if err := g.Connect(KeyViewportTexture, b, a); err != nil {
		t.Fatal(err)
	}
	if err := g.Sort(); !errors.Is(err, ErrCycle) {
		t.Errorf("Sort error = %v, want ErrCycle", err)
	}
	if err := g.Execute(); !errors.Is(err, ErrCycle) {
		t.Errorf("Execute error = %v, want ErrCycle", err)
	}
	if len(log) != 0 {
		t.Errorf("nodes executed in a cyclic graph: %v", log)
	}
}

func TestExecute(t *testing.T) {
	var log []string
	g := New()
	scene := newStub(t, "scene", &log, false, true)
	post := newStub(t, "post", &log, true, true)
	hud := newStub(t, "hud", &log, false, false)
	present := newStub(t, "present", &log, true, false)
	for _, n := range []Node{present, post, hud, scene} {
		g.Register(n)
	}
	g.Connect(KeyViewportTexture, scene, post)
	g.Connect(KeyViewportTexture, post, present)

	boom := errors.New("boom")
	post.err = boom
	hud.SetEnabled(false)

	err := g.Execute()
	if !errors.Is(err, boom) {
		t.Errorf("Execute error = %v, want it to wrap the node error", err)
	}
	want := []string{"scene", "post", "present"}
	if !slices.Equal(log, want) {
		t.Errorf("executed %v, want %v", log, want)
	}

	log = log[:0]
	post.err = nil
	hud.SetEnabled(true)
	if err := g.Execute(); err != nil {
		t.Errorf("Execute: %v", err)
	}
	if len(log) != 4 {
		t.Errorf("executed %v, want all four nodes", log)
	}
}

func TestUnregisterDisconnects(t *testing.T) {
	var log []string
	g := New()
	a := newStub(t, "a", &log, false, true)
	b := newStub(t, "b", &log, true, true)
	c := newStub(t, "c", &log, true, false)
	for _, n := range []Node{a, b, c} {
		g.Register(n)
	}
	g.Connect(KeyViewportTexture, a, b)
	g.Connect(KeyViewportTexture, b, c)

	if err := g.Unregister(b); err != nil {
		t.Fatalf("Unregister: %v", err)
	}
	if len(a.Outputs()[0].Consumers) != 0 {
		t.Error("producer still feeds the removed node")
	}
	if c.ConsumerInputNode(KeyViewportTexture) != nil {
		t.Error("consumer still fed by the removed node")
	}
	if got := names(g.Nodes()); !slices.Equal(got, []string{"a", "c"}) {
		t.Errorf("nodes = %v", got)
	}
}

func TestKeyString(t *testing.T) {
	tests := []struct {
		key  Key
		want string
	}{
		{KeyNone, "none"},
		{KeyWildcard, "wildcard"},
		{KeyViewportTexture, "viewport_texture"},
		{KeyShadowMaps, "shadow_maps"},
		{Key(42), "key(42)"},
	}
	for _, tt := range tests {
		if got := tt.key.String(); got != tt.want {
			t.Errorf("Key(%d).String() = %q, want %q", int(tt.key), got, tt.want)
		}
	}
}
