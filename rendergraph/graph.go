// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rendergraph

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

var (
	// ErrDuplicateKey is returned when a node registers the same input or
	// output key twice.
	ErrDuplicateKey = errors.New("rendergraph: key already registered")

	// ErrDuplicateProducer is returned when an input that already has a
	// producer is connected again.
	ErrDuplicateProducer = errors.New("rendergraph: input already has a producer")

	// ErrNotConnected is returned by Disconnect for an edge that does not
	// exist.
	ErrNotConnected = errors.New("rendergraph: nodes not connected")

	// ErrNotRegistered is returned for nodes or keys unknown to the graph.
	ErrNotRegistered = errors.New("rendergraph: not registered")

	// ErrAlreadyRegistered is returned when a node is registered twice.
	ErrAlreadyRegistered = errors.New("rendergraph: node already registered")

	// ErrCycle is returned by Sort when no execution order satisfies every
	// connection.
	ErrCycle = errors.New("rendergraph: graph is not acyclic")
)

// Graph owns a set of nodes and runs them once per frame in dependency
// order.
//
// Graph is safe for concurrent use. Nodes are not: they are only touched
// from the goroutine calling Execute.
type Graph struct {
	mu    sync.Mutex
	nodes []Node
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{}
}

// Nodes returns the registered nodes, in execution order after a
// successful Sort.
func (g *Graph) Nodes() []Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.nodes)
}

// Register adds n to the graph.
func (g *Graph) Register(n Node) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if slices.Contains(g.nodes, n) {
		return fmt.Errorf("rendergraph: register %q: %w", n.Base().Name(), ErrAlreadyRegistered)
	}
	g.nodes = append(g.nodes, n)
	slogger().Info("rendergraph: registered node", "node", n.Base().Name())
	return nil
}

// Unregister removes n and every connection to or from it.
func (g *Graph) Unregister(n Node) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := slices.Index(g.nodes, n)
	if i < 0 {
		return fmt.Errorf("rendergraph: unregister %q: %w", n.Base().Name(), ErrNotRegistered)
	}
	b := n.Base()
	for _, in := range slices.Clone(b.inputs) {
		for _, producer := range slices.Clone(in.Producers) {
			disconnect(in.Key, producer, n)
		}
	}
	for _, out := range slices.Clone(b.outputs) {
		for _, consumer := range slices.Clone(out.Consumers) {
			disconnect(out.Key, n, consumer)
		}
	}
	g.nodes = slices.Delete(g.nodes, i, i+1)
	slogger().Info("rendergraph: unregistered node", "node", b.Name())
	return nil
}

// Connect routes the key output of source into the key input of sink.
func (g *Graph) Connect(key Key, source, sink Node) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !slices.Contains(g.nodes, source) || !slices.Contains(g.nodes, sink) {
		return fmt.Errorf("rendergraph: connect %q -> %q: %w",
			source.Base().Name(), sink.Base().Name(), ErrNotRegistered)
	}
	if err := sink.Base().connectInput(key, source); err != nil {
		return err
	}
	if err := source.Base().connectOutput(key, sink); err != nil {
		sink.Base().disconnectInput(key, source)
		return err
	}
	slogger().Debug("rendergraph: connected",
		"key", key, "from", source.Base().Name(), "to", sink.Base().Name())
	return nil
}

// Disconnect removes the key edge from source to sink.
func (g *Graph) Disconnect(key Key, source, sink Node) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !disconnect(key, source, sink) {
		return fmt.Errorf("rendergraph: disconnect %q -> %q key %s: %w",
			source.Base().Name(), sink.Base().Name(), key, ErrNotConnected)
	}
	return nil
}

func disconnect(key Key, source, sink Node) bool {
	in := sink.Base().disconnectInput(key, source)
	out := source.Base().disconnectOutput(key, sink)
	if in || out {
		slogger().Debug("rendergraph: disconnected",
			"key", key, "from", source.Base().Name(), "to", sink.Base().Name())
	}
	return in || out
}

// Sort orders the nodes so that every producer runs before its
// consumers. Among ready nodes, registration order is kept.
func (g *Graph) Sort() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sort()
}

func (g *Graph) sort() error {
	unsorted := slices.Clone(g.nodes)
	sorted := make([]Node, 0, len(g.nodes))
	for len(unsorted) > 0 {
		ready := slices.IndexFunc(unsorted, func(n Node) bool {
			for _, p := range n.Base().producers() {
				if !slices.Contains(sorted, p) {
					return false
				}
			}
			return true
		})
		if ready < 0 {
			g.logGraph(sorted, unsorted)
			return ErrCycle
		}
		sorted = append(sorted, unsorted[ready])
		unsorted = slices.Delete(unsorted, ready, ready+1)
	}
	g.nodes = sorted
	return nil
}

func (g *Graph) logGraph(sorted, unsorted []Node) {
	log := slogger()
	log.Error("rendergraph: no node with met dependencies", "nodes", len(g.nodes))
	for _, n := range unsorted {
		for _, in := range n.Base().inputs {
			names := make([]string, len(in.Producers))
			for i, p := range in.Producers {
				names[i] = p.Base().Name()
			}
			log.Info("rendergraph: unsorted node",
				"node", n.Base().Name(), "key", in.Key, "producers", names)
		}
	}
	for _, n := range sorted {
		log.Info("rendergraph: sorted node", "node", n.Base().Name())
	}
}

// Execute sorts the graph and runs every enabled node once. A failing
// node is logged and skipped; its error is returned joined with those of
// the other failing nodes after all nodes ran.
func (g *Graph) Execute() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.sort(); err != nil {
		return err
	}
	var errs []error
	for _, n := range g.nodes {
		b := n.Base()
		if !b.Enabled() {
			continue
		}
		if err := n.ExecuteRenderGraphNode(); err != nil {
			slogger().Error("rendergraph: node failed", "node", b.Name(), slog.Any("error", err))
			errs = append(errs, fmt.Errorf("rendergraph: node %q: %w", b.Name(), err))
		}
	}
	return errors.Join(errs...)
}
