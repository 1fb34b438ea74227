// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package mip plans the mip chain of the bloom pyramid and derives the
// per-level blend weights and sampling kernels used by its passes.
package mip

// MaxLevels is the number of levels the per-level parameter storage is sized
// for. 2^20 exceeds any render target dimension a GPU accepts.
const MaxLevels = 20

// Level describes one level of the pyramid.
type Level struct {
	Index  int
	Width  int
	Height int
}

// Plan is the level geometry computed for one input resolution.
//
// Level 0 is the input resolution; every following level halves each
// dimension (truncating, clamped to 1) until a 1x1 level is reached.
type Plan struct {
	Widths  []int
	Heights []int

	// DownsampleSources lists source levels ascending. The target of source s
	// is s+1.
	DownsampleSources []int

	// UpsampleSources lists source levels descending. The target of source s
	// is s-1.
	UpsampleSources []int
}

// ComputeLevels computes the mip chain for an input of width x height.
// It returns false, and an empty plan, if either dimension is below 1.
func ComputeLevels(width, height int) (Plan, bool) {
	if width < 1 || height < 1 {
		return Plan{}, false
	}

	var p Plan
	w, h := width, height
	for {
		p.Widths = append(p.Widths, w)
		p.Heights = append(p.Heights, h)
		if w == 1 && h == 1 {
			break
		}
		w = max(1, w/2)
		h = max(1, h/2)
	}

	n := len(p.Widths)
	p.DownsampleSources = make([]int, 0, n-1)
	for s := 0; s < n-1; s++ {
		p.DownsampleSources = append(p.DownsampleSources, s)
	}
	p.UpsampleSources = make([]int, 0, n-1)
	for s := n - 1; s > 0; s-- {
		p.UpsampleSources = append(p.UpsampleSources, s)
	}
	return p, true
}

// Levels returns the number of levels in the plan.
func (p Plan) Levels() int { return len(p.Widths) }

// Level returns the descriptor of level i.
func (p Plan) Level(i int) Level {
	return Level{Index: i, Width: p.Widths[i], Height: p.Heights[i]}
}

// Empty reports whether the plan has no levels.
func (p Plan) Empty() bool { return len(p.Widths) == 0 }

// Equal reports whether two plans describe the same geometry.
func (p Plan) Equal(o Plan) bool {
	if len(p.Widths) != len(o.Widths) {
		return false
	}
	for i := range p.Widths {
		if p.Widths[i] != o.Widths[i] || p.Heights[i] != o.Heights[i] {
			return false
		}
	}
	return true
}

// Draws returns the number of full-screen draws one frame issues for this
// plan: one per downsample source and one per upsample source.
func (p Plan) Draws() int {
	return len(p.DownsampleSources) + len(p.UpsampleSources)
}
