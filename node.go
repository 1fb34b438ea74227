package bloom

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/gogpu/bloom/internal/mip"
	"github.com/gogpu/bloom/internal/params"
	"github.com/gogpu/bloom/internal/shader"
	"github.com/gogpu/bloom/render"
	"github.com/gogpu/bloom/rendergraph"
	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"
)

// ToolbarLabel is the label a node passes to its viewport toolbar hook.
const ToolbarLabel = "Post Processing"

// Heap slots of the textures a node exposes to its shaders.
const (
	slotInput = iota
	slotDownsample
	slotUpsample
	slotCount
)

// SizeStatus is the outcome of Node.UpdateSize.
type SizeStatus int

const (
	// SizeUnchanged means the input size is the one the resources were
	// built for, or there is no input.
	SizeUnchanged SizeStatus = iota

	// SizeChangedInvalid means the size changed and no resources exist
	// for it: the input is degenerate or allocation failed.
	SizeChangedInvalid

	// SizeChangedValid means the resources were rebuilt for a new size.
	SizeChangedValid
)

func (s SizeStatus) String() string {
	switch s {
	case SizeUnchanged:
		return "unchanged"
	case SizeChangedInvalid:
		return "changed (invalid)"
	case SizeChangedValid:
		return "changed (valid)"
	default:
		return fmt.Sprintf("SizeStatus(%d)", int(s))
	}
}

// Phase is the half of the pyramid a pass belongs to.
type Phase int

const (
	// PhaseDownsample passes filter a level into the next coarser one.
	PhaseDownsample Phase = iota

	// PhaseUpsample passes blur a level into the next finer one.
	PhaseUpsample
)

func (p Phase) String() string {
	if p == PhaseDownsample {
		return "downsample"
	}
	return "upsample"
}

// Variant identifies the pipeline a pass runs.
type Variant = shader.Variant

// PassStep is one full-screen draw of a frame.
type PassStep struct {
	Phase   Phase
	Variant Variant

	// Source is the level read. It also selects the parameter record.
	Source int
	Target int

	// Reads holds the source and detail views bound to the pass.
	Reads []*render.TextureView
	Write *render.TextureView

	// Offset is the dynamic offset of the parameter record.
	Offset uint32

	pass  *render.RenderPass
	group *render.BindGroup
}

// FrameStats describes the last frame a node recorded.
type FrameStats struct {
	Draws    int
	Duration time.Duration
}

// accumulator is a mip-mapped texture with one render pass and one bind
// group per level.
type accumulator struct {
	texture *render.Texture
	all     *render.TextureView
	views   [mip.MaxLevels]*render.TextureView
	passes  [mip.MaxLevels]*render.RenderPass
	groups  [mip.MaxLevels]*render.BindGroup
}

// Node is a render graph node that blurs its viewport input through a
// downsample and upsample pyramid and tonemaps the result.
//
// The node consumes and produces rendergraph.KeyViewportTexture. Its output
// is level 0 of the upsample accumulator.
type Node struct {
	rendergraph.NodeBase

	pp    *PostProcessing
	graph *rendergraph.Graph

	buffer *render.Buffer
	writer *params.Writer
	heap   *render.TextureHeap

	width, height int
	sized         bool
	plan          mip.Plan
	weights       []float32

	downsample accumulator
	upsample   accumulator
	bound      *render.TextureView
	sequence   []PassStep

	last FrameStats
}

var _ rendergraph.Node = (*Node)(nil)

func newNode(p *PostProcessing, name string) (*Node, error) {
	n := &Node{
		NodeBase: rendergraph.NewNodeBase(name),
		pp:       p,
		heap:     render.NewTextureHeap(slotCount),
	}
	if err := n.RegisterInput("input", rendergraph.KeyViewportTexture); err != nil {
		return nil, err
	}
	if err := n.RegisterOutput("output", rendergraph.KeyViewportTexture); err != nil {
		return nil, err
	}
	buf, err := p.device.CreateUniformBuffer(name+" parameters", p.params.Capacity(mip.MaxLevels))
	if err != nil {
		return nil, fmt.Errorf("bloom: node %q: %w", name, err)
	}
	n.buffer = buf
	n.writer = params.NewWriter(p.params, buf.Bytes())
	return n, nil
}

func (n *Node) log() *slog.Logger { return n.pp.logger() }

func (n *Node) device() *render.Device { return n.pp.device }

// Base implements rendergraph.Node.
func (n *Node) Base() *rendergraph.NodeBase { return &n.NodeBase }

// ProducerOutputTexture implements rendergraph.Node. It returns level 0 of
// the upsample accumulator, or nil before the first valid resize.
func (n *Node) ProducerOutputTexture(key rendergraph.Key) *render.TextureView {
	if key != rendergraph.KeyViewportTexture && key != rendergraph.KeyWildcard {
		return nil
	}
	return n.upsample.views[0]
}

// ExecuteRenderGraphNode implements rendergraph.Node: it resizes, writes
// the parameters and records the frame.
func (n *Node) ExecuteRenderGraphNode() error {
	if _, err := n.UpdateSize(); err != nil {
		return err
	}
	if !n.Valid() || n.ConsumerInputTexture(rendergraph.KeyViewportTexture) == nil {
		return nil
	}
	if err := n.UpdateParameters(); err != nil {
		return err
	}
	return n.pp.PostProcess(n)
}

// Valid reports whether the node holds resources for its current input.
func (n *Node) Valid() bool {
	return !n.plan.Empty() && n.upsample.texture != nil
}

// Levels returns the number of pyramid levels, 0 when the node is invalid.
func (n *Node) Levels() int { return n.plan.Levels() }

// LevelSize returns the size of level i.
func (n *Node) LevelSize(i int) (width, height int) {
	l := n.plan.Level(i)
	return l.Width, l.Height
}

// Weights returns the blend weight of each level.
func (n *Node) Weights() []float32 { return slices.Clone(n.weights) }

// PassSequence returns the draws one frame records, in order.
func (n *Node) PassSequence() []PassStep { return slices.Clone(n.sequence) }

// LastFrame returns statistics of the last recorded frame.
func (n *Node) LastFrame() FrameStats { return n.last }

// ViewportToolbar offers the node's enabled state to a toolbar. toggle
// receives the label and the current state and returns the new state.
func (n *Node) ViewportToolbar(toggle func(label string, enabled bool) bool) {
	was := n.Enabled()
	now := toggle(ToolbarLabel, was)
	if now != was {
		n.SetEnabled(now)
		n.log().Info("bloom: toggled", "node", n.Name(), "enabled", now)
	}
}

// UpdateSize compares the input size with the size the resources were
// built for and rebuilds them when it changed. A size needing more than
// mip.MaxLevels levels fails with ErrTooManyLevels.
//
// A connected producer that stops providing a texture after earlier
// frames had one is treated as a 0x0 input.
func (n *Node) UpdateSize() (SizeStatus, error) {
	in := n.ConsumerInputTexture(rendergraph.KeyViewportTexture)
	var w, h int
	switch {
	case in != nil:
		w, h = int(in.Width()), int(in.Height())
	case n.sized && n.ConsumerInputNode(rendergraph.KeyViewportTexture) != nil:
		// The producer lost its texture: a 0x0 input.
	default:
		n.log().Debug("bloom: no input", "node", n.Name())
		return SizeUnchanged, nil
	}
	if n.sized && w == n.width && h == n.height {
		return SizeUnchanged, nil
	}

	n.release()
	n.width, n.height, n.sized = w, h, true

	plan, ok := mip.ComputeLevels(w, h)
	if !ok {
		n.log().Debug("bloom: degenerate input", "node", n.Name(), "width", w, "height", h)
		return SizeChangedInvalid, nil
	}
	if plan.Levels() > mip.MaxLevels {
		return SizeChangedInvalid, fmt.Errorf("bloom: node %q: %dx%d needs %d levels, max %d: %w",
			n.Name(), w, h, plan.Levels(), mip.MaxLevels, ErrTooManyLevels)
	}
	if err := n.allocate(plan); err != nil {
		n.release()
		n.sized = false
		return SizeChangedInvalid, fmt.Errorf("bloom: node %q: %w", n.Name(), err)
	}
	n.plan = plan
	n.weights = mip.ComputeWeights(plan.Levels(), n.pp.opts.kernel)
	if err := n.bind(in); err != nil {
		n.release()
		n.sized = false
		return SizeChangedInvalid, fmt.Errorf("bloom: node %q: %w", n.Name(), err)
	}
	n.log().Info("bloom: resized",
		"node", n.Name(), "width", w, "height", h, "levels", plan.Levels())

	if err := n.UpdateParameters(); err != nil {
		return SizeChangedValid, err
	}
	return SizeChangedValid, nil
}

// allocate creates both accumulators with a full mip chain and a render
// pass per level.
func (n *Node) allocate(plan mip.Plan) error {
	d := n.device()
	levels := uint32(plan.Levels())
	for _, a := range []struct {
		name string
		acc  *accumulator
	}{
		{"downsample", &n.downsample},
		{"upsample", &n.upsample},
	} {
		label := n.Name() + " " + a.name
		tex, err := d.CreateTexture(render.TextureDescriptor{
			Label:         label,
			Width:         uint32(plan.Widths[0]),
			Height:        uint32(plan.Heights[0]),
			MipLevelCount: levels,
			Format:        n.pp.opts.format,
			Usage:         render.TextureUsageTextureBinding | render.TextureUsageRenderAttachment,
		})
		if err != nil {
			return err
		}
		a.acc.texture = tex
		if a.acc.all, err = d.CreateView(tex, render.ViewDescriptor{Label: label}); err != nil {
			return err
		}
		for l := range levels {
			levelLabel := fmt.Sprintf("%s level %d", label, l)
			v, err := d.CreateView(tex, render.ViewDescriptor{
				Label:         levelLabel,
				BaseMipLevel:  l,
				MipLevelCount: 1,
			})
			if err != nil {
				return err
			}
			a.acc.views[l] = v
			want := plan.Level(int(l))
			verify(int(v.Width()) == want.Width && int(v.Height()) == want.Height,
				"%s is %dx%d, plan says %dx%d", levelLabel, v.Width(), v.Height(), want.Width, want.Height)

			p, err := d.CreateRenderPass(render.RenderPassDescriptor{Label: levelLabel, Target: v})
			if err != nil {
				return err
			}
			a.acc.passes[l] = p
		}
	}
	return nil
}

// bind creates the bind group of every pass for input in and rebuilds the
// pass sequence.
func (n *Node) bind(in *render.TextureView) error {
	n.releaseGroups()
	levels := n.plan.Levels()
	seq := make([]PassStep, 0, n.plan.Draws())

	for _, s := range n.plan.DownsampleSources {
		src := in
		if s > 0 {
			src = n.downsample.views[s]
		}
		g, err := n.createGroup(fmt.Sprintf("%s downsample %d", n.Name(), s), src, in)
		if err != nil {
			return err
		}
		n.downsample.groups[s] = g
		seq = append(seq, PassStep{
			Phase:   PhaseDownsample,
			Variant: shader.DownsampleVariant(s, n.pp.opts.lowpassCount),
			Source:  s,
			Target:  s + 1,
			Reads:   []*render.TextureView{src, in},
			Write:   n.downsample.views[s+1],
			Offset:  uint32(n.pp.params.Offset(s)),
			pass:    n.downsample.passes[s+1],
			group:   g,
		})
	}

	for _, s := range n.plan.UpsampleSources {
		src := n.upsample.views[s]
		if s == levels-1 {
			src = n.downsample.views[s]
		}
		detail := in
		if s-1 > 0 {
			detail = n.downsample.views[s-1]
		}
		g, err := n.createGroup(fmt.Sprintf("%s upsample %d", n.Name(), s), src, detail)
		if err != nil {
			return err
		}
		n.upsample.groups[s] = g
		seq = append(seq, PassStep{
			Phase:   PhaseUpsample,
			Variant: shader.UpsampleVariant(s, levels),
			Source:  s,
			Target:  s - 1,
			Reads:   []*render.TextureView{src, detail},
			Write:   n.upsample.views[s-1],
			Offset:  uint32(n.pp.params.Offset(s)),
			pass:    n.upsample.passes[s-1],
			group:   g,
		})
	}

	n.sequence = seq
	n.bound = in
	return nil
}

func (n *Node) createGroup(label string, source, detail *render.TextureView) (*render.BindGroup, error) {
	return n.device().CreateBindGroup(label, n.pp.layout, []gputypes.BindGroupEntry{
		render.BufferEntry(bindingParams, n.buffer, params.RecordSize),
		render.SamplerEntry(bindingLinearSampler, n.pp.linear),
		render.SamplerEntry(bindingNearestMipSampler, n.pp.nearestMip),
		render.ViewEntry(bindingSource, source),
		render.ViewEntry(bindingDetail, detail),
	})
}

// UpdateParameters writes one parameter record per level and flushes
// them. It panics if the node has no input. A node without resources
// writes nothing.
func (n *Node) UpdateParameters() error {
	in := n.ConsumerInputTexture(rendergraph.KeyViewportTexture)
	verify(in != nil, "node %q: update parameters: %v", n.Name(), ErrNoInput)
	if !n.Valid() {
		return nil
	}
	if in != n.bound {
		if err := n.bind(in); err != nil {
			return fmt.Errorf("bloom: node %q: %w", n.Name(), err)
		}
	}

	n.heap.Reset()
	inputHandle, err := n.heap.Assign(slotInput, in, n.pp.linear)
	if err != nil {
		return err
	}
	downHandle, err := n.heap.Assign(slotDownsample, n.downsample.all, n.pp.nearestMip)
	if err != nil {
		return err
	}
	upHandle, err := n.heap.Assign(slotUpsample, n.upsample.all, n.pp.nearestMip)
	if err != nil {
		return err
	}

	o := &n.pp.opts
	levels := n.plan.Levels()
	n.writer.Reset()
	for i := range levels {
		l := n.plan.Level(i)
		n.writer.Write(i, &params.Record{
			InputTexture:        params.Handle(inputHandle),
			DownsampleTexture:   params.Handle(downHandle),
			UpsampleTexture:     params.Handle(upHandle),
			TexelScale:          f32.Vec2{1 / float32(l.Width), 1 / float32(l.Height)},
			SourceLOD:           float32(i),
			LevelCount:          float32(levels),
			UpsampleRadius:      o.upsampleRadius,
			MixWeight:           n.weights[i],
			TonemapLuminanceMax: o.tonemapLuminanceMax,
			TonemapAlpha:        o.tonemapAlpha,
		})
	}
	size := n.writer.Written()
	verify(size == n.pp.params.Capacity(levels), "node %q: wrote %d parameter bytes for %d levels", n.Name(), size, levels)
	if err := n.device().Flush(n.buffer, 0, size); err != nil {
		return fmt.Errorf("bloom: node %q: %w", n.Name(), err)
	}
	n.log().Debug("bloom: parameters flushed", "node", n.Name(), "levels", levels, "bytes", size)
	return nil
}

func (n *Node) releaseGroups() {
	d := n.device()
	for i := range mip.MaxLevels {
		d.DestroyBindGroup(n.downsample.groups[i])
		d.DestroyBindGroup(n.upsample.groups[i])
		n.downsample.groups[i], n.upsample.groups[i] = nil, nil
	}
	n.sequence = nil
	n.bound = nil
}

// release destroys the size-dependent resources.
func (n *Node) release() {
	n.releaseGroups()
	d := n.device()
	for _, acc := range []*accumulator{&n.downsample, &n.upsample} {
		for i := range mip.MaxLevels {
			d.DestroyRenderPass(acc.passes[i])
			d.DestroyView(acc.views[i])
		}
		d.DestroyView(acc.all)
		d.DestroyTexture(acc.texture)
		*acc = accumulator{}
	}
	n.heap.Reset()
	n.plan = mip.Plan{}
	n.weights = nil
}

// destroy releases every resource of the node, including its parameter
// buffer.
func (n *Node) destroy() {
	n.release()
	n.device().DestroyBuffer(n.buffer)
	n.buffer = nil
	n.sized = false
}
