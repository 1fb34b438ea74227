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
)

// Binding numbers of the pass bind group.
const (
	bindingParams = iota
	bindingLinearSampler
	bindingNearestMipSampler
	bindingSource
	bindingDetail
)

// PostProcessing owns the GPU state shared by all bloom nodes: the bind
// group layout, the samplers and one pipeline per pass variant.
//
// PostProcessing and its nodes are not safe for concurrent use. They are
// driven from the goroutine executing the render graph.
type PostProcessing struct {
	device *render.Device
	opts   options

	layout     *render.BindingLayout
	linear     *render.Sampler
	nearestMip *render.Sampler
	lowpass    mip.Kernel
	params     params.Layout
	pipelines  [shader.VariantCount]*render.Pipeline
	monitor    *shader.Monitor

	nodes []*Node
}

// New creates the shared bloom state on device.
func New(device *render.Device, opts ...Option) (*PostProcessing, error) {
	if device == nil {
		return nil, ErrNoDevice
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	p := &PostProcessing{
		device: device,
		opts:   o,
		params: params.NewLayout(device.BufferAlignment()),
	}
	if err := p.init(); err != nil {
		p.Destroy()
		return nil, err
	}
	p.logger().Info("bloom: post-processing created",
		"stride", p.params.Stride,
		"alignment", p.params.Alignment,
		"format", o.format.String())
	return p, nil
}

func (p *PostProcessing) init() error {
	var err error
	p.lowpass, err = shader.LowpassKernel()
	if err != nil {
		return fmt.Errorf("bloom: lowpass kernel: %w", err)
	}

	fragment := gputypes.ShaderStageFragment
	p.layout, err = p.device.CreateBindingLayout("bloom", []gputypes.BindGroupLayoutEntry{
		{
			Binding:    bindingParams,
			Visibility: fragment,
			Buffer: &gputypes.BufferBindingLayout{
				Type:             gputypes.BufferBindingTypeUniform,
				HasDynamicOffset: true,
				MinBindingSize:   params.RecordSize,
			},
		},
		{Binding: bindingLinearSampler, Visibility: fragment, Sampler: &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering}},
		{Binding: bindingNearestMipSampler, Visibility: fragment, Sampler: &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering}},
		{Binding: bindingSource, Visibility: fragment, Texture: &gputypes.TextureBindingLayout{SampleType: gputypes.TextureSampleTypeFloat, ViewDimension: gputypes.TextureViewDimension2D}},
		{Binding: bindingDetail, Visibility: fragment, Texture: &gputypes.TextureBindingLayout{SampleType: gputypes.TextureSampleTypeFloat, ViewDimension: gputypes.TextureViewDimension2D}},
	})
	if err != nil {
		return err
	}

	p.linear, err = p.device.CreateSampler(render.SamplerDescriptor{
		Label:        "bloom linear",
		MinFilter:    gputypes.FilterModeLinear,
		MagFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		return err
	}
	p.nearestMip, err = p.device.CreateSampler(render.SamplerDescriptor{
		Label:        "bloom linear mipmap nearest",
		MinFilter:    gputypes.FilterModeLinear,
		MagFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		return err
	}

	lib := shader.Embedded()
	if p.opts.shaderDir != "" {
		if lib, err = shader.LoadDir(p.opts.shaderDir); err != nil {
			return err
		}
		if p.opts.hotReload {
			if p.monitor, err = shader.NewMonitor(p.opts.shaderDir); err != nil {
				return err
			}
		}
	}
	p.pipelines, err = p.createPipelines(lib)
	return err
}

func (p *PostProcessing) logger() *slog.Logger {
	if p.opts.logger != nil {
		return p.opts.logger
	}
	return Logger()
}

func (p *PostProcessing) createPipelines(lib shader.Library) ([shader.VariantCount]*render.Pipeline, error) {
	var out [shader.VariantCount]*render.Pipeline
	for v := range shader.Variant(shader.VariantCount) {
		pl, err := p.device.CreatePipeline(render.PipelineDescriptor{
			Label:         "bloom " + v.String(),
			Layout:        p.layout,
			Source:        render.ShaderSource{WGSL: lib.Source(v, p.lowpass)},
			VertexEntry:   shader.VertexEntry,
			FragmentEntry: shader.FragmentEntry,
			TargetFormat:  p.opts.format,
		})
		if err != nil {
			p.destroyPipelines(&out)
			return out, err
		}
		out[v] = pl
	}
	return out, nil
}

func (p *PostProcessing) destroyPipelines(pipelines *[shader.VariantCount]*render.Pipeline) {
	for i, pl := range pipelines {
		p.device.DestroyPipeline(pl)
		pipelines[i] = nil
	}
}

// reloadShaders rebuilds the pipelines when the watched shader directory
// changed. On any failure the previous pipelines stay in use.
func (p *PostProcessing) reloadShaders() {
	if p.monitor == nil || !p.monitor.Changed() {
		return
	}
	log := p.logger()
	lib, err := shader.LoadDir(p.opts.shaderDir)
	if err == nil {
		for v := range shader.Variant(shader.VariantCount) {
			if err = shader.Validate(lib.Source(v, p.lowpass)); err != nil {
				err = fmt.Errorf("%s: %w", v, err)
				break
			}
		}
	}
	var pipelines [shader.VariantCount]*render.Pipeline
	if err == nil {
		pipelines, err = p.createPipelines(lib)
	}
	if err != nil {
		log.Warn("bloom: shader reload failed, keeping previous pipelines",
			"dir", p.opts.shaderDir, "error", err)
		return
	}
	p.destroyPipelines(&p.pipelines)
	p.pipelines = pipelines
	log.Info("bloom: shaders reloaded", "dir", p.opts.shaderDir)
}

// CreateNode creates a bloom node and registers it with g. A nil g
// leaves registration to the caller.
func (p *PostProcessing) CreateNode(g *rendergraph.Graph, name string) (*Node, error) {
	n, err := newNode(p, name)
	if err != nil {
		return nil, err
	}
	if g != nil {
		if err := g.Register(n); err != nil {
			n.destroy()
			return nil, err
		}
		n.graph = g
	}
	p.nodes = append(p.nodes, n)
	return n, nil
}

// Nodes returns the nodes created by p.
func (p *PostProcessing) Nodes() []*Node {
	return slices.Clone(p.nodes)
}

// RemoveNode unregisters n from its graph and releases its resources.
func (p *PostProcessing) RemoveNode(n *Node) error {
	i := slices.Index(p.nodes, n)
	if i < 0 {
		return ErrNodeNotOwned
	}
	p.nodes = slices.Delete(p.nodes, i, i+1)
	var err error
	if n.graph != nil {
		err = n.graph.Unregister(n)
		n.graph = nil
	}
	n.destroy()
	return err
}

// Destroy removes every node and releases the shared state.
func (p *PostProcessing) Destroy() {
	for len(p.nodes) > 0 {
		if err := p.RemoveNode(p.nodes[len(p.nodes)-1]); err != nil {
			p.logger().Warn("bloom: remove node", "error", err)
		}
	}
	if p.monitor != nil {
		if err := p.monitor.Close(); err != nil {
			p.logger().Warn("bloom: close shader monitor", "error", err)
		}
		p.monitor = nil
	}
	p.destroyPipelines(&p.pipelines)
	p.device.DestroySampler(p.nearestMip)
	p.device.DestroySampler(p.linear)
	p.device.DestroyBindingLayout(p.layout)
	p.nearestMip, p.linear, p.layout = nil, nil, nil
}

// PostProcess records and submits the pass sequence of n: the downsample
// chain from the input, then the upsample chain back to level 0. It does
// nothing when n is disabled or has no resources.
func (p *PostProcessing) PostProcess(n *Node) error {
	if n.pp != p {
		return ErrNodeNotOwned
	}
	if !n.Enabled() || !n.Valid() {
		return nil
	}
	p.reloadShaders()

	start := time.Now()
	enc, err := p.device.BeginCommands(n.Name())
	if err != nil {
		return err
	}
	for _, step := range n.sequence {
		target := n.plan.Level(step.Target)
		verify(step.pass.Width() == uint32(target.Width) && step.pass.Height() == uint32(target.Height),
			"node %q: %s pass into level %d is %dx%d, plan says %dx%d",
			n.Name(), step.Variant, step.Target, step.pass.Width(), step.pass.Height(), target.Width, target.Height)

		rp := enc.BeginRenderPass(step.pass)
		rp.SetPipeline(p.pipelines[step.Variant])
		rp.SetBindGroup(step.group, step.Offset)
		rp.Draw(3)
		rp.End()
	}
	if err := enc.Submit(); err != nil {
		return err
	}
	n.last = FrameStats{Draws: len(n.sequence), Duration: time.Since(start)}
	p.logger().Debug("bloom: post-processed",
		"node", n.Name(), "levels", n.plan.Levels(), "draws", n.last.Draws)
	return nil
}
