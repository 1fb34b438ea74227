// Package bloom provides a bloom and tonemapping post-processing node for
// a render graph.
//
// # Overview
//
// A bloom node consumes the viewport texture of its producer, blurs it
// through a mip pyramid and writes a tonemapped result that downstream
// nodes consume under the same key. Each frame has two phases:
//
//   - Downsample: the input is filtered into level 1 of a downsample
//     accumulator, each level into the next, down to 1x1. The finest
//     passes use a binomial low-pass filter, the first one weighted to
//     suppress fireflies.
//   - Upsample: starting from the coarsest level, a tent filter blurs each
//     level into the next finer one of an upsample accumulator, mixed with
//     the downsample level of the same size. The pass writing level 0 mixes
//     in the input and tonemaps.
//
// An input of L levels costs 2*(L-1) full-screen draws.
//
// # Quick Start
//
//	pp, err := bloom.New(device, bloom.WithTonemapLuminanceMax(4))
//	if err != nil {
//	    return err
//	}
//	defer pp.Destroy()
//
//	g := rendergraph.New()
//	scene, _ := rendergraph.NewTextureNode("scene", device,
//	    rendergraph.KeyViewportTexture, gputypes.TextureFormatRGBA16Float)
//	_ = g.Register(scene)
//	node, _ := pp.CreateNode(g, "bloom")
//	_ = g.Connect(rendergraph.KeyViewportTexture, scene, node)
//
//	scene.SetViewport(1920, 1080)
//	if err := g.Execute(); err != nil {
//	    return err
//	}
//
// # Resources
//
// Resources depend only on the input size. They are rebuilt when it
// changes and released when the input becomes degenerate (a zero
// dimension); a degenerate input renders nothing. Per-level parameters
// live in one uniform buffer, one aligned record per level, selected with
// a dynamic offset.
//
// # Configuration
//
// Options can be given directly or loaded from a TOML or YAML file with
// LoadConfig. WithShaderDir and WithShaderHotReload load the WGSL sources
// from disk and rebuild the pipelines when they change; a source that
// fails to parse keeps the previous pipelines.
//
// # Logging
//
// bloom logs through log/slog and is silent by default. See SetLogger.
package bloom
