package bloom

import (
	"log/slog"

	"github.com/gogpu/bloom/internal/mip"
	"github.com/gogpu/gputypes"
)

// KernelConstants are the blend weight falloff constants. Levels 0 and 1
// use C0; coarser levels use 1 - C3*pow(l, C2), shifted so the largest
// weight is 1 - C1.
type KernelConstants = mip.KernelConstants

// DefaultKernelConstants returns {0.12, 0.05, -1, 2}.
func DefaultKernelConstants() KernelConstants { return mip.DefaultKernelConstants() }

// Option configures a PostProcessing during creation.
//
// Example:
//
//	pp, err := bloom.New(device,
//	    bloom.WithUpsampleRadius(1.5),
//	    bloom.WithTonemapLuminanceMax(4),
//	)
type Option func(*options)

// options holds the tunables shared by every node of a PostProcessing.
type options struct {
	upsampleRadius      float32
	tonemapLuminanceMax float32
	tonemapAlpha        float32
	lowpassCount        int
	kernel              mip.KernelConstants
	shaderDir           string
	hotReload           bool
	logger              *slog.Logger
	format              gputypes.TextureFormat
}

// defaultOptions returns the default post-processing options.
func defaultOptions() options {
	return options{
		upsampleRadius:      1.0,
		tonemapLuminanceMax: 1.0,
		tonemapAlpha:        1.0,
		lowpassCount:        2,
		kernel:              mip.DefaultKernelConstants(),
		format:              gputypes.TextureFormatRGBA16Float,
	}
}

// WithUpsampleRadius scales the upsample tent filter footprint, in source
// texels.
func WithUpsampleRadius(r float32) Option {
	return func(o *options) {
		o.upsampleRadius = r
	}
}

// WithTonemapLuminanceMax sets the luminance the final pass maps to white.
func WithTonemapLuminanceMax(l float32) Option {
	return func(o *options) {
		o.tonemapLuminanceMax = l
	}
}

// WithTonemapAlpha sets the alpha written by the final pass.
func WithTonemapAlpha(a float32) Option {
	return func(o *options) {
		o.tonemapAlpha = a
	}
}

// WithLowpassCount sets how many of the finest downsample passes use the
// binomial low-pass filter instead of a box filter. The pass reading the
// input always does.
func WithLowpassCount(n int) Option {
	return func(o *options) {
		o.lowpassCount = n
	}
}

// WithKernelConstants replaces the blend weight falloff constants.
func WithKernelConstants(k KernelConstants) Option {
	return func(o *options) {
		o.kernel = k
	}
}

// WithShaderDir loads WGSL sources from dir instead of the embedded ones.
// Files missing from dir fall back to the embedded sources.
func WithShaderDir(dir string) Option {
	return func(o *options) {
		o.shaderDir = dir
	}
}

// WithShaderHotReload watches the shader directory and rebuilds the
// pipelines when a source changes. It has no effect without WithShaderDir.
func WithShaderHotReload(enabled bool) Option {
	return func(o *options) {
		o.hotReload = enabled
	}
}

// WithLogger sets the logger of one PostProcessing and its nodes. Without
// it the package logger set by SetLogger is used.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithTargetFormat sets the format of the accumulator textures and of the
// pipeline render targets. It must be rgba16float, rgba8unorm or
// bgra8unorm: the passes sample every level with a filtering sampler.
func WithTargetFormat(f gputypes.TextureFormat) Option {
	return func(o *options) {
		o.format = f
	}
}
