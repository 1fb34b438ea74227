package bloom

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/bloom/internal/mip"
	"github.com/gogpu/gputypes"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config is the file form of the post-processing options.
//
// A TOML file looks like:
//
//	upsample_radius = 1.5
//	tonemap_luminance_max = 4.0
//	lowpass_count = 2
//	format = "rgba16float"
//
//	[kernel]
//	c0 = 0.12
//	c1 = 0.05
//	c2 = -1.0
//	c3 = 2.0
type Config struct {
	UpsampleRadius      float32      `toml:"upsample_radius" yaml:"upsample_radius"`
	TonemapLuminanceMax float32      `toml:"tonemap_luminance_max" yaml:"tonemap_luminance_max"`
	TonemapAlpha        float32      `toml:"tonemap_alpha" yaml:"tonemap_alpha"`
	LowpassCount        int          `toml:"lowpass_count" yaml:"lowpass_count"`
	Kernel              KernelConfig `toml:"kernel" yaml:"kernel"`
	ShaderDir           string       `toml:"shader_dir" yaml:"shader_dir"`
	HotReload           bool         `toml:"hot_reload" yaml:"hot_reload"`

	// Format names the accumulator format: rgba16float, rgba8unorm or
	// bgra8unorm.
	Format string `toml:"format" yaml:"format"`
}

// KernelConfig holds the blend weight falloff constants.
type KernelConfig struct {
	C0 float32 `toml:"c0" yaml:"c0"`
	C1 float32 `toml:"c1" yaml:"c1"`
	C2 float32 `toml:"c2" yaml:"c2"`
	C3 float32 `toml:"c3" yaml:"c3"`
}

// formats are the accumulator formats every device can both filter and
// render to.
var formats = map[string]gputypes.TextureFormat{
	"rgba16float": gputypes.TextureFormatRGBA16Float,
	"rgba8unorm":  gputypes.TextureFormatRGBA8Unorm,
	"bgra8unorm":  gputypes.TextureFormatBGRA8Unorm,
}

func supportedFormat(f gputypes.TextureFormat) bool {
	for _, g := range formats {
		if g == f {
			return true
		}
	}
	return false
}

// DefaultConfig returns the configuration matching the default options.
func DefaultConfig() Config {
	o := defaultOptions()
	return Config{
		UpsampleRadius:      o.upsampleRadius,
		TonemapLuminanceMax: o.tonemapLuminanceMax,
		TonemapAlpha:        o.tonemapAlpha,
		LowpassCount:        o.lowpassCount,
		Kernel: KernelConfig{
			C0: o.kernel.C0,
			C1: o.kernel.C1,
			C2: o.kernel.C2,
			C3: o.kernel.C3,
		},
		Format: "rgba16float",
	}
}

// LoadConfig reads a TOML (.toml) or YAML (.yaml, .yml) file. Keys absent
// from the file keep their DefaultConfig values. The result is validated.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("bloom: load config: %w", err)
	}
	cfg := DefaultConfig()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return Config{}, fmt.Errorf("%w: unknown config file type %q", ErrInvalidConfig, ext)
	}
	if err != nil {
		return Config{}, fmt.Errorf("bloom: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first out-of-range value.
func (c Config) Validate() error {
	if _, ok := formats[strings.ToLower(c.Format)]; !ok {
		return fmt.Errorf("%w: unknown format %q", ErrInvalidConfig, c.Format)
	}
	o := defaultOptions()
	for _, opt := range c.Options() {
		opt(&o)
	}
	return o.validate()
}

// Options converts c to options for New. Call Validate first: an unknown
// format is skipped.
func (c Config) Options() []Option {
	opts := []Option{
		WithUpsampleRadius(c.UpsampleRadius),
		WithTonemapLuminanceMax(c.TonemapLuminanceMax),
		WithTonemapAlpha(c.TonemapAlpha),
		WithLowpassCount(c.LowpassCount),
		WithKernelConstants(mip.KernelConstants{
			C0: c.Kernel.C0,
			C1: c.Kernel.C1,
			C2: c.Kernel.C2,
			C3: c.Kernel.C3,
		}),
	}
	if c.ShaderDir != "" {
		opts = append(opts, WithShaderDir(c.ShaderDir), WithShaderHotReload(c.HotReload))
	}
	if f, ok := formats[strings.ToLower(c.Format)]; ok {
		opts = append(opts, WithTargetFormat(f))
	}
	return opts
}

func (o *options) validate() error {
	finite := func(v float32) bool {
		return !math.IsNaN(float64(v)) && !math.IsInf(float64(v), 0)
	}
	switch {
	case !finite(o.upsampleRadius) || o.upsampleRadius <= 0:
		return fmt.Errorf("%w: upsample radius %v must be positive", ErrInvalidConfig, o.upsampleRadius)
	case !finite(o.tonemapLuminanceMax) || o.tonemapLuminanceMax <= 0:
		return fmt.Errorf("%w: tonemap luminance max %v must be positive", ErrInvalidConfig, o.tonemapLuminanceMax)
	case !finite(o.tonemapAlpha) || o.tonemapAlpha < 0 || o.tonemapAlpha > 1:
		return fmt.Errorf("%w: tonemap alpha %v outside [0, 1]", ErrInvalidConfig, o.tonemapAlpha)
	case o.lowpassCount < 0 || o.lowpassCount > mip.MaxLevels:
		return fmt.Errorf("%w: lowpass count %d outside [0, %d]", ErrInvalidConfig, o.lowpassCount, mip.MaxLevels)
	case !supportedFormat(o.format):
		return fmt.Errorf("%w: target format %v is not a filterable render target", ErrInvalidConfig, o.format)
	}
	return nil
}
