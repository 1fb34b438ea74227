package bloom

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/gputypes"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"toml", "bloom.toml", `
upsample_radius = 1.5
tonemap_luminance_max = 4.0
lowpass_count = 3
format = "rgba8unorm"

[kernel]
c0 = 0.2
`},
		{"yaml", "bloom.yaml", `
upsample_radius: 1.5
tonemap_luminance_max: 4.0
lowpass_count: 3
format: rgba8unorm
kernel:
  c0: 0.2
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(writeConfig(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("LoadConfig() = %v", err)
			}
			if cfg.UpsampleRadius != 1.5 || cfg.TonemapLuminanceMax != 4 || cfg.LowpassCount != 3 {
				t.Errorf("cfg = %+v", cfg)
			}
			// Absent keys keep their defaults.
			def := DefaultConfig()
			if cfg.TonemapAlpha != def.TonemapAlpha || cfg.Kernel.C3 != def.Kernel.C3 {
				t.Errorf("defaults lost: alpha %v, c3 %v", cfg.TonemapAlpha, cfg.Kernel.C3)
			}
			if cfg.Kernel.C0 != 0.2 {
				t.Errorf("kernel c0 = %v, want 0.2", cfg.Kernel.C0)
			}

			o := defaultOptions()
			for _, opt := range cfg.Options() {
				opt(&o)
			}
			if o.format != gputypes.TextureFormatRGBA8Unorm || o.upsampleRadius != 1.5 || o.lowpassCount != 3 {
				t.Errorf("options = %+v", o)
			}
		})
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		invalid bool
	}{
		{"unknown extension", "bloom.json", `{}`, true},
		{"bad toml", "bloom.toml", `upsample_radius = `, false},
		{"bad yaml", "bloom.yml", "upsample_radius: [1", false},
		{"alpha out of range", "bloom.toml", `tonemap_alpha = 2.0`, true},
		{"unknown format", "bloom.yaml", `format: r8unorm`, true},
		{"unfilterable format", "bloom.toml", `format = "rgba32float"`, true},
		{"optional render target", "bloom.yaml", `format: rg11b10ufloat`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.file, tt.content))
			if err == nil {
				t.Fatal("LoadConfig() succeeded")
			}
			if got := errors.Is(err, ErrInvalidConfig); got != tt.invalid {
				t.Errorf("errors.Is(%v, ErrInvalidConfig) = %v, want %v", err, got, tt.invalid)
			}
		})
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want os.ErrNotExist", err)
	}
}

func TestDefaultConfigMatchesOptions(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
	o := defaultOptions()
	for _, opt := range cfg.Options() {
		opt(&o)
	}
	if o != defaultOptions() {
		t.Errorf("DefaultConfig options = %+v, want %+v", o, defaultOptions())
	}
}

func TestConfigShaderDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HotReload = true
	o := defaultOptions()
	for _, opt := range cfg.Options() {
		opt(&o)
	}
	if o.hotReload {
		t.Error("hot reload enabled without a shader directory")
	}

	cfg.ShaderDir = "shaders"
	o = defaultOptions()
	for _, opt := range cfg.Options() {
		opt(&o)
	}
	if o.shaderDir != "shaders" || !o.hotReload {
		t.Errorf("shaderDir = %q, hotReload = %v", o.shaderDir, o.hotReload)
	}
}
