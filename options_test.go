package bloom

import (
	"errors"
	"math"
	"testing"

	"github.com/gogpu/gputypes"
)

// TestDefaultOptions tests the documented defaults.
func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if o.upsampleRadius != 1 || o.tonemapLuminanceMax != 1 || o.tonemapAlpha != 1 {
		t.Errorf("tunables = %v, %v, %v; want 1, 1, 1", o.upsampleRadius, o.tonemapLuminanceMax, o.tonemapAlpha)
	}
	if o.lowpassCount != 2 {
		t.Errorf("lowpassCount = %d, want 2", o.lowpassCount)
	}
	if o.kernel != DefaultKernelConstants() {
		t.Errorf("kernel = %+v, want %+v", o.kernel, DefaultKernelConstants())
	}
	if o.format != gputypes.TextureFormatRGBA16Float {
		t.Errorf("format = %v, want RGBA16Float", o.format)
	}
	if err := o.validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

// TestOptionValidation tests that New rejects out-of-range options.
func TestOptionValidation(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	tests := []struct {
		name string
		opt  Option
		ok   bool
	}{
		{"radius", WithUpsampleRadius(2), true},
		{"zero radius", WithUpsampleRadius(0), false},
		{"NaN radius", WithUpsampleRadius(nan), false},
		{"luminance", WithTonemapLuminanceMax(8), true},
		{"negative luminance", WithTonemapLuminanceMax(-1), false},
		{"infinite luminance", WithTonemapLuminanceMax(inf), false},
		{"alpha 0", WithTonemapAlpha(0), true},
		{"alpha above 1", WithTonemapAlpha(1.5), false},
		{"no lowpass", WithLowpassCount(0), true},
		{"negative lowpass", WithLowpassCount(-1), false},
		{"lowpass above max", WithLowpassCount(21), false},
		{"undefined format", WithTargetFormat(gputypes.TextureFormatUndefined), false},
		{"rgba8unorm", WithTargetFormat(gputypes.TextureFormatRGBA8Unorm), true},
		{"unfilterable rgba32float", WithTargetFormat(gputypes.TextureFormatRGBA32Float), false},
		{"rg11b10ufloat", WithTargetFormat(gputypes.TextureFormatRG11B10Ufloat), false},
		{"hot reload without dir", WithShaderHotReload(true), true},
	}
	d := createNoopDevice(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pp, err := New(d, tt.opt)
			if tt.ok {
				if err != nil {
					t.Fatalf("New() = %v", err)
				}
				pp.Destroy()
				return
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("New() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

// TestNewNilDevice tests that New requires a device.
func TestNewNilDevice(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrNoDevice) {
		t.Errorf("New(nil) error = %v, want ErrNoDevice", err)
	}
}
