// Package shader holds the WGSL sources of the bloom passes and builds the
// per-variant modules from them.
package shader

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gogpu/bloom/internal/cache"
	"github.com/gogpu/bloom/internal/mip"
	"github.com/gogpu/naga"
)

//go:embed shaders/common.wgsl
var commonSource string

//go:embed shaders/downsample.wgsl
var downsampleSource string

//go:embed shaders/upsample.wgsl
var upsampleSource string

// File names looked up by LoadDir.
const (
	CommonFile     = "common.wgsl"
	DownsampleFile = "downsample.wgsl"
	UpsampleFile   = "upsample.wgsl"
)

// Entry points of every assembled module.
const (
	VertexEntry   = "vs_main"
	FragmentEntry = "fs_main"
)

// Library is a set of WGSL sources the variant modules are assembled from.
type Library struct {
	Common     string
	Downsample string
	Upsample   string
}

// Embedded returns the sources compiled into the binary.
func Embedded() Library {
	return Library{
		Common:     commonSource,
		Downsample: downsampleSource,
		Upsample:   upsampleSource,
	}
}

// LoadDir reads the library from dir. Files missing from dir fall back
// to the embedded sources.
func LoadDir(dir string) (Library, error) {
	lib := Embedded()
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{CommonFile, &lib.Common},
		{DownsampleFile, &lib.Downsample},
		{UpsampleFile, &lib.Upsample},
	} {
		data, err := os.ReadFile(filepath.Join(dir, f.name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Library{}, fmt.Errorf("shader: load %s: %w", f.name, err)
		}
		*f.dst = string(data)
	}
	return lib, nil
}

// Source assembles the module for v: the variant constants and the
// generated low-pass function, then the common and stage sources.
func (l Library) Source(v Variant, lowpass mip.Kernel) string {
	var b strings.Builder
	b.WriteString(Preamble(v, lowpass))
	b.WriteString(l.Common)
	b.WriteString("\n")
	if v.IsDownsample() {
		b.WriteString(l.Downsample)
	} else {
		b.WriteString(l.Upsample)
	}
	return b.String()
}

// Preamble returns the WGSL constants selecting variant v. Downsample
// variants also get lowpass_sample, the 2D product of the given
// half kernel applied through tap.
func Preamble(v Variant, lowpass mip.Kernel) string {
	var b strings.Builder
	fmt.Fprintf(&b, "// variant: %s\n", v)
	if v.IsDownsample() {
		fmt.Fprintf(&b, "const FIRST_PASS: bool = %t;\n", v == DownsampleLowpassInput)
		fmt.Fprintf(&b, "const LOWPASS: bool = %t;\n\n", v != Downsample)
		writeLowpass(&b, lowpass)
	} else {
		fmt.Fprintf(&b, "const FIRST_PASS: bool = %t;\n", v == UpsampleFirst)
		fmt.Fprintf(&b, "const LAST_PASS: bool = %t;\n", v == UpsampleLast)
	}
	b.WriteString("\n")
	return b.String()
}

func writeLowpass(b *strings.Builder, k mip.Kernel) {
	b.WriteString("fn lowpass_sample(uv: vec2<f32>, texel: vec2<f32>) -> vec4<f32> {\n")
	if len(k.Weights) == 0 {
		b.WriteString("    return tap(uv);\n}\n")
		return
	}
	type tap1 struct{ w, o float32 }
	taps := []tap1{{k.Weights[0], k.Offsets[0]}}
	for i := 1; i < len(k.Weights); i++ {
		taps = append(taps, tap1{k.Weights[i], -k.Offsets[i]}, tap1{k.Weights[i], k.Offsets[i]})
	}
	b.WriteString("    var sum = vec4<f32>(0.0);\n")
	for _, y := range taps {
		for _, x := range taps {
			fmt.Fprintf(b, "    sum += %s * tap(uv + vec2<f32>(%s, %s) * texel);\n",
				wgslFloat(x.w*y.w), wgslFloat(x.o), wgslFloat(y.o))
		}
	}
	b.WriteString("    return sum;\n}\n")
}

// wgslFloat formats f as an abstract float literal.
func wgslFloat(f float32) string {
	s := strconv.FormatFloat(float64(f), 'f', -1, 32)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// LowpassKernel returns the bilinear form of the 5-tap binomial kernel
// used by the low-pass downsample variants.
func LowpassKernel() (mip.Kernel, error) {
	discrete, err := mip.BinomialKernel(5, 0, 0)
	if err != nil {
		return mip.Kernel{}, err
	}
	return mip.LinearKernel(discrete)
}

// parsed holds Validate results by source text, so reloading a directory
// re-parses only the modules that changed.
var parsed = cache.New[string, error](4 * VariantCount)

// Validate parses src and reports syntax errors.
func Validate(src string) error {
	return parsed.GetOrCreate(src, func() error {
		if _, err := naga.Parse(src); err != nil {
			return fmt.Errorf("shader: %w", err)
		}
		return nil
	})
}

// Compile compiles WGSL source to SPIR-V words.
func Compile(src string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("shader: compile: %w", err)
	}

	// SPIR-V is little-endian 32-bit words
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}
