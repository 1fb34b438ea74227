package shader

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestEmbeddedSourcesNonEmpty(t *testing.T) {
	lib := Embedded()
	tests := []struct {
		name   string
		source string
	}{
		{"common", lib.Common},
		{"downsample", lib.Downsample},
		{"upsample", lib.Upsample},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if len(tt.source) < 100 {
				t.Errorf("%s shader source suspiciously short: %d bytes", tt.name, len(tt.source))
			}
		})
	}
}

func TestSourceContainsExpectedContent(t *testing.T) {
	k, err := LowpassKernel()
	if err != nil {
		t.Fatal(err)
	}
	lib := Embedded()
	tests := []struct {
		variant  Variant
		required []string
	}{
		{DownsampleLowpassInput, []string{
			"const FIRST_PASS: bool = true;",
			"const LOWPASS: bool = true;",
			"fn lowpass_sample",
			"struct Params",
			"@vertex",
			"@fragment",
		}},
		{DownsampleLowpass, []string{"const FIRST_PASS: bool = false;", "const LOWPASS: bool = true;"}},
		{Downsample, []string{"const LOWPASS: bool = false;", "fn box_sample"}},
		{UpsampleFirst, []string{"const FIRST_PASS: bool = true;", "const LAST_PASS: bool = false;", "fn tent_sample"}},
		{Upsample, []string{"const FIRST_PASS: bool = false;", "const LAST_PASS: bool = false;"}},
		{UpsampleLast, []string{"const LAST_PASS: bool = true;", "fn tonemap"}},
	}
	for _, tt := range tests {
		t.Run(tt.variant.String(), func(t *testing.T) {
			src := lib.Source(tt.variant, k)
			for _, want := range tt.required {
				if !strings.Contains(src, want) {
					t.Errorf("%s source missing %q", tt.variant, want)
				}
			}
			if tt.variant.IsDownsample() && strings.Contains(src, "LAST_PASS") {
				t.Errorf("%s source has the upsample constants", tt.variant)
			}
		})
	}
}

func TestSourcesParse(t *testing.T) {
	k, err := LowpassKernel()
	if err != nil {
		t.Fatal(err)
	}
	lib := Embedded()
	for v := range Variant(VariantCount) {
		if err := Validate(lib.Source(v, k)); err != nil {
			t.Errorf("%s: %v", v, err)
		}
	}
}

func TestValidateCachesResults(t *testing.T) {
	src := "fn cached_" + strconv.FormatInt(time.Now().UnixNano(), 36) + "() {}"
	before := parsed.Stats()
	for range 3 {
		if err := Validate(src); err != nil {
			t.Fatalf("Validate: %v", err)
		}
	}
	after := parsed.Stats()
	if after.Misses-before.Misses != 1 || after.Hits-before.Hits != 2 {
		t.Errorf("3 validations: %d misses, %d hits; want 1, 2",
			after.Misses-before.Misses, after.Hits-before.Hits)
	}

	bad := "fn broken( {"
	first, second := Validate(bad), Validate(bad)
	if first == nil || second == nil || first.Error() != second.Error() {
		t.Errorf("cached error differs: %v, %v", first, second)
	}
}

func TestLowpassPreamble(t *testing.T) {
	k, err := LowpassKernel()
	if err != nil {
		t.Fatal(err)
	}
	if k.Taps() != 3 {
		t.Fatalf("LowpassKernel taps = %d, want 3", k.Taps())
	}
	p := Preamble(DownsampleLowpass, k)
	// 3x3 bilinear taps of the separable kernel.
	if got := strings.Count(p, "sum += "); got != 9 {
		t.Errorf("lowpass_sample has %d taps, want 9", got)
	}
	// Center weight 0.375 squared.
	if !strings.Contains(p, "sum += 0.140625 * tap(uv + vec2<f32>(0.0, 0.0) * texel);") {
		t.Errorf("center tap missing from:\n%s", p)
	}
}

func TestWGSLFloat(t *testing.T) {
	tests := []struct {
		in   float32
		want string
	}{
		{0, "0.0"},
		{1, "1.0"},
		{-2, "-2.0"},
		{0.375, "0.375"},
		{1.2, "1.2"},
	}
	for _, tt := range tests {
		if got := wgslFloat(tt.in); got != tt.want {
			t.Errorf("wgslFloat(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestVariantSelection(t *testing.T) {
	down := []struct {
		source, lowpass int
		want            Variant
	}{
		{0, 2, DownsampleLowpassInput},
		{1, 2, DownsampleLowpass},
		{2, 2, Downsample},
		{7, 2, Downsample},
		{0, 0, DownsampleLowpassInput},
		{1, 0, Downsample},
	}
	for _, tt := range down {
		if got := DownsampleVariant(tt.source, tt.lowpass); got != tt.want {
			t.Errorf("DownsampleVariant(%d, %d) = %s, want %s", tt.source, tt.lowpass, got, tt.want)
		}
	}

	up := []struct {
		source, levels int
		want           Variant
	}{
		{8, 9, UpsampleFirst},
		{5, 9, Upsample},
		{1, 9, UpsampleLast},
		// Two levels: the coarsest source also writes level 0.
		{1, 2, UpsampleLast},
	}
	for _, tt := range up {
		if got := UpsampleVariant(tt.source, tt.levels); got != tt.want {
			t.Errorf("UpsampleVariant(%d, %d) = %s, want %s", tt.source, tt.levels, got, tt.want)
		}
	}

	if got := Variant(42).String(); got != "variant(42)" {
		t.Errorf("String() = %q", got)
	}
}

func TestCompile(t *testing.T) {
	src := `
@vertex
fn main() -> @builtin(position) vec4<f32> {
    return vec4<f32>(0.0, 0.0, 0.0, 1.0);
}
`
	words, err := Compile(src)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(words) == 0 || words[0] != 0x07230203 {
		t.Errorf("missing SPIR-V magic number")
	}

	if _, err := Compile("fn main( {"); err == nil {
		t.Error("Compile accepted a syntax error")
	}
	if err := Validate("fn main( {"); err == nil {
		t.Error("Validate accepted a syntax error")
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	custom := "// custom downsample\n"
	if err := os.WriteFile(filepath.Join(dir, DownsampleFile), []byte(custom), 0o600); err != nil {
		t.Fatal(err)
	}
	lib, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if lib.Downsample != custom {
		t.Error("file from dir not used")
	}
	if lib.Common != Embedded().Common || lib.Upsample != Embedded().Upsample {
		t.Error("missing files did not fall back to embedded sources")
	}

	if err := os.Mkdir(filepath.Join(dir, UpsampleFile), 0o700); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDir(dir); err == nil {
		t.Error("LoadDir read a directory as a source file")
	}
}

func TestMonitor(t *testing.T) {
	dir := t.TempDir()
	m, err := NewMonitor(dir)
	if err != nil {
		t.Fatalf("NewMonitor: %v", err)
	}
	defer m.Close()

	if m.Changed() {
		t.Fatal("changed before any write")
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, UpsampleFile), []byte("// edit"), 0o600); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for !m.Changed() {
		if time.Now().After(deadline) {
			t.Fatal("no change reported after writing a shader")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err := m.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
