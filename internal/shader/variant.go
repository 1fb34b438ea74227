package shader

import "fmt"

// Variant selects one of the six bloom pass pipelines.
type Variant int

const (
	// DownsampleLowpassInput reads the input texture with the low-pass
	// filter and luminance weighting.
	DownsampleLowpassInput Variant = iota
	// DownsampleLowpass reads an accumulator level with the low-pass filter.
	DownsampleLowpass
	// Downsample reads an accumulator level with a box filter.
	Downsample
	// UpsampleFirst reads the coarsest downsample level.
	UpsampleFirst
	// Upsample reads an upsample accumulator level.
	Upsample
	// UpsampleLast writes level 0 and tonemaps.
	UpsampleLast

	// VariantCount is the number of variants.
	VariantCount = int(UpsampleLast) + 1
)

var variantNames = [VariantCount]string{
	"downsample_lowpass_input",
	"downsample_lowpass",
	"downsample",
	"upsample_first",
	"upsample",
	"upsample_last",
}

// String returns the variant name.
func (v Variant) String() string {
	if v < 0 || int(v) >= VariantCount {
		return fmt.Sprintf("variant(%d)", int(v))
	}
	return variantNames[v]
}

// IsDownsample reports whether v is a downsample variant.
func (v Variant) IsDownsample() bool { return v <= Downsample }

// DownsampleVariant returns the variant of the pass reading level source.
// Levels below lowpassCount are low-pass filtered.
func DownsampleVariant(source, lowpassCount int) Variant {
	switch {
	case source == 0:
		return DownsampleLowpassInput
	case source < lowpassCount:
		return DownsampleLowpass
	default:
		return Downsample
	}
}

// UpsampleVariant returns the variant of the pass reading level source
// of a levels deep chain. Writing level 0 takes priority over reading
// the coarsest level.
func UpsampleVariant(source, levels int) Variant {
	switch {
	case source-1 == 0:
		return UpsampleLast
	case source == levels-1:
		return UpsampleFirst
	default:
		return Upsample
	}
}
