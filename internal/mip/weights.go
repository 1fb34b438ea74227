// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package mip

import "math"

// KernelConstants are the tuning values of the blend weight falloff.
//
// Levels 0 and 1 use C0. Coarser levels use 1 - C3*pow(l, C2) where l is
// the distance term 1+L-i, shifted so that the largest weight, or 0 if
// every weight is negative, equals 1-C1.
type KernelConstants struct {
	C0 float32
	C1 float32
	C2 float32
	C3 float32
}

// DefaultKernelConstants returns the stock falloff constants.
func DefaultKernelConstants() KernelConstants {
	return KernelConstants{
		C0: 0.12,
		C1: 0.05,
		C2: -1.0,
		C3: 2.0,
	}
}

// ComputeWeights returns one blend weight per level.
// It returns nil for levels <= 0. The arithmetic is single precision.
func ComputeWeights(levels int, k KernelConstants) []float32 {
	if levels <= 0 {
		return nil
	}

	weights := make([]float32, levels)
	weights[0] = k.C0
	if levels > 1 {
		weights[1] = k.C0
	}

	var maxValue float32
	for i := 2; i < levels; i++ {
		l := float32(1 + levels - i)
		w := float32(k.C3 * powf(l, k.C2))
		weights[i] = 1.0 - w
		maxValue = max(maxValue, weights[i])
	}

	margin := maxValue - 1.0
	for i := 2; i < levels; i++ {
		weights[i] = weights[i] - margin - k.C1
	}
	return weights
}

func powf(x, y float32) float32 {
	return float32(math.Pow(float64(x), float64(y)))
}
