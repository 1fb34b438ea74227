// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package mip

import "errors"

var (
	// ErrEvenKernel is returned when a kernel would have two center taps.
	ErrEvenKernel = errors.New("mip: kernel has duplicated center coefficients")

	// ErrUnpairedKernel is returned when a discrete kernel cannot be reduced
	// to bilinear taps because its side taps do not pair up.
	ErrUnpairedKernel = errors.New("mip: kernel side taps cannot be paired")
)

// Kernel is one half of a symmetric 1D filter: Weights[0] applies at
// Offsets[0] == 0 and every following weight applies at +/-Offsets[i].
type Kernel struct {
	Weights []float32
	Offsets []float32
}

// Taps returns the number of samples the full symmetric kernel takes.
func (k Kernel) Taps() int {
	if len(k.Weights) == 0 {
		return 0
	}
	return 2*len(k.Weights) - 1
}

// Sum returns the total weight of the full symmetric kernel.
func (k Kernel) Sum() float32 {
	if len(k.Weights) == 0 {
		return 0
	}
	sum := k.Weights[0]
	for _, w := range k.Weights[1:] {
		sum += 2 * w
	}
	return sum
}

// binomial returns n choose k.
func binomial(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	r := 1
	for i := 1; i <= k; i++ {
		r = r * (n - k + i) / i
	}
	return r
}

// BinomialKernel returns the discrete binomial (Pascal row) approximation of
// a Gaussian with the given tap count. expand widens the Pascal row by that
// many coefficients on each side, and reduce then drops that many outermost
// coefficients from each side, renormalizing the rest.
//
// The taps are the radius+1 coefficients ending at column reduce, so the
// kernel is centered on the row only when reduce equals expand.
func BinomialKernel(taps, expand, reduce int) (Kernel, error) {
	row := taps - 1 + 2*expand
	if (row+1)&1 == 0 {
		return Kernel{}, ErrEvenKernel
	}
	radius := taps >> 1

	dropped := 0
	for x := 0; x < reduce; x++ {
		dropped += 2 * binomial(row, x)
	}
	total := float32(int(1)<<row - dropped)

	k := Kernel{
		Weights: make([]float32, 0, radius+1),
		Offsets: make([]float32, 0, radius+1),
	}
	for i := 0; i <= radius; i++ {
		k.Weights = append(k.Weights, float32(binomial(row, reduce+radius-i))/total)
		k.Offsets = append(k.Offsets, float32(i))
	}
	return k, nil
}

// LinearKernel merges pairs of adjacent discrete taps into single bilinear
// taps, placing each merged tap at the weighted offset of its pair.
func LinearKernel(discrete Kernel) (Kernel, error) {
	n := len(discrete.Weights)
	if n == 0 {
		return Kernel{}, nil
	}
	if (n-1)%2 != 0 {
		return Kernel{}, ErrUnpairedKernel
	}

	k := Kernel{
		Weights: []float32{discrete.Weights[0]},
		Offsets: []float32{0},
	}
	for x := 1; x < n; x += 2 {
		w := discrete.Weights[x] + discrete.Weights[x+1]
		o := (discrete.Offsets[x]*discrete.Weights[x] + discrete.Offsets[x+1]*discrete.Weights[x+1]) / w
		k.Weights = append(k.Weights, w)
		k.Offsets = append(k.Offsets, o)
	}
	return k, nil
}
