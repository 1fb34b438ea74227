package bloom

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDevice is returned when post-processing is created without a device.
	ErrNoDevice = errors.New("bloom: no device")

	// ErrNoInput reports that no producer feeds the node's input.
	ErrNoInput = errors.New("bloom: no input texture connected")

	// ErrTooManyLevels is returned when an input needs more mip levels
	// than the parameter buffer holds.
	ErrTooManyLevels = errors.New("bloom: mip chain exceeds level capacity")

	// ErrNodeNotOwned is returned when a node is passed to a
	// PostProcessing that did not create it.
	ErrNodeNotOwned = errors.New("bloom: node not created by this post-processing")

	// ErrInvalidConfig is returned for out-of-range configuration values.
	ErrInvalidConfig = errors.New("bloom: invalid configuration")
)

// verify panics with a formatted message when cond is false. It guards
// invariants whose violation means the node graph or the GPU objects
// were wired incorrectly.
func verify(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("bloom: "+format, args...))
	}
}
