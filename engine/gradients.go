package engine

import (
	"math"

	"github.com/x448/float16"
)

// Gradients holds the raw gradient buffers a training step produced.
// Full-precision graphs report float32 buffers; mixed-precision graphs
// additionally (or exclusively) report raw half-precision buffers.
type Gradients struct {
	F32 [][]float32
	F16 [][]float16.Float16
}

// AllFinite reports whether no gradient value in any buffer is NaN or
// infinite. This is the overflow signal the driver feeds into the loss
// scaler each step. Empty gradients count as finite.
func (g Gradients) AllFinite() bool {
	for _, buf := range g.F32 {
		if !AllFinite32(buf) {
			return false
		}
	}
	for _, buf := range g.F16 {
		if !AllFinite16(buf) {
			return false
		}
	}
	return true
}

// AllFinite32 reports whether every value in the buffer is finite
func AllFinite32(vals []float32) bool {
	for _, v := range vals {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// AllFinite16 reports whether every half-precision value is finite
func AllFinite16(vals []float16.Float16) bool {
	for _, v := range vals {
		if v.IsNaN() || v.IsInf(0) {
			return false
		}
	}
	return true
}
