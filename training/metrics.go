package training

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// LossTracker accumulates the per-step training losses of a session and
// summarizes them. It keeps every recorded value so the summary statistics
// stay exact over long runs.
type LossTracker struct {
	values []float64
	min    float64
	max    float64
}

// LossSummary is a statistical snapshot of the losses recorded so far
type LossSummary struct {
	Count  int
	Last   float64
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// NewLossTracker creates an empty tracker
func NewLossTracker() *LossTracker {
	return &LossTracker{
		min: math.Inf(1),
		max: math.Inf(-1),
	}
}

// Record appends one loss value
func (lt *LossTracker) Record(loss float32) {
	v := float64(loss)
	lt.values = append(lt.values, v)
	if v < lt.min {
		lt.min = v
	}
	if v > lt.max {
		lt.max = v
	}
}

// Count returns how many losses have been recorded
func (lt *LossTracker) Count() int { return len(lt.values) }

// Last returns the most recently recorded loss, or 0 if none
func (lt *LossTracker) Last() float64 {
	if len(lt.values) == 0 {
		return 0
	}
	return lt.values[len(lt.values)-1]
}

// Summary computes the summary statistics. An empty tracker yields a
// zero-valued summary.
func (lt *LossTracker) Summary() LossSummary {
	if len(lt.values) == 0 {
		return LossSummary{}
	}
	mean, std := stat.MeanStdDev(lt.values, nil)
	if math.IsNaN(std) { // single sample
		std = 0
	}
	return LossSummary{
		Count:  len(lt.values),
		Last:   lt.Last(),
		Mean:   mean,
		StdDev: std,
		Min:    lt.min,
		Max:    lt.max,
	}
}
