package training

import (
	"fmt"
	"math"
)

// DefaultWarmup is the warmup fraction used when an options file names a
// scheduler without one.
const DefaultWarmup = 0.002

// LRScheduler defines the interface for learning rate scheduling strategies.
// Step reads the optimization step from the step info, multiplies the
// optimizer config's current learning rate by a warmup/decay factor and
// writes the result back through SetLR. GetLastLR reports the rates
// produced by the most recent Step call, one per parameter group (a single
// value for the global group).
type LRScheduler interface {
	Step(info *TrainStepInfo)
	GetLastLR() []float64

	// GetName returns the scheduler name for logging
	GetName() string
}

// warmupLR holds the state shared by all warmup schedulers: total step
// budget, warmup fraction and the last computed learning rate.
type warmupLR struct {
	TotalSteps int
	Warmup     float64
	lastLR     []float64
}

func newWarmupLR(totalSteps int, warmup float64) (warmupLR, error) {
	if totalSteps <= 0 {
		return warmupLR{}, fmt.Errorf("total steps must be positive, got %d", totalSteps)
	}
	if warmup < 0 || warmup >= 1 {
		return warmupLR{}, fmt.Errorf("warmup must be in [0, 1), got %v", warmup)
	}
	return warmupLR{TotalSteps: totalSteps, Warmup: warmup}, nil
}

// progress maps the optimization step into (0, 1]
func (w *warmupLR) progress(info *TrainStepInfo) float64 {
	return float64(info.OptimizationStep+1) / float64(w.TotalSteps+1)
}

// step applies the factor to the optimizer config's current learning rate
// and records it. Factors compound across calls.
func (w *warmupLR) step(info *TrainStepInfo, factor float64) {
	newLR := info.OptimizerConfig.GetLR() * factor
	info.OptimizerConfig.SetLR(newLR)
	w.lastLR = []float64{newLR}
}

func (w *warmupLR) GetLastLR() []float64 {
	return w.lastLR
}

// ConstantWarmupLR ramps the learning rate up during warmup, then holds it
type ConstantWarmupLR struct {
	warmupLR
}

// NewConstantWarmupLR creates a constant scheduler with linear warmup
func NewConstantWarmupLR(totalSteps int, warmup float64) (*ConstantWarmupLR, error) {
	base, err := newWarmupLR(totalSteps, warmup)
	if err != nil {
		return nil, err
	}
	return &ConstantWarmupLR{warmupLR: base}, nil
}

func (s *ConstantWarmupLR) Step(info *TrainStepInfo) {
	x := s.progress(info)
	factor := 1.0
	if x < s.Warmup {
		factor = x / s.Warmup
	}
	s.step(info, factor)
}

func (s *ConstantWarmupLR) GetName() string {
	return "ConstantWarmupLR"
}

// CosineWarmupLR ramps up during warmup, then follows a half cosine down
type CosineWarmupLR struct {
	warmupLR
}

// NewCosineWarmupLR creates a cosine decay scheduler with linear warmup
func NewCosineWarmupLR(totalSteps int, warmup float64) (*CosineWarmupLR, error) {
	base, err := newWarmupLR(totalSteps, warmup)
	if err != nil {
		return nil, err
	}
	return &CosineWarmupLR{warmupLR: base}, nil
}

func (s *CosineWarmupLR) Step(info *TrainStepInfo) {
	x := s.progress(info)
	var factor float64
	if x < s.Warmup {
		factor = x / s.Warmup
	} else {
		factor = 0.5 * (1.0 + math.Cos(math.Pi*x))
	}
	s.step(info, factor)
}

func (s *CosineWarmupLR) GetName() string {
	return "CosineWarmupLR"
}

// LinearWarmupLR ramps up during warmup, then decays linearly to zero
type LinearWarmupLR struct {
	warmupLR
}

// NewLinearWarmupLR creates a linear decay scheduler with linear warmup
func NewLinearWarmupLR(totalSteps int, warmup float64) (*LinearWarmupLR, error) {
	base, err := newWarmupLR(totalSteps, warmup)
	if err != nil {
		return nil, err
	}
	return &LinearWarmupLR{warmupLR: base}, nil
}

func (s *LinearWarmupLR) Step(info *TrainStepInfo) {
	x := s.progress(info)
	var factor float64
	if x < s.Warmup {
		factor = x / s.Warmup
	} else {
		factor = (1.0 - x) / (1.0 - s.Warmup)
	}
	s.step(info, factor)
}

func (s *LinearWarmupLR) GetName() string {
	return "LinearWarmupLR"
}

// PolyWarmupLR ramps up during warmup, then decays as (1-x)^Degree
type PolyWarmupLR struct {
	warmupLR

	Degree float64
}

// NewPolyWarmupLR creates a polynomial decay scheduler with linear warmup
func NewPolyWarmupLR(totalSteps int, warmup float64) (*PolyWarmupLR, error) {
	base, err := newWarmupLR(totalSteps, warmup)
	if err != nil {
		return nil, err
	}
	return &PolyWarmupLR{warmupLR: base, Degree: 0.5}, nil
}

func (s *PolyWarmupLR) Step(info *TrainStepInfo) {
	x := s.progress(info)
	var factor float64
	if x < s.Warmup {
		factor = x / s.Warmup
	} else {
		factor = math.Pow(1.0-x, s.Degree)
	}
	s.step(info, factor)
}

func (s *PolyWarmupLR) GetName() string {
	return "PolyWarmupLR"
}
