package training

import (
	"fmt"

	"github.com/tsawler/go-trainer/optim"
)

// TrainStepInfo carries the per-step state shared between the trainer, the
// loss scaler and the LR schedulers. One instance lives for the duration of
// a training session; the trainer mutates it on every step.
//
// Step counts every TrainStep call, while OptimizationStep counts applied
// weight updates. The two diverge when gradient accumulation batches
// multiple calls into one update.
type TrainStepInfo struct {
	OptimizerConfig  optim.OptimizerConfig
	AllFinite        bool     // false when a gradient was Inf/NaN this step
	Fetches          []string // extra named outputs to fetch this step
	OptimizationStep int
	Step             int
}

// NewTrainStepInfo creates a step info with default state: all gradients
// finite, no extra fetches, both counters at zero.
func NewTrainStepInfo(optimizerConfig optim.OptimizerConfig) (*TrainStepInfo, error) {
	return NewTrainStepInfoWithState(optimizerConfig, true, nil, 0, 0)
}

// NewTrainStepInfoWithState creates a step info with explicit state.
// All validation happens here; an invalid argument leaves no partial state.
func NewTrainStepInfoWithState(
	optimizerConfig optim.OptimizerConfig,
	allFinite bool,
	fetches []string,
	optimizationStep int,
	step int,
) (*TrainStepInfo, error) {
	if optimizerConfig == nil {
		return nil, fmt.Errorf("optimizer config must not be nil")
	}
	if err := optimizerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid optimizer config: %v", err)
	}
	if optimizationStep < 0 {
		return nil, fmt.Errorf("optimization step must be non-negative, got %d", optimizationStep)
	}
	if step < 0 {
		return nil, fmt.Errorf("step must be non-negative, got %d", step)
	}
	if fetches == nil {
		fetches = []string{}
	}

	return &TrainStepInfo{
		OptimizerConfig:  optimizerConfig,
		AllFinite:        allFinite,
		Fetches:          fetches,
		OptimizationStep: optimizationStep,
		Step:             step,
	}, nil
}
