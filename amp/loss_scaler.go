// Package amp provides mixed-precision training support: loss scaling keeps
// small half-precision gradients representable by multiplying the loss by a
// large factor before the backward pass and dividing it back out before the
// optimizer step.
package amp

import (
	"fmt"

	"github.com/tsawler/go-trainer/training"
)

// Dynamic loss scaler defaults
const (
	DefaultLossScale     = 65536.0    // 2^16
	DefaultUpScaleWindow = 2000       // stable steps before doubling
	DefaultMinLossScale  = 1.0        // floor
	DefaultMaxLossScale  = 16777216.0 // 2^24, ceiling
)

// DynamicLossScaler adjusts the loss scale from the overflow signal of each
// training step: an overflow halves the scale immediately, a full window of
// consecutive stable (finite) steps doubles it. Both directions clamp to
// the configured bounds. State is owned exclusively by the scaler and
// mutated only by Update; callers must serialize access.
type DynamicLossScaler struct {
	automaticUpdate  bool
	lossScale        float64
	upScaleWindow    int
	minLossScale     float64
	maxLossScale     float64
	stableStepsCount int
}

// NewDynamicLossScaler creates a scaler with the default configuration:
// scale 2^16, doubling after 2000 stable steps, clamped to [1, 2^24].
func NewDynamicLossScaler() *DynamicLossScaler {
	return &DynamicLossScaler{
		automaticUpdate: true,
		lossScale:       DefaultLossScale,
		upScaleWindow:   DefaultUpScaleWindow,
		minLossScale:    DefaultMinLossScale,
		maxLossScale:    DefaultMaxLossScale,
	}
}

// NewDynamicLossScalerWithOptions creates a scaler from an options-file
// configuration. The starting scale is not required to lie inside
// [MinLossScale, MaxLossScale]; the bounds only clamp updates.
func NewDynamicLossScalerWithOptions(opts training.LossScalerOptions) (*DynamicLossScaler, error) {
	if opts.LossScale <= 0 {
		return nil, fmt.Errorf("loss scale must be positive, got %v", opts.LossScale)
	}
	if opts.UpScaleWindow <= 0 {
		return nil, fmt.Errorf("up scale window must be positive, got %d", opts.UpScaleWindow)
	}
	if opts.MinLossScale > opts.MaxLossScale {
		return nil, fmt.Errorf("min loss scale (%v) must not exceed max loss scale (%v)",
			opts.MinLossScale, opts.MaxLossScale)
	}
	return &DynamicLossScaler{
		automaticUpdate: opts.AutomaticUpdate,
		lossScale:       opts.LossScale,
		upScaleWindow:   opts.UpScaleWindow,
		minLossScale:    opts.MinLossScale,
		maxLossScale:    opts.MaxLossScale,
	}, nil
}

// LossScale returns the current scale factor
func (ls *DynamicLossScaler) LossScale() float64 { return ls.lossScale }

// StableStepsCount returns the number of consecutive finite steps observed
// since the scale last changed or a window completed
func (ls *DynamicLossScaler) StableStepsCount() int { return ls.stableStepsCount }

// UpScaleWindow returns the number of consecutive stable steps required
// before the scale doubles
func (ls *DynamicLossScaler) UpScaleWindow() int { return ls.upScaleWindow }

// MinLossScale returns the lower clamp bound
func (ls *DynamicLossScaler) MinLossScale() float64 { return ls.minLossScale }

// MaxLossScale returns the upper clamp bound
func (ls *DynamicLossScaler) MaxLossScale() float64 { return ls.maxLossScale }

// AutomaticUpdate reports whether Update adjusts the scale. When false the
// scaler is in manual-override mode and Update is a no-op.
func (ls *DynamicLossScaler) AutomaticUpdate() bool { return ls.automaticUpdate }

// Update advances the scaler state from the step's overflow signal and
// returns the post-update loss scale. It never fails: the step info is
// structurally valid by construction and only its AllFinite field is read.
//
// An overflow halves the scale (clamped at MinLossScale) and resets the
// stable step counter. A finite step increments the counter; when the
// counter reaches UpScaleWindow the scale doubles (clamped at MaxLossScale)
// and the counter resets. The counter resets on every window boundary even
// once the scale sits at MaxLossScale and doubling no longer changes it.
func (ls *DynamicLossScaler) Update(info *training.TrainStepInfo) float64 {
	if !ls.automaticUpdate {
		return ls.lossScale
	}

	if !info.AllFinite {
		ls.lossScale = ls.lossScale / 2
		if ls.lossScale < ls.minLossScale {
			ls.lossScale = ls.minLossScale
		}
		ls.stableStepsCount = 0
		return ls.lossScale
	}

	ls.stableStepsCount++
	if ls.stableStepsCount >= ls.upScaleWindow {
		ls.lossScale = ls.lossScale * 2
		if ls.lossScale > ls.maxLossScale {
			ls.lossScale = ls.maxLossScale
		}
		ls.stableStepsCount = 0
	}
	return ls.lossScale
}

// State is a serializable snapshot of the scaler, used by checkpointing
type State struct {
	AutomaticUpdate  bool    `json:"automatic_update"`
	LossScale        float64 `json:"loss_scale"`
	UpScaleWindow    int     `json:"up_scale_window"`
	MinLossScale     float64 `json:"min_loss_scale"`
	MaxLossScale     float64 `json:"max_loss_scale"`
	StableStepsCount int     `json:"stable_steps_count"`
}

// State snapshots the scaler for checkpointing
func (ls *DynamicLossScaler) State() State {
	return State{
		AutomaticUpdate:  ls.automaticUpdate,
		LossScale:        ls.lossScale,
		UpScaleWindow:    ls.upScaleWindow,
		MinLossScale:     ls.minLossScale,
		MaxLossScale:     ls.maxLossScale,
		StableStepsCount: ls.stableStepsCount,
	}
}

// LoadState restores a snapshot taken with State
func (ls *DynamicLossScaler) LoadState(state State) error {
	if state.LossScale <= 0 {
		return fmt.Errorf("loss scale must be positive, got %v", state.LossScale)
	}
	if state.UpScaleWindow <= 0 {
		return fmt.Errorf("up scale window must be positive, got %d", state.UpScaleWindow)
	}
	if state.MinLossScale > state.MaxLossScale {
		return fmt.Errorf("min loss scale (%v) must not exceed max loss scale (%v)",
			state.MinLossScale, state.MaxLossScale)
	}
	if state.StableStepsCount < 0 || state.StableStepsCount > state.UpScaleWindow {
		return fmt.Errorf("stable steps count %d out of range [0, %d]",
			state.StableStepsCount, state.UpScaleWindow)
	}
	ls.automaticUpdate = state.AutomaticUpdate
	ls.lossScale = state.LossScale
	ls.upScaleWindow = state.UpScaleWindow
	ls.minLossScale = state.MinLossScale
	ls.maxLossScale = state.MaxLossScale
	ls.stableStepsCount = state.StableStepsCount
	return nil
}

// DynamicLossScaler implements the trainer's LossScaler contract
var _ training.LossScaler = (*DynamicLossScaler)(nil)
