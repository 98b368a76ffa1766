package training

import (
	"fmt"
)

// LossScaler is the contract the trainer needs from a mixed-precision loss
// scaler. The dynamic implementation lives in the amp package; a static
// scaler only has to return a constant from both methods.
type LossScaler interface {
	LossScale() float64                 // Current scale factor
	Update(info *TrainStepInfo) float64 // Advances the scaler state, returns the new scale
}

// LossScalerOptions is the pure-data configuration for a dynamic loss
// scaler, as it appears in an options file. Construction and validation
// happen in the amp package.
type LossScalerOptions struct {
	AutomaticUpdate bool    `yaml:"automatic_update"`
	LossScale       float64 `yaml:"loss_scale"`
	UpScaleWindow   int     `yaml:"up_scale_window"`
	MinLossScale    float64 `yaml:"min_loss_scale"`
	MaxLossScale    float64 `yaml:"max_loss_scale"`
}

// DefaultLossScalerOptions returns the default dynamic loss scaler
// configuration: start at 2^16, double after 2000 stable steps, clamp to
// [1, 2^24].
func DefaultLossScalerOptions() LossScalerOptions {
	return LossScalerOptions{
		AutomaticUpdate: true,
		LossScale:       65536.0,
		UpScaleWindow:   2000,
		MinLossScale:    1.0,
		MaxLossScale:    16777216.0,
	}
}

// BatchOptions controls batching behavior of the training loop
type BatchOptions struct {
	// GradientAccumulationSteps is the number of TrainStep calls folded
	// into one optimizer update. 1 disables accumulation.
	GradientAccumulationSteps int `yaml:"gradient_accumulation_steps"`
}

// DeviceOptions selects where the runtime places the training graph
type DeviceOptions struct {
	ID       string `yaml:"id"`        // e.g. "cpu", "gpu", "gpu:1"
	MemLimit int64  `yaml:"mem_limit"` // bytes, 0 means no limit
}

// DistributedOptions carries data-parallel topology. The options are
// validated and handed to the runtime; this package performs no collective
// communication itself.
type DistributedOptions struct {
	WorldRank                 int  `yaml:"world_rank"`
	WorldSize                 int  `yaml:"world_size"`
	LocalRank                 int  `yaml:"local_rank"`
	AllreducePostAccumulation bool `yaml:"allreduce_post_accumulation"`
	DeepSpeedZeroStage        int  `yaml:"deepspeed_zero_stage"`
	EnableAdasum              bool `yaml:"enable_adasum"`
}

// MixedPrecisionOptions enables reduced-precision training and selects the
// loss scaler used to keep small gradients representable
type MixedPrecisionOptions struct {
	Enabled    bool
	LossScaler LossScaler // nil means a constant scale of 1.0
}

// UtilsOptions groups miscellaneous training switches
type UtilsOptions struct {
	FrozenWeights               []string `yaml:"frozen_weights"`
	GradNormClip                bool     `yaml:"grad_norm_clip"`
	InvertibleLayerNormGradient bool     `yaml:"invertible_layer_norm_gradient"`
}

// DebugOptions groups debugging switches
type DebugOptions struct {
	// DeterministicCompute asks the runtime for bit-reproducible kernels
	DeterministicCompute bool `yaml:"deterministic_compute"`
}

// TrainerOptions is the complete, validated configuration of a training
// session. Construct with DefaultTrainerOptions and override fields, or
// load an options file and convert it.
type TrainerOptions struct {
	Batch          BatchOptions
	Device         DeviceOptions
	Distributed    DistributedOptions
	LRScheduler    LRScheduler // nil means constant learning rate
	MixedPrecision MixedPrecisionOptions
	Utils          UtilsOptions
	Debug          DebugOptions
}

// DefaultTrainerOptions returns options with every field at its default
func DefaultTrainerOptions() *TrainerOptions {
	return &TrainerOptions{
		Batch: BatchOptions{
			GradientAccumulationSteps: 1,
		},
		Device: DeviceOptions{
			ID:       "cpu",
			MemLimit: 0,
		},
		Distributed: DistributedOptions{
			WorldRank:          0,
			WorldSize:          1,
			LocalRank:          0,
			DeepSpeedZeroStage: 0,
		},
		LRScheduler: nil,
		MixedPrecision: MixedPrecisionOptions{
			Enabled:    false,
			LossScaler: nil,
		},
		Utils: UtilsOptions{
			FrozenWeights: []string{},
			GradNormClip:  true,
		},
		Debug: DebugOptions{
			DeterministicCompute: false,
		},
	}
}

// Validate checks option ranges and cross-field consistency
func (o *TrainerOptions) Validate() error {
	if o.Batch.GradientAccumulationSteps < 1 {
		return fmt.Errorf("gradient accumulation steps must be >= 1, got %d",
			o.Batch.GradientAccumulationSteps)
	}
	if o.Device.ID == "" {
		return fmt.Errorf("device id must not be empty")
	}
	if o.Device.MemLimit < 0 {
		return fmt.Errorf("device mem limit must be non-negative, got %d", o.Device.MemLimit)
	}
	if o.Distributed.WorldSize < 1 {
		return fmt.Errorf("world size must be >= 1, got %d", o.Distributed.WorldSize)
	}
	if o.Distributed.WorldRank < 0 || o.Distributed.WorldRank >= o.Distributed.WorldSize {
		return fmt.Errorf("world rank %d out of range for world size %d",
			o.Distributed.WorldRank, o.Distributed.WorldSize)
	}
	if o.Distributed.LocalRank < 0 || o.Distributed.LocalRank >= o.Distributed.WorldSize {
		return fmt.Errorf("local rank %d out of range for world size %d",
			o.Distributed.LocalRank, o.Distributed.WorldSize)
	}
	if o.Distributed.DeepSpeedZeroStage < 0 || o.Distributed.DeepSpeedZeroStage > 3 {
		return fmt.Errorf("deepspeed zero stage must be in [0, 3], got %d",
			o.Distributed.DeepSpeedZeroStage)
	}
	if o.MixedPrecision.LossScaler != nil && !o.MixedPrecision.Enabled {
		return fmt.Errorf("a loss scaler requires mixed precision to be enabled")
	}
	return nil
}
