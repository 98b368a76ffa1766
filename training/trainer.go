package training

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tsawler/go-trainer/engine"
	"github.com/tsawler/go-trainer/optim"
)

// Trainer drives the train/eval step loop against an external
// graph-execution runtime. It owns the per-session step bookkeeping, feeds
// the loss scaler its overflow signal, steps the LR scheduler and decides
// when a weight update is applied.
//
// A Trainer is not safe for concurrent use: steps run strictly sequentially
// on the caller's goroutine.
type Trainer struct {
	executor  engine.Executor
	modelDesc ModelDesc
	opts      *TrainerOptions
	stepInfo  *TrainStepInfo
	runID     string
	logger    *slog.Logger
	losses    *LossTracker
}

// StepOutput reports what one TrainStep or EvalStep produced
type StepOutput struct {
	Loss          float32
	Outputs       map[string][]float32
	LossScale     float64 // scale the step ran with (1.0 without mixed precision)
	AllFinite     bool
	UpdateApplied bool // false mid-accumulation and on overflow steps
}

// NewTrainer creates a training session. All configuration is validated
// here; a returned Trainer is ready to step. A nil opts uses defaults.
func NewTrainer(
	executor engine.Executor,
	modelDesc ModelDesc,
	optimizerConfig optim.OptimizerConfig,
	opts *TrainerOptions,
) (*Trainer, error) {
	if executor == nil {
		return nil, fmt.Errorf("executor must not be nil")
	}
	if err := modelDesc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model description: %v", err)
	}
	if opts == nil {
		opts = DefaultTrainerOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid trainer options: %v", err)
	}

	stepInfo, err := NewTrainStepInfo(optimizerConfig)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := slog.Default().With("run_id", runID)
	logger.Info("training session created",
		"optimizer", optimizerConfig.Name(),
		"device", opts.Device.ID,
		"mixed_precision", opts.MixedPrecision.Enabled,
		"gradient_accumulation_steps", opts.Batch.GradientAccumulationSteps)

	return &Trainer{
		executor:  executor,
		modelDesc: modelDesc,
		opts:      opts,
		stepInfo:  stepInfo,
		runID:     runID,
		logger:    logger,
		losses:    NewLossTracker(),
	}, nil
}

// RunID returns the unique identifier of this training session
func (t *Trainer) RunID() string { return t.runID }

// StepInfo exposes the live per-step state (counters, overflow flag)
func (t *Trainer) StepInfo() *TrainStepInfo { return t.stepInfo }

// Options returns the session options
func (t *Trainer) Options() *TrainerOptions { return t.opts }

// ModelDesc returns the model description the session was created with
func (t *Trainer) ModelDesc() ModelDesc { return t.modelDesc }

// LossScaler returns the configured loss scaler, or nil
func (t *Trainer) LossScaler() LossScaler { return t.opts.MixedPrecision.LossScaler }

// LossStats summarizes the training losses observed so far
func (t *Trainer) LossStats() LossSummary { return t.losses.Summary() }

// lossScale returns the scale the next step should run with
func (t *Trainer) lossScale() float64 {
	if t.opts.MixedPrecision.Enabled && t.opts.MixedPrecision.LossScaler != nil {
		return t.opts.MixedPrecision.LossScaler.LossScale()
	}
	return 1.0
}

// TrainStep runs one forward/backward pass and, on gradient accumulation
// boundaries, the optimizer update. With mixed precision enabled the
// returned gradients are inspected for overflow; an overflowing step still
// advances the loss scaler but skips the weight update.
func (t *Trainer) TrainStep(feeds map[string][]float32) (*StepOutput, error) {
	t.stepInfo.Step++
	boundary := t.stepInfo.Step%t.opts.Batch.GradientAccumulationSteps == 0

	// The scheduler sets the rate the update on this boundary will use
	if boundary && t.opts.LRScheduler != nil {
		t.opts.LRScheduler.Step(t.stepInfo)
	}

	lossScale := t.lossScale()
	req := &engine.TrainStepRequest{
		Feeds:     feeds,
		Fetches:   t.stepInfo.Fetches,
		LossScale: lossScale,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	result, err := t.executor.RunTrainStep(req)
	if err != nil {
		return nil, fmt.Errorf("train step %d failed: %v", t.stepInfo.Step, err)
	}

	// Without mixed precision the runtime owns numeric safety and gradients
	// are taken as finite.
	allFinite := true
	if t.opts.MixedPrecision.Enabled {
		allFinite = result.Gradients.AllFinite()
	}
	t.stepInfo.AllFinite = allFinite

	applied := false
	if boundary {
		if t.opts.MixedPrecision.LossScaler != nil {
			newScale := t.opts.MixedPrecision.LossScaler.Update(t.stepInfo)
			if newScale != lossScale {
				t.logger.Debug("loss scale changed",
					"step", t.stepInfo.Step, "from", lossScale, "to", newScale)
			}
		}
		if allFinite {
			if err := t.executor.ApplyUpdate(t.stepInfo.OptimizerConfig.GetLR()); err != nil {
				return nil, fmt.Errorf("optimizer update at step %d failed: %v", t.stepInfo.Step, err)
			}
			t.stepInfo.OptimizationStep++
			applied = true
		} else {
			t.logger.Warn("gradient overflow, skipping optimizer update",
				"step", t.stepInfo.Step, "loss_scale", lossScale)
		}
	}

	t.losses.Record(result.Loss)

	return &StepOutput{
		Loss:          result.Loss,
		Outputs:       result.Outputs,
		LossScale:     lossScale,
		AllFinite:     allFinite,
		UpdateApplied: applied,
	}, nil
}

// EvalStep runs the evaluation graph. No session state changes.
func (t *Trainer) EvalStep(feeds map[string][]float32) (*StepOutput, error) {
	req := &engine.EvalStepRequest{
		Feeds:   feeds,
		Fetches: t.stepInfo.Fetches,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	result, err := t.executor.RunEvalStep(req)
	if err != nil {
		return nil, fmt.Errorf("eval step failed: %v", err)
	}

	return &StepOutput{
		Loss:      result.Loss,
		Outputs:   result.Outputs,
		LossScale: 1.0,
		AllFinite: true,
	}, nil
}

// RestoreCounters rewinds the session's step bookkeeping, used when
// resuming from a checkpoint
func (t *Trainer) RestoreCounters(step, optimizationStep int, learningRate float64) error {
	if step < 0 || optimizationStep < 0 {
		return fmt.Errorf("step counters must be non-negative, got step=%d optimization_step=%d",
			step, optimizationStep)
	}
	if optimizationStep > step {
		return fmt.Errorf("optimization step %d cannot exceed step %d", optimizationStep, step)
	}
	t.stepInfo.Step = step
	t.stepInfo.OptimizationStep = optimizationStep
	t.stepInfo.OptimizerConfig.SetLR(learningRate)
	t.logger.Info("session counters restored",
		"step", step, "optimization_step", optimizationStep, "learning_rate", learningRate)
	return nil
}
