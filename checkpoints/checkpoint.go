// Package checkpoints saves and restores training session state: step
// counters, learning rate, loss statistics and the loss scaler snapshot.
// Model weights and optimizer moments live inside the graph-execution
// runtime and are checkpointed there; this package only covers the
// front-end's share of the session.
package checkpoints

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/tsawler/go-trainer/amp"
	"github.com/tsawler/go-trainer/training"
)

// FormatVersion is written into every checkpoint and checked on load
const FormatVersion = "1.0.0"

// Checkpoint is a complete snapshot of the front-end session state
type Checkpoint struct {
	RunID string `json:"run_id"`

	TrainingState TrainingState `json:"training_state"`

	// LossScaler is nil when the session trains without a dynamic scaler
	LossScaler *amp.State `json:"loss_scaler,omitempty"`

	Metadata Metadata `json:"metadata"`
}

// TrainingState captures the trainer's step bookkeeping
type TrainingState struct {
	Step             int     `json:"step"`
	OptimizationStep int     `json:"optimization_step"`
	LearningRate     float64 `json:"learning_rate"`
	Optimizer        string  `json:"optimizer"`
	LastLoss         float64 `json:"last_loss"`
	MeanLoss         float64 `json:"mean_loss"`
}

// Metadata describes the checkpoint itself
type Metadata struct {
	Version     string    `json:"version"`
	Framework   string    `json:"framework"`
	CreatedAt   time.Time `json:"created_at"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
}

// Saver writes and reads checkpoint files in JSON format
type Saver struct{}

// NewSaver creates a checkpoint saver
func NewSaver() *Saver {
	return &Saver{}
}

// Save writes the checkpoint to path, filling in metadata that is unset
func (s *Saver) Save(checkpoint *Checkpoint, path string) error {
	if checkpoint.Metadata.Framework == "" {
		checkpoint.Metadata.Framework = "go-trainer"
	}
	if checkpoint.Metadata.Version == "" {
		checkpoint.Metadata.Version = FormatVersion
	}
	if checkpoint.Metadata.CreatedAt.IsZero() {
		checkpoint.Metadata.CreatedAt = time.Now().UTC()
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint file: %v", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ") // Pretty print JSON

	if err := encoder.Encode(checkpoint); err != nil {
		return fmt.Errorf("failed to encode checkpoint: %v", err)
	}
	return nil
}

// Load reads a checkpoint from path
func (s *Saver) Load(path string) (*Checkpoint, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint file: %v", err)
	}
	defer file.Close()

	var checkpoint Checkpoint
	if err := json.NewDecoder(file).Decode(&checkpoint); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %v", err)
	}
	if checkpoint.Metadata.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported checkpoint version %q", checkpoint.Metadata.Version)
	}
	return &checkpoint, nil
}

// scalerStater is satisfied by scalers whose state can be snapshotted,
// notably amp.DynamicLossScaler
type scalerStater interface {
	State() amp.State
}

// scalerLoader is the restore-side counterpart of scalerStater
type scalerLoader interface {
	LoadState(state amp.State) error
}

// FromTrainer snapshots a live training session
func FromTrainer(t *training.Trainer) *Checkpoint {
	info := t.StepInfo()
	stats := t.LossStats()

	checkpoint := &Checkpoint{
		RunID: t.RunID(),
		TrainingState: TrainingState{
			Step:             info.Step,
			OptimizationStep: info.OptimizationStep,
			LearningRate:     info.OptimizerConfig.GetLR(),
			Optimizer:        info.OptimizerConfig.Name(),
			LastLoss:         stats.Last,
			MeanLoss:         stats.Mean,
		},
	}

	if scaler, ok := t.LossScaler().(scalerStater); ok {
		state := scaler.State()
		checkpoint.LossScaler = &state
	}
	return checkpoint
}

// Restore applies a checkpoint to a trainer built with the same optimizer
// and scaler configuration. Loss statistics are not restored; tracking
// starts fresh after a resume.
func Restore(t *training.Trainer, checkpoint *Checkpoint) error {
	if got := t.StepInfo().OptimizerConfig.Name(); got != checkpoint.TrainingState.Optimizer {
		return fmt.Errorf("optimizer mismatch: checkpoint has %s, trainer has %s",
			checkpoint.TrainingState.Optimizer, got)
	}

	if checkpoint.LossScaler != nil {
		scaler, ok := t.LossScaler().(scalerLoader)
		if !ok {
			return fmt.Errorf("checkpoint carries loss scaler state but the trainer has no restorable scaler")
		}
		if err := scaler.LoadState(*checkpoint.LossScaler); err != nil {
			return fmt.Errorf("failed to restore loss scaler: %v", err)
		}
	}

	return t.RestoreCounters(
		checkpoint.TrainingState.Step,
		checkpoint.TrainingState.OptimizationStep,
		checkpoint.TrainingState.LearningRate,
	)
}
