// Package engine defines the contract between the training front-end and
// the external graph-execution runtime. The runtime owns graph construction,
// kernel execution and device placement; this package only shapes the data
// that crosses the boundary.
package engine

import "fmt"

// TrainStepRequest carries everything the runtime needs for one forward +
// backward pass. LossScale multiplies the loss before the backward pass;
// the runtime reports gradients still carrying that factor.
type TrainStepRequest struct {
	Feeds     map[string][]float32 // named graph inputs
	Fetches   []string             // extra named outputs to report
	LossScale float64              // 1.0 when mixed precision is off
}

// TrainStepResult is the runtime's report for one training step
type TrainStepResult struct {
	Loss      float32
	Outputs   map[string][]float32 // requested fetches
	Gradients Gradients
}

// EvalStepRequest runs the inference graph only
type EvalStepRequest struct {
	Feeds   map[string][]float32
	Fetches []string
}

// EvalStepResult is the runtime's report for one evaluation step
type EvalStepResult struct {
	Loss    float32
	Outputs map[string][]float32
}

// Executor is what the trainer needs from the graph-execution runtime.
// Calls are synchronous and must be serialized by the caller; the trainer
// invokes them strictly sequentially from its step loop.
//
// RunTrainStep computes loss and gradients without touching the weights.
// ApplyUpdate performs the pending optimizer update with the given learning
// rate; the trainer skips it when a mixed-precision step overflowed.
type Executor interface {
	RunTrainStep(req *TrainStepRequest) (*TrainStepResult, error)
	RunEvalStep(req *EvalStepRequest) (*EvalStepResult, error)
	ApplyUpdate(learningRate float64) error
}

// Validate checks the request for structural problems before it crosses
// into the runtime
func (req *TrainStepRequest) Validate() error {
	if len(req.Feeds) == 0 {
		return fmt.Errorf("train step request has no feeds")
	}
	if req.LossScale <= 0 {
		return fmt.Errorf("loss scale must be positive, got %v", req.LossScale)
	}
	return nil
}

// Validate checks the request for structural problems before it crosses
// into the runtime
func (req *EvalStepRequest) Validate() error {
	if len(req.Feeds) == 0 {
		return fmt.Errorf("eval step request has no feeds")
	}
	return nil
}
