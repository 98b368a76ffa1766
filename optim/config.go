package optim

import (
	"fmt"
	"math"
)

// Optimizer names as the graph-execution runtime knows them.
const (
	SGDOptimizer  = "SGDOptimizer"
	AdamOptimizer = "AdamOptimizer"
	LambOptimizer = "LambOptimizer"
)

// DecayMode selects when weight decay is applied relative to the weight update
type DecayMode int

const (
	// BeforeWeightUpdate folds decay into the gradient before the update
	BeforeWeightUpdate DecayMode = iota
	// AfterWeightUpdate applies decay to the updated weights
	AfterWeightUpdate
)

func (dm DecayMode) String() string {
	switch dm {
	case BeforeWeightUpdate:
		return "BeforeWeightUpdate"
	case AfterWeightUpdate:
		return "AfterWeightUpdate"
	default:
		return fmt.Sprintf("Unknown(%d)", int(dm))
	}
}

// ParamGroup overrides hyperparameters for a named subset of model parameters.
// The learning rate is global and cannot be overridden per group.
type ParamGroup struct {
	Params  []string           // parameter (weight) names the group applies to
	Options map[string]float64 // per-group hyperparameter overrides
}

// OptimizerConfig is the immutable-by-convention hyperparameter configuration
// consumed by the trainer and mutated only through SetLR by LR schedulers
type OptimizerConfig interface {
	Name() string              // Runtime optimizer identifier
	GetLR() float64            // Gets current learning rate
	SetLR(lr float64)          // Sets learning rate (used by LR schedulers)
	ParamGroups() []ParamGroup // Per-parameter-group overrides, nil if unsupported
	Validate() error           // Checks hyperparameter ranges and param groups
}

// validateParamGroups applies the rules shared by all optimizers that
// support parameter groups: every group must name at least one parameter,
// "lr" is never a valid per-group option, and every option must be a known
// hyperparameter of the optimizer.
func validateParamGroups(groups []ParamGroup, known map[string]bool) error {
	for i, group := range groups {
		if len(group.Params) == 0 {
			return fmt.Errorf("param group %d must name at least one parameter", i)
		}
		for name := range group.Options {
			if name == "lr" {
				return fmt.Errorf("param group %d: 'lr' is not supported inside param groups", i)
			}
			if !known[name] {
				return fmt.Errorf("param group %d: unknown hyperparameter %q", i, name)
			}
		}
	}
	return nil
}

// SGDConfig holds hyperparameters for stochastic gradient descent.
// SGD does not support parameter groups.
type SGDConfig struct {
	LR float64
}

// NewSGDConfig creates an SGD configuration with default hyperparameters
func NewSGDConfig() *SGDConfig {
	return &SGDConfig{LR: 0.001}
}

func (c *SGDConfig) Name() string              { return SGDOptimizer }
func (c *SGDConfig) GetLR() float64            { return c.LR }
func (c *SGDConfig) SetLR(lr float64)          { c.LR = lr }
func (c *SGDConfig) ParamGroups() []ParamGroup { return nil }

// Validate checks hyperparameter ranges
func (c *SGDConfig) Validate() error {
	if c.LR < 0 || math.IsNaN(c.LR) || math.IsInf(c.LR, 0) {
		return fmt.Errorf("learning rate must be finite and non-negative, got %v", c.LR)
	}
	return nil
}

// AdamConfig holds hyperparameters for the Adam optimizer
type AdamConfig struct {
	LR               float64
	Alpha            float64 // Exponential decay rate for the first moment
	Beta             float64 // Exponential decay rate for the second moment
	LambdaCoef       float64 // Weight decay coefficient
	Epsilon          float64
	DoBiasCorrection bool
	WeightDecayMode  DecayMode
	Params           []ParamGroup
}

// NewAdamConfig creates an Adam configuration with default hyperparameters
func NewAdamConfig() *AdamConfig {
	return &AdamConfig{
		LR:               0.001,
		Alpha:            0.9,
		Beta:             0.999,
		LambdaCoef:       0.0,
		Epsilon:          1e-8,
		DoBiasCorrection: true,
		WeightDecayMode:  BeforeWeightUpdate,
	}
}

func (c *AdamConfig) Name() string              { return AdamOptimizer }
func (c *AdamConfig) GetLR() float64            { return c.LR }
func (c *AdamConfig) SetLR(lr float64)          { c.LR = lr }
func (c *AdamConfig) ParamGroups() []ParamGroup { return c.Params }

// adamGroupOptions are the hyperparameters a param group may override
var adamGroupOptions = map[string]bool{
	"alpha":       true,
	"beta":        true,
	"lambda_coef": true,
	"epsilon":     true,
}

// Validate checks hyperparameter ranges and param group consistency
func (c *AdamConfig) Validate() error {
	if c.LR < 0 || math.IsNaN(c.LR) || math.IsInf(c.LR, 0) {
		return fmt.Errorf("learning rate must be finite and non-negative, got %v", c.LR)
	}
	if c.Alpha < 0 || c.Alpha > 1 {
		return fmt.Errorf("alpha must be in [0, 1], got %v", c.Alpha)
	}
	if c.Beta < 0 || c.Beta > 1 {
		return fmt.Errorf("beta must be in [0, 1], got %v", c.Beta)
	}
	if c.Epsilon <= 0 {
		return fmt.Errorf("epsilon must be positive, got %v", c.Epsilon)
	}
	if c.LambdaCoef < 0 {
		return fmt.Errorf("lambda_coef must be non-negative, got %v", c.LambdaCoef)
	}
	if c.WeightDecayMode != BeforeWeightUpdate && c.WeightDecayMode != AfterWeightUpdate {
		return fmt.Errorf("invalid weight decay mode: %v", c.WeightDecayMode)
	}
	return validateParamGroups(c.Params, adamGroupOptions)
}

// LambConfig holds hyperparameters for the Lamb optimizer
type LambConfig struct {
	LR               float64
	Alpha            float64
	Beta             float64
	LambdaCoef       float64
	RatioMin         float64 // Lower bound on the trust ratio
	RatioMax         float64 // Upper bound on the trust ratio
	Epsilon          float64
	DoBiasCorrection bool
	Params           []ParamGroup
}

// NewLambConfig creates a Lamb configuration with default hyperparameters
func NewLambConfig() *LambConfig {
	return &LambConfig{
		LR:               0.001,
		Alpha:            0.9,
		Beta:             0.999,
		LambdaCoef:       0.0,
		RatioMin:         math.Inf(-1),
		RatioMax:         math.Inf(1),
		Epsilon:          1e-6,
		DoBiasCorrection: true,
	}
}

func (c *LambConfig) Name() string              { return LambOptimizer }
func (c *LambConfig) GetLR() float64            { return c.LR }
func (c *LambConfig) SetLR(lr float64)          { c.LR = lr }
func (c *LambConfig) ParamGroups() []ParamGroup { return c.Params }

var lambGroupOptions = map[string]bool{
	"alpha":       true,
	"beta":        true,
	"lambda_coef": true,
	"epsilon":     true,
	"ratio_min":   true,
	"ratio_max":   true,
}

// Validate checks hyperparameter ranges and param group consistency
func (c *LambConfig) Validate() error {
	if c.LR < 0 || math.IsNaN(c.LR) || math.IsInf(c.LR, 0) {
		return fmt.Errorf("learning rate must be finite and non-negative, got %v", c.LR)
	}
	if c.Alpha < 0 || c.Alpha > 1 {
		return fmt.Errorf("alpha must be in [0, 1], got %v", c.Alpha)
	}
	if c.Beta < 0 || c.Beta > 1 {
		return fmt.Errorf("beta must be in [0, 1], got %v", c.Beta)
	}
	if c.Epsilon <= 0 {
		return fmt.Errorf("epsilon must be positive, got %v", c.Epsilon)
	}
	if c.LambdaCoef < 0 {
		return fmt.Errorf("lambda_coef must be non-negative, got %v", c.LambdaCoef)
	}
	if c.RatioMin > c.RatioMax {
		return fmt.Errorf("ratio_min (%v) must not exceed ratio_max (%v)", c.RatioMin, c.RatioMax)
	}
	return validateParamGroups(c.Params, lambGroupOptions)
}
