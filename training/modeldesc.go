package training

import "fmt"

// IODesc describes one named graph input or output. Shape entries of -1
// stand for dynamic axes.
type IODesc struct {
	Name   string
	Shape  []int
	IsLoss bool // outputs only: marks the training loss
}

// ModelDesc is the typed model description the trainer binds to the
// runtime's graph. Schema validation of user-supplied descriptions happens
// upstream; the trainer only checks the structural invariants it relies on.
type ModelDesc struct {
	Inputs  []IODesc
	Outputs []IODesc
}

// Validate checks the invariants the step loop depends on: at least one
// input, at least one output, exactly one output marked as the loss, and
// unique names throughout.
func (d ModelDesc) Validate() error {
	if len(d.Inputs) == 0 {
		return fmt.Errorf("model description must declare at least one input")
	}
	if len(d.Outputs) == 0 {
		return fmt.Errorf("model description must declare at least one output")
	}

	seen := make(map[string]bool)
	for _, in := range d.Inputs {
		if in.Name == "" {
			return fmt.Errorf("model input must be named")
		}
		if in.IsLoss {
			return fmt.Errorf("model input %q must not be marked as loss", in.Name)
		}
		if seen[in.Name] {
			return fmt.Errorf("duplicate model input/output name %q", in.Name)
		}
		seen[in.Name] = true
	}

	lossCount := 0
	for _, out := range d.Outputs {
		if out.Name == "" {
			return fmt.Errorf("model output must be named")
		}
		if seen[out.Name] {
			return fmt.Errorf("duplicate model input/output name %q", out.Name)
		}
		seen[out.Name] = true
		if out.IsLoss {
			lossCount++
		}
	}
	if lossCount != 1 {
		return fmt.Errorf("exactly one output must be marked as loss, got %d", lossCount)
	}
	return nil
}

// LossOutput returns the output marked as the training loss. Call only on
// a validated description.
func (d ModelDesc) LossOutput() IODesc {
	for _, out := range d.Outputs {
		if out.IsLoss {
			return out
		}
	}
	return IODesc{}
}
