package training

import (
	"strings"
	"testing"
)

func validDesc() ModelDesc {
	return ModelDesc{
		Inputs: []IODesc{
			{Name: "input_ids", Shape: []int{-1, 128}},
			{Name: "attention_mask", Shape: []int{-1, 128}},
		},
		Outputs: []IODesc{
			{Name: "loss", Shape: []int{1}, IsLoss: true},
			{Name: "logits", Shape: []int{-1, 128, 30528}},
		},
	}
}

func TestModelDescValidate(t *testing.T) {
	if err := validDesc().Validate(); err != nil {
		t.Fatalf("valid description rejected: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(d *ModelDesc)
		wantErr string
	}{
		{
			"no inputs",
			func(d *ModelDesc) { d.Inputs = nil },
			"at least one input",
		},
		{
			"no outputs",
			func(d *ModelDesc) { d.Outputs = nil },
			"at least one output",
		},
		{
			"unnamed input",
			func(d *ModelDesc) { d.Inputs[0].Name = "" },
			"must be named",
		},
		{
			"input marked as loss",
			func(d *ModelDesc) { d.Inputs[0].IsLoss = true },
			"must not be marked as loss",
		},
		{
			"duplicate names",
			func(d *ModelDesc) { d.Outputs[1].Name = "input_ids" },
			"duplicate",
		},
		{
			"no loss output",
			func(d *ModelDesc) { d.Outputs[0].IsLoss = false },
			"exactly one output",
		},
		{
			"two loss outputs",
			func(d *ModelDesc) { d.Outputs[1].IsLoss = true },
			"exactly one output",
		},
	}

	for _, tt := range tests {
		desc := validDesc()
		tt.mutate(&desc)
		err := desc.Validate()
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), tt.wantErr) {
			t.Errorf("%s: error %q does not mention %q", tt.name, err, tt.wantErr)
		}
	}
}

func TestModelDescLossOutput(t *testing.T) {
	desc := validDesc()
	if got := desc.LossOutput().Name; got != "loss" {
		t.Errorf("LossOutput = %q, want %q", got, "loss")
	}
}
