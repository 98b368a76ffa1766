package engine

import (
	"math"
	"testing"

	"github.com/x448/float16"
)

func TestAllFinite32(t *testing.T) {
	tests := []struct {
		name string
		vals []float32
		want bool
	}{
		{"empty", nil, true},
		{"finite", []float32{0, 1.5, -2.25, 65504}, true},
		{"nan", []float32{1, float32(math.NaN()), 2}, false},
		{"positive inf", []float32{float32(math.Inf(1))}, false},
		{"negative inf", []float32{-1, float32(math.Inf(-1))}, false},
	}

	for _, tt := range tests {
		if got := AllFinite32(tt.vals); got != tt.want {
			t.Errorf("%s: AllFinite32 = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestAllFinite16(t *testing.T) {
	finite := []float16.Float16{
		float16.Fromfloat32(0),
		float16.Fromfloat32(1.5),
		float16.Fromfloat32(-65504), // largest finite fp16 magnitude
	}
	if !AllFinite16(finite) {
		t.Error("finite fp16 buffer reported as non-finite")
	}

	// 70000 overflows fp16 to +Inf
	overflowed := append(finite, float16.Fromfloat32(70000))
	if AllFinite16(overflowed) {
		t.Error("fp16 overflow not detected")
	}

	withNaN := []float16.Float16{float16.Fromfloat32(float32(math.NaN()))}
	if AllFinite16(withNaN) {
		t.Error("fp16 NaN not detected")
	}
}

func TestGradientsAllFinite(t *testing.T) {
	g := Gradients{
		F32: [][]float32{{1, 2}, {3, 4}},
		F16: [][]float16.Float16{{float16.Fromfloat32(0.5)}},
	}
	if !g.AllFinite() {
		t.Error("finite gradients reported as non-finite")
	}

	g.F16 = append(g.F16, []float16.Float16{float16.Fromfloat32(70000)})
	if g.AllFinite() {
		t.Error("non-finite fp16 gradient buffer not detected")
	}

	empty := Gradients{}
	if !empty.AllFinite() {
		t.Error("empty gradients should count as finite")
	}
}

func TestRequestValidate(t *testing.T) {
	req := &TrainStepRequest{LossScale: 1}
	if err := req.Validate(); err == nil {
		t.Error("expected error for request without feeds")
	}

	req = &TrainStepRequest{Feeds: map[string][]float32{"input": {1}}, LossScale: 0}
	if err := req.Validate(); err == nil {
		t.Error("expected error for non-positive loss scale")
	}

	req.LossScale = 65536
	if err := req.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	eval := &EvalStepRequest{}
	if err := eval.Validate(); err == nil {
		t.Error("expected error for eval request without feeds")
	}
}
