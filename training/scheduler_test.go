package training

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/go-trainer/optim"
)

const lrRTol = 1e-4

// runScheduler drives the scheduler for totalSteps optimization steps from a
// learning rate of 1.0 and returns the rate after each step
func runScheduler(t *testing.T, sched LRScheduler, totalSteps int) []float64 {
	t.Helper()

	cfg := optim.NewLambConfig()
	cfg.SetLR(1.0)
	info, err := NewTrainStepInfo(cfg)
	require.NoError(t, err)

	got := make([]float64, 0, totalSteps)
	for step := 0; step < totalSteps; step++ {
		info.OptimizationStep = step
		sched.Step(info)

		last := sched.GetLastLR()
		require.Len(t, last, 1)
		require.Equal(t, cfg.GetLR(), last[0], "GetLastLR must match the config's rate")
		got = append(got, last[0])
	}
	return got
}

func assertLRSequence(t *testing.T, want, got []float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.InEpsilon(t, want[i], got[i], lrRTol, "step %d", i)
	}
}

// The five warmup values are shared by all schedulers: with warmup 0.5 and
// ten steps, the first five steps ramp with factors 2/11, 4/11, ... 10/11
// that compound against the previous rate.
var warmupPhase = []float64{0.181818, 0.0661157, 0.0360631, 0.0262277, 0.0238434}

func TestConstantWarmupLR(t *testing.T) {
	sched, err := NewConstantWarmupLR(10, 0.5)
	require.NoError(t, err)
	assert.Equal(t, "ConstantWarmupLR", sched.GetName())

	want := append([]float64{}, warmupPhase...)
	// After warmup the factor is 1.0 and the rate stays put
	for i := 0; i < 5; i++ {
		want = append(want, 0.0238434)
	}
	assertLRSequence(t, want, runScheduler(t, sched, 10))
}

func TestCosineWarmupLR(t *testing.T) {
	sched, err := NewCosineWarmupLR(10, 0.5)
	require.NoError(t, err)
	assert.Equal(t, "CosineWarmupLR", sched.GetName())

	want := append([]float64{}, warmupPhase...)
	want = append(want, 0.0102245, 0.00298856, 0.000515735, 4.0936e-05, 8.2910e-07)
	assertLRSequence(t, want, runScheduler(t, sched, 10))
}

func TestLinearWarmupLR(t *testing.T) {
	sched, err := NewLinearWarmupLR(10, 0.5)
	require.NoError(t, err)
	assert.Equal(t, "LinearWarmupLR", sched.GetName())

	want := append([]float64{}, warmupPhase...)
	want = append(want, 0.0216758, 0.0157642, 0.00859864, 0.00312678, 0.000568506)
	assertLRSequence(t, want, runScheduler(t, sched, 10))
}

func TestPolyWarmupLR(t *testing.T) {
	sched, err := NewPolyWarmupLR(10, 0.5)
	require.NoError(t, err)
	assert.Equal(t, "PolyWarmupLR", sched.GetName())
	assert.Equal(t, 0.5, sched.Degree)

	want := append([]float64{}, warmupPhase...)
	want = append(want, 0.0160752, 0.00969374, 0.00506240, 0.00215862, 0.000650848)
	assertLRSequence(t, want, runScheduler(t, sched, 10))
}

func TestSchedulerInvalidArguments(t *testing.T) {
	_, err := NewConstantWarmupLR(0, 0.5)
	assert.Error(t, err, "zero total steps")

	_, err = NewCosineWarmupLR(-1, 0.5)
	assert.Error(t, err, "negative total steps")

	_, err = NewLinearWarmupLR(10, -0.1)
	assert.Error(t, err, "negative warmup")

	_, err = NewPolyWarmupLR(10, 1.0)
	assert.Error(t, err, "warmup must stay below 1")
}

func TestSchedulerLastLRBeforeFirstStep(t *testing.T) {
	sched, err := NewConstantWarmupLR(10, 0.5)
	require.NoError(t, err)
	assert.Empty(t, sched.GetLastLR())
}

func TestNewLRSchedulerFromOptions(t *testing.T) {
	tests := []struct {
		typ  string
		name string
	}{
		{"constant_warmup", "ConstantWarmupLR"},
		{"cosine_warmup", "CosineWarmupLR"},
		{"linear_warmup", "LinearWarmupLR"},
		{"poly_warmup", "PolyWarmupLR"},
	}
	for _, tt := range tests {
		sched, err := NewLRSchedulerFromOptions(LRSchedulerOptions{
			Type:       tt.typ,
			TotalSteps: 100,
			Warmup:     0.1,
		})
		require.NoError(t, err)
		assert.Equal(t, tt.name, sched.GetName())
	}

	_, err := NewLRSchedulerFromOptions(LRSchedulerOptions{Type: "exponential", TotalSteps: 100})
	assert.Error(t, err)
}

func TestNewLRSchedulerFromOptionsDefaultWarmup(t *testing.T) {
	sched, err := NewLRSchedulerFromOptions(LRSchedulerOptions{
		Type:       "linear_warmup",
		TotalSteps: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultWarmup, sched.(*LinearWarmupLR).Warmup)
}
