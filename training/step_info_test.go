package training

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/go-trainer/optim"
)

func TestNewTrainStepInfoDefaults(t *testing.T) {
	cfg := optim.NewLambConfig()
	info, err := NewTrainStepInfo(cfg)
	require.NoError(t, err)

	assert.Same(t, cfg, info.OptimizerConfig.(*optim.LambConfig))
	assert.True(t, info.AllFinite)
	assert.NotNil(t, info.Fetches)
	assert.Empty(t, info.Fetches)
	assert.Equal(t, 0, info.OptimizationStep)
	assert.Equal(t, 0, info.Step)
}

func TestNewTrainStepInfoWithState(t *testing.T) {
	cfg := optim.NewAdamConfig()
	info, err := NewTrainStepInfoWithState(cfg, false, []string{"loss", "logits"}, 3, 7)
	require.NoError(t, err)

	assert.False(t, info.AllFinite)
	assert.Equal(t, []string{"loss", "logits"}, info.Fetches)
	assert.Equal(t, 3, info.OptimizationStep)
	assert.Equal(t, 7, info.Step)
}

func TestNewTrainStepInfoValidation(t *testing.T) {
	_, err := NewTrainStepInfo(nil)
	assert.Error(t, err, "nil optimizer config")

	bad := optim.NewAdamConfig()
	bad.Epsilon = 0
	_, err = NewTrainStepInfo(bad)
	assert.Error(t, err, "invalid optimizer config")

	cfg := optim.NewSGDConfig()
	_, err = NewTrainStepInfoWithState(cfg, true, nil, -1, 0)
	assert.Error(t, err, "negative optimization step")

	_, err = NewTrainStepInfoWithState(cfg, true, nil, 0, -1)
	assert.Error(t, err, "negative step")
}
