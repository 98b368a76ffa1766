package training

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML fills loss scaler defaults before decoding so that keys the
// file leaves out keep their default values.
func (o *LossScalerOptions) UnmarshalYAML(value *yaml.Node) error {
	type plain LossScalerOptions
	tmp := plain(DefaultLossScalerOptions())
	if err := value.Decode(&tmp); err != nil {
		return err
	}
	*o = LossScalerOptions(tmp)
	return nil
}

// LRSchedulerOptions names a warmup LR scheduler in an options file
type LRSchedulerOptions struct {
	Type       string  `yaml:"type"` // constant_warmup, cosine_warmup, linear_warmup, poly_warmup
	TotalSteps int     `yaml:"total_steps"`
	Warmup     float64 `yaml:"warmup"`
}

// MixedPrecisionFileOptions is the serialized form of the mixed precision
// section. The loss scaler stays pure data here; the caller constructs the
// concrete scaler (see amp.NewDynamicLossScalerWithOptions).
type MixedPrecisionFileOptions struct {
	Enabled    bool               `yaml:"enabled"`
	LossScaler *LossScalerOptions `yaml:"loss_scaler"`
}

// OptionsFile is the YAML schema of a trainer options file. Sections left
// out of the file keep their defaults.
type OptionsFile struct {
	Batch          BatchOptions              `yaml:"batch"`
	Device         DeviceOptions             `yaml:"device"`
	Distributed    DistributedOptions        `yaml:"distributed"`
	LRScheduler    *LRSchedulerOptions       `yaml:"lr_scheduler"`
	MixedPrecision MixedPrecisionFileOptions `yaml:"mixed_precision"`
	Utils          UtilsOptions              `yaml:"utils"`
	Debug          DebugOptions              `yaml:"debug"`
}

// defaultOptionsFile mirrors DefaultTrainerOptions so that absent YAML keys
// keep their defaults after unmarshalling over it.
func defaultOptionsFile() *OptionsFile {
	defaults := DefaultTrainerOptions()
	return &OptionsFile{
		Batch:       defaults.Batch,
		Device:      defaults.Device,
		Distributed: defaults.Distributed,
		Utils:       defaults.Utils,
		Debug:       defaults.Debug,
	}
}

// LoadOptionsFile reads and parses a YAML trainer options file
func LoadOptionsFile(path string) (*OptionsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read options file: %v", err)
	}
	return ParseOptionsFile(data)
}

// ParseOptionsFile parses YAML option data, applying defaults for absent keys
func ParseOptionsFile(data []byte) (*OptionsFile, error) {
	file := defaultOptionsFile()
	if err := yaml.Unmarshal(data, file); err != nil {
		return nil, fmt.Errorf("failed to parse options file: %v", err)
	}
	return file, nil
}

// TrainerOptions converts the file form into runtime options. The loss
// scaler is intentionally left nil: it is an interface the caller satisfies
// with a concrete implementation built from MixedPrecision.LossScaler.
func (f *OptionsFile) TrainerOptions() (*TrainerOptions, error) {
	opts := DefaultTrainerOptions()
	opts.Batch = f.Batch
	opts.Device = f.Device
	opts.Distributed = f.Distributed
	opts.MixedPrecision.Enabled = f.MixedPrecision.Enabled
	opts.Utils = f.Utils
	opts.Debug = f.Debug

	if f.LRScheduler != nil {
		scheduler, err := NewLRSchedulerFromOptions(*f.LRScheduler)
		if err != nil {
			return nil, err
		}
		opts.LRScheduler = scheduler
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// NewLRSchedulerFromOptions constructs the warmup scheduler an options file
// names
func NewLRSchedulerFromOptions(o LRSchedulerOptions) (LRScheduler, error) {
	warmup := o.Warmup
	if warmup == 0 {
		warmup = DefaultWarmup
	}
	switch o.Type {
	case "constant_warmup":
		return NewConstantWarmupLR(o.TotalSteps, warmup)
	case "cosine_warmup":
		return NewCosineWarmupLR(o.TotalSteps, warmup)
	case "linear_warmup":
		return NewLinearWarmupLR(o.TotalSteps, warmup)
	case "poly_warmup":
		return NewPolyWarmupLR(o.TotalSteps, warmup)
	default:
		return nil, fmt.Errorf("unknown lr scheduler type %q", o.Type)
	}
}
