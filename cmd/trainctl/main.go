// trainctl is a small operator tool for training sessions: it validates
// trainer options files and simulates loss scaler behavior ahead of a run.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsawler/go-trainer/amp"
	"github.com/tsawler/go-trainer/optim"
	"github.com/tsawler/go-trainer/training"
)

var rootCmd = &cobra.Command{
	Use:          "trainctl",
	Short:        "Inspect and validate training session configuration",
	SilenceUsage: true,
}

var validateCmd = &cobra.Command{
	Use:   "validate <options.yaml>",
	Short: "Validate a trainer options file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := training.LoadOptionsFile(args[0])
		if err != nil {
			return err
		}
		opts, err := file.TrainerOptions()
		if err != nil {
			return err
		}

		// The scaler section is pure data in the file; constructing the
		// scaler is what validates it
		if file.MixedPrecision.LossScaler != nil {
			scaler, err := amp.NewDynamicLossScalerWithOptions(*file.MixedPrecision.LossScaler)
			if err != nil {
				return fmt.Errorf("invalid loss scaler options: %v", err)
			}
			opts.MixedPrecision.LossScaler = scaler
			if err := opts.Validate(); err != nil {
				return err
			}
		}

		fmt.Printf("%s: OK\n", args[0])
		fmt.Printf("  device:                      %s\n", opts.Device.ID)
		fmt.Printf("  gradient accumulation steps: %d\n", opts.Batch.GradientAccumulationSteps)
		fmt.Printf("  world size:                  %d\n", opts.Distributed.WorldSize)
		fmt.Printf("  mixed precision:             %t\n", opts.MixedPrecision.Enabled)
		if opts.LRScheduler != nil {
			fmt.Printf("  lr scheduler:                %s\n", opts.LRScheduler.GetName())
		}
		if scaler, ok := opts.MixedPrecision.LossScaler.(*amp.DynamicLossScaler); ok {
			fmt.Printf("  loss scale:                  %g (window %d, bounds [%g, %g])\n",
				scaler.LossScale(), scaler.UpScaleWindow(),
				scaler.MinLossScale(), scaler.MaxLossScale())
		}
		return nil
	},
}

var simulateFlags struct {
	steps         int
	lossScale     float64
	window        int
	minScale      float64
	maxScale      float64
	overflowEvery int
}

var simulateCmd = &cobra.Command{
	Use:   "simulate-scaler",
	Short: "Simulate dynamic loss scale evolution over a number of steps",
	Long: `Simulates how the dynamic loss scale evolves over a training run.
Overflows can be injected at a fixed interval to preview how aggressively
the scale recovers with a given up-scale window.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		scaler, err := amp.NewDynamicLossScalerWithOptions(training.LossScalerOptions{
			AutomaticUpdate: true,
			LossScale:       simulateFlags.lossScale,
			UpScaleWindow:   simulateFlags.window,
			MinLossScale:    simulateFlags.minScale,
			MaxLossScale:    simulateFlags.maxScale,
		})
		if err != nil {
			return err
		}
		if simulateFlags.steps < 1 {
			return fmt.Errorf("steps must be at least 1, got %d", simulateFlags.steps)
		}

		info, err := training.NewTrainStepInfo(optim.NewSGDConfig())
		if err != nil {
			return err
		}

		bar := training.NewProgressBar("Simulating", simulateFlags.steps)
		overflows := 0
		for step := 1; step <= simulateFlags.steps; step++ {
			info.Step = step
			info.AllFinite = true
			if simulateFlags.overflowEvery > 0 && step%simulateFlags.overflowEvery == 0 {
				info.AllFinite = false
				overflows++
			}
			scaler.Update(info)

			if step%100 == 0 || step == simulateFlags.steps {
				bar.Update(step, map[string]float64{"loss_scale": scaler.LossScale()})
			}
		}
		bar.Finish()

		state := scaler.State()
		fmt.Printf("final loss scale:   %g\n", state.LossScale)
		fmt.Printf("stable steps count: %d\n", state.StableStepsCount)
		fmt.Printf("overflows injected: %d\n", overflows)
		return nil
	},
}

func init() {
	simulateCmd.Flags().IntVar(&simulateFlags.steps, "steps", 10000, "number of steps to simulate")
	simulateCmd.Flags().Float64Var(&simulateFlags.lossScale, "loss-scale", amp.DefaultLossScale, "starting loss scale")
	simulateCmd.Flags().IntVar(&simulateFlags.window, "window", amp.DefaultUpScaleWindow, "stable steps before the scale doubles")
	simulateCmd.Flags().Float64Var(&simulateFlags.minScale, "min", amp.DefaultMinLossScale, "lower clamp bound")
	simulateCmd.Flags().Float64Var(&simulateFlags.maxScale, "max", amp.DefaultMaxLossScale, "upper clamp bound")
	simulateCmd.Flags().IntVar(&simulateFlags.overflowEvery, "overflow-every", 0, "inject a gradient overflow every N steps (0 disables)")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(simulateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
