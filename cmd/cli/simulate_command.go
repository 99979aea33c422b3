package main

import (
	"time"

	"github.com/himanishpuri/PulseDNA/pkg/pulsedna"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/synth"
	"github.com/spf13/cobra"
)

func addSynthFlags(cmd *cobra.Command, cfg *synth.Config, seconds *float64) {
	cmd.Flags().Float64Var(&cfg.BPM, "bpm", cfg.BPM, "Simulated heart rate")
	cmd.Flags().Float64Var(seconds, "seconds", 20, "Length of the simulation")
	cmd.Flags().Float64Var(&cfg.Noise, "noise", cfg.Noise, "Per-frame brightness noise (std dev)")
	cmd.Flags().Float64Var(&cfg.Amplitude, "amplitude", cfg.Amplitude, "Green modulation amplitude")
	cmd.Flags().Float64Var(&cfg.Drift, "drift", cfg.Drift, "Brightness drift per second")
	cmd.Flags().Float64Var(&cfg.FPS, "fps", cfg.FPS, "Simulated frame rate")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", cfg.Seed, "Noise seed")
}

func newSimulateCommand(ctx *commandContext) *cobra.Command {
	var (
		seconds float64
		every   int
		jsonOut bool
	)
	cfg := synth.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the pipeline on a synthetic pulsing face",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := ctx.newSession(pulsedna.WithSampleRate(cfg.FPS))
			if err != nil {
				return err
			}
			r := newRunner(session, nil, every, jsonOut, cmd.OutOrStdout())
			r.summary.Source = "synthetic"

			started := time.Now()
			if err := simulateFrames(cfg, seconds, r.frame); err != nil {
				return err
			}
			r.summary.Duration = time.Since(started)
			ctx.log.Debugf("simulated %d frames at %.0f bpm", r.summary.Frames, cfg.BPM)

			r.finish()
			return nil
		},
	}

	addSynthFlags(cmd, &cfg, &seconds)
	cmd.Flags().IntVar(&every, "every", 30, "Print every Nth reading (0 prints none)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print readings as JSON lines")
	return cmd
}
