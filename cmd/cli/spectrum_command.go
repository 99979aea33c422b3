package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/himanishpuri/PulseDNA/internal/report"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/frame"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/spectrum"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/synth"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/video"
	"github.com/spf13/cobra"
)

func newSpectrumCommand(ctx *commandContext) *cobra.Command {
	var (
		out     string
		face    string
		maxHz   float64
		seconds float64
	)
	cfg := synth.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "spectrum [video]",
		Short: "Plot the spectrum of the final analysis window",
		Long:  "Plot the spectrum of the final analysis window. Without a video a synthetic subject is used.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hint, err := parseRect(face)
			if err != nil {
				return err
			}

			session, err := ctx.newSession(pulsedna.WithSampleRate(cfg.FPS))
			if err != nil {
				return err
			}

			feed := func(f *frame.Frame) error {
				session.OnFrame(f, hint)
				return nil
			}
			title := fmt.Sprintf("synthetic %.0f bpm", cfg.BPM)
			if len(args) == 1 {
				title = args[0]
				if _, err := video.Stream(cmd.Context(), args[0], video.StreamConfig{FPS: cfg.FPS}, feed); err != nil {
					return fmt.Errorf("decode %s: %w", args[0], err)
				}
			} else if err := simulateFrames(cfg, seconds, feed); err != nil {
				return err
			}

			points := session.Spectrum()
			if points == nil {
				return errors.New("not enough frames with a visible subject for a spectrum")
			}
			plot := report.SpectrumPlot{Title: title, Points: points, Band: spectrum.HeartBand, MaxHz: maxHz}
			if r, ok := session.LastReading(); ok {
				plot.PeakHz = r.PeakHz
				plot.Title = fmt.Sprintf("%s: %d bpm (%s)", title, r.BPM, r.Quality)
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := plot.WritePNG(f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Wrote %s\n", out)
			return nil
		},
	}

	addSynthFlags(cmd, &cfg, &seconds)
	cmd.Flags().Lookup("fps").Usage = "Frame rate (simulated, or resample rate for a video)"
	cmd.Flags().StringVarP(&out, "out", "o", "spectrum.png", "Output PNG path")
	cmd.Flags().StringVar(&face, "face", "", "Face bounding box x,y,w,h")
	cmd.Flags().Float64Var(&maxHz, "max-hz", 6, "Highest frequency shown (0 shows all bins)")
	return cmd
}
