package main

import (
	"fmt"
	"time"

	"github.com/himanishpuri/PulseDNA/pkg/pulsedna"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/video"
	"github.com/spf13/cobra"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var (
		fps     float64
		face    string
		every   int
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <video>",
		Short: "Estimate heart rate from a video file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hint, err := parseRect(face)
			if err != nil {
				return err
			}

			probed, err := video.Probe(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("analyze %s: %w", args[0], err)
			}
			rate, err := analysisRate(fps, probed)
			if err != nil {
				return fmt.Errorf("analyze %s: %w", args[0], err)
			}
			session, err := ctx.newSession(pulsedna.WithSampleRate(rate))
			if err != nil {
				return err
			}

			r := newRunner(session, hint, every, jsonOut, cmd.OutOrStdout())
			r.summary.Source = args[0]

			started := time.Now()
			meta, err := video.Stream(cmd.Context(), args[0], video.StreamConfig{FPS: fps, Metadata: probed}, r.frame)
			if err != nil {
				return fmt.Errorf("analyze %s: %w", args[0], err)
			}
			r.summary.Duration = time.Since(started)
			ctx.log.Infof("decoded %s: %dx%d at %.2f fps", meta.Filename, meta.Width, meta.Height, meta.FPS)

			r.finish()
			return nil
		},
	}

	cmd.Flags().Float64Var(&fps, "fps", 0, "Resample the video to this frame rate and analyse at it")
	cmd.Flags().StringVar(&face, "face", "", "Face bounding box x,y,w,h (otherwise located heuristically)")
	cmd.Flags().IntVar(&every, "every", 30, "Print every Nth reading (0 prints none)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print readings as JSON lines")
	return cmd
}

// analysisRate is the frame rate frames will be decoded at: the --fps
// resample rate when set, else the source rate.
func analysisRate(fps float64, meta *video.Metadata) (float64, error) {
	if fps > 0 {
		return fps, nil
	}
	if meta == nil || meta.FPS <= 0 {
		return 0, fmt.Errorf("unknown frame rate; pass --fps")
	}
	return meta.FPS, nil
}
