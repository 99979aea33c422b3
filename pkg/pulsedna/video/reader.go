package video

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"time"

	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/frame"
)

// ErrStop may be returned by a FrameFunc to end decoding early without
// reporting an error.
var ErrStop = errors.New("stop decoding")

type FrameFunc func(f *frame.Frame) error

// StreamConfig controls decoding. Zero FPS keeps the source rate.
type StreamConfig struct {
	FPS      float64
	Start    time.Time // timestamp of the first frame; zero means time.Now
	Metadata *Metadata // from an earlier Probe; nil probes again
}

// Stream decodes path to RGBA and calls fn for every frame in order.
// Timestamps advance by 1/fps from cfg.Start.
func Stream(ctx context.Context, path string, cfg StreamConfig, fn FrameFunc) (*Metadata, error) {
	var meta *Metadata
	if cfg.Metadata != nil {
		cp := *cfg.Metadata
		meta = &cp
	} else {
		var err error
		if meta, err = Probe(ctx, path); err != nil {
			return nil, err
		}
	}
	if cfg.FPS > 0 {
		meta.FPS = cfg.FPS
	}
	if cfg.Start.IsZero() {
		cfg.Start = time.Now()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	args := []string{"-v", "error", "-i", path}
	if cfg.FPS > 0 {
		args = append(args, "-vf", "fps="+strconv.FormatFloat(cfg.FPS, 'f', -1, 64))
	}
	args = append(args, "-f", "rawvideo", "-pix_fmt", "rgba", "-")

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	var stderr limitedBuffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	readErr := ReadFrames(bufio.NewReaderSize(stdout, 1<<20), meta.Width, meta.Height, meta.FPS, cfg.Start, fn)
	if readErr != nil {
		cancel()
	}
	waitErr := cmd.Wait()

	switch {
	case errors.Is(readErr, ErrStop):
		return meta, nil
	case readErr != nil:
		return meta, readErr
	case ctx.Err() != nil:
		return meta, ctx.Err()
	case waitErr != nil:
		return meta, fmt.Errorf("ffmpeg failed: %v (%s)", waitErr, stderr.String())
	}
	return meta, nil
}

// ReadFrames splits a raw RGBA stream into frames. A trailing partial frame
// is an error.
func ReadFrames(r io.Reader, width, height int, fps float64, start time.Time, fn FrameFunc) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	if fps <= 0 {
		return fmt.Errorf("invalid frame rate %v", fps)
	}
	size := width * height * 4
	for i := 0; ; i++ {
		pix := make([]uint8, size)
		n, err := io.ReadFull(r, pix)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("frame %d: read %d of %d bytes: %w", i, n, size, err)
		}
		ts := start.Add(time.Duration(float64(i) / fps * float64(time.Second)))
		if err := fn(frame.New(pix, width, height, ts)); err != nil {
			return err
		}
	}
}

// limitedBuffer keeps the first 4 KiB written to it.
type limitedBuffer struct {
	buf []byte
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if room := 4096 - len(b.buf); room > 0 {
		b.buf = append(b.buf, p[:min(room, len(p))]...)
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string { return string(b.buf) }
