// Package video decodes camera recordings into frames by shelling out to
// ffprobe and ffmpeg.
package video

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Metadata struct {
	Filename    string
	Codec       string
	Width       int
	Height      int
	FPS         float64
	DurationSec float64
	Frames      int
	Format      string
}

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
		Format   string `json:"format_name"`
	} `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeStream struct {
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	NbFrames     string `json:"nb_frames"`
}

func (p *ffprobeOutput) firstVideoStream() *ffprobeStream {
	for i := range p.Streams {
		if p.Streams[i].CodecType == "video" {
			return &p.Streams[i]
		}
	}
	return nil
}

// Probe reads stream geometry and frame rate with ffprobe.
func Probe(ctx context.Context, path string) (*Metadata, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	cmd := exec.CommandContext(
		ctx,
		"ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	meta, err := parseProbe(out)
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	meta.Filename = filepath.Base(path)
	return meta, nil
}

func parseProbe(data []byte) (*Metadata, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}

	vs := probe.firstVideoStream()
	if vs == nil {
		return nil, errors.New("no video stream found")
	}
	if vs.Width <= 0 || vs.Height <= 0 {
		return nil, fmt.Errorf("invalid video size %dx%d", vs.Width, vs.Height)
	}

	fps, err := ParseRate(vs.AvgFrameRate)
	if err != nil || fps <= 0 {
		fps, err = ParseRate(vs.RFrameRate)
		if err != nil {
			return nil, err
		}
	}

	duration, _ := strconv.ParseFloat(probe.Format.Duration, 64)
	frames, _ := strconv.Atoi(vs.NbFrames)

	return &Metadata{
		Codec:       vs.CodecName,
		Width:       vs.Width,
		Height:      vs.Height,
		FPS:         fps,
		DurationSec: duration,
		Frames:      frames,
		Format:      probe.Format.Format,
	}, nil
}

// ParseRate parses ffprobe rationals such as "30000/1001" or plain "25".
func ParseRate(s string) (float64, error) {
	num, den, found := strings.Cut(strings.TrimSpace(s), "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("parse frame rate %q: %w", s, err)
	}
	if !found {
		return n, nil
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil {
		return 0, fmt.Errorf("parse frame rate %q: %w", s, err)
	}
	if d == 0 {
		return 0, fmt.Errorf("parse frame rate %q: zero denominator", s)
	}
	return n / d, nil
}
