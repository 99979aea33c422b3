package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/himanishpuri/PulseDNA/internal/report"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/frame"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/model"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/synth"
)

// parseRect parses an optional "x,y,w,h" face box.
func parseRect(s string) (*model.Rect, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	r, err := model.ParseRect(s)
	if err != nil {
		return nil, fmt.Errorf("face box: %w", err)
	}
	return &r, nil
}

// runner feeds frames to a session and reports readings as they arrive.
type runner struct {
	session *pulsedna.Session
	hint    *model.Rect
	every   int
	jsonOut bool
	out     io.Writer
	enc     *json.Encoder

	summary report.Summary
	printed [][]string
}

func newRunner(s *pulsedna.Session, hint *model.Rect, every int, jsonOut bool, out io.Writer) *runner {
	return &runner{session: s, hint: hint, every: every, jsonOut: jsonOut, out: out, enc: json.NewEncoder(out)}
}

func (r *runner) frame(f *frame.Frame) error {
	if r.summary.Start.IsZero() {
		r.summary.Start = f.Timestamp
	}
	r.summary.Bytes += uint64(len(f.Pix))

	reading, ok := r.session.OnFrame(f, r.hint)
	st := r.session.Stats()
	r.summary.Frames, r.summary.Missed, r.summary.AutoResets = st.Frames, st.Missed, st.AutoResets
	if !ok {
		return nil
	}
	r.summary.Readings = append(r.summary.Readings, reading)
	if r.every <= 0 || (len(r.summary.Readings)-1)%r.every != 0 {
		return nil
	}
	if r.jsonOut {
		return r.enc.Encode(reading)
	}
	r.printed = append(r.printed, report.ReadingRows([]model.Reading{reading}, r.summary.Start)...)
	return nil
}

// finish prints the readings table and the summary. JSON output prints
// nothing further.
func (r *runner) finish() {
	if r.jsonOut {
		return
	}
	if len(r.printed) > 0 {
		fmt.Fprintln(r.out, report.RenderTable(report.ReadingHeaders, r.printed, report.ReadingAligns))
	}
	fmt.Fprintln(r.out, r.summary.Render())
}

func simulateFrames(cfg synth.Config, seconds float64, fn func(*frame.Frame) error) error {
	g := synth.New(cfg)
	n := int(seconds * cfg.FPS)
	for i := 0; i < n; i++ {
		if err := fn(g.Next()); err != nil {
			return err
		}
	}
	return nil
}
