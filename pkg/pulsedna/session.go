package pulsedna

import (
	"fmt"
	"math"
	"time"

	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/frame"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/model"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/signal"
)

// State is the session lifecycle: Idle -> Buffering -> Ready, and back to
// Idle on Reset.
type State int

const (
	StateIdle State = iota
	StateBuffering
	StateReady
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBuffering:
		return "buffering"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	for _, st := range []State{StateIdle, StateBuffering, StateReady} {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown session state %q", b)
}

// Session is the per-subject rPPG controller. It owns its signal buffer and
// is driven one frame at a time by whoever owns the capture loop.
//
// A Session is not safe for concurrent use; wrap it in a Monitor when
// frames arrive on one goroutine and analysis should run on another.
type Session struct {
	cfg     *Config
	buf     *signal.Buffer
	sampler frame.Sampler
	log     Logger

	missed  int
	stats   Stats
	lastROI model.Rect
	hasROI  bool
	last    model.Reading
	hasLast bool
}

// Stats counts frames since the session was created. Reset does not clear
// them.
type Stats struct {
	Frames     int `json:"frames"`
	Missed     int `json:"missed"`
	AutoResets int `json:"auto_resets"`
	Readings   int `json:"readings"`
}

// window is an immutable snapshot of the buffer handed to analysis.
type window struct {
	green  []float64
	rateHz float64
	at     time.Time
}

// NewSession builds an Idle session. Invalid options are reported here.
func NewSession(opts ...Option) (*Session, error) {
	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}
	buf, err := signal.NewBuffer(cfg.Capacity, cfg.MinFill)
	if err != nil {
		return nil, err
	}
	return &Session{
		cfg:     cfg,
		buf:     buf,
		sampler: frame.Sampler{AlphaThreshold: cfg.AlphaThreshold},
		log:     cfg.Logger,
	}, nil
}

// OnFrame locates the ROI, samples it and feeds the sample to the buffer.
// Frames without a usable ROI leave the buffer untouched.
func (s *Session) OnFrame(f *frame.Frame, hint *model.Rect) (model.Reading, bool) {
	sample, ok := s.sampleFrame(f, hint)
	if !ok {
		return model.Reading{}, false
	}
	return s.AddSample(sample, f.Timestamp)
}

// AddSample appends one RGB sample. Once the buffer holds the minimum fill
// every sample produces a fresh reading.
func (s *Session) AddSample(sample model.RGBSample, ts time.Time) (model.Reading, bool) {
	if !s.append(sample, ts) {
		return model.Reading{}, false
	}
	w, ok := s.window()
	if !ok {
		return model.Reading{}, false
	}
	r := s.analyze(w)
	s.last, s.hasLast = r, true
	s.stats.Readings++
	return r, true
}

// State is derived from the buffer: empty, filling, or at minimum fill.
func (s *Session) State() State {
	switch {
	case s.buf.Len() == 0:
		return StateIdle
	case s.buf.HasMinimumData():
		return StateReady
	default:
		return StateBuffering
	}
}

// BufferProgress is the fraction of the minimum fill collected, in [0, 1].
func (s *Session) BufferProgress() float64 { return s.buf.BufferProgress() }

// AnalysisProgress is the fraction of the buffer capacity collected, in [0, 1].
func (s *Session) AnalysisProgress() float64 { return s.buf.AnalysisProgress() }

// HasMinimumData reports whether the session is Ready.
func (s *Session) HasMinimumData() bool { return s.buf.HasMinimumData() }

// Len is the number of buffered samples.
func (s *Session) Len() int { return s.buf.Len() }

// Stats returns the lifetime counters.
func (s *Session) Stats() Stats { return s.stats }

// LastReading returns the most recent reading since the last reset.
func (s *Session) LastReading() (model.Reading, bool) {
	return s.last, s.hasLast
}

// LastROI returns the ROI used for the most recent sampled frame.
func (s *Session) LastROI() (model.Rect, bool) {
	return s.lastROI, s.hasROI
}

// SampleRate is the rate the next analysis pass will assume.
func (s *Session) SampleRate() float64 {
	if s.cfg.AutoSampleRate {
		if hz, ok := s.buf.EstimatedRate(); ok && hz >= 1 && hz <= 1000 {
			return hz
		}
	}
	return s.cfg.SampleRateHz
}

// Spectrum returns the magnitude spectrum of the current conditioned green
// channel, or nil below the minimum fill.
func (s *Session) Spectrum() []model.SpectrumPoint {
	w, ok := s.window()
	if !ok {
		return nil
	}
	return s.cfg.Analyzer.Spectrum(signal.Condition(w.green), w.rateHz)
}

// Reset discards all buffered data and returns to Idle.
func (s *Session) Reset() {
	if s.buf.Len() > 0 {
		s.log.Infof("session reset with %d buffered samples", s.buf.Len())
	}
	s.buf.Reset()
	s.missed = 0
	s.hasROI = false
	s.last, s.hasLast = model.Reading{}, false
}

func (s *Session) sampleFrame(f *frame.Frame, hint *model.Rect) (model.RGBSample, bool) {
	s.stats.Frames++
	r, ok := s.cfg.Locator.Locate(f, hint)
	var sample model.RGBSample
	if ok {
		sample, ok = s.sampler.Sample(f, r)
	}
	if !ok {
		s.missFrame()
		return model.RGBSample{}, false
	}
	s.missed = 0
	s.lastROI, s.hasROI = r, true
	return sample, true
}

func (s *Session) missFrame() {
	s.missed++
	s.stats.Missed++
	if s.cfg.MaxMissedFrames > 0 && s.missed >= s.cfg.MaxMissedFrames && s.buf.Len() > 0 {
		s.log.Infof("no subject for %d frames, resetting session", s.missed)
		s.stats.AutoResets++
		s.Reset()
	}
}

// append adds a sample and reports whether the session is Ready. Samples
// with non-finite channels are rejected so they cannot poison the window.
func (s *Session) append(sample model.RGBSample, ts time.Time) bool {
	if !finite(sample.R) || !finite(sample.G) || !finite(sample.B) {
		s.log.Warnf("dropping non-finite sample %+v", sample)
		return false
	}
	before := s.State()
	s.buf.Add(sample, ts)
	if after := s.State(); after != before {
		s.log.Debugf("session %s -> %s (%d samples)", before, after, s.buf.Len())
	}
	return s.buf.HasMinimumData()
}

func (s *Session) window() (window, bool) {
	if !s.buf.HasMinimumData() {
		return window{}, false
	}
	at := s.buf.Latest()
	if at.IsZero() {
		at = s.cfg.Now()
	}
	return window{green: s.buf.Green(), rateHz: s.SampleRate(), at: at}, true
}

// analyze only reads the snapshot and immutable collaborators, so it may
// run on another goroutine while the buffer keeps filling.
func (s *Session) analyze(w window) model.Reading {
	res := s.cfg.Analyzer.Analyze(signal.Condition(w.green), w.rateHz)
	return model.Reading{
		BPM:          res.BPM,
		Confidence:   res.Confidence,
		SNR:          res.SNR,
		Quality:      s.cfg.Classifier.Classify(res.SNR, res.Confidence),
		Timestamp:    w.at,
		PeakHz:       res.PeakHz,
		SampleRateHz: w.rateHz,
		Samples:      len(w.green),
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
