package pulsedna

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/frame"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/model"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/quality"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quietLogger struct{}

func (quietLogger) Infof(string, ...any)  {}
func (quietLogger) Warnf(string, ...any)  {}
func (quietLogger) Errorf(string, ...any) {}
func (quietLogger) Debugf(string, ...any) {}

var t0 = time.Unix(1_700_000_000, 0)

func newTestSession(t *testing.T, opts ...Option) *Session {
	t.Helper()
	s, err := NewSession(append([]Option{WithLogger(quietLogger{})}, opts...)...)
	require.NoError(t, err)
	return s
}

// pulseSamples is 128 + amp*sin(2π·hz·t) + N(0, noise) on green, 30 fps.
func pulseSamples(n int, hz, amp, noise float64, seed int64) []model.RGBSample {
	rng := rand.New(rand.NewSource(seed))
	out := make([]model.RGBSample, n)
	for i := range out {
		t := float64(i) / 30
		g := 128 + amp*math.Sin(2*math.Pi*hz*t) + noise*rng.NormFloat64()
		out[i] = model.RGBSample{R: 180, G: g, B: 110}
	}
	return out
}

func frameTime(i int) time.Time {
	return t0.Add(time.Duration(i) * time.Second / 30)
}

func TestNewSessionValidation(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"zero rate", []Option{WithSampleRate(0)}},
		{"negative missed", []Option{WithMaxMissedFrames(-1)}},
		{"capacity below fill", []Option{WithCapacity(10), WithMinFill(20)}},
		{"zero fill", []Option{WithMinFill(0)}},
		{"thresholds out of order", []Option{WithClassifier(quality.Classifier{Excellent: 0.5, Good: 0.6, Fair: 0.4})}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSession(append(tt.opts, WithLogger(quietLogger{}))...)
			assert.Error(t, err)
		})
	}
}

func TestSessionDetectsPulse(t *testing.T) {
	s := newTestSession(t)
	var (
		r  model.Reading
		ok bool
	)
	for i, sample := range pulseSamples(300, 1.2, 5, 1, 7) {
		r, ok = s.AddSample(sample, frameTime(i))
		if i < 299 {
			require.False(t, ok, "reading before minimum fill at sample %d", i)
		}
	}
	require.True(t, ok)

	assert.InDelta(t, 72, r.BPM, 6)
	assert.GreaterOrEqual(t, r.Quality, model.QualityFair)
	assert.Equal(t, 300, r.Samples)
	assert.Equal(t, frameTime(299), r.Timestamp)
	assert.Equal(t, StateReady, s.State())

	last, ok := s.LastReading()
	require.True(t, ok)
	assert.Equal(t, r, last)
}

func TestSessionStateTransitions(t *testing.T) {
	s := newTestSession(t, WithCapacity(60), WithMinFill(40))
	assert.Equal(t, StateIdle, s.State())
	assert.Zero(t, s.BufferProgress())

	samples := pulseSamples(60, 1.5, 3, 0.2, 1)
	for i := 0; i < 20; i++ {
		s.AddSample(samples[i], frameTime(i))
	}
	assert.Equal(t, StateBuffering, s.State())
	assert.InDelta(t, 0.5, s.BufferProgress(), 1e-9)
	assert.InDelta(t, 20.0/60, s.AnalysisProgress(), 1e-9)
	assert.False(t, s.HasMinimumData())
	assert.Nil(t, s.Spectrum())

	for i := 20; i < 60; i++ {
		s.AddSample(samples[i], frameTime(i))
	}
	assert.Equal(t, StateReady, s.State())
	assert.Equal(t, 1.0, s.BufferProgress())
	assert.Equal(t, 1.0, s.AnalysisProgress())
	assert.Len(t, s.Spectrum(), 30)

	s.Reset()
	assert.Equal(t, StateIdle, s.State())
	assert.Zero(t, s.Len())
	_, ok := s.LastReading()
	assert.False(t, ok)
}

func TestSessionRejectsNonFiniteSamples(t *testing.T) {
	s := newTestSession(t)
	_, ok := s.AddSample(model.RGBSample{R: 1, G: math.NaN(), B: 1}, t0)
	assert.False(t, ok)
	_, ok = s.AddSample(model.RGBSample{R: math.Inf(1), G: 1, B: 1}, t0)
	assert.False(t, ok)
	assert.Zero(t, s.Len())
}

func TestSessionDegenerateROILeavesBuffer(t *testing.T) {
	s := newTestSession(t)
	f := synth.New(synth.DefaultConfig()).Next()

	_, ok := s.OnFrame(f, &model.Rect{X: 500, Y: 500, Width: 10, Height: 10})
	// face-band misses, head-region still finds the synthetic face
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())

	empty := newTestSession(t)
	transparent := frame.New(make([]uint8, 40*30*4), 40, 30, t0)
	_, ok = empty.OnFrame(transparent, &model.Rect{X: 0, Y: 0, Width: 40, Height: 30})
	assert.False(t, ok)
	assert.Zero(t, empty.Len())
	_, ok = empty.LastROI()
	assert.False(t, ok)

	_, ok = empty.OnFrame(nil, nil)
	assert.False(t, ok)
	assert.Zero(t, empty.Len())
}

func TestSessionAutoResetAfterMissedFrames(t *testing.T) {
	s := newTestSession(t, WithMaxMissedFrames(3))
	g := synth.New(synth.DefaultConfig())
	for i := 0; i < 5; i++ {
		s.OnFrame(g.Next(), nil)
	}
	require.Equal(t, 5, s.Len())

	blank := frame.New(make([]uint8, 160*120*4), 160, 120, t0)
	s.OnFrame(blank, nil)
	s.OnFrame(blank, nil)
	assert.Equal(t, 5, s.Len())

	s.OnFrame(blank, nil)
	assert.Zero(t, s.Len())
	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, Stats{Frames: 8, Missed: 3, AutoResets: 1}, s.Stats())
}

func TestSessionMissedCounterResetsOnHit(t *testing.T) {
	s := newTestSession(t, WithMaxMissedFrames(2))
	g := synth.New(synth.DefaultConfig())
	blank := frame.New(make([]uint8, 160*120*4), 160, 120, t0)

	s.OnFrame(g.Next(), nil)
	s.OnFrame(blank, nil)
	s.OnFrame(g.Next(), nil)
	s.OnFrame(blank, nil)
	assert.Equal(t, 2, s.Len())
}

func TestSessionSyntheticVideo(t *testing.T) {
	cfg := synth.DefaultConfig()
	g := synth.New(cfg)
	s := newTestSession(t, WithAutoSampleRate(true))

	var (
		r  model.Reading
		ok bool
	)
	for i := 0; i < 300; i++ {
		r, ok = s.OnFrame(g.Next(), nil)
	}
	require.True(t, ok)
	assert.InDelta(t, 72, r.BPM, 6)
	assert.InDelta(t, 30, r.SampleRateHz, 0.01)

	roi, ok := s.LastROI()
	require.True(t, ok)
	assert.False(t, roi.Empty())
}

func TestSessionUsesClockWithoutTimestamps(t *testing.T) {
	stamp := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestSession(t, WithCapacity(40), WithMinFill(40), WithClock(func() time.Time { return stamp }))

	var r model.Reading
	for _, sample := range pulseSamples(40, 1.5, 3, 0.1, 3) {
		r, _ = s.AddSample(sample, time.Time{})
	}
	assert.Equal(t, stamp, r.Timestamp)
	assert.Equal(t, DefaultSampleRate, r.SampleRateHz)
}

func TestStateText(t *testing.T) {
	b, err := StateBuffering.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "buffering", string(b))
	assert.Equal(t, "unknown", State(9).String())

	var st State
	require.NoError(t, st.UnmarshalText([]byte("ready")))
	assert.Equal(t, StateReady, st)
	assert.Error(t, st.UnmarshalText([]byte("asleep")))
}
