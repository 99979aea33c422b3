package synth

import (
	"testing"
	"time"

	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorFrames(t *testing.T) {
	cfg := DefaultConfig()
	g := New(cfg)

	first := g.Next()
	second := g.Next()
	require.True(t, first.Valid())
	assert.Equal(t, cfg.Width, first.Width)
	assert.Equal(t, cfg.Height, first.Height)
	assert.InDelta(t, float64(time.Second/30), float64(second.Timestamp.Sub(first.Timestamp)), float64(time.Microsecond))
	assert.Equal(t, 2, g.Index())
}

func TestGeneratorGreenPulses(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Noise = 0
	cfg.Amplitude = 5
	cfg.BPM = 60 // one cycle per second
	g := New(cfg)

	var greens []float64
	for i := 0; i < 30; i++ {
		s, ok := frame.Sample(g.Next(), g.Face())
		require.True(t, ok)
		greens = append(greens, s.G)
	}

	// Peak at a quarter cycle, trough at three quarters.
	assert.Greater(t, greens[7]-greens[22], 8.0)
}

func TestGeneratorDefaultsInvalidSize(t *testing.T) {
	g := New(Config{})
	f := g.Next()
	assert.Equal(t, DefaultConfig().Width, f.Width)
	assert.False(t, g.Face().Empty())
}
