package quality

import (
	"math"
	"testing"

	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/model"
	"github.com/stretchr/testify/assert"
)

func TestClassifyTiers(t *testing.T) {
	tests := []struct {
		snr, confidence float64
		want            model.Quality
	}{
		{0, 0, model.QualityPoor},
		{3, 0.3, model.QualityPoor},
		{4, 0.4, model.QualityFair},
		{6, 0.6, model.QualityGood},
		{8, 0.8, model.QualityExcellent},
		{30, 1, model.QualityExcellent},
		{12, 0, model.QualityGood},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.snr, tt.confidence), "snr=%v confidence=%v", tt.snr, tt.confidence)
	}
}

func TestClassifyMonotonicInSNR(t *testing.T) {
	for _, confidence := range []float64{0, 0.25, 0.5, 0.75, 1} {
		prev := model.QualityPoor
		for snr := 0.0; snr <= 25; snr += 0.1 {
			q := Classify(snr, confidence)
			if q < prev {
				t.Fatalf("quality dropped from %s to %s at snr=%.1f confidence=%.2f", prev, q, snr, confidence)
			}
			prev = q
		}
	}
}

func TestCustomThresholds(t *testing.T) {
	strict := Classifier{SNRScale: 20, Excellent: 0.95, Good: 0.8, Fair: 0.5}

	assert.Equal(t, model.QualityExcellent, Classify(8, 0.8))
	assert.Equal(t, model.QualityFair, strict.Classify(8, 0.8))
}

func TestScoreFallsBackToDefaultScale(t *testing.T) {
	c := Classifier{}
	assert.InDelta(t, 0.75, c.Score(10, 0.5), 1e-12)
	assert.False(t, math.IsNaN(c.Score(10, 0.5)))
}
