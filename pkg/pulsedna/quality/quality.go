package quality

import "github.com/himanishpuri/PulseDNA/pkg/pulsedna/model"

// Calibration constants. score = (snr/SNRScale + confidence) / 2.
const (
	DefaultSNRScale           = 10.0
	DefaultExcellentThreshold = 0.8
	DefaultGoodThreshold      = 0.6
	DefaultFairThreshold      = 0.4
)

// Classifier turns SNR and confidence into a quality tier. Thresholds are
// inclusive lower bounds and must satisfy Fair <= Good <= Excellent.
type Classifier struct {
	SNRScale  float64
	Excellent float64
	Good      float64
	Fair      float64
}

// Default is the classifier used by the package-level Classify.
var Default = Classifier{
	SNRScale:  DefaultSNRScale,
	Excellent: DefaultExcellentThreshold,
	Good:      DefaultGoodThreshold,
	Fair:      DefaultFairThreshold,
}

// Classify uses the default thresholds.
func Classify(snr, confidence float64) model.Quality {
	return Default.Classify(snr, confidence)
}

// Score returns (snr/SNRScale + confidence) / 2.
func (c Classifier) Score(snr, confidence float64) float64 {
	scale := c.SNRScale
	if scale <= 0 {
		scale = DefaultSNRScale
	}
	return (snr/scale + confidence) / 2
}

// Classify maps the score to the highest tier whose threshold it reaches.
func (c Classifier) Classify(snr, confidence float64) model.Quality {
	score := c.Score(snr, confidence)
	switch {
	case score >= c.Excellent:
		return model.QualityExcellent
	case score >= c.Good:
		return model.QualityGood
	case score >= c.Fair:
		return model.QualityFair
	default:
		return model.QualityPoor
	}
}
