package spectrum

import (
	"math"

	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/model"
)

// Tunables
const (
	// Physiological heart-rate band: 42-240 bpm.
	MinHeartHz = 0.7
	MaxHeartHz = 4.0

	// MinSamples is the shortest signal Analyze will look at.
	MinSamples = 30

	// DefaultBPM is reported with zero confidence when the band is empty.
	DefaultBPM = 72

	// DefaultConfidenceDivisor maps SNR to confidence: clamp(snr/10, 0, 1).
	// It is a calibration constant; quality thresholds assume it.
	DefaultConfidenceDivisor = 10.0

	// DefaultMaxSNR caps the ratio when the out-of-band floor is ~0.
	DefaultMaxSNR = 1000.0

	noiseFloor = 1e-12
)

// Band is an inclusive frequency range in Hz.
type Band struct {
	LowHz  float64
	HighHz float64
}

// HeartBand is the default peak search range.
var HeartBand = Band{LowHz: MinHeartHz, HighHz: MaxHeartHz}

// Contains reports whether f lies inside the band.
func (b Band) Contains(f float64) bool {
	return f >= b.LowHz && f <= b.HighHz
}

// Result is the outcome of one analysis pass.
type Result struct {
	BPM        int
	Confidence float64
	SNR        float64
	PeakHz     float64
}

// Analyzer locates the dominant in-band frequency of a conditioned signal.
type Analyzer struct {
	Transform         Transform
	Band              Band
	ConfidenceDivisor float64
	MaxSNR            float64
}

// NewAnalyzer returns an analyzer with the default transform and calibration.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		Transform:         DSP{},
		Band:              HeartBand,
		ConfidenceDivisor: DefaultConfidenceDivisor,
		MaxSNR:            DefaultMaxSNR,
	}
}

// Spectrum returns the magnitude spectrum of x with bin frequencies.
func (a *Analyzer) Spectrum(x []float64, rateHz float64) []model.SpectrumPoint {
	if len(x) == 0 || rateHz <= 0 {
		return nil
	}
	mags := a.transform().Magnitudes(x)
	points := make([]model.SpectrumPoint, len(mags))
	for k, m := range mags {
		points[k] = model.SpectrumPoint{FrequencyHz: binHz(k, len(x), rateHz), Magnitude: m}
	}
	return points
}

// Analyze estimates heart rate from x sampled at rateHz.
//
// Signals shorter than MinSamples give a zero result. When no in-band bin
// has positive magnitude the result is DefaultBPM with zero confidence.
// SNR is the in-band peak magnitude over the mean magnitude of the
// out-of-band bins (DC excluded).
func (a *Analyzer) Analyze(x []float64, rateHz float64) Result {
	n := len(x)
	if n < MinSamples || rateHz <= 0 {
		return Result{}
	}

	mags := a.transform().Magnitudes(x)
	band := a.band()

	peakIdx, peakMag := -1, 0.0
	var noiseSum float64
	var noiseBins int
	for k := 1; k < len(mags); k++ {
		m := mags[k]
		if math.IsNaN(m) || math.IsInf(m, 0) {
			continue
		}
		if band.Contains(binHz(k, n, rateHz)) {
			if m > peakMag {
				peakIdx, peakMag = k, m
			}
			continue
		}
		noiseSum += m
		noiseBins++
	}

	if peakIdx < 0 {
		return Result{BPM: DefaultBPM}
	}

	noise := 0.0
	if noiseBins > 0 {
		noise = noiseSum / float64(noiseBins)
	}
	snr := min(peakMag/max(noise, noiseFloor), a.maxSNR())
	peakHz := binHz(peakIdx, n, rateHz)

	return Result{
		BPM:        int(math.Round(peakHz * 60)),
		Confidence: Confidence(snr, a.confidenceDivisor()),
		SNR:        snr,
		PeakHz:     peakHz,
	}
}

// Confidence maps an SNR onto [0,1] linearly.
func Confidence(snr, divisor float64) float64 {
	if divisor <= 0 || math.IsNaN(snr) {
		return 0
	}
	return math.Max(0, math.Min(1, snr/divisor))
}

func binHz(k, n int, rateHz float64) float64 {
	return float64(k) * rateHz / float64(n)
}

func (a *Analyzer) transform() Transform {
	if a.Transform == nil {
		return DSP{}
	}
	return a.Transform
}

func (a *Analyzer) band() Band {
	if a.Band.HighHz <= a.Band.LowHz {
		return HeartBand
	}
	return a.Band
}

func (a *Analyzer) confidenceDivisor() float64 {
	if a.ConfidenceDivisor <= 0 {
		return DefaultConfidenceDivisor
	}
	return a.ConfidenceDivisor
}

func (a *Analyzer) maxSNR() float64 {
	if a.MaxSNR <= 0 {
		return DefaultMaxSNR
	}
	return a.MaxSNR
}
