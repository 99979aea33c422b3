package config

import (
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/frame"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/quality"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/signal"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/sink"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/spectrum"
)

const (
	defaultMaxMissedFrames = 90 // ~3 s at 30 fps
	defaultNATSPrefix      = sink.DefaultSubjectPrefix
)

// Default matches sample_config.toml.
func Default() Config {
	return Config{
		Session: Session{
			Capacity:        signal.DefaultCapacity,
			MinFill:         signal.DefaultMinFill,
			SampleRateHz:    pulsedna.DefaultSampleRate,
			MaxMissedFrames: defaultMaxMissedFrames,
			Transform:       "dsp",
		},
		Sampler: Sampler{AlphaThreshold: frame.DefaultAlphaThreshold},
		Calibration: Calibration{
			ConfidenceDivisor: spectrum.DefaultConfidenceDivisor,
			SNRScale:          quality.DefaultSNRScale,
			MaxSNR:            spectrum.DefaultMaxSNR,
			Excellent:         quality.DefaultExcellentThreshold,
			Good:              quality.DefaultGoodThreshold,
			Fair:              quality.DefaultFairThreshold,
		},
		Server: Server{
			Addr:              ":8080",
			AllowedOrigins:    []string{"*"},
			NATSSubjectPrefix: defaultNATSPrefix,
		},
		Logging: Logging{Level: "info"},
	}
}

// SessionOptions converts the file settings into session options. Validate
// must have passed.
func (c *Config) SessionOptions() []pulsedna.Option {
	tr, err := spectrum.TransformByName(c.Session.Transform)
	if err != nil {
		tr = spectrum.DSP{}
	}
	analyzer := spectrum.NewAnalyzer()
	analyzer.Transform = tr
	analyzer.ConfidenceDivisor = c.Calibration.ConfidenceDivisor
	analyzer.MaxSNR = c.Calibration.MaxSNR

	return []pulsedna.Option{
		pulsedna.WithCapacity(c.Session.Capacity),
		pulsedna.WithMinFill(c.Session.MinFill),
		pulsedna.WithSampleRate(c.Session.SampleRateHz),
		pulsedna.WithAutoSampleRate(c.Session.AutoSampleRate),
		pulsedna.WithMaxMissedFrames(c.Session.MaxMissedFrames),
		pulsedna.WithAlphaThreshold(uint8(c.Sampler.AlphaThreshold)),
		pulsedna.WithAnalyzer(analyzer),
		pulsedna.WithClassifier(quality.Classifier{
			SNRScale:  c.Calibration.SNRScale,
			Excellent: c.Calibration.Excellent,
			Good:      c.Calibration.Good,
			Fair:      c.Calibration.Fair,
		}),
	}
}
