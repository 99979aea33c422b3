package pulsedna

import (
	"fmt"
	"time"

	"github.com/himanishpuri/PulseDNA/pkg/logger"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/frame"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/quality"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/roi"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/signal"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/spectrum"
)

// DefaultSampleRate is the assumed camera frame rate.
const DefaultSampleRate = 30.0

// Config holds the resolved session settings. Build it through Options.
type Config struct {
	Capacity        int
	MinFill         int
	SampleRateHz    float64
	AutoSampleRate  bool
	MaxMissedFrames int // consecutive frames without ROI before an automatic reset; 0 disables
	AlphaThreshold  uint8
	Locator         *roi.Locator
	Analyzer        *spectrum.Analyzer // owned by the session; WithAnalyzer copies
	Classifier      quality.Classifier
	Logger          Logger
	Now             func() time.Time
}

// Option configures a Session.
type Option func(*Config)

// WithCapacity sets the signal buffer capacity in samples.
func WithCapacity(n int) Option {
	return func(c *Config) {
		c.Capacity = n
	}
}

// WithMinFill sets how many samples are needed before the first reading.
func WithMinFill(n int) Option {
	return func(c *Config) {
		c.MinFill = n
	}
}

// WithSampleRate sets the fixed frame rate assumed by analysis.
func WithSampleRate(hz float64) Option {
	return func(c *Config) {
		c.SampleRateHz = hz
	}
}

// WithAutoSampleRate estimates the rate from frame timestamps, falling
// back to the fixed rate while timestamps are missing.
func WithAutoSampleRate(enabled bool) Option {
	return func(c *Config) {
		c.AutoSampleRate = enabled
	}
}

// WithMaxMissedFrames resets the session after n consecutive frames
// without a usable ROI. 0 disables.
func WithMaxMissedFrames(n int) Option {
	return func(c *Config) {
		c.MaxMissedFrames = n
	}
}

// WithAlphaThreshold sets the minimum alpha of a sampled pixel.
func WithAlphaThreshold(a uint8) Option {
	return func(c *Config) {
		c.AlphaThreshold = a
	}
}

// WithLocator replaces the ROI strategy chain.
func WithLocator(l *roi.Locator) Option {
	return func(c *Config) {
		c.Locator = l
	}
}

// WithAnalyzer uses a copy of a, so later options and other sessions
// built from the same analyzer do not affect each other.
func WithAnalyzer(a *spectrum.Analyzer) Option {
	return func(c *Config) {
		if a == nil {
			c.Analyzer = nil
			return
		}
		cp := *a
		c.Analyzer = &cp
	}
}

// WithTransform selects the FFT backend.
func WithTransform(t spectrum.Transform) Option {
	return func(c *Config) {
		c.ownAnalyzer().Transform = t
	}
}

// WithConfidenceDivisor sets the SNR that maps to full confidence.
func WithConfidenceDivisor(d float64) Option {
	return func(c *Config) {
		c.ownAnalyzer().ConfidenceDivisor = d
	}
}

// WithClassifier replaces the quality thresholds.
func WithClassifier(q quality.Classifier) Option {
	return func(c *Config) {
		c.Classifier = q
	}
}

// WithLogger sets the session logger. The default is the global logger.
func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

// WithClock overrides the clock used to stamp readings whose samples carry
// no timestamp.
func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		c.Now = now
	}
}

// ownAnalyzer returns a private analyzer that options may modify.
func (c *Config) ownAnalyzer() *spectrum.Analyzer {
	if c.Analyzer == nil {
		c.Analyzer = spectrum.NewAnalyzer()
	} else {
		cp := *c.Analyzer
		c.Analyzer = &cp
	}
	return c.Analyzer
}

func defaultConfig() *Config {
	return &Config{
		Capacity:       signal.DefaultCapacity,
		MinFill:        signal.DefaultMinFill,
		SampleRateHz:   DefaultSampleRate,
		AlphaThreshold: frame.DefaultAlphaThreshold,
		Locator:        roi.NewLocator(),
		Analyzer:       spectrum.NewAnalyzer(),
		Classifier:     quality.Default,
		Now:            time.Now,
	}
}

func (c *Config) validate() error {
	if c.SampleRateHz <= 0 {
		return fmt.Errorf("sample rate must be positive, got %v", c.SampleRateHz)
	}
	if c.MaxMissedFrames < 0 {
		return fmt.Errorf("max missed frames must not be negative, got %d", c.MaxMissedFrames)
	}
	q := c.Classifier
	if !(q.Fair <= q.Good && q.Good <= q.Excellent) {
		return fmt.Errorf("quality thresholds out of order: fair=%v good=%v excellent=%v", q.Fair, q.Good, q.Excellent)
	}
	return nil
}

func buildConfig(opts []Option) (*Config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}
	if cfg.Locator == nil {
		cfg.Locator = roi.NewLocator()
	}
	if cfg.Analyzer == nil {
		cfg.Analyzer = spectrum.NewAnalyzer()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
