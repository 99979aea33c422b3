package config

import (
	"errors"
	"fmt"

	"github.com/himanishpuri/PulseDNA/pkg/logger"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/spectrum"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSession(); err != nil {
		return err
	}
	if err := c.validateCalibration(); err != nil {
		return err
	}
	if c.Sampler.AlphaThreshold < 0 || c.Sampler.AlphaThreshold > 255 {
		return fmt.Errorf("sampler.alpha_threshold must be within 0..255, got %d", c.Sampler.AlphaThreshold)
	}
	if c.Server.Addr == "" {
		return errors.New("server.addr must be set")
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}

func (c *Config) validateSession() error {
	s := c.Session
	if s.MinFill < 1 {
		return errors.New("session.min_fill must be positive")
	}
	if s.MinFill < spectrum.MinSamples {
		return fmt.Errorf("session.min_fill must be at least %d", spectrum.MinSamples)
	}
	if s.Capacity < s.MinFill {
		return fmt.Errorf("session.capacity (%d) must be >= session.min_fill (%d)", s.Capacity, s.MinFill)
	}
	if s.SampleRateHz <= 0 {
		return errors.New("session.sample_rate_hz must be positive")
	}
	if s.MaxMissedFrames < 0 {
		return errors.New("session.max_missed_frames must not be negative")
	}
	if _, err := spectrum.TransformByName(s.Transform); err != nil {
		return fmt.Errorf("session.transform: %w", err)
	}
	return nil
}

func (c *Config) validateCalibration() error {
	k := c.Calibration
	if k.ConfidenceDivisor <= 0 {
		return errors.New("calibration.confidence_divisor must be positive")
	}
	if k.SNRScale <= 0 {
		return errors.New("calibration.snr_scale must be positive")
	}
	if k.MaxSNR <= 0 {
		return errors.New("calibration.max_snr must be positive")
	}
	if !(0 <= k.Fair && k.Fair <= k.Good && k.Good <= k.Excellent && k.Excellent <= 1) {
		return fmt.Errorf("calibration thresholds must satisfy 0 <= fair <= good <= excellent <= 1, got %v/%v/%v", k.Fair, k.Good, k.Excellent)
	}
	return nil
}
