package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/himanishpuri/PulseDNA/pkg/logger"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Environment overrides applied after the file is read.
const (
	EnvNATSURL = "PULSE_NATS_URL"
)

// Session mirrors the pulsedna session options.
type Session struct {
	Capacity        int     `toml:"capacity"`
	MinFill         int     `toml:"min_fill"`
	SampleRateHz    float64 `toml:"sample_rate_hz"`
	AutoSampleRate  bool    `toml:"auto_sample_rate"`
	MaxMissedFrames int     `toml:"max_missed_frames"`
	Transform       string  `toml:"transform"`
}

type Sampler struct {
	AlphaThreshold int `toml:"alpha_threshold"`
}

// Calibration holds the tuned constants that map spectra to confidence and
// quality tiers.
type Calibration struct {
	ConfidenceDivisor float64 `toml:"confidence_divisor"`
	SNRScale          float64 `toml:"snr_scale"`
	MaxSNR            float64 `toml:"max_snr"`
	Excellent         float64 `toml:"excellent"`
	Good              float64 `toml:"good"`
	Fair              float64 `toml:"fair"`
}

type Server struct {
	Addr              string   `toml:"addr"`
	AllowedOrigins    []string `toml:"allowed_origins"`
	NATSURL           string   `toml:"nats_url"`
	NATSSubjectPrefix string   `toml:"nats_subject_prefix"`
}

type Logging struct {
	Level string `toml:"level"`
}

// Config is the on-disk configuration shared by the CLI and server.
type Config struct {
	Session     Session     `toml:"session"`
	Sampler     Sampler     `toml:"sampler"`
	Calibration Calibration `toml:"calibration"`
	Server      Server      `toml:"server"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath is ~/.config/pulsedna/config.toml.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/pulsedna/config.toml")
}

// Load reads path (or the default location when empty) over the defaults.
// A missing file is not an error; exists reports whether one was read.
func Load(path string) (cfg *Config, resolved string, exists bool, err error) {
	c := Default()

	resolved, exists, err = resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&c); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}

	c.applyEnv()
	c.normalize()

	if err := c.Validate(); err != nil {
		return nil, "", false, err
	}
	return &c, resolved, exists, nil
}

// WriteSample writes the commented sample configuration to path, refusing
// to overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config %s already exists", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders cfg as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// LogLevel parses Logging.Level.
func (c *Config) LogLevel() logger.LogLevel {
	lvl, err := logger.ParseLevel(c.Logging.Level)
	if err != nil {
		return logger.INFO
	}
	return lvl
}

func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv(EnvNATSURL); ok {
		c.Server.NATSURL = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv(logger.EnvLevel); ok && strings.TrimSpace(v) != "" {
		c.Logging.Level = v
	}
}

func (c *Config) normalize() {
	c.Session.Transform = strings.ToLower(strings.TrimSpace(c.Session.Transform))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Server.Addr = strings.TrimSpace(c.Server.Addr)
	if c.Server.NATSSubjectPrefix == "" {
		c.Server.NATSSubjectPrefix = defaultNATSPrefix
	}
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		def, err := DefaultConfigPath()
		if err != nil {
			return "", false, err
		}
		path = def
	}
	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config %s is a directory", expanded)
	}
	return expanded, true, nil
}

func expandPath(p string) (string, error) {
	if p == "" {
		return p, nil
	}
	if strings.HasPrefix(p, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if p == "~" {
			p = home
		} else if len(p) > 1 && (p[1] == '/' || p[1] == '\\') {
			p = filepath.Join(home, p[2:])
		}
	}
	abs, err := filepath.Abs(filepath.Clean(p))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", p, err)
	}
	return abs, nil
}
