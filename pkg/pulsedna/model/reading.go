package model

import (
	"fmt"
	"strings"
	"time"
)

// Quality is the coarse, user-facing label attached to a reading.
type Quality int

const (
	QualityPoor Quality = iota
	QualityFair
	QualityGood
	QualityExcellent
)

func (q Quality) String() string {
	switch q {
	case QualityPoor:
		return "poor"
	case QualityFair:
		return "fair"
	case QualityGood:
		return "good"
	case QualityExcellent:
		return "excellent"
	default:
		return "unknown"
	}
}

// ParseQuality is the inverse of Quality.String.
func ParseQuality(s string) (Quality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "poor":
		return QualityPoor, nil
	case "fair":
		return QualityFair, nil
	case "good":
		return QualityGood, nil
	case "excellent":
		return QualityExcellent, nil
	}
	return QualityPoor, fmt.Errorf("unknown quality %q", s)
}

func (q Quality) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

func (q *Quality) UnmarshalText(b []byte) error {
	parsed, err := ParseQuality(string(b))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// Reading is a heart-rate estimate emitted once per analysis pass.
type Reading struct {
	BPM          int       `json:"bpm"`
	Confidence   float64   `json:"confidence"` // 0..1
	SNR          float64   `json:"snr"`
	Quality      Quality   `json:"quality"`
	Timestamp    time.Time `json:"timestamp"`
	PeakHz       float64   `json:"peak_hz"`
	SampleRateHz float64   `json:"sample_rate_hz"`
	Samples      int       `json:"samples"` // window length the reading was computed on
}
