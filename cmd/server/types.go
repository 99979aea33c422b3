package main

import (
	"time"

	"github.com/himanishpuri/PulseDNA/pkg/pulsedna"
)

// Upload limits
const (
	MaxFrameBytes  = 8 << 20
	MaxFramePixels = 3840 * 2160
	MaxSessions    = 64
)

// SessionDTO is the API view of one session.
type SessionDTO struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Viewers   int             `json:"viewers"`
	Status    pulsedna.Status `json:"status"`
}

type ListSessionsResponse struct {
	Sessions []SessionDTO `json:"sessions"`
	Count    int          `json:"count"`
}

// FrameResponse is returned for every uploaded frame.
type FrameResponse struct {
	AnalysisStarted bool            `json:"analysis_started"`
	Status          pulsedna.Status `json:"status"`
}

// StreamMessage is the websocket payload: a status snapshot on connect,
// then one message per reading.
type StreamMessage struct {
	Type      string            `json:"type"`
	SessionID string            `json:"session_id"`
	Reading   *pulsedna.Reading `json:"reading,omitempty"`
	Status    *pulsedna.Status  `json:"status,omitempty"`
}

type MetricsResponse struct {
	Status     string  `json:"status"`
	Sessions   int     `json:"sessions"`
	UptimeSec  float64 `json:"uptime_sec"`
	NATS       bool    `json:"nats"`
	SampleRate float64 `json:"sample_rate_hz"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
