package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/himanishpuri/PulseDNA/internal/config"
	"github.com/himanishpuri/PulseDNA/internal/report"
	"github.com/himanishpuri/PulseDNA/pkg/logger"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/frame"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/model"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/spectrum"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	cfg      *config.Config
	log      *logger.Logger
	sessions *Registry
	upgrader websocket.Upgrader
	started  time.Time
	nats     bool
}

// NewServer wires a registry whose sessions use cfg. publish receives
// every reading of every session in addition to websocket subscribers.
func NewServer(cfg *config.Config, log *logger.Logger, publish pulsedna.ReadingSink) *Server {
	sessionLog := log.Named("session")
	opts := func() []pulsedna.Option {
		return append(cfg.SessionOptions(), pulsedna.WithLogger(sessionLog))
	}
	return &Server{
		cfg:      cfg,
		log:      log,
		sessions: NewRegistry(MaxSessions, opts, publish),
		upgrader: newUpgrader(cfg.Server.AllowedOrigins),
		started:  time.Now(),
		nats:     publish != nil,
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

func (s *Server) sessionDTO(e *entry) SessionDTO {
	return SessionDTO{
		ID:        e.monitor.ID(),
		CreatedAt: e.created,
		Viewers:   e.hub.count(),
		Status:    e.monitor.Status(),
	}
}

// lookup resolves {id} or writes a 404.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*entry, bool) {
	e, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		s.respondError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return e, true
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "PulseDNA API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":        "GET /health",
			"metrics":       "GET /api/health/metrics",
			"listSessions":  "GET /api/sessions",
			"createSession": "POST /api/sessions",
			"getSession":    "GET /api/sessions/{id}",
			"closeSession":  "DELETE /api/sessions/{id}",
			"resetSession":  "POST /api/sessions/{id}/reset",
			"uploadFrame":   "POST /api/sessions/{id}/frames?face=x,y,w,h&ts=unix_ms",
			"spectrum":      "GET /api/sessions/{id}/spectrum.png",
			"stream":        "GET /api/sessions/{id}/stream (websocket)",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /api/health/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:     "healthy",
		Sessions:   s.sessions.Len(),
		UptimeSec:  time.Since(s.started).Seconds(),
		NATS:       s.nats,
		SampleRate: s.cfg.Session.SampleRateHz,
	})
}

// handleCreateSession handles POST /api/sessions
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, e, err := s.sessions.Create()
	if errors.Is(err, errTooManySessions) {
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		s.log.Errorf("Failed to create session: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}
	s.log.Infof("Created session %s", id)
	s.respondJSON(w, http.StatusCreated, s.sessionDTO(e))
}

// handleListSessions handles GET /api/sessions
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	entries := s.sessions.List()
	dtos := make([]SessionDTO, len(entries))
	for i, e := range entries {
		dtos[i] = s.sessionDTO(e)
	}
	s.respondJSON(w, http.StatusOK, ListSessionsResponse{Sessions: dtos, Count: len(dtos)})
}

// handleGetSession handles GET /api/sessions/{id}
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, s.sessionDTO(e))
}

// handleCloseSession handles DELETE /api/sessions/{id}
func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Close(r.PathValue("id")); err != nil {
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	s.log.Infof("Closed session %s", r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

// handleResetSession handles POST /api/sessions/{id}/reset
func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	e.monitor.Reset()
	s.respondJSON(w, http.StatusOK, s.sessionDTO(e))
}

// handleUploadFrame handles POST /api/sessions/{id}/frames. The body is a
// PNG or JPEG image.
func (s *Server) handleUploadFrame(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var hint *model.Rect
	if v := r.URL.Query().Get("face"); v != "" {
		rect, err := model.ParseRect(v)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		hint = &rect
	}

	ts := time.Now()
	if v := r.URL.Query().Get("ts"); v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil || ms < 0 {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid ts %q: want unix milliseconds", v))
			return
		}
		ts = time.UnixMilli(ms)
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxFrameBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, "frame too large")
			return
		}
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("read frame: %v", err))
		return
	}
	// Header first: the decoder allocates the full canvas up front.
	dims, _, err := image.DecodeConfig(bytes.NewReader(body))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("decode frame: %v", err))
		return
	}
	if int64(dims.Width)*int64(dims.Height) > MaxFramePixels {
		s.respondError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("frame %dx%d exceeds %d pixels", dims.Width, dims.Height, MaxFramePixels))
		return
	}
	img, format, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("decode frame: %v", err))
		return
	}
	s.log.Debugf("session %s: %s frame %v", e.monitor.ID(), format, img.Bounds().Size())

	started := e.monitor.Submit(frame.FromImage(img, ts), hint)
	if e.monitor.Stopped() {
		s.respondError(w, http.StatusGone, "session closed")
		return
	}
	s.respondJSON(w, http.StatusAccepted, FrameResponse{AnalysisStarted: started, Status: e.monitor.Status()})
}

// handleSpectrum handles GET /api/sessions/{id}/spectrum.png
func (s *Server) handleSpectrum(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	points := e.monitor.Spectrum()
	if points == nil {
		s.respondError(w, http.StatusConflict, "session has not buffered enough frames")
		return
	}
	sp := report.SpectrumPlot{Title: e.monitor.ID(), Points: points, Band: spectrum.HeartBand, MaxHz: 6}
	if latest, ok := e.monitor.Latest(); ok {
		sp.PeakHz = latest.PeakHz
	}
	w.Header().Set("Content-Type", "image/png")
	if err := sp.WritePNG(w); err != nil {
		s.log.Errorf("Failed to render spectrum: %v", err)
	}
}

// handleStream handles GET /api/sessions/{id}/stream. The first message is
// a status snapshot; readings follow as they are produced.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{conn: conn}
	e.hub.add(c)
	defer func() {
		e.hub.remove(c)
		conn.Close()
	}()

	st := e.monitor.Status()
	hello, _ := json.Marshal(StreamMessage{Type: "status", SessionID: st.ID, Status: &st})
	if err := c.write(websocket.TextMessage, hello); err != nil {
		return
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
