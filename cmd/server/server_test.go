package main

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"hash/crc32"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/himanishpuri/PulseDNA/internal/config"
	"github.com/himanishpuri/PulseDNA/pkg/logger"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/frame"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/sink"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Session.Capacity = 60
	cfg.Session.MinFill = 30
	return &cfg
}

func newTestServer(t *testing.T, publish pulsedna.ReadingSink) (*Server, *httptest.Server) {
	t.Helper()
	log := logger.New(logger.Config{Level: logger.ERROR, Output: io.Discard})
	s := NewServer(testConfig(), log, publish)
	ts := httptest.NewServer(s.setupRoutes())
	t.Cleanup(func() {
		ts.Close()
		s.sessions.Shutdown()
	})
	return s, ts
}

func encodePNG(t *testing.T, f *frame.Frame) []byte {
	t.Helper()
	img := &image.NRGBA{Pix: f.Pix, Stride: f.Stride, Rect: image.Rect(0, 0, f.Width, f.Height)}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// resizedPNG rewrites the IHDR dimensions of a valid PNG, leaving the
// pixel data untouched.
func resizedPNG(t *testing.T, data []byte, width, height uint32) []byte {
	t.Helper()
	out := bytes.Clone(data)
	// signature(8) length(4) "IHDR"(4) then width, height
	require.Equal(t, "IHDR", string(out[12:16]))
	binary.BigEndian.PutUint32(out[16:20], width)
	binary.BigEndian.PutUint32(out[20:24], height)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func createSession(t *testing.T, base string) SessionDTO {
	t.Helper()
	resp, err := http.Post(base+"/api/sessions", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var dto SessionDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&dto))
	return dto
}

func uploadFrames(t *testing.T, base, id string, g *synth.Generator, n int) FrameResponse {
	t.Helper()
	var last FrameResponse
	for i := 0; i < n; i++ {
		f := g.Next()
		url := base + "/api/sessions/" + id + "/frames?ts=" + strconv.FormatInt(f.Timestamp.UnixMilli(), 10)
		resp, err := http.Post(url, "image/png", bytes.NewReader(encodePNG(t, f)))
		require.NoError(t, err)
		require.Equal(t, http.StatusAccepted, resp.StatusCode)
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&last))
		resp.Body.Close()
	}
	return last
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealthAndRoot(t *testing.T) {
	_, ts := newTestServer(t, nil)

	var health map[string]string
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/health", &health))
	assert.Equal(t, "healthy", health["status"])

	var root map[string]any
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/", &root))
	assert.Equal(t, "PulseDNA API", root["service"])

	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/nope", nil))
}

func TestSessionLifecycle(t *testing.T) {
	_, ts := newTestServer(t, nil)

	dto := createSession(t, ts.URL)
	assert.Len(t, dto.ID, 36)
	assert.Equal(t, pulsedna.StateIdle, dto.Status.State)

	var list ListSessionsResponse
	getJSON(t, ts.URL+"/api/sessions", &list)
	assert.Equal(t, 1, list.Count)

	var got SessionDTO
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/sessions/"+dto.ID, &got))
	assert.Equal(t, dto.ID, got.ID)

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/sessions/"+dto.ID, nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/api/sessions/"+dto.ID, nil))
	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/api/sessions/not-a-uuid", nil))
}

func TestUploadFramesProducesReading(t *testing.T) {
	s, ts := newTestServer(t, nil)
	dto := createSession(t, ts.URL)
	g := synth.New(synth.DefaultConfig())

	last := uploadFrames(t, ts.URL, dto.ID, g, 30)
	assert.Equal(t, 30, last.Status.Samples)
	require.NotNil(t, last.Status.ROI)

	e, err := s.sessions.Get(dto.ID)
	require.NoError(t, err)
	e.monitor.Wait()

	var got SessionDTO
	getJSON(t, ts.URL+"/api/sessions/"+dto.ID, &got)
	require.NotNil(t, got.Status.Latest)
	assert.Equal(t, 30, got.Status.Latest.Samples)
	assert.Equal(t, pulsedna.StateReady, got.Status.State)

	resp, err := http.Get(ts.URL + "/api/sessions/" + dto.ID + "/spectrum.png")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	resp2, err := http.Post(ts.URL+"/api/sessions/"+dto.ID+"/reset", "", nil)
	require.NoError(t, err)
	defer resp2.Body.Close()
	var afterReset SessionDTO
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&afterReset))
	assert.Equal(t, pulsedna.StateIdle, afterReset.Status.State)
	assert.Nil(t, afterReset.Status.Latest)
}

func TestUploadFrameValidation(t *testing.T) {
	_, ts := newTestServer(t, nil)
	dto := createSession(t, ts.URL)
	base := ts.URL + "/api/sessions/" + dto.ID + "/frames"
	body := encodePNG(t, synth.New(synth.DefaultConfig()).Next())
	huge := resizedPNG(t, body, 20000, 20000)

	tests := []struct {
		name  string
		query string
		body  []byte
		code  int
	}{
		{"bad face", "?face=1,2", body, http.StatusBadRequest},
		{"bad ts", "?ts=yesterday", body, http.StatusBadRequest},
		{"not an image", "", []byte("hello"), http.StatusBadRequest},
		{"oversized canvas", "", huge, http.StatusRequestEntityTooLarge},
		{"with face", "?face=48,12,64,78", body, http.StatusAccepted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(base+tt.query, "image/png", bytes.NewReader(tt.body))
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.code, resp.StatusCode)
		})
	}

	resp, err := http.Post(ts.URL+"/api/sessions/00000000-0000-0000-0000-000000000000/frames", "image/png", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSpectrumBeforeData(t *testing.T) {
	_, ts := newTestServer(t, nil)
	dto := createSession(t, ts.URL)
	assert.Equal(t, http.StatusConflict, getJSON(t, ts.URL+"/api/sessions/"+dto.ID+"/spectrum.png", nil))
}

func TestStreamDeliversReadings(t *testing.T) {
	var (
		mu        sync.Mutex
		published []string
	)
	nats := sink.Func(func(id string, _ pulsedna.Reading) error {
		mu.Lock()
		published = append(published, id)
		mu.Unlock()
		return nil
	})
	s, ts := newTestServer(t, nats)
	dto := createSession(t, ts.URL)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/sessions/" + dto.ID + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var hello StreamMessage
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "status", hello.Type)
	require.NotNil(t, hello.Status)

	uploadFrames(t, ts.URL, dto.ID, synth.New(synth.DefaultConfig()), 30)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "reading", msg.Type)
	assert.Equal(t, dto.ID, msg.SessionID)
	require.NotNil(t, msg.Reading)
	assert.Equal(t, 30, msg.Reading.Samples)

	e, err := s.sessions.Get(dto.ID)
	require.NoError(t, err)
	e.monitor.Wait()
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{dto.ID}, published)
}

func TestCORS(t *testing.T) {
	h := corsMiddleware([]string{"https://app.example"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/sessions", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSplitOrigins(t *testing.T) {
	assert.Equal(t, []string{"*"}, splitOrigins(" * "))
	assert.Equal(t, []string{"a", "b"}, splitOrigins("a, b"))
}
