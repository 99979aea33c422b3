//go:build js && wasm

package main

import (
	"fmt"
	"io"
	"syscall/js"
	"time"

	"github.com/google/uuid"
	"github.com/himanishpuri/PulseDNA/pkg/logger"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/frame"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/model"
)

// Error codes returned to JavaScript
const (
	ErrorNone = iota
	ErrorInvalidArgs
	ErrorUnknownSession
	ErrorProcessing
)

// The browser drives each session from its requestAnimationFrame loop, so
// all calls arrive on the single JS thread.
var sessions = map[string]*pulsedna.Session{}

var quiet = logger.New(logger.Config{Level: logger.ERROR, Output: io.Discard})

// pulseCreateSession() -> {error, data: id}
func createSession(this js.Value, args []js.Value) any {
	s, err := pulsedna.NewSession(pulsedna.WithLogger(quiet), pulsedna.WithAutoSampleRate(true))
	if err != nil {
		return makeErrorResponse(ErrorProcessing, err.Error())
	}
	id := uuid.NewString()
	sessions[id] = s
	return makeResponse(id)
}

// pulseOnFrame(id, rgba, width, height, tsMs, [x, y, w, h]?) ->
// {error, data: {state, bufferProgress, analysisProgress, reading?}}
func onFrame(this js.Value, args []js.Value) any {
	if len(args) < 5 {
		return makeErrorResponse(ErrorInvalidArgs, "Expected at least 5 arguments: id, rgba, width, height, tsMs")
	}
	s, resp := lookup(args[0])
	if s == nil {
		return resp
	}

	pixJS := args[1]
	if pixJS.Type() != js.TypeObject {
		return makeErrorResponse(ErrorInvalidArgs, "rgba must be a Uint8Array or Uint8ClampedArray")
	}
	for i, name := range []string{"width", "height", "tsMs"} {
		if args[2+i].Type() != js.TypeNumber {
			return makeErrorResponse(ErrorInvalidArgs, name+" must be a number")
		}
	}
	width, height := args[2].Int(), args[3].Int()
	if width <= 0 || height <= 0 {
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("Invalid frame size %dx%d", width, height))
	}
	if want := width * height * 4; pixJS.Length() != want {
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("rgba has %d bytes, expected %d", pixJS.Length(), want))
	}

	var hint *model.Rect
	if len(args) > 5 && args[5].Type() == js.TypeObject && args[5].Length() == 4 {
		hint = &model.Rect{X: args[5].Index(0).Int(), Y: args[5].Index(1).Int(), Width: args[5].Index(2).Int(), Height: args[5].Index(3).Int()}
	}

	pix := make([]uint8, pixJS.Length())
	js.CopyBytesToGo(pix, pixJS)
	ts := time.UnixMilli(int64(args[4].Float()))

	reading, ok := s.OnFrame(frame.New(pix, width, height, ts), hint)
	data := progressObject(s)
	if ok {
		data.Set("reading", readingObject(reading))
	}
	return makeResponse(data)
}

// pulseProgress(id) -> {error, data: {state, bufferProgress, analysisProgress}}
func progress(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return makeErrorResponse(ErrorInvalidArgs, "Expected 1 argument: id")
	}
	s, resp := lookup(args[0])
	if s == nil {
		return resp
	}
	return makeResponse(progressObject(s))
}

// pulseReset(id) -> {error, data: true}
func reset(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return makeErrorResponse(ErrorInvalidArgs, "Expected 1 argument: id")
	}
	s, resp := lookup(args[0])
	if s == nil {
		return resp
	}
	s.Reset()
	return makeResponse(true)
}

// pulseCloseSession(id) -> {error, data: true}
func closeSession(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return makeErrorResponse(ErrorInvalidArgs, "Expected 1 argument: id")
	}
	if _, resp := lookup(args[0]); resp.Get("error").Int() != ErrorNone {
		return resp
	}
	delete(sessions, args[0].String())
	return makeResponse(true)
}

func lookup(idJS js.Value) (*pulsedna.Session, js.Value) {
	if idJS.Type() != js.TypeString {
		return nil, makeErrorResponse(ErrorInvalidArgs, "id must be a string")
	}
	s, ok := sessions[idJS.String()]
	if !ok {
		return nil, makeErrorResponse(ErrorUnknownSession, "Unknown session "+idJS.String())
	}
	return s, makeResponse(js.Null())
}

func progressObject(s *pulsedna.Session) js.Value {
	obj := js.Global().Get("Object").New()
	obj.Set("state", s.State().String())
	obj.Set("bufferProgress", s.BufferProgress())
	obj.Set("analysisProgress", s.AnalysisProgress())
	if r, ok := s.LastROI(); ok {
		obj.Set("roi", js.ValueOf([]any{r.X, r.Y, r.Width, r.Height}))
	}
	return obj
}

func readingObject(r model.Reading) js.Value {
	obj := js.Global().Get("Object").New()
	obj.Set("bpm", r.BPM)
	obj.Set("confidence", r.Confidence)
	obj.Set("snr", r.SNR)
	obj.Set("quality", r.Quality.String())
	obj.Set("timestamp", r.Timestamp.UnixMilli())
	obj.Set("sampleRateHz", r.SampleRateHz)
	return obj
}

func makeResponse(data any) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", ErrorNone)
	result.Set("data", data)
	return result
}

func makeErrorResponse(errorCode int, message string) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", errorCode)
	result.Set("data", message)
	return result
}

func main() {
	console := js.Global().Get("console")
	logf := func(method, msg string) {
		if !console.IsUndefined() {
			console.Call(method, msg)
		}
	}
	logf("log", "🔧 PulseDNA WASM module initializing...")

	done := make(chan struct{})

	js.Global().Set("pulseCreateSession", js.FuncOf(createSession))
	js.Global().Set("pulseOnFrame", js.FuncOf(onFrame))
	js.Global().Set("pulseProgress", js.FuncOf(progress))
	js.Global().Set("pulseReset", js.FuncOf(reset))
	js.Global().Set("pulseCloseSession", js.FuncOf(closeSession))

	window := js.Global().Get("window")
	if window.IsUndefined() {
		logf("error", "❌ window object is undefined!")
	} else {
		event := js.Global().Get("CustomEvent").New("wasmReady", js.Global().Get("Object").New())
		window.Call("dispatchEvent", event)
	}

	logf("log", "✅ PulseDNA WASM module loaded and ready")
	<-done
}
