// Package synth renders synthetic camera frames of a face-like skin patch
// whose green channel pulses at a chosen heart rate. It drives the
// simulate command and end-to-end tests.
package synth

import (
	"math"
	"math/rand"
	"time"

	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/frame"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/model"
)

// Config describes the simulated subject and camera.
type Config struct {
	Width, Height int
	FPS           float64
	BPM           float64
	Amplitude     float64 // green modulation, intensity units
	Noise         float64 // per-frame gaussian noise on the skin colour
	Drift         float64 // brightness drift, intensity units per second
	Seed          int64
	Start         time.Time
}

// DefaultConfig is a 160×120 camera at 30 fps watching a 72 bpm subject.
func DefaultConfig() Config {
	return Config{
		Width:     160,
		Height:    120,
		FPS:       30,
		BPM:       72,
		Amplitude: 3,
		Noise:     0.5,
		Seed:      1,
		Start:     time.Unix(1_700_000_000, 0),
	}
}

var (
	background = [3]float64{60, 60, 60}
	skin       = [3]float64{200, 140, 110}
)

// Generator produces consecutive frames. Not safe for concurrent use.
type Generator struct {
	cfg     Config
	rng     *rand.Rand
	face    model.Rect
	texture []float64
	index   int
}

func New(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = def.Width, def.Height
	}
	if cfg.FPS <= 0 {
		cfg.FPS = def.FPS
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	face := model.Rect{
		X:      cfg.Width * 3 / 10,
		Y:      cfg.Height / 10,
		Width:  cfg.Width * 4 / 10,
		Height: cfg.Height * 13 / 20,
	}
	// Static skin texture so the patch has spatial variance.
	texture := make([]float64, face.Width*face.Height)
	for i := range texture {
		texture[i] = rng.Float64()*24 - 12
	}

	return &Generator{cfg: cfg, rng: rng, face: face, texture: texture}
}

// Face is the bounding box of the simulated face.
func (g *Generator) Face() model.Rect { return g.face }

// Index is the number of frames produced so far.
func (g *Generator) Index() int { return g.index }

// Next renders the next frame.
func (g *Generator) Next() *frame.Frame {
	w, h := g.cfg.Width, g.cfg.Height
	t := float64(g.index) / g.cfg.FPS
	ts := g.cfg.Start.Add(time.Duration(t * float64(time.Second)))
	g.index++

	pulse := g.cfg.Amplitude * math.Sin(2*math.Pi*g.cfg.BPM/60*t)
	shift := g.cfg.Drift*t + g.cfg.Noise*g.rng.NormFloat64()

	pix := make([]uint8, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			c, tex, green := background, 0.0, 0.0
			if x >= g.face.X && x < g.face.X+g.face.Width && y >= g.face.Y && y < g.face.Y+g.face.Height {
				c = skin
				tex = g.texture[(y-g.face.Y)*g.face.Width+(x-g.face.X)]
				green = pulse
			}
			pix[i] = clampByte(c[0] + tex + shift)
			pix[i+1] = clampByte(c[1] + tex + shift + green)
			pix[i+2] = clampByte(c[2] + tex + shift)
			pix[i+3] = 255
		}
	}
	return frame.New(pix, w, h, ts)
}

func clampByte(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}
