package roi

import (
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/frame"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/model"
)

// Skin heuristic in RGB space.
const (
	SkinMinRedGreenDiff = 15
	SkinMinLuma         = 40
	SkinMaxLuma         = 230
)

// Generator produces candidate rectangles for a width×height frame, best
// guess first.
type Generator func(width, height int) []model.Rect

// Centered yields rectangles centred horizontally at vertical position cy
// (fraction of height), one per size (fraction of the shorter side).
func Centered(cy float64, sizes ...float64) Generator {
	return Offset(0.5, cy, sizes...)
}

// Offset yields rectangles centred at (cx, cy), both fractions of the frame.
func Offset(cx, cy float64, sizes ...float64) Generator {
	return func(width, height int) []model.Rect {
		side := float64(min(width, height))
		out := make([]model.Rect, 0, len(sizes))
		for _, s := range sizes {
			w := int(side * s)
			h := int(side * s * 0.75)
			if w <= 0 || h <= 0 {
				continue
			}
			out = append(out, model.Rect{
				X:      int(float64(width)*cx) - w/2,
				Y:      int(float64(height)*cy) - h/2,
				Width:  w,
				Height: h,
			})
		}
		return out
	}
}

// Score summarises how face-like a rectangle looks.
type Score struct {
	Variance     float64 // luminance variance
	SkinFraction float64 // share of opaque pixels passing the skin test
}

// Scorer rates a candidate rectangle.
type Scorer interface {
	Score(f *frame.Frame, r model.Rect) Score
}

// PixelScorer scans every Step-th pixel in both directions.
type PixelScorer struct {
	Step           int
	AlphaThreshold uint8
}

func (s PixelScorer) Score(f *frame.Frame, r model.Rect) Score {
	step := max(s.Step, 1)
	var n, skin float64
	var sum, sumSq float64
	for y := r.Y; y < r.Y+r.Height; y += step {
		for x := r.X; x < r.X+r.Width; x += step {
			red, green, blue, alpha := f.At(x, y)
			if alpha < s.AlphaThreshold {
				continue
			}
			l := luma(red, green, blue)
			sum += l
			sumSq += l * l
			n++
			if IsSkin(red, green, blue) {
				skin++
			}
		}
	}
	if n == 0 {
		return Score{}
	}
	mean := sum / n
	return Score{
		Variance:     max(sumSq/n-mean*mean, 0),
		SkinFraction: skin / n,
	}
}

// IsSkin: red dominant, red clearly above green, luminance mid-range.
func IsSkin(r, g, b uint8) bool {
	if r <= g || r <= b || int(r)-int(g) < SkinMinRedGreenDiff {
		return false
	}
	l := luma(r, g, b)
	return l >= SkinMinLuma && l <= SkinMaxLuma
}

func luma(r, g, b uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

// HeadRegion searches the plausible head area when no face hint exists.
// Generators are consulted in order; every candidate is scored and the best
// one clearing both minimums wins (earlier candidates win ties).
type HeadRegion struct {
	Generators      []Generator
	Scorer          Scorer
	MinVariance     float64
	MinSkinFraction float64
	// VarianceNorm is the variance that counts as fully textured.
	VarianceNorm float64
}

func NewHeadRegion() *HeadRegion {
	return &HeadRegion{
		Generators: []Generator{
			Centered(0.30, 0.20, 0.14, 0.28),
			Centered(0.40, 0.20, 0.14),
			Offset(0.40, 0.35, 0.16),
			Offset(0.60, 0.35, 0.16),
		},
		Scorer:          PixelScorer{Step: 2, AlphaThreshold: frame.DefaultAlphaThreshold},
		MinVariance:     4,
		MinSkinFraction: 0.35,
		VarianceNorm:    400,
	}
}

func (*HeadRegion) Name() string { return "head-region" }

func (h *HeadRegion) Locate(f *frame.Frame, _ *model.Rect) (model.Rect, bool) {
	var best model.Rect
	bestScore := -1.0
	for _, gen := range h.Generators {
		for _, c := range gen(f.Width, f.Height) {
			c, ok := c.Clamp(f.Width, f.Height)
			if !ok {
				continue
			}
			s := h.Scorer.Score(f, c)
			if s.Variance < h.MinVariance || s.SkinFraction < h.MinSkinFraction {
				continue
			}
			if v := h.rank(s); v > bestScore {
				best, bestScore = c, v
			}
		}
	}
	return best, bestScore >= 0
}

func (h *HeadRegion) rank(s Score) float64 {
	norm := h.VarianceNorm
	if norm <= 0 {
		norm = 1
	}
	return min(s.Variance/norm, 1) + s.SkinFraction
}
