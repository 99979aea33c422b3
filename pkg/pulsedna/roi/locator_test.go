package roi

import (
	"testing"
	"time"

	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/frame"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/model"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grayFrame(w, h int, v uint8) *frame.Frame {
	pix := make([]uint8, w*h*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = v, v, v, 255
	}
	return frame.New(pix, w, h, time.Time{})
}

func contains(outer, inner model.Rect) bool {
	return inner.X >= outer.X && inner.Y >= outer.Y &&
		inner.X+inner.Width <= outer.X+outer.Width &&
		inner.Y+inner.Height <= outer.Y+outer.Height
}

func TestFaceBandGeometry(t *testing.T) {
	hint := model.Rect{X: 100, Y: 50, Width: 200, Height: 240}
	r, ok := NewFaceBand().Locate(nil, &hint)
	require.True(t, ok)

	assert.Equal(t, model.Rect{X: 135, Y: 74, Width: 130, Height: 29}, r)
	cx, _ := r.Center()
	hx, _ := hint.Center()
	assert.Equal(t, hx, cx)
}

func TestFaceBandNeedsHint(t *testing.T) {
	_, ok := NewFaceBand().Locate(nil, nil)
	assert.False(t, ok)

	_, ok = NewFaceBand().Locate(nil, &model.Rect{X: 5, Y: 5})
	assert.False(t, ok)
}

func TestLocatorClampsHintedROI(t *testing.T) {
	f := grayFrame(100, 100, 90)
	hint := model.Rect{X: 60, Y: -20, Width: 80, Height: 100}

	r, name, ok := NewLocator().LocateNamed(f, &hint)
	require.True(t, ok)
	assert.Equal(t, "face-band", name)
	assert.True(t, contains(model.Rect{Width: 100, Height: 100}, r))
	assert.Greater(t, r.Area(), 0)
}

func TestLocatorHintOutsideFrameFallsBack(t *testing.T) {
	g := synth.New(synth.DefaultConfig())
	f := g.Next()
	hint := model.Rect{X: 1000, Y: 1000, Width: 50, Height: 50}

	r, name, ok := NewLocator().LocateNamed(f, &hint)
	require.True(t, ok)
	assert.Equal(t, "head-region", name)
	assert.True(t, contains(g.Face(), r))
}

func TestHeadRegionFindsSyntheticFace(t *testing.T) {
	g := synth.New(synth.DefaultConfig())
	f := g.Next()

	r, ok := NewLocator().Locate(f, nil)
	require.True(t, ok)
	assert.True(t, contains(g.Face(), r), "roi %v outside face %v", r, g.Face())
}

func TestHeadRegionRejectsFlatBackground(t *testing.T) {
	_, ok := NewLocator().Locate(grayFrame(160, 120, 128), nil)
	assert.False(t, ok)
}

func TestLocatorInvalidFrame(t *testing.T) {
	hint := model.Rect{X: 0, Y: 0, Width: 10, Height: 10}
	_, ok := NewLocator().Locate(nil, &hint)
	assert.False(t, ok)

	_, ok = NewLocator().Locate(&frame.Frame{}, &hint)
	assert.False(t, ok)
}

type fixedStrategy struct{ r model.Rect }

func (fixedStrategy) Name() string { return "fixed" }
func (s fixedStrategy) Locate(*frame.Frame, *model.Rect) (model.Rect, bool) {
	return s.r, true
}

func TestLocatorStrategyPriority(t *testing.T) {
	f := grayFrame(50, 50, 100)
	l := &Locator{Strategies: []Strategy{
		fixedStrategy{r: model.Rect{X: 60, Y: 60, Width: 5, Height: 5}}, // clamps to nothing
		fixedStrategy{r: model.Rect{X: 1, Y: 2, Width: 3, Height: 4}},
		NewFaceBand(),
	}}

	r, ok := l.Locate(f, &model.Rect{X: 0, Y: 0, Width: 50, Height: 50})
	require.True(t, ok)
	assert.Equal(t, model.Rect{X: 1, Y: 2, Width: 3, Height: 4}, r)
}

func TestIsSkin(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		want    bool
	}{
		{"typical skin", 200, 140, 110, true},
		{"dark skin", 110, 75, 55, true},
		{"gray", 128, 128, 128, false},
		{"green dominant", 90, 160, 80, false},
		{"red barely above green", 150, 140, 100, false},
		{"near black", 40, 10, 5, false},
		{"near white", 255, 235, 230, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSkin(tt.r, tt.g, tt.b))
		})
	}
}

func TestPixelScorer(t *testing.T) {
	f := grayFrame(10, 10, 100)
	s := PixelScorer{Step: 1}.Score(f, model.Rect{Width: 10, Height: 10})
	assert.Zero(t, s.Variance)
	assert.Zero(t, s.SkinFraction)
}
