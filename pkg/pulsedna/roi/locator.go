package roi

import (
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/frame"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/model"
)

// Strategy proposes a region of interest for one frame. hint is an
// optional face bounding box from an external detector.
type Strategy interface {
	Name() string
	Locate(f *frame.Frame, hint *model.Rect) (model.Rect, bool)
}

// Locator tries its strategies in priority order and returns the first
// rectangle that survives clamping to the frame.
type Locator struct {
	Strategies []Strategy
}

// NewLocator returns the default chain: forehead band from the face hint,
// then the scored head-region search.
func NewLocator() *Locator {
	return &Locator{Strategies: []Strategy{NewFaceBand(), NewHeadRegion()}}
}

// Locate returns a rectangle fully inside the frame with positive area.
func (l *Locator) Locate(f *frame.Frame, hint *model.Rect) (model.Rect, bool) {
	r, _, ok := l.LocateNamed(f, hint)
	return r, ok
}

// LocateNamed is Locate plus the name of the strategy that produced the ROI.
func (l *Locator) LocateNamed(f *frame.Frame, hint *model.Rect) (model.Rect, string, bool) {
	if !f.Valid() {
		return model.Rect{}, "", false
	}
	for _, s := range l.Strategies {
		r, ok := s.Locate(f, hint)
		if !ok {
			continue
		}
		if clamped, ok := r.Clamp(f.Width, f.Height); ok {
			return clamped, s.Name(), true
		}
	}
	return model.Rect{}, "", false
}

// FaceBand derives a forehead band from a face bounding box: horizontally
// centred, below the hairline and above the eyebrows.
type FaceBand struct {
	WidthFrac  float64 // of face width
	TopFrac    float64 // offset from the face top, of face height
	HeightFrac float64 // of face height
}

func NewFaceBand() FaceBand {
	return FaceBand{WidthFrac: 0.65, TopFrac: 0.10, HeightFrac: 0.12}
}

func (FaceBand) Name() string { return "face-band" }

func (b FaceBand) Locate(_ *frame.Frame, hint *model.Rect) (model.Rect, bool) {
	if hint == nil || hint.Empty() {
		return model.Rect{}, false
	}
	w := int(float64(hint.Width)*b.WidthFrac + 0.5)
	h := max(int(float64(hint.Height)*b.HeightFrac+0.5), 1)
	if w <= 0 {
		return model.Rect{}, false
	}
	return model.Rect{
		X:      hint.X + (hint.Width-w)/2,
		Y:      hint.Y + int(float64(hint.Height)*b.TopFrac+0.5),
		Width:  w,
		Height: h,
	}, true
}
