package frame

import "github.com/himanishpuri/PulseDNA/pkg/pulsedna/model"

// DefaultAlphaThreshold is the minimum alpha a pixel needs to be sampled.
const DefaultAlphaThreshold = 128

// Sampler averages the colour of a region of interest.
type Sampler struct {
	AlphaThreshold uint8
}

// Sample averages the ROI with the default alpha threshold.
func Sample(f *Frame, roi model.Rect) (model.RGBSample, bool) {
	return Sampler{AlphaThreshold: DefaultAlphaThreshold}.Sample(f, roi)
}

// Sample returns the mean R, G, B of the opaque pixels inside roi. It
// returns false when the ROI has no area inside the frame or every pixel
// is below the alpha threshold.
func (s Sampler) Sample(f *Frame, roi model.Rect) (model.RGBSample, bool) {
	if !f.Valid() {
		return model.RGBSample{}, false
	}
	r, ok := roi.Clamp(f.Width, f.Height)
	if !ok {
		return model.RGBSample{}, false
	}

	var sumR, sumG, sumB uint64
	var n uint64
	for y := r.Y; y < r.Y+r.Height; y++ {
		row := f.Pix[y*f.Stride+r.X*4 : y*f.Stride+(r.X+r.Width)*4]
		for i := 0; i < len(row); i += 4 {
			if row[i+3] < s.AlphaThreshold {
				continue
			}
			sumR += uint64(row[i])
			sumG += uint64(row[i+1])
			sumB += uint64(row[i+2])
			n++
		}
	}
	if n == 0 {
		return model.RGBSample{}, false
	}

	return model.RGBSample{
		R: float64(sumR) / float64(n),
		G: float64(sumG) / float64(n),
		B: float64(sumB) / float64(n),
	}, true
}
