package frame

import (
	"image"
	"image/draw"
	"time"
)

// Frame is a borrowed RGBA pixel buffer. Pixels are non-premultiplied,
// 4 bytes each, rows Stride bytes apart (canvas ImageData layout).
type Frame struct {
	Pix       []uint8
	Width     int
	Height    int
	Stride    int
	Timestamp time.Time
}

// New wraps a tightly packed RGBA buffer.
func New(pix []uint8, width, height int, ts time.Time) *Frame {
	return &Frame{Pix: pix, Width: width, Height: height, Stride: width * 4, Timestamp: ts}
}

// FromImage copies any decoded image into a Frame.
func FromImage(img image.Image, ts time.Time) *Frame {
	b := img.Bounds()
	nrgba, ok := img.(*image.NRGBA)
	if !ok || b.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	}
	return &Frame{
		Pix:       nrgba.Pix,
		Width:     b.Dx(),
		Height:    b.Dy(),
		Stride:    nrgba.Stride,
		Timestamp: ts,
	}
}

// Valid reports whether the buffer is large enough for the declared size.
func (f *Frame) Valid() bool {
	if f == nil || f.Width <= 0 || f.Height <= 0 || f.Stride < f.Width*4 {
		return false
	}
	return len(f.Pix) >= (f.Height-1)*f.Stride+f.Width*4
}

// At returns the RGBA components of pixel (x, y). The caller keeps x, y in bounds.
func (f *Frame) At(x, y int) (r, g, b, a uint8) {
	i := y*f.Stride + x*4
	p := f.Pix[i : i+4 : i+4]
	return p[0], p[1], p[2], p[3]
}
