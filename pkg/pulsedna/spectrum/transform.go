package spectrum

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Transform computes the magnitude spectrum of a real signal of length n,
// returning bins 0..n/2-1. Bin k corresponds to k*rate/n Hz. The upper half
// of the spectrum of a real signal mirrors the lower half and is dropped.
type Transform interface {
	Name() string
	Magnitudes(x []float64) []float64
}

// DFT is the direct O(n²) summation. It is the reference the FFT
// implementations are tested against.
type DFT struct{}

func (DFT) Name() string { return "dft" }

func (DFT) Magnitudes(x []float64) []float64 {
	n := len(x)
	mag := make([]float64, n/2)
	for k := range mag {
		var re, im float64
		for i, v := range x {
			angle := -2 * math.Pi * float64(k) * float64(i) / float64(n)
			re += v * math.Cos(angle)
			im += v * math.Sin(angle)
		}
		mag[k] = math.Hypot(re, im)
	}
	return mag
}

// DSP wraps the go-dsp FFT. It handles any length (Bluestein for
// non-powers of two).
type DSP struct{}

func (DSP) Name() string { return "dsp" }

func (DSP) Magnitudes(x []float64) []float64 {
	return MagnitudeSpectrum(fft.FFTReal(x))
}

// Gonum wraps the gonum real FFT (FFTPACK port).
type Gonum struct{}

func (Gonum) Name() string { return "gonum" }

func (Gonum) Magnitudes(x []float64) []float64 {
	n := len(x)
	if n == 0 {
		return nil
	}
	coeff := fourier.NewFFT(n).Coefficients(nil, x)
	mag := make([]float64, n/2)
	for k := range mag {
		mag[k] = cmplx.Abs(coeff[k])
	}
	return mag
}

// MagnitudeSpectrum converts a complex spectrum into magnitudes of the
// positive-frequency half.
func MagnitudeSpectrum(spectrum []complex128) []float64 {
	half := len(spectrum) / 2
	mag := make([]float64, half)
	for i := 0; i < half; i++ {
		mag[i] = cmplx.Abs(spectrum[i])
	}
	return mag
}

// TransformByName resolves "dft", "dsp" or "gonum". An empty name selects
// the default.
func TransformByName(name string) (Transform, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "dsp", "fft":
		return DSP{}, nil
	case "dft":
		return DFT{}, nil
	case "gonum":
		return Gonum{}, nil
	}
	return nil, fmt.Errorf("unknown transform %q (want dft, dsp or gonum)", name)
}
