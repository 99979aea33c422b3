package signal

import (
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// FlatEpsilon is the standard deviation below which a signal is treated as
// flat and normalised to zeros.
const FlatEpsilon = 1e-9

// Condition prepares a channel for frequency analysis: detrend, then
// normalise, then apply a Hamming window. The order is fixed; windowing a
// signal that still carries drift smears the pulse peak. The input is not
// modified and the output has the same length.
func Condition(x []float64) []float64 {
	out := Detrend(x)
	out = Normalize(out)
	Window(out)
	return out
}

// Detrend subtracts the ordinary least-squares line fitted over sample
// indices 0..n-1.
func Detrend(x []float64) []float64 {
	out := make([]float64, len(x))
	copy(out, x)
	if len(x) < 2 {
		if len(x) == 1 {
			out[0] = 0
		}
		return out
	}

	idx := make([]float64, len(x))
	for i := range idx {
		idx[i] = float64(i)
	}
	intercept, slope := stat.LinearRegression(idx, x, nil, false)
	for i := range out {
		out[i] -= intercept + slope*idx[i]
	}
	return out
}

// Normalize returns (x - mean) / stddev using the population standard
// deviation. A flat signal yields a zero vector.
func Normalize(x []float64) []float64 {
	out := make([]float64, len(x))
	if len(x) == 0 {
		return out
	}
	mean, std := stat.PopMeanStdDev(x, nil)
	if !(std > FlatEpsilon) {
		return out
	}
	copy(out, x)
	floats.AddConst(-mean, out)
	floats.Scale(1/std, out)
	return out
}

// Window applies a Hamming window, 0.54 - 0.46*cos(2*pi*i/(n-1)), in place.
func Window(x []float64) {
	if len(x) < 2 {
		return
	}
	window.Apply(x, window.Hamming)
}
