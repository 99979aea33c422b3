package signal

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/stat"
)

func constant(n int, v float64) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = v
	}
	return x
}

func TestDetrendConstantSignal(t *testing.T) {
	out := Detrend(constant(300, 128))
	_, std := stat.PopMeanStdDev(out, nil)
	assert.Less(t, std, 1e-9)
}

func TestDetrendRemovesLinearDrift(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	x := make([]float64, 200)
	for i := range x {
		x[i] = 50 + 0.75*float64(i) + rng.NormFloat64()
	}

	out := Detrend(x)
	idx := make([]float64, len(out))
	for i := range idx {
		idx[i] = float64(i)
	}
	_, slope := stat.LinearRegression(idx, out, nil, false)
	assert.InDelta(t, 0, slope, 1e-9)
	assert.InDelta(t, 0, stat.Mean(out, nil), 1e-9)
}

func TestNormalizeContract(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	x := make([]float64, 500)
	for i := range x {
		x[i] = 120 + 7*math.Sin(float64(i)/9) + rng.NormFloat64()
	}

	out := Normalize(Detrend(x))
	mean, std := stat.PopMeanStdDev(out, nil)
	assert.InDelta(t, 0, mean, 1e-9)
	assert.InDelta(t, 1, std, 1e-9)
}

func TestNormalizeFlatIsZeroVector(t *testing.T) {
	want := make([]float64, 64)
	assert.Equal(t, want, Normalize(constant(64, 3.5)))
	assert.Equal(t, want, Condition(constant(64, 200)))
}

func TestWindowMatchesHamming(t *testing.T) {
	n := 16
	x := constant(n, 1)
	Window(x)

	want := make([]float64, n)
	for i := range want {
		want[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	if diff := cmp.Diff(want, x, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Hamming mismatch (-want +got):\n%s", diff)
	}
	assert.Less(t, x[0], x[n/2], "edges should be attenuated")
}

func TestConditionPreservesLengthAndInput(t *testing.T) {
	x := []float64{1, 4, 2, 8, 5, 7}
	orig := append([]float64(nil), x...)

	out := Condition(x)
	assert.Len(t, out, len(x))
	assert.Equal(t, orig, x)
	for _, v := range out {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
}

func TestConditionShortInputs(t *testing.T) {
	assert.Empty(t, Condition(nil))
	assert.Equal(t, []float64{0}, Condition([]float64{42}))
}
