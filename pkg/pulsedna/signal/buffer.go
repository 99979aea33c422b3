package signal

import (
	"fmt"
	"time"

	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/model"
)

// Tunables
const (
	DefaultCapacity = 900 // ~30 s at 30 fps
	DefaultMinFill  = 300 // ~10 s at 30 fps
)

// Channel selects one colour channel of the buffer.
type Channel int

const (
	Red Channel = iota
	Green
	Blue
)

// Buffer is a fixed-capacity rolling window of RGB samples. The r, g, b and
// timestamp sequences always have the same length; once full, every Add
// evicts the oldest entry from all of them.
//
// Buffer is not safe for concurrent use.
type Buffer struct {
	capacity int
	minFill  int

	// ring storage; head is the index of the oldest sample
	r, g, b []float64
	ts      []time.Time
	head    int
	n       int
}

// NewBuffer returns an empty buffer. capacity must be >= minFill >= 1.
func NewBuffer(capacity, minFill int) (*Buffer, error) {
	if minFill < 1 {
		return nil, fmt.Errorf("minimum fill must be positive, got %d", minFill)
	}
	if capacity < minFill {
		return nil, fmt.Errorf("capacity %d is smaller than minimum fill %d", capacity, minFill)
	}
	return &Buffer{
		capacity: capacity,
		minFill:  minFill,
		r:        make([]float64, capacity),
		g:        make([]float64, capacity),
		b:        make([]float64, capacity),
		ts:       make([]time.Time, capacity),
	}, nil
}

// Add appends one sample, evicting the oldest when at capacity.
func (buf *Buffer) Add(s model.RGBSample, ts time.Time) {
	i := (buf.head + buf.n) % buf.capacity
	if buf.n == buf.capacity {
		i = buf.head
		buf.head = (buf.head + 1) % buf.capacity
	} else {
		buf.n++
	}
	buf.r[i], buf.g[i], buf.b[i], buf.ts[i] = s.R, s.G, s.B, ts
}

// Len is the number of buffered samples.
func (buf *Buffer) Len() int { return buf.n }

// Capacity is the most samples kept before the oldest is evicted.
func (buf *Buffer) Capacity() int { return buf.capacity }

// MinFill is the sample count required for analysis.
func (buf *Buffer) MinFill() int { return buf.minFill }

// BufferProgress is min(len/minFill, 1).
func (buf *Buffer) BufferProgress() float64 {
	return min(float64(buf.n)/float64(buf.minFill), 1)
}

// AnalysisProgress is min(len/capacity, 1).
func (buf *Buffer) AnalysisProgress() float64 {
	return min(float64(buf.n)/float64(buf.capacity), 1)
}

// HasMinimumData reports whether Len has reached MinFill.
func (buf *Buffer) HasMinimumData() bool {
	return buf.n >= buf.minFill
}

// Reset drops every sample.
func (buf *Buffer) Reset() {
	buf.head, buf.n = 0, 0
	clear(buf.ts)
}

// Channel returns a copy of one channel, oldest first.
func (buf *Buffer) Channel(c Channel) []float64 {
	var src []float64
	switch c {
	case Red:
		src = buf.r
	case Blue:
		src = buf.b
	default:
		src = buf.g
	}
	out := make([]float64, buf.n)
	for i := range out {
		out[i] = src[(buf.head+i)%buf.capacity]
	}
	return out
}

// Green is shorthand for Channel(Green), the channel carrying most of the
// pulsatile signal.
func (buf *Buffer) Green() []float64 {
	return buf.Channel(Green)
}

// Samples returns a copy of the buffered samples, oldest first.
func (buf *Buffer) Samples() []model.RGBSample {
	out := make([]model.RGBSample, buf.n)
	for i := range out {
		j := (buf.head + i) % buf.capacity
		out[i] = model.RGBSample{R: buf.r[j], G: buf.g[j], B: buf.b[j]}
	}
	return out
}

// Latest returns the timestamp of the newest sample.
func (buf *Buffer) Latest() time.Time {
	if buf.n == 0 {
		return time.Time{}
	}
	return buf.ts[(buf.head+buf.n-1)%buf.capacity]
}

// EstimatedRate derives the sampling rate from the timestamps of the
// buffered samples. It returns false when there are fewer than two samples
// or the timestamps do not span a positive interval.
func (buf *Buffer) EstimatedRate() (float64, bool) {
	if buf.n < 2 {
		return 0, false
	}
	first := buf.ts[buf.head]
	last := buf.Latest()
	if first.IsZero() || last.IsZero() {
		return 0, false
	}
	span := last.Sub(first).Seconds()
	if span <= 0 {
		return 0, false
	}
	return float64(buf.n-1) / span, true
}
