package pulsedna

import (
	"sync"
	"time"

	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/frame"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/model"
)

// Monitor runs a Session behind a lock so frames can be submitted from a
// capture goroutine while analysis runs in the background.
//
// At most one analysis is in flight. Frames that become Ready while one is
// running still feed the buffer but do not start a second pass. Readings
// from a pass that started before Reset or Stop are discarded.
type Monitor struct {
	id      string
	mu      sync.Mutex
	session *Session
	sink    ReadingSink

	gen     uint64
	busy    bool
	stopped bool
	latest  model.Reading
	hasLast bool
	dropped int
	emitted int

	wg sync.WaitGroup
}

// Status is a point-in-time view of a Monitor.
type Status struct {
	ID               string         `json:"id"`
	State            State          `json:"state"`
	Samples          int            `json:"samples"`
	BufferProgress   float64        `json:"buffer_progress"`
	AnalysisProgress float64        `json:"analysis_progress"`
	Analyzing        bool           `json:"analyzing"`
	Emitted          int            `json:"emitted"`
	Dropped          int            `json:"dropped"`
	Stats            Stats          `json:"stats"`
	ROI              *model.Rect    `json:"roi,omitempty"`
	Latest           *model.Reading `json:"latest,omitempty"`
}

// NewMonitor wraps s. sink may be nil.
func NewMonitor(id string, s *Session, sink ReadingSink) *Monitor {
	return &Monitor{id: id, session: s, sink: sink}
}

// ID is the identifier passed to the sink with every reading.
func (m *Monitor) ID() string { return m.id }

// Submit feeds one frame. It reports whether a background analysis was
// started for it.
func (m *Monitor) Submit(f *frame.Frame, hint *model.Rect) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return false
	}
	resets := m.session.stats.AutoResets
	sample, ok := m.session.sampleFrame(f, hint)
	if m.session.stats.AutoResets != resets {
		m.orphanLocked()
	}
	if !ok {
		return false
	}
	return m.feedLocked(sample, f.Timestamp)
}

// SubmitSample feeds a pre-sampled ROI average.
func (m *Monitor) SubmitSample(sample model.RGBSample, ts time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return false
	}
	return m.feedLocked(sample, ts)
}

func (m *Monitor) feedLocked(sample model.RGBSample, ts time.Time) bool {
	if !m.session.append(sample, ts) {
		return false
	}
	if m.busy {
		m.dropped++
		return false
	}
	w, ok := m.session.window()
	if !ok {
		return false
	}
	m.busy = true
	gen := m.gen
	m.wg.Add(1)
	go m.run(gen, w)
	return true
}

func (m *Monitor) run(gen uint64, w window) {
	defer m.wg.Done()
	r := m.session.analyze(w)

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return
	}
	m.busy = false
	if m.stopped {
		return
	}
	m.latest, m.hasLast = r, true
	m.session.last, m.session.hasLast = r, true
	m.session.stats.Readings++
	m.emitted++
	if m.sink != nil {
		if err := m.sink.Publish(m.id, r); err != nil {
			m.session.log.Warnf("publish reading for %s: %v", m.id, err)
		}
	}
}

// Reset clears the session. Any analysis in flight is orphaned.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orphanLocked()
	m.session.Reset()
}

// orphanLocked discards any analysis in flight and the latest reading.
func (m *Monitor) orphanLocked() {
	m.gen++
	m.busy = false
	m.latest, m.hasLast = model.Reading{}, false
}

// Stop rejects further frames and discards pending readings. It does not
// wait for the background goroutine; use Wait for that.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.stopped = true
	m.gen++
	m.busy = false
}

// Wait blocks until no analysis is running.
func (m *Monitor) Wait() {
	m.wg.Wait()
}

// Latest returns the newest reading emitted since the last reset.
func (m *Monitor) Latest() (model.Reading, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latest, m.hasLast
}

// Status snapshots the session and monitor counters.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := Status{
		ID:               m.id,
		State:            m.session.State(),
		Samples:          m.session.Len(),
		BufferProgress:   m.session.BufferProgress(),
		AnalysisProgress: m.session.AnalysisProgress(),
		Analyzing:        m.busy,
		Emitted:          m.emitted,
		Dropped:          m.dropped,
		Stats:            m.session.Stats(),
	}
	if r, ok := m.session.LastROI(); ok {
		st.ROI = &r
	}
	if m.hasLast {
		r := m.latest
		st.Latest = &r
	}
	return st
}

// Spectrum returns the current spectrum under the monitor lock.
func (m *Monitor) Spectrum() []model.SpectrumPoint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Spectrum()
}

// Stopped reports whether Stop has been called.
func (m *Monitor) Stopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}
