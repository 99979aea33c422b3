package main

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/sink"
)

var (
	errTooManySessions = errors.New("session limit reached")
	errSessionNotFound = errors.New("session not found")
)

type entry struct {
	monitor *pulsedna.Monitor
	hub     *Hub
	created time.Time
}

// Registry owns the live sessions keyed by UUID.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	max      int
	opts     func() []pulsedna.Option
	publish  pulsedna.ReadingSink // shared sink such as NATS; may be nil
}

func NewRegistry(max int, opts func() []pulsedna.Option, publish pulsedna.ReadingSink) *Registry {
	return &Registry{sessions: make(map[string]*entry), max: max, opts: opts, publish: publish}
}

func (reg *Registry) Create() (string, *entry, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.max > 0 && len(reg.sessions) >= reg.max {
		return "", nil, errTooManySessions
	}

	s, err := pulsedna.NewSession(reg.opts()...)
	if err != nil {
		return "", nil, err
	}
	id := uuid.NewString()
	hub := newHub()
	var out pulsedna.ReadingSink = hub
	if reg.publish != nil {
		out = sink.Multi{hub, reg.publish}
	}
	e := &entry{monitor: pulsedna.NewMonitor(id, s, out), hub: hub, created: time.Now()}
	reg.sessions[id] = e
	return id, e, nil
}

func (reg *Registry) Get(id string) (*entry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errSessionNotFound
	}
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	e, ok := reg.sessions[id]
	if !ok {
		return nil, errSessionNotFound
	}
	return e, nil
}

// Close stops the session, drops its subscribers and forgets it.
func (reg *Registry) Close(id string) error {
	reg.mu.Lock()
	e, ok := reg.sessions[id]
	delete(reg.sessions, id)
	reg.mu.Unlock()
	if !ok {
		return errSessionNotFound
	}
	e.monitor.Stop()
	e.hub.closeAll("session closed")
	return nil
}

// List returns sessions oldest first.
func (reg *Registry) List() []*entry {
	reg.mu.RLock()
	out := make([]*entry, 0, len(reg.sessions))
	for _, e := range reg.sessions {
		out = append(out, e)
	}
	reg.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].created.Before(out[j].created) })
	return out
}

func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.sessions)
}

// Shutdown closes every session and waits for in-flight analyses.
func (reg *Registry) Shutdown() {
	for _, e := range reg.List() {
		_ = reg.Close(e.monitor.ID())
		e.monitor.Wait()
	}
}
