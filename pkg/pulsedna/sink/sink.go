// Package sink delivers Monitor readings to the outside world.
package sink

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/model"
	"github.com/nats-io/nats.go"
)

// DefaultSubjectPrefix is prepended to the session id to form the NATS
// subject, e.g. "pulse.readings.3f2a...".
const DefaultSubjectPrefix = "pulse.readings"

// Func adapts a plain function to a reading sink.
type Func func(sessionID string, r model.Reading) error

func (f Func) Publish(sessionID string, r model.Reading) error {
	return f(sessionID, r)
}

// Publisher is the part of *nats.Conn the NATS sink needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATS publishes each reading as JSON on <prefix>.<sessionID>.
type NATS struct {
	pub    Publisher
	prefix string
	conn   *nats.Conn
}

// Connect dials url with reconnects enabled forever.
func Connect(url, name string) (*nats.Conn, error) {
	nc, err := nats.Connect(
		url,
		nats.Name(name),
		nats.Timeout(3*time.Second),
		nats.ReconnectWait(500*time.Millisecond),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats at %s: %w", url, err)
	}
	return nc, nil
}

// NewNATS dials url and returns a sink owning the connection.
func NewNATS(url, prefix string) (*NATS, error) {
	nc, err := Connect(url, "pulsedna")
	if err != nil {
		return nil, err
	}
	s := NewPublisherSink(nc, prefix)
	s.conn = nc
	return s, nil
}

// NewPublisherSink wraps an existing publisher. An empty prefix means
// DefaultSubjectPrefix.
func NewPublisherSink(pub Publisher, prefix string) *NATS {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATS{pub: pub, prefix: prefix}
}

func (s *NATS) Subject(sessionID string) string {
	return s.prefix + "." + sessionID
}

func (s *NATS) Publish(sessionID string, r model.Reading) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode reading: %w", err)
	}
	if err := s.pub.Publish(s.Subject(sessionID), data); err != nil {
		return fmt.Errorf("publish to %s: %w", s.Subject(sessionID), err)
	}
	return nil
}

// Close drains the connection if the sink dialled it.
func (s *NATS) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Drain()
}

// Multi fans a reading out to every sink, joining their errors.
type Multi []interface {
	Publish(sessionID string, r model.Reading) error
}

func (m Multi) Publish(sessionID string, r model.Reading) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Publish(sessionID, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
