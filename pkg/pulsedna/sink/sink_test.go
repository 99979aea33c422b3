package sink

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return f.err
}

var reading = model.Reading{
	BPM:        72,
	Confidence: 0.8,
	SNR:        8,
	Quality:    model.QualityGood,
	Timestamp:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	Samples:    300,
}

func TestNATSPublishesJSON(t *testing.T) {
	pub := &fakePublisher{}
	s := NewPublisherSink(pub, "")

	require.NoError(t, s.Publish("abc", reading))
	require.Len(t, pub.subjects, 1)
	assert.Equal(t, "pulse.readings.abc", pub.subjects[0])

	var got map[string]any
	require.NoError(t, json.Unmarshal(pub.payloads[0], &got))
	assert.Equal(t, float64(72), got["bpm"])
	assert.Equal(t, "good", got["quality"])
}

func TestNATSWrapsPublishError(t *testing.T) {
	boom := errors.New("no responders")
	s := NewPublisherSink(&fakePublisher{err: boom}, "vitals")

	err := s.Publish("x", reading)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "vitals.x")
	assert.NoError(t, s.Close())
}

func TestMultiJoinsErrors(t *testing.T) {
	var calls []string
	ok := Func(func(id string, _ model.Reading) error {
		calls = append(calls, "ok:"+id)
		return nil
	})
	bad := Func(func(id string, _ model.Reading) error {
		calls = append(calls, "bad:"+id)
		return errors.New("bad")
	})

	err := Multi{ok, nil, bad}.Publish("s1", reading)
	assert.EqualError(t, err, "bad")
	assert.Equal(t, []string{"ok:s1", "bad:s1"}, calls)

	assert.NoError(t, Multi{ok}.Publish("s2", reading))
}
