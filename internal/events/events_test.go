package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMQTT struct {
	topics   []string
	payloads [][]byte
	err      error
}

func (f *fakeMQTT) Publish(topic string, _ bool, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload)
	return nil
}

type failing struct{}

func (failing) Publish(context.Context, Event) error { return errors.New("boom") }

func TestStreamPublisher(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	p := NewStreamPublisher(client, "empa:events", 100)
	require.NoError(t, p.Publish(context.Background(), New(TypeAreaSaved, "p1", map[string]string{"area": "Cuello"})))

	msgs, err := client.XRange(context.Background(), "empa:events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, TypeAreaSaved, msgs[0].Values["type"])

	var e Event
	require.NoError(t, json.Unmarshal([]byte(msgs[0].Values["data"].(string)), &e))
	assert.Equal(t, "p1", e.PatientID)
}

func TestMQTTPublisher_Topic(t *testing.T) {
	f := &fakeMQTT{}
	p := NewMQTTPublisher(f, "clinic/empa/")
	require.NoError(t, p.Publish(context.Background(), New(TypeAssessmentScored, "p7", nil)))
	assert.Equal(t, []string{"clinic/empa/p7/assessment.scored"}, f.topics)

	assert.Equal(t, "empa/_/area.removed", NewMQTTPublisher(f, "").Topic(Event{Type: TypeAreaRemoved}))
}

func TestMulti_JoinsErrors(t *testing.T) {
	f := &fakeMQTT{}
	m := Multi{NewMQTTPublisher(f, "x"), failing{}}
	err := m.Publish(context.Background(), New(TypeAreaSaved, "p", nil))
	assert.ErrorContains(t, err, "boom")
	assert.Len(t, f.topics, 1, "other publishers still run")
}

func TestLogged_SwallowsErrors(t *testing.T) {
	l := NewLogged(failing{}, zap.NewNop())
	assert.NoError(t, l.Publish(context.Background(), New(TypeAreaSaved, "p", nil)))
	assert.NoError(t, Nop{}.Publish(context.Background(), Event{}))
}
