package mykafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestProducer_PublishEvent(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{w: w}

	Emit(context.Background(), p, TopicPosts, Event{Type: PostCreated, ID: 7, ActorID: 1})

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, TopicPosts, msg.Topic)
	assert.Equal(t, "7", string(msg.Key))

	var got map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, PostCreated, got["type"])
	assert.EqualValues(t, 7, got["id"])
	assert.EqualValues(t, 1, got["actorId"])
	assert.NotEmpty(t, got["at"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestEmit_SwallowsWriterErrors(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := &Producer{w: w}

	err := p.PublishEvent(context.Background(), TopicUsers, "1", Event{Type: UserSignedUp, ID: 1})
	require.Error(t, err)

	assert.NotPanics(t, func() {
		Emit(context.Background(), p, TopicUsers, Event{Type: UserSignedUp, ID: 1})
		Emit(context.Background(), nil, TopicUsers, Event{Type: UserSignedUp, ID: 1})
		Emit(context.Background(), Noop{}, TopicUsers, Event{Type: UserSignedUp, ID: 1})
	})
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer(nil)
	require.Error(t, err)

	p, err := NewProducer([]string{"localhost:9092"})
	require.NoError(t, err)
	require.NoError(t, p.Close())
}
