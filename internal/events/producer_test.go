package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scythe504/gyeongdo-backend/internal"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
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

func TestPublishKeysByRoom(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, topic: "games"}

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ev := internal.LifecycleEvent{
		Type:   internal.LifecycleGameEnded,
		RoomID: "R1",
		At:     at,
		Reason: internal.ReasonPoliceWin,
		Winner: internal.WinnerPolice,
	}
	require.NoError(t, p.Publish(context.Background(), ev))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "R1", string(msg.Key))
	assert.Equal(t, at, msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, internal.LifecycleGameEnded, string(msg.Headers[0].Value))

	var decoded internal.LifecycleEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, internal.WinnerPolice, decoded.Winner)
	assert.Equal(t, internal.ReasonPoliceWin, decoded.Reason)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishReturnsWriterError(t *testing.T) {
	p := &Producer{writer: &fakeWriter{err: errors.New("broker down")}}
	err := p.Publish(context.Background(), internal.LifecycleEvent{Type: internal.LifecycleGameStarted, RoomID: "R1"})
	assert.EqualError(t, err, "broker down")
}
