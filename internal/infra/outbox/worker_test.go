package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "babiloc/internal/app/outbox"
	"babiloc/internal/infra/storage/memory"
)

type published struct {
	topic   string
	key     string
	payload []byte
	headers map[string]string
}

type fakeProducer struct {
	fail bool
	sent []published
}

func (p *fakeProducer) Publish(_ context.Context, topic, key string, payload []byte, headers map[string]string) error {
	if p.fail {
		return errors.New("broker down")
	}
	p.sent = append(p.sent, published{topic: topic, key: key, payload: payload, headers: headers})
	return nil
}

func seed(t *testing.T, store *memory.Store) {
	t.Helper()
	box := memory.NewOutbox(store)
	require.NoError(t, box.Add(context.Background(), appoutbox.EventRecord{
		ID:         "evt-1",
		Name:       "reservation.created",
		Payload:    []byte(`{"ReservationID":"r1"}`),
		OccurredAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Aggregate:  "r1",
		Headers:    map[string]string{"traceparent": "00-abc-01"},
	}))
}

func TestProcessOncePublishesCloudEvent(t *testing.T) {
	store := memory.NewStore()
	seed(t, store)
	producer := &fakeProducer{}
	w := &Worker{Store: store, Producer: producer, TopicPrefix: "dev."}

	sent, err := w.ProcessOnce(context.Background())
	require.NoError(t, err)
	require.True(t, sent)
	require.Len(t, producer.sent, 1)

	msg := producer.sent[0]
	assert.Equal(t, "dev.reservation.events.v1", msg.topic)
	assert.Equal(t, "r1", msg.key)
	assert.Equal(t, "application/cloudevents+json", msg.headers["content-type"])

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(msg.payload, &envelope))
	assert.Equal(t, "reservation.created.v1", envelope["type"])
	assert.Equal(t, "evt-1", envelope["id"])
	assert.Equal(t, "00-abc-01", envelope["traceparent"])
	assert.Empty(t, store.Pending())

	sent, err = w.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, sent)
}

func TestProcessOnceSchedulesRetryOnFailure(t *testing.T) {
	store := memory.NewStore()
	seed(t, store)
	w := &Worker{Store: store, Producer: &fakeProducer{fail: true}, Backoff: []time.Duration{time.Hour}}

	sent, err := w.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, sent)

	pending := store.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].Attempts)

	// Backoff not elapsed yet.
	sent, err = w.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, sent)
}

func TestRunRequiresDependencies(t *testing.T) {
	err := (&Worker{}).Run(context.Background())
	assert.ErrorIs(t, err, ErrWorkerNotConfigured)
}
