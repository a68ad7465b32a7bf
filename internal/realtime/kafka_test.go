package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civic/internal/platform/kafka/consumer"
	"civic/internal/platform/kafka/producer"
	"civic/internal/platform/metrics"
)

type recordingProducer struct {
	messages []*producer.Message
	err      error
}

func (p *recordingProducer) Produce(_ context.Context, msg *producer.Message) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

func TestKafkaPublisher(t *testing.T) {
	t.Run("keys records by table and id", func(t *testing.T) {
		prod := &recordingProducer{}
		pub := NewKafkaPublisher(prod, "civic.changes", nil)

		require.NoError(t, pub.Publish(context.Background(), change(TableDocuments, "doc-1")))
		require.Len(t, prod.messages, 1)
		msg := prod.messages[0]
		assert.Equal(t, "civic.changes", msg.Topic)
		assert.Equal(t, "documents:doc-1", string(msg.Key))
		assert.Equal(t, "UPDATE", msg.Headers["type"])

		var decoded Change
		require.NoError(t, json.Unmarshal(msg.Value, &decoded))
		assert.Equal(t, "doc-1", decoded.RecordID)
	})

	t.Run("counts failures", func(t *testing.T) {
		m := metrics.New(prometheus.NewRegistry())
		pub := NewKafkaPublisher(&recordingProducer{err: errors.New("broker down")}, "civic.changes", m)

		assert.Error(t, pub.Publish(context.Background(), change(TableDocuments, "doc-1")))
		assert.Equal(t, float64(1), promtestutil.ToFloat64(m.RealtimePublishErrors))
	})
}

func TestBridge_FeedsHub(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()
	sub := hub.Subscribe(TableEvents, 2)
	bridge := NewBridge(hub, nil)

	value, err := json.Marshal(Change{Table: TableEvents, Type: ChangeInsert, RecordID: "e1", OccurredAt: time.Now()})
	require.NoError(t, err)

	require.NoError(t, bridge.Handle(context.Background(), &consumer.Message{Value: value}))
	require.NoError(t, bridge.Handle(context.Background(), &consumer.Message{Value: []byte("not json")}))
	require.NoError(t, bridge.Handle(context.Background(), &consumer.Message{Value: []byte(`{}`)}))

	assert.Len(t, sub.C(), 1)
	assert.Equal(t, "e1", (<-sub.C()).RecordID)
}
