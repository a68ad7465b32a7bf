package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"civic/internal/platform/kafka/consumer"
	"civic/internal/platform/kafka/producer"
	"civic/internal/platform/metrics"
)

// Producer is the subset of the Kafka producer the publisher needs.
type Producer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// KafkaPublisher writes changes to a topic. Records are keyed by table and
// record ID so changes to one row stay ordered within a partition.
type KafkaPublisher struct {
	producer Producer
	topic    string
	metrics  *metrics.Metrics
}

func NewKafkaPublisher(p Producer, topic string, m *metrics.Metrics) *KafkaPublisher {
	return &KafkaPublisher{producer: p, topic: topic, metrics: m}
}

func (p *KafkaPublisher) Publish(ctx context.Context, change Change) error {
	value, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}
	err = p.producer.Produce(ctx, &producer.Message{
		Topic: p.topic,
		Key:   []byte(change.Table + ":" + change.RecordID),
		Value: value,
		Headers: map[string]string{
			"table": change.Table,
			"type":  string(change.Type),
		},
	})
	if err != nil {
		if p.metrics != nil {
			p.metrics.IncrementPublishErrors()
		}
		return err
	}
	return nil
}

// Bridge is a consumer.Handler that feeds changes read from Kafka into the
// local Hub.
type Bridge struct {
	hub    *Hub
	logger *slog.Logger
}

func NewBridge(hub *Hub, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{hub: hub, logger: logger}
}

// Handle never fails: an undecodable record is logged and skipped so it
// cannot wedge the partition.
func (b *Bridge) Handle(ctx context.Context, msg *consumer.Message) error {
	var change Change
	if err := json.Unmarshal(msg.Value, &change); err != nil || change.Table == "" {
		b.logger.WarnContext(ctx, "skipping malformed change record",
			"error", err,
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
		)
		return nil
	}
	b.hub.Broadcast(change)
	return nil
}

var _ consumer.Handler = (*Bridge)(nil)
