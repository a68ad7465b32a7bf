//go:build integration

package kafka_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"civic/internal/platform/kafka/consumer"
	"civic/internal/platform/kafka/producer"
	"civic/pkg/testutil/containers"
)

type KafkaIntegrationSuite struct {
	suite.Suite
	kafka    *containers.KafkaContainer
	producer *producer.Producer
}

func TestKafkaIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaIntegrationSuite))
}

func (s *KafkaIntegrationSuite) SetupSuite() {
	s.kafka = containers.GetManager().GetKafka(s.T())

	cfg := producer.DefaultConfig([]string{s.kafka.Brokers})
	cfg.DeliveryTimeout = 10 * time.Second
	prod, err := producer.New(cfg, nil)
	s.Require().NoError(err)
	s.producer = prod
}

func (s *KafkaIntegrationSuite) TearDownSuite() {
	if s.producer != nil {
		_ = s.producer.Close(5 * time.Second)
	}
}

// ProduceSync only returns success after the broker acknowledged the record.
func (s *KafkaIntegrationSuite) TestProduceDeliversMessage() {
	ctx := context.Background()
	topic := "civic-test-produce"
	s.Require().NoError(s.kafka.CreateTopic(ctx, topic, 1, 1))

	s.Require().NoError(s.producer.Produce(ctx, &producer.Message{
		Topic:   topic,
		Key:     []byte("documents"),
		Value:   []byte(`{"table":"documents"}`),
		Headers: map[string]string{"type": "UPDATE"},
	}))

	client, err := s.kafka.NewConsumer(ctx, "civic-test-verify", topic)
	s.Require().NoError(err)
	defer client.Close()

	record := s.kafka.WaitForMessage(ctx, client, 10*time.Second, func(r *kgo.Record) bool {
		return string(r.Key) == "documents"
	})
	s.Require().NotNil(record)
	s.Equal(`{"table":"documents"}`, string(record.Value))
}

func (s *KafkaIntegrationSuite) TestGroupConsumerHandlesProducedMessages() {
	ctx := context.Background()
	topic := "civic-test-consume"
	s.Require().NoError(s.kafka.CreateTopic(ctx, topic, 1, 1))

	received := make(chan *consumer.Message, 1)
	c, err := consumer.New(consumer.Config{
		Brokers: []string{s.kafka.Brokers},
		GroupID: "civic-test-group",
		Topics:  []string{topic},
	}, consumer.HandlerFunc(func(_ context.Context, msg *consumer.Message) error {
		received <- msg
		return nil
	}), nil)
	s.Require().NoError(err)
	c.Start(ctx)
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.NoError(c.Stop(stopCtx))
	}()

	s.Require().NoError(s.producer.Produce(ctx, &producer.Message{
		Topic:   topic,
		Key:     []byte("events"),
		Value:   []byte("payload"),
		Headers: map[string]string{"type": "INSERT"},
	}))

	select {
	case msg := <-received:
		s.Equal("payload", string(msg.Value))
		s.Equal("INSERT", msg.Headers["type"])
	case <-time.After(15 * time.Second):
		s.Fail("message not consumed")
	}
}
