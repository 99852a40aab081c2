package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaPublisher emits events to a Kafka-compatible broker. Messages are
// keyed by driver ID so all events for one driver land on one partition in
// order.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaPublisher{client: client, topic: topic, logger: logger}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.DriverID),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce event %s: %w", event.Type, err)
	}
	p.logger.DebugContext(ctx, "event published",
		"type", event.Type,
		"driver_id", event.DriverID,
	)
	return nil
}

func (p *KafkaPublisher) Close() {
	p.client.Close()
}
