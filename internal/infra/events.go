package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// EventoPedidoCreado is published once per committed online order.
const EventoPedidoCreado = "pedido.creado"

// EventPublisher writes domain events to Kafka. With no brokers configured
// it is a no-op.
type EventPublisher struct {
	writer *kafka.Writer
}

func NewEventPublisher(brokers []string, topic string) *EventPublisher {
	if len(brokers) == 0 {
		return &EventPublisher{}
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}
	return &EventPublisher{writer: w}
}

func (p *EventPublisher) Enabled() bool { return p.writer != nil }

// Publish sends payload keyed by key (the aggregate id, for ordering).
func (p *EventPublisher) Publish(ctx context.Context, eventType, key string, payload any) error {
	if p.writer == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("events: marshal %s: %w", eventType, err)
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("events: write %s: %w", eventType, err)
	}
	return nil
}

func (p *EventPublisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
