// Package events publishes catalog change notifications to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// TypeProductCreated is the event type of a committed product.
const TypeProductCreated = "product.created"

// ProductCreated is the payload announced after a product commit.
type ProductCreated struct {
	ID            int64     `json:"id"`
	CategoryID    int64     `json:"category_id"`
	SubcategoryID int64     `json:"subcategory_id"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	StockQuantity int       `json:"stock_quantity"`
	Images        []string  `json:"images"`
	CreatedAt     time.Time `json:"created_at"`
}

type envelope struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes events to a single Kafka topic.
type Publisher struct {
	writer messageWriter
	now    func() time.Time
}

// NewKafkaWriter builds the writer used by NewPublisher.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
}

// NewPublisher wraps writer. The publisher owns it and closes it on Close.
func NewPublisher(writer *kafka.Writer) *Publisher {
	if writer == nil {
		return &Publisher{now: time.Now}
	}
	return &Publisher{writer: writer, now: time.Now}
}

// PublishProductCreated writes event keyed by product so that all events of
// one product land on the same partition.
func (p *Publisher) PublishProductCreated(ctx context.Context, event ProductCreated) error {
	return p.publish(ctx, TypeProductCreated, fmt.Sprintf("%s.%d", TypeProductCreated, event.ID), event)
}

func (p *Publisher) publish(ctx context.Context, eventType, key string, data interface{}) error {
	if p == nil || p.writer == nil {
		return nil
	}
	payload, err := json.Marshal(envelope{Type: eventType, OccurredAt: p.now().UTC(), Data: data})
	if err != nil {
		return fmt.Errorf("events: encode %s: %w", eventType, err)
	}
	msg := kafka.Message{
		Key:     []byte(key),
		Value:   payload,
		Headers: []kafka.Header{{Key: "type", Value: []byte(eventType)}},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("events: write %s: %w", eventType, err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
