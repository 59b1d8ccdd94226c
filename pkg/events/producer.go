package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	writeTimeout = 5 * time.Second
	// Events are written one at a time; a partial batch flushes after this.
	batchTimeout = 10 * time.Millisecond
)

var ErrDisabled = errors.New("kafka disabled")

type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer returns a producer writing to topic. With no brokers the
// producer is disabled and PublishEvent reports ErrDisabled.
func NewProducer(brokers []string, topic string) *Producer {
	if len(brokers) == 0 {
		return &Producer{topic: topic}
	}
	return &Producer{
		topic: topic,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
			BatchTimeout:           batchTimeout,
			WriteTimeout:           writeTimeout,
		},
	}
}

func (p *Producer) Enabled() bool {
	return p != nil && p.writer != nil
}

func (p *Producer) Topic() string {
	return p.topic
}

func (p *Producer) PublishEvent(ctx context.Context, key string, event any) error {
	if !p.Enabled() {
		return ErrDisabled
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	msg := kafka.Message{Key: []byte(key), Value: data, Time: time.Now().UTC()}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write to %s failed: %w", p.topic, err)
	}
	return nil
}

func (p *Producer) Close() error {
	if !p.Enabled() {
		return nil
	}
	return p.writer.Close()
}
