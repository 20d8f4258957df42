package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/atcpro/atcpro/internal/config"
	"github.com/atcpro/atcpro/pkg/models"
)

const publishTimeout = 10 * time.Second

// messageWriter is the part of *kafka.Writer the bus uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventBus publishes editorial scrape events. With no brokers configured it
// is disabled and every publish is a no-op.
type EventBus struct {
	writer messageWriter
	topic  string
	logger *logrus.Logger
}

func NewEventBus(cfg *config.Config, logger *logrus.Logger) *EventBus {
	bus := &EventBus{
		topic:  cfg.Kafka.Topics.EditorialEvents,
		logger: logger,
	}

	if len(cfg.Kafka.Brokers) == 0 {
		logger.Info("No Kafka brokers configured, editorial events will not be published")
		return bus
	}

	bus.writer = &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Kafka.Brokers...),
		Topic:                  bus.topic,
		Balancer:               &kafka.Hash{}, // keyed by contest
		RequiredAcks:           kafka.RequireOne,
		Async:                  false,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return bus
}

// Enabled reports whether events leave the process.
func (b *EventBus) Enabled() bool {
	return b.writer != nil
}

// PublishEditorialEvent writes one event keyed by its contest id.
func (b *EventBus) PublishEditorialEvent(ctx context.Context, event models.EditorialEvent) error {
	if b.writer == nil {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal editorial event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(event.ContestID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "run_id", Value: []byte(event.RunID)},
			{Key: "outcome", Value: []byte(event.Outcome)},
			{Key: "timestamp", Value: []byte(event.Timestamp.Format(time.RFC3339))},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := b.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write editorial event to Kafka: %w", err)
	}

	b.logger.WithFields(logrus.Fields{
		"run_id":  event.RunID,
		"problem": event.ProblemID,
		"topic":   b.topic,
	}).Debug("Editorial event published")
	return nil
}

func (b *EventBus) Close() error {
	if b.writer == nil {
		return nil
	}
	if err := b.writer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka writer: %w", err)
	}
	return nil
}
