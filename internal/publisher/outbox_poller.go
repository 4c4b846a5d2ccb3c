package publisher

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/bookstore/internal/metrics"
	"github.com/fjod/bookstore/internal/repository"
	"github.com/fjod/bookstore/pkg/circuitbreaker"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
)

const DefaultTopic = "bookstore.orders"

type EventStore interface {
	GetUnpublishedEvents(ctx context.Context, limit int) ([]*repository.OutboxEvent, error)
	MarkEventPublished(ctx context.Context, id string) error
}

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OutboxPoller relays committed outbox rows to Kafka. A row is marked only
// after the broker accepted it, so delivery is at least once.
type OutboxPoller struct {
	timeout   time.Duration
	eventTick time.Duration
	batchSize int
	repo      EventStore
	writer    MessageWriter
	breaker   *gobreaker.CircuitBreaker[struct{}]
	log       zerolog.Logger
	metrics   *metrics.Metrics
}

func NewOutboxPoller(repo EventStore, topic string, brokers []string, log zerolog.Logger, m *metrics.Metrics) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
	}
	return newOutboxPoller(repo, w, log, m)
}

func newOutboxPoller(repo EventStore, w MessageWriter, log zerolog.Logger, m *metrics.Metrics) *OutboxPoller {
	log = log.With().Str("component", "outbox_poller").Logger()
	return &OutboxPoller{
		timeout:   5 * time.Second,
		eventTick: time.Second,
		batchSize: 100,
		repo:      repo,
		writer:    w,
		breaker:   circuitbreaker.New[struct{}](circuitbreaker.DefaultSettings("kafka-outbox"), log),
		log:       log,
		metrics:   m,
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	defer eventTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) Close() error {
	return p.writer.Close()
}

// processUnpublishedEvents publishes one batch and returns how many events
// were delivered and marked.
func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) int {
	events, err := p.repo.GetUnpublishedEvents(ctx, p.batchSize)
	if err != nil {
		p.log.Error().Err(err).Msg("failed to fetch outbox events")
		return 0
	}

	published := 0
	for _, event := range events {
		if err := p.publish(ctx, event); err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				p.log.Warn().Msg("broker circuit open, postponing outbox batch")
				return published
			}
			p.log.Error().Err(err).Str("event_id", event.ID).Msg("failed to publish event")
			continue
		}

		if err := p.repo.MarkEventPublished(ctx, event.ID); err != nil {
			// the event will be sent again on the next tick
			p.log.Error().Err(err).Str("event_id", event.ID).Msg("failed to mark event as published")
			continue
		}
		p.metrics.EventPublished()
		published++
	}
	return published
}

func (p *OutboxPoller) publish(ctx context.Context, event *repository.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID), // order id keeps one order's events in one partition
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}

	_, err := p.breaker.Execute(func() (struct{}, error) {
		writeCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()
		return struct{}{}, p.writer.WriteMessages(writeCtx, msg)
	})
	return err
}
