package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/logger"
)

var ErrBrokerUnavailable = errors.New("event broker unavailable")

// MessageWriter is satisfied by broker.KafkaProducer.
type MessageWriter interface {
	Publish(ctx context.Context, topic string, msgs ...kafka.Message) error
}

// KafkaPublisher writes events to one topic behind a circuit breaker so a
// broker outage fails fast instead of piling up goroutines.
type KafkaPublisher struct {
	writer  MessageWriter
	topic   string
	breaker *gobreaker.CircuitBreaker
}

func NewKafkaPublisher(writer MessageWriter, topic string, log logger.ZapLogger) *KafkaPublisher {
	settings := gobreaker.Settings{
		Name:        "kafka-" + topic,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	return &KafkaPublisher{
		writer:  writer,
		topic:   topic,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, events ...model.DomainEvent) error {
	msgs := make([]kafka.Message, 0, len(events))
	var encodeErr error
	for _, e := range events {
		value, err := json.Marshal(e)
		if err != nil {
			encodeErr = multierr.Append(encodeErr, fmt.Errorf("encode %s: %w", e.Type, err))
			continue
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(e.AggregateID),
			Value: value,
			Headers: []kafka.Header{
				{Key: "event-type", Value: []byte(e.Type)},
				{Key: "event-id", Value: []byte(e.ID)},
			},
			Time: e.OccurredAt,
		})
	}
	if len(msgs) == 0 {
		return encodeErr
	}

	_, err := p.breaker.Execute(func() (interface{}, error) {
		return nil, p.writer.Publish(ctx, p.topic, msgs...)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%w: %v", ErrBrokerUnavailable, err)
	}
	return multierr.Append(encodeErr, err)
}
