// Package notify hands committed domain events to an external broker.
// Delivery is fire-and-forget: the stock engine never waits on it.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/metrics"
)

// Sink receives events after their transaction committed.
type Sink interface {
	Dispatch(events ...model.DomainEvent)
}

type Publisher interface {
	Publish(ctx context.Context, events ...model.DomainEvent) error
}

type Dispatcher struct {
	publisher Publisher
	timeout   time.Duration
	logger    logger.ZapLogger
	metrics   *metrics.Metrics
}

func NewDispatcher(publisher Publisher, timeout time.Duration, log logger.ZapLogger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		publisher: publisher,
		timeout:   timeout,
		logger:    log,
		metrics:   m,
	}
}

func (d *Dispatcher) Dispatch(events ...model.DomainEvent) {
	if len(events) == 0 {
		return
	}
	go d.publish(events)
}

func (d *Dispatcher) publish(events []model.DomainEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	result := "ok"
	if err := d.publisher.Publish(ctx, events...); err != nil {
		result = "error"
		d.logger.Error("failed to publish domain events", zap.Int("count", len(events)), zap.Error(err))
	}
	for _, e := range events {
		d.metrics.RecordEvent(e.Type, result)
	}
}

// LogPublisher writes events to the log. Used when no broker is configured.
type LogPublisher struct {
	logger logger.ZapLogger
}

func NewLogPublisher(log logger.ZapLogger) *LogPublisher {
	return &LogPublisher{logger: log}
}

func (p *LogPublisher) Publish(_ context.Context, events ...model.DomainEvent) error {
	for _, e := range events {
		p.logger.Info("domain event",
			zap.String("event_type", e.Type),
			zap.String("aggregate_id", e.AggregateID),
			zap.String("actor", e.Actor),
		)
	}
	return nil
}

// Nop discards events.
type Nop struct{}

func (Nop) Dispatch(...model.DomainEvent) {}
