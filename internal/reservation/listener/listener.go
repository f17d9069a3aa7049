package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-stock-service/internal/reservation"
	"github.com/fekuna/omnipos-stock-service/internal/reservation/dto"
)

const (
	EventOrderCreated   = "OrderCreated"
	EventOrderCancelled = "OrderCancelled"
	EventOrderRejected  = "OrderRejected"
	EventOrderFulfilled = "OrderFulfilled"
)

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// ReservationListener keeps reservations in step with the order lifecycle.
type ReservationListener struct {
	consumer MessageReader
	uc       reservation.UseCase
	logger   logger.ZapLogger
}

func NewReservationListener(consumer MessageReader, uc reservation.UseCase, logger logger.ZapLogger) *ReservationListener {
	return &ReservationListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
	}
}

func (l *ReservationListener) Start(ctx context.Context) {
	l.logger.Info("Starting Reservation Kafka Listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping Reservation Kafka Listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type OrderEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   OrderPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type OrderPayload struct {
	ID                string             `json:"id"`
	LocationID        string             `json:"location_id"`
	StorageLocationID string             `json:"storage_location_id"`
	CreatedBy         string             `json:"created_by"`
	Items             []OrderItemPayload `json:"items"`
}

type OrderItemPayload struct {
	ProductID string          `json:"product_id"`
	UOMID     string          `json:"uom_id"`
	SizeID    string          `json:"size_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

func (l *ReservationListener) processMessage(ctx context.Context, value []byte) {
	var event OrderEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	actor := event.Payload.CreatedBy
	if actor == "" {
		actor = auth.SystemActor
	}
	ctx = auth.WithActor(ctx, actor)

	switch event.EventType {
	case EventOrderCreated:
		l.reserve(ctx, &event.Payload, actor)
	case EventOrderCancelled, EventOrderRejected, EventOrderFulfilled:
		n, err := l.uc.Release(ctx, event.Payload.ID, actor)
		if err != nil {
			l.logger.Error("Failed to release order reservations",
				zap.String("order_id", event.Payload.ID),
				zap.String("event_type", event.EventType),
				zap.Error(err),
			)
			return
		}
		l.logger.Info("Order reservations released",
			zap.String("order_id", event.Payload.ID),
			zap.String("event_type", event.EventType),
			zap.Int("count", n),
		)
	}
}

func (l *ReservationListener) reserve(ctx context.Context, order *OrderPayload, actor string) {
	l.logger.Info("Processing OrderCreated event", zap.String("order_id", order.ID))

	input := &dto.ReserveInput{
		Reference: order.ID,
		Policy:    model.ReservationStrict,
		Actor:     actor,
	}
	for _, item := range order.Items {
		input.Lines = append(input.Lines, dto.ReserveLine{
			Key: model.StockKey{
				ProductID:         item.ProductID,
				LocationID:        order.LocationID,
				StorageLocationID: order.StorageLocationID,
				UOMID:             item.UOMID,
				SizeID:            item.SizeID,
				Status:            model.StatusGood,
			},
			Quantity: item.Quantity,
		})
	}

	if _, err := l.uc.Reserve(ctx, input); err != nil {
		l.logger.Error("Failed to reserve stock for order",
			zap.String("order_id", order.ID),
			zap.Int("items", len(order.Items)),
			zap.Error(err),
		)
	}
}
