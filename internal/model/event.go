package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTransferAccepted    = "TransferAccepted"
	EventTransferRejected    = "TransferRejected"
	EventStockBelowThreshold = "StockBelowThreshold"
	EventStockReceived       = "StockReceived"
	EventOpnameSubmitted     = "OpnameSubmitted"
)

// DomainEvent is emitted after a committed change for external notifiers.
type DomainEvent struct {
	ID          string         `json:"event_id"`
	Type        string         `json:"event_type"`
	AggregateID string         `json:"aggregate_id"`
	Actor       string         `json:"actor"`
	OccurredAt  time.Time      `json:"timestamp"`
	Payload     map[string]any `json:"payload"`
}

func NewDomainEvent(eventType, aggregateID, actor string, payload map[string]any) DomainEvent {
	return DomainEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		AggregateID: aggregateID,
		Actor:       actor,
		OccurredAt:  time.Now().UTC(),
		Payload:     payload,
	}
}
