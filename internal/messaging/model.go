package messaging

import (
	"context"
	"time"
)

// Message directions.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
	// DirectionSystem marks synthetic log entries for bot actions; they are
	// never delivered anywhere.
	DirectionSystem = "system"
)

// Delivery statuses.
const (
	StatusReceived  = "received"
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
	StatusFailed    = "failed"
)

// MessageRecord is one row in the operator-facing message log.
type MessageRecord struct {
	ID                string
	LeadID            string
	Direction         string
	Body              string
	MediaURL          string
	Status            string
	ProviderMessageID string
	CreatedAt         time.Time
}

// Store is the narrow message-log surface the automation engine needs.
type Store interface {
	// InsertInbound records an inbound message, deduplicating on the
	// provider message id. Returns false when the row already existed.
	InsertInbound(ctx context.Context, rec MessageRecord) (bool, error)
	InsertOutbound(ctx context.Context, rec MessageRecord) (string, error)
	InsertSystem(ctx context.Context, leadID, body string) error
}

// Sender is the outbound delivery channel. Retries are the channel's own
// concern; callers only record the outcome they are told.
type Sender interface {
	SendText(ctx context.Context, waID, body string) (providerMessageID string, err error)
}
