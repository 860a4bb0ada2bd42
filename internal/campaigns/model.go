package campaigns

import (
	"context"
	"time"
)

// Campaign is a broadcast sequence walked one target group per trigger.
type Campaign struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	MessageTemplate   string     `json:"message_template"`
	MediaURL          string     `json:"media_url,omitempty"`
	TargetGroups      []string   `json:"target_groups"`
	CurrentGroupIndex int        `json:"current_group_index"`
	SendIntervalDays  int        `json:"send_interval_days"`
	LastSentAt        *time.Time `json:"last_sent_at,omitempty"`
	SentCount         int        `json:"sent_count"`
	IsActive          bool       `json:"is_active"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Member is one recipient resolved from a target group.
type Member struct {
	LeadID string
	WaID   string
	Name   string
}

// Store is the persistence surface the scheduler walks. Cursor updates are
// split: AdvanceCursor stamps a completed send, AdvanceEmpty moves past a
// group that had nobody in it.
type Store interface {
	ListActive(ctx context.Context) ([]Campaign, error)
	GetByID(ctx context.Context, id string) (*Campaign, error)
	ListGroupMembers(ctx context.Context, groupID string) ([]Member, error)
	AdvanceCursor(ctx context.Context, id string, newIndex int, sentAt time.Time, sentDelta int) error
	AdvanceEmpty(ctx context.Context, id string, newIndex int) error
	Deactivate(ctx context.Context, id string) error
}
