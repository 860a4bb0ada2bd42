package leads

import (
	"time"
)

// Lifecycle statuses for a lead.
const (
	StatusNew            = "new"
	StatusInterested     = "interested"
	StatusQuoted         = "quoted"
	StatusScheduled      = "scheduled"
	StatusNotResponding  = "not_responding"
	StatusNotPurchased   = "not_purchased"
	StatusCustomer       = "customer"
	StatusRepeatCustomer = "repeat_customer"
)

// TagBotStop permanently silences the bot for a lead until an operator
// removes it.
const TagBotStop = "bot_stop"

// Awaiting values for the pending appointment slot record.
const (
	AwaitingNone      = ""
	AwaitingDate      = "date"
	AwaitingTime      = "time"
	AwaitingDateTime  = "datetime"
	AwaitingSelection = "selection"
)

// PendingSlot is the persisted state of a partially specified appointment
// request. A multi-turn dialogue (date-then-time, or pick-an-alternative) is
// carried across stateless invocations by this record, never by in-process
// state.
type PendingSlot struct {
	Awaiting      string      `json:"awaiting"`
	Date          *time.Time  `json:"date,omitempty"`
	TimeOfDay     string      `json:"time_of_day,omitempty"` // HH:MM, 24h
	Type          string      `json:"type,omitempty"`
	ProposedSlots []time.Time `json:"proposed_slots,omitempty"`
}

// IsZero reports whether no negotiation is in progress.
func (p PendingSlot) IsZero() bool {
	return p.Awaiting == AwaitingNone
}

// Lead represents a prospective or existing customer identified by a
// WhatsApp phone id.
type Lead struct {
	ID                   string      `json:"id"`
	WaID                 string      `json:"wa_id"`
	Name                 string      `json:"name"`
	Status               string      `json:"status"`
	Tags                 []string    `json:"tags"`
	BotActive            bool        `json:"bot_active"`
	LastAgentInteraction *time.Time  `json:"last_agent_interaction,omitempty"`
	Pending              PendingSlot `json:"pending"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
}

// HasTag reports whether the lead carries the given tag. Tag order is
// irrelevant.
func (l *Lead) HasTag(tag string) bool {
	for _, t := range l.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
