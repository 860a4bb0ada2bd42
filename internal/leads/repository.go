package leads

import (
	"context"
	"time"
)

// Repository defines the interface for lead storage.
type Repository interface {
	// GetOrCreateByWaID returns the lead for a phone id, creating it with
	// status "new" on first contact. The second return reports creation.
	GetOrCreateByWaID(ctx context.Context, waID, name string) (*Lead, bool, error)
	GetByID(ctx context.Context, id string) (*Lead, error)
	UpdateStatus(ctx context.Context, id, status string) error
	AddTag(ctx context.Context, id, tag string) error
	SetBotActive(ctx context.Context, id string, active bool) error
	SetLastAgentInteraction(ctx context.Context, id string, at time.Time) error
	SavePending(ctx context.Context, id string, pending PendingSlot) error
	ClearPending(ctx context.Context, id string) error
}
