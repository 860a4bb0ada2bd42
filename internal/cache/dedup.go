package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jmoralesv/optica-crm/pkg/logging"
)

// Dedup is a Redis fast path in front of the database dedup constraint: it
// answers "have we seen this provider message id recently" without a DB
// round-trip. Redis being down must never drop messages, so every failure
// reports "not seen" and lets the unique constraint do its job.
type Dedup struct {
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewDedup builds the seen-set. client may be nil, which disables the fast
// path entirely.
func NewDedup(client *redis.Client, ttl time.Duration, logger *logging.Logger) *Dedup {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Dedup{client: client, ttl: ttl, logger: logger}
}

func dedupKey(providerMessageID string) string {
	return "seen:wamid:" + providerMessageID
}

// Seen marks the provider message id and reports whether it was already
// marked. SET NX makes check-and-mark one round-trip.
func (d *Dedup) Seen(ctx context.Context, providerMessageID string) bool {
	if d == nil || d.client == nil || providerMessageID == "" {
		return false
	}
	set, err := d.client.SetNX(ctx, dedupKey(providerMessageID), "1", d.ttl).Result()
	if err != nil {
		d.logger.Warn("dedup cache unavailable, falling back to db constraint", "error", err)
		return false
	}
	return !set
}

// Forget drops the mark, letting a message id be processed again. Used when
// processing failed after the mark was taken.
func (d *Dedup) Forget(ctx context.Context, providerMessageID string) {
	if d == nil || d.client == nil || providerMessageID == "" {
		return
	}
	if err := d.client.Del(ctx, dedupKey(providerMessageID)).Err(); err != nil {
		d.logger.Warn("dedup cache DEL failed", "error", err, "provider_message_id", providerMessageID)
	}
}
