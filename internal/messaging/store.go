package messaging

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the pgx surface the store needs.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists the message log in Postgres.
type PostgresStore struct {
	pool PgxPool
}

// NewPostgresStore builds a message store backed by pgxpool.
func NewPostgresStore(pool PgxPool) *PostgresStore {
	if pool == nil {
		panic("messaging: pgx pool required")
	}
	return &PostgresStore{pool: pool}
}

var _ Store = (*PostgresStore)(nil)

// InsertInbound records an inbound message exactly once per provider message
// id. Redelivery of the same id is a no-op, not an error.
func (s *PostgresStore) InsertInbound(ctx context.Context, rec MessageRecord) (bool, error) {
	if strings.TrimSpace(rec.ProviderMessageID) == "" {
		return false, fmt.Errorf("messaging: inbound provider message id required")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Status == "" {
		rec.Status = StatusReceived
	}
	query := `
		INSERT INTO messages (id, lead_id, direction, body, media_url, status, provider_message_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (provider_message_id) DO NOTHING
	`
	tag, err := s.pool.Exec(ctx, query, rec.ID, rec.LeadID, DirectionInbound, rec.Body, rec.MediaURL, rec.Status, rec.ProviderMessageID)
	if err != nil {
		return false, fmt.Errorf("messaging: insert inbound: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// InsertOutbound records one outbound send attempt, successful or not.
func (s *PostgresStore) InsertOutbound(ctx context.Context, rec MessageRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Status == "" {
		rec.Status = StatusSent
	}
	query := `
		INSERT INTO messages (id, lead_id, direction, body, media_url, status, provider_message_id)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
		RETURNING id
	`
	var id string
	if err := s.pool.QueryRow(ctx, query, rec.ID, rec.LeadID, DirectionOutbound, rec.Body, rec.MediaURL, rec.Status, rec.ProviderMessageID).Scan(&id); err != nil {
		return "", fmt.Errorf("messaging: insert outbound: %w", err)
	}
	return id, nil
}

// InsertSystem logs a synthetic bot-action entry visible to operators.
func (s *PostgresStore) InsertSystem(ctx context.Context, leadID, body string) error {
	query := `
		INSERT INTO messages (id, lead_id, direction, body, status)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := s.pool.Exec(ctx, query, uuid.NewString(), leadID, DirectionSystem, body, StatusSent); err != nil {
		return fmt.Errorf("messaging: insert system: %w", err)
	}
	return nil
}

// UpdateStatusByProviderID applies a delivery receipt (delivered/read/failed).
func (s *PostgresStore) UpdateStatusByProviderID(ctx context.Context, providerMessageID, status string, at time.Time) error {
	providerMessageID = strings.TrimSpace(providerMessageID)
	if providerMessageID == "" {
		return nil
	}
	query := `
		UPDATE messages
		SET status = $2, status_updated_at = $3
		WHERE provider_message_id = $1
	`
	if _, err := s.pool.Exec(ctx, query, providerMessageID, status, at); err != nil {
		return fmt.Errorf("messaging: update status: %w", err)
	}
	return nil
}

// ListByLead returns the most recent messages for a lead, newest first.
func (s *PostgresStore) ListByLead(ctx context.Context, leadID string, limit int) ([]MessageRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, lead_id, direction, body, COALESCE(media_url, ''), status,
			COALESCE(provider_message_id, ''), created_at
		FROM messages
		WHERE lead_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.pool.Query(ctx, query, leadID, limit)
	if err != nil {
		return nil, fmt.Errorf("messaging: list by lead: %w", err)
	}
	defer rows.Close()
	var out []MessageRecord
	for rows.Next() {
		var rec MessageRecord
		if err := rows.Scan(&rec.ID, &rec.LeadID, &rec.Direction, &rec.Body, &rec.MediaURL, &rec.Status, &rec.ProviderMessageID, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("messaging: scan message: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
