package campaigns

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the narrow pgx surface the store needs. Satisfied by
// *pgxpool.Pool and by pgxmock in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists campaigns and resolves their target groups.
type PostgresStore struct {
	pool PgxPool
}

// NewPostgresStore initializes a store backed by pgxpool.
func NewPostgresStore(pool PgxPool) *PostgresStore {
	if pool == nil {
		panic("campaigns: pgx pool required")
	}
	return &PostgresStore{pool: pool}
}

const campaignColumns = `id, name, message_template, media_url, target_groups,
		current_group_index, send_interval_days, last_sent_at, sent_count, is_active,
		created_at, updated_at`

func scanCampaign(row pgx.Row) (*Campaign, error) {
	var c Campaign
	if err := row.Scan(
		&c.ID,
		&c.Name,
		&c.MessageTemplate,
		&c.MediaURL,
		&c.TargetGroups,
		&c.CurrentGroupIndex,
		&c.SendIntervalDays,
		&c.LastSentAt,
		&c.SentCount,
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListActive returns every campaign still eligible for the scheduler, oldest
// first so long-running campaigns are not starved by new ones.
func (s *PostgresStore) ListActive(ctx context.Context) ([]Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE is_active ORDER BY created_at`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("campaigns: list active: %w", err)
	}
	defer rows.Close()

	var list []Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("campaigns: scan: %w", err)
		}
		list = append(list, *c)
	}
	return list, rows.Err()
}

// GetByID fetches one campaign by primary key.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (*Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`
	c, err := scanCampaign(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("campaigns: select by id: %w", err)
	}
	return c, nil
}

// ListGroupMembers resolves a target group to its member leads.
func (s *PostgresStore) ListGroupMembers(ctx context.Context, groupID string) ([]Member, error) {
	query := `
		SELECT l.id, l.wa_id, l.name
		FROM campaign_group_members m
		JOIN leads l ON l.id = m.lead_id
		WHERE m.group_id = $1
		ORDER BY l.created_at
	`
	rows, err := s.pool.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("campaigns: list group members: %w", err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.LeadID, &m.WaID, &m.Name); err != nil {
			return nil, fmt.Errorf("campaigns: scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// AdvanceCursor stamps a completed group send: moves the cursor, records the
// send time and adds the group's successes to the running total.
func (s *PostgresStore) AdvanceCursor(ctx context.Context, id string, newIndex int, sentAt time.Time, sentDelta int) error {
	query := `
		UPDATE campaigns
		SET current_group_index = $2,
			last_sent_at = $3,
			sent_count = sent_count + $4,
			updated_at = now()
		WHERE id = $1
	`
	if _, err := s.pool.Exec(ctx, query, id, newIndex, sentAt, sentDelta); err != nil {
		return fmt.Errorf("campaigns: advance cursor: %w", err)
	}
	return nil
}

// AdvanceEmpty moves past a group with no members. last_sent_at is left
// untouched so the skip does not consume the interval.
func (s *PostgresStore) AdvanceEmpty(ctx context.Context, id string, newIndex int) error {
	query := `UPDATE campaigns SET current_group_index = $2, updated_at = now() WHERE id = $1`
	if _, err := s.pool.Exec(ctx, query, id, newIndex); err != nil {
		return fmt.Errorf("campaigns: advance past empty group: %w", err)
	}
	return nil
}

// Deactivate retires a completed campaign.
func (s *PostgresStore) Deactivate(ctx context.Context, id string) error {
	query := `UPDATE campaigns SET is_active = FALSE, updated_at = now() WHERE id = $1`
	if _, err := s.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("campaigns: deactivate: %w", err)
	}
	return nil
}
