package leads

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the narrow pgx surface the repository needs. Satisfied by
// *pgxpool.Pool and by pgxmock in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	pool PgxPool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool PgxPool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

const leadColumns = `id, wa_id, name, status, tags, bot_active, last_agent_interaction,
		pending_awaiting, pending_date, pending_time, pending_type, pending_slots,
		created_at, updated_at`

func scanLead(row pgx.Row) (*Lead, error) {
	var lead Lead
	var pendingSlots []byte
	if err := row.Scan(
		&lead.ID,
		&lead.WaID,
		&lead.Name,
		&lead.Status,
		&lead.Tags,
		&lead.BotActive,
		&lead.LastAgentInteraction,
		&lead.Pending.Awaiting,
		&lead.Pending.Date,
		&lead.Pending.TimeOfDay,
		&lead.Pending.Type,
		&pendingSlots,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(pendingSlots) > 0 {
		if err := json.Unmarshal(pendingSlots, &lead.Pending.ProposedSlots); err != nil {
			return nil, fmt.Errorf("leads: decode pending slots: %w", err)
		}
	}
	return &lead, nil
}

// GetOrCreateByWaID fetches the lead for a phone id, creating it on first
// contact. Creation races resolve through the unique wa_id constraint;
// last write wins on the name.
func (r *PostgresRepository) GetOrCreateByWaID(ctx context.Context, waID, name string) (*Lead, bool, error) {
	waID = strings.TrimSpace(waID)
	if waID == "" {
		return nil, false, ErrMissingWaID
	}

	selectQuery := `SELECT ` + leadColumns + ` FROM leads WHERE wa_id = $1`
	lead, err := scanLead(r.pool.QueryRow(ctx, selectQuery, waID))
	if err == nil {
		return lead, false, nil
	}
	if err != pgx.ErrNoRows {
		return nil, false, fmt.Errorf("leads: select by wa_id: %w", err)
	}

	insertQuery := `
		INSERT INTO leads (id, wa_id, name, status, tags, bot_active)
		VALUES ($1, $2, $3, $4, '{}', TRUE)
		ON CONFLICT (wa_id) DO UPDATE SET name = COALESCE(NULLIF(EXCLUDED.name, ''), leads.name)
		RETURNING ` + leadColumns
	lead, err = scanLead(r.pool.QueryRow(ctx, insertQuery, uuid.New(), waID, name, StatusNew))
	if err != nil {
		return nil, false, fmt.Errorf("leads: insert: %w", err)
	}
	return lead, true, nil
}

// GetByID fetches a lead by primary key.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	lead, err := scanLead(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select by id: %w", err)
	}
	return lead, nil
}

// UpdateStatus sets the lifecycle status.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE leads SET status = $2, updated_at = now() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, id, status); err != nil {
		return fmt.Errorf("leads: update status: %w", err)
	}
	return nil
}

// AddTag appends a tag unless the lead already carries it.
func (r *PostgresRepository) AddTag(ctx context.Context, id, tag string) error {
	query := `
		UPDATE leads
		SET tags = array_append(tags, $2), updated_at = now()
		WHERE id = $1 AND NOT ($2 = ANY(tags))
	`
	if _, err := r.pool.Exec(ctx, query, id, tag); err != nil {
		return fmt.Errorf("leads: add tag: %w", err)
	}
	return nil
}

// SetBotActive flips whether automation may reply to this lead.
func (r *PostgresRepository) SetBotActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE leads SET bot_active = $2, updated_at = now() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, id, active); err != nil {
		return fmt.Errorf("leads: set bot_active: %w", err)
	}
	return nil
}

// SetLastAgentInteraction stamps a human-originated outbound send. Only the
// manual-send path calls this; bot replies never do.
func (r *PostgresRepository) SetLastAgentInteraction(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE leads SET last_agent_interaction = $2, updated_at = now() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, id, at); err != nil {
		return fmt.Errorf("leads: set last_agent_interaction: %w", err)
	}
	return nil
}

// SavePending persists the in-flight appointment negotiation state.
func (r *PostgresRepository) SavePending(ctx context.Context, id string, pending PendingSlot) error {
	slots, err := json.Marshal(pending.ProposedSlots)
	if err != nil {
		return fmt.Errorf("leads: marshal pending slots: %w", err)
	}
	query := `
		UPDATE leads
		SET pending_awaiting = $2,
			pending_date = $3,
			pending_time = $4,
			pending_type = $5,
			pending_slots = $6,
			updated_at = now()
		WHERE id = $1
	`
	if _, err := r.pool.Exec(ctx, query, id, pending.Awaiting, pending.Date, pending.TimeOfDay, pending.Type, slots); err != nil {
		return fmt.Errorf("leads: save pending: %w", err)
	}
	return nil
}

// ClearPending resets the negotiation state to none.
func (r *PostgresRepository) ClearPending(ctx context.Context, id string) error {
	query := `
		UPDATE leads
		SET pending_awaiting = '',
			pending_date = NULL,
			pending_time = '',
			pending_type = '',
			pending_slots = '[]',
			updated_at = now()
		WHERE id = $1
	`
	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("leads: clear pending: %w", err)
	}
	return nil
}
