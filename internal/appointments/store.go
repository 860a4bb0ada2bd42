package appointments

import (
	"context"
	"fmt"
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

// PostgresStore persists appointments and doubles as the availability oracle:
// a slot is taken when a pending or confirmed appointment overlaps it.
type PostgresStore struct {
	pool PgxPool
	now  func() time.Time
}

// NewPostgresStore builds an appointment store backed by pgxpool.
func NewPostgresStore(pool PgxPool) *PostgresStore {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresStore{pool: pool, now: time.Now}
}

var (
	_ Creator            = (*PostgresStore)(nil)
	_ AvailabilityOracle = (*PostgresStore)(nil)
)

// Create inserts a new appointment row.
func (s *PostgresStore) Create(ctx context.Context, appt *Appointment) error {
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	if appt.Status == "" {
		appt.Status = StatusPending
	}
	if appt.Type == "" {
		appt.Type = TypeVisualExam
	}
	query := `
		INSERT INTO appointments (id, lead_id, scheduled_at, status, type, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	if err := s.pool.QueryRow(ctx, query, appt.ID, appt.LeadID, appt.ScheduledAt, appt.Status, appt.Type, appt.Notes).Scan(&appt.CreatedAt); err != nil {
		return fmt.Errorf("appointments: insert: %w", err)
	}
	return nil
}

// CheckAvailability reports whether a slot of the given duration starting at
// the instant is free.
func (s *PostgresStore) CheckAvailability(ctx context.Context, at time.Time, durationMinutes int) (bool, error) {
	end := at.Add(time.Duration(durationMinutes) * time.Minute)
	query := `
		SELECT COUNT(*)
		FROM appointments
		WHERE status IN ('pending', 'confirmed')
			AND scheduled_at < $2
			AND scheduled_at + make_interval(mins => $3) > $1
	`
	var overlapping int
	if err := s.pool.QueryRow(ctx, query, at, end, durationMinutes).Scan(&overlapping); err != nil {
		return false, fmt.Errorf("appointments: check availability: %w", err)
	}
	return overlapping == 0, nil
}

// ListOpenSlots walks the day's grid between startHour and endHour at
// slotMinutes granularity and flags each slot. Slots already in the past are
// never available.
func (s *PostgresStore) ListOpenSlots(ctx context.Context, day time.Time, startHour, endHour, slotMinutes int) ([]Slot, error) {
	if slotMinutes <= 0 {
		return nil, fmt.Errorf("appointments: slot minutes must be positive")
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), startHour, 0, 0, 0, day.Location())
	dayEnd := time.Date(day.Year(), day.Month(), day.Day(), endHour, 0, 0, 0, day.Location())

	query := `
		SELECT scheduled_at
		FROM appointments
		WHERE status IN ('pending', 'confirmed')
			AND scheduled_at >= $1
			AND scheduled_at < $2
		ORDER BY scheduled_at
	`
	rows, err := s.pool.Query(ctx, query, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("appointments: list booked: %w", err)
	}
	defer rows.Close()

	booked := make(map[int64]bool)
	step := time.Duration(slotMinutes) * time.Minute
	for rows.Next() {
		var at time.Time
		if err := rows.Scan(&at); err != nil {
			return nil, fmt.Errorf("appointments: scan booked: %w", err)
		}
		booked[at.In(day.Location()).Truncate(step).Unix()] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: iterate booked: %w", err)
	}

	now := s.now()
	var slots []Slot
	for at := dayStart; at.Before(dayEnd); at = at.Add(step) {
		slots = append(slots, Slot{
			Time:      at,
			Available: !booked[at.Unix()] && at.After(now),
		})
	}
	return slots, nil
}

// ListByLead returns a lead's appointments, soonest first.
func (s *PostgresStore) ListByLead(ctx context.Context, leadID string) ([]Appointment, error) {
	query := `
		SELECT id, lead_id, scheduled_at, status, type, notes, created_at
		FROM appointments
		WHERE lead_id = $1
		ORDER BY scheduled_at
	`
	rows, err := s.pool.Query(ctx, query, leadID)
	if err != nil {
		return nil, fmt.Errorf("appointments: list by lead: %w", err)
	}
	defer rows.Close()
	var out []Appointment
	for rows.Next() {
		var appt Appointment
		if err := rows.Scan(&appt.ID, &appt.LeadID, &appt.ScheduledAt, &appt.Status, &appt.Type, &appt.Notes, &appt.CreatedAt); err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		out = append(out, appt)
	}
	return out, rows.Err()
}
