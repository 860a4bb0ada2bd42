package appointments

import (
	"context"
	"time"
)

// Appointment statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
	StatusNoShow    = "no_show"
)

// Appointment types.
const (
	TypeVisualExam = "visual_exam"
	TypeLensPickup = "lens_pickup"
	TypeFollowUp   = "follow_up"
)

// Appointment is a scheduled visit for a lead.
type Appointment struct {
	ID          string    `json:"id"`
	LeadID      string    `json:"lead_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Status      string    `json:"status"`
	Type        string    `json:"type"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
}

// Slot is a fixed-duration time window candidate for an appointment.
type Slot struct {
	Time      time.Time `json:"time"`
	Available bool      `json:"available"`
}

// Creator persists confirmed appointments. Appointments are never created
// speculatively; callers confirm availability first.
type Creator interface {
	Create(ctx context.Context, appt *Appointment) error
}

// AvailabilityOracle answers slot-availability questions. Both calls are
// synchronous and may fail; callers treat failure as "no answer", never as
// "available".
type AvailabilityOracle interface {
	CheckAvailability(ctx context.Context, at time.Time, durationMinutes int) (bool, error)
	ListOpenSlots(ctx context.Context, day time.Time, startHour, endHour, slotMinutes int) ([]Slot, error)
}
