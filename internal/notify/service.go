package notify

import (
	"context"
	"fmt"

	"github.com/jmoralesv/optica-crm/internal/appointments"
	"github.com/jmoralesv/optica-crm/internal/leads"
	"github.com/jmoralesv/optica-crm/pkg/logging"
)

// Service alerts the shop operator about events that need human follow-up:
// a lead asking for a person, or the bot booking an appointment on its own.
type Service struct {
	email         EmailSender
	operatorEmail string
	logger        *logging.Logger
}

// NewService creates a notification service. A nil sender or empty operator
// address disables all notifications.
func NewService(email EmailSender, operatorEmail string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		email:         email,
		operatorEmail: operatorEmail,
		logger:        logger,
	}
}

func (s *Service) enabled() bool {
	return s != nil && s.email != nil && s.operatorEmail != ""
}

func displayName(lead *leads.Lead) string {
	if lead.Name != "" {
		return lead.Name
	}
	return lead.WaID
}

// NotifyHandoff alerts the operator that a lead asked for a human. The bot is
// already silenced by the time this fires; speed matters more than delivery
// guarantees, so failures are logged and swallowed by the caller.
func (s *Service) NotifyHandoff(ctx context.Context, lead *leads.Lead, lastMessage string) error {
	if !s.enabled() {
		s.logger.Debug("notify: email disabled, skipping handoff notification")
		return nil
	}

	body := fmt.Sprintf(
		"El cliente %s (WhatsApp %s) pidió hablar con un asesor.\n\nÚltimo mensaje:\n%s\n\nEl bot quedó desactivado para este cliente.",
		displayName(lead), lead.WaID, lastMessage,
	)
	msg := EmailMessage{
		To:      s.operatorEmail,
		Subject: fmt.Sprintf("Cliente pide asesor: %s", displayName(lead)),
		Body:    body,
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: handoff email: %w", err)
	}
	return nil
}

// NotifyBooking alerts the operator about a bot-confirmed appointment.
func (s *Service) NotifyBooking(ctx context.Context, lead *leads.Lead, appt *appointments.Appointment) error {
	if !s.enabled() {
		s.logger.Debug("notify: email disabled, skipping booking notification")
		return nil
	}

	body := fmt.Sprintf(
		"El bot agendó una cita.\n\nCliente: %s (WhatsApp %s)\nFecha: %s\nTipo: %s\nNotas: %s",
		displayName(lead), lead.WaID,
		appt.ScheduledAt.Format("Monday 2 January, 15:04"),
		appt.Type, appt.Notes,
	)
	msg := EmailMessage{
		To:      s.operatorEmail,
		Subject: fmt.Sprintf("Nueva cita automática: %s", displayName(lead)),
		Body:    body,
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: booking email: %w", err)
	}
	return nil
}
