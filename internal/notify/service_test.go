package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmoralesv/optica-crm/internal/appointments"
	"github.com/jmoralesv/optica-crm/internal/leads"
)

type recordingSender struct {
	sent []EmailMessage
	err  error
}

func (r *recordingSender) Send(ctx context.Context, msg EmailMessage) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func TestNotifyHandoff(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, "dueno@optica.mx", nil)

	lead := &leads.Lead{ID: "l1", WaID: "5215551234567", Name: "Ana"}
	err := svc.NotifyHandoff(context.Background(), lead, "quiero hablar con una persona")
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "dueno@optica.mx", msg.To)
	assert.Contains(t, msg.Subject, "Ana")
	assert.Contains(t, msg.Body, "quiero hablar con una persona")
	assert.Contains(t, msg.Body, "5215551234567")
}

func TestNotifyHandoffFallsBackToPhone(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, "dueno@optica.mx", nil)

	lead := &leads.Lead{ID: "l1", WaID: "5215551234567"}
	require.NoError(t, svc.NotifyHandoff(context.Background(), lead, "ayuda"))
	assert.Contains(t, sender.sent[0].Subject, "5215551234567")
}

func TestNotifyBooking(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, "dueno@optica.mx", nil)

	lead := &leads.Lead{ID: "l1", WaID: "5215551234567", Name: "Luis"}
	appt := &appointments.Appointment{
		ScheduledAt: time.Date(2026, 3, 5, 15, 0, 0, 0, time.Local),
		Type:        appointments.TypeVisualExam,
		Notes:       "Agendada por bot",
	}
	require.NoError(t, svc.NotifyBooking(context.Background(), lead, appt))

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].Subject, "Luis")
	assert.Contains(t, sender.sent[0].Body, "visual_exam")
}

func TestNotifyDisabledWithoutSenderOrAddress(t *testing.T) {
	lead := &leads.Lead{ID: "l1", WaID: "521"}

	svc := NewService(nil, "dueno@optica.mx", nil)
	assert.NoError(t, svc.NotifyHandoff(context.Background(), lead, "x"))

	svc = NewService(&recordingSender{}, "", nil)
	assert.NoError(t, svc.NotifyBooking(context.Background(), lead, &appointments.Appointment{}))
}

func TestNotifySendFailureWrapped(t *testing.T) {
	sender := &recordingSender{err: errors.New("quota exceeded")}
	svc := NewService(sender, "dueno@optica.mx", nil)

	err := svc.NotifyHandoff(context.Background(), &leads.Lead{WaID: "521"}, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handoff email")
}

func TestStubEmailSender(t *testing.T) {
	stub := NewStubEmailSender(nil)
	assert.NoError(t, stub.Send(context.Background(), EmailMessage{To: "x@y.z"}))
}
