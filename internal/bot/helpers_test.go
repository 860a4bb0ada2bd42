package bot

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jmoralesv/optica-crm/internal/appointments"
	"github.com/jmoralesv/optica-crm/internal/leads"
	"github.com/jmoralesv/optica-crm/internal/messaging"
)

// fakeLeadsRepo is an in-memory leads.Repository for bot tests.
type fakeLeadsRepo struct {
	byID map[string]*leads.Lead
	byWa map[string]string
}

func newFakeLeadsRepo() *fakeLeadsRepo {
	return &fakeLeadsRepo{byID: map[string]*leads.Lead{}, byWa: map[string]string{}}
}

func (f *fakeLeadsRepo) add(lead *leads.Lead) *leads.Lead {
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	f.byID[lead.ID] = lead
	f.byWa[lead.WaID] = lead.ID
	return lead
}

func (f *fakeLeadsRepo) GetOrCreateByWaID(ctx context.Context, waID, name string) (*leads.Lead, bool, error) {
	if id, ok := f.byWa[waID]; ok {
		return f.byID[id], false, nil
	}
	lead := f.add(&leads.Lead{WaID: waID, Name: name, Status: leads.StatusNew, BotActive: true})
	return lead, true, nil
}

func (f *fakeLeadsRepo) GetByID(ctx context.Context, id string) (*leads.Lead, error) {
	lead, ok := f.byID[id]
	if !ok {
		return nil, leads.ErrLeadNotFound
	}
	return lead, nil
}

func (f *fakeLeadsRepo) UpdateStatus(ctx context.Context, id, status string) error {
	lead, ok := f.byID[id]
	if !ok {
		return leads.ErrLeadNotFound
	}
	lead.Status = status
	return nil
}

func (f *fakeLeadsRepo) AddTag(ctx context.Context, id, tag string) error {
	lead, ok := f.byID[id]
	if !ok {
		return leads.ErrLeadNotFound
	}
	if !lead.HasTag(tag) {
		lead.Tags = append(lead.Tags, tag)
	}
	return nil
}

func (f *fakeLeadsRepo) SetBotActive(ctx context.Context, id string, active bool) error {
	lead, ok := f.byID[id]
	if !ok {
		return leads.ErrLeadNotFound
	}
	lead.BotActive = active
	return nil
}

func (f *fakeLeadsRepo) SetLastAgentInteraction(ctx context.Context, id string, at time.Time) error {
	lead, ok := f.byID[id]
	if !ok {
		return leads.ErrLeadNotFound
	}
	lead.LastAgentInteraction = &at
	return nil
}

func (f *fakeLeadsRepo) SavePending(ctx context.Context, id string, pending leads.PendingSlot) error {
	lead, ok := f.byID[id]
	if !ok {
		return leads.ErrLeadNotFound
	}
	lead.Pending = pending
	return nil
}

func (f *fakeLeadsRepo) ClearPending(ctx context.Context, id string) error {
	lead, ok := f.byID[id]
	if !ok {
		return leads.ErrLeadNotFound
	}
	lead.Pending = leads.PendingSlot{}
	return nil
}

// fakeOracle scripts availability answers.
type fakeOracle struct {
	available bool
	checkErr  error
	slots     []appointments.Slot
	listErr   error

	checkedAt []time.Time
}

func (f *fakeOracle) CheckAvailability(ctx context.Context, at time.Time, durationMinutes int) (bool, error) {
	f.checkedAt = append(f.checkedAt, at)
	return f.available, f.checkErr
}

func (f *fakeOracle) ListOpenSlots(ctx context.Context, day time.Time, startHour, endHour, slotMinutes int) ([]appointments.Slot, error) {
	return f.slots, f.listErr
}

// fakeCreator records created appointments.
type fakeCreator struct {
	created   []*appointments.Appointment
	createErr error
}

func (f *fakeCreator) Create(ctx context.Context, appt *appointments.Appointment) error {
	if f.createErr != nil {
		return f.createErr
	}
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	f.created = append(f.created, appt)
	return nil
}

// fakeMessageStore collects message-log writes.
type fakeMessageStore struct {
	inbound    []messaging.MessageRecord
	outbound   []messaging.MessageRecord
	system     []string
	seen       map[string]bool
	inboundErr error
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{seen: map[string]bool{}}
}

func (f *fakeMessageStore) InsertInbound(ctx context.Context, rec messaging.MessageRecord) (bool, error) {
	if f.inboundErr != nil {
		return false, f.inboundErr
	}
	if f.seen[rec.ProviderMessageID] {
		return false, nil
	}
	f.seen[rec.ProviderMessageID] = true
	f.inbound = append(f.inbound, rec)
	return true, nil
}

func (f *fakeMessageStore) InsertOutbound(ctx context.Context, rec messaging.MessageRecord) (string, error) {
	f.outbound = append(f.outbound, rec)
	return uuid.NewString(), nil
}

func (f *fakeMessageStore) InsertSystem(ctx context.Context, leadID, body string) error {
	f.system = append(f.system, body)
	return nil
}

// fakeChannel is a scriptable delivery channel.
type fakeChannel struct {
	err  error
	sent []string
}

func (f *fakeChannel) SendText(ctx context.Context, waID, body string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, body)
	return "wamid.out." + uuid.NewString(), nil
}

var errProviderDown = errors.New("provider down")
