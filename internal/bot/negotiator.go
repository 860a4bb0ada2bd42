package bot

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jmoralesv/optica-crm/internal/appointments"
	"github.com/jmoralesv/optica-crm/internal/leads"
	"github.com/jmoralesv/optica-crm/pkg/logging"
)

// NegotiatorOptions bound the slot search.
type NegotiatorOptions struct {
	SlotDurationMins int
	DayStartHour     int
	DayEndHour       int
	MaxAlternatives  int
}

func (o NegotiatorOptions) withDefaults() NegotiatorOptions {
	if o.SlotDurationMins <= 0 {
		o.SlotDurationMins = 30
	}
	if o.DayStartHour <= 0 {
		o.DayStartHour = 9
	}
	if o.DayEndHour <= 0 {
		o.DayEndHour = 18
	}
	if o.MaxAlternatives <= 0 {
		o.MaxAlternatives = 3
	}
	return o
}

// Negotiator drives the appointment-booking dialogue: it fills the date/time
// slots across stateless invocations via the lead's persisted pending record,
// checks availability through the oracle and books when a slot is free.
type Negotiator struct {
	oracle    appointments.AvailabilityOracle
	appts     appointments.Creator
	leadsRepo leads.Repository
	opts      NegotiatorOptions
	logger    *logging.Logger
}

// NewNegotiator wires the negotiator with its collaborators.
func NewNegotiator(oracle appointments.AvailabilityOracle, appts appointments.Creator, leadsRepo leads.Repository, opts NegotiatorOptions, logger *logging.Logger) *Negotiator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Negotiator{
		oracle:    oracle,
		appts:     appts,
		leadsRepo: leadsRepo,
		opts:      opts.withDefaults(),
		logger:    logger,
	}
}

// Outcome is what one negotiation step asks the caller to do. An empty Reply
// means stay silent.
type Outcome struct {
	Reply      string
	Booked     *appointments.Appointment
	SystemNote string
}

// Negotiate handles a fresh appointment-intent message. Exactly one of four
// configurations applies: both parts present, date only, time only, neither.
func (n *Negotiator) Negotiate(ctx context.Context, lead *leads.Lead, text string, now time.Time) (Outcome, error) {
	normalized := Normalize(text)
	dateMatch := ExtractDate(normalized, now)
	timeMatch := ExtractTime(normalized)
	apptType := ExtractAppointmentType(normalized)

	switch {
	case dateMatch != nil && timeMatch != nil:
		at := CombineDateTime(dateMatch.Date, *timeMatch)
		return n.book(ctx, lead, at, apptType, text, now)

	case dateMatch != nil:
		pending := leads.PendingSlot{
			Awaiting: leads.AwaitingTime,
			Date:     &dateMatch.Date,
			Type:     apptType,
		}
		if err := n.leadsRepo.SavePending(ctx, lead.ID, pending); err != nil {
			return Outcome{}, err
		}
		return Outcome{Reply: fmt.Sprintf(replyAskTime, FormatDateSpanish(dateMatch.Date))}, nil

	case timeMatch != nil:
		pending := leads.PendingSlot{
			Awaiting:  leads.AwaitingDate,
			TimeOfDay: timeMatch.HHMM(),
			Type:      apptType,
		}
		if err := n.leadsRepo.SavePending(ctx, lead.ID, pending); err != nil {
			return Outcome{}, err
		}
		return Outcome{Reply: fmt.Sprintf(replyAskDate, FormatTimeSpanish(timeMatch.Hour, timeMatch.Minute))}, nil

	default:
		pending := leads.PendingSlot{
			Awaiting: leads.AwaitingDateTime,
			Type:     apptType,
		}
		if err := n.leadsRepo.SavePending(ctx, lead.ID, pending); err != nil {
			return Outcome{}, err
		}
		return Outcome{Reply: replyAskBoth}, nil
	}
}

// Resume continues an in-flight negotiation with the lead's next message.
// handled=false means the message contributed nothing to the dialogue and the
// caller should fall back to normal intent dispatch.
func (n *Negotiator) Resume(ctx context.Context, lead *leads.Lead, text string, now time.Time) (Outcome, bool, error) {
	normalized := Normalize(text)
	pending := lead.Pending

	if pending.Awaiting == leads.AwaitingSelection {
		if at, ok := detectSlotSelection(normalized, pending.ProposedSlots); ok {
			apptType := pending.Type
			if apptType == "" {
				apptType = ExtractAppointmentType(normalized)
			}
			out, err := n.book(ctx, lead, at, apptType, text, now)
			return out, true, err
		}
	}

	dateMatch := ExtractDate(normalized, now)
	timeMatch := ExtractTime(normalized)
	if dateMatch == nil && timeMatch == nil {
		return Outcome{}, false, nil
	}

	// Merge the new parts with what the pending record already holds.
	var date *time.Time
	if dateMatch != nil {
		date = &dateMatch.Date
	} else if pending.Date != nil {
		date = pending.Date
	}
	var tod *TimeMatch
	if timeMatch != nil {
		tod = timeMatch
	} else if pending.TimeOfDay != "" {
		tod = parseHHMM(pending.TimeOfDay)
	}
	apptType := pending.Type
	if apptType == "" {
		apptType = ExtractAppointmentType(normalized)
	}

	switch {
	case date != nil && tod != nil:
		out, err := n.book(ctx, lead, CombineDateTime(*date, *tod), apptType, text, now)
		return out, true, err

	case date != nil:
		next := leads.PendingSlot{Awaiting: leads.AwaitingTime, Date: date, Type: apptType}
		if err := n.leadsRepo.SavePending(ctx, lead.ID, next); err != nil {
			return Outcome{}, true, err
		}
		return Outcome{Reply: fmt.Sprintf(replyAskTime, FormatDateSpanish(*date))}, true, nil

	default:
		next := leads.PendingSlot{Awaiting: leads.AwaitingDate, TimeOfDay: tod.HHMM(), Type: apptType}
		if err := n.leadsRepo.SavePending(ctx, lead.ID, next); err != nil {
			return Outcome{}, true, err
		}
		return Outcome{Reply: fmt.Sprintf(replyAskDate, FormatTimeSpanish(tod.Hour, tod.Minute))}, true, nil
	}
}

// book checks the oracle and either confirms the appointment or proposes
// alternatives for the same day. Appointments are never created when the
// oracle cannot answer.
func (n *Negotiator) book(ctx context.Context, lead *leads.Lead, at time.Time, apptType, rawText string, now time.Time) (Outcome, error) {
	available, err := n.oracle.CheckAvailability(ctx, at, n.opts.SlotDurationMins)
	if err != nil {
		// No answer is not "available": stay silent rather than book blind.
		n.logger.Error("availability check failed", "error", err, "lead_id", lead.ID, "at", at)
		return Outcome{}, nil
	}

	if available {
		appt := &appointments.Appointment{
			LeadID:      lead.ID,
			ScheduledAt: at,
			Status:      appointments.StatusConfirmed,
			Type:        apptType,
			Notes:       fmt.Sprintf("Agendada por bot. Mensaje: %q", rawText),
		}
		if err := n.appts.Create(ctx, appt); err != nil {
			return Outcome{}, fmt.Errorf("bot: create appointment: %w", err)
		}
		if err := n.leadsRepo.ClearPending(ctx, lead.ID); err != nil {
			return Outcome{}, err
		}
		if err := n.leadsRepo.UpdateStatus(ctx, lead.ID, leads.StatusScheduled); err != nil {
			return Outcome{}, err
		}
		return Outcome{
			Reply:      fmt.Sprintf(replyConfirmed, FormatInstantSpanish(at)),
			Booked:     appt,
			SystemNote: fmt.Sprintf("Cita confirmada automáticamente para %s", FormatInstantSpanish(at)),
		}, nil
	}

	slots, err := n.oracle.ListOpenSlots(ctx, at, n.opts.DayStartHour, n.opts.DayEndHour, n.opts.SlotDurationMins)
	if err != nil {
		n.logger.Error("alternative slot search failed", "error", err, "lead_id", lead.ID, "day", at)
		return n.outOfSlots(ctx, lead, apptType)
	}

	var proposals []time.Time
	for _, slot := range slots {
		if slot.Available && !slot.Time.Equal(at) {
			proposals = append(proposals, slot.Time)
			if len(proposals) == n.opts.MaxAlternatives {
				break
			}
		}
	}
	if len(proposals) == 0 {
		return n.outOfSlots(ctx, lead, apptType)
	}

	pending := leads.PendingSlot{
		Awaiting:      leads.AwaitingSelection,
		Type:          apptType,
		ProposedSlots: proposals,
	}
	if err := n.leadsRepo.SavePending(ctx, lead.ID, pending); err != nil {
		return Outcome{}, err
	}
	formatted := make([]string, len(proposals))
	for i, p := range proposals {
		formatted[i] = FormatInstantSpanish(p)
	}
	return Outcome{Reply: formatAlternatives(formatted)}, nil
}

// outOfSlots is the only user-visible failure: nothing on that day, ask for
// another time and keep the negotiation open.
func (n *Negotiator) outOfSlots(ctx context.Context, lead *leads.Lead, apptType string) (Outcome, error) {
	pending := leads.PendingSlot{Awaiting: leads.AwaitingDateTime, Type: apptType}
	if err := n.leadsRepo.SavePending(ctx, lead.ID, pending); err != nil {
		return Outcome{}, err
	}
	return Outcome{Reply: replyNoSlots}, nil
}

var (
	bareNumberRe = regexp.MustCompile(`^(\d+)$`)
	optionRe     = regexp.MustCompile(`(?:opci[oó]n|n[uú]mero|la|el|#)\s*(\d+)`)
	hhmmStoredRe = regexp.MustCompile(`^(\d{2}):(\d{2})$`)
	ordinalWords = map[string]int{"primera": 1, "primero": 1, "segunda": 2, "segundo": 2, "tercera": 3, "tercero": 3}
)

// detectSlotSelection resolves a reply to a presented alternatives list:
// a bare number, "opción N", an ordinal word, or a restated time that matches
// one of the proposed slots.
func detectSlotSelection(text string, proposed []time.Time) (time.Time, bool) {
	if len(proposed) == 0 {
		return time.Time{}, false
	}

	pick := func(idx int) (time.Time, bool) {
		if idx >= 1 && idx <= len(proposed) {
			return proposed[idx-1], true
		}
		return time.Time{}, false
	}

	if m := bareNumberRe.FindStringSubmatch(text); m != nil {
		idx, _ := strconv.Atoi(m[1])
		return pick(idx)
	}
	if m := optionRe.FindStringSubmatch(text); m != nil {
		idx, _ := strconv.Atoi(m[1])
		return pick(idx)
	}
	for word, idx := range ordinalWords {
		if strings.Contains(text, word) {
			return pick(idx)
		}
	}
	if tm := ExtractTime(text); tm != nil {
		for _, p := range proposed {
			if p.Hour() == tm.Hour && p.Minute() == tm.Minute {
				return p, true
			}
		}
	}
	return time.Time{}, false
}

func parseHHMM(s string) *TimeMatch {
	m := hhmmStoredRe.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return nil
	}
	return &TimeMatch{Hour: hour, Minute: minute, Raw: s}
}
