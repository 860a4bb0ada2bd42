package bot

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jmoralesv/optica-crm/internal/appointments"
	"github.com/jmoralesv/optica-crm/internal/leads"
	"github.com/jmoralesv/optica-crm/internal/messaging"
	"github.com/jmoralesv/optica-crm/internal/observability/metrics"
	"github.com/jmoralesv/optica-crm/pkg/logging"
)

var controllerTracer = otel.Tracer("internal/bot")

// OperatorNotifier alerts a human when the bot hands a conversation off or
// books an appointment. Implementations must not block webhook processing on
// failure.
type OperatorNotifier interface {
	NotifyHandoff(ctx context.Context, lead *leads.Lead, lastMessage string) error
	NotifyBooking(ctx context.Context, lead *leads.Lead, appt *appointments.Appointment) error
}

// InboundMessage is one provider webhook message after transport decoding.
type InboundMessage struct {
	WaID              string
	ProfileName       string
	ProviderMessageID string
	Type              string
	Body              string
	Timestamp         time.Time
}

// ControllerOptions tune the state machine.
type ControllerOptions struct {
	// ReactivateAfter is how long after the last human agent interaction the
	// bot turns itself back on.
	ReactivateAfter time.Duration
}

func (o ControllerOptions) withDefaults() ControllerOptions {
	if o.ReactivateAfter <= 0 {
		o.ReactivateAfter = 2 * time.Hour
	}
	return o
}

// Controller is the bot state machine: it decides, per inbound message,
// whether the bot may speak at all, and if so routes the message through the
// negotiator or the intent classifier. All state lives on the lead row.
type Controller struct {
	leadsRepo  leads.Repository
	msgStore   messaging.Store
	channel    messaging.Sender
	negotiator *Negotiator
	notifier   OperatorNotifier
	metrics    *metrics.BotMetrics
	opts       ControllerOptions
	logger     *logging.Logger

	now func() time.Time
}

// NewController wires the controller. notifier and botMetrics may be nil.
func NewController(
	leadsRepo leads.Repository,
	msgStore messaging.Store,
	channel messaging.Sender,
	negotiator *Negotiator,
	notifier OperatorNotifier,
	botMetrics *metrics.BotMetrics,
	opts ControllerOptions,
	logger *logging.Logger,
) *Controller {
	if logger == nil {
		logger = logging.Default()
	}
	return &Controller{
		leadsRepo:  leadsRepo,
		msgStore:   msgStore,
		channel:    channel,
		negotiator: negotiator,
		notifier:   notifier,
		metrics:    botMetrics,
		opts:       opts.withDefaults(),
		logger:     logger,
		now:        time.Now,
	}
}

// HandleInbound processes one provider message end to end. Every inbound
// message is recorded; whether the bot replies depends on its activation
// state. Duplicate deliveries (same provider message id) are dropped after
// the first.
func (c *Controller) HandleInbound(ctx context.Context, msg InboundMessage) error {
	ctx, span := controllerTracer.Start(ctx, "bot.HandleInbound")
	defer span.End()
	span.SetAttributes(attribute.String("wa_id", msg.WaID))

	if msg.WaID == "" {
		return fmt.Errorf("bot: inbound message without wa_id")
	}

	lead, created, err := c.leadsRepo.GetOrCreateByWaID(ctx, msg.WaID, msg.ProfileName)
	if err != nil {
		return fmt.Errorf("bot: resolve lead: %w", err)
	}
	if created {
		c.logger.Info("lead created from inbound message", "lead_id", lead.ID, "wa_id", msg.WaID)
	}

	stored, err := c.msgStore.InsertInbound(ctx, messaging.MessageRecord{
		LeadID:            lead.ID,
		Body:              msg.Body,
		Status:            messaging.StatusReceived,
		ProviderMessageID: msg.ProviderMessageID,
	})
	if err != nil {
		return fmt.Errorf("bot: record inbound: %w", err)
	}
	if !stored {
		c.logger.Info("duplicate inbound message dropped", "lead_id", lead.ID, "provider_message_id", msg.ProviderMessageID)
		return nil
	}

	if msg.Type != "text" || msg.Body == "" {
		// Non-text content is logged above but never answered.
		c.logger.Info("skipping non-text message", "lead_id", lead.ID, "type", msg.Type)
		return nil
	}

	now := c.now()
	c.maybeReactivate(ctx, lead, now)

	if lead.HasTag(leads.TagBotStop) || !lead.BotActive {
		c.logger.Info("bot silenced for lead", "lead_id", lead.ID, "bot_active", lead.BotActive)
		return nil
	}

	cls := Classify(msg.Body, lead.Status)
	c.metrics.ObserveInbound(cls.Kind.String())
	c.logger.Info("inbound message classified", "lead_id", lead.ID, "intent", cls.Kind.String(), "matched", cls.Matched)

	// A request for a human wins over any in-flight negotiation.
	if cls.Kind == IntentHandoff {
		return c.handleHandoff(ctx, lead, msg.Body)
	}

	if !lead.Pending.IsZero() {
		out, handled, err := c.negotiator.Resume(ctx, lead, msg.Body, now)
		if err != nil {
			return err
		}
		if handled {
			return c.finishOutcome(ctx, lead, out)
		}
	}

	switch cls.Kind {
	case IntentAppointment:
		out, err := c.negotiator.Negotiate(ctx, lead, msg.Body, now)
		if err != nil {
			return err
		}
		return c.finishOutcome(ctx, lead, out)

	case IntentMenu:
		if err := c.leadsRepo.UpdateStatus(ctx, lead.ID, leads.StatusInterested); err != nil {
			return err
		}
		if err := c.leadsRepo.AddTag(ctx, lead.ID, topicTags[cls.Topic]); err != nil {
			return err
		}
		return c.reply(ctx, lead, topicReplies[cls.Topic])

	case IntentGreeting:
		return c.reply(ctx, lead, replyMenu)

	default:
		// Nothing matched: stay quiet rather than guess.
		return nil
	}
}

// maybeReactivate turns the bot back on once the agent-silence window has
// elapsed. Runs before the hard stops so a lead parked by an agent is not
// silenced forever; the bot_stop tag still wins.
func (c *Controller) maybeReactivate(ctx context.Context, lead *leads.Lead, now time.Time) {
	if lead.BotActive || lead.HasTag(leads.TagBotStop) {
		return
	}
	if lead.LastAgentInteraction == nil || now.Sub(*lead.LastAgentInteraction) < c.opts.ReactivateAfter {
		return
	}
	if err := c.leadsRepo.SetBotActive(ctx, lead.ID, true); err != nil {
		c.logger.Error("failed to reactivate bot", "error", err, "lead_id", lead.ID)
		return
	}
	lead.BotActive = true
	c.metrics.ObserveReactivation()
	note := fmt.Sprintf("Bot reactivado automáticamente tras %s sin actividad del asesor", c.opts.ReactivateAfter)
	if err := c.msgStore.InsertSystem(ctx, lead.ID, note); err != nil {
		c.logger.Error("failed to log reactivation", "error", err, "lead_id", lead.ID)
	}
}

func (c *Controller) handleHandoff(ctx context.Context, lead *leads.Lead, lastMessage string) error {
	if err := c.leadsRepo.UpdateStatus(ctx, lead.ID, leads.StatusInterested); err != nil {
		return err
	}
	// The tag is sticky: the bot stays out of the conversation until an
	// operator removes it.
	if err := c.leadsRepo.AddTag(ctx, lead.ID, leads.TagBotStop); err != nil {
		return err
	}
	if !lead.Pending.IsZero() {
		if err := c.leadsRepo.ClearPending(ctx, lead.ID); err != nil {
			return err
		}
		lead.Pending = leads.PendingSlot{}
	}
	if c.notifier != nil {
		if err := c.notifier.NotifyHandoff(ctx, lead, lastMessage); err != nil {
			c.logger.Error("handoff notification failed", "error", err, "lead_id", lead.ID)
		}
	}
	return c.reply(ctx, lead, replyHandoff)
}

// finishOutcome applies one negotiation outcome: send the reply if any, log
// the system note, and fan out booking notifications.
func (c *Controller) finishOutcome(ctx context.Context, lead *leads.Lead, out Outcome) error {
	if out.SystemNote != "" {
		if err := c.msgStore.InsertSystem(ctx, lead.ID, out.SystemNote); err != nil {
			c.logger.Error("failed to log system note", "error", err, "lead_id", lead.ID)
		}
	}
	if out.Booked != nil {
		c.metrics.ObserveBooking()
		if c.notifier != nil {
			if err := c.notifier.NotifyBooking(ctx, lead, out.Booked); err != nil {
				c.logger.Error("booking notification failed", "error", err, "lead_id", lead.ID)
			}
		}
	}
	if out.Reply == "" {
		return nil
	}
	return c.reply(ctx, lead, out.Reply)
}

// reply sends one bot message. Send failures are recorded in the message log
// by SendAndLog; they do not fail webhook processing.
func (c *Controller) reply(ctx context.Context, lead *leads.Lead, body string) error {
	res, _ := messaging.SendAndLog(ctx, lead.ID, lead.WaID, body, c.channel, c.msgStore, c.logger)
	c.metrics.ObserveReply(res.Status)
	return nil
}
