package campaigns

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jmoralesv/optica-crm/internal/messaging"
	"github.com/jmoralesv/optica-crm/internal/observability/metrics"
	"github.com/jmoralesv/optica-crm/pkg/logging"
)

var schedulerTracer = otel.Tracer("internal/campaigns")

// ErrCampaignNotFound is returned when a run names an unknown campaign id.
var ErrCampaignNotFound = errors.New("campaigns: campaign not found")

// namePlaceholder is substituted per recipient; left literal when the lead
// has no recorded name.
const namePlaceholder = "{nombre}"

// RunRequest selects what one trigger processes. An empty CampaignID means
// every active campaign; Force bypasses the interval gate for one send.
type RunRequest struct {
	CampaignID string
	Force      bool
}

// RunReport summarizes one trigger for the caller's logs.
type RunReport struct {
	Processed int `json:"processed"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
	Completed int `json:"completed"`
}

// Scheduler walks active campaigns one target group per trigger. All progress
// lives on the campaign row; the scheduler holds no state between runs.
// Advancement and timestamping happen only after a whole group's send
// attempt, so a crash mid-group resends that group on retry (at-least-once).
type Scheduler struct {
	store    Store
	msgStore messaging.Store
	channel  messaging.Sender
	metrics  *metrics.BotMetrics
	logger   *logging.Logger

	now func() time.Time
}

// NewScheduler wires the scheduler. botMetrics may be nil.
func NewScheduler(store Store, msgStore messaging.Store, channel messaging.Sender, botMetrics *metrics.BotMetrics, logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Scheduler{
		store:    store,
		msgStore: msgStore,
		channel:  channel,
		metrics:  botMetrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Run processes one trigger.
func (s *Scheduler) Run(ctx context.Context, req RunRequest) (RunReport, error) {
	ctx, span := schedulerTracer.Start(ctx, "campaigns.Run")
	defer span.End()
	span.SetAttributes(attribute.String("campaign_id", req.CampaignID), attribute.Bool("force", req.Force))

	var report RunReport

	var list []Campaign
	if req.CampaignID != "" {
		c, err := s.store.GetByID(ctx, req.CampaignID)
		if err != nil {
			return report, err
		}
		list = []Campaign{*c}
	} else {
		var err error
		list, err = s.store.ListActive(ctx)
		if err != nil {
			return report, fmt.Errorf("campaigns: list active: %w", err)
		}
	}

	now := s.now()
	for i := range list {
		s.processOne(ctx, &list[i], req.Force, now, &report)
	}
	return report, nil
}

func (s *Scheduler) processOne(ctx context.Context, c *Campaign, force bool, now time.Time, report *RunReport) {
	logger := s.logger.With("campaign_id", c.ID, "campaign", c.Name)

	if !c.IsActive || len(c.TargetGroups) == 0 {
		report.Skipped++
		return
	}

	if !force && !intervalElapsed(c, now) {
		logger.Info("campaign not due yet", "last_sent_at", c.LastSentAt, "interval_days", c.SendIntervalDays)
		report.Skipped++
		return
	}

	if c.CurrentGroupIndex >= len(c.TargetGroups) {
		if err := s.store.Deactivate(ctx, c.ID); err != nil {
			logger.Error("failed to deactivate completed campaign", "error", err)
			return
		}
		logger.Info("campaign completed", "groups", len(c.TargetGroups), "sent_count", c.SentCount)
		report.Completed++
		return
	}

	groupID := c.TargetGroups[c.CurrentGroupIndex]
	members, err := s.store.ListGroupMembers(ctx, groupID)
	if err != nil {
		logger.Error("failed to resolve group members", "error", err, "group_id", groupID)
		return
	}

	if len(members) == 0 {
		if err := s.store.AdvanceEmpty(ctx, c.ID, c.CurrentGroupIndex+1); err != nil {
			logger.Error("failed to advance past empty group", "error", err, "group_id", groupID)
			return
		}
		logger.Info("skipped empty group", "group_id", groupID, "next_index", c.CurrentGroupIndex+1)
		report.Processed++
		return
	}

	// One lead's failure never aborts the rest of the group.
	var sent int
	for _, m := range members {
		body := renderTemplate(c.MessageTemplate, m.Name)
		res, err := messaging.SendAndLog(ctx, m.LeadID, m.WaID, body, s.channel, s.msgStore, logger)
		s.metrics.ObserveCampaignSend(res.Status)
		if err != nil {
			report.Failed++
			continue
		}
		sent++
	}
	report.Sent += sent
	report.Processed++

	if err := s.store.AdvanceCursor(ctx, c.ID, c.CurrentGroupIndex+1, now, sent); err != nil {
		logger.Error("failed to advance campaign cursor", "error", err, "group_id", groupID)
		return
	}
	logger.Info("campaign group sent", "group_id", groupID, "recipients", len(members), "sent", sent)
}

// intervalElapsed reports whether the day-interval gate lets the campaign
// send again.
func intervalElapsed(c *Campaign, now time.Time) bool {
	if c.LastSentAt == nil {
		return true
	}
	return now.Sub(*c.LastSentAt) >= time.Duration(c.SendIntervalDays)*24*time.Hour
}

func renderTemplate(template, name string) string {
	if strings.TrimSpace(name) == "" {
		return template
	}
	return strings.ReplaceAll(template, namePlaceholder, name)
}
