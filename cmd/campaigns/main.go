package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/jmoralesv/optica-crm/internal/campaigns"
	appconfig "github.com/jmoralesv/optica-crm/internal/config"
	"github.com/jmoralesv/optica-crm/internal/messaging"
	"github.com/jmoralesv/optica-crm/internal/messaging/whatsappclient"
	"github.com/jmoralesv/optica-crm/pkg/logging"
)

// One-shot campaign trigger, meant to run from cron. Processes every active
// campaign unless -campaign narrows it to one.
func main() {
	var (
		campaignID = flag.String("campaign", "", "campaign id to process (default: all active)")
		force      = flag.Bool("force", false, "bypass the day-interval gate for one send")
	)
	flag.Parse()

	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel).Component("campaigns")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	channel := whatsappclient.New(cfg.WhatsAppAPIBaseURL, cfg.WhatsAppToken, cfg.WhatsAppPhoneNumberID, logger)
	scheduler := campaigns.NewScheduler(
		campaigns.NewPostgresStore(pool),
		messaging.NewPostgresStore(pool),
		channel,
		nil,
		logger,
	)

	report, err := scheduler.Run(ctx, campaigns.RunRequest{CampaignID: *campaignID, Force: *force})
	if err != nil {
		logger.Error("campaign run failed", "error", err, "campaign_id", *campaignID)
		os.Exit(1)
	}
	logger.Info("campaign run finished",
		"processed", report.Processed,
		"sent", report.Sent,
		"failed", report.Failed,
		"skipped", report.Skipped,
		"completed", report.Completed,
	)
}
