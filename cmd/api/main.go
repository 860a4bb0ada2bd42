package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/jmoralesv/optica-crm/internal/api/router"
	"github.com/jmoralesv/optica-crm/internal/appointments"
	"github.com/jmoralesv/optica-crm/internal/bot"
	"github.com/jmoralesv/optica-crm/internal/cache"
	"github.com/jmoralesv/optica-crm/internal/campaigns"
	appconfig "github.com/jmoralesv/optica-crm/internal/config"
	"github.com/jmoralesv/optica-crm/internal/http/handlers"
	"github.com/jmoralesv/optica-crm/internal/leads"
	"github.com/jmoralesv/optica-crm/internal/messaging"
	"github.com/jmoralesv/optica-crm/internal/messaging/whatsappclient"
	"github.com/jmoralesv/optica-crm/internal/notify"
	"github.com/jmoralesv/optica-crm/internal/observability/metrics"
	"github.com/jmoralesv/optica-crm/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting optica-crm API server", "env", cfg.Env, "port", cfg.Port)

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("database unreachable", "error", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient = redis.NewClient(opts)
		defer func() { _ = redisClient.Close() }()
	}

	leadsRepo := leads.NewPostgresRepository(pool)
	msgStore := messaging.NewPostgresStore(pool)
	apptStore := appointments.NewPostgresStore(pool)
	campaignStore := campaigns.NewPostgresStore(pool)

	channel := whatsappclient.New(cfg.WhatsAppAPIBaseURL, cfg.WhatsAppToken, cfg.WhatsAppPhoneNumberID, logger.Component("whatsapp"))
	botMetrics := metrics.NewBotMetrics(nil)

	emailSender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger.Component("notify"))
	var notifier *notify.Service
	if emailSender != nil {
		notifier = notify.NewService(emailSender, cfg.OperatorEmail, logger.Component("notify"))
	}

	negotiator := bot.NewNegotiator(apptStore, apptStore, leadsRepo, bot.NegotiatorOptions{
		SlotDurationMins: cfg.SlotDurationMins,
		DayStartHour:     cfg.SlotDayStartHour,
		DayEndHour:       cfg.SlotDayEndHour,
		MaxAlternatives:  cfg.MaxAlternatives,
	}, logger.Component("negotiator"))

	var operatorNotifier bot.OperatorNotifier
	if notifier != nil {
		operatorNotifier = notifier
	}
	controller := bot.NewController(leadsRepo, msgStore, channel, negotiator, operatorNotifier, botMetrics,
		bot.ControllerOptions{ReactivateAfter: cfg.BotReactivateAfter}, logger.Component("bot"))

	scheduler := campaigns.NewScheduler(campaignStore, msgStore, channel, botMetrics, logger.Component("campaigns"))

	webhookHandler := handlers.NewWhatsAppWebhookHandler(handlers.WhatsAppWebhookConfig{
		Processor:   controller,
		StatusStore: msgStore,
		Dedup:       cache.NewDedup(redisClient, cfg.DedupTTL, logger.Component("dedup")),
		VerifyToken: cfg.WhatsAppVerifyToken,
		AppSecret:   cfg.WhatsAppAppSecret,
		Metrics:     botMetrics,
		Logger:      logger.Component("webhook"),
	})

	r := router.New(&router.Config{
		Logger:             logger,
		WhatsAppWebhooks:   webhookHandler,
		AdminCampaigns:     handlers.NewAdminCampaignsHandler(scheduler, logger.Component("campaigns")),
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
