package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jmoralesv/optica-crm/internal/http/handlers"
	httpmiddleware "github.com/jmoralesv/optica-crm/internal/http/middleware"
	"github.com/jmoralesv/optica-crm/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	WhatsAppWebhooks   *handlers.WhatsAppWebhookHandler
	AdminCampaigns     *handlers.AdminCampaignsHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", handlers.Health)

	if cfg.WhatsAppWebhooks != nil {
		r.Route("/webhooks/whatsapp", func(wh chi.Router) {
			wh.Get("/", cfg.WhatsAppWebhooks.Verify)
			wh.Post("/", cfg.WhatsAppWebhooks.Receive)
		})
	}

	if cfg.AdminCampaigns != nil {
		r.Post("/admin/campaigns/run", cfg.AdminCampaigns.Run)
	}

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}
