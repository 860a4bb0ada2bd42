package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jmoralesv/optica-crm/internal/bot"
	"github.com/jmoralesv/optica-crm/internal/cache"
	observemetrics "github.com/jmoralesv/optica-crm/internal/observability/metrics"
	"github.com/jmoralesv/optica-crm/pkg/logging"
)

type inboundProcessor interface {
	HandleInbound(ctx context.Context, msg bot.InboundMessage) error
}

type deliveryStatusStore interface {
	UpdateStatusByProviderID(ctx context.Context, providerMessageID, status string, at time.Time) error
}

// WhatsAppWebhookHandler receives Meta's webhook traffic: the one-time GET
// verification handshake and the POSTed message/status notifications.
type WhatsAppWebhookHandler struct {
	processor   inboundProcessor
	statusStore deliveryStatusStore
	dedup       *cache.Dedup
	verifyToken string
	appSecret   string
	metrics     *observemetrics.BotMetrics
	logger      *logging.Logger
}

type WhatsAppWebhookConfig struct {
	Processor   inboundProcessor
	StatusStore deliveryStatusStore
	Dedup       *cache.Dedup
	VerifyToken string
	AppSecret   string
	Metrics     *observemetrics.BotMetrics
	Logger      *logging.Logger
}

func NewWhatsAppWebhookHandler(cfg WhatsAppWebhookConfig) *WhatsAppWebhookHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &WhatsAppWebhookHandler{
		processor:   cfg.Processor,
		statusStore: cfg.StatusStore,
		dedup:       cfg.Dedup,
		verifyToken: cfg.VerifyToken,
		appSecret:   cfg.AppSecret,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
	}
}

// webhookPayload mirrors the Cloud API notification envelope, trimmed to the
// fields the engine consumes.
type webhookPayload struct {
	Entry []struct {
		Changes []struct {
			Field string       `json:"field"`
			Value webhookValue `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type webhookValue struct {
	Contacts []struct {
		WaID    string `json:"wa_id"`
		Profile struct {
			Name string `json:"name"`
		} `json:"profile"`
	} `json:"contacts"`
	Messages []struct {
		From      string `json:"from"`
		ID        string `json:"id"`
		Timestamp string `json:"timestamp"`
		Type      string `json:"type"`
		Text      struct {
			Body string `json:"body"`
		} `json:"text"`
		Image struct {
			Caption string `json:"caption"`
		} `json:"image"`
	} `json:"messages"`
	Statuses []struct {
		ID        string `json:"id"`
		Status    string `json:"status"`
		Timestamp string `json:"timestamp"`
	} `json:"statuses"`
}

// Verify answers the subscription handshake: echo hub.challenge when the
// verify token matches.
func (h *WhatsAppWebhookHandler) Verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") == "subscribe" && q.Get("hub.verify_token") == h.verifyToken {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(q.Get("hub.challenge")))
		return
	}
	h.logger.Warn("webhook verification rejected", "mode", q.Get("hub.mode"))
	http.Error(w, "verification failed", http.StatusForbidden)
}

// Receive processes one notification POST. Anything past signature and JSON
// validation answers 200: a retry storm from the provider cannot fix a
// processing error and only duplicates work.
func (h *WhatsAppWebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if !h.validSignature(r.Header.Get("X-Hub-Signature-256"), body) {
		h.logger.Warn("invalid webhook signature")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	eventType := "unknown"
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			if len(change.Value.Messages) > 0 {
				eventType = "message"
			} else if len(change.Value.Statuses) > 0 {
				eventType = "status"
			}
			h.handleValue(r.Context(), change.Value)
		}
	}

	h.metrics.ObserveWebhookLatency(eventType, time.Since(start).Seconds())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (h *WhatsAppWebhookHandler) handleValue(ctx context.Context, value webhookValue) {
	names := map[string]string{}
	for _, c := range value.Contacts {
		names[c.WaID] = c.Profile.Name
	}

	for _, m := range value.Messages {
		if h.dedup.Seen(ctx, m.ID) {
			h.logger.Info("duplicate delivery dropped by cache", "provider_message_id", m.ID)
			continue
		}

		body := m.Text.Body
		if m.Type != "text" {
			body = m.Image.Caption
		}
		msg := bot.InboundMessage{
			WaID:              m.From,
			ProfileName:       names[m.From],
			ProviderMessageID: m.ID,
			Type:              m.Type,
			Body:              body,
			Timestamp:         parseUnixSeconds(m.Timestamp),
		}
		if err := h.processor.HandleInbound(ctx, msg); err != nil {
			// Let the db-level dedup see this id again on redelivery.
			h.dedup.Forget(ctx, m.ID)
			h.logger.Error("inbound processing failed", "error", err, "provider_message_id", m.ID)
		}
	}

	for _, s := range value.Statuses {
		if h.statusStore == nil {
			continue
		}
		if err := h.statusStore.UpdateStatusByProviderID(ctx, s.ID, s.Status, parseUnixSeconds(s.Timestamp)); err != nil {
			h.logger.Error("delivery status update failed", "error", err, "provider_message_id", s.ID)
		}
	}
}

// validSignature checks the X-Hub-Signature-256 HMAC. An unset app secret
// disables validation (local development).
func (h *WhatsAppWebhookHandler) validSignature(header string, body []byte) bool {
	if h.appSecret == "" {
		return true
	}
	sig, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.appSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(sig))
}

func parseUnixSeconds(s string) time.Time {
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Now()
	}
	return time.Unix(secs, 0)
}
