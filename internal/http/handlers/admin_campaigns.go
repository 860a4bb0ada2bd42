package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jmoralesv/optica-crm/internal/campaigns"
	"github.com/jmoralesv/optica-crm/pkg/logging"
)

type campaignRunner interface {
	Run(ctx context.Context, req campaigns.RunRequest) (campaigns.RunReport, error)
}

// AdminCampaignsHandler exposes the manual campaign trigger used by cron jobs
// and the operator dashboard.
type AdminCampaignsHandler struct {
	runner campaignRunner
	logger *logging.Logger
}

func NewAdminCampaignsHandler(runner campaignRunner, logger *logging.Logger) *AdminCampaignsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminCampaignsHandler{runner: runner, logger: logger}
}

type runCampaignsRequest struct {
	CampaignID string `json:"campaign_id"`
	Force      bool   `json:"force"`
}

// Run triggers one scheduler pass. An empty body processes every active
// campaign without forcing.
func (h *AdminCampaignsHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req runCampaignsRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	report, err := h.runner.Run(r.Context(), campaigns.RunRequest{
		CampaignID: req.CampaignID,
		Force:      req.Force,
	})
	if err != nil {
		if errors.Is(err, campaigns.ErrCampaignNotFound) {
			http.Error(w, "campaign not found", http.StatusNotFound)
			return
		}
		h.logger.Error("campaign run failed", "error", err, "campaign_id", req.CampaignID)
		http.Error(w, "campaign run failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(report)
}
