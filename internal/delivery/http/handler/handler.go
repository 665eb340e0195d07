package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/user/dashboard-scraper/internal/delivery/http/request"
	"github.com/user/dashboard-scraper/internal/delivery/http/response"
	"github.com/user/dashboard-scraper/internal/usecase"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	webhook usecase.WebhookProcessor
	logger  *zap.Logger
}

// NewHandler creates the HTTP handlers. webhook may be nil when the CMS or
// model credentials are missing; the endpoint then answers 503.
func NewHandler(webhook usecase.WebhookProcessor, logger *zap.Logger) *Handler {
	return &Handler{webhook: webhook, logger: logger}
}

func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if h.webhook == nil {
		h.writeJSONError(w, "webhook pipeline is not configured", http.StatusServiceUnavailable)
		return
	}

	var req request.WebhookRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeJSONError(w, "No JSON data provided", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	topic := req.ResolvedTopic()
	h.logger.Info("webhook received",
		zap.String("collection_id", req.CollectionID),
		zap.String("site_id", req.SiteID),
		zap.String("topic", topic),
		zap.Int("count", req.Count),
	)

	summary, err := h.webhook.Process(r.Context(), usecase.WebhookRequest{
		CollectionID: req.CollectionID,
		SiteID:       req.SiteID,
		Topic:        topic,
		Count:        req.Count,
	})
	if err != nil {
		h.logger.Error("webhook failed", zap.String("topic", topic), zap.Error(err))
		h.writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := response.FromSummary(summary)
	resp.Message = fmt.Sprintf("Generated and processed %d items", summary.Total)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, response.ErrorResponse{Error: message})
}
