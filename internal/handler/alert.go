package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/valentinpelus/kubetriage/internal/publish"
	"github.com/valentinpelus/kubetriage/pkg/types"
)

// Processor runs one webhook delivery through the pipeline.
type Processor interface {
	Process(ctx context.Context, webhook types.AlertmanagerWebhook) (publish.Result, error)
}

// AlertHandler handles incoming Alertmanager webhooks
type AlertHandler struct {
	processor Processor
	logger    *slog.Logger
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(proc Processor, logger *slog.Logger) *AlertHandler {
	return &AlertHandler{
		processor: proc,
		logger:    logger,
	}
}

// HandleAlert processes one webhook delivery synchronously, so Alertmanager
// sees a failure status and retries when a destination is down.
func (h *AlertHandler) HandleAlert(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Warn("failed to read request body", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	defer r.Body.Close()

	var webhook types.AlertmanagerWebhook
	if err := json.Unmarshal(body, &webhook); err != nil {
		h.logger.Warn("failed to parse webhook", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "failed to parse webhook")
		return
	}

	h.logger.Info("received webhook",
		slog.String("status", webhook.Status),
		slog.Int("alerts", len(webhook.Alerts)),
	)

	result, err := h.processor.Process(r.Context(), webhook)
	if err != nil {
		h.logger.Error("incident processing failed", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}
