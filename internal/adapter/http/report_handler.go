package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/YelzhanWeb/errwatch/internal/adapter/logger"
	"github.com/YelzhanWeb/errwatch/internal/domain"
	"github.com/YelzhanWeb/errwatch/internal/interfaces"
)

const maxReportBody = 1 << 20

type ReportHandler struct {
	reporter interfaces.ErrorReporter
	logger   logger.Logger
}

func NewReportHandler(reporter interfaces.ErrorReporter, logger logger.Logger) *ReportHandler {
	return &ReportHandler{
		reporter: reporter,
		logger:   logger,
	}
}

// CreateReportRequest carries an error serialized by another process. Keys in
// Error may use the "@" marker; it is stripped on decode.
type CreateReportRequest struct {
	Error   domain.Value   `json:"error"`
	Urgent  string         `json:"urgent,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

type CreateReportResponse struct {
	ReportID string `json:"report_id"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *ReportHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CreateReportRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxReportBody)).Decode(&req); err != nil {
		h.logger.Debug("intake_rejected", "Invalid report body", "", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Error.Kind() != domain.KindMapping {
		respondError(w, "error must be a JSON object", http.StatusBadRequest)
		return
	}

	id := h.reporter.ReportTree(r.Context(), req.Error, strings.TrimSpace(req.Urgent), req.Context)

	respondJSON(w, http.StatusAccepted, CreateReportResponse{ReportID: id})
}
