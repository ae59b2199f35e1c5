package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/YelzhanWeb/errwatch/internal/adapter/logger"
	"github.com/YelzhanWeb/errwatch/internal/domain"
	"github.com/YelzhanWeb/errwatch/internal/interfaces"
)

type HistoryHandler struct {
	service interfaces.HistoryService
	logger  logger.Logger
}

func NewHistoryHandler(service interfaces.HistoryService, logger logger.Logger) *HistoryHandler {
	return &HistoryHandler{
		service: service,
		logger:  logger,
	}
}

// ListReports serves GET /errors?limit=N.
func (h *HistoryHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	reports, err := h.service.ListReports(r.Context(), limit)
	if err != nil {
		respondError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, reports)
}

// GetReport serves GET /errors/{id}.
func (h *HistoryHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.PathValue("id")
	report, err := h.service.GetReport(r.Context(), id)
	if errors.Is(err, domain.ErrReportNotFound) {
		respondError(w, "Report not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("history_lookup_failed", "Failed to load report", id, nil, err)
		respondError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, ErrorResponse{Error: message})
}
