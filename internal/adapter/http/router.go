package http

import (
	"net/http"

	"github.com/YelzhanWeb/errwatch/internal/adapter/logger"
)

// NewRouter registers whichever handlers are non-nil and wraps the mux in
// the recovery and logging middleware.
func NewRouter(reports *ReportHandler, history *HistoryHandler, metrics http.Handler, logger logger.Logger) http.Handler {
	mux := http.NewServeMux()

	if reports != nil {
		mux.HandleFunc("POST /errors", reports.CreateReport)
	}
	if history != nil {
		mux.HandleFunc("GET /errors", history.ListReports)
		mux.HandleFunc("GET /errors/{id}", history.GetReport)
	}
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return RecoveryMiddleware(logger)(LoggingMiddleware(logger)(mux))
}
