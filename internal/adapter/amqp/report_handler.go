package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/YelzhanWeb/errwatch/internal/adapter/logger"
	"github.com/YelzhanWeb/errwatch/internal/domain"
	"github.com/YelzhanWeb/errwatch/internal/interfaces"
)

// ReportHandler prints every report received from the exchange and, when a
// repository is set, archives it.
type ReportHandler struct {
	repo   interfaces.ReportRepository
	logger logger.Logger
	out    io.Writer
}

func NewReportHandler(repo interfaces.ReportRepository, logger logger.Logger, out io.Writer) *ReportHandler {
	if out == nil {
		out = os.Stdout
	}
	return &ReportHandler{
		repo:   repo,
		logger: logger,
		out:    out,
	}
}

func (h *ReportHandler) HandleReport(ctx context.Context, body []byte) error {
	var msg interfaces.ReportMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse report message", "", nil, err)
		return err
	}

	entry := domain.LogEntry(msg.Entry)
	h.logger.Debug("report_received", fmt.Sprintf("Received report %s", msg.ID), msg.ID, map[string]interface{}{
		"urgent": msg.UrgentLabel,
	})

	prefix := "Report"
	if msg.UrgentLabel != "" {
		prefix = "URGENT [" + msg.UrgentLabel + "]"
	}
	fmt.Fprintf(h.out, "%s %s at %s: %s: %s (origin %q)\n",
		prefix, msg.ID, msg.ReportedAt.Format(domain.AlertTimeLayout),
		entry.Text(domain.KeyErrorType), entry.Text(domain.KeyErrorReason), entry.Text(domain.KeyOriginLocation))

	if h.repo == nil {
		return nil
	}
	if err := h.repo.Save(ctx, msg); err != nil {
		h.logger.Error("archive_failed", "Failed to archive report", msg.ID, nil, err)
		return err
	}
	return nil
}
