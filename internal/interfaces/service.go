package interfaces

import (
	"context"

	"github.com/YelzhanWeb/errwatch/internal/domain"
)

// ErrorReporter is the terminal sink for caught errors. None of its methods
// return an error or panic.
type ErrorReporter interface {
	Report(ctx context.Context, err error)
	ReportUrgent(ctx context.Context, err error, urgentLabel string)
	ReportWithContext(ctx context.Context, err error, extra map[string]any)
	ReportTree(ctx context.Context, tree domain.Value, urgentLabel string, extra map[string]any) string
}

type HistoryService interface {
	GetReport(ctx context.Context, id string) (*ReportMessage, error)
	ListReports(ctx context.Context, limit int) ([]*ReportMessage, error)
}

// AlertSender delivers one alert and returns the provider's raw response.
type AlertSender interface {
	Send(ctx context.Context, alert domain.AlertRequest) (string, error)
}

// EntrySink receives every LogEntry a reporter builds.
type EntrySink interface {
	Write(ctx context.Context, msg ReportMessage)
}
