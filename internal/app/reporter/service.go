package reporter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/YelzhanWeb/errwatch/internal/adapter/logger"
	"github.com/YelzhanWeb/errwatch/internal/adapter/metrics"
	"github.com/YelzhanWeb/errwatch/internal/config"
	"github.com/YelzhanWeb/errwatch/internal/domain"
	"github.com/YelzhanWeb/errwatch/internal/interfaces"
)

// KeyAlertFailedAt is added to the entry that records a failed alert.
const KeyAlertFailedAt = "alertFailedAt"

type Options struct {
	MaxDepth int
	Sinks    []interfaces.EntrySink
	Metrics  *metrics.Reporter

	// Diagnostics receives a plain-text line for every failed alert.
	// Defaults to os.Stderr.
	Diagnostics io.Writer
	Now         func() time.Time
}

type Service struct {
	logger   logger.Logger
	sender   interfaces.AlertSender
	alert    config.AlertConfig
	maxDepth int
	limiter  *rate.Limiter
	sinks    []interfaces.EntrySink
	metrics  *metrics.Reporter
	diag     io.Writer
	now      func() time.Time
}

func NewService(logger logger.Logger, sender interfaces.AlertSender, alert config.AlertConfig, opts Options) *Service {
	s := &Service{
		logger:   logger,
		sender:   sender,
		alert:    alert,
		maxDepth: opts.MaxDepth,
		sinks:    opts.Sinks,
		metrics:  opts.Metrics,
		diag:     opts.Diagnostics,
		now:      opts.Now,
	}

	if s.maxDepth <= 0 {
		s.maxDepth = domain.MaxCauseDepth
	}
	if s.diag == nil {
		s.diag = os.Stderr
	}
	if s.now == nil {
		s.now = time.Now
	}
	if alert.MaxPerMinute > 0 {
		s.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(alert.MaxPerMinute)), alert.MaxPerMinute)
	}

	return s
}

func (s *Service) Report(ctx context.Context, err error) {
	s.reportError(ctx, err, "", nil)
}

// ReportUrgent sends an alert for urgentLabel, then reports err. A failed
// alert is itself reported through ReportWithContext and never retried.
func (s *Service) ReportUrgent(ctx context.Context, err error, urgentLabel string) {
	s.sendAlert(ctx, urgentLabel)
	s.reportError(ctx, err, urgentLabel, nil)
}

// ReportWithContext merges extra into the entry after the default keys.
func (s *Service) ReportWithContext(ctx context.Context, err error, extra map[string]any) {
	s.reportError(ctx, err, "", extra)
}

// ReportTree reports an error that was already serialized elsewhere. A
// non-empty urgentLabel triggers an alert first. It returns the report id.
func (s *Service) ReportTree(ctx context.Context, tree domain.Value, urgentLabel string, extra map[string]any) string {
	if urgentLabel != "" {
		s.sendAlert(ctx, urgentLabel)
	}
	return s.emit(ctx, tree, nil, urgentLabel, extra)
}

func (s *Service) reportError(ctx context.Context, err error, urgentLabel string, extra map[string]any) string {
	tree, capErr := Capture(err, s.maxDepth)
	return s.emit(ctx, tree, capErr, urgentLabel, extra)
}

func (s *Service) emit(ctx context.Context, tree domain.Value, capErr error, urgentLabel string, extra map[string]any) (id string) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(s.diag, "errwatch: report %s aborted: %v\n", id, r)
		}
	}()

	id = uuid.NewString()

	entry, buildErr := s.buildEntry(tree, capErr)
	entry[domain.KeyReportID] = id
	if urgentLabel != "" {
		entry[domain.KeyUrgent] = urgentLabel
	}
	entry.Merge(extra)

	s.logger.Error("error_reported", "Error reported", id, entry, nil)

	outcome := metrics.ReportOK
	if buildErr != nil {
		outcome = metrics.ReportDegraded
	}
	s.metrics.RecordReport(outcome, urgentLabel != "")

	msg := interfaces.ReportMessage{
		ID:          id,
		Entry:       entry,
		UrgentLabel: urgentLabel,
		ReportedAt:  s.now(),
	}
	for _, sink := range s.sinks {
		sink.Write(ctx, msg)
	}

	return id
}

// buildEntry never fails; a capture or normalization error leaves the
// default keys empty and is recorded under captureError.
func (s *Service) buildEntry(tree domain.Value, capErr error) (domain.LogEntry, error) {
	degraded := func(err error) (domain.LogEntry, error) {
		entry := domain.NewLogEntry(domain.RootCause{})
		entry[domain.KeyCaptureError] = err.Error()
		return entry, err
	}

	if capErr != nil {
		return degraded(capErr)
	}

	record, err := domain.NewErrorRecord(tree, s.maxDepth)
	if err != nil {
		return degraded(err)
	}

	rc, err := record.RootCause(s.maxDepth)
	if err != nil {
		return degraded(err)
	}

	return domain.NewLogEntry(rc), nil
}

func (s *Service) sendAlert(ctx context.Context, urgentLabel string) {
	if s.limiter != nil && !s.limiter.Allow() {
		s.metrics.RecordAlert(metrics.AlertThrottled)
		s.logger.Warn("alert_throttled", "Urgent alert skipped by rate limit", "", map[string]interface{}{
			"label": urgentLabel,
		})
		return
	}

	alert := domain.AlertRequest{
		Name:         s.alert.Name,
		Message:      domain.UrgentMessage(urgentLabel),
		Recipients:   s.alert.Recipients,
		Level:        s.alert.Level,
		TemplateCode: s.alert.TemplateCode,
		Timestamp:    s.now(),
	}

	result, err := s.send(ctx, alert)
	if err != nil {
		s.metrics.RecordAlert(metrics.AlertFailed)
		s.ReportWithContext(ctx, err, map[string]any{
			KeyAlertFailedAt: alert.FormattedTime(),
		})
		fmt.Fprintf(s.diag, "errwatch: alert %q failed at %s: %v\n", urgentLabel, alert.FormattedTime(), err)
		return
	}

	s.metrics.RecordAlert(metrics.AlertSent)
	s.logger.Info("alert_sent", "Urgent alert sent", "", map[string]interface{}{
		"label":  urgentLabel,
		"result": result,
	})
}

func (s *Service) send(ctx context.Context, alert domain.AlertRequest) (result string, err error) {
	if s.sender == nil {
		return "", &domain.TransportError{Err: errors.New("no alert sender configured")}
	}

	defer func() {
		if r := recover(); r != nil {
			err = &domain.TransportError{Err: fmt.Errorf("sender panicked: %v", r)}
		}
	}()

	return s.sender.Send(ctx, alert)
}
