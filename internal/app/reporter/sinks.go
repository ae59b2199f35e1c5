package reporter

import (
	"context"

	"github.com/YelzhanWeb/errwatch/internal/adapter/logger"
	"github.com/YelzhanWeb/errwatch/internal/interfaces"
)

type archiveSink struct {
	repo   interfaces.ReportRepository
	logger logger.Logger
}

// NewArchiveSink stores every entry in repo. Failures are logged at warn
// level and dropped.
func NewArchiveSink(repo interfaces.ReportRepository, logger logger.Logger) interfaces.EntrySink {
	return &archiveSink{repo: repo, logger: logger}
}

func (s *archiveSink) Write(ctx context.Context, msg interfaces.ReportMessage) {
	if err := s.repo.Save(ctx, msg); err != nil {
		s.logger.Warn("archive_failed", "Failed to archive report", msg.ID, map[string]interface{}{
			"error": err.Error(),
		})
	}
}

type publishSink struct {
	publisher interfaces.ReportPublisher
	logger    logger.Logger
}

// NewPublishSink forwards every entry to the report exchange.
func NewPublishSink(publisher interfaces.ReportPublisher, logger logger.Logger) interfaces.EntrySink {
	return &publishSink{publisher: publisher, logger: logger}
}

func (s *publishSink) Write(ctx context.Context, msg interfaces.ReportMessage) {
	if err := s.publisher.PublishReport(ctx, msg); err != nil {
		s.logger.Warn("publish_failed", "Failed to publish report", msg.ID, map[string]interface{}{
			"error": err.Error(),
		})
	}
}
