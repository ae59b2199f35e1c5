package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/YelzhanWeb/errwatch/internal/adapter/logger"
	"github.com/YelzhanWeb/errwatch/internal/domain"
	"github.com/YelzhanWeb/errwatch/internal/interfaces"
)

const MaxListLimit = 500

type Service struct {
	repo   interfaces.ReportRepository
	logger logger.Logger
}

func NewService(repo interfaces.ReportRepository, logger logger.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) GetReport(ctx context.Context, id string) (*interfaces.ReportMessage, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", domain.ErrReportNotFound)
	}
	return s.repo.FindByID(ctx, id)
}

// ListReports returns the newest reports first. limit is clamped to
// (0, MaxListLimit]; zero or less uses the repository default.
func (s *Service) ListReports(ctx context.Context, limit int) ([]*interfaces.ReportMessage, error) {
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	reports, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		s.logger.Error("history_list_failed", "Failed to list reports", "", map[string]interface{}{
			"limit": limit,
		}, err)
		return nil, err
	}
	if reports == nil {
		reports = []*interfaces.ReportMessage{}
	}
	return reports, nil
}
