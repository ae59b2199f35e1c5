package interfaces

import "context"

type ReportRepository interface {
	Save(ctx context.Context, msg ReportMessage) error
	FindByID(ctx context.Context, id string) (*ReportMessage, error)
	ListRecent(ctx context.Context, limit int) ([]*ReportMessage, error)
}
