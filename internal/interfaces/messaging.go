package interfaces

import (
	"context"
	"time"
)

// ReportMessage is the wire form of a reported entry, shared by the archive
// and the report exchange.
type ReportMessage struct {
	ID          string         `json:"id"`
	Entry       map[string]any `json:"entry"`
	UrgentLabel string         `json:"urgent_label,omitempty"`
	ReportedAt  time.Time      `json:"reported_at"`
}

type ReportPublisher interface {
	PublishReport(ctx context.Context, msg ReportMessage) error
}

type ReportConsumer interface {
	ConsumeReports(ctx context.Context, handler ReportHandler) error
}

type ReportHandler func(ctx context.Context, body []byte) error
