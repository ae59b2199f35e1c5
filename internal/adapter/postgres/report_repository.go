package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/YelzhanWeb/errwatch/internal/domain"
	"github.com/YelzhanWeb/errwatch/internal/interfaces"
)

const defaultListLimit = 50

type reportRepository struct {
	db DB
}

func NewReportRepository(db DB) interfaces.ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Save(ctx context.Context, msg interfaces.ReportMessage) error {
	entry, err := json.Marshal(msg.Entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	query := `
		INSERT INTO error_reports (id, error_type, error_reason, origin_location, urgent_label, entry, reported_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	e := domain.LogEntry(msg.Entry)
	_, err = r.db.Exec(ctx, query,
		msg.ID, e.Text(domain.KeyErrorType), e.Text(domain.KeyErrorReason), e.Text(domain.KeyOriginLocation),
		msg.UrgentLabel, entry, msg.ReportedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

// FindByID treats an id that is not a UUID as unknown; it never reaches
// the database.
func (r *reportRepository) FindByID(ctx context.Context, id string) (*interfaces.ReportMessage, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrReportNotFound, id)
	}

	query := `
		SELECT id, urgent_label, entry, reported_at
		FROM error_reports
		WHERE id = $1
	`

	msg, err := scanReport(r.db.QueryRow(ctx, query, parsed.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrReportNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	return msg, nil
}

func (r *reportRepository) ListRecent(ctx context.Context, limit int) ([]*interfaces.ReportMessage, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `
		SELECT id, urgent_label, entry, reported_at
		FROM error_reports
		ORDER BY reported_at DESC
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []*interfaces.ReportMessage
	for rows.Next() {
		msg, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}

	return reports, nil
}

func scanReport(row Row) (*interfaces.ReportMessage, error) {
	var (
		msg   interfaces.ReportMessage
		entry []byte
	)
	if err := row.Scan(&msg.ID, &msg.UrgentLabel, &entry, &msg.ReportedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(entry, &msg.Entry); err != nil {
		return nil, fmt.Errorf("failed to decode entry: %w", err)
	}
	return &msg, nil
}
