package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/errwatch/internal/domain"
	"github.com/YelzhanWeb/errwatch/internal/interfaces"
)

type execCall struct {
	sql  string
	args []any
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r.values[i].(string)
		case *[]byte:
			*p = r.values[i].([]byte)
		case *time.Time:
			*p = r.values[i].(time.Time)
		}
	}
	return nil
}

type fakeRows struct {
	rows []fakeRow
	pos  int
}

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos <= len(r.rows)
}
func (r *fakeRows) Scan(dest ...any) error { return r.rows[r.pos-1].Scan(dest...) }
func (r *fakeRows) Err() error             { return nil }
func (r *fakeRows) Close()                 {}

type fakeTag int64

func (t fakeTag) RowsAffected() int64 { return int64(t) }

type fakeTx struct {
	execs      []execCall
	failOn     string
	committed  bool
	rolledBack bool
}

func (tx *fakeTx) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	return nil, errors.New("not supported")
}

func (tx *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) Row {
	return fakeRow{err: errors.New("not supported")}
}

func (tx *fakeTx) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	tx.execs = append(tx.execs, execCall{sql: sql, args: args})
	if tx.failOn != "" && strings.Contains(sql, tx.failOn) {
		return nil, errors.New("permission denied")
	}
	return fakeTag(0), nil
}

func (tx *fakeTx) Commit(ctx context.Context) error {
	tx.committed = true
	return nil
}

func (tx *fakeTx) Rollback(ctx context.Context) error {
	if !tx.committed {
		tx.rolledBack = true
	}
	return nil
}

type fakeDB struct {
	execs []execCall
	row   fakeRow
	rows  *fakeRows
	tx    *fakeTx
}

func (db *fakeDB) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	db.execs = append(db.execs, execCall{sql: sql, args: args})
	return db.rows, nil
}

func (db *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) Row {
	db.execs = append(db.execs, execCall{sql: sql, args: args})
	return db.row
}

func (db *fakeDB) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	db.execs = append(db.execs, execCall{sql: sql, args: args})
	return fakeTag(1), nil
}

func (db *fakeDB) Begin(ctx context.Context) (Tx, error) {
	if db.tx == nil {
		return nil, errors.New("not supported")
	}
	return db.tx, nil
}

func (db *fakeDB) Close() {}

func TestReportRepository_Save(t *testing.T) {
	db := &fakeDB{}
	repo := NewReportRepository(db)
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

	err := repo.Save(context.Background(), interfaces.ReportMessage{
		ID: "6f1c0d5e-1111-4c8e-9a55-0a0b0c0d0e0f",
		Entry: map[string]any{
			domain.KeyErrorType:      "IOException",
			domain.KeyErrorReason:    "socket closed",
			domain.KeyOriginLocation: "OrderRepository",
		},
		UrgentLabel: "billing",
		ReportedAt:  at,
	})
	require.NoError(t, err)

	require.Len(t, db.execs, 1)
	args := db.execs[0].args
	assert.Equal(t, "6f1c0d5e-1111-4c8e-9a55-0a0b0c0d0e0f", args[0])
	assert.Equal(t, "IOException", args[1])
	assert.Equal(t, "socket closed", args[2])
	assert.Equal(t, "OrderRepository", args[3])
	assert.Equal(t, "billing", args[4])
	assert.JSONEq(t, `{"errorType":"IOException","errorReason":"socket closed","originLocation":"OrderRepository"}`, string(args[5].([]byte)))
	assert.Equal(t, at, args[6])
}

func TestReportRepository_FindByID(t *testing.T) {
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	entry, _ := json.Marshal(map[string]any{domain.KeyErrorType: "IOException"})
	id := "6f1c0d5e-1111-4c8e-9a55-0a0b0c0d0e0f"
	db := &fakeDB{row: fakeRow{values: []any{id, "", entry, at}}}

	msg, err := NewReportRepository(db).FindByID(context.Background(), strings.ToUpper(id))
	require.NoError(t, err)
	assert.Equal(t, id, msg.ID)
	assert.Equal(t, id, db.execs[0].args[0])
	assert.Equal(t, "IOException", msg.Entry[domain.KeyErrorType])
	assert.Equal(t, at, msg.ReportedAt)
}

func TestReportRepository_FindByIDMissing(t *testing.T) {
	db := &fakeDB{row: fakeRow{err: pgx.ErrNoRows}}

	_, err := NewReportRepository(db).FindByID(context.Background(), "0b8e4d1c-2222-4a6f-8c3d-111213141516")
	assert.ErrorIs(t, err, domain.ErrReportNotFound)
}

func TestReportRepository_FindByIDMalformed(t *testing.T) {
	db := &fakeDB{}

	for _, id := range []string{"not-a-uuid", "", "r-1"} {
		_, err := NewReportRepository(db).FindByID(context.Background(), id)
		assert.ErrorIs(t, err, domain.ErrReportNotFound, id)
	}
	assert.Empty(t, db.execs)
}

func TestReportRepository_ListRecent(t *testing.T) {
	at := time.Now().UTC()
	entry := []byte(`{"errorType":"A"}`)
	db := &fakeDB{rows: &fakeRows{rows: []fakeRow{
		{values: []any{"1", "", entry, at}},
		{values: []any{"2", "urgent", entry, at}},
	}}}

	reports, err := NewReportRepository(db).ListRecent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "urgent", reports[1].UrgentLabel)
	assert.Equal(t, defaultListLimit, db.execs[0].args[0])
}

func TestMigrate(t *testing.T) {
	tx := &fakeTx{}
	db := &fakeDB{tx: tx}
	require.NoError(t, Migrate(context.Background(), db))

	require.Len(t, tx.execs, 2)
	assert.Contains(t, tx.execs[0].sql, "CREATE TABLE IF NOT EXISTS error_reports")
	assert.Contains(t, tx.execs[1].sql, "CREATE INDEX IF NOT EXISTS")
	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)
	assert.Empty(t, db.execs)
}

func TestMigrate_RollsBackOnFailure(t *testing.T) {
	tx := &fakeTx{failOn: "CREATE INDEX"}
	err := Migrate(context.Background(), &fakeDB{tx: tx})

	assert.ErrorContains(t, err, "permission denied")
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)

	err = Migrate(context.Background(), &fakeDB{})
	assert.ErrorContains(t, err, "failed to begin migration")
}
