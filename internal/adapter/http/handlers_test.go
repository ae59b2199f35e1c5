package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/errwatch/internal/adapter/logger"
	"github.com/YelzhanWeb/errwatch/internal/domain"
	"github.com/YelzhanWeb/errwatch/internal/interfaces"
)

type treeCall struct {
	tree   domain.Value
	urgent string
	extra  map[string]any
}

type fakeReporter struct {
	calls []treeCall
}

func (f *fakeReporter) Report(ctx context.Context, err error)                                  {}
func (f *fakeReporter) ReportUrgent(ctx context.Context, err error, urgentLabel string)        {}
func (f *fakeReporter) ReportWithContext(ctx context.Context, err error, extra map[string]any) {}

func (f *fakeReporter) ReportTree(ctx context.Context, tree domain.Value, urgentLabel string, extra map[string]any) string {
	f.calls = append(f.calls, treeCall{tree: tree, urgent: urgentLabel, extra: extra})
	return "r-42"
}

type fakeHistory struct {
	reports   map[string]*interfaces.ReportMessage
	lastLimit int
	err       error
}

func (f *fakeHistory) GetReport(ctx context.Context, id string) (*interfaces.ReportMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	if r, ok := f.reports[id]; ok {
		return r, nil
	}
	return nil, domain.ErrReportNotFound
}

func (f *fakeHistory) ListReports(ctx context.Context, limit int) ([]*interfaces.ReportMessage, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	var out []*interfaces.ReportMessage
	for _, r := range f.reports {
		out = append(out, r)
	}
	return out, nil
}

func newRouter(rep *fakeReporter, hist *fakeHistory) http.Handler {
	lgr := logger.NewWithWriter("test", io.Discard, logger.LevelDebug)
	var history *HistoryHandler
	if hist != nil {
		history = NewHistoryHandler(hist, lgr)
	}
	return NewRouter(NewReportHandler(rep, lgr), history, nil, lgr)
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateReport(t *testing.T) {
	rep := &fakeReporter{}
	router := newRouter(rep, nil)

	rec := serve(router, http.MethodPost, "/errors", `{
		"error": {"@type": "java.sql.SQLException", "message": "timeout", "cause": null},
		"urgent": " billing ",
		"context": {"host": "app-1"}
	}`)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp CreateReportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "r-42", resp.ReportID)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	require.Len(t, rep.calls, 1)
	call := rep.calls[0]
	typ, ok := call.tree.Field("type")
	require.True(t, ok)
	assert.Equal(t, "java.sql.SQLException", typ.Text())
	assert.Equal(t, "billing", call.urgent)
	assert.Equal(t, "app-1", call.extra["host"])
}

func TestCreateReport_Rejects(t *testing.T) {
	rep := &fakeReporter{}
	router := newRouter(rep, nil)

	cases := map[string]string{
		"broken json":  `{"error":`,
		"missing tree": `{"urgent":"x"}`,
		"scalar tree":  `{"error":"boom"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := serve(router, http.MethodPost, "/errors", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Empty(t, rep.calls)

	rec := serve(router, http.MethodPost, "/errors", `{"error":{"message":"`+strings.Repeat("x", maxReportBody)+`"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryRoutes(t *testing.T) {
	hist := &fakeHistory{reports: map[string]*interfaces.ReportMessage{
		"r-1": {ID: "r-1", Entry: map[string]any{"errorType": "IOException"}},
	}}
	router := newRouter(&fakeReporter{}, hist)

	rec := serve(router, http.MethodGet, "/errors/r-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got interfaces.ReportMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "IOException", got.Entry["errorType"])

	rec = serve(router, http.MethodGet, "/errors/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(router, http.MethodGet, "/errors?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, hist.lastLimit)

	rec = serve(router, http.MethodGet, "/errors?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	hist.err = errors.New("db down")
	rec = serve(router, http.MethodGet, "/errors/r-1", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRouter_HistoryDisabled(t *testing.T) {
	router := newRouter(&fakeReporter{}, nil)

	rec := serve(router, http.MethodGet, "/errors/r-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	logs := &bytes.Buffer{}
	lgr := logger.NewWithWriter("test", logs, logger.LevelInfo)
	h := RecoveryMiddleware(lgr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := serve(h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, logs.String(), "panic_recovered")
}
