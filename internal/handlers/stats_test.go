package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/recallbot/internal/logger"
	"github.com/memohai/recallbot/internal/recall"
)

type fakeStats struct {
	entries  []recall.Entry
	clearErr error
	cleared  bool
}

func (f *fakeStats) Stats() []recall.Entry { return f.entries }

func (f *fakeStats) Total() int {
	total := 0
	for _, e := range f.entries {
		total += e.Count
	}
	return total
}

func (f *fakeStats) Report() string { return recall.FormatStats(f.entries) }

func (f *fakeStats) Clear(context.Context) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.cleared = true
	f.entries = nil
	return nil
}

func newEcho(hs ...interface{ Register(*echo.Echo) }) *echo.Echo {
	e := echo.New()
	for _, h := range hs {
		h.Register(e)
	}
	return e
}

func do(e *echo.Echo, method, target, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestStatsGet(t *testing.T) {
	svc := &fakeStats{entries: []recall.Entry{{Reason: "Listeria", Count: 2}, {Reason: "Glass", Count: 1}}}
	e := newEcho(NewStatsHandler(svc, "", logger.Discard()))

	rec := do(e, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Total)
	assert.Equal(t, svc.entries, body.Entries)
}

func TestStatsGetEmptyEncodesArray(t *testing.T) {
	e := newEcho(NewStatsHandler(&fakeStats{}, "", logger.Discard()))

	rec := do(e, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total":0,"entries":[]}`, rec.Body.String())
}

func TestStatsText(t *testing.T) {
	svc := &fakeStats{entries: []recall.Entry{{Reason: "Mold", Count: 1}}}
	e := newEcho(NewStatsHandler(svc, "", logger.Discard()))

	rec := do(e, http.MethodGet, "/stats/text", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Top recall reasons:\n1. Mold (1)", rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMETextPlain))
}

func TestStatsClearRequiresKey(t *testing.T) {
	svc := &fakeStats{entries: []recall.Entry{{Reason: "Mold", Count: 1}}}
	e := newEcho(NewStatsHandler(svc, "s3cret", logger.Discard()))

	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodDelete, "/stats", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodDelete, "/stats", "Bearer wrong").Code)
	assert.False(t, svc.cleared)

	rec := do(e, http.MethodDelete, "/stats", "Bearer s3cret")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, svc.cleared)
}

func TestStatsClearDisabledWithoutKey(t *testing.T) {
	svc := &fakeStats{}
	e := newEcho(NewStatsHandler(svc, "", logger.Discard()))

	rec := do(e, http.MethodDelete, "/stats", "Bearer anything")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.False(t, svc.cleared)
}

func TestStatsClearFailure(t *testing.T) {
	svc := &fakeStats{clearErr: errors.New("disk full")}
	e := newEcho(NewStatsHandler(svc, "k", logger.Discard()))

	rec := do(e, http.MethodDelete, "/stats", "Bearer k")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPingAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_hits_total", Help: "hits"})
	reg.MustRegister(counter)
	counter.Inc()
	e := newEcho(NewPingHandler(logger.Discard()), NewMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	rec := do(e, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, http.StatusOK, do(e, http.MethodHead, "/health", "").Code)

	rec = do(e, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_hits_total 1")
}
