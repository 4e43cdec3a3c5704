package server

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/memohai/recallbot/internal/handlers"
	"github.com/memohai/recallbot/internal/logger"
)

type panicHandler struct{}

func (panicHandler) Register(e *echo.Echo) {
	e.GET("/boom", func(echo.Context) error { panic("boom") })
}

type scopedLoggerHandler struct {
	got *slog.Logger
}

func (h *scopedLoggerHandler) Register(e *echo.Echo) {
	e.GET("/scoped", func(c echo.Context) error {
		h.got = logger.FromContext(c.Request().Context(), nil)
		return c.NoContent(http.StatusOK)
	})
}

func TestRequestScopedLogger(t *testing.T) {
	h := &scopedLoggerHandler{}
	s := NewServer(logger.Discard(), ":0", h)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scoped", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, h.got)
	assert.NotSame(t, logger.L, h.got)
}

func TestServerMiddleware(t *testing.T) {
	s := NewServer(logger.Discard(), "", handlers.NewPingHandler(logger.Discard()), nil, panicHandler{})
	assert.Equal(t, ":8080", s.addr)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
