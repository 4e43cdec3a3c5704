package handlers

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/memohai/recallbot/internal/logger"
	"github.com/memohai/recallbot/internal/recall"
)

// StatsService is the read and reset surface of the tracker.
type StatsService interface {
	Stats() []recall.Entry
	Total() int
	Report() string
	Clear(ctx context.Context) error
}

// StatsResponse is the JSON body of GET /stats.
type StatsResponse struct {
	Total   int            `json:"total"`
	Entries []recall.Entry `json:"entries"`
}

type StatsHandler struct {
	service  StatsService
	adminKey string
	logger   *slog.Logger
}

// NewStatsHandler creates the stats handler. An empty adminKey disables
// DELETE /stats.
func NewStatsHandler(service StatsService, adminKey string, log *slog.Logger) *StatsHandler {
	return &StatsHandler{
		service:  service,
		adminKey: adminKey,
		logger:   log.With(slog.String("handler", "stats")),
	}
}

func (h *StatsHandler) Register(e *echo.Echo) {
	group := e.Group("/stats")
	group.GET("", h.Get)
	group.GET("/text", h.Text)
	if h.adminKey != "" {
		group.DELETE("", h.Clear, middleware.KeyAuth(h.validateKey))
	}
}

func (h *StatsHandler) validateKey(key string, _ echo.Context) (bool, error) {
	return subtle.ConstantTimeCompare([]byte(key), []byte(h.adminKey)) == 1, nil
}

// Get godoc
// @Summary Recall ranking
// @Description Reasons ordered by count, ties in first-seen order
// @Tags stats
// @Success 200 {object} StatsResponse
// @Router /stats [get]
func (h *StatsHandler) Get(c echo.Context) error {
	entries := h.service.Stats()
	if entries == nil {
		entries = []recall.Entry{}
	}
	return c.JSON(http.StatusOK, StatsResponse{Total: h.service.Total(), Entries: entries})
}

// Text godoc
// @Summary Recall ranking as chat text
// @Tags stats
// @Produce plain
// @Success 200 {string} string
// @Router /stats/text [get]
func (h *StatsHandler) Text(c echo.Context) error {
	return c.String(http.StatusOK, h.service.Report())
}

// Clear godoc
// @Summary Reset the tally
// @Tags stats
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} echo.HTTPError
// @Failure 500 {object} echo.HTTPError
// @Router /stats [delete]
func (h *StatsHandler) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	log := logger.FromContext(ctx, h.logger)
	if err := h.service.Clear(ctx); err != nil {
		log.Error("clear stats failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	log.Info("stats cleared", slog.String("remote_ip", c.RealIP()))
	return c.NoContent(http.StatusNoContent)
}
