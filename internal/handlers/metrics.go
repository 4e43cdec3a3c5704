package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// MetricsHandler exposes a Prometheus handler at /metrics.
type MetricsHandler struct {
	handler http.Handler
}

func NewMetricsHandler(handler http.Handler) *MetricsHandler {
	return &MetricsHandler{handler: handler}
}

func (h *MetricsHandler) Register(e *echo.Echo) {
	e.GET("/metrics", echo.WrapHandler(h.handler))
}
