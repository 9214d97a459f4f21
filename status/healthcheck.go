package status

import (
	"net/http"
	"sync/atomic"

	"github.com/labstack/echo/v4"
)

type HealthCheck struct {
	ready atomic.Bool
}

func NewHealthCheck() *HealthCheck {
	return &HealthCheck{}
}

func (h *HealthCheck) SetReady(ready bool) {
	h.ready.Store(ready)
}

// Readiness probe
func (h *HealthCheck) Ready(c echo.Context) error {
	if !h.ready.Load() {
		return c.NoContent(http.StatusServiceUnavailable)
	}

	return c.NoContent(http.StatusOK)
}
