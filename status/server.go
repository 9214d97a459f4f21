package status

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/brpaz/echozap"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/burnedikt/diasend-nightscout-bridge/config"
	errors2 "github.com/burnedikt/diasend-nightscout-bridge/errors"
)

func NewServer(healthCheck *HealthCheck, tracker *Tracker, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Skip request logging for the readiness probe
	skipper := RouteSkipper([]string{"/ready"})

	e.Use(middleware.Recover())
	e.Use(WithSkipper(skipper, echozap.ZapLogger(logger)))
	e.HTTPErrorHandler = errors2.CustomHTTPErrorHandler

	e.GET("/ready", healthCheck.Ready)
	e.GET("/status", tracker.GetStatus)

	return e
}

func Start(e *echo.Echo, cfg *config.Config, logger *zap.SugaredLogger, lifecycle fx.Lifecycle) {
	address := fmt.Sprintf(":%d", cfg.StatusPort)
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Errorw("status server failed", "address", address, zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})
}
