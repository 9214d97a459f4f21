package app

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/burnedikt/diasend-nightscout-bridge/config"
	"github.com/burnedikt/diasend-nightscout-bridge/diasend"
	"github.com/burnedikt/diasend-nightscout-bridge/logger"
	"github.com/burnedikt/diasend-nightscout-bridge/nightscout"
	"github.com/burnedikt/diasend-nightscout-bridge/profile"
	"github.com/burnedikt/diasend-nightscout-bridge/reconcile"
	"github.com/burnedikt/diasend-nightscout-bridge/scheduler"
	"github.com/burnedikt/diasend-nightscout-bridge/status"
)

// Dependencies is the dependency graph shared by the long running bridge and the one-shot commands.
func Dependencies() []fx.Option {
	return []fx.Option{
		fx.Provide(
			config.NewConfig,
			logger.NewProductionLogger,
			logger.Suggar,
			locationProvider,
			diasend.NewConfig,
			diasend.NewHTTPClient,
			authenticatorProvider,
			sourceProvider,
			pumpSettingsSourceProvider,
			nightscout.NewConfig,
			destinationProvider,
			reconcile.NewReconciler,
			reconcile.NewBridge,
			profile.NewSynchronizer,
			status.NewHealthCheck,
			status.NewTracker,
			cycleObserverProvider,
		),
	}
}

// Loopers polls the source and keeps the profile in sync until the application stops.
func Loopers(cfg *config.Config, bridge *reconcile.Bridge, synchronizer *profile.Synchronizer, logger *zap.SugaredLogger, lifecycle fx.Lifecycle) {
	scheduler.NewLooper("reconcile", cfg.PollingInterval, bridge.Sync, logger).Register(lifecycle)

	if synchronizer.Enabled() {
		scheduler.NewLooper("profile", cfg.PumpSettingsPollingInterval, synchronizer.Sync, logger).Register(lifecycle)
	} else {
		logger.Info("profile synchronization is disabled")
	}
}

func MainLoop() {
	fx.New(
		append(Dependencies(),
			fx.Provide(status.NewServer),
			fx.Invoke(Loopers),
			fx.Invoke(status.Start),
		)...,
	).Run()
}
