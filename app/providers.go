package app

import (
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/burnedikt/diasend-nightscout-bridge/config"
	"github.com/burnedikt/diasend-nightscout-bridge/diasend"
	"github.com/burnedikt/diasend-nightscout-bridge/nightscout"
	"github.com/burnedikt/diasend-nightscout-bridge/nightscout/repository"
	"github.com/burnedikt/diasend-nightscout-bridge/reconcile"
	"github.com/burnedikt/diasend-nightscout-bridge/status"
	"github.com/burnedikt/diasend-nightscout-bridge/store"
)

func locationProvider(cfg *config.Config) (*time.Location, error) {
	return cfg.Location()
}

func authenticatorProvider(cfg *diasend.Config, httpClient *http.Client) (diasend.Authenticator, error) {
	return diasend.NewAuthenticator(cfg, httpClient)
}

func sourceProvider(cfg *diasend.Config, authenticator diasend.Authenticator, httpClient *http.Client, location *time.Location, logger *zap.SugaredLogger) diasend.Source {
	return diasend.NewClient(cfg, authenticator, httpClient, location, logger)
}

func pumpSettingsSourceProvider(cfg *diasend.Config, logger *zap.SugaredLogger) diasend.PumpSettingsSource {
	return diasend.NewScraper(cfg, logger)
}

// destinationProvider talks to Nightscout through its REST API or, when configured, directly to its database.
func destinationProvider(cfg *config.Config, nightscoutConfig *nightscout.Config, logger *zap.SugaredLogger, lifecycle fx.Lifecycle) (nightscout.Client, error) {
	if cfg.Destination != config.DestinationMongo {
		return nightscout.NewRestClient(nightscoutConfig, logger)
	}

	storeConfig, err := store.NewConfig()
	if err != nil {
		return nil, err
	}
	client, err := store.NewClient(storeConfig)
	if err != nil {
		return nil, err
	}
	db, err := store.NewDatabase(client, storeConfig, lifecycle)
	if err != nil {
		return nil, err
	}
	return repository.NewRepository(db, logger, lifecycle)
}

func cycleObserverProvider(tracker *status.Tracker) reconcile.CycleObserver {
	return tracker
}
