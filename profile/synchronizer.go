package profile

import (
	"context"
	"errors"
	"reflect"
	"time"

	"go.uber.org/zap"

	"github.com/burnedikt/diasend-nightscout-bridge/config"
	"github.com/burnedikt/diasend-nightscout-bridge/diasend"
	errors2 "github.com/burnedikt/diasend-nightscout-bridge/errors"
	"github.com/burnedikt/diasend-nightscout-bridge/nightscout"
)

// Synchronizer keeps the basal schedule of a Nightscout profile in line with the pump settings.
type Synchronizer struct {
	source      diasend.PumpSettingsSource
	destination nightscout.Client
	name        string
	timezone    string
	now         func() time.Time
	logger      *zap.SugaredLogger
}

func NewSynchronizer(cfg *config.Config, nightscoutConfig *nightscout.Config, source diasend.PumpSettingsSource, destination nightscout.Client, logger *zap.SugaredLogger) *Synchronizer {
	return &Synchronizer{
		source:      source,
		destination: destination,
		name:        nightscoutConfig.ProfileName,
		timezone:    cfg.Timezone,
		now:         time.Now,
		logger:      logger,
	}
}

func (s *Synchronizer) Enabled() bool {
	return s.name != ""
}

func (s *Synchronizer) Sync(ctx context.Context) error {
	if !s.Enabled() {
		s.logger.Debug("profile synchronization is disabled")
		return nil
	}

	settings, err := s.source.FetchPumpSettings(ctx)
	if err != nil {
		return err
	}

	existing, err := s.destination.FetchProfile(ctx)
	if errors.Is(err, errors2.NotFound) {
		existing = s.newProfile(settings)
	} else if err != nil {
		return err
	}

	updated, err := Apply(existing, settings, s.name, s.timezone)
	if err != nil {
		return err
	}
	if reflect.DeepEqual(existing, updated) {
		s.logger.Debugw("profile is up to date", "profile", s.name)
		return nil
	}

	if _, err := s.destination.UpdateProfile(ctx, updated); err != nil {
		return err
	}
	s.logger.Infow("updated profile", "profile", s.name, "basalEntries", len(updated.Store[s.name].Basal))
	return nil
}

func (s *Synchronizer) newProfile(settings *diasend.PumpSettings) *nightscout.Profile {
	now := s.now().UTC()
	return &nightscout.Profile{
		DefaultProfile: s.name,
		StartDate:      nightscout.FormatTime(now),
		Mills:          now.UnixMilli(),
		Units:          settings.Units,
		CreatedAt:      nightscout.FormatTime(now),
		Store:          map[string]nightscout.ProfileConfig{},
	}
}
