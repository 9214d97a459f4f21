package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	DestinationAPI   = "api"
	DestinationMongo = "mongo"
)

type Config struct {
	LogLevel                    string        `envconfig:"BRIDGE_LOG_LEVEL" default:"info"`
	PollingInterval             time.Duration `envconfig:"BRIDGE_POLLING_INTERVAL" default:"5m"`
	PumpSettingsPollingInterval time.Duration `envconfig:"BRIDGE_PUMP_SETTINGS_POLLING_INTERVAL" default:"12h"`
	// Carbs are logged by the pump within this window before or after their meal bolus.
	CarbMatchThreshold time.Duration `envconfig:"BRIDGE_CARB_MATCH_THRESHOLD" default:"10m"`
	// The source never reports a basal duration. Nightscout drops temp basals without one.
	TempBasalDurationMinutes int           `envconfig:"BRIDGE_TEMP_BASAL_DURATION_MINUTES" default:"360"`
	MaxLookback              time.Duration `envconfig:"BRIDGE_MAX_LOOKBACK" default:"24h"`
	UnmatchedBolusGrace      time.Duration `envconfig:"BRIDGE_UNMATCHED_BOLUS_GRACE" default:"1h"`
	AppName                  string        `envconfig:"BRIDGE_APP_NAME" default:"diasend"`
	Timezone                 string        `envconfig:"BRIDGE_TIMEZONE"`
	StatusPort               uint16        `envconfig:"BRIDGE_STATUS_PORT" default:"8080"`
	Destination              string        `envconfig:"BRIDGE_DESTINATION" default:"api"`
}

func New() *Config {
	return &Config{}
}

func NewConfig() (*Config, error) {
	cfg := New()
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) LoadFromEnv() error {
	if err := envconfig.Process("", c); err != nil {
		return err
	}
	return c.Validate()
}

func (c *Config) Validate() error {
	if c.PollingInterval <= 0 {
		return fmt.Errorf("BRIDGE_POLLING_INTERVAL must be positive, got %v", c.PollingInterval)
	}
	if c.CarbMatchThreshold < 0 {
		return fmt.Errorf("BRIDGE_CARB_MATCH_THRESHOLD must not be negative, got %v", c.CarbMatchThreshold)
	}
	if c.TempBasalDurationMinutes <= 0 {
		return fmt.Errorf("BRIDGE_TEMP_BASAL_DURATION_MINUTES must be positive, got %v", c.TempBasalDurationMinutes)
	}
	if c.Destination != DestinationAPI && c.Destination != DestinationMongo {
		return fmt.Errorf("BRIDGE_DESTINATION must be %q or %q, got %q", DestinationAPI, DestinationMongo, c.Destination)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location is the timezone the source's naive timestamps are interpreted in.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid BRIDGE_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}
