package diasend

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// The client credentials of the diasend mobile app.
	defaultClientId     = "a486o3nvdu88cg0sos4cw8cccc0o0cg.api.diasend.com"
	defaultClientSecret = "8imoieg4pyos04s44okoooowkogsco4"

	UserAgent = "diasend/1.13.0 (iPhone; iOS 15.5; Scale/3.00)"
	Scope     = "PATIENT DIASEND_MOBILE_DEVICE_DATA_RW"
)

type Config struct {
	Username     string `envconfig:"DIASEND_USERNAME" required:"true"`
	Password     string `envconfig:"DIASEND_PASSWORD" required:"true"`
	ClientId     string `envconfig:"DIASEND_CLIENT_ID" default:"a486o3nvdu88cg0sos4cw8cccc0o0cg.api.diasend.com"`
	ClientSecret string `envconfig:"DIASEND_CLIENT_SECRET" default:"8imoieg4pyos04s44okoooowkogsco4"`
	ApiUrl       string `envconfig:"DIASEND_API_URL" default:"https://api.diasend.com/1"`
	WebsiteUrl   string `envconfig:"DIASEND_WEBSITE_URL" default:"https://international.diasend.com"`
	// Tokens are refreshed at the latest after this long, even when the server grants a longer lifetime.
	TokenMaxTTL time.Duration `envconfig:"DIASEND_TOKEN_MAX_TTL" default:"1h"`
}

func NewConfig() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	if cfg.ClientId == "" {
		cfg.ClientId = defaultClientId
	}
	if cfg.ClientSecret == "" {
		cfg.ClientSecret = defaultClientSecret
	}

	return cfg, nil
}
