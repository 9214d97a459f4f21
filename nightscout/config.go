package nightscout

import "github.com/kelseyhightower/envconfig"

type Config struct {
	Url       string `envconfig:"NIGHTSCOUT_URL"`
	ApiSecret string `envconfig:"NIGHTSCOUT_API_SECRET"`
	// The profile whose basal schedule is kept in sync with the pump. Empty disables the synchronization.
	ProfileName string `envconfig:"NIGHTSCOUT_PROFILE_NAME" default:"Diasend"`
}

func NewConfig() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
