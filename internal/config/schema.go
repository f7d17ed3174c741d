package config

import (
	"time"

	"github.com/chepyr/tareas/internal/api"
)

// Config is the client configuration.
type Config struct {
	APIURL      string         `yaml:"api_url" mapstructure:"api_url"`
	Endpoints   api.Endpoints  `yaml:"endpoints" mapstructure:"endpoints"`
	Exchange    ExchangeConfig `yaml:"exchange" mapstructure:"exchange"`
	Timeout     time.Duration  `yaml:"timeout" mapstructure:"timeout"`
	SessionFile string         `yaml:"session_file" mapstructure:"session_file"`
}

// ExchangeConfig enables the custom-token exchange when URL is set.
type ExchangeConfig struct {
	URL    string `yaml:"url" mapstructure:"url"`
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
}

func (e ExchangeConfig) Enabled() bool {
	return e.URL != ""
}

// ResolvedEndpoints returns the configured endpoints, falling back to paths
// under APIURL for any left empty.
func (c *Config) ResolvedEndpoints() api.Endpoints {
	return c.Endpoints.Merge(api.EndpointsFromBase(c.APIURL))
}
