// Package config loads the client configuration from a yaml file and
// TAREAS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const envPrefix = "TAREAS"

// Load reads path (DefaultPath when empty) over the defaults, then applies
// the environment. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	v := newViper(DefaultConfig())

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("stat config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newViper registers every key with its default so the environment can
// override keys that the file does not mention.
func newViper(def *Config) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api_url", def.APIURL)
	v.SetDefault("timeout", def.Timeout)
	v.SetDefault("session_file", def.SessionFile)
	v.SetDefault("exchange.url", def.Exchange.URL)
	v.SetDefault("exchange.api_key", def.Exchange.APIKey)
	for _, key := range []string{"create_user", "login", "create_task", "list_tasks", "update_task", "delete_task"} {
		v.SetDefault("endpoints."+key, "")
	}
	return v
}

func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("api_url is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.SessionFile == "" {
		return errors.New("session_file is required")
	}
	return nil
}

// YAML renders the config, masking the exchange key.
func (c *Config) YAML() ([]byte, error) {
	shown := *c
	if shown.Exchange.APIKey != "" {
		shown.Exchange.APIKey = "********"
	}
	return yaml.Marshal(&shown)
}
