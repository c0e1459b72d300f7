// Package config loads server configuration from the environment and an
// optional config file.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all tunables for one server process.
type Config struct {
	Port          string `mapstructure:"PORT"`
	Debug         bool   `mapstructure:"DEBUG"`
	AllowedOrigin string `mapstructure:"ALLOWED_ORIGIN"`
	APIKeys       string `mapstructure:"API_KEYS"` // comma-separated

	EnginePath     string `mapstructure:"ENGINE_PATH"`
	EnginePoolSize int    `mapstructure:"ENGINE_POOL_SIZE"`

	RedisAddr string `mapstructure:"REDIS_ADDR"`
}

// Load reads configuration: defaults, then an optional config file,
// then environment variable overrides.
func Load(cfgPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("PORT", "8080")
	v.SetDefault("DEBUG", false)
	v.SetDefault("ALLOWED_ORIGIN", "")
	v.SetDefault("API_KEYS", "")
	v.SetDefault("ENGINE_PATH", "")
	v.SetDefault("ENGINE_POOL_SIZE", 2)
	v.SetDefault("REDIS_ADDR", "")

	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Keys returns the configured API keys, trimmed, empty entries dropped.
func (c *Config) Keys() []string {
	var keys []string
	for _, k := range strings.Split(c.APIKeys, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
