package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads the configuration from file and environment variables.
// Environment variables use the RINGBRIDGE_ prefix with underscores, e.g.
// RINGBRIDGE_SERVER_PORT or RINGBRIDGE_MONGO_URI.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 15)
	v.SetDefault("server.public_base_url", "")
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "ringbridge")
	v.SetDefault("device_auth.expires_in_sec", 180)
	v.SetDefault("device_auth.interval_sec", 3)
	v.SetDefault("device_auth.sweep_spec", "@every 1m")
	v.SetDefault("ring_cli.command", "npx -p ring-client-api ring-auth-cli")
	v.SetDefault("ring_cli.login_timeout_sec", 300)
	v.SetDefault("ring.oauth_url", "https://oauth.ring.com/oauth/token")
	v.SetDefault("ring.api_url", "https://api.ring.com")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/ringbridge/")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("RINGBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
