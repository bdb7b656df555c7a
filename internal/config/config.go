package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds the application's configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Mongo      MongoConfig      `mapstructure:"mongo"`
	DeviceAuth DeviceAuthConfig `mapstructure:"device_auth"`
	RingCLI    RingCLIConfig    `mapstructure:"ring_cli"`
	Ring       RingAPIConfig    `mapstructure:"ring"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds

	// PublicBaseURL is the externally reachable base URL used to build the
	// pairing auth_url when forwarding headers are absent.
	PublicBaseURL string `mapstructure:"public_base_url"`
}

func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type DeviceAuthConfig struct {
	ExpiresInSec int    `mapstructure:"expires_in_sec"`
	IntervalSec  int    `mapstructure:"interval_sec"`
	SweepSpec    string `mapstructure:"sweep_spec"` // cron spec for the background GC sweep, empty disables
}

func (c *DeviceAuthConfig) TTL() time.Duration {
	return time.Duration(c.ExpiresInSec) * time.Second
}

type RingCLIConfig struct {
	// Command is the shell command that starts the interactive Ring login tool.
	Command string `mapstructure:"command"`

	// LoginTimeoutSec bounds a single login attempt; the process is killed on expiry.
	LoginTimeoutSec int `mapstructure:"login_timeout_sec"`
}

func (c *RingCLIConfig) LoginTimeout() time.Duration {
	return time.Duration(c.LoginTimeoutSec) * time.Second
}

type RingAPIConfig struct {
	OAuthURL string `mapstructure:"oauth_url"`
	APIURL   string `mapstructure:"api_url"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Validate checks for essential configuration values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Mongo.URI == "" {
		return fmt.Errorf("mongo.uri is required")
	}
	if c.DeviceAuth.ExpiresInSec <= 0 {
		return fmt.Errorf("device_auth.expires_in_sec must be positive")
	}
	if c.DeviceAuth.IntervalSec <= 0 {
		return fmt.Errorf("device_auth.interval_sec must be positive")
	}
	if strings.TrimSpace(c.RingCLI.Command) == "" {
		return fmt.Errorf("ring_cli.command is required")
	}
	return nil
}
