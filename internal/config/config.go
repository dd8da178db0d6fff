// Package config loads and validates the server configuration.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config holds the server configuration.
type Config struct {
	Host              string `toml:"host"`
	Port              string `toml:"port"`
	BasePath          string `toml:"base_path"`
	Key               string `toml:"key"`
	MaxConnections    int    `toml:"max_connections"`
	AllowDiscovery    bool   `toml:"allow_discovery"`
	ReuseEvictedToken bool   `toml:"reuse_evicted_token"`

	// AllowedOrigins restricts WebSocket upgrades to requests whose
	// Origin header matches one of the listed values. Empty means any
	// origin is accepted.
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Default returns the configuration used when no file is provided.
func Default() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           "9000",
		BasePath:       "/rendezvous",
		Key:            "default",
		MaxConnections: 5000,
	}
}

// Load reads a TOML configuration file, filling unset fields with
// defaults. An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if cfg.Port == "" {
		cfg.Port = "9000"
	}
	if cfg.BasePath == "" {
		cfg.BasePath = "/rendezvous"
	}
	if cfg.MaxConnections == 0 {
		cfg.MaxConnections = 5000
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks a configuration for usability.
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Key) == "" {
		return fmt.Errorf("config missing key")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return fmt.Errorf("config missing port")
	}
	if !strings.HasPrefix(cfg.BasePath, "/") {
		return fmt.Errorf("base_path must begin with /")
	}
	if cfg.MaxConnections <= 0 {
		return fmt.Errorf("max_connections must be positive")
	}
	return nil
}
