// Package config loads the daemon configuration file and the optional
// metadata override file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the daemon configuration, read once at startup.
type Config struct {
	// ControlPort is where the HTTP control API listens.
	ControlPort int `toml:"control_port"`

	// GatewayCommand is the executable plus leading arguments of the
	// backend gateway (e.g., ["docker", "mcp"]).
	GatewayCommand []string `toml:"gateway_command"`

	// Catalog is the gateway catalog queried for installable servers.
	Catalog string `toml:"catalog"`

	// DiscoveryInterval is the registry TTL and the background refresh
	// period, as a duration string ("5m").
	DiscoveryInterval string `toml:"discovery_interval"`

	// DiscoveryWorkers bounds concurrent gateway calls during discovery.
	DiscoveryWorkers int `toml:"discovery_workers"`

	// IdleThreshold is how long a server may sit unused before the usage
	// monitor flags it, as a duration string ("10m").
	IdleThreshold string `toml:"idle_threshold"`

	// CallBudget is the per-gateway-call timeout, as a duration string.
	CallBudget string `toml:"call_budget"`

	// ProfilePath points at the YAML profile bundle file.
	ProfilePath string `toml:"profile_path"`

	// OverridePath points at the YAML metadata override file.
	OverridePath string `toml:"override_path"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		ControlPort:       6300,
		GatewayCommand:    []string{"docker", "mcp"},
		Catalog:           "docker-mcp",
		DiscoveryInterval: "5m",
		DiscoveryWorkers:  4,
		IdleThreshold:     "10m",
		CallBudget:        "10s",
	}
}

// Load reads the TOML config at path, filling unset fields from
// Default. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, err
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}

	if cfg.ControlPort == 0 {
		cfg.ControlPort = Default().ControlPort
	}
	if len(cfg.GatewayCommand) == 0 {
		cfg.GatewayCommand = Default().GatewayCommand
	}
	if cfg.Catalog == "" {
		cfg.Catalog = Default().Catalog
	}
	if cfg.DiscoveryWorkers <= 0 {
		cfg.DiscoveryWorkers = Default().DiscoveryWorkers
	}

	return cfg, nil
}

// Durations resolves the duration-string fields, falling back to the
// default for any field that is empty or malformed.
func (c Config) Durations() (interval, idle, budget time.Duration) {
	interval = parseDuration(c.DiscoveryInterval, 5*time.Minute)
	idle = parseDuration(c.IdleThreshold, 10*time.Minute)
	budget = parseDuration(c.CallBudget, 10*time.Second)
	return interval, idle, budget
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
