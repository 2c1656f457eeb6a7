package monitoring

import (
	"fmt"
	"strings"

	appconfig "github.com/verdicthq/verdict/pkg/config"
)

// Config holds configuration for the monitoring service.
type Config struct {
	Enabled bool
	Path    string
}

// DefaultConfig returns default monitoring configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled: false,
		Path:    "/metrics",
	}
}

// FromAppConfig maps the application monitoring section onto a Config.
func FromAppConfig(cfg *appconfig.MonitoringConfig) *Config {
	out := DefaultConfig()
	if cfg == nil {
		return out
	}
	out.Enabled = cfg.Enabled
	if cfg.Path != "" {
		out.Path = cfg.Path
	}
	return out
}

// Validate checks the metrics path is usable as a route.
func (c *Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("monitoring path cannot be empty")
	}
	if c.Path[0] != '/' {
		return fmt.Errorf("monitoring path must start with '/': got %s", c.Path)
	}
	if strings.HasPrefix(c.Path, "/api/") {
		return fmt.Errorf("monitoring path cannot be under /api/")
	}
	if strings.ContainsRune(c.Path, '?') {
		return fmt.Errorf("monitoring path cannot contain query parameters")
	}
	return nil
}
