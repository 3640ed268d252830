package config

import (
	"fmt"

	"github.com/promoflow/adkit/logger"
	"github.com/promoflow/adkit/monitor"
	"github.com/promoflow/adkit/observability"
	"github.com/promoflow/adkit/placements"
	"github.com/promoflow/adkit/sdk"
	"github.com/promoflow/adkit/validation"
)

// ServiceConfig identifies the service instance.
type ServiceConfig struct {
	Name        string `yaml:"name" mapstructure:"name" validate:"required"`
	Environment string `yaml:"environment" mapstructure:"environment" validate:"required,oneof=development staging production"`
	Version     string `yaml:"version" mapstructure:"version"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`
}

// Config is the full configuration of an ad-serving service instance:
// identity, logging, the vendor SDK credentials, the placement list,
// the monitor server and the telemetry exporters.
type Config struct {
	Service       ServiceConfig          `yaml:"service" mapstructure:"service"`
	Logging       logger.Config          `yaml:"logging" mapstructure:"logging"`
	SDK           sdk.Config             `yaml:"sdk" mapstructure:"sdk"`
	Placements    []placements.Placement `yaml:"placements" mapstructure:"placements" validate:"min=1,dive"`
	Monitor       monitor.Config         `yaml:"monitor" mapstructure:"monitor"`
	Observability observability.Config   `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults fills unset fields across every section. Development is
// the default environment and forces debug mode; the service name and
// environment propagate into the logging and telemetry sections.
func (c *Config) ApplyDefaults() {
	if c.Service.Environment == "" {
		c.Service.Environment = "development"
	}
	if c.Service.Environment == "development" {
		c.Service.Debug = true
	}

	if c.Logging.ServiceName == "" && c.Service.Name != "" {
		c.Logging.ServiceName = c.Service.Name
	}
	if c.Service.Debug && c.Logging.Level == "" {
		c.Logging.Level = "debug"
	}
	c.Logging.ApplyDefaults()

	c.Monitor.ApplyDefaults()

	if c.Observability.Env == "" {
		c.Observability.Env = c.Service.Environment
	}
	c.Observability.ApplyDefaults()
}

// Validate checks the whole configuration. Struct tags cover the field
// rules; the sections with cross-field rules validate themselves.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	if err := c.Monitor.Validate(); err != nil {
		return fmt.Errorf("config.monitor: %w", err)
	}

	seen := make(map[string]bool, len(c.Placements))
	for _, p := range c.Placements {
		if seen[p.Tag] {
			return fmt.Errorf("config.placements: duplicate tag %q", p.Tag)
		}
		seen[p.Tag] = true
	}
	return nil
}

// Load reads the service configuration, applies defaults and validates
// it. The service name doubles as the default config search key and as
// the fallback for service.name.
func Load(serviceName string, opts ...LoaderOption) (*Config, error) {
	var cfg Config
	if err := LoadConfig(serviceName, &cfg, opts...); err != nil {
		return nil, err
	}

	if cfg.Service.Name == "" {
		cfg.Service.Name = serviceName
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
