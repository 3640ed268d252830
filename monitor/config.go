package monitor

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// Config holds the monitor HTTP server configuration.
type Config struct {
	Host         string    `yaml:"host" mapstructure:"host"`
	Port         int       `yaml:"port" mapstructure:"port"`
	ReadTimeout  int       `yaml:"read_timeout" mapstructure:"read_timeout"`   // seconds
	WriteTimeout int       `yaml:"write_timeout" mapstructure:"write_timeout"` // seconds
	IdleTimeout  int       `yaml:"idle_timeout" mapstructure:"idle_timeout"`   // seconds
	AuthSecret   string    `yaml:"auth_secret" mapstructure:"auth_secret"`
	TLS          TLSConfig `yaml:"tls" mapstructure:"tls"`
	Enabled      bool      `yaml:"enabled" mapstructure:"enabled"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8090
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 15
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("monitor.port must be between 0 and 65535 (got: %d)", c.Port)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("monitor.read_timeout must be non-negative (got: %d)", c.ReadTimeout)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("monitor.write_timeout must be non-negative (got: %d)", c.WriteTimeout)
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("monitor.idle_timeout must be non-negative (got: %d)", c.IdleTimeout)
	}
	return c.TLS.Validate()
}

// TLSConfig holds TLS settings for the monitor listener.
type TLSConfig struct {
	// CertFile is the path to the server certificate file.
	CertFile string `yaml:"cert_file" mapstructure:"cert_file"`

	// KeyFile is the path to the server private key file.
	KeyFile string `yaml:"key_file" mapstructure:"key_file"`

	// CAFile is the path to a CA bundle for verifying client
	// certificates. When set, clients must present a certificate
	// signed by this CA.
	CAFile string `yaml:"ca_file" mapstructure:"ca_file"`

	// MinVersion is the minimum TLS version (e.g., tls.VersionTLS13).
	// Defaults to TLS 1.2 if not set.
	MinVersion uint16 `yaml:"min_version" mapstructure:"min_version"`
}

// IsEnabled returns true if a server certificate is configured.
func (c *TLSConfig) IsEnabled() bool {
	return c != nil && c.CertFile != ""
}

// Validate checks that the TLS configuration is consistent.
func (c *TLSConfig) Validate() error {
	if c == nil {
		return nil
	}
	if (c.CertFile != "") != (c.KeyFile != "") {
		return fmt.Errorf("monitor.tls: both cert_file and key_file must be provided together")
	}
	return nil
}

// Build creates a *tls.Config from the configuration.
// Returns nil if no server certificate is configured.
func (c *TLSConfig) Build() (*tls.Config, error) {
	if !c.IsEnabled() {
		return nil, nil
	}

	minVersion := c.MinVersion
	if minVersion == 0 {
		minVersion = tls.VersionTLS12
	}

	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("monitor.tls: failed to load server certificate: %w", err)
	}

	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   minVersion,
	}

	if c.CAFile != "" {
		ca, err := os.ReadFile(c.CAFile)
		if err != nil {
			return nil, fmt.Errorf("monitor.tls: failed to read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(ca) {
			return nil, fmt.Errorf("monitor.tls: failed to parse CA certificate")
		}
		cfg.ClientCAs = pool
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	}

	return cfg, nil
}
