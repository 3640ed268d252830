package monitor_test

import (
	"crypto/tls"
	"testing"

	"github.com/promoflow/adkit/monitor"
	"github.com/promoflow/adkit/monitor/tlstest"
)

func TestConfigApplyDefaults(t *testing.T) {
	cfg := monitor.Config{}
	cfg.ApplyDefaults()

	if cfg.Port != 8090 {
		t.Errorf("expected default port 8090, got %d", cfg.Port)
	}
	if cfg.ReadTimeout != 15 {
		t.Errorf("expected default read_timeout 15, got %d", cfg.ReadTimeout)
	}
	if cfg.WriteTimeout != 15 {
		t.Errorf("expected default write_timeout 15, got %d", cfg.WriteTimeout)
	}
	if cfg.IdleTimeout != 60 {
		t.Errorf("expected default idle_timeout 60, got %d", cfg.IdleTimeout)
	}
}

func TestConfigApplyDefaultsPreservesValues(t *testing.T) {
	cfg := monitor.Config{Port: 9999, ReadTimeout: 5, WriteTimeout: 5, IdleTimeout: 30}
	cfg.ApplyDefaults()

	if cfg.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg.Port)
	}
	if cfg.ReadTimeout != 5 || cfg.WriteTimeout != 5 || cfg.IdleTimeout != 30 {
		t.Errorf("expected timeouts preserved, got %d/%d/%d",
			cfg.ReadTimeout, cfg.WriteTimeout, cfg.IdleTimeout)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     monitor.Config
		wantErr bool
	}{
		{"zero value", monitor.Config{}, false},
		{"ephemeral port", monitor.Config{Port: 0}, false},
		{"valid", monitor.Config{Port: 8090, ReadTimeout: 15}, false},
		{"port too high", monitor.Config{Port: 70000}, true},
		{"negative port", monitor.Config{Port: -1}, true},
		{"negative read timeout", monitor.Config{ReadTimeout: -1}, true},
		{"negative write timeout", monitor.Config{WriteTimeout: -1}, true},
		{"negative idle timeout", monitor.Config{IdleTimeout: -1}, true},
		{"cert without key", monitor.Config{TLS: monitor.TLSConfig{CertFile: "cert.pem"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTLSConfigIsEnabled(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *monitor.TLSConfig
		enabled bool
	}{
		{"nil", nil, false},
		{"zero", &monitor.TLSConfig{}, false},
		{"ca only", &monitor.TLSConfig{CAFile: "ca.pem"}, false},
		{"cert", &monitor.TLSConfig{CertFile: "cert.pem", KeyFile: "key.pem"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.IsEnabled(); got != tt.enabled {
				t.Errorf("IsEnabled() = %v, want %v", got, tt.enabled)
			}
		})
	}
}

func TestTLSConfigValidate(t *testing.T) {
	var nilCfg *monitor.TLSConfig
	if err := nilCfg.Validate(); err != nil {
		t.Fatalf("unexpected error for nil config: %v", err)
	}

	cfg := &monitor.TLSConfig{CertFile: "cert.pem"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when cert_file set without key_file")
	}

	cfg = &monitor.TLSConfig{KeyFile: "key.pem"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when key_file set without cert_file")
	}

	cfg = &monitor.TLSConfig{CertFile: "cert.pem", KeyFile: "key.pem"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTLSConfigBuildDisabled(t *testing.T) {
	cfg := &monitor.TLSConfig{}
	result, err := cfg.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Fatal("expected nil tls.Config when no certificate is configured")
	}
}

func TestTLSConfigBuildMissingFiles(t *testing.T) {
	cfg := &monitor.TLSConfig{CertFile: "/nonexistent/cert.pem", KeyFile: "/nonexistent/key.pem"}
	if _, err := cfg.Build(); err == nil {
		t.Fatal("expected error for nonexistent cert files")
	}
}

func TestTLSConfigBuildServerCert(t *testing.T) {
	certs := tlstest.Generate(t)
	cfg := &monitor.TLSConfig{CertFile: certs.CertFile, KeyFile: certs.KeyFile}

	result, err := cfg.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("expected non-nil tls.Config")
	}
	if len(result.Certificates) != 1 {
		t.Errorf("expected 1 certificate, got %d", len(result.Certificates))
	}
	if result.MinVersion != tls.VersionTLS12 {
		t.Errorf("expected default MinVersion TLS12, got %d", result.MinVersion)
	}
	if result.ClientCAs != nil {
		t.Error("expected no client CA pool without ca_file")
	}
}

func TestTLSConfigBuildClientCA(t *testing.T) {
	certs := tlstest.Generate(t)
	cfg := &monitor.TLSConfig{
		CertFile:   certs.CertFile,
		KeyFile:    certs.KeyFile,
		CAFile:     certs.CAFile,
		MinVersion: tls.VersionTLS13,
	}

	result, err := cfg.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ClientCAs == nil {
		t.Error("expected ClientCAs to be set")
	}
	if result.ClientAuth != tls.RequireAndVerifyClientCert {
		t.Errorf("expected client certs to be required, got %v", result.ClientAuth)
	}
	if result.MinVersion != tls.VersionTLS13 {
		t.Errorf("expected MinVersion TLS13, got %d", result.MinVersion)
	}
}

func TestTLSConfigBuildInvalidCAContent(t *testing.T) {
	certs := tlstest.Generate(t)
	cfg := &monitor.TLSConfig{
		CertFile: certs.CertFile,
		KeyFile:  certs.KeyFile,
		CAFile:   tlstest.WriteInvalidPEM(t, "bad-ca.pem"),
	}
	if _, err := cfg.Build(); err == nil {
		t.Fatal("expected error for invalid CA PEM content")
	}
}
