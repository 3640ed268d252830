// Package tlstest generates TLS certificates for monitor tests. All
// certificates are created with Go's crypto stdlib and written to
// t.TempDir(), so generated files clean up with the test.
package tlstest

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// Certs holds paths to generated certificate files.
type Certs struct {
	// CAFile is the path to the CA certificate PEM file.
	CAFile string
	// CertFile is the path to the server certificate PEM file.
	CertFile string
	// KeyFile is the path to the server private key PEM file.
	KeyFile string

	// Pool contains the CA certificate for client-side verification.
	Pool *x509.CertPool
}

// Generate creates a self-signed CA and a server certificate valid for
// localhost, 127.0.0.1, and [::1].
func Generate(t testing.TB) *Certs {
	t.Helper()
	dir := t.TempDir()

	caKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("tlstest: generate CA key: %v", err)
	}

	caTemplate := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			Organization: []string{"adkit Test CA"},
		},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	caDER, err := x509.CreateCertificate(rand.Reader, caTemplate, caTemplate, &caKey.PublicKey, caKey)
	if err != nil {
		t.Fatalf("tlstest: create CA cert: %v", err)
	}

	caCert, err := x509.ParseCertificate(caDER)
	if err != nil {
		t.Fatalf("tlstest: parse CA cert: %v", err)
	}

	caFile := filepath.Join(dir, "ca.pem")
	writePEM(t, caFile, "CERTIFICATE", caDER)

	serverKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("tlstest: generate server key: %v", err)
	}

	serverTemplate := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject: pkix.Name{
			Organization: []string{"adkit Test"},
			CommonName:   "localhost",
		},
		DNSNames:    []string{"localhost"},
		IPAddresses: []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
		NotBefore:   time.Now().Add(-time.Hour),
		NotAfter:    time.Now().Add(24 * time.Hour),
		KeyUsage:    x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}

	serverDER, err := x509.CreateCertificate(rand.Reader, serverTemplate, caCert, &serverKey.PublicKey, caKey)
	if err != nil {
		t.Fatalf("tlstest: create server cert: %v", err)
	}

	certFile := filepath.Join(dir, "cert.pem")
	writePEM(t, certFile, "CERTIFICATE", serverDER)

	keyDER, err := x509.MarshalECPrivateKey(serverKey)
	if err != nil {
		t.Fatalf("tlstest: marshal server key: %v", err)
	}
	keyFile := filepath.Join(dir, "key.pem")
	writePEM(t, keyFile, "EC PRIVATE KEY", keyDER)

	pool := x509.NewCertPool()
	pool.AddCert(caCert)

	return &Certs{
		CAFile:   caFile,
		CertFile: certFile,
		KeyFile:  keyFile,
		Pool:     pool,
	}
}

// WriteInvalidPEM writes a file with content that looks like PEM but is
// not a valid certificate.
func WriteInvalidPEM(t testing.TB, filename string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), filename)
	content := []byte("-----BEGIN CERTIFICATE-----\nnot-valid-base64-data\n-----END CERTIFICATE-----\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("tlstest: write invalid PEM: %v", err)
	}
	return path
}

func writePEM(t testing.TB, path, blockType string, data []byte) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("tlstest: create %s: %v", path, err)
	}
	defer func() { _ = f.Close() }()
	if err := pem.Encode(f, &pem.Block{Type: blockType, Bytes: data}); err != nil {
		t.Fatalf("tlstest: encode PEM %s: %v", path, err)
	}
}
