package api

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// tlsConfig builds the client TLS settings. Extra CA certificates are added
// on top of the system pool, or used alone where no system pool exists.
func tlsConfig(cfg Config, logger *zap.Logger) (*tls.Config, error) {
	if cfg.TLSInsecureSkip {
		logger.Warn("TLS certificate verification is disabled")
		return &tls.Config{InsecureSkipVerify: true}, nil
	}
	if cfg.CACertFile == "" {
		return nil, nil
	}

	pem, err := os.ReadFile(cfg.CACertFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificates: %w", err)
	}

	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		logger.Debug("system CA certificates not available, using supplied certificates only")
		pool = x509.NewCertPool()
	}

	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in %s", cfg.CACertFile)
	}

	return &tls.Config{RootCAs: pool}, nil
}
