package ws

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// buildServerTLSConfig turns a TLSConfig into a *tls.Config for a Listener.
// Pinned to TLSv1.1 by default per spec §6 ("TLSv1.1 by default in this
// core"); MinVersion/MaxVersion are both set so Go's default of negotiating
// up to the latest supported version doesn't silently widen the range.
func buildServerTLSConfig(cfg *TLSConfig, log *zerolog.Logger) (*tls.Config, error) {
	cert, err := loadCertificate(cfg, log)
	if err != nil {
		return nil, err
	}

	tlsCfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS11,
		MaxVersion:   tls.VersionTLS11,
	}

	if cfg.CAPath != "" {
		pool, err := loadCAPool(cfg.CAPath)
		if err != nil {
			return nil, err
		}
		tlsCfg.ClientCAs = pool
		tlsCfg.ClientAuth = tls.VerifyClientCertIfGiven
	}

	if cfg.DHParamsPath != "" {
		log.Debug().Str("dh_params_path", cfg.DHParamsPath).
			Msg("DHParamsPath accepted for compatibility; crypto/tls has no DH-params knob")
	}

	return tlsCfg, nil
}

// buildClientTLSConfig turns a TLSConfig into a *tls.Config for a Client
// Endpoint. Verification stays on; a VerifyPeerCertificate hook logs the
// verified chain's leaf subject, matching spec §6: "the implementation
// logs the subject name" while still returning Go's own verification
// result untouched.
func buildClientTLSConfig(cfg *TLSConfig, log *zerolog.Logger) (*tls.Config, error) {
	tlsCfg := &tls.Config{
		MinVersion: tls.VersionTLS11,
		MaxVersion: tls.VersionTLS11,
	}

	if cfg == nil {
		return tlsCfg, nil
	}

	if cfg.CAPath != "" {
		pool, err := loadCAPool(cfg.CAPath)
		if err != nil {
			return nil, err
		}
		tlsCfg.RootCAs = pool
	}

	if cfg.CertPath != "" {
		cert, err := loadCertificate(cfg, log)
		if err != nil {
			return nil, err
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}

	tlsCfg.VerifyPeerCertificate = func(_ [][]byte, chains [][]*x509.Certificate) error {
		if len(chains) > 0 && len(chains[0]) > 0 {
			log.Debug().Str("subject", chains[0][0].Subject.String()).
				Msg("verified peer certificate")
		}
		return nil
	}

	return tlsCfg, nil
}

// loadCertificate reads the endpoint's certificate and private key from
// disk. KeyPassword decrypts an encrypted PEM-blocked private key, matching
// the abstract Listener constructor's password parameter (spec §6).
func loadCertificate(cfg *TLSConfig, log *zerolog.Logger) (tls.Certificate, error) {
	certPEM, err := os.ReadFile(cfg.CertPath)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("read certificate %q: %w", cfg.CertPath, err)
	}
	keyPEM, err := os.ReadFile(cfg.KeyPath)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("read private key %q: %w", cfg.KeyPath, err)
	}

	if cfg.KeyPassword != "" {
		keyPEM, err = decryptPEMBlock(keyPEM, cfg.KeyPassword)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("decrypt private key %q: %w", cfg.KeyPath, err)
		}
		log.Debug().Str("key_path", cfg.KeyPath).Msg("decrypted password-protected private key")
	}

	return tls.X509KeyPair(certPEM, keyPEM)
}

// decryptPEMBlock decrypts a password-protected PEM-encoded private key.
// x509.DecryptPEMBlock and the RFC 1423 cipher it implements are
// deprecated by the standard library in favor of PKCS#8/PKCS#12, but are
// kept here as the straightforward path for the password-callback
// parameter spec §6 describes; production deployments are expected to
// supply an unencrypted key file or a PKCS#12 bundle instead.
func decryptPEMBlock(pemBytes []byte, password string) ([]byte, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}

	//nolint:staticcheck // SA1019: only available decryption path for legacy encrypted PEM keys
	der, err := x509.DecryptPEMBlock(block, []byte(password))
	if err != nil {
		return nil, err
	}

	return pem.EncodeToMemory(&pem.Block{Type: block.Type, Bytes: der}), nil
}

func loadCAPool(caPath string) (*x509.CertPool, error) {
	caPEM, err := os.ReadFile(caPath)
	if err != nil {
		return nil, fmt.Errorf("read CA bundle %q: %w", caPath, err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("no certificates found in CA bundle %q", caPath)
	}
	return pool, nil
}
