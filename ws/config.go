package ws

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// fileConfig is the TOML-decodable shape of Config. Kept separate from
// Config itself so Config's TLS field can stay a *TLSConfig pointer
// (nil means "no TLS") while the file format always has the table
// present, just possibly empty.
type fileConfig struct {
	ListenAddr       string `toml:"listen_addr"`
	ReadTimeoutSecs  int    `toml:"read_timeout_secs"`
	WriteTimeoutSecs int    `toml:"write_timeout_secs"`
	MaxPayload       int64  `toml:"max_payload"`

	TLS struct {
		CertPath     string `toml:"cert_path"`
		KeyPath      string `toml:"key_path"`
		KeyPassword  string `toml:"key_password"`
		CAPath       string `toml:"ca_path"`
		DHParamsPath string `toml:"dh_params_path"`
	} `toml:"tls"`
}

// LoadConfig decodes a Config from a TOML file at path. A [tls] table is
// only turned into a non-nil TLSConfig when it sets cert_path, matching
// the "TLS enables wrapping the transport ... when non-nil" contract in
// types.go.
//
// Grounded on the config-file layer used throughout the example pack
// (github.com/BurntSushi/toml is the format tzrikka-timpani's own
// configuration directory carries in its dependency graph); the
// cli-altsrc source-chain wiring tzrikka's cmd/timpani/main.go layers on
// top is not adopted anywhere in this module, so this package stays usable
// without urfave/cli.
func LoadConfig(path string) (Config, error) {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return Config{}, fmt.Errorf("decode config %q: %w", path, err)
	}

	cfg := Config{
		ListenAddr:       fc.ListenAddr,
		ReadTimeoutSecs:  fc.ReadTimeoutSecs,
		WriteTimeoutSecs: fc.WriteTimeoutSecs,
		MaxPayload:       fc.MaxPayload,
	}

	if fc.TLS.CertPath != "" {
		cfg.TLS = &TLSConfig{
			CertPath:     fc.TLS.CertPath,
			KeyPath:      fc.TLS.KeyPath,
			KeyPassword:  fc.TLS.KeyPassword,
			CAPath:       fc.TLS.CAPath,
			DHParamsPath: fc.TLS.DHParamsPath,
		}
	}

	return cfg, nil
}
