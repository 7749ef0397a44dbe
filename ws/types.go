package ws

import "github.com/rs/zerolog"

// Role distinguishes the two sides of an established connection. Masking
// rules, the handshake direction, and extra framing overhead all branch on
// it (RFC 6455 Section 5.1/5.3).
type Role int

const (
	RoleServer Role = iota
	RoleClient
)

func (r Role) String() string {
	if r == RoleClient {
		return "client"
	}
	return "server"
}

// OutboundMessage is a payload queued for delivery on a Connection.
// Compress is carried through opaquely: permessage-deflate negotiation and
// application are out of scope for this core, so the flag is never
// inspected by the codec or send pipeline. It exists so callers that know
// about a future compression extension have somewhere to put the bit.
type OutboundMessage struct {
	Opcode   Opcode
	Payload  []byte
	Compress bool
}

// TLSConfig carries the certificate material for an Endpoint. It mirrors
// the Listener/Client constructor parameters from the abstract API surface
// (port, password, private_key_path, public_cert_path, dh_path).
type TLSConfig struct {
	// CertPath and KeyPath load the endpoint's own certificate and private
	// key (server-side, or client-side for mutual TLS).
	CertPath string
	KeyPath  string

	// KeyPassword decrypts KeyPath when it is an encrypted PEM block.
	KeyPassword string

	// CAPath, when set, is added to the peer-verification pool instead of
	// the system root pool.
	CAPath string

	// DHParamsPath is accepted and logged for compatibility with the
	// abstract Listener constructor surface but has no effect: crypto/tls
	// negotiates its own cipher suites and exposes no DH-params knob.
	DHParamsPath string
}

// Config configures an Endpoint.
type Config struct {
	// ListenAddr is the "host:port" a Listener binds to. Unused by a Client.
	ListenAddr string

	// TLS enables wrapping the transport in crypto/tls when non-nil.
	TLS *TLSConfig

	// ReadTimeoutSecs and WriteTimeoutSecs bound every read/write operation
	// on a Connection; a negative value disables the corresponding deadline.
	// Zero selects the default of 30.
	ReadTimeoutSecs  int
	WriteTimeoutSecs int

	// MaxPayload is the largest data-frame payload, in bytes, a Connection
	// will accept before closing with CloseMessageTooBig. Default 1 MiB.
	MaxPayload int64

	// Logger overrides the package default zerolog.Logger used for every
	// structured log line this Endpoint and its Connections emit.
	Logger *zerolog.Logger
}

const (
	defaultReadTimeoutSecs  = 30
	defaultWriteTimeoutSecs = 30
	defaultMaxPayload       = 1 * 1024 * 1024
)

// withDefaults returns a copy of cfg with zero-valued fields replaced by
// the documented defaults.
func (cfg Config) withDefaults() Config {
	if cfg.ReadTimeoutSecs == 0 {
		cfg.ReadTimeoutSecs = defaultReadTimeoutSecs
	}
	if cfg.WriteTimeoutSecs == 0 {
		cfg.WriteTimeoutSecs = defaultWriteTimeoutSecs
	}
	if cfg.MaxPayload == 0 {
		cfg.MaxPayload = defaultMaxPayload
	}
	return cfg
}

func (cfg Config) logger() *zerolog.Logger {
	if cfg.Logger != nil {
		return cfg.Logger
	}
	return &defaultLogger
}
