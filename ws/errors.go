package ws

import "errors"

// Frame-layer errors: all correspond to a 1002 (protocol error) close
// unless noted otherwise. See CloseCode for the wire values.
var (
	ErrProtocolError = errors.New("ws: protocol error")

	// ErrInvalidUTF8 fires when a text frame's payload isn't valid UTF-8
	// (RFC 6455 Section 8.1). Closes with 1007, not 1002.
	ErrInvalidUTF8 = errors.New("ws: invalid UTF-8 in text frame")

	// ErrFrameTooLarge fires when a data frame's declared length exceeds the
	// connection's configured MaxPayload. Closes with 1009.
	ErrFrameTooLarge = errors.New("ws: frame too large")

	// ErrReservedBits fires when RSV1/RSV2/RSV3 is set; this core negotiates
	// no extensions, so those bits must always read 0 (RFC 6455 Section 5.2).
	ErrReservedBits = errors.New("ws: reserved bits must be 0")

	// ErrInvalidOpcode fires on opcodes 0x3-0x7 and 0xB-0xF, which RFC 6455
	// Section 5.2 reserves for future use.
	ErrInvalidOpcode = errors.New("ws: invalid opcode")

	// ErrControlFragmented and ErrControlTooLarge enforce RFC 6455 Section
	// 5.5's control-frame constraints: FIN must be 1, payload must fit in
	// 125 bytes.
	ErrControlFragmented = errors.New("ws: control frame must not be fragmented")
	ErrControlTooLarge   = errors.New("ws: control frame payload too large")

	// ErrUnexpectedContinuation names a continuation that arrives with no
	// fragment sequence open (RFC 6455 Section 5.4). Frames aren't
	// reassembled into one logical message here (see DESIGN.md), but a bare
	// continuation is still rejected: the receive loop closes with 1002
	// directly and does not return this value.
	ErrUnexpectedContinuation = errors.New("ws: unexpected continuation frame")

	// ErrMaskRequired and ErrMaskUnexpected name the masking direction
	// RFC 6455 Section 5.3 requires: client frames masked, server frames
	// never masked. The receive loop's role check closes with 1002 directly
	// and does not return either value.
	ErrMaskRequired   = errors.New("ws: client frames must be masked")
	ErrMaskUnexpected = errors.New("ws: server frames must not be masked")

	// ErrDeadlineExceeded names a read/write deadline elapsing. Nothing in
	// this package returns it; expiry is detected from the transport's own
	// net.Error (see isDeadlineExceeded).
	ErrDeadlineExceeded = errors.New("ws: read or write deadline exceeded")
)

// Handshake errors (RFC 6455 Section 4). A server that hits one logs it and
// returns from the upgrade handler without writing a response of its own; a
// client treats any of these as a failed dial.
var (
	ErrInvalidMethod     = errors.New("ws: method must be GET")
	ErrInvalidHTTPStatus = errors.New("ws: server did not return 101 Switching Protocols")
	ErrMissingUpgrade    = errors.New("ws: missing or invalid Upgrade header")
	ErrMissingConnection = errors.New("ws: missing or invalid Connection header")
	ErrMissingSecKey     = errors.New("ws: missing Sec-WebSocket-Key header")
	ErrInvalidVersion    = errors.New("ws: unsupported WebSocket version")

	// ErrHandshakeRejected fires when a client's computed accept key
	// doesn't match the server's Sec-WebSocket-Accept.
	ErrHandshakeRejected = errors.New("ws: handshake Sec-WebSocket-Accept mismatch")

	// ErrOriginDenied is an application-level check, not an RFC requirement.
	ErrOriginDenied = errors.New("ws: origin check failed")

	ErrHijackFailed = errors.New("ws: cannot hijack connection")
)

// Connection-lifecycle errors, surfaced to callers of Send/Close rather than
// used to choose a close code.
var (
	ErrClosed             = errors.New("ws: connection closed")
	ErrPeerClosed         = errors.New("ws: peer requested close")
	ErrInvalidMessageType = errors.New("ws: invalid message type")

	// ErrMessageTooLarge is ErrFrameTooLarge's counterpart at the message
	// API rather than the frame codec. Send does not return it:
	// Config.MaxPayload (default 1 MiB) bounds inbound frames only, and an
	// oversize inbound frame closes the connection with 1009.
	ErrMessageTooLarge = errors.New("ws: message too large")

	// ErrSendQueueFull fires when Send is called after the Endpoint's
	// shared outbound queue is already at capacity.
	ErrSendQueueFull = errors.New("ws: send queue full")
)
