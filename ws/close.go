package ws

import (
	"encoding/binary"
	"unicode/utf8"
)

// maxCloseReason is the largest UTF-8 reason that fits alongside the 2-byte
// status code within a 125-byte control frame payload.
const maxCloseReason = maxControlPayload - 2

// parseClosePayload extracts the CloseCode and optional UTF-8 reason from
// an incoming CLOSE control frame's payload.
//
// Grounded on the example pack's close-payload parsing
// (tzrikka-timpani/pkg/websocket/close.go:parseClosePayload): an empty
// payload means the peer sent no status, which this core reports as
// CloseNormalClosure rather than propagating the RFC's
// "reserved, must never appear on the wire" 1005.
func parseClosePayload(payload []byte) (code CloseCode, reason string) {
	switch {
	case len(payload) == 0:
		return CloseNormalClosure, ""
	case len(payload) == 1:
		return CloseProtocolError, ""
	default:
		code = CloseCode(binary.BigEndian.Uint16(payload))
	}

	if len(payload) > 2 {
		r := payload[2:]
		if !utf8.Valid(r) {
			return CloseProtocolError, ""
		}
		reason = string(r)
	}

	return code, reason
}

// initiateClose runs the close procedure from spec §4.7: build the CLOSE
// frame body, write it on the ordinary send path (bypassing the queue,
// per §9 strategy (i)), then invoke on_disconnect and tear down the
// transport. Safe to call more than once; only the first call has any
// effect, which is what gives [idempotent-close] exactly one on_disconnect
// invocation.
func (c *Connection) initiateClose(code CloseCode, reason string) {
	c.closeOnce.Do(func() {
		c.closed.Store(true)

		if len(reason) > maxCloseReason {
			reason = reason[:maxCloseReason]
		}

		payload := make([]byte, 2+len(reason))
		binary.BigEndian.PutUint16(payload[:2], uint16(code))
		copy(payload[2:], reason)

		f := &frame{
			fin:     true,
			opcode:  OpcodeClose,
			masked:  c.role == RoleClient,
			payload: payload,
		}
		if f.masked {
			key, err := newMaskKey()
			if err == nil {
				f.mask = key
			}
		}

		if err := c.rawWrite(f); err != nil {
			c.log.Debug().Err(err).Msg("failed to write close frame, transport likely already gone")
		} else {
			c.log.Debug().Uint16("code", uint16(code)).Str("reason", reason).Msg("sent close frame")
		}

		c.deadlines.cancel()
		_ = c.transport.Close()

		c.endpoint.invokeOnDisconnect(c, code, reason)
	})
}

// handlePeerClose reacts to a received CLOSE frame: it echoes the status
// code back per RFC 6455 Section 5.5.1 ("If an endpoint receives a Close
// frame ... the endpoint MUST send a Close frame in response") by routing
// through the same initiateClose used for locally-initiated closes.
func (c *Connection) handlePeerClose(payload []byte) {
	code, reason := parseClosePayload(payload)
	c.initiateClose(code, reason)
}
