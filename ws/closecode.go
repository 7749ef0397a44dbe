package ws

import "strconv"

// CloseCode is the 16-bit status carried in a CLOSE frame body (RFC 6455
// Section 7.4). See also the IANA registry:
// https://www.iana.org/assignments/websocket/websocket.xhtml#close-code-number
type CloseCode uint16

// Close codes used by this core (spec.md Section 6).
const (
	// CloseNormalClosure: the purpose for which the connection was
	// established has been fulfilled (RFC 6455 Section 7.4.1).
	CloseNormalClosure CloseCode = 1000

	// CloseGoingAway: an endpoint is going away, or a read/write deadline
	// expired before the peer produced or consumed a frame.
	CloseGoingAway CloseCode = 1001

	// CloseProtocolError: mask-bit violation, reserved bits set, oversize
	// control frame, or a malformed frame/handshake.
	CloseProtocolError CloseCode = 1002

	// CloseUnsupportedData: endpoint received a data type it cannot accept.
	CloseUnsupportedData CloseCode = 1003

	// CloseNoStatusReceived is a reserved value, used internally when a
	// CLOSE frame carries no status code. Must never be sent on the wire.
	CloseNoStatusReceived CloseCode = 1005

	// CloseAbnormalClosure is a reserved value, used internally when the
	// transport closed without a CLOSE frame. Must never be sent on the wire.
	CloseAbnormalClosure CloseCode = 1006

	// CloseInvalidFramePayloadData: text frame payload was not valid UTF-8.
	CloseInvalidFramePayloadData CloseCode = 1007

	// ClosePolicyViolation is a generic policy violation status code.
	ClosePolicyViolation CloseCode = 1008

	// CloseMessageTooBig: payload would exceed the configured max payload.
	CloseMessageTooBig CloseCode = 1009

	// CloseInternalErr: the endpoint hit an unexpected internal condition.
	CloseInternalErr CloseCode = 1011
)

// String returns the close code's name, or its number if unrecognized.
func (c CloseCode) String() string {
	switch c {
	case CloseNormalClosure:
		return "normal closure"
	case CloseGoingAway:
		return "going away"
	case CloseProtocolError:
		return "protocol error"
	case CloseUnsupportedData:
		return "unsupported data"
	case CloseNoStatusReceived:
		return "no status received"
	case CloseAbnormalClosure:
		return "abnormal closure"
	case CloseInvalidFramePayloadData:
		return "invalid frame payload data"
	case ClosePolicyViolation:
		return "policy violation"
	case CloseMessageTooBig:
		return "message too big"
	case CloseInternalErr:
		return "internal error"
	default:
		return strconv.Itoa(int(c))
	}
}
