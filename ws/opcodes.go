// Package ws implements the core of an RFC 6455 WebSocket endpoint: frame
// codec, receive state machine, send pipeline, opening handshake (client and
// server), optional TLS, and connection lifecycle.
//
// This package provides frame-level parsing and writing according to RFC 6455
// Section 5. It handles:
//   - Text and binary data frames
//   - Control frames (close, ping, pong)
//   - Client-to-server masking
//   - Payload length encoding (7-bit, 16-bit, 64-bit)
//
// RFC Reference: https://datatracker.ietf.org/doc/html/rfc6455
package ws

import "strconv"

// Opcode denotes the type of a WebSocket frame (RFC 6455 Section 5.2).
//
// Opcodes 0x0-0x2 are data frames, 0x8-0xA are control frames. Opcodes
// 0x3-0x7 and 0xB-0xF are reserved for future use and rejected on receive.
type Opcode byte

const (
	// OpcodeContinuation indicates a continuation frame (RFC 6455 Section 5.4).
	// This core does not reassemble continuations into one logical message;
	// each frame is dispatched independently with this opcode (see DESIGN.md).
	OpcodeContinuation Opcode = 0x0

	// OpcodeText indicates a text data frame (RFC 6455 Section 5.6).
	OpcodeText Opcode = 0x1

	// OpcodeBinary indicates a binary data frame (RFC 6455 Section 5.6).
	OpcodeBinary Opcode = 0x2

	// OpcodeClose indicates a close control frame (RFC 6455 Section 5.5.1).
	OpcodeClose Opcode = 0x8

	// OpcodePing indicates a ping control frame (RFC 6455 Section 5.5.2).
	OpcodePing Opcode = 0x9

	// OpcodePong indicates a pong control frame (RFC 6455 Section 5.5.3).
	OpcodePong Opcode = 0xA
)

// String returns the opcode's name, or its number if it's unrecognized.
func (o Opcode) String() string {
	switch o {
	case OpcodeContinuation:
		return "continuation"
	case OpcodeText:
		return "text"
	case OpcodeBinary:
		return "binary"
	case OpcodeClose:
		return "close"
	case OpcodePing:
		return "ping"
	case OpcodePong:
		return "pong"
	default:
		return strconv.Itoa(int(o))
	}
}

// opcodeClass distinguishes the two broad categories RFC 6455 Section 5.2
// splits opcodes into: data frames, which may be fragmented, and control
// frames, which must not be. A third, implicit class — everything not in
// the table below — is simply invalid.
type opcodeClass int

const (
	classData opcodeClass = iota
	classControl
)

// opcodeClasses enumerates every opcode RFC 6455 defines, mapped to its
// class. An opcode absent from this table (0x3-0x7, 0xB-0xF) is reserved and
// rejected by isValidOpcode.
var opcodeClasses = map[Opcode]opcodeClass{
	OpcodeContinuation: classData,
	OpcodeText:         classData,
	OpcodeBinary:       classData,
	OpcodeClose:        classControl,
	OpcodePing:         classControl,
	OpcodePong:         classControl,
}

// isValidOpcode reports whether opcode is one RFC 6455 defines.
func isValidOpcode(opcode Opcode) bool {
	_, ok := opcodeClasses[opcode]
	return ok
}

// isControlFrame reports whether opcode names a control frame: one that
// must not be fragmented (FIN must be 1), may be interleaved with a
// fragmented data stream, and must carry a payload of 125 bytes or fewer.
func isControlFrame(opcode Opcode) bool {
	return opcodeClasses[opcode] == classControl
}
