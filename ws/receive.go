package ws

import "errors"

// receiveState names the phase of spec §4.3's per-connection state machine
// for log correlation. bufio.Reader already buffers the header/extended
// length/body reads that the source suspends and resumes across, so a
// single Connection.rawReadFrame call performs IDLE through BODY in one
// step; the states below label that call's sub-steps in the log rather
// than as separate suspension points, which is the idiomatic Go shape for
// the same logic once the executor's cooperative scheduling is replaced by
// a dedicated goroutine per connection (see DESIGN.md).
type receiveState int

const (
	stateIdle receiveState = iota
	stateHeader
	stateBody
	stateDispatch
	stateClosing
)

func (s receiveState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateHeader:
		return "header"
	case stateBody:
		return "body"
	case stateDispatch:
		return "dispatch"
	case stateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// checkRole enforces spec §3's masking invariant: client connections MUST
// reject masked inbound frames, server connections MUST reject unmasked
// inbound frames.
func (c *Connection) checkRole(f *frame) bool {
	wantMasked := c.role == RoleServer
	return f.masked == wantMasked
}

// runReceiveLoop is the reader goroutine body for one Connection: it walks
// IDLE → HEADER → BODY → DISPATCH → IDLE per spec §4.3 until a read fails,
// a deadline expires, or a CLOSE frame moves it into the terminal CLOSING
// state.
func (e *Endpoint) runReceiveLoop(c *Connection) {
	defer e.wg.Done()
	defer e.connDone(c)

	for {
		c.log.Trace().Str("state", stateHeader.String()).Msg("awaiting frame")

		f, err := c.rawReadFrame()
		if err != nil {
			switch {
			case isDeadlineExceeded(err):
				c.log.Debug().Msg("read deadline expired")
				c.initiateClose(CloseGoingAway, "read timer expired")
			case errors.Is(err, ErrFrameTooLarge):
				// spec §4.3 BODY: "If n > max_payload, CLOSE with 1009."
				c.log.Debug().Err(err).Msg("payload exceeds max_payload")
				c.initiateClose(CloseMessageTooBig, "payload exceeded max_payload")
			case errors.Is(err, ErrInvalidUTF8):
				c.log.Debug().Err(err).Msg("invalid UTF-8 in text frame")
				c.initiateClose(CloseInvalidFramePayloadData, "invalid UTF-8 in text frame")
			default:
				c.log.Debug().Err(err).Msg("read failed")
				c.initiateClose(CloseProtocolError, "read failed: "+err.Error())
			}
			return
		}

		c.log.Trace().Str("state", stateBody.String()).
			Str("opcode", f.opcode.String()).Int("len", len(f.payload)).Msg("frame received")

		// [role-reject]: reject before any payload reaches a callback.
		if !c.checkRole(f) {
			c.log.Debug().Msg("mask requirement not met")
			c.initiateClose(CloseProtocolError, "mask requirement not met")
			return
		}

		c.log.Trace().Str("state", stateDispatch.String()).Msg("dispatching frame")

		switch f.opcode {
		case OpcodeClose:
			c.log.Trace().Str("state", stateClosing.String()).Msg("peer requested close")
			c.handlePeerClose(f.payload)
			return

		case OpcodePing:
			e.invokeOnPing(c, f.payload)
			// "enqueue an outbound PONG with the same payload" (spec §4.3 DISPATCH).
			_ = e.enqueue(c, OutboundMessage{Opcode: OpcodePong, Payload: f.payload})

		case OpcodePong:
			e.invokeOnPong(c, f.payload)

		case OpcodeContinuation:
			if !c.fragmentOpen {
				c.initiateClose(CloseProtocolError, "unexpected continuation frame")
				return
			}
			if f.fin {
				c.fragmentOpen = false
			}
			e.invokeOnMessage(c, f.payload, f.opcode)

		default: // OpcodeText, OpcodeBinary
			if !f.fin {
				c.fragmentOpen = true
			}
			e.invokeOnMessage(c, f.payload, f.opcode)
		}
	}
}
