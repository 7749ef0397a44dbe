package ws

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"
)

// newTestEndpointPair wires a Connection of the given role directly to one
// end of a net.Pipe, bypassing the HTTP handshake so the receive loop and
// send pipeline can be exercised in isolation — the same mockConn-style
// shortcut the example pack's own websocket tests take, adapted here to a
// real net.Conn since Connection is built on bufio over net.Conn rather
// than arbitrary io.Reader/Writer.
func newTestEndpointPair(t *testing.T, role Role, cfg Config) (*Endpoint, *Connection, net.Conn) {
	t.Helper()

	peer, local := net.Pipe()

	e := newEndpoint(cfg, role)
	t.Cleanup(func() { _ = e.Shutdown(context.Background()) })

	// Registered after (and so, by t.Cleanup's LIFO order, run before) the
	// endpoint shutdown above: closing peer first unblocks any write the
	// shutdown's close-frame attempt would otherwise stall on until the
	// write deadline fires.
	t.Cleanup(func() { _ = peer.Close() })

	c := newConnection(e, local, role)
	e.addConn(c)

	return e, c, peer
}

func TestReceiveLoop_PingProducesPong(t *testing.T) {
	e, c, peer := newTestEndpointPair(t, RoleServer, Config{MaxPayload: 1024}.withDefaults())

	var gotPing []byte
	pingCh := make(chan struct{})
	e.OnPing(func(_ *Connection, payload []byte) {
		gotPing = append([]byte(nil), payload...)
		close(pingCh)
	})

	e.wg.Add(1)
	go e.runReceiveLoop(c)

	pw := bufio.NewWriter(peer)
	ping := &frame{fin: true, opcode: OpcodePing, masked: true, payload: []byte{0x01, 0x02, 0x03}}
	key, err := newMaskKey()
	if err != nil {
		t.Fatalf("newMaskKey: %v", err)
	}
	ping.mask = key
	if err := writeFrame(pw, ping); err != nil {
		t.Fatalf("writeFrame: %v", err)
	}

	select {
	case <-pingCh:
	case <-time.After(2 * time.Second):
		t.Fatal("OnPing was not invoked")
	}
	if string(gotPing) != "\x01\x02\x03" {
		t.Errorf("ping payload = %v, want %v", gotPing, []byte{1, 2, 3})
	}

	// [ping-pong]: the server replies with a PONG carrying the same bytes,
	// unmasked since server frames are never masked.
	pr := bufio.NewReader(peer)
	pong, err := readFrame(pr, 0)
	if err != nil {
		t.Fatalf("readFrame (pong): %v", err)
	}
	if pong.opcode != OpcodePong {
		t.Fatalf("opcode = %v, want pong", pong.opcode)
	}
	if pong.masked {
		t.Error("server-sent pong must not be masked")
	}
	if string(pong.payload) != "\x01\x02\x03" {
		t.Errorf("pong payload = %v, want %v", pong.payload, []byte{1, 2, 3})
	}
}

func TestReceiveLoop_ServerRejectsUnmaskedFrame(t *testing.T) {
	e, c, peer := newTestEndpointPair(t, RoleServer, Config{}.withDefaults())

	disconnectCh := make(chan CloseCode, 1)
	e.OnDisconnect(func(_ *Connection, code CloseCode, _ string) {
		disconnectCh <- code
	})
	e.OnMessage(func(*Connection, []byte, Opcode) {
		t.Error("on_message must not fire for a rejected unmasked frame")
	})

	e.wg.Add(1)
	go e.runReceiveLoop(c)

	pw := bufio.NewWriter(peer)
	// Unmasked text frame sent to a server connection: rejected per
	// [role-reject] without ever reaching OnMessage.
	if err := writeFrame(pw, &frame{fin: true, opcode: OpcodeText, masked: false, payload: []byte("hi")}); err != nil {
		t.Fatalf("writeFrame: %v", err)
	}

	// Drain the close frame the rejection writes, so that write does not
	// block on the unbuffered pipe before OnDisconnect runs.
	go func() { _, _ = readFrame(bufio.NewReader(peer), 0) }()

	select {
	case code := <-disconnectCh:
		if code != CloseProtocolError {
			t.Errorf("close code = %v, want %v", code, CloseProtocolError)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnDisconnect was not invoked")
	}
}

func TestReceiveLoop_ClientRejectsMaskedFrame(t *testing.T) {
	e, c, peer := newTestEndpointPair(t, RoleClient, Config{}.withDefaults())

	disconnectCh := make(chan CloseCode, 1)
	e.OnDisconnect(func(_ *Connection, code CloseCode, _ string) {
		disconnectCh <- code
	})

	e.wg.Add(1)
	go e.runReceiveLoop(c)

	pw := bufio.NewWriter(peer)
	key, err := newMaskKey()
	if err != nil {
		t.Fatalf("newMaskKey: %v", err)
	}
	if err := writeFrame(pw, &frame{fin: true, opcode: OpcodeText, masked: true, mask: key, payload: []byte("hi")}); err != nil {
		t.Fatalf("writeFrame: %v", err)
	}

	// Drain the close frame the rejection writes, so that write does not
	// block on the unbuffered pipe before OnDisconnect runs.
	go func() { _, _ = readFrame(bufio.NewReader(peer), 0) }()

	select {
	case code := <-disconnectCh:
		if code != CloseProtocolError {
			t.Errorf("close code = %v, want %v", code, CloseProtocolError)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnDisconnect was not invoked")
	}
}

func TestReceiveLoop_OversizePayloadClosesWithMessageTooBig(t *testing.T) {
	e, c, peer := newTestEndpointPair(t, RoleServer, Config{MaxPayload: 1024}.withDefaults())

	disconnectCh := make(chan CloseCode, 1)
	e.OnDisconnect(func(_ *Connection, code CloseCode, _ string) {
		disconnectCh <- code
	})

	e.wg.Add(1)
	go e.runReceiveLoop(c)

	pw := bufio.NewWriter(peer)
	key, err := newMaskKey()
	if err != nil {
		t.Fatalf("newMaskKey: %v", err)
	}
	big := &frame{fin: true, opcode: OpcodeBinary, masked: true, mask: key, payload: make([]byte, 2000)}
	if err := writeFrame(pw, big); err != nil {
		t.Fatalf("writeFrame: %v", err)
	}

	// Drain the close frame the rejection writes, so that write does not
	// block on the unbuffered pipe before OnDisconnect runs.
	go func() { _, _ = readFrame(bufio.NewReader(peer), 0) }()

	select {
	case code := <-disconnectCh:
		if code != CloseMessageTooBig {
			t.Errorf("close code = %v, want %v ([max-payload])", code, CloseMessageTooBig)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnDisconnect was not invoked")
	}
}

func TestReceiveLoop_DataMessageDispatched(t *testing.T) {
	e, c, peer := newTestEndpointPair(t, RoleServer, Config{}.withDefaults())

	type received struct {
		payload []byte
		opcode  Opcode
	}
	msgCh := make(chan received, 1)
	e.OnMessage(func(_ *Connection, payload []byte, op Opcode) {
		msgCh <- received{append([]byte(nil), payload...), op}
	})

	e.wg.Add(1)
	go e.runReceiveLoop(c)

	pw := bufio.NewWriter(peer)
	key, err := newMaskKey()
	if err != nil {
		t.Fatalf("newMaskKey: %v", err)
	}
	if err := writeFrame(pw, &frame{fin: true, opcode: OpcodeText, masked: true, mask: key, payload: []byte("hello")}); err != nil {
		t.Fatalf("writeFrame: %v", err)
	}

	select {
	case got := <-msgCh:
		if got.opcode != OpcodeText {
			t.Errorf("opcode = %v, want text", got.opcode)
		}
		if string(got.payload) != "hello" {
			t.Errorf("payload = %q, want %q", got.payload, "hello")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnMessage was not invoked")
	}
}
