package ws

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"
)

func TestParseClosePayload(t *testing.T) {
	cases := []struct {
		name       string
		payload    []byte
		wantCode   CloseCode
		wantReason string
	}{
		{"empty", nil, CloseNormalClosure, ""},
		{"code only", []byte{0x03, 0xE9}, CloseCode(1001), ""}, // unused in practice; exercises decoding
		{"code and reason", append([]byte{0x03, 0xE8}, "bye"...), CloseNormalClosure, "bye"},
		{"single byte", []byte{0x01}, CloseProtocolError, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, reason := parseClosePayload(tc.payload)
			if code != tc.wantCode {
				t.Errorf("code = %v, want %v", code, tc.wantCode)
			}
			if reason != tc.wantReason {
				t.Errorf("reason = %q, want %q", reason, tc.wantReason)
			}
		})
	}
}

// TestIdempotentClose covers [idempotent-close]: two initiateClose calls
// on the same connection produce exactly one OnDisconnect invocation.
func TestIdempotentClose(t *testing.T) {
	peer, local := net.Pipe()
	defer peer.Close()

	e := newEndpoint(Config{}.withDefaults(), RoleServer)
	defer e.Shutdown(context.Background())

	c := newConnection(e, local, RoleServer)
	e.addConn(c)

	disconnectCount := 0
	done := make(chan struct{})
	e.OnDisconnect(func(_ *Connection, code CloseCode, reason string) {
		disconnectCount++
		if code != CloseCode(4001) || reason != "bye" {
			t.Errorf("code/reason = %v/%q, want 4001/bye", code, reason)
		}
		close(done)
	})

	// Drain whatever the close write produces so initiateClose's write
	// doesn't block forever on the unbuffered pipe.
	go func() {
		pr := bufio.NewReader(peer)
		_, _ = readFrame(pr, 0)
	}()

	c.initiateClose(CloseCode(4001), "bye")
	c.initiateClose(CloseCode(4001), "bye") // second call must be a harmless no-op

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("OnDisconnect was not invoked")
	}

	if disconnectCount != 1 {
		t.Errorf("OnDisconnect invoked %d times, want exactly 1", disconnectCount)
	}
	if c.IsOpen() {
		t.Error("connection should report closed after initiateClose")
	}
}

// TestClose_TruncatesOversizeReason ensures the close body a peer receives
// never exceeds 125 bytes total, per spec §4.7 step 1.
func TestClose_TruncatesOversizeReason(t *testing.T) {
	peer, local := net.Pipe()
	defer peer.Close()

	e := newEndpoint(Config{}.withDefaults(), RoleServer)
	defer e.Shutdown(context.Background())

	c := newConnection(e, local, RoleServer)
	e.addConn(c)
	e.OnDisconnect(func(*Connection, CloseCode, string) {})

	longReason := make([]byte, 500)
	for i := range longReason {
		longReason[i] = 'x'
	}

	frameCh := make(chan *frame, 1)
	go func() {
		pr := bufio.NewReader(peer)
		f, err := readFrame(pr, 0)
		if err == nil {
			frameCh <- f
		} else {
			close(frameCh)
		}
	}()

	c.initiateClose(CloseProtocolError, string(longReason))

	select {
	case f := <-frameCh:
		if f == nil {
			t.Fatal("failed to read the close frame")
		}
		if len(f.payload) > maxControlPayload {
			t.Errorf("close payload length = %d, want <= %d", len(f.payload), maxControlPayload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the close frame")
	}
}
