package ws

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func TestComputeAcceptKey_RFCExample(t *testing.T) {
	// RFC 6455 Section 1.3's own worked example.
	got := computeAcceptKey("dGhlIHNhbXBsZSBub25jZQ==")
	want := "s3pPLMBiTxaQ9kYGzzhZRbK+xOo="
	if got != want {
		t.Errorf("computeAcceptKey = %q, want %q", got, want)
	}
}

func TestHeaderContainsToken(t *testing.T) {
	cases := []struct {
		header, token string
		want          bool
	}{
		{"websocket", "websocket", true},
		{"Websocket", "websocket", true},
		{"Upgrade, keep-alive", "upgrade", true},
		{"keep-alive", "upgrade", false},
		{"", "websocket", false},
	}
	for _, tc := range cases {
		if got := headerContainsToken(tc.header, tc.token); got != tc.want {
			t.Errorf("headerContainsToken(%q, %q) = %v, want %v", tc.header, tc.token, got, tc.want)
		}
	}
}

// TestHandshake_ClientServerRoundTrip covers the first end-to-end scenario
// from spec.md §8: a client dials a Listener, the 101 response arrives,
// and both sides compute the same accept key.
func TestHandshake_ClientServerRoundTrip(t *testing.T) {
	e := newEndpoint(Config{}.withDefaults(), RoleServer)
	defer e.Shutdown(context.Background())

	var gotConn net.Conn
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := e.serveUpgrade(w, r)
		if err != nil {
			t.Errorf("serveUpgrade: %v", err)
			return
		}
		gotConn = conn
	}))
	defer srv.Close()

	host, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	if err != nil {
		t.Fatalf("split server addr: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse port: %v", err)
	}

	clientConn, err := net.DialTimeout("tcp", net.JoinHostPort(host, portStr), 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer clientConn.Close()

	respHeaders, err := performClientHandshake(clientConn, host, port, nil)
	if err != nil {
		t.Fatalf("performClientHandshake: %v", err)
	}
	if respHeaders.Get("Sec-WebSocket-Accept") == "" {
		t.Error("expected a Sec-WebSocket-Accept header in the response")
	}
	if gotConn == nil {
		t.Error("server never hijacked a connection")
	}
}

func TestServeUpgrade_RejectsNonGET(t *testing.T) {
	e := newEndpoint(Config{}.withDefaults(), RoleServer)
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	_, err := e.serveUpgrade(rec, req)
	if err != ErrInvalidMethod {
		t.Fatalf("err = %v, want %v", err, ErrInvalidMethod)
	}
}

func TestServeUpgrade_RejectsMissingSecKey(t *testing.T) {
	e := newEndpoint(Config{}.withDefaults(), RoleServer)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Sec-WebSocket-Version", "13")
	rec := httptest.NewRecorder()
	_, err := e.serveUpgrade(rec, req)
	if err != ErrMissingSecKey {
		t.Fatalf("err = %v, want %v", err, ErrMissingSecKey)
	}
}
