package ws

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
)

// OnMessageFunc receives a complete data frame's payload and opcode
// (OpcodeText or OpcodeBinary for an unfragmented message or the first
// fragment, OpcodeContinuation for every later fragment including the
// final one — see DESIGN.md on why fragments are not reassembled).
type OnMessageFunc func(*Connection, []byte, Opcode)

// OnConnectFunc runs once the opening handshake completes and the
// Connection is ready to send and receive. headers carries the server's
// view of the client's request headers, or the client's view of the
// server's response headers (spec §4.6's headers_map).
type OnConnectFunc func(*Connection, http.Header)

// OnDisconnectFunc runs exactly once per Connection, after the close
// handshake (local or peer-initiated) completes and the transport is torn
// down ([idempotent-close] in spec §8).
type OnDisconnectFunc func(*Connection, CloseCode, string)

// OnControlFunc handles a received PING or PONG frame's payload.
type OnControlFunc func(*Connection, []byte)

// OnHTTPUpgradeFunc runs after a successful upgrade, before OnConnect, with
// the raw *http.Request a server-side Connection was upgraded from (nil on
// the client side). Mirrors spec §4.6's "invoke on_http_upgrade(connection)".
type OnHTTPUpgradeFunc func(*Connection, *http.Request)

// Endpoint is one side of the abstract Listener/Client pair from spec §5:
// a Listener Endpoint owns an http.Server and accepts inbound upgrades; a
// Client Endpoint dials out and performs the client handshake. Both share
// the same send queue, writer goroutine, and connection registry.
type Endpoint struct {
	cfg Config
	log zerolog.Logger

	role    Role
	tlsConf *tls.Config

	queue *sendQueue
	wake  chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	connsMu sync.Mutex
	conns   map[string]*Connection

	httpServer *http.Server
	listener   net.Listener

	onConnect     OnConnectFunc
	onMessage     OnMessageFunc
	onDisconnect  OnDisconnectFunc
	onPing        OnControlFunc
	onPong        OnControlFunc
	onHTTPUpgrade OnHTTPUpgradeFunc
}

func newEndpoint(cfg Config, role Role) *Endpoint {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	e := &Endpoint{
		cfg:    cfg,
		log:    *cfg.logger(),
		role:   role,
		queue:  &sendQueue{},
		wake:   make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
		conns:  make(map[string]*Connection),
	}
	e.wg.Add(1)
	go e.runWriter()
	return e
}

// NewListener builds a server-side Endpoint that will accept connections
// on cfg.ListenAddr once ListenAndServe is called. If cfg.TLS is set, the
// listener speaks TLS pinned to TLSv1.1 (spec §6).
func NewListener(cfg Config) (*Endpoint, error) {
	e := newEndpoint(cfg, RoleServer)

	if cfg.TLS != nil {
		tlsConf, err := buildServerTLSConfig(cfg.TLS, &e.log)
		if err != nil {
			e.cancel()
			return nil, fmt.Errorf("build server TLS config: %w", err)
		}
		e.tlsConf = tlsConf
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", e.handleUpgrade)
	e.httpServer = &http.Server{
		Addr:      cfg.ListenAddr,
		Handler:   mux,
		TLSConfig: e.tlsConf,
	}

	return e, nil
}

// NewClient builds a client-side Endpoint. cfg.ListenAddr is unused; TLS,
// when set, configures the transport Connect dials through.
func NewClient(cfg Config) (*Endpoint, error) {
	e := newEndpoint(cfg, RoleClient)

	if cfg.TLS != nil {
		tlsConf, err := buildClientTLSConfig(cfg.TLS, &e.log)
		if err != nil {
			e.cancel()
			return nil, fmt.Errorf("build client TLS config: %w", err)
		}
		e.tlsConf = tlsConf
	}

	return e, nil
}

// OnConnect registers the callback invoked once per Connection after the
// handshake completes.
func (e *Endpoint) OnConnect(fn OnConnectFunc) { e.onConnect = fn }

// OnMessage registers the callback invoked for each received data frame.
func (e *Endpoint) OnMessage(fn OnMessageFunc) { e.onMessage = fn }

// OnDisconnect registers the callback invoked exactly once per Connection
// when it closes.
func (e *Endpoint) OnDisconnect(fn OnDisconnectFunc) { e.onDisconnect = fn }

// OnPing registers the callback invoked for each received PING frame. The
// endpoint still auto-replies with a PONG regardless of whether this is
// set (spec §4.3 DISPATCH).
func (e *Endpoint) OnPing(fn OnControlFunc) { e.onPing = fn }

// OnPong registers the callback invoked for each received PONG frame.
func (e *Endpoint) OnPong(fn OnControlFunc) { e.onPong = fn }

// OnHTTPUpgrade registers the callback invoked right after a successful
// upgrade, before OnConnect.
func (e *Endpoint) OnHTTPUpgrade(fn OnHTTPUpgradeFunc) { e.onHTTPUpgrade = fn }

func (e *Endpoint) invokeOnConnect(c *Connection, h http.Header) {
	if e.onConnect != nil {
		e.onConnect(c, h)
	}
}

func (e *Endpoint) invokeOnMessage(c *Connection, payload []byte, op Opcode) {
	if e.onMessage != nil {
		e.onMessage(c, payload, op)
	}
}

func (e *Endpoint) invokeOnDisconnect(c *Connection, code CloseCode, reason string) {
	e.connDone(c)
	if e.onDisconnect != nil {
		e.onDisconnect(c, code, reason)
	}
}

func (e *Endpoint) invokeOnPing(c *Connection, payload []byte) {
	if e.onPing != nil {
		e.onPing(c, payload)
	}
}

func (e *Endpoint) invokeOnPong(c *Connection, payload []byte) {
	if e.onPong != nil {
		e.onPong(c, payload)
	}
}

func (e *Endpoint) invokeOnHTTPUpgrade(c *Connection, r *http.Request) {
	if e.onHTTPUpgrade != nil {
		e.onHTTPUpgrade(c, r)
	}
}

func (e *Endpoint) addConn(c *Connection) {
	e.connsMu.Lock()
	defer e.connsMu.Unlock()
	e.conns[c.id] = c
}

// connDone removes c from the registry. Safe to call more than once; a
// missing key is a no-op.
func (e *Endpoint) connDone(c *Connection) {
	e.connsMu.Lock()
	defer e.connsMu.Unlock()
	delete(e.conns, c.id)
}

// Conns returns the IDs of currently registered connections.
func (e *Endpoint) Conns() []string {
	e.connsMu.Lock()
	defer e.connsMu.Unlock()
	ids := make([]string, 0, len(e.conns))
	for id := range e.conns {
		ids = append(ids, id)
	}
	return ids
}

// handleUpgrade is the http.HandlerFunc wired into the Listener's mux: it
// runs serveUpgrade, wraps the hijacked net.Conn in a Connection, and
// spawns its receive loop, grounded on pepnova-9-go-websocket-server's
// startServer handler and coregx-stream's accept-then-spawn pattern.
func (e *Endpoint) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	transport, err := e.serveUpgrade(w, r)
	if err != nil {
		e.log.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("upgrade rejected")
		return
	}

	c := newConnection(e, transport, RoleServer)
	e.addConn(c)

	e.invokeOnHTTPUpgrade(c, r)
	e.invokeOnConnect(c, r.Header)

	e.wg.Add(1)
	go e.runReceiveLoop(c)
}

// ListenAndServe opens cfg.ListenAddr and serves upgrade requests until
// Shutdown is called or the listener fails. It blocks; callers typically
// run it in its own goroutine.
func (e *Endpoint) ListenAndServe() error {
	ln, err := net.Listen("tcp", e.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", e.cfg.ListenAddr, err)
	}
	if e.tlsConf != nil {
		ln = tls.NewListener(ln, e.tlsConf)
	}
	e.listener = ln

	e.log.Info().Str("addr", e.cfg.ListenAddr).Bool("tls", e.tlsConf != nil).Msg("listening")

	err = e.httpServer.Serve(ln)
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// Connect dials host:port, performs the client opening handshake (spec
// §4.6), and returns a live Connection with its receive loop already
// running.
func (e *Endpoint) Connect(ctx context.Context, host string, port int, headers http.Header) (*Connection, error) {
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))

	var dialer net.Dialer
	transport, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	if e.tlsConf != nil {
		tlsConn := tls.Client(transport, e.tlsConf)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			_ = transport.Close()
			return nil, fmt.Errorf("TLS handshake with %s: %w", addr, err)
		}
		transport = tlsConn
	}

	respHeaders, err := performClientHandshake(transport, host, port, headers)
	if err != nil {
		_ = transport.Close()
		return nil, err
	}

	c := newConnection(e, transport, RoleClient)
	e.addConn(c)

	e.invokeOnHTTPUpgrade(c, nil)
	e.invokeOnConnect(c, respHeaders)

	e.wg.Add(1)
	go e.runReceiveLoop(c)

	return c, nil
}

// Send enqueues msg for delivery to c on the Endpoint's single writer
// goroutine (spec §4.4).
func (e *Endpoint) Send(c *Connection, msg OutboundMessage) error {
	return e.enqueue(c, msg)
}

// Close runs the close procedure for a single connection (spec §4.7).
// It does not tear down the Endpoint itself; use Shutdown for that.
func (e *Endpoint) Close(c *Connection, code CloseCode, reason string) error {
	c.initiateClose(code, reason)
	return nil
}

// Shutdown tears the Endpoint down: it stops accepting new connections,
// closes every live Connection with CloseGoingAway, cancels the writer
// goroutine's context, and waits on the WaitGroup for every reader and the
// writer to return (spec §5).
func (e *Endpoint) Shutdown(ctx context.Context) error {
	if e.httpServer != nil {
		_ = e.httpServer.Shutdown(ctx)
	}
	if e.listener != nil {
		_ = e.listener.Close()
	}

	e.connsMu.Lock()
	conns := make([]*Connection, 0, len(e.conns))
	for _, c := range e.conns {
		conns = append(conns, c)
	}
	e.connsMu.Unlock()

	for _, c := range conns {
		c.initiateClose(CloseGoingAway, "endpoint shutting down")
	}

	e.cancel()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
