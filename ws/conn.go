package ws

import (
	"bufio"
	"net"
	"sync"
	"sync/atomic"

	"github.com/lithammer/shortuuid/v4"
	"github.com/rs/zerolog"
)

// Connection is the per-session state of one established WebSocket
// connection, created once the opening handshake completes and destroyed
// after the close frame write finishes or a fatal I/O error tears the
// transport down.
//
// A Connection owns exactly one transport (plain net.Conn, or one wrapped
// in *tls.Conn — both satisfy net.Conn, so the Connection never needs to
// know which), a read/write deadline pair, and a short opaque ID used to
// correlate its reader, writer, and deadline activity in the log.
type Connection struct {
	id       string
	role     Role
	endpoint *Endpoint

	transport net.Conn
	reader    *bufio.Reader
	writer    *bufio.Writer

	maxPayload int64
	deadlines  *deadlineController
	log        zerolog.Logger

	// writeMu serializes the writer goroutine's queued writes against the
	// close path's direct write (spec §9: close bypasses the send queue,
	// strategy (i); this mutex is what keeps that bypass from interleaving
	// bytes with an in-flight queued frame).
	writeMu sync.Mutex

	// fragmentOpen tracks whether a CONTINUATION sequence is currently open,
	// purely to detect a continuation with nothing to continue
	// (ErrUnexpectedContinuation). Frames are never reassembled into one
	// logical message (see DESIGN.md).
	fragmentOpen bool

	closeOnce sync.Once
	closed    atomic.Bool
}

func newConnection(endpoint *Endpoint, transport net.Conn, role Role) *Connection {
	cfg := endpoint.cfg
	id := shortuuid.New()
	return &Connection{
		id:         id,
		role:       role,
		endpoint:   endpoint,
		transport:  transport,
		reader:     bufio.NewReader(transport),
		writer:     bufio.NewWriter(transport),
		maxPayload: cfg.MaxPayload,
		deadlines:  newDeadlineController(transport, cfg.ReadTimeoutSecs, cfg.WriteTimeoutSecs),
		log:        endpoint.log.With().Str("conn_id", id).Str("role", role.String()).Logger(),
	}
}

// IsOpen reports whether the connection has not yet begun closing. It turns
// false as soon as the close procedure starts, before the close frame is
// written.
func (c *Connection) IsOpen() bool {
	return !c.closed.Load()
}

// ID returns the connection's short opaque identifier, used to correlate
// log lines emitted by its reader, writer, and deadline activity.
func (c *Connection) ID() string {
	return c.id
}

// Role reports whether this connection is the client or server side of
// the handshake.
func (c *Connection) Role() Role {
	return c.role
}

// RemoteAddr returns the underlying transport's remote address.
func (c *Connection) RemoteAddr() net.Addr {
	return c.transport.RemoteAddr()
}

func (c *Connection) remoteIP() net.IP {
	switch addr := c.transport.RemoteAddr().(type) {
	case *net.TCPAddr:
		return addr.IP
	default:
		host, _, err := net.SplitHostPort(addr.String())
		if err != nil {
			return nil
		}
		return net.ParseIP(host)
	}
}

// IsV4 reports whether the peer's remote address is an IPv4 address.
func (c *Connection) IsV4() bool {
	ip := c.remoteIP()
	return ip != nil && ip.To4() != nil
}

// IsV6 reports whether the peer's remote address is an IPv6 address.
func (c *Connection) IsV6() bool {
	ip := c.remoteIP()
	return ip != nil && ip.To4() == nil
}

// IsLoopback reports whether the peer's remote address is a loopback
// address.
func (c *Connection) IsLoopback() bool {
	ip := c.remoteIP()
	return ip != nil && ip.IsLoopback()
}

// rawWrite writes a single frame directly to the transport, serialized
// against any other direct or queued write via writeMu. Callers that go
// through the send pipeline (ws/sendqueue.go) and the close path
// (ws/close.go) both funnel through here; it is the only function that
// ever calls writeFrame.
func (c *Connection) rawWrite(f *frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.deadlines.armWrite(); err != nil {
		return err
	}
	return writeFrame(c.writer, f)
}

// rawReadFrame reads the next frame directly from the transport, arming
// the read deadline first (spec §4.5).
func (c *Connection) rawReadFrame() (*frame, error) {
	if err := c.deadlines.armRead(); err != nil {
		return nil, err
	}
	return readFrame(c.reader, c.maxPayload)
}
