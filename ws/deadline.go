package ws

import (
	"errors"
	"net"
	"time"
)

// deadlineController arms the read and write deadlines of a Connection's
// transport before every I/O operation (spec §4.5: "every read and every
// write operation calls arm before issuing the I/O").
//
// There is no separate timer/goroutine: net.Conn's deadline plus
// net.Error.Timeout() on the resulting error is the Go stand-in for the
// distinction the original source draws between a completion whose error
// code is "operation aborted" (cancellation) and any other error
// (expiry-triggered close).
type deadlineController struct {
	conn             net.Conn
	readTimeoutSecs  int
	writeTimeoutSecs int
}

func newDeadlineController(conn net.Conn, readTimeoutSecs, writeTimeoutSecs int) *deadlineController {
	return &deadlineController{
		conn:             conn,
		readTimeoutSecs:  readTimeoutSecs,
		writeTimeoutSecs: writeTimeoutSecs,
	}
}

// armRead sets the read deadline. seconds <= 0 disables it.
func (d *deadlineController) armRead() error {
	return d.conn.SetReadDeadline(expiry(d.readTimeoutSecs))
}

// armWrite sets the write deadline. seconds <= 0 disables it.
func (d *deadlineController) armWrite() error {
	return d.conn.SetWriteDeadline(expiry(d.writeTimeoutSecs))
}

// cancel clears both deadlines, e.g. once a connection has begun closing
// and no further timeout-triggered close should fire.
func (d *deadlineController) cancel() {
	_ = d.conn.SetReadDeadline(time.Time{})
	_ = d.conn.SetWriteDeadline(time.Time{})
}

func expiry(seconds int) time.Time {
	if seconds <= 0 {
		return time.Time{}
	}
	return time.Now().Add(time.Duration(seconds) * time.Second)
}

// isDeadlineExceeded reports whether err, or any error it wraps, is the
// expiry of a deadline armed by armRead or armWrite, as opposed to an
// ordinary I/O or protocol error.
func isDeadlineExceeded(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
