package ws

import "sync"

// sendEntry pairs an outbound message with the connection it targets, the
// unit held by an Endpoint's send queue (spec §3's SendQueueEntry).
type sendEntry struct {
	conn *Connection
	msg  OutboundMessage
}

// sendQueue is the per-Endpoint FIFO described in spec §4.4 and §9: push to
// the front, pop from the back. Implemented as a plain mutex-guarded slice
// rather than container/list, since the pack's examples (coregx-stream's
// Hub, tzrikka-timpani's writer channel) all favor the simplest structure
// that gets the ordering right over a generic data structure.
//
// Its depth is read only inside the package (enqueue checks it against
// sendQueueCapacity); Endpoint has no exported accessor for it. Send pushes
// with pushFront, and only the writer goroutine pops with popBack.
type sendQueue struct {
	mu      sync.Mutex
	entries []*sendEntry
}

// pushFront adds e to the front of the queue and reports whether the queue
// was empty beforehand — the signal for "call startwrite" in spec §4.4.
func (q *sendQueue) pushFront(e *sendEntry) (wasEmpty bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	wasEmpty = len(q.entries) == 0
	q.entries = append(q.entries, nil)
	copy(q.entries[1:], q.entries[:len(q.entries)-1])
	q.entries[0] = e
	return wasEmpty
}

// popBack removes and returns the entry at the back of the queue, or nil
// if the queue is empty.
func (q *sendQueue) popBack() *sendEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.entries)
	if n == 0 {
		return nil
	}
	e := q.entries[n-1]
	q.entries = q.entries[:n-1]
	return e
}

// len reports the number of entries currently queued.
func (q *sendQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// sendQueueCapacity bounds how many outbound messages an Endpoint will
// hold before Send starts rejecting new ones with ErrSendQueueFull. Sized
// in the same spirit as the broadcast channel buffer in
// coregx-stream/websocket/hub.go (256) and tzrikka-timpani's per-connection
// writer channel — a generous but finite backstop against an unbounded
// producer outrunning a slow peer.
const sendQueueCapacity = 4096

// runWriter is the Endpoint's single writer goroutine: the sole caller of
// Connection.rawWrite for queued (non-close) frames, which is what gives
// the endpoint its single-flight-write invariant ([single-writer] in
// spec §8) without a mutex around the queue drain itself.
func (e *Endpoint) runWriter() {
	defer e.wg.Done()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-e.wake:
			for {
				entry := e.queue.popBack()
				if entry == nil {
					break
				}
				e.writeEntry(entry)
			}
		}
	}
}

// writeEntry performs the write procedure from spec §4.4 step 3-7 for a
// single queue entry: build the header, mask if client role, write, and on
// any failure initiate a protocol-error close identifying the step.
func (e *Endpoint) writeEntry(entry *sendEntry) {
	c := entry.conn
	msg := entry.msg

	if !c.IsOpen() {
		return
	}

	f := &frame{
		fin:     true,
		opcode:  msg.Opcode,
		masked:  c.role == RoleClient,
		payload: msg.Payload,
	}
	if f.masked {
		key, err := newMaskKey()
		if err != nil {
			c.initiateClose(CloseInternalErr, "failed to generate masking key: "+err.Error())
			return
		}
		f.mask = key
	}

	if err := c.rawWrite(f); err != nil {
		if isDeadlineExceeded(err) {
			c.initiateClose(CloseGoingAway, "write timer expired")
			return
		}
		c.initiateClose(CloseProtocolError, "write failed: "+err.Error())
	}
}

// enqueue appends msg for delivery to c, copying the payload so Send never
// lets a caller observe (or racily mutate) the bytes the writer goroutine
// is about to mask (spec §9: the in-place masking of caller buffers the
// source did is replaced with a copy here).
func (e *Endpoint) enqueue(c *Connection, msg OutboundMessage) error {
	if !c.IsOpen() {
		return ErrClosed
	}
	if msg.Opcode == OpcodeClose {
		return ErrInvalidMessageType
	}
	if e.queue.len() >= sendQueueCapacity {
		return ErrSendQueueFull
	}

	payload := make([]byte, len(msg.Payload))
	copy(payload, msg.Payload)
	msg.Payload = payload

	wasEmpty := e.queue.pushFront(&sendEntry{conn: c, msg: msg})
	if wasEmpty {
		select {
		case e.wake <- struct{}{}:
		default:
		}
	}
	return nil
}
