package brlapi

import (
	"net"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
)

// State is a Connection's position in the per-client state machine (spec §3).
type State int

const (
	StateNew State = iota
	StateAuthenticated
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateAuthenticated:
		return "authenticated"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// Connection is one client's session state (spec §3). Every field is
// touched only by the server's single actor goroutine; the reader and
// writer goroutines that own the socket communicate with the actor
// exclusively over channels, so Connection itself needs no locking.
type Connection struct {
	id    xid.ID
	sock  net.Conn
	log   *logrus.Entry
	state State

	ownedTTY uint32
	hasTTY   bool

	keyMode    KeyMode
	keyBuffer  KeyBuffer
	ignoreMask IgnoreMask

	inRawMode bool
	rawQueue  RawQueue

	bindings      map[uint32]string
	bindingLoaded bool

	// peerPID is the connecting process's pid, used to resolve tty_id == 0.
	// Zero when unknown (e.g. a non-Unix-domain listener, or a test harness).
	peerPID int

	outbox  chan Frame
	closing bool
}

// newConnection constructs a Connection in StateNew, wired to sock.
func newConnection(sock net.Conn, log *logrus.Entry, outboxSize int) *Connection {
	id := xid.New()
	return &Connection{
		id:     id,
		sock:   sock,
		log:    log.WithField("conn", id.String()),
		state:  StateNew,
		outbox: make(chan Frame, outboxSize),
	}
}

// ID returns the connection's short trace id.
func (c *Connection) ID() string { return c.id.String() }

// OwnsTTY reports whether this connection currently owns a tty.
func (c *Connection) OwnsTTY() bool { return c.hasTTY }

// send enqueues f for delivery without blocking the caller (the server's
// actor goroutine). If the connection's outbound queue is already full —
// meaning the client has stopped draining its socket entirely — the
// connection is marked for closure rather than stalling the whole server.
func (c *Connection) send(f Frame) {
	if c.closing {
		return
	}
	select {
	case c.outbox <- f:
	default:
		c.log.Warn("outbound queue full, closing unresponsive connection")
		c.closing = true
	}
}

// sendAck enqueues an ACK, optionally carrying payload.
func (c *Connection) sendAck(payload []byte) {
	c.send(Frame{Type: TypeAck, Payload: payload})
}

// sendError enqueues an ERROR(code).
func (c *Connection) sendError(code ErrorCode) {
	c.send(Frame{Type: TypeError, Payload: encodeErrorPayload(code)})
}

// resetTTYState clears everything GETTTY established (LEAVETTY, spec §4.3).
func (c *Connection) resetTTYState() {
	c.keyBuffer.Reset()
	c.ignoreMask.Reset()
	c.keyMode = KeyModeNone
	c.bindings = nil
	c.bindingLoaded = false
}
