package brlapi

import "github.com/google/uuid"

// RawGate is the mutually exclusive gate over the driver's raw channel
// (spec §4.6): at most one connection may hold it at any instant.
//
// Mutated only from the server's actor goroutine; no lock required.
type RawGate struct {
	holder    *Connection
	sessionID uuid.UUID
}

// Acquire grants the gate to conn if it is free. It reports success and, on
// success, the correlation id assigned to the new raw session (Domain
// Stack: a google/uuid, distinct from the xid that identifies connections).
func (g *RawGate) Acquire(conn *Connection) (sessionID uuid.UUID, ok bool) {
	if g.holder != nil {
		return uuid.UUID{}, false
	}
	g.holder = conn
	g.sessionID = uuid.New()
	conn.inRawMode = true
	return g.sessionID, true
}

// Release frees the gate, iff conn currently holds it.
func (g *RawGate) Release(conn *Connection) bool {
	if g.holder != conn {
		return false
	}
	g.holder = nil
	conn.inRawMode = false
	return true
}

// Holder returns the current holder, or nil if the gate is free.
func (g *RawGate) Holder() *Connection { return g.holder }

// Occupied reports whether any connection holds the gate.
func (g *RawGate) Occupied() bool { return g.holder != nil }
