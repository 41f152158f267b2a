package brlapi

// Registry is the arbitration core: a mapping from tty_id to the Connection
// that owns it (spec §4.4). It is mutated only from the server's single
// actor goroutine, so it carries no locks — the invariant "each tty_id maps
// to at most one Connection" (spec §3 invariant 1) is enforced simply by
// never inserting over an existing key.
type Registry struct {
	owners map[uint32]*Connection
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{owners: make(map[uint32]*Connection)}
}

// Acquire inserts tty -> conn and sets conn.ownedTTY, iff tty is not already
// owned. It reports whether the acquisition succeeded.
func (r *Registry) Acquire(tty uint32, conn *Connection) bool {
	if _, busy := r.owners[tty]; busy {
		return false
	}
	r.owners[tty] = conn
	conn.ownedTTY = tty
	conn.hasTTY = true
	return true
}

// Release removes conn's tty ownership, if any.
func (r *Registry) Release(conn *Connection) {
	if !conn.hasTTY {
		return
	}
	delete(r.owners, conn.ownedTTY)
	conn.hasTTY = false
	conn.ownedTTY = 0
}

// Lookup returns the Connection owning tty, if any.
func (r *Registry) Lookup(tty uint32) (*Connection, bool) {
	c, ok := r.owners[tty]
	return c, ok
}

// Len reports the number of currently owned ttys (diagnostics/testing).
func (r *Registry) Len() int { return len(r.owners) }
