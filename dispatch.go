package brlapi

import "context"

// dispatch routes one decoded frame from conn through the per-type handler
// table in spec §4.3. It is called only from the actor goroutine (Server.run).
func (s *Server) dispatch(ctx context.Context, conn *Connection, frame Frame) {
	if conn.state == StateNew {
		if frame.Type != TypeAuthKey {
			conn.sendError(ErrConnRefused)
			conn.closing = true
			return
		}
		s.handleAuthKey(conn, frame.Payload)
		return
	}

	switch frame.Type {
	case TypeAuthKey:
		conn.sendError(ErrIllegalInstruction)
	case TypeBye:
		conn.sendAck(nil)
		conn.closing = true
	case TypeGetDriverID:
		id := s.driver.DriverID()
		conn.sendAck(append([]byte(nil), id[0], id[1]))
	case TypeGetDriverName:
		conn.sendAck([]byte(s.driver.DriverName()))
	case TypeGetDisplayS:
		w, h := s.driver.DisplaySize()
		conn.sendAck(putU32(putU32(nil, uint32(w)), uint32(h)))
	case TypeGetTTY:
		s.handleGetTTY(conn, frame.Payload)
	case TypeLeaveTTY:
		s.handleLeaveTTY(conn)
	case TypeWrite:
		s.handleWrite(ctx, conn, frame.Payload)
	case TypeWriteDots:
		s.handleWriteDots(ctx, conn, frame.Payload)
	case TypeStatWrite:
		s.handleStatWrite(ctx, conn, frame.Payload)
	case TypeMaskKeys:
		s.handleMaskKeys(conn, frame.Payload, true)
	case TypeUnmaskKeys:
		s.handleMaskKeys(conn, frame.Payload, false)
	case TypeGetRaw:
		s.handleGetRaw(ctx, conn, frame.Payload)
	case TypeLeaveRaw:
		s.handleLeaveRaw(ctx, conn)
	case TypePacket:
		s.handlePacket(ctx, conn, frame.Payload)
	default:
		conn.sendError(ErrUnknownInstruction)
	}
}

func (s *Server) handleAuthKey(conn *Connection, payload []byte) {
	if s.auth.Check(payload) {
		conn.state = StateAuthenticated
		conn.sendAck(nil)
		return
	}
	s.cfg.metrics.AuthFailure()
	conn.sendError(ErrConnRefused)
	conn.closing = true
}

// handleGetTTY implements §4.3's GETTTY row, including the §6 binding-file
// supplement and the §9 Open Question resolutions: `how` outside {1,2} is
// INVALID_PARAMETER, and a connection that already owns a tty gets
// ILLEGAL_INSTRUCTION rather than one of GETTTY's three listed codes, since
// "owns no tty" is a state precondition rather than a parameter problem.
func (s *Server) handleGetTTY(conn *Connection, payload []byte) {
	if conn.hasTTY {
		conn.sendError(ErrIllegalInstruction)
		return
	}
	if !s.driver.KeySupported() {
		conn.sendError(ErrKeysNotSupp)
		return
	}
	tty, how, client, ok := parseGetTTYPayload(payload)
	if !ok {
		conn.sendError(ErrInvalidPacket)
		conn.closing = true
		return
	}
	if how != uint32(KeyModeCodes) && how != uint32(KeyModeCommands) {
		conn.sendError(ErrInvalidParameter)
		return
	}

	resolved := tty
	if tty == 0 {
		if s.cfg.ttyResolver == nil || conn.peerPID == 0 {
			conn.sendError(ErrInvalidParameter)
			return
		}
		r, err := s.cfg.ttyResolver.ResolveControllingTTY(conn.peerPID)
		if err != nil {
			conn.sendError(ErrInvalidParameter)
			return
		}
		resolved = r
	}

	var bindings map[uint32]string
	if client != "" && s.cfg.bindingsHome != "" {
		b, err := loadBindingFile(s.cfg.bindingsHome, client, s.driver.DriverID())
		if err != nil {
			conn.sendError(ErrInvalidParameter)
			return
		}
		bindings = b
	}

	if !s.registry.Acquire(resolved, conn) {
		conn.sendError(ErrTTYBusy)
		return
	}
	conn.keyMode = KeyMode(how)
	if bindings != nil {
		conn.bindings = bindings
		conn.bindingLoaded = true
	}
	conn.sendAck(nil)
}

func (s *Server) handleLeaveTTY(conn *Connection) {
	if !conn.hasTTY {
		conn.sendError(ErrIllegalInstruction)
		return
	}
	s.registry.Release(conn)
	conn.resetTTYState()
	conn.sendAck(nil)
}

// handleWrite implements WRITE. Per §9's Open Question resolution, WRITE is
// forbidden for every connection — including the RawGate holder itself —
// while any connection holds the RawGate.
func (s *Server) handleWrite(ctx context.Context, conn *Connection, payload []byte) {
	if !conn.hasTTY || s.rawGate.Occupied() {
		conn.sendError(ErrIllegalInstruction)
		return
	}
	cursor, rest, ok := takeU32(payload)
	if !ok {
		conn.sendError(ErrInvalidPacket)
		conn.closing = true
		return
	}
	width, _ := s.driver.DisplaySize()
	cells := padCells(rest, width)
	showCursor := cursor >= 1 && cursor <= uint32(width)
	if err := s.driver.WriteCells(ctx, cells, int(cursor), showCursor); err != nil {
		conn.sendError(ErrOpNotSupp)
		return
	}
	conn.sendAck(nil)
}

func (s *Server) handleWriteDots(ctx context.Context, conn *Connection, payload []byte) {
	if !conn.hasTTY || s.rawGate.Occupied() {
		conn.sendError(ErrIllegalInstruction)
		return
	}
	width, height := s.driver.DisplaySize()
	if len(payload) != width*height {
		conn.sendError(ErrInvalidParameter)
		return
	}
	if err := s.driver.WriteCells(ctx, payload, 0, false); err != nil {
		conn.sendError(ErrOpNotSupp)
		return
	}
	conn.sendAck(nil)
}

func (s *Server) handleStatWrite(ctx context.Context, conn *Connection, payload []byte) {
	if !conn.hasTTY {
		conn.sendError(ErrIllegalInstruction)
		return
	}
	if err := s.driver.WriteStatusCells(ctx, payload); err != nil {
		conn.sendError(ErrOpNotSupp)
		return
	}
	conn.sendAck(nil)
}

// handleMaskKeys implements MASKKEYS (mask=true) and UNMASKKEYS (mask=false).
// The wire payload carries an inclusive [lo, hi] pair (spec §6); IgnoreMask
// stores half-open [lo, hi) ranges (spec §9 redesign note), so hi is widened
// by one at this boundary and nowhere else.
func (s *Server) handleMaskKeys(conn *Connection, payload []byte, mask bool) {
	if !conn.hasTTY {
		conn.sendError(ErrIllegalInstruction)
		return
	}
	lo, rest, ok1 := takeU32(payload)
	hi, _, ok2 := takeU32(rest)
	if !ok1 || !ok2 || lo > hi {
		conn.sendError(ErrInvalidPacket)
		conn.closing = true
		return
	}
	if mask {
		conn.ignoreMask.Add(lo, hi+1)
	} else {
		conn.ignoreMask.Remove(lo, hi+1)
	}
	conn.sendAck(nil)
}

func (s *Server) handleGetRaw(ctx context.Context, conn *Connection, payload []byte) {
	if !conn.hasTTY {
		conn.sendError(ErrIllegalInstruction)
		return
	}
	magic, _, ok := takeU32(payload)
	if !ok {
		conn.sendError(ErrInvalidPacket)
		conn.closing = true
		return
	}
	if magic != GetRawMagic {
		conn.sendError(ErrInvalidParameter)
		return
	}
	if !s.driver.RawSupported() {
		conn.sendError(ErrRawNotSupp)
		return
	}
	if s.rawGate.Occupied() {
		conn.sendError(ErrIllegalInstruction)
		return
	}
	sessionID, ok := s.rawGate.Acquire(conn)
	if !ok {
		conn.sendError(ErrIllegalInstruction)
		return
	}
	conn.log.WithField("raw_session", sessionID.String()).Debug("raw session started")
	if err := s.driver.EnterRaw(ctx); err != nil {
		s.rawGate.Release(conn)
		conn.sendError(ErrOpNotSupp)
		return
	}
	s.cfg.metrics.RawSessionStarted()
	conn.sendAck(nil)
}

func (s *Server) handleLeaveRaw(ctx context.Context, conn *Connection) {
	if s.rawGate.Holder() != conn {
		conn.sendError(ErrIllegalInstruction)
		return
	}
	s.driver.ExitRaw(ctx)
	s.rawGate.Release(conn)
	conn.rawQueue.Reset()
	s.cfg.metrics.RawSessionEnded()
	conn.sendAck(nil)
}

// handlePacket implements PACKET: no reply on success or failure (spec §4.3
// table — PACKET is the one request type with no reply at all).
func (s *Server) handlePacket(ctx context.Context, conn *Connection, payload []byte) {
	if s.rawGate.Holder() != conn {
		return
	}
	if err := s.driver.RawSend(ctx, payload); err != nil {
		conn.log.WithError(err).Warn("raw send failed")
		return
	}
	s.cfg.metrics.BytesSent(len(payload))
}

// padCells truncates or space-pads text to exactly width bytes for WRITE
// (spec §4.3: "string padded/truncated to width").
func padCells(text []byte, width int) []byte {
	if width <= 0 {
		return nil
	}
	out := make([]byte, width)
	n := copy(out, text)
	for ; n < width; n++ {
		out[n] = ' '
	}
	return out
}
