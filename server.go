package brlapi

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/sirupsen/logrus"
)

// Server is the braille-device arbitration daemon: it accepts client
// connections, authenticates them, and arbitrates access to a single Driver
// among them (spec §1-§5).
//
// Re-expressing the source's single-threaded select() loop (spec §9 redesign
// flag #1): one goroutine, run, is the sole mutator of registry, rawGate and
// every Connection's session state. Everything else — socket I/O, driver
// polling — happens on other goroutines that only ever communicate with run
// over channels. No mutex protects shared state because no shared state is
// ever touched from more than one goroutine.
type Server struct {
	cfg    *Config
	driver Driver
	auth   *Authenticator
	log    *logrus.Entry

	ln net.Listener

	registry *Registry
	rawGate  *RawGate
	router   *KeyRouter

	inbound chan connPacket
	events  chan connEvent
	keys    chan KeyEvent
	raw     chan []byte

	done   chan struct{}
	closed chan struct{}
}

// NewServer builds a Server over driver, applying opts to the default
// Config. The auth key is loaded from cfg.keyFilePath eagerly so
// configuration errors surface before Serve is called.
func NewServer(driver Driver, opts ...Option) (*Server, error) {
	cfg := applyConfig(opts)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	authr, err := LoadAuthenticator(cfg.keyFilePath)
	if err != nil {
		return nil, err
	}
	log := logrus.NewEntry(cfg.logger)
	s := &Server{
		cfg:      cfg,
		driver:   driver,
		auth:     authr,
		log:      log,
		registry: NewRegistry(),
		rawGate:  &RawGate{},
		inbound:  make(chan connPacket, cfg.acceptQueueDepth),
		events:   make(chan connEvent, cfg.acceptQueueDepth),
		keys:     make(chan KeyEvent, KeyBufferCapacity),
		raw:      make(chan []byte, RawQueueCapacity),
		done:     make(chan struct{}),
		closed:   make(chan struct{}),
	}
	s.router = NewKeyRouter(s.registry, cfg.fgProber, driver, cfg.metrics, log)
	s.router.setScreenReaderSink(func(ev KeyEvent) {
		log.WithField("keycode", ev.Keycode).Debug("delivered to screen reader")
	})
	return s, nil
}

// ListenAndServe listens on cfg.listenAddr and serves until ctx is canceled
// or Close is called.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.listenAddr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln and runs the actor loop until ctx is
// canceled or Close is called. Serve takes ownership of ln and closes it
// before returning.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.ln = ln
	defer ln.Close()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.acceptLoop(ln)
	go s.driverKeyPump(ctx)
	if s.driver.RawSupported() {
		go s.driverRawPump(ctx)
	}

	s.run(ctx)
	close(s.closed)
	return nil
}

// Close stops the server: the accept loop, the actor loop, and every
// connection's reader/writer goroutines unwind, and Serve returns.
func (s *Server) Close() error {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	if s.ln != nil {
		s.ln.Close()
	}
	<-s.closed
	return nil
}

// acceptLoop accepts connections and hands each to the actor loop as a
// synthetic "new connection" inbound event. Backoff on transient Accept
// errors is paced by AdaptivePoll (Domain Stack note, poll.go) so a burst of
// ephemeral-fd exhaustion cannot spin the loop.
func (s *Server) acceptLoop(ln net.Listener) {
	poll := NewAdaptivePoll(5*time.Millisecond, 500*time.Millisecond)
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				poll.Sleep()
				continue
			}
			s.log.WithError(err).Warn("accept failed")
			return
		}
		poll.Reset()
		s.newConnection(conn)
	}
}

// newConnection wires up a freshly accepted socket: a Connection, its
// reader and writer goroutines, and a registration packet sent to the actor
// loop over inbound so connection bookkeeping happens on the single actor
// goroutine like everything else.
func (s *Server) newConnection(sock net.Conn) {
	conn := newConnection(sock, s.log, s.cfg.outboxCapacity)
	if pid, ok := peerPID(sock); ok {
		conn.peerPID = pid
	}
	go readLoop(conn, s.inbound, s.events, s.done)
	go writeLoop(conn, s.events, s.done)
	select {
	case s.inbound <- connPacket{conn: conn, frame: Frame{Type: connRegisterType}}:
	case <-s.done:
	}
}

// connRegisterType is a sentinel PacketType, never sent on the wire, used to
// tag the synthetic "register this new connection" packet newConnection
// injects into the actor loop's inbound stream.
const connRegisterType PacketType = 0

// driverKeyPump polls driver.ReadKey and forwards events to the actor loop.
// It backs off with AdaptivePoll when the driver reports no pending key,
// since most Driver implementations expose polling rather than blocking
// reads.
func (s *Server) driverKeyPump(ctx context.Context) {
	poll := NewAdaptivePoll(time.Millisecond, 20*time.Millisecond)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		default:
		}
		ev, ok, err := s.driver.ReadKey(ctx)
		if err != nil {
			s.log.WithError(err).Warn("driver ReadKey failed")
			poll.Sleep()
			continue
		}
		if !ok {
			poll.Sleep()
			continue
		}
		poll.Reset()
		select {
		case s.keys <- ev:
		case <-s.done:
			return
		}
	}
}

// driverRawPump polls driver.RawRecv and forwards chunks to the actor loop.
// Only started when the driver reports raw support.
func (s *Server) driverRawPump(ctx context.Context) {
	poll := NewAdaptivePoll(time.Millisecond, 20*time.Millisecond)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		default:
		}
		chunk, ok, err := s.driver.RawRecv(ctx)
		if err != nil {
			s.log.WithError(err).Warn("driver RawRecv failed")
			poll.Sleep()
			continue
		}
		if !ok {
			poll.Sleep()
			continue
		}
		poll.Reset()
		select {
		case s.raw <- chunk:
		case <-s.done:
			return
		}
	}
}

// run is the single actor goroutine: the only code in the process that ever
// reads or writes registry, rawGate, or a Connection's session fields.
func (s *Server) run(ctx context.Context) {
	conns := make(map[*Connection]struct{})
	reap := time.NewTicker(s.cfg.idleReapInterval)
	defer reap.Stop()

	for {
		select {
		case <-ctx.Done():
			s.shutdown(conns)
			return
		case <-s.done:
			s.shutdown(conns)
			return

		case pkt := <-s.inbound:
			if pkt.frame.Type == connRegisterType {
				conns[pkt.conn] = struct{}{}
				s.cfg.metrics.ConnectionOpened()
				continue
			}
			if _, known := conns[pkt.conn]; !known {
				continue
			}
			s.cfg.metrics.BytesReceived(len(pkt.frame.Payload) + FrameHeaderSize)
			s.dispatch(ctx, pkt.conn, pkt.frame)
			if pkt.conn.closing {
				s.teardown(pkt.conn, conns)
			}

		case ev := <-s.events:
			if _, known := conns[ev.conn]; !known {
				continue
			}
			// A malformed frame gets ERROR(INVALID_PACKET) before the
			// connection closes (spec §7/§8 scenario 6); a clean EOF or a
			// plain socket error does not, since there is no peer left to
			// usefully receive it.
			if isFramingError(ev.err) {
				ev.conn.sendError(ErrInvalidPacket)
			}
			s.teardown(ev.conn, conns)

		case ev := <-s.keys:
			// spec §4.5 edge case: while any connection holds the RawGate,
			// the Key Router is suspended for this driver — keystrokes
			// reach the holder exclusively through the raw channel.
			if !s.rawGate.Occupied() {
				if owner, result := s.router.Route(ev); result == RouteToConnection {
					s.deliverBufferedKeys(owner)
				}
			}

		case chunk := <-s.raw:
			holder := s.rawGate.Holder()
			if holder == nil {
				continue
			}
			if dropped := !holder.rawQueue.Push(chunk); dropped {
				s.log.WithField("conn", holder.ID()).Warn("raw queue overflow, terminating session")
				holder.sendError(ErrNoMem)
				s.teardown(holder, conns)
				continue
			}
			for {
				c, ok := holder.rawQueue.Pop()
				if !ok {
					break
				}
				holder.send(Frame{Type: TypePacket, Payload: c})
			}

		case <-reap.C:
			for c := range conns {
				if c.closing {
					s.teardown(c, conns)
				}
			}
		}
	}
}

// teardown releases every resource a connection held and closes its outbox,
// letting its writer goroutine exit. It is idempotent: calling it twice for
// the same connection (e.g. both a read error and a later reap tick) is safe.
func (s *Server) teardown(conn *Connection, conns map[*Connection]struct{}) {
	if _, known := conns[conn]; !known {
		return
	}
	delete(conns, conn)
	s.registry.Release(conn)
	if s.rawGate.Release(conn) {
		s.driver.ExitRaw(context.Background())
		s.cfg.metrics.RawSessionEnded()
	}
	conn.state = StateClosing
	// Closing the outbox (rather than the socket) lets the writer goroutine
	// flush whatever was already queued — e.g. the ERROR reply sendError
	// just enqueued — before it closes the socket itself and exits.
	close(conn.outbox)
	s.cfg.metrics.ConnectionClosed()
}

// deliverBufferedKeys drains owner's key buffer onto its socket, framing
// each keycode as KEY or COMMAND depending on the mode GETTTY was called
// with (spec §4.3, §4.5 step 5). Route has already pushed the event that
// triggered this call, so there is always at least one entry to drain.
func (s *Server) deliverBufferedKeys(owner *Connection) {
	typ := TypeKey
	if owner.keyMode == KeyModeCommands {
		typ = TypeCommand
	}
	for {
		keycode, ok := owner.keyBuffer.Pop()
		if !ok {
			break
		}
		owner.send(Frame{Type: typ, Payload: putU32(nil, keycode)})
	}
}

func (s *Server) shutdown(conns map[*Connection]struct{}) {
	for c := range conns {
		s.teardown(c, conns)
	}
}

// peerPID resolves the pid of the process on the other end of sock, when the
// platform and socket type support it. It returns ok=false when unavailable
// (e.g. a non-Unix-domain TCP peer, or an unsupported platform); a GETTTY
// for tty_id == 0 is then answered with INVALID_PARAMETER (spec §4.4).
func peerPID(conn net.Conn) (int, bool) {
	type peerCreder interface {
		PeerCredPID() (int, error)
	}
	if pc, ok := conn.(peerCreder); ok {
		pid, err := pc.PeerCredPID()
		if err == nil {
			return pid, true
		}
	}
	return 0, false
}

// isFramingError reports whether err indicates a malformed frame (as
// opposed to a clean disconnect or a transport-level failure), per spec
// §7's propagation policy: only a malformed frame gets an ERROR(INVALID_PACKET)
// reply before the connection closes.
func isFramingError(err error) bool {
	return errors.Is(err, ErrOversizePacket) || errors.Is(err, io.ErrUnexpectedEOF)
}
