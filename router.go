package brlapi

// KeyRouter routes each KeyEvent produced by the driver to exactly one
// destination: the connection owning the current foreground tty, or the
// screen reader fallback (spec §4.5).
type KeyRouter struct {
	registry       *Registry
	fgProber       ForegroundTTYProber
	driver         Driver
	metrics        Metrics
	log            logger
	toScreenReader func(KeyEvent)
}

// logger is the minimal subset of *logrus.Entry the router needs, kept as
// an interface so tests can supply a stub without pulling in logrus.
type logger interface {
	Warnf(format string, args ...any)
}

// RouteResult reports where a KeyEvent ended up, for tests and logging.
type RouteResult int

const (
	RouteToScreenReader RouteResult = iota
	RouteToConnection
	RouteDroppedMasked
	RouteDroppedNoMapping
	RouteDroppedOverflow
)

// NewKeyRouter builds a KeyRouter over registry, using prober to find the
// foreground tty and driver to translate keycodes for KeyModeCommands
// connections.
func NewKeyRouter(registry *Registry, prober ForegroundTTYProber, driver Driver, metrics Metrics, log logger) *KeyRouter {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &KeyRouter{registry: registry, fgProber: prober, driver: driver, metrics: metrics, log: log}
}

// setScreenReaderSink installs the sink invoked whenever an event is routed
// to the screen reader fallback (no owner, or masked out by the owner). A
// nil sink (the default) means the event is simply not delivered anywhere —
// the screen reader engine itself is out of scope (spec §1).
func (r *KeyRouter) setScreenReaderSink(fn func(KeyEvent)) {
	r.toScreenReader = fn
}

// Route implements spec §4.5 steps 1-5. It returns which connection (if
// any) the event was queued to, and the outcome. A masked keycode is routed
// to the screen reader, exactly as an unowned foreground tty is — it is not
// dropped.
func (r *KeyRouter) Route(ev KeyEvent) (owner *Connection, result RouteResult) {
	fgTTY, err := r.fgProber.ForegroundTTY()
	if err != nil {
		if r.log != nil {
			r.log.Warnf("foreground tty probe failed: %v", err)
		}
		r.deliverToScreenReader(ev)
		return nil, RouteToScreenReader
	}

	owner, ok := r.registry.Lookup(fgTTY)
	if !ok {
		r.deliverToScreenReader(ev)
		return nil, RouteToScreenReader
	}

	if owner.ignoreMask.Contains(ev.Keycode) {
		r.deliverToScreenReader(ev)
		return owner, RouteDroppedMasked
	}

	keycode := ev.Keycode
	if owner.keyMode == KeyModeCommands {
		cmd, mapped := r.driver.TranslateCommand(keycode)
		if !mapped {
			if r.log != nil {
				r.log.Warnf("no command mapping for keycode %#x, event dropped", keycode)
			}
			r.metrics.KeyDropped()
			return owner, RouteDroppedNoMapping
		}
		keycode = cmd
	}

	if dropped := owner.keyBuffer.Push(keycode); dropped {
		if r.log != nil {
			r.log.Warnf("key buffer overflow for connection %s, oldest entry dropped", owner.ID())
		}
		r.metrics.KeyDropped()
		return owner, RouteDroppedOverflow
	}

	r.metrics.KeyRouted()
	return owner, RouteToConnection
}

func (r *KeyRouter) deliverToScreenReader(ev KeyEvent) {
	r.metrics.KeyRouted()
	if r.toScreenReader != nil {
		r.toScreenReader(ev)
	}
}
