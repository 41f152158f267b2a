package brlapi

import (
	"errors"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultListenAddr is the default TCP listen address (spec §6: default
	// port 35751).
	DefaultListenAddr = ":35751"
	// DefaultKeyFilePath is the default shared-secret key file location (spec §6).
	DefaultKeyFilePath = "/etc/brltty/brlapi-key"
	// DefaultOutboxCapacity bounds each connection's outbound frame queue.
	// Sized above KeyBufferCapacity so a full key buffer can always be
	// flushed into the queue without the queue itself becoming the
	// bottleneck; control replies (ACK/ERROR) share the same queue.
	DefaultOutboxCapacity = KeyBufferCapacity + 32
	// DefaultAcceptQueueDepth is the backlog the actor tolerates for
	// not-yet-dispatched inbound packets across all connections.
	DefaultAcceptQueueDepth = 64
	// DefaultIdleReapInterval is how often the server loop reaps connections
	// whose reader/writer goroutines have reported closure.
	DefaultIdleReapInterval = 2 * time.Second
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("brlapi: invalid configuration")

// Option configures a Server at construction using the functional-options
// pattern.
type Option func(*Config)

// Config holds Server runtime settings. Defaults come from defaultConfig()
// (a zero Config fails Validate); users modify it through functional options
// passed to NewServer.
type Config struct {
	listenAddr   string
	keyFilePath  string
	bindingsHome string

	outboxCapacity   int
	acceptQueueDepth int
	idleReapInterval time.Duration

	metrics Metrics
	logger  *logrus.Logger

	ttyResolver TTYResolver
	fgProber    ForegroundTTYProber
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.listenAddr == "" {
		return ErrInvalidConfig
	}
	if c.outboxCapacity <= 0 || c.acceptQueueDepth <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

func defaultConfig() *Config {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return &Config{
		listenAddr:       DefaultListenAddr,
		keyFilePath:      DefaultKeyFilePath,
		bindingsHome:     "",
		outboxCapacity:   DefaultOutboxCapacity,
		acceptQueueDepth: DefaultAcceptQueueDepth,
		idleReapInterval: DefaultIdleReapInterval,
		metrics:          noopMetrics{},
		logger:           logger,
		ttyResolver:      NewLinuxTTYResolver(),
		fgProber:         NewLinuxTTYResolver(),
	}
}

func applyConfig(opts []Option) *Config {
	cfg := defaultConfig()
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

// WithListenAddr overrides the TCP address the server listens on.
func WithListenAddr(addr string) Option {
	return func(c *Config) {
		if addr != "" {
			c.listenAddr = addr
		}
	}
}

// WithKeyFilePath overrides the shared-secret key file location.
func WithKeyFilePath(path string) Option {
	return func(c *Config) {
		if path != "" {
			c.keyFilePath = path
		}
	}
}

// WithBindingsHome overrides the directory under which
// <BindingsDirName>/<client>-<driverID>.kbd files are resolved (spec §6).
// An empty value (the default) disables binding files: GETTTY then ignores
// any client name in its payload.
func WithBindingsHome(dir string) Option {
	return func(c *Config) {
		c.bindingsHome = dir
	}
}

// WithMetrics sets the Metrics implementation. If not provided, metrics
// calls are no-ops.
func WithMetrics(m Metrics) Option {
	return func(c *Config) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithLogger sets the logrus.Logger used for all server log output.
func WithLogger(l *logrus.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTTYResolver overrides the tty_id == 0 resolver (spec §4.4).
func WithTTYResolver(r TTYResolver) Option {
	return func(c *Config) {
		if r != nil {
			c.ttyResolver = r
		}
	}
}

// WithForegroundProber overrides the foreground-tty probe used by the key
// router (spec §4.5 step 1).
func WithForegroundProber(p ForegroundTTYProber) Option {
	return func(c *Config) {
		if p != nil {
			c.fgProber = p
		}
	}
}

// WithOutboxCapacity overrides the per-connection outbound queue size.
func WithOutboxCapacity(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.outboxCapacity = n
		}
	}
}

// WithIdleReapInterval overrides how often closed connections are reaped.
func WithIdleReapInterval(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.idleReapInterval = d
		}
	}
}
