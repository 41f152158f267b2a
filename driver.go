package brlapi

import "context"

// KeyEvent is a single keystroke produced by the driver (spec §3).
type KeyEvent struct {
	Keycode uint32
}

// Driver is the capability interface through which the server talks to the
// braille hardware. It is the re-expression, per spec §9, of the source's
// ad-hoc global driver handle and function-pointer dispatch table: a single
// interface, implemented once per hardware variant, passed in explicitly at
// construction rather than reached for through process-global state.
//
// The driver itself is out of scope (spec §1); this interface is the
// contract the server subsystem consumes. Implementations must be safe for
// concurrent use: the server's actor goroutine makes most calls, while
// ReadKey and RawRecv are polled from separate pump goroutines at the same
// time. Raw mode additionally grants the RawGate holder exclusive use of
// RawSend via the server loop (never directly).
type Driver interface {
	// WriteCells renders cells (already padded/truncated to DisplaySize's
	// width) to the main display. showCursor indicates whether a cursor
	// marker should be shown at cursorPos (0 means hidden).
	WriteCells(ctx context.Context, cells []byte, cursorPos int, showCursor bool) error
	// WriteStatusCells renders raw status-cell bytes (STATWRITE, spec §4.3).
	WriteStatusCells(ctx context.Context, cells []byte) error
	// ReadKey returns the next available keystroke, or ok=false if none is
	// pending. The server loop polls this on its driver key-reader goroutine.
	ReadKey(ctx context.Context) (event KeyEvent, ok bool, err error)
	// TranslateCommand maps a raw keycode to a driver-specific command code
	// for a connection in KeyModeCommands. ok is false if the driver has no
	// mapping for keycode, in which case the event is dropped (spec §4.5).
	TranslateCommand(keycode uint32) (command uint32, ok bool)
	// KeySupported reports whether the driver can deliver key events at
	// all. GETTTY rejects with KEYSNOTSUPP when it doesn't (spec §4.3).
	KeySupported() bool
	// RawSupported reports whether the driver exposes a raw byte channel.
	RawSupported() bool
	// RawSend forwards bytes to the driver while a connection holds the
	// RawGate (PACKET, spec §4.3).
	RawSend(ctx context.Context, data []byte) error
	// RawRecv returns the next chunk received on the raw channel, or
	// ok=false if none is pending.
	RawRecv(ctx context.Context) (chunk []byte, ok bool, err error)
	// EnterRaw and ExitRaw bracket a raw session so the driver can suspend
	// its normal cell/command processing.
	EnterRaw(ctx context.Context) error
	ExitRaw(ctx context.Context) error
	// DisplaySize returns the (width, height) of the main display in cells.
	DisplaySize() (width, height int)
	// DriverID returns the driver's 2-byte wire identifier (GETDRIVERID).
	DriverID() [2]byte
	// DriverName returns the driver's human-readable name (GETDRIVERNAME).
	DriverName() string
}

// TTYResolver resolves the tty_id == 0 sentinel ("the controlling tty of the
// peer process") to a concrete tty number, per spec §4.4. peerPID is the
// credential of the connecting process, obtained from the socket (e.g. via
// SO_PEERCRED on Linux).
type TTYResolver interface {
	ResolveControllingTTY(peerPID int) (tty uint32, err error)
}

// ForegroundTTYProber reports which tty currently has console focus, per
// spec §4.5 step 1 ("polled via an OS-specific probe").
type ForegroundTTYProber interface {
	ForegroundTTY() (tty uint32, err error)
}
