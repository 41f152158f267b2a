package brlapi

import "errors"

// Internal failure sentinels. These are distinct from ErrorCode (wire.go),
// which is the wire-level taxonomy reported to clients. Handlers translate
// between the two at the dispatch boundary.
var (
	// ErrKeyFileTooLarge is returned when the on-disk auth key exceeds the
	// maximum payload size a client could ever present.
	ErrKeyFileTooLarge = errors.New("brlapi: key file exceeds maximum payload size")
	// ErrOversizePacket is returned by ReadPacket when the declared length
	// exceeds MaxPayloadSize.
	ErrOversizePacket = errors.New("brlapi: oversize packet")
	// ErrShortWrite is returned when a partial frame write cannot be completed.
	ErrShortWrite = errors.New("brlapi: short write")
	// ErrBindingParse is returned when a per-client key binding file is malformed.
	ErrBindingParse = errors.New("brlapi: malformed key binding file")
	// ErrProcStatParse is returned when /proc/<pid>/stat cannot be parsed
	// for its tty_nr field.
	ErrProcStatParse = errors.New("brlapi: malformed /proc/<pid>/stat")
	// ErrNoForegroundProbe names the condition of a server with no
	// ForegroundTTYProber. No function in this package returns it.
	ErrNoForegroundProbe = errors.New("brlapi: no foreground tty prober configured")
	// ErrNoTTYResolver names the condition of tty 0 needing resolution with
	// no TTYResolver configured. No function in this package returns it;
	// GETTTY reports that case to the client as INVALID_PARAMETER.
	ErrNoTTYResolver = errors.New("brlapi: no tty resolver configured")
	// ErrServerClosed names the condition of a closed Server. No function in
	// this package returns it; Serve and ListenAndServe return nil after Close.
	ErrServerClosed = errors.New("brlapi: server closed")
	// ErrConnectionClosing names the condition of a connection that is
	// already tearing down. No function in this package returns it.
	ErrConnectionClosing = errors.New("brlapi: connection is closing")
)
