package brlapi

import (
	"context"
	"sync"
)

// StubDriver is a Driver implementation with no underlying hardware: writes
// are recorded rather than rendered, ReadKey/RawRecv never produce events
// unless fed via PushKey/PushRaw, and raw mode is a bookkeeping no-op. The
// real hardware driver layer is out of scope (spec §1); this is the
// minimal, always-present Driver cmd/brlapid constructs when no other
// driver is wired in, and doubles as the fake used by the test suite.
type StubDriver struct {
	id     [2]byte
	name   string
	width  int
	height int
	raw    bool
	keyOK  bool

	mu         sync.Mutex
	lastCells  []byte
	lastStatus []byte
	keys       []KeyEvent
	rawChunks  [][]byte
	inRaw      bool
	commands   map[uint32]uint32
}

// NewStubDriver builds a StubDriver advertising the given display size and
// a 2-byte id/name, with raw support enabled.
func NewStubDriver(id [2]byte, name string, width, height int) *StubDriver {
	return &StubDriver{
		id:       id,
		name:     name,
		width:    width,
		height:   height,
		raw:      true,
		keyOK:    true,
		commands: make(map[uint32]uint32),
	}
}

// SetKeySupported toggles whether the driver reports key support, for
// tests exercising the GETTTY KEYSNOTSUPP path.
func (d *StubDriver) SetKeySupported(supported bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.keyOK = supported
}

// PushKey queues a KeyEvent for the next ReadKey call, simulating a hardware
// keystroke.
func (d *StubDriver) PushKey(ev KeyEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.keys = append(d.keys, ev)
}

// PushRaw queues a byte chunk for the next RawRecv call.
func (d *StubDriver) PushRaw(chunk []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rawChunks = append(d.rawChunks, chunk)
}

// SetCommandMapping installs keycode -> command translations consulted by
// TranslateCommand.
func (d *StubDriver) SetCommandMapping(m map[uint32]uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.commands = m
}

// LastCells returns the most recent payload passed to WriteCells, for tests.
func (d *StubDriver) LastCells() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.lastCells...)
}

func (d *StubDriver) WriteCells(ctx context.Context, cells []byte, cursorPos int, showCursor bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastCells = append([]byte(nil), cells...)
	return nil
}

func (d *StubDriver) WriteStatusCells(ctx context.Context, cells []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastStatus = append([]byte(nil), cells...)
	return nil
}

func (d *StubDriver) ReadKey(ctx context.Context) (KeyEvent, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.keys) == 0 {
		return KeyEvent{}, false, nil
	}
	ev := d.keys[0]
	d.keys = d.keys[1:]
	return ev, true, nil
}

func (d *StubDriver) TranslateCommand(keycode uint32) (uint32, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cmd, ok := d.commands[keycode]
	return cmd, ok
}

func (d *StubDriver) RawSupported() bool { return d.raw }

func (d *StubDriver) KeySupported() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.keyOK
}

func (d *StubDriver) RawSend(ctx context.Context, data []byte) error {
	return nil
}

func (d *StubDriver) RawRecv(ctx context.Context) ([]byte, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.rawChunks) == 0 {
		return nil, false, nil
	}
	chunk := d.rawChunks[0]
	d.rawChunks = d.rawChunks[1:]
	return chunk, true, nil
}

func (d *StubDriver) EnterRaw(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inRaw = true
	return nil
}

func (d *StubDriver) ExitRaw(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inRaw = false
	return nil
}

func (d *StubDriver) DisplaySize() (int, int) { return d.width, d.height }
func (d *StubDriver) DriverID() [2]byte       { return d.id }
func (d *StubDriver) DriverName() string      { return d.name }
