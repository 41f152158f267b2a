package brlapi

import "testing"

type fakeProber struct {
	tty uint32
	err error
}

func (f fakeProber) ForegroundTTY() (uint32, error) { return f.tty, f.err }

type fakeRouterDriver struct {
	StubDriver
	mapping map[uint32]uint32
}

func newFakeRouterDriver() *fakeRouterDriver {
	return &fakeRouterDriver{mapping: make(map[uint32]uint32)}
}

func (d *fakeRouterDriver) TranslateCommand(keycode uint32) (uint32, bool) {
	cmd, ok := d.mapping[keycode]
	return cmd, ok
}

func newTestConnection() *Connection {
	return &Connection{outbox: make(chan Frame, 8)}
}

func TestKeyRouterNoOwnerGoesToScreenReader(t *testing.T) {
	reg := NewRegistry()
	var delivered []KeyEvent
	r := NewKeyRouter(reg, fakeProber{tty: 1}, newFakeRouterDriver(), nil, nil)
	r.setScreenReaderSink(func(ev KeyEvent) { delivered = append(delivered, ev) })

	owner, result := r.Route(KeyEvent{Keycode: 0x41})
	if owner != nil || result != RouteToScreenReader {
		t.Fatalf("Route() = %v, %v, want nil, RouteToScreenReader", owner, result)
	}
	if len(delivered) != 1 || delivered[0].Keycode != 0x41 {
		t.Fatalf("delivered = %v, want [{0x41}]", delivered)
	}
}

// TestKeyRouterMaskedGoesToScreenReader is spec §8 scenario 5: a masked
// keycode is delivered to the screen reader, not silently dropped.
func TestKeyRouterMaskedGoesToScreenReader(t *testing.T) {
	reg := NewRegistry()
	owner := newTestConnection()
	reg.Acquire(1, owner)
	owner.keyMode = KeyModeCodes
	owner.ignoreMask.Add(0x10, 0x20)

	var delivered []KeyEvent
	r := NewKeyRouter(reg, fakeProber{tty: 1}, newFakeRouterDriver(), nil, nil)
	r.setScreenReaderSink(func(ev KeyEvent) { delivered = append(delivered, ev) })

	got, result := r.Route(KeyEvent{Keycode: 0x15})
	if got != owner || result != RouteDroppedMasked {
		t.Fatalf("Route() = %v, %v, want owner, RouteDroppedMasked", got, result)
	}
	if len(delivered) != 1 || delivered[0].Keycode != 0x15 {
		t.Fatalf("delivered = %v, want [{0x15}]", delivered)
	}
	if owner.keyBuffer.Len() != 0 {
		t.Fatal("masked key was pushed into owner's key buffer")
	}
}

// TestKeyRouterScenario5 reproduces spec §8 scenario 5 end to end: with
// MASKKEYS{0x10,0x1F} active, keycodes 0x05, 0x15, 0x20 arrive and the
// owner's buffer ends up with exactly {0x05, 0x20} in that order.
func TestKeyRouterScenario5(t *testing.T) {
	reg := NewRegistry()
	owner := newTestConnection()
	reg.Acquire(1, owner)
	owner.keyMode = KeyModeCodes
	owner.ignoreMask.Add(0x10, 0x20) // MASKKEYS lo=0x10 hi=0x1F -> half-open [0x10,0x20)

	r := NewKeyRouter(reg, fakeProber{tty: 1}, newFakeRouterDriver(), nil, nil)

	for _, kc := range []uint32{0x05, 0x15, 0x20} {
		r.Route(KeyEvent{Keycode: kc})
	}

	want := []uint32{0x05, 0x20}
	for _, w := range want {
		got, ok := owner.keyBuffer.Pop()
		if !ok || got != w {
			t.Fatalf("Pop() = %#x, %v, want %#x, true", got, ok, w)
		}
	}
	if owner.keyBuffer.Len() != 0 {
		t.Fatalf("keyBuffer.Len() = %d, want 0", owner.keyBuffer.Len())
	}
}

func TestKeyRouterCommandTranslation(t *testing.T) {
	reg := NewRegistry()
	owner := newTestConnection()
	reg.Acquire(1, owner)
	owner.keyMode = KeyModeCommands

	driver := newFakeRouterDriver()
	driver.mapping[0x01] = 0xC0

	r := NewKeyRouter(reg, fakeProber{tty: 1}, driver, nil, nil)
	got, result := r.Route(KeyEvent{Keycode: 0x01})
	if got != owner || result != RouteToConnection {
		t.Fatalf("Route() = %v, %v, want owner, RouteToConnection", got, result)
	}
	code, ok := owner.keyBuffer.Pop()
	if !ok || code != 0xC0 {
		t.Fatalf("buffered code = %#x, %v, want 0xC0, true", code, ok)
	}
}

func TestKeyRouterDropsUnmappedCommand(t *testing.T) {
	reg := NewRegistry()
	owner := newTestConnection()
	reg.Acquire(1, owner)
	owner.keyMode = KeyModeCommands

	r := NewKeyRouter(reg, fakeProber{tty: 1}, newFakeRouterDriver(), nil, nil)
	_, result := r.Route(KeyEvent{Keycode: 0x99})
	if result != RouteDroppedNoMapping {
		t.Fatalf("Route() result = %v, want RouteDroppedNoMapping", result)
	}
	if owner.keyBuffer.Len() != 0 {
		t.Fatal("unmapped command was buffered")
	}
}
