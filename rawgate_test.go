package brlapi

import (
	"testing"

	"github.com/google/uuid"
)

// TestRawGateExclusive is P2: at most one connection holds the gate.
func TestRawGateExclusive(t *testing.T) {
	var g RawGate
	a := &Connection{}
	b := &Connection{}

	sid, ok := g.Acquire(a)
	if !ok {
		t.Fatal("first Acquire failed")
	}
	if sid == uuid.Nil {
		t.Fatal("Acquire returned a zero session id")
	}
	if !a.inRawMode {
		t.Fatal("a.inRawMode = false after Acquire")
	}

	if _, ok := g.Acquire(b); ok {
		t.Fatal("second Acquire unexpectedly succeeded")
	}
	if b.inRawMode {
		t.Fatal("b.inRawMode = true after failed Acquire")
	}
}

func TestRawGateReleaseOnlyByHolder(t *testing.T) {
	var g RawGate
	a := &Connection{}
	b := &Connection{}
	g.Acquire(a)

	if ok := g.Release(b); ok {
		t.Fatal("Release by non-holder unexpectedly succeeded")
	}
	if !g.Occupied() {
		t.Fatal("gate freed by non-holder Release")
	}

	if ok := g.Release(a); !ok {
		t.Fatal("Release by holder failed")
	}
	if g.Occupied() {
		t.Fatal("gate still occupied after holder Release")
	}
	if a.inRawMode {
		t.Fatal("a.inRawMode = true after Release")
	}
}

func TestRawGateSessionIDsDiffer(t *testing.T) {
	var g RawGate
	a := &Connection{}
	sid1, _ := g.Acquire(a)
	g.Release(a)
	sid2, _ := g.Acquire(a)
	if sid1 == sid2 {
		t.Fatal("two raw sessions were assigned the same correlation id")
	}
}
