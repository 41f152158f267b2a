package brlapi

import (
	"errors"
	"testing"
)

func TestParseTTYNrField(t *testing.T) {
	// A stat line whose comm field contains a space and a closing paren, to
	// exercise the last-')' split.
	stat := []byte("1234 (my prog)) S 1 1234 1234 34817 1234 4194560 ...")
	got, err := parseTTYNrField(stat)
	if err != nil {
		t.Fatalf("parseTTYNrField: %v", err)
	}
	if got != 34817 {
		t.Fatalf("parseTTYNrField = %d, want 34817", got)
	}
}

func TestParseTTYNrFieldMalformed(t *testing.T) {
	_, err := parseTTYNrField([]byte("no closing paren here"))
	if !errors.Is(err, ErrProcStatParse) {
		t.Fatalf("parseTTYNrField error = %v, want ErrProcStatParse", err)
	}
}

func TestParseTTYNrFieldTooShort(t *testing.T) {
	_, err := parseTTYNrField([]byte("1 (a) S 1 1"))
	if !errors.Is(err, ErrProcStatParse) {
		t.Fatalf("parseTTYNrField error = %v, want ErrProcStatParse", err)
	}
}
