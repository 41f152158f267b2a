package brlapi

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAuthenticatorCheck(t *testing.T) {
	a := NewAuthenticator([]byte{0x01, 0x02, 0x03})

	if !a.Check([]byte{0x01, 0x02, 0x03}) {
		t.Fatal("Check() on matching key returned false")
	}
	if a.Check([]byte{0x01, 0x02}) {
		t.Fatal("Check() on short candidate returned true")
	}
	if a.Check([]byte{0x01, 0x02, 0x04}) {
		t.Fatal("Check() on wrong byte returned true")
	}
	if a.Check(nil) {
		t.Fatal("Check(nil) against a non-empty key returned true")
	}
}

func TestAuthenticatorEmptyKey(t *testing.T) {
	a := NewAuthenticator(nil)
	if !a.Check(nil) {
		t.Fatal("Check(nil) against an empty key returned false")
	}
}

func TestLoadAuthenticator(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "brlapi-key")
	if err := os.WriteFile(path, []byte{0xAA, 0xBB}, 0600); err != nil {
		t.Fatal(err)
	}

	a, err := LoadAuthenticator(path)
	if err != nil {
		t.Fatalf("LoadAuthenticator: %v", err)
	}
	if !a.Check([]byte{0xAA, 0xBB}) {
		t.Fatal("loaded key does not match file contents")
	}
}

func TestLoadAuthenticatorTooLarge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "brlapi-key")
	if err := os.WriteFile(path, make([]byte, MaxKeySize+1), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadAuthenticator(path)
	if !errors.Is(err, ErrKeyFileTooLarge) {
		t.Fatalf("LoadAuthenticator error = %v, want ErrKeyFileTooLarge", err)
	}
}
