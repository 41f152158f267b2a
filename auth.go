package brlapi

import (
	"crypto/subtle"
	"fmt"
	"os"
)

// MaxKeySize is the largest auth key this server will load or accept: the
// key travels as an AUTHKEY payload, so it is bound by MaxPayloadSize (spec §6).
const MaxKeySize = MaxPayloadSize

// Authenticator holds the server's shared secret and checks client-supplied
// keys against it (spec §4.2).
type Authenticator struct {
	key []byte
}

// LoadAuthenticator reads the shared-secret key file at path. The default
// path, per spec §6, is /etc/brltty/brlapi-key.
func LoadAuthenticator(path string) (*Authenticator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("brlapi: load key file %s: %w", path, err)
	}
	if len(data) > MaxKeySize {
		return nil, fmt.Errorf("brlapi: key file %s: %w", path, ErrKeyFileTooLarge)
	}
	return &Authenticator{key: data}, nil
}

// NewAuthenticator builds an Authenticator directly from key bytes (used by
// tests and by callers that source the key from somewhere other than a file).
func NewAuthenticator(key []byte) *Authenticator {
	return &Authenticator{key: append([]byte(nil), key...)}
}

// Check compares candidate against the server's key. Mismatched length is
// an immediate refusal (spec §4.2); equal-length buffers are compared in
// constant time. Timing-safe comparison is recommended by spec but not
// required by any compatibility consumer — subtle.ConstantTimeCompare costs
// nothing to use correctly, so it is used unconditionally.
func (a *Authenticator) Check(candidate []byte) bool {
	if len(candidate) != len(a.key) {
		return false
	}
	return subtle.ConstantTimeCompare(candidate, a.key) == 1
}
