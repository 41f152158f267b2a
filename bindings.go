package brlapi

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// BindingsDirName is the directory, under the user's home, holding
// per-client key binding files (spec §6).
const BindingsDirName = ".brlkeys"

// loadBindingFile parses a keycode -> symbolic name map from a binding file
// at $HOME/<BindingsDirName>/<client>-<driverID>.kbd (spec §6).
//
// File format: one binding per non-blank, non-comment ('#') line, each
// "<keycode> <name>", keycode in decimal or 0x-prefixed hex.
func loadBindingFile(homeDir, client string, driverID [2]byte) (map[uint32]string, error) {
	path := filepath.Join(homeDir, BindingsDirName, fmt.Sprintf("%s-%02x%02x.kbd", client, driverID[0], driverID[1]))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("brlapi: open binding file %s: %w", path, err)
	}
	defer f.Close()

	out := make(map[uint32]string)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: %s:%d", ErrBindingParse, path, lineNo)
		}
		keycode, err := strconv.ParseUint(fields[0], 0, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %s:%d: %v", ErrBindingParse, path, lineNo, err)
		}
		out[uint32(keycode)] = fields[1]
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("brlapi: read binding file %s: %w", path, err)
	}
	return out, nil
}

// parseGetTTYPayload splits a GETTTY payload into its mandatory (tty, how)
// fields and an optional trailing client-name hint used to resolve a key
// binding file (spec §6 supplement: "loaded lazily on GETTTY when a binding
// spec is present in the request").
func parseGetTTYPayload(payload []byte) (tty, how uint32, client string, ok bool) {
	tty, rest, ok1 := takeU32(payload)
	how, rest, ok2 := takeU32(rest)
	if !ok1 || !ok2 {
		return 0, 0, "", false
	}
	client = string(bytes.TrimRight(rest, "\x00"))
	return tty, how, client, true
}
