package brlapi

import (
	"bytes"
	"strconv"
)

// parseTTYNrField extracts field 7 (tty_nr) from the contents of a Linux
// /proc/<pid>/stat file. The second field (comm) is parenthesized and may
// itself contain spaces or parentheses, so fields are counted from the last
// ')' rather than by naive whitespace splitting.
func parseTTYNrField(stat []byte) (int64, error) {
	close := bytes.LastIndexByte(stat, ')')
	if close < 0 || close+2 > len(stat) {
		return 0, ErrProcStatParse
	}
	rest := bytes.Fields(stat[close+2:])
	// rest[0] is field 3 (state); tty_nr is field 7, i.e. rest[4].
	const ttyNrOffset = 4
	if len(rest) <= ttyNrOffset {
		return 0, ErrProcStatParse
	}
	return strconv.ParseInt(string(rest[ttyNrOffset]), 10, 64)
}
