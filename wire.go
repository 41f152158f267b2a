package brlapi

import "encoding/binary"

// PacketType identifies the payload carried by a Frame. The wire encodes it
// as a 4-byte big-endian value; only the low byte is ever non-zero, and it
// is always one of the ASCII code points listed in spec §6.
type PacketType uint32

// Packet type codes. Names mirror spec §6's type table.
const (
	TypeAuthKey       PacketType = 'K' // AUTHKEY, C->S
	TypeBye           PacketType = 'B' // BYE, C->S
	TypeGetDriverID   PacketType = 'd' // GETDRIVERID, C<->S
	TypeGetDriverName PacketType = 'n' // GETDRIVERNAME, C<->S
	TypeGetDisplayS   PacketType = 's' // GETDISPLAYSIZE, C<->S
	TypeGetTTY        PacketType = 't' // GETTTY, C->S
	TypeLeaveTTY      PacketType = 'L' // LEAVETTY, C->S
	TypeKey           PacketType = 'k' // KEY, S->C
	TypeCommand       PacketType = 'c' // COMMAND, S->C
	TypeMaskKeys      PacketType = 'm' // MASKKEYS, C->S
	TypeUnmaskKeys    PacketType = 'u' // UNMASKKEYS, C->S
	TypeWrite         PacketType = 'W' // WRITE, C->S
	TypeWriteDots     PacketType = 'D' // WRITEDOTS, C->S
	TypeStatWrite     PacketType = 'S' // STATWRITE, C->S
	TypeGetRaw        PacketType = '*' // GETRAW, C->S
	TypeLeaveRaw      PacketType = '#' // LEAVERAW, C->S
	TypePacket        PacketType = 'p' // PACKET, bidirectional
	TypeAck           PacketType = 'A' // ACK, S->C
	TypeError         PacketType = 'E' // ERROR, S->C
)

// ErrorCode is the wire-level error taxonomy carried in ERROR payloads (spec §7).
type ErrorCode uint32

const (
	ErrNoMem               ErrorCode = 1
	ErrTTYBusy             ErrorCode = 2
	ErrUnknownInstruction  ErrorCode = 3
	ErrIllegalInstruction  ErrorCode = 4
	ErrInvalidParameter    ErrorCode = 5
	ErrInvalidPacket       ErrorCode = 6
	ErrRawNotSupp          ErrorCode = 7
	ErrKeysNotSupp         ErrorCode = 8
	ErrConnRefused         ErrorCode = 9
	ErrOpNotSupp           ErrorCode = 10
)

// KeyMode selects how key events are delivered to a connection that owns a tty.
type KeyMode uint32

const (
	// KeyModeNone means the connection does not receive key events.
	KeyModeNone KeyMode = 0
	// KeyModeCodes delivers raw driver keycodes via TypeKey.
	KeyModeCodes KeyMode = 1
	// KeyModeCommands delivers driver-translated commands via TypeCommand.
	KeyModeCommands KeyMode = 2
)

// GetRawMagic is the required magic value for a GETRAW request (spec §4.3).
const GetRawMagic uint32 = 0xDEADBEEF

// putU32 appends a big-endian uint32 to dst and returns the result.
func putU32(dst []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(dst, b[:]...)
}

// takeU32 reads a big-endian uint32 from the front of b, returning the value
// and the remaining bytes. ok is false if b is too short.
func takeU32(b []byte) (v uint32, rest []byte, ok bool) {
	if len(b) < 4 {
		return 0, b, false
	}
	return binary.BigEndian.Uint32(b[:4]), b[4:], true
}

// encodeErrorPayload encodes an ErrorCode as a 4-byte payload.
func encodeErrorPayload(code ErrorCode) []byte {
	return putU32(nil, uint32(code))
}
