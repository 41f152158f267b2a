package brlapi

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

// TestFrameRoundTrip is P7: read_packet(write_packet(t, p)) = (t, p).
func TestFrameRoundTrip(t *testing.T) {
	cases := []Frame{
		{Type: TypeAck, Payload: nil},
		{Type: TypeKey, Payload: []byte{0, 0, 0, 42}},
		{Type: TypeWrite, Payload: bytes.Repeat([]byte("x"), MaxPayloadSize)},
	}
	for _, f := range cases {
		var buf bytes.Buffer
		if err := WritePacket(&buf, f); err != nil {
			t.Fatalf("WritePacket: %v", err)
		}
		got, err := ReadPacket(&buf)
		if err != nil {
			t.Fatalf("ReadPacket: %v", err)
		}
		if got.Type != f.Type || !bytes.Equal(got.Payload, f.Payload) {
			t.Fatalf("round trip = %+v, want %+v", got, f)
		}
	}
}

func TestReadPacketOversizeIsFatal(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(putU32(nil, MaxPayloadSize+1))
	buf.Write(putU32(nil, uint32(TypeWrite)))
	buf.Write(make([]byte, MaxPayloadSize+1))

	_, err := ReadPacket(&buf)
	if !errors.Is(err, ErrOversizePacket) {
		t.Fatalf("ReadPacket error = %v, want ErrOversizePacket", err)
	}
}

func TestReadPacketCleanEOF(t *testing.T) {
	_, err := ReadPacket(bytes.NewReader(nil))
	if !errors.Is(err, io.EOF) {
		t.Fatalf("ReadPacket error = %v, want io.EOF", err)
	}
}

func TestReadPacketTruncatedPayloadIsUnexpectedEOF(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(putU32(nil, 10))
	buf.Write(putU32(nil, uint32(TypeWrite)))
	buf.Write([]byte{1, 2, 3}) // short

	_, err := ReadPacket(&buf)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("ReadPacket error = %v, want io.ErrUnexpectedEOF", err)
	}
}
