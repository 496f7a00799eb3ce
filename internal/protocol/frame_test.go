package protocol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload := []byte("hello snake")
	framed := Encode(OpError, payload)

	op, raw, err := Decode(bytes.NewReader(framed), 0)
	require.NoError(t, err)
	require.Equal(t, OpError, op)
	require.Equal(t, payload, raw)
}

func TestEncodeDecodeEmptyPayloadHasZeroChecksum(t *testing.T) {
	framed := Encode(OpLoginReq, nil)
	require.Len(t, framed, headerSize)
	require.Equal(t, []byte{0, 0}, framed[6:8])

	op, raw, err := Decode(bytes.NewReader(framed), 0)
	require.NoError(t, err)
	require.Equal(t, OpLoginReq, op)
	require.Empty(t, raw)
}

func TestDecodeFlippedByteFailsChecksum(t *testing.T) {
	framed := Encode(OpMove, []byte{'W'})
	framed[headerSize] ^= 0xFF // corrupt the single obfuscated payload byte

	_, _, err := Decode(bytes.NewReader(framed), 0)
	require.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestDecodeOversizedLengthIsMalformed(t *testing.T) {
	framed := Encode(OpUpdate, make([]byte, 10))
	// Claim a length far beyond the cap without supplying the bytes.
	framed[0] = 0xFF
	framed[1] = 0xFF
	framed[2] = 0xFF
	framed[3] = 0xFF

	_, _, err := Decode(bytes.NewReader(framed), 256*1024)
	require.ErrorIs(t, err, ErrMalformedFrame)
}

func TestDecodeShortReadOnTruncatedHeader(t *testing.T) {
	framed := Encode(OpHeartbeat, nil)
	_, _, err := Decode(bytes.NewReader(framed[:4]), 0)
	require.ErrorIs(t, err, ErrShortRead)
}

func TestDecodeShortReadOnTruncatedPayload(t *testing.T) {
	framed := Encode(OpError, []byte("Server Full"))
	truncated := framed[:headerSize+3]
	_, _, err := Decode(bytes.NewReader(truncated), 0)
	require.ErrorIs(t, err, ErrShortRead)
}

func TestLoginRespPayloadObfuscation(t *testing.T) {
	// Raw slot 0 -> 00 00 00 00, XOR 0x5A -> 5A 5A 5A 5A on the wire.
	framed := Encode(OpLoginResp, EncodeLoginResp(0))
	require.Equal(t, []byte{0x5A, 0x5A, 0x5A, 0x5A}, framed[headerSize:])
}

func TestValidatePayloadLengthRejectsZeroLengthMove(t *testing.T) {
	err := ValidatePayloadLength(OpMove, nil)
	require.ErrorIs(t, err, ErrBadPayloadLength)
}

func TestValidatePayloadLengthAcceptsWellFormedMove(t *testing.T) {
	err := ValidatePayloadLength(OpMove, []byte{'A'})
	require.NoError(t, err)
}

func TestValidatePayloadLengthIgnoresUnknownOpcode(t *testing.T) {
	err := ValidatePayloadLength(Opcode(200), []byte("anything"))
	require.NoError(t, err)
}
