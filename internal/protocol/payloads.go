package protocol

import (
	"encoding/binary"
	"errors"

	"github.com/ancillary-agi/snakearena/internal/grid"
)

// ErrBadPayloadLength is returned when a frame's payload length does not
// match the fixed contract for its opcode — rejected up front rather than
// trusting the sender, so a zero-length MOVE payload never reaches a
// handler that dereferences it.
var ErrBadPayloadLength = errors.New("protocol: payload length does not match opcode contract")

// EncodeLoginResp builds the LOGIN_RESP payload: a 4-byte big-endian slot id.
func EncodeLoginResp(slot int) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(slot))
	return buf
}

// DecodeLoginResp parses a LOGIN_RESP payload.
func DecodeLoginResp(raw []byte) (int, error) {
	if len(raw) != 4 {
		return 0, ErrBadPayloadLength
	}
	return int(binary.BigEndian.Uint32(raw)), nil
}

// moveByteToDir maps the wire letter to a grid.Direction; dirToMoveByte
// maps back.
var moveByteToDir = map[byte]grid.Direction{
	'W': grid.Up,
	'S': grid.Down,
	'A': grid.Left,
	'D': grid.Right,
}

var dirToMoveByte = map[grid.Direction]byte{
	grid.Up:    'W',
	grid.Down:  'S',
	grid.Left:  'A',
	grid.Right: 'D',
}

// EncodeMove builds a MOVE payload for direction d.
func EncodeMove(d grid.Direction) []byte {
	return []byte{dirToMoveByte[d]}
}

// DecodeMove parses a MOVE payload: exactly one byte in {'W','A','S','D'}.
func DecodeMove(raw []byte) (grid.Direction, error) {
	if len(raw) != 1 {
		return 0, ErrBadPayloadLength
	}
	d, ok := moveByteToDir[raw[0]]
	if !ok {
		return 0, errors.New("protocol: unrecognized move byte")
	}
	return d, nil
}

// EncodeError builds an ERROR payload from UTF-8 text.
func EncodeError(msg string) []byte {
	return []byte(msg)
}

// EncodeUpdate serializes a grid snapshot as one byte per cell, row-major.
func EncodeUpdate(cells []grid.Cell) []byte {
	buf := make([]byte, len(cells))
	for i, c := range cells {
		buf[i] = byte(c)
	}
	return buf
}

// DecodeUpdate parses an UPDATE payload of exactly width*height bytes.
func DecodeUpdate(raw []byte, width, height int) ([]grid.Cell, error) {
	if len(raw) != width*height {
		return nil, ErrBadPayloadLength
	}
	cells := make([]grid.Cell, len(raw))
	for i, b := range raw {
		cells[i] = grid.Cell(b)
	}
	return cells, nil
}

// ValidatePayloadLength rejects frames whose payload length does not match
// the opcode's fixed contract, so a zero-length MOVE payload never reaches
// a handler that dereferences it unchecked. Opcodes not listed here
// (including unknown opcodes) carry no fixed contract and always pass.
func ValidatePayloadLength(op Opcode, raw []byte) error {
	switch op {
	case OpLoginReq, OpLogout, OpDie, OpHeartbeat, OpHeartbeatAck:
		if len(raw) != 0 {
			return ErrBadPayloadLength
		}
	case OpLoginResp:
		if len(raw) != 4 {
			return ErrBadPayloadLength
		}
	case OpMove:
		if len(raw) != 1 {
			return ErrBadPayloadLength
		}
	}
	return nil
}
