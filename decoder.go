package giiker

import (
	"fmt"
)

// FrameSize is the length of the state snapshot at the head of every frame.
// Bytes past FrameSize carry queued moves, one per byte.
const FrameSize = 16

// Frame layout offsets.
const (
	cornerPosOffset    = 0
	cornerOrientOffset = 4
	edgePosOffset      = 8
	edgeFlipOffset     = 14
)

// MoveCode is one raw queued move: the high nibble (1-based face index) and
// low nibble (turn code) of a trailing frame byte.
type MoveCode struct {
	Face byte
	Turn byte
}

func (c MoveCode) String() string {
	return fmt.Sprintf("%X%X", c.Face, c.Turn)
}

// DecodeFrame splits a raw frame into its state snapshot and queued move
// codes. Frames shorter than FrameSize carry no data and decode to a zero
// RawState with no moves. Nibbles are taken as-is; range checks belong to
// Validate and DecodeMove.
func DecodeFrame(data []byte) (RawState, []MoveCode) {
	var raw RawState
	if len(data) < FrameSize {
		return raw, nil
	}

	raw.CornerPositions = nibbles(data[cornerPosOffset:cornerOrientOffset])
	raw.CornerOrientations = nibbles(data[cornerOrientOffset:edgePosOffset])
	raw.EdgePositions = nibbles(data[edgePosOffset:edgeFlipOffset])

	// 12 flip flags, most significant bit first: all of byte 14, then the
	// top half of byte 15.
	raw.EdgeOrientations = make([]bool, 0, 12)
	for bit := 7; bit >= 0; bit-- {
		raw.EdgeOrientations = append(raw.EdgeOrientations, data[edgeFlipOffset]&(1<<bit) != 0)
	}
	for bit := 7; bit >= 4; bit-- {
		raw.EdgeOrientations = append(raw.EdgeOrientations, data[edgeFlipOffset+1]&(1<<bit) != 0)
	}

	var codes []MoveCode
	for _, b := range data[FrameSize:] {
		codes = append(codes, MoveCode{Face: b >> 4, Turn: b & 0x0F})
	}

	return raw, codes
}

// nibbles expands bytes into their high and low nibbles, in order.
func nibbles(b []byte) []int {
	out := make([]int, 0, len(b)*2)
	for _, v := range b {
		out = append(out, int(v>>4), int(v&0x0F))
	}
	return out
}

// DecodeMove turns a raw move code into a Move.
func DecodeMove(code MoveCode) (Move, error) {
	if code.Face < 1 || int(code.Face) > len(wireFaces) {
		return Move{}, fmt.Errorf("%w: %d", ErrUnknownFace, code.Face)
	}
	turn, ok := turnAmounts[code.Turn]
	if !ok {
		return Move{}, fmt.Errorf("%w: %d (face %s)", ErrUnknownTurnCode, code.Turn, wireFaces[code.Face-1])
	}
	return Move{Face: wireFaces[code.Face-1], Turn: turn}, nil
}

// DecodeMoves decodes every code, dropping the ones that fail. The returned
// errors correspond to the dropped codes, in order.
func DecodeMoves(codes []MoveCode) ([]Move, []error) {
	var moves []Move
	var errs []error
	for _, c := range codes {
		m, err := DecodeMove(c)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		moves = append(moves, m)
	}
	return moves, errs
}

// EncodeMove is the inverse of DecodeMove.
func EncodeMove(m Move) (MoveCode, error) {
	var code MoveCode
	for i, f := range wireFaces {
		if f == m.Face {
			code.Face = byte(i + 1)
		}
	}
	if code.Face == 0 {
		return MoveCode{}, fmt.Errorf("%w: %q", ErrUnknownFace, m.Face)
	}
	for raw, t := range turnAmounts {
		if t == m.Turn {
			code.Turn = raw
			return code, nil
		}
	}
	return MoveCode{}, fmt.Errorf("%w: amount %d", ErrUnknownTurnCode, m.Turn)
}

// EncodeFrame builds a wire frame from a state snapshot and queued move
// codes. It is the inverse of DecodeFrame for states with 8/8/12/12 entries;
// nibble values above 15 are truncated.
func EncodeFrame(raw RawState, codes ...MoveCode) ([]byte, error) {
	if len(raw.CornerPositions) != 8 || len(raw.CornerOrientations) != 8 ||
		len(raw.EdgePositions) != 12 || len(raw.EdgeOrientations) != 12 {
		return nil, fmt.Errorf("%w: state must have 8 corners and 12 edges", ErrMalformedFrame)
	}

	data := make([]byte, FrameSize, FrameSize+len(codes))
	pack(data[cornerPosOffset:], raw.CornerPositions)
	pack(data[cornerOrientOffset:], raw.CornerOrientations)
	pack(data[edgePosOffset:], raw.EdgePositions)
	for i, flipped := range raw.EdgeOrientations {
		if flipped {
			data[edgeFlipOffset+i/8] |= 1 << (7 - i%8)
		}
	}
	for _, c := range codes {
		data = append(data, c.Face<<4|c.Turn&0x0F)
	}
	return data, nil
}

func pack(dst []byte, values []int) {
	for i := 0; i < len(values); i += 2 {
		dst[i/2] = byte(values[i]&0x0F)<<4 | byte(values[i+1]&0x0F)
	}
}

// SolvedFrame returns the 16-byte snapshot of a solved cube.
func SolvedFrame() []byte {
	return []byte{
		0x12, 0x34, 0x56, 0x78,
		0x33, 0x33, 0x33, 0x33,
		0x12, 0x34, 0x56, 0x78, 0x9A, 0xBC,
		0x00, 0x00,
	}
}
