package giiker

import (
	"fmt"
	"strings"
	"time"
)

// Face represents a cube face in standard notation.
type Face string

const (
	FaceB Face = "B" // Back
	FaceD Face = "D" // Down
	FaceL Face = "L" // Left
	FaceU Face = "U" // Up
	FaceR Face = "R" // Right
	FaceF Face = "F" // Front
)

// Name returns the long name of the face, e.g. "Right".
func (f Face) Name() string {
	switch f {
	case FaceB:
		return "Back"
	case FaceD:
		return "Down"
	case FaceL:
		return "Left"
	case FaceU:
		return "Up"
	case FaceR:
		return "Right"
	case FaceF:
		return "Front"
	default:
		return "Unknown"
	}
}

// Turn is the signed amount of a face turn. Negative values are the
// counter-clockwise family, magnitude 2 is a half turn.
type Turn int

const (
	CW        Turn = 1  // Clockwise (90 degrees)
	Double    Turn = 2  // Half turn, clockwise
	CCW       Turn = -1 // Counter-clockwise (90 degrees)
	DoubleCCW Turn = -2 // Half turn, counter-clockwise
)

// Valid reports whether t is one of the four turn amounts the cube reports.
func (t Turn) Valid() bool {
	switch t {
	case CW, Double, CCW, DoubleCCW:
		return true
	}
	return false
}

// Move represents a single decoded face turn.
type Move struct {
	Face Face      // Which face was turned
	Turn Turn      // Direction and amount
	Time time.Time // When the frame carrying the move arrived (optional)
}

// Notation returns the standard cube notation string for this move.
// Examples: R, R2, R', R2'
func (m Move) Notation() string {
	suffix := ""
	switch m.Turn {
	case Double:
		suffix = "2"
	case CCW:
		suffix = "'"
	case DoubleCCW:
		suffix = "2'"
	}
	return string(m.Face) + suffix
}

// Inverse returns the inverse of this move.
// R becomes R', R2 becomes R2'.
func (m Move) Inverse() Move {
	inv := m
	inv.Turn = -m.Turn
	return inv
}

// WithTime returns a copy of the move with the specified timestamp.
func (m Move) WithTime(t time.Time) Move {
	m.Time = t
	return m
}

// String returns the notation string (alias for Notation).
func (m Move) String() string {
	return m.Notation()
}

// ParseMove parses a standard notation string into a Move. It accepts
// exactly what Notation produces, plus lowercase faces and a backtick
// for the prime mark.
func ParseMove(s string) (Move, error) {
	s = strings.TrimSpace(s)
	if len(s) == 0 {
		return Move{}, ErrInvalidNotation
	}

	var face Face
	switch s[0] {
	case 'B', 'b':
		face = FaceB
	case 'D', 'd':
		face = FaceD
	case 'L', 'l':
		face = FaceL
	case 'U', 'u':
		face = FaceU
	case 'R', 'r':
		face = FaceR
	case 'F', 'f':
		face = FaceF
	default:
		return Move{}, fmt.Errorf("%w: %q", ErrInvalidNotation, s)
	}

	turn := CW
	switch strings.ReplaceAll(s[1:], "`", "'") {
	case "":
	case "'":
		turn = CCW
	case "2":
		turn = Double
	case "2'":
		turn = DoubleCCW
	default:
		return Move{}, fmt.Errorf("%w: %q", ErrInvalidNotation, s)
	}

	return Move{Face: face, Turn: turn}, nil
}

// ParseMoves parses a space-separated sequence of moves.
// Example: "R U R' U'"
// Invalid moves are skipped.
func ParseMoves(s string) []Move {
	parts := strings.Fields(s)
	moves := make([]Move, 0, len(parts))

	for _, part := range parts {
		move, err := ParseMove(part)
		if err != nil {
			continue
		}
		moves = append(moves, move)
	}

	return moves
}

// FormatMoves formats a slice of moves as a space-separated notation string.
func FormatMoves(moves []Move) string {
	if len(moves) == 0 {
		return ""
	}

	parts := make([]string, len(moves))
	for i, m := range moves {
		parts[i] = m.Notation()
	}

	return strings.Join(parts, " ")
}
