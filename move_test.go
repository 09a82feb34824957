package giiker

import (
	"errors"
	"testing"
	"time"
)

func TestMoveNotation(t *testing.T) {
	tests := []struct {
		move Move
		want string
	}{
		{Move{Face: FaceR, Turn: CW}, "R"},
		{Move{Face: FaceR, Turn: Double}, "R2"},
		{Move{Face: FaceR, Turn: CCW}, "R'"},
		{Move{Face: FaceR, Turn: DoubleCCW}, "R2'"},
		{Move{Face: FaceB, Turn: CW}, "B"},
		{Move{Face: FaceD, Turn: CCW}, "D'"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.move.Notation(); got != tt.want {
				t.Errorf("Notation() = %q, want %q", got, tt.want)
			}
			if got := tt.move.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseMove(t *testing.T) {
	tests := []struct {
		in   string
		want Move
	}{
		{"R", Move{Face: FaceR, Turn: CW}},
		{"U'", Move{Face: FaceU, Turn: CCW}},
		{"F2", Move{Face: FaceF, Turn: Double}},
		{"L2'", Move{Face: FaceL, Turn: DoubleCCW}},
		{"b`", Move{Face: FaceB, Turn: CCW}},
		{" d2 ", Move{Face: FaceD, Turn: Double}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMove(tt.in)
			if err != nil {
				t.Fatalf("ParseMove(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseMove(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseMoveInvalid(t *testing.T) {
	for _, in := range []string{"", "X", "R3", "R''", "2R", "M"} {
		if _, err := ParseMove(in); !errors.Is(err, ErrInvalidNotation) {
			t.Errorf("ParseMove(%q) error = %v, want ErrInvalidNotation", in, err)
		}
	}
}

func TestParseMoveRoundTrip(t *testing.T) {
	for _, f := range []Face{FaceB, FaceD, FaceL, FaceU, FaceR, FaceF} {
		for _, turn := range []Turn{CW, Double, CCW, DoubleCCW} {
			m := Move{Face: f, Turn: turn}
			got, err := ParseMove(m.Notation())
			if err != nil || got != m {
				t.Errorf("ParseMove(%q) = %+v, %v", m.Notation(), got, err)
			}
		}
	}
}

func TestParseAndFormatMoves(t *testing.T) {
	moves := ParseMoves("R U R' junk U' R2'")
	if len(moves) != 5 {
		t.Fatalf("got %d moves, want 5 (invalid skipped)", len(moves))
	}
	if got := FormatMoves(moves); got != "R U R' U' R2'" {
		t.Errorf("FormatMoves = %q", got)
	}
	if FormatMoves(nil) != "" {
		t.Error("FormatMoves(nil) should be empty")
	}
}

func TestMoveInverse(t *testing.T) {
	tests := map[Turn]Turn{CW: CCW, CCW: CW, Double: DoubleCCW, DoubleCCW: Double}
	for turn, want := range tests {
		m := Move{Face: FaceF, Turn: turn}
		if got := m.Inverse().Turn; got != want {
			t.Errorf("%s inverse turn = %d, want %d", m, got, want)
		}
	}
}

func TestMoveWithTime(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	m := Move{Face: FaceU, Turn: CW}
	stamped := m.WithTime(ts)
	if !stamped.Time.Equal(ts) {
		t.Errorf("Time = %v, want %v", stamped.Time, ts)
	}
	if !m.Time.IsZero() {
		t.Error("WithTime modified the receiver")
	}
}

func TestTurnValid(t *testing.T) {
	for _, turn := range []Turn{CW, Double, CCW, DoubleCCW} {
		if !turn.Valid() {
			t.Errorf("Turn(%d).Valid() = false", turn)
		}
	}
	for _, turn := range []Turn{0, 3, -3} {
		if turn.Valid() {
			t.Errorf("Turn(%d).Valid() = true", turn)
		}
	}
}

func TestFaceName(t *testing.T) {
	if FaceR.Name() != "Right" || FaceB.Name() != "Back" {
		t.Errorf("names = %s, %s", FaceR.Name(), FaceB.Name())
	}
	if Face("X").Name() != "Unknown" {
		t.Error("unknown face should be named Unknown")
	}
}
