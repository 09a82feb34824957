package giiker

import (
	"errors"
	"reflect"
	"testing"
)

func solvedRaw() RawState {
	raw, _ := DecodeFrame(SolvedFrame())
	return raw
}

func TestProjectSolved(t *testing.T) {
	v, err := Project(solvedRaw())
	if err != nil {
		t.Fatalf("Project error: %v", err)
	}
	if len(v.Corners) != 8 || len(v.Edges) != 12 {
		t.Fatalf("got %d corners and %d edges", len(v.Corners), len(v.Edges))
	}
	if !v.IsSolved() {
		t.Error("solved frame should project to a solved state")
	}
	for i, c := range v.Corners {
		if c.Position != CornerSlotFaces(i) {
			t.Errorf("corner %d position = %v, want %v", i, c.Position, CornerSlotFaces(i))
		}
	}
	for i, e := range v.Edges {
		if e.Position != EdgeSlotFaces(i) {
			t.Errorf("edge %d position = %v, want %v", i, e.Position, EdgeSlotFaces(i))
		}
	}
}

func TestProjectCornerScenarios(t *testing.T) {
	tests := []struct {
		name        string
		slot        int
		orientation int
		want        [3]Color
	}{
		// Slot 0 is corrected: 4-1 = 3, colors unchanged.
		{"corrected slot raw 1", 0, 1, [3]Color{Yellow, Red, Green}},
		{"corrected slot raw 2", 0, 2, [3]Color{Green, Yellow, Red}},
		// Slot 1 is not corrected: class 1 rotates left by one.
		{"plain slot raw 1", 1, 1, [3]Color{White, Green, Red}},
		{"plain slot raw 2", 1, 2, [3]Color{Green, Red, White}},
		{"plain slot raw 3", 1, 3, [3]Color{Red, White, Green}},
		{"corrected slot 2 raw 1", 2, 1, [3]Color{White, Orange, Green}},
		{"corrected slot 7 raw 2", 7, 2, [3]Color{Blue, Yellow, Orange}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := solvedRaw()
			raw.CornerOrientations[tt.slot] = tt.orientation

			v, err := Project(raw)
			if err != nil {
				t.Fatalf("Project error: %v", err)
			}
			got := v.Corners[tt.slot]
			if got.Colors != tt.want {
				t.Errorf("colors = %v, want %v", got.Colors, tt.want)
			}
			if got.Position != CornerSlotFaces(tt.slot) {
				t.Errorf("position = %v, want %v", got.Position, CornerSlotFaces(tt.slot))
			}
		})
	}
}

func TestProjectCornerPositionFaces(t *testing.T) {
	raw := solvedRaw()
	raw.CornerOrientations[0] = 1

	v, err := Project(raw)
	if err != nil {
		t.Fatal(err)
	}
	want := Corner{Position: [3]Face{FaceD, FaceR, FaceF}, Colors: [3]Color{Yellow, Red, Green}}
	if v.Corners[0] != want {
		t.Errorf("corner 0 = %+v, want %+v", v.Corners[0], want)
	}
}

func TestProjectEdgeFlip(t *testing.T) {
	raw := solvedRaw()
	raw.EdgeOrientations[0] = true

	v, err := Project(raw)
	if err != nil {
		t.Fatalf("Project error: %v", err)
	}
	if v.Edges[0].Colors != [2]Color{Yellow, Green} {
		t.Errorf("edge 0 colors = %v, want [yellow green]", v.Edges[0].Colors)
	}
	if v.Edges[1].Colors != [2]Color{Green, Red} {
		t.Errorf("edge 1 colors = %v, want unchanged [green red]", v.Edges[1].Colors)
	}
	if v.IsSolved() {
		t.Error("state with a flipped edge should not be solved")
	}
}

func TestProjectPermutedPieces(t *testing.T) {
	raw := solvedRaw()
	raw.CornerPositions[0], raw.CornerPositions[1] = 2, 1
	raw.EdgePositions[0], raw.EdgePositions[1] = 2, 1

	v, err := Project(raw)
	if err != nil {
		t.Fatalf("Project error: %v", err)
	}
	// Piece 2 sits in slot 0 with class 3, so its home colors show as-is.
	if v.Corners[0].Colors != [3]Color{Red, White, Green} {
		t.Errorf("corner 0 colors = %v", v.Corners[0].Colors)
	}
	if v.Edges[0].Colors != [2]Color{Green, Red} {
		t.Errorf("edge 0 colors = %v", v.Edges[0].Colors)
	}
}

func TestCorrectOrientation(t *testing.T) {
	corrected := map[int]bool{0: true, 2: true, 5: true, 7: true}
	for slot := 0; slot < 8; slot++ {
		for o := 1; o <= 3; o++ {
			want := o
			if corrected[slot] && o != 3 {
				want = 4 - o
			}
			if got := CorrectOrientation(slot, o); got != want {
				t.Errorf("CorrectOrientation(%d, %d) = %d, want %d", slot, o, got, want)
			}
		}
	}
}

func TestCorrectOrientationRange(t *testing.T) {
	corrected := map[int]bool{0: true, 2: true, 5: true, 7: true}
	for slot := 0; slot < 8; slot++ {
		for o := 1; o <= 3; o++ {
			got := CorrectOrientation(slot, o)
			if got < 1 || got > 3 {
				t.Errorf("CorrectOrientation(%d, %d) = %d, outside 1..3", slot, o, got)
			}
			if !corrected[slot] && got != o {
				t.Errorf("slot %d is not corrected but %d became %d", slot, o, got)
			}
		}
	}
}

func TestCorrectOrientationOutOfRangeSlot(t *testing.T) {
	if got := CorrectOrientation(8, 1); got != 1 {
		t.Errorf("CorrectOrientation(8, 1) = %d, want 1", got)
	}
	if got := CorrectOrientation(-1, 2); got != 2 {
		t.Errorf("CorrectOrientation(-1, 2) = %d, want 2", got)
	}
}

func TestProjectDoesNotMutateInput(t *testing.T) {
	raw := solvedRaw()
	raw.CornerOrientations[0] = 1
	raw.CornerOrientations[5] = 2
	raw.EdgeOrientations[3] = true
	before := raw.Clone()

	first, err := Project(raw)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(raw, before) {
		t.Errorf("Project modified its input: %+v", raw)
	}

	second, _ := Project(raw)
	if !reflect.DeepEqual(first, second) {
		t.Error("Project is not deterministic")
	}
}

func TestProjectZero(t *testing.T) {
	v, err := Project(RawState{})
	if err != nil {
		t.Fatalf("Project(zero) error: %v", err)
	}
	if !v.IsZero() {
		t.Errorf("Project(zero) = %+v, want zero", v)
	}
	if v.IsSolved() {
		t.Error("zero state should not be solved")
	}
}

func TestValidateIntegrity(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RawState)
	}{
		{"duplicate corner", func(r *RawState) { r.CornerPositions[1] = 1 }},
		{"corner piece zero", func(r *RawState) { r.CornerPositions[0] = 0 }},
		{"corner piece nine", func(r *RawState) { r.CornerPositions[7] = 9 }},
		{"duplicate edge", func(r *RawState) { r.EdgePositions[11] = 1 }},
		{"edge piece thirteen", func(r *RawState) { r.EdgePositions[0] = 13 }},
		{"orientation zero", func(r *RawState) { r.CornerOrientations[3] = 0 }},
		{"orientation four", func(r *RawState) { r.CornerOrientations[4] = 4 }},
		{"missing corner", func(r *RawState) { r.CornerPositions = r.CornerPositions[:7] }},
		{"missing flag", func(r *RawState) { r.EdgeOrientations = r.EdgeOrientations[:11] }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := solvedRaw()
			tt.mutate(&raw)

			if err := Validate(raw); !errors.Is(err, ErrIntegrity) {
				t.Errorf("Validate error = %v, want ErrIntegrity", err)
			}
			if _, err := Project(raw); !errors.Is(err, ErrIntegrity) {
				t.Errorf("Project error = %v, want ErrIntegrity", err)
			}
		})
	}
}

func TestValidateAcceptsAllOrientations(t *testing.T) {
	raw := solvedRaw()
	for i := range raw.CornerOrientations {
		raw.CornerOrientations[i] = i%3 + 1
	}
	if err := Validate(raw); err != nil {
		t.Errorf("Validate error: %v", err)
	}
}

func TestRawStateClone(t *testing.T) {
	raw := solvedRaw()
	c := raw.Clone()
	c.CornerPositions[0] = 8
	c.EdgeOrientations[0] = true
	if raw.CornerPositions[0] != 1 || raw.EdgeOrientations[0] {
		t.Error("Clone shares storage with the original")
	}
}
