package giiker

import (
	"strings"
	"testing"
)

func solvedState(t *testing.T) VisibleState {
	t.Helper()
	v, err := Project(solvedRaw())
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestSolvedNet(t *testing.T) {
	c := solvedState(t).Facelets()
	if !c.IsSolved() {
		t.Error("solved state should give a solved net")
		t.Log(c.String())
	}
	for i, f := range NetFaces {
		for j, col := range c.Facelets[i] {
			if col != SolvedColor(f) {
				t.Errorf("face %s facelet %d = %v, want %v", f, j, col, SolvedColor(f))
			}
		}
	}
}

func TestSolvedDefinition(t *testing.T) {
	want := strings.Repeat("U", 9) + strings.Repeat("R", 9) + strings.Repeat("F", 9) +
		strings.Repeat("D", 9) + strings.Repeat("L", 9) + strings.Repeat("B", 9)
	if got := solvedState(t).Facelets().Definition(); got != want {
		t.Errorf("Definition() = %s, want %s", got, want)
	}
}

func TestZeroStateNet(t *testing.T) {
	c := VisibleState{}.Facelets()
	for i, f := range NetFaces {
		if c.Facelets[i][4] != SolvedColor(f) {
			t.Errorf("center of %s = %v", f, c.Facelets[i][4])
		}
		for j, col := range c.Facelets[i] {
			if j != 4 && col != Unknown {
				t.Errorf("face %s facelet %d = %v, want Unknown", f, j, col)
			}
		}
	}
	if c.IsSolved() {
		t.Error("empty net should not be solved")
	}
	if !strings.Contains(c.Definition(), "?") {
		t.Error("Definition of an empty net should mark unknown facelets")
	}
}

func TestFlippedEdgeNet(t *testing.T) {
	raw := solvedRaw()
	raw.EdgeOrientations[0] = true // FD edge
	v, err := Project(raw)
	if err != nil {
		t.Fatal(err)
	}
	c := v.Facelets()

	// Bottom middle of F and top middle of D.
	if got := c.Face(FaceF)[7]; got != Yellow {
		t.Errorf("F[7] = %v, want yellow", got)
	}
	if got := c.Face(FaceD)[1]; got != Green {
		t.Errorf("D[1] = %v, want green", got)
	}
	if c.IsSolved() {
		t.Error("net with a flipped edge should not be solved")
	}
}

func TestTwistedCornerNet(t *testing.T) {
	raw := solvedRaw()
	raw.CornerOrientations[1] = 1 // URF corner, not corrected
	v, err := Project(raw)
	if err != nil {
		t.Fatal(err)
	}
	c := v.Facelets()

	// Slot 1 faces are R, U, F showing white, green, red.
	if got := c.Face(FaceR)[0]; got != White {
		t.Errorf("R[0] = %v, want white", got)
	}
	if got := c.Face(FaceU)[8]; got != Green {
		t.Errorf("U[8] = %v, want green", got)
	}
	if got := c.Face(FaceF)[2]; got != Red {
		t.Errorf("F[2] = %v, want red", got)
	}
}

func TestNetString(t *testing.T) {
	s := solvedState(t).Facelets().String()
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) != 9 {
		t.Fatalf("got %d lines, want 9:\n%s", len(lines), s)
	}
	if strings.TrimSpace(lines[0]) != "W W W" {
		t.Errorf("first line = %q, want U row", lines[0])
	}
	if strings.TrimSpace(lines[3]) != "O O O G G G R R R B B B" {
		t.Errorf("middle line = %q", lines[3])
	}
}

func TestColorNames(t *testing.T) {
	if Yellow.String() != "yellow" || Yellow.Letter() != "Y" {
		t.Errorf("Yellow = %s/%s", Yellow, Yellow.Letter())
	}
	if Unknown.String() != "unknown" || Unknown.Letter() != "?" {
		t.Errorf("Unknown = %s/%s", Unknown, Unknown.Letter())
	}
}
