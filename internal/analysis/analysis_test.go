package analysis

import (
	"reflect"
	"testing"
	"time"

	"github.com/SeamusWaldron/giiker_ble_library"
)

// timed parses notation and spaces the moves by gapsMs, 500ms by default.
func timed(t *testing.T, notation string, gapsMs ...int64) []giiker.Move {
	t.Helper()
	moves := giiker.ParseMoves(notation)
	ts := time.UnixMilli(1_000_000)
	for i := range moves {
		if i > 0 {
			gap := int64(500)
			if i-1 < len(gapsMs) {
				gap = gapsMs[i-1]
			}
			ts = ts.Add(time.Duration(gap) * time.Millisecond)
		}
		moves[i].Time = ts
	}
	return moves
}

func notations(moves []giiker.Move) []string {
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = m.Notation()
	}
	return out
}

func TestSimplify(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"R U F", []string{"R", "U", "F"}},
		{"R R", []string{"R2"}},
		{"R R'", []string{}},
		{"R2 R2'", []string{}},
		{"R2 R", []string{"R'"}},
		{"R R R", []string{"R'"}},
		{"R U U' R'", []string{}},
		{"F R R' U", []string{"F", "U"}},
		{"U2' U2'", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := notations(Simplify(timed(t, tt.in)))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Simplify(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSimplifyKeepsFirstTime(t *testing.T) {
	moves := timed(t, "R R")
	got := Simplify(moves)
	if len(got) != 1 || !got[0].Time.Equal(moves[0].Time) {
		t.Errorf("Simplify = %+v", got)
	}
	if moves[0].Turn != giiker.CW {
		t.Error("Simplify modified its input")
	}
}

func TestSummarize(t *testing.T) {
	// Gaps: 500, 2000, 500, 1500.
	moves := timed(t, "R U R' U' R", 500, 2000, 500, 1500)
	s := Summarize(moves, DefaultPauseThreshold)

	if s.TotalMoves != 5 || s.SimplifiedMoves != 5 {
		t.Errorf("moves = %d simplified = %d", s.TotalMoves, s.SimplifiedMoves)
	}
	if s.DurationMs != 4500 {
		t.Errorf("DurationMs = %d, want 4500", s.DurationMs)
	}
	if want := 5 / 4.5; s.TPSOverall != want {
		t.Errorf("TPSOverall = %v, want %v", s.TPSOverall, want)
	}
	if s.AvgMoveGapMs != 1125 {
		t.Errorf("AvgMoveGapMs = %v, want 1125", s.AvgMoveGapMs)
	}
	if s.LongestPauseMs != 2000 {
		t.Errorf("LongestPauseMs = %d, want 2000", s.LongestPauseMs)
	}
	if len(s.Pauses) != 2 || s.Pauses[0].AfterMoveIndex != 1 || s.Pauses[1].AfterMoveIndex != 3 {
		t.Errorf("Pauses = %+v", s.Pauses)
	}
	if s.Profile.FaceCounts[giiker.FaceR] != 3 || s.Profile.MostUsedFace != giiker.FaceR {
		t.Errorf("Profile = %+v", s.Profile)
	}
	if s.Profile.TurnCounts[""] != 3 || s.Profile.TurnCounts["'"] != 2 {
		t.Errorf("TurnCounts = %v", s.Profile.TurnCounts)
	}
	if s.Profile.FaceSequences["RU"] != 2 || s.Profile.FaceSequences["UR"] != 2 {
		t.Errorf("FaceSequences = %v", s.Profile.FaceSequences)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, DefaultPauseThreshold)
	if s.TotalMoves != 0 || s.DurationMs != 0 || s.TPSOverall != 0 || s.Pauses != nil {
		t.Errorf("Summarize(nil) = %+v", s)
	}
	if s.Profile.MostUsedFace != "" {
		t.Errorf("MostUsedFace = %q", s.Profile.MostUsedFace)
	}
}

func TestMineNGrams(t *testing.T) {
	moves := timed(t, "R U R' U' F R U R' U' F R U R' U'")
	report := MineNGrams(moves, 4, 5, 3)

	fours := report.TopNGrams[4]
	if len(fours) == 0 {
		t.Fatal("no 4-grams found")
	}
	top := fours[0]
	if !reflect.DeepEqual(top.Sequence, []string{"R", "U", "R'", "U'"}) || top.Count != 3 {
		t.Errorf("top 4-gram = %+v", top)
	}
	if len(top.Occurrences) != 3 || top.Occurrences[1].StartIndex != 5 {
		t.Errorf("occurrences = %+v", top.Occurrences)
	}
	if top.Occurrences[0].TsMs != moves[0].Time.UnixMilli() {
		t.Errorf("first occurrence at %d", top.Occurrences[0].TsMs)
	}
	if len(fours) > 3 {
		t.Errorf("topK not applied: %d results", len(fours))
	}

	fives := report.TopNGrams[5]
	if len(fives) == 0 || fives[0].Count != 2 {
		t.Errorf("5-grams = %+v", fives)
	}
}

func TestMineNGramsDistinguishesTurns(t *testing.T) {
	moves := timed(t, "R R' R R2 R R'")
	report := MineNGrams(moves, 2, 2, 10)
	for _, ng := range report.TopNGrams[2] {
		if reflect.DeepEqual(ng.Sequence, []string{"R", "R'"}) && ng.Count != 2 {
			t.Errorf("R R' counted %d times, want 2", ng.Count)
		}
		if reflect.DeepEqual(ng.Sequence, []string{"R", "R2"}) {
			t.Error("R R2 appears once and should not be reported")
		}
	}
}

func TestMineNGramsShortInput(t *testing.T) {
	report := MineNGrams(timed(t, "R U"), 4, 8, 5)
	if len(report.TopNGrams) != 0 {
		t.Errorf("report = %+v", report.TopNGrams)
	}
}

func TestRollingHash(t *testing.T) {
	a := NewRollingHash(3)
	for _, tok := range []uint8{1, 2, 3, 4} {
		a.Roll(tok)
	}
	b := NewRollingHash(3)
	for _, tok := range []uint8{2, 3, 4} {
		b.Roll(tok)
	}
	if !a.Ready() || a.Hash() != b.Hash() {
		t.Errorf("rolled hash %d != direct hash %d", a.Hash(), b.Hash())
	}
	if !reflect.DeepEqual(a.Window(), []uint8{2, 3, 4}) {
		t.Errorf("Window = %v", a.Window())
	}
}
