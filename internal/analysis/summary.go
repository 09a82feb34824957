// Package analysis computes statistics over recorded move sequences.
package analysis

import (
	"time"

	"github.com/SeamusWaldron/giiker_ble_library"
)

// DefaultPauseThreshold is the gap between moves counted as a pause.
const DefaultPauseThreshold = 1500 * time.Millisecond

// Summary contains statistics for one recording.
type Summary struct {
	TotalMoves      int              `json:"total_moves"`
	SimplifiedMoves int              `json:"simplified_moves"`
	DurationMs      int64            `json:"duration_ms"`
	TPSOverall      float64          `json:"tps_overall"`
	AvgMoveGapMs    float64          `json:"avg_move_gap_ms"`
	LongestPauseMs  int64            `json:"longest_pause_ms"`
	Pauses          []PauseInfo      `json:"pauses,omitempty"`
	Profile         *MovementProfile `json:"profile"`
}

// PauseInfo represents a pause during a recording.
type PauseInfo struct {
	AfterMoveIndex int   `json:"after_move_index"`
	DurationMs     int64 `json:"duration_ms"`
	TsMs           int64 `json:"ts_ms"`
}

// Summarize computes the statistics of moves, which must be in arrival
// order. Gaps of at least pauseThreshold are reported as pauses.
func Summarize(moves []giiker.Move, pauseThreshold time.Duration) *Summary {
	s := &Summary{
		TotalMoves:      len(moves),
		SimplifiedMoves: len(Simplify(moves)),
		AvgMoveGapMs:    AvgMoveGap(moves),
		LongestPauseMs:  LongestPause(moves),
		Pauses:          AnalyzePauses(moves, pauseThreshold),
		Profile:         AnalyzeMovementProfile(moves),
	}
	if len(moves) > 1 {
		s.DurationMs = moves[len(moves)-1].Time.Sub(moves[0].Time).Milliseconds()
	}
	s.TPSOverall = CalculateTPS(len(moves), s.DurationMs)
	return s
}

func gapMs(moves []giiker.Move, i int) int64 {
	return moves[i].Time.Sub(moves[i-1].Time).Milliseconds()
}

// AnalyzePauses finds all gaps of at least threshold between moves.
func AnalyzePauses(moves []giiker.Move, threshold time.Duration) []PauseInfo {
	var pauses []PauseInfo

	for i := 1; i < len(moves); i++ {
		gap := gapMs(moves, i)
		if gap >= threshold.Milliseconds() {
			pauses = append(pauses, PauseInfo{
				AfterMoveIndex: i - 1,
				DurationMs:     gap,
				TsMs:           moves[i-1].Time.UnixMilli(),
			})
		}
	}

	return pauses
}

// CalculateTPS calculates turns per second.
func CalculateTPS(moves int, durationMs int64) float64 {
	if durationMs <= 0 {
		return 0
	}
	return float64(moves) / (float64(durationMs) / 1000.0)
}

// AvgMoveGap calculates the average time between moves in milliseconds.
func AvgMoveGap(moves []giiker.Move) float64 {
	if len(moves) < 2 {
		return 0
	}

	total := moves[len(moves)-1].Time.Sub(moves[0].Time).Milliseconds()
	return float64(total) / float64(len(moves)-1)
}

// LongestPause finds the longest gap between moves in milliseconds.
func LongestPause(moves []giiker.Move) int64 {
	var longest int64

	for i := 1; i < len(moves); i++ {
		if gap := gapMs(moves, i); gap > longest {
			longest = gap
		}
	}

	return longest
}

// MovementProfile records which faces and turns a recording used.
type MovementProfile struct {
	FaceCounts    map[giiker.Face]int `json:"face_counts"`
	TurnCounts    map[string]int      `json:"turn_counts"` // keyed by suffix: "", "2", "'", "2'"
	MostUsedFace  giiker.Face         `json:"most_used_face,omitempty"`
	FaceSequences map[string]int      `json:"face_sequences"` // e.g. "RU" -> count
}

// AnalyzeMovementProfile counts faces, turn kinds and consecutive face
// pairs.
func AnalyzeMovementProfile(moves []giiker.Move) *MovementProfile {
	profile := &MovementProfile{
		FaceCounts:    make(map[giiker.Face]int),
		TurnCounts:    make(map[string]int),
		FaceSequences: make(map[string]int),
	}

	for i, m := range moves {
		profile.FaceCounts[m.Face]++
		profile.TurnCounts[m.Notation()[len(m.Face):]]++

		if i > 0 {
			profile.FaceSequences[string(moves[i-1].Face)+string(m.Face)]++
		}
	}

	// Ties go to the face listed first in URFDLB order.
	best := 0
	for _, face := range []giiker.Face{giiker.FaceU, giiker.FaceR, giiker.FaceF, giiker.FaceD, giiker.FaceL, giiker.FaceB} {
		if n := profile.FaceCounts[face]; n > best {
			best = n
			profile.MostUsedFace = face
		}
	}

	return profile
}
