package analysis

import (
	"github.com/SeamusWaldron/giiker_ble_library"
)

// Simplify merges consecutive turns of the same face: R R becomes R2 and
// R R' cancels out. A merged move keeps the time of its first turn.
// Half turns come out as clockwise R2.
func Simplify(moves []giiker.Move) []giiker.Move {
	out := make([]giiker.Move, 0, len(moves))

	for _, m := range moves {
		if n := len(out); n > 0 && out[n-1].Face == m.Face {
			sum := int(out[n-1].Turn) + int(m.Turn)
			if turn, ok := normalizeTurn(sum); ok {
				out[n-1].Turn = turn
			} else {
				out = out[:n-1]
			}
			continue
		}
		out = append(out, m)
	}

	return out
}

// normalizeTurn maps a quarter-turn sum onto CW, Double or CCW. It reports
// false when the turns cancel.
func normalizeTurn(sum int) (giiker.Turn, bool) {
	switch ((sum % 4) + 4) % 4 {
	case 1:
		return giiker.CW, true
	case 2:
		return giiker.Double, true
	case 3:
		return giiker.CCW, true
	default:
		return 0, false
	}
}
