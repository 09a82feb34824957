package giiker

import (
	"fmt"
)

// RawState is a decoded but unprojected state snapshot. Positions name the
// 1-based piece occupying each slot; orientations are the raw rotation class
// of that piece (1-3 for corners, flipped or not for edges).
type RawState struct {
	CornerPositions    []int
	CornerOrientations []int
	EdgePositions      []int
	EdgeOrientations   []bool
}

// IsZero reports whether the state carries no data, as decoded from a frame
// shorter than FrameSize.
func (r RawState) IsZero() bool {
	return len(r.CornerPositions) == 0 && len(r.CornerOrientations) == 0 &&
		len(r.EdgePositions) == 0 && len(r.EdgeOrientations) == 0
}

// Clone returns a deep copy of the state.
func (r RawState) Clone() RawState {
	return RawState{
		CornerPositions:    append([]int(nil), r.CornerPositions...),
		CornerOrientations: append([]int(nil), r.CornerOrientations...),
		EdgePositions:      append([]int(nil), r.EdgePositions...),
		EdgeOrientations:   append([]bool(nil), r.EdgeOrientations...),
	}
}

// Validate checks that positions are permutations of 1..8 and 1..12 and that
// corner orientations are in {1,2,3}. Failures wrap ErrIntegrity.
func Validate(r RawState) error {
	if len(r.CornerPositions) != 8 || len(r.CornerOrientations) != 8 {
		return fmt.Errorf("%w: expected 8 corners, got %d positions and %d orientations",
			ErrIntegrity, len(r.CornerPositions), len(r.CornerOrientations))
	}
	if len(r.EdgePositions) != 12 || len(r.EdgeOrientations) != 12 {
		return fmt.Errorf("%w: expected 12 edges, got %d positions and %d orientations",
			ErrIntegrity, len(r.EdgePositions), len(r.EdgeOrientations))
	}
	if err := checkPermutation("corner", r.CornerPositions); err != nil {
		return err
	}
	if err := checkPermutation("edge", r.EdgePositions); err != nil {
		return err
	}
	for slot, o := range r.CornerOrientations {
		if o < 1 || o > 3 {
			return fmt.Errorf("%w: corner slot %d has orientation %d", ErrIntegrity, slot, o)
		}
	}
	return nil
}

func checkPermutation(kind string, positions []int) error {
	seen := make([]bool, len(positions)+1)
	for slot, p := range positions {
		if p < 1 || p > len(positions) {
			return fmt.Errorf("%w: %s slot %d holds piece %d", ErrIntegrity, kind, slot, p)
		}
		if seen[p] {
			return fmt.Errorf("%w: %s piece %d appears twice (slot %d)", ErrIntegrity, kind, p, slot)
		}
		seen[p] = true
	}
	return nil
}

// correctedSlots are the corner slots whose sensor counts rotation the other
// way round. The set is fixed by the device.
var correctedSlots = [8]bool{0: true, 2: true, 5: true, 7: true}

// CorrectOrientation returns the rotation class used to read the colors of
// the corner in slot, given its raw orientation class.
func CorrectOrientation(slot, orientation int) int {
	if orientation != 3 && slot >= 0 && slot < len(correctedSlots) && correctedSlots[slot] {
		return 4 - orientation
	}
	return orientation
}

// Corner is the visible state of one corner slot: its faces and the color
// showing on each, in the same order.
type Corner struct {
	Position [3]Face
	Colors   [3]Color
}

// Edge is the visible state of one edge slot.
type Edge struct {
	Position [2]Face
	Colors   [2]Color
}

// VisibleState is the projected, human-readable cube state.
//
// Example: the corner
//
//	Corner{Position: [3]Face{FaceD, FaceR, FaceF}, Colors: [3]Color{Yellow, Red, Green}}
//
// shows yellow on D, red on R and green on F.
type VisibleState struct {
	Corners []Corner
	Edges   []Edge
}

// IsZero reports whether the state has no cells.
func (v VisibleState) IsZero() bool {
	return len(v.Corners) == 0 && len(v.Edges) == 0
}

// IsSolved returns true if every cell shows the solved color of each face.
func (v VisibleState) IsSolved() bool {
	if len(v.Corners) != 8 || len(v.Edges) != 12 {
		return false
	}
	for _, c := range v.Corners {
		for i, f := range c.Position {
			if c.Colors[i] != SolvedColor(f) {
				return false
			}
		}
	}
	for _, e := range v.Edges {
		for i, f := range e.Position {
			if e.Colors[i] != SolvedColor(f) {
				return false
			}
		}
	}
	return true
}

// Project maps a raw state onto the visible colors of every slot. A zero
// RawState projects to a zero VisibleState. Anything else is validated first
// so that a corrupt snapshot surfaces as ErrIntegrity instead of a
// nonsensical cube.
func Project(r RawState) (VisibleState, error) {
	if r.IsZero() {
		return VisibleState{}, nil
	}
	if err := Validate(r); err != nil {
		return VisibleState{}, err
	}
	return project(r), nil
}

// project assumes r has passed Validate.
func project(r RawState) VisibleState {
	v := VisibleState{
		Corners: make([]Corner, len(r.CornerPositions)),
		Edges:   make([]Edge, len(r.EdgePositions)),
	}
	for i, piece := range r.CornerPositions {
		v.Corners[i] = Corner{
			Position: cornerSlots[i],
			Colors:   rotateCorner(cornerColors[piece-1], CorrectOrientation(i, r.CornerOrientations[i])),
		}
	}
	for i, piece := range r.EdgePositions {
		v.Edges[i] = Edge{
			Position: edgeSlots[i],
			Colors:   flipEdge(edgeColors[piece-1], r.EdgeOrientations[i]),
		}
	}
	return v
}

// rotateCorner rotates a color triple left by the rotation class:
// 1 by one, 2 by two, 3 not at all.
func rotateCorner(c [3]Color, class int) [3]Color {
	switch class {
	case 1:
		return [3]Color{c[1], c[2], c[0]}
	case 2:
		return [3]Color{c[2], c[0], c[1]}
	default:
		return c
	}
}

func flipEdge(c [2]Color, flipped bool) [2]Color {
	if flipped {
		return [2]Color{c[1], c[0]}
	}
	return c
}
