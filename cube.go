package giiker

import "strings"

// NetFaces is the face order of Cube.Facelets.
var NetFaces = [6]Face{FaceU, FaceR, FaceF, FaceD, FaceL, FaceB}

// Unknown marks a facelet with no data.
const Unknown Color = 0xFF

// Cube is the 54-facelet net of a cube state. Each face has 9 facelets
// indexed as:
//
//	0 1 2
//	3 4 5
//	6 7 8
//
// U is viewed from above with B at the top, D from below with F at the top,
// and the side faces from the outside with U at the top.
type Cube struct {
	// Facelets[face][position] = color, faces in NetFaces order
	Facelets [6][9]Color
}

// faceFrame names the neighbors sitting above, below, left and right of a
// face as it is drawn in the net.
type faceFrame struct {
	top, bottom, left, right Face
}

var netFrames = map[Face]faceFrame{
	FaceU: {top: FaceB, bottom: FaceF, left: FaceL, right: FaceR},
	FaceR: {top: FaceU, bottom: FaceD, left: FaceF, right: FaceB},
	FaceF: {top: FaceU, bottom: FaceD, left: FaceL, right: FaceR},
	FaceD: {top: FaceF, bottom: FaceB, left: FaceL, right: FaceR},
	FaceL: {top: FaceU, bottom: FaceD, left: FaceB, right: FaceF},
	FaceB: {top: FaceU, bottom: FaceD, left: FaceR, right: FaceL},
}

func netIndex(f Face) int {
	for i, nf := range NetFaces {
		if nf == f {
			return i
		}
	}
	return -1
}

// faceletIndex returns where the sticker on face f of a piece touching the
// given neighbor faces sits within f.
func faceletIndex(f Face, neighbors ...Face) int {
	frame := netFrames[f]
	row, col := 1, 1
	for _, n := range neighbors {
		switch n {
		case frame.top:
			row = 0
		case frame.bottom:
			row = 2
		case frame.left:
			col = 0
		case frame.right:
			col = 2
		}
	}
	return row*3 + col
}

// Facelets lays the visible state out as a 54-facelet net. Centers always
// show their solved color; a zero state leaves the rest Unknown.
func (v VisibleState) Facelets() *Cube {
	c := &Cube{}
	for i, f := range NetFaces {
		for j := range c.Facelets[i] {
			c.Facelets[i][j] = Unknown
		}
		c.Facelets[i][4] = SolvedColor(f)
	}

	for _, corner := range v.Corners {
		p := corner.Position
		for k := 0; k < 3; k++ {
			f := p[k]
			c.Facelets[netIndex(f)][faceletIndex(f, p[(k+1)%3], p[(k+2)%3])] = corner.Colors[k]
		}
	}
	for _, edge := range v.Edges {
		p := edge.Position
		c.Facelets[netIndex(p[0])][faceletIndex(p[0], p[1])] = edge.Colors[0]
		c.Facelets[netIndex(p[1])][faceletIndex(p[1], p[0])] = edge.Colors[1]
	}
	return c
}

// Face returns the 9 facelets of face f.
func (c *Cube) Face(f Face) [9]Color {
	return c.Facelets[netIndex(f)]
}

// IsSolved returns true if every face is a single color matching its center.
func (c *Cube) IsSolved() bool {
	for i := range c.Facelets {
		center := c.Facelets[i][4]
		for _, col := range c.Facelets[i] {
			if col != center {
				return false
			}
		}
	}
	return true
}

// String returns a text representation of the net.
func (c *Cube) String() string {
	var b strings.Builder

	row := func(f Face, r int) {
		face := c.Face(f)
		for col := 0; col < 3; col++ {
			b.WriteString(face[r*3+col].Letter())
			b.WriteString(" ")
		}
	}

	// U face (indented)
	for r := 0; r < 3; r++ {
		b.WriteString("      ")
		row(FaceU, r)
		b.WriteString("\n")
	}

	// L, F, R, B faces (side by side)
	for r := 0; r < 3; r++ {
		for _, f := range []Face{FaceL, FaceF, FaceR, FaceB} {
			row(f, r)
		}
		b.WriteString("\n")
	}

	// D face (indented)
	for r := 0; r < 3; r++ {
		b.WriteString("      ")
		row(FaceD, r)
		b.WriteString("\n")
	}

	return b.String()
}

// Definition returns the net as a 54-letter string of face letters in
// URFDLB order, the format most solvers and cube renderers accept.
func (c *Cube) Definition() string {
	var b strings.Builder
	for i := range c.Facelets {
		for _, col := range c.Facelets[i] {
			b.WriteString(faceOfColor(col))
		}
	}
	return b.String()
}

func faceOfColor(col Color) string {
	for i, sc := range solvedColors {
		if sc == col {
			return string(wireFaces[i])
		}
	}
	return "?"
}
