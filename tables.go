package giiker

// Color represents a sticker color.
type Color byte

const (
	Blue   Color = 0
	Yellow Color = 1
	Orange Color = 2
	White  Color = 3
	Red    Color = 4
	Green  Color = 5
)

func (c Color) String() string {
	switch c {
	case Blue:
		return "blue"
	case Yellow:
		return "yellow"
	case Orange:
		return "orange"
	case White:
		return "white"
	case Red:
		return "red"
	case Green:
		return "green"
	default:
		return "unknown"
	}
}

// Letter returns the single-letter abbreviation used in text nets.
func (c Color) Letter() string {
	switch c {
	case Blue:
		return "B"
	case Yellow:
		return "Y"
	case Orange:
		return "O"
	case White:
		return "W"
	case Red:
		return "R"
	case Green:
		return "G"
	default:
		return "?"
	}
}

// Faces in wire order. The cube reports faces 1-based against this table.
var wireFaces = [6]Face{FaceB, FaceD, FaceL, FaceU, FaceR, FaceF}

// Colors are index-aligned with wireFaces: a solved cube shows solvedColors[i]
// on wireFaces[i].
var solvedColors = [6]Color{Blue, Yellow, Orange, White, Red, Green}

// turnAmounts maps the raw turn nibble to a signed turn amount.
var turnAmounts = map[byte]Turn{
	0: CW,
	1: Double,
	2: CCW,
	8: DoubleCCW,
}

// cornerSlots lists the faces of each physical corner location.
var cornerSlots = [8][3]Face{
	{FaceD, FaceR, FaceF},
	{FaceR, FaceU, FaceF},
	{FaceU, FaceL, FaceF},
	{FaceL, FaceD, FaceF},
	{FaceR, FaceD, FaceB},
	{FaceU, FaceR, FaceB},
	{FaceL, FaceU, FaceB},
	{FaceD, FaceL, FaceB},
}

// cornerColors lists the home colors of corner pieces 1..8, in the face
// order of their home slot.
var cornerColors = [8][3]Color{
	{Yellow, Red, Green},
	{Red, White, Green},
	{White, Orange, Green},
	{Orange, Yellow, Green},
	{Red, Yellow, Blue},
	{White, Red, Blue},
	{Orange, White, Blue},
	{Yellow, Orange, Blue},
}

var edgeSlots = [12][2]Face{
	{FaceF, FaceD},
	{FaceF, FaceR},
	{FaceF, FaceU},
	{FaceF, FaceL},
	{FaceD, FaceR},
	{FaceU, FaceR},
	{FaceU, FaceL},
	{FaceD, FaceL},
	{FaceB, FaceD},
	{FaceB, FaceR},
	{FaceB, FaceU},
	{FaceB, FaceL},
}

var edgeColors = [12][2]Color{
	{Green, Yellow},
	{Green, Red},
	{Green, White},
	{Green, Orange},
	{Yellow, Red},
	{White, Red},
	{White, Orange},
	{Yellow, Orange},
	{Blue, Yellow},
	{Blue, Red},
	{Blue, White},
	{Blue, Orange},
}

// SolvedColor returns the color a face shows when the cube is solved.
func SolvedColor(f Face) Color {
	for i, wf := range wireFaces {
		if wf == f {
			return solvedColors[i]
		}
	}
	return Color(0xFF)
}

// CornerSlotFaces returns the faces of corner slot i (0-7).
func CornerSlotFaces(i int) [3]Face {
	return cornerSlots[i]
}

// EdgeSlotFaces returns the faces of edge slot i (0-11).
func EdgeSlotFaces(i int) [2]Face {
	return edgeSlots[i]
}

// CornerPieceColors returns the home colors of corner piece p (1-8).
func CornerPieceColors(p int) [3]Color {
	return cornerColors[p-1]
}

// EdgePieceColors returns the home colors of edge piece p (1-12).
func EdgePieceColors(p int) [2]Color {
	return edgeColors[p-1]
}
