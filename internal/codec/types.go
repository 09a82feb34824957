package codec

import (
	"strings"
	"time"

	"github.com/SeamusWaldron/giiker_ble_library"
)

// Move is the encoded form of a giiker.Move.
type Move struct {
	Face     string `json:"face"`
	Turn     int    `json:"turn"`
	Notation string `json:"notation"`
	TsMs     int64  `json:"ts_ms,omitempty"`
}

// FromMove encodes m.
func FromMove(m giiker.Move) Move {
	out := Move{
		Face:     string(m.Face),
		Turn:     int(m.Turn),
		Notation: m.Notation(),
	}
	if !m.Time.IsZero() {
		out.TsMs = m.Time.UnixMilli()
	}
	return out
}

// Piece is one corner or edge slot: its faces and the colors showing on
// them, in the same order.
type Piece struct {
	Slot   string   `json:"slot"`
	Colors []string `json:"colors"`
}

// State is the encoded form of a giiker.VisibleState.
type State struct {
	Corners  []Piece `json:"corners"`
	Edges    []Piece `json:"edges"`
	Facelets string  `json:"facelets,omitempty"`
	Solved   bool    `json:"solved"`
}

// FromState encodes v. Facelets holds the 54-letter net in URFDLB order.
func FromState(v giiker.VisibleState) State {
	out := State{
		Corners: make([]Piece, 0, len(v.Corners)),
		Edges:   make([]Piece, 0, len(v.Edges)),
		Solved:  v.IsSolved(),
	}
	for _, c := range v.Corners {
		out.Corners = append(out.Corners, piece(c.Position[:], c.Colors[:]))
	}
	for _, e := range v.Edges {
		out.Edges = append(out.Edges, piece(e.Position[:], e.Colors[:]))
	}
	if !v.IsZero() {
		out.Facelets = v.Facelets().Definition()
	}
	return out
}

func piece(faces []giiker.Face, colors []giiker.Color) Piece {
	var slot strings.Builder
	for _, f := range faces {
		slot.WriteString(string(f))
	}
	p := Piece{Slot: slot.String(), Colors: make([]string, len(colors))}
	for i, c := range colors {
		p.Colors[i] = c.String()
	}
	return p
}

// Event types
const (
	EventMove       = "move"
	EventState      = "state"
	EventError      = "error"
	EventBattery    = "battery"
	EventDisconnect = "disconnect"
)

// Event is one message on the live stream.
type Event struct {
	Type    string `json:"type"`
	TsMs    int64  `json:"ts_ms"`
	Move    *Move  `json:"move,omitempty"`
	State   *State `json:"state,omitempty"`
	Frame   string `json:"frame,omitempty"`
	Error   string `json:"error,omitempty"`
	Battery *int   `json:"battery,omitempty"`
}

// NewEvent returns an event of the given type stamped with t.
func NewEvent(typ string, t time.Time) Event {
	return Event{Type: typ, TsMs: t.UnixMilli()}
}

// Recording is the exported form of a stored recording.
type Recording struct {
	ID         string `json:"id"`
	Device     string `json:"device,omitempty"`
	StartedAt  string `json:"started_at"`
	EndedAt    string `json:"ended_at,omitempty"`
	DurationMs int64  `json:"duration_ms,omitempty"`
	Frames     int    `json:"frames"`
	Rejected   int    `json:"rejected"`
	Moves      []Move `json:"moves"`
	Final      *State `json:"final,omitempty"`
}
