package storage

import (
	"fmt"
	"time"

	"github.com/SeamusWaldron/giiker_ble_library"
)

// MoveRecord represents a move in the database.
type MoveRecord struct {
	MoveID        int64
	RecordingID   string
	MoveIndex     int
	TsMs          int64
	Face          string
	Turn          int
	Notation      string
	SourceFrameID *int64
}

// Move converts the record back to a giiker.Move.
func (m MoveRecord) Move() giiker.Move {
	return giiker.Move{
		Face: giiker.Face(m.Face),
		Turn: giiker.Turn(m.Turn),
		Time: time.UnixMilli(m.TsMs),
	}
}

// MoveRepository provides CRUD operations for moves.
type MoveRepository struct {
	db *DB
}

// NewMoveRepository creates a new move repository.
func NewMoveRepository(db *DB) *MoveRepository {
	return &MoveRepository{db: db}
}

// Create creates a new move and returns its ID.
func (r *MoveRepository) Create(recordingID string, moveIndex int, move giiker.Move, sourceFrameID *int64) (int64, error) {
	result, err := r.db.Exec(`
		INSERT INTO moves (recording_id, move_index, ts_ms, face, turn, notation, source_frame_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, recordingID, moveIndex, move.Time.UnixMilli(), string(move.Face), int(move.Turn), move.Notation(), sourceFrameID)

	if err != nil {
		return 0, fmt.Errorf("failed to create move: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get move ID: %w", err)
	}

	return id, nil
}

// GetByRecording retrieves all moves of a recording in order.
func (r *MoveRepository) GetByRecording(recordingID string) ([]MoveRecord, error) {
	rows, err := r.db.Query(`
		SELECT move_id, recording_id, move_index, ts_ms, face, turn, notation, source_frame_id
		FROM moves
		WHERE recording_id = ?
		ORDER BY move_index
	`, recordingID)

	if err != nil {
		return nil, fmt.Errorf("failed to get moves: %w", err)
	}
	defer rows.Close()

	var moves []MoveRecord
	for rows.Next() {
		var m MoveRecord
		err := rows.Scan(&m.MoveID, &m.RecordingID, &m.MoveIndex, &m.TsMs, &m.Face, &m.Turn, &m.Notation, &m.SourceFrameID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan move: %w", err)
		}
		moves = append(moves, m)
	}

	return moves, rows.Err()
}

// Count returns the number of moves in a recording.
func (r *MoveRepository) Count(recordingID string) (int, error) {
	var n int
	err := r.db.QueryRow("SELECT COUNT(*) FROM moves WHERE recording_id = ?", recordingID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count moves: %w", err)
	}
	return n, nil
}
