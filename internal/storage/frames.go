package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// FrameRecord is one raw state notification as it arrived.
type FrameRecord struct {
	FrameID     int64
	RecordingID string
	Seq         int
	TsMs        int64
	Data        []byte
	Error       *string // Why the session rejected the frame, if it did
}

// Time returns the arrival time of the frame.
func (f FrameRecord) Time() time.Time {
	return time.UnixMilli(f.TsMs)
}

// FrameRepository provides CRUD operations for frames.
type FrameRepository struct {
	db *DB
}

// NewFrameRepository creates a new frame repository.
func NewFrameRepository(db *DB) *FrameRepository {
	return &FrameRepository{db: db}
}

// Create stores a frame and returns its ID.
func (r *FrameRepository) Create(recordingID string, seq int, ts time.Time, data []byte, frameErr error) (int64, error) {
	var errText *string
	if frameErr != nil {
		s := frameErr.Error()
		errText = &s
	}

	result, err := r.db.Exec(`
		INSERT INTO frames (recording_id, seq, ts_ms, data, error)
		VALUES (?, ?, ?, ?, ?)
	`, recordingID, seq, ts.UnixMilli(), data, errText)

	if err != nil {
		return 0, fmt.Errorf("failed to create frame: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get frame ID: %w", err)
	}

	return id, nil
}

// GetByRecording retrieves all frames of a recording in arrival order.
func (r *FrameRepository) GetByRecording(recordingID string) ([]FrameRecord, error) {
	rows, err := r.db.Query(`
		SELECT frame_id, recording_id, seq, ts_ms, data, error
		FROM frames
		WHERE recording_id = ?
		ORDER BY seq
	`, recordingID)

	if err != nil {
		return nil, fmt.Errorf("failed to get frames: %w", err)
	}
	defer rows.Close()

	var frames []FrameRecord
	for rows.Next() {
		var f FrameRecord
		var errText sql.NullString
		if err := rows.Scan(&f.FrameID, &f.RecordingID, &f.Seq, &f.TsMs, &f.Data, &errText); err != nil {
			return nil, fmt.Errorf("failed to scan frame: %w", err)
		}
		if errText.Valid {
			f.Error = &errText.String
		}
		frames = append(frames, f)
	}

	return frames, rows.Err()
}

// CountRejected returns how many frames of a recording the session rejected.
func (r *FrameRepository) CountRejected(recordingID string) (int, error) {
	var n int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM frames
		WHERE recording_id = ? AND error IS NOT NULL
	`, recordingID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count rejected frames: %w", err)
	}
	return n, nil
}
