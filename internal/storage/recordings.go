package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Recording is one recorded session with a cube.
type Recording struct {
	RecordingID  string
	StartedAt    time.Time
	EndedAt      *time.Time
	DurationMs   *int64
	DeviceName   *string
	DeviceID     *string
	Notes        *string
	InitialFrame []byte
}

// RecordingRepository provides CRUD operations for recordings.
type RecordingRepository struct {
	db *DB
}

// NewRecordingRepository creates a new recording repository.
func NewRecordingRepository(db *DB) *RecordingRepository {
	return &RecordingRepository{db: db}
}

// timeFormat keeps a fixed number of fractional digits so timestamps sort
// as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Create creates a new recording and returns its ID. initialFrame is the
// state the session started from.
func (r *RecordingRepository) Create(deviceName, deviceID, notes string, initialFrame []byte) (string, error) {
	id := uuid.New().String()
	startedAt := time.Now().UTC()

	_, err := r.db.Exec(`
		INSERT INTO recordings (recording_id, started_at, device_name, device_id, notes, initial_frame)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, startedAt.Format(timeFormat), optional(deviceName), optional(deviceID), optional(notes), initialFrame)

	if err != nil {
		return "", fmt.Errorf("failed to create recording: %w", err)
	}

	return id, nil
}

// End marks a recording as complete.
func (r *RecordingRepository) End(recordingID string) error {
	endedAt := time.Now().UTC()

	// Get start time to calculate duration
	var startedAtStr string
	err := r.db.QueryRow("SELECT started_at FROM recordings WHERE recording_id = ?", recordingID).Scan(&startedAtStr)
	if err != nil {
		return fmt.Errorf("failed to get recording start time: %w", err)
	}

	startedAt, err := time.Parse(time.RFC3339Nano, startedAtStr)
	if err != nil {
		return fmt.Errorf("failed to parse start time: %w", err)
	}

	_, err = r.db.Exec(`
		UPDATE recordings
		SET ended_at = ?, duration_ms = ?
		WHERE recording_id = ?
	`, endedAt.Format(timeFormat), endedAt.Sub(startedAt).Milliseconds(), recordingID)

	if err != nil {
		return fmt.Errorf("failed to end recording: %w", err)
	}

	return nil
}

const recordingColumns = `recording_id, started_at, ended_at, duration_ms, device_name, device_id, notes, initial_frame`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecording(row rowScanner) (*Recording, error) {
	var rec Recording
	var startedAtStr string
	var endedAtStr sql.NullString

	err := row.Scan(
		&rec.RecordingID, &startedAtStr, &endedAtStr, &rec.DurationMs,
		&rec.DeviceName, &rec.DeviceID, &rec.Notes, &rec.InitialFrame,
	)
	if err != nil {
		return nil, err
	}

	rec.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAtStr)
	if endedAtStr.Valid {
		t, _ := time.Parse(time.RFC3339Nano, endedAtStr.String)
		rec.EndedAt = &t
	}
	return &rec, nil
}

// Get retrieves a recording by ID. It returns nil, nil when there is none.
func (r *RecordingRepository) Get(recordingID string) (*Recording, error) {
	rec, err := scanRecording(r.db.QueryRow(`
		SELECT `+recordingColumns+`
		FROM recordings
		WHERE recording_id = ?
	`, recordingID))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recording: %w", err)
	}
	return rec, nil
}

// GetLast retrieves the most recent recording.
func (r *RecordingRepository) GetLast() (*Recording, error) {
	rec, err := scanRecording(r.db.QueryRow(`
		SELECT ` + recordingColumns + `
		FROM recordings
		ORDER BY started_at DESC
		LIMIT 1
	`))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last recording: %w", err)
	}
	return rec, nil
}

// List retrieves recent recordings, newest first.
func (r *RecordingRepository) List(limit int) ([]Recording, error) {
	rows, err := r.db.Query(`
		SELECT `+recordingColumns+`
		FROM recordings
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)

	if err != nil {
		return nil, fmt.Errorf("failed to list recordings: %w", err)
	}
	defer rows.Close()

	var recordings []Recording
	for rows.Next() {
		rec, err := scanRecording(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recording: %w", err)
		}
		recordings = append(recordings, *rec)
	}

	return recordings, rows.Err()
}

// Count returns the number of recordings.
func (r *RecordingRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM recordings").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count recordings: %w", err)
	}
	return n, nil
}

// Delete deletes a recording and all related data (cascading).
func (r *RecordingRepository) Delete(recordingID string) error {
	_, err := r.db.Exec("DELETE FROM recordings WHERE recording_id = ?", recordingID)
	if err != nil {
		return fmt.Errorf("failed to delete recording: %w", err)
	}
	return nil
}
