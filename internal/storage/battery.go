package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// BatteryReading is one battery level answer from a cube.
type BatteryReading struct {
	ReadingID   int64
	RecordingID *string
	DeviceName  *string
	TsMs        int64
	Level       int
}

// BatteryRepository stores battery readings.
type BatteryRepository struct {
	db *DB
}

// NewBatteryRepository creates a new battery repository.
func NewBatteryRepository(db *DB) *BatteryRepository {
	return &BatteryRepository{db: db}
}

// Create stores a reading. recordingID may be empty for readings taken
// outside a recording.
func (r *BatteryRepository) Create(recordingID, deviceName string, ts time.Time, level int) (int64, error) {
	result, err := r.db.Exec(`
		INSERT INTO battery_readings (recording_id, device_name, ts_ms, level)
		VALUES (?, ?, ?, ?)
	`, optional(recordingID), optional(deviceName), ts.UnixMilli(), level)

	if err != nil {
		return 0, fmt.Errorf("failed to create battery reading: %w", err)
	}

	return result.LastInsertId()
}

// Latest returns the most recent reading, or nil if none was stored.
func (r *BatteryRepository) Latest() (*BatteryReading, error) {
	var b BatteryReading
	err := r.db.QueryRow(`
		SELECT reading_id, recording_id, device_name, ts_ms, level
		FROM battery_readings
		ORDER BY ts_ms DESC, reading_id DESC
		LIMIT 1
	`).Scan(&b.ReadingID, &b.RecordingID, &b.DeviceName, &b.TsMs, &b.Level)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get battery reading: %w", err)
	}
	return &b, nil
}
