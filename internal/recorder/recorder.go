package recorder

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/SeamusWaldron/giiker_ble_library"
	"github.com/SeamusWaldron/giiker_ble_library/internal/storage"
)

// Errors
var (
	ErrAlreadyRecording = errors.New("recorder: recording already in progress")
	ErrNotRecording     = errors.New("recorder: no recording in progress")
)

// State represents the current state of a recorder.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateEnded
)

// String returns the string representation of the recorder state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Recorder writes the frames and moves of a live session to the database.
// Feed it from giiker.Session.OnFrame.
type Recorder struct {
	stateFile *StateFile
	log       *zap.Logger

	mu          sync.RWMutex
	state       State
	recordingID string
	deviceName  string
	startTime   time.Time
	frameSeq    int
	moveIndex   int
	rejected    int

	// Repositories
	recordingRepo *storage.RecordingRepository
	frameRepo     *storage.FrameRepository
	moveRepo      *storage.MoveRepository
	batteryRepo   *storage.BatteryRepository
}

// New creates a recorder. stateFile may be nil.
func New(db *storage.DB, stateFile *StateFile, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{
		stateFile:     stateFile,
		log:           log.Named("recorder"),
		state:         StateIdle,
		recordingRepo: storage.NewRecordingRepository(db),
		frameRepo:     storage.NewFrameRepository(db),
		moveRepo:      storage.NewMoveRepository(db),
		batteryRepo:   storage.NewBatteryRepository(db),
	}
}

// State returns the current recorder state.
func (r *Recorder) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// RecordingID returns the current recording ID.
func (r *Recorder) RecordingID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.recordingID
}

// Elapsed returns the time since the recording started.
func (r *Recorder) Elapsed() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.state != StateRecording {
		return 0
	}
	return time.Since(r.startTime)
}

// MoveCount returns the number of moves recorded so far.
func (r *Recorder) MoveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.moveIndex
}

// RejectedCount returns the number of recorded frames the session rejected.
func (r *Recorder) RejectedCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rejected
}

// Start begins a new recording. initial is the frame the session started
// from, kept so the recording can be replayed.
func (r *Recorder) Start(deviceName, deviceID, notes string, initial []byte) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateRecording {
		return "", ErrAlreadyRecording
	}

	id, err := r.recordingRepo.Create(deviceName, deviceID, notes, initial)
	if err != nil {
		return "", fmt.Errorf("failed to create recording: %w", err)
	}

	r.recordingID = id
	r.deviceName = deviceName
	r.startTime = time.Now()
	r.frameSeq = 0
	r.moveIndex = 0
	r.rejected = 0
	r.state = StateRecording

	if r.stateFile != nil {
		if err := r.stateFile.SetActiveRecording(id); err != nil {
			r.log.Warn("failed to update state file", zap.Error(err))
		}
	}

	r.log.Info("recording started", zap.String("recording_id", id), zap.String("device", deviceName))
	return id, nil
}

// End ends the current recording.
func (r *Recorder) End() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRecording {
		return ErrNotRecording
	}

	if err := r.recordingRepo.End(r.recordingID); err != nil {
		return fmt.Errorf("failed to end recording: %w", err)
	}

	r.state = StateEnded

	if r.stateFile != nil {
		if err := r.stateFile.ClearActiveRecording(); err != nil {
			r.log.Warn("failed to update state file", zap.Error(err))
		}
	}

	r.log.Info("recording ended",
		zap.String("recording_id", r.recordingID),
		zap.Int("frames", r.frameSeq),
		zap.Int("moves", r.moveIndex),
		zap.Int("rejected", r.rejected))
	return nil
}

// HandleFrame stores a processed frame and the move it carried. Frames that
// arrive while not recording are ignored.
func (r *Recorder) HandleFrame(f giiker.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRecording {
		return nil
	}

	frameID, err := r.frameRepo.Create(r.recordingID, r.frameSeq, f.Time, f.Data, f.Err)
	if err != nil {
		return fmt.Errorf("failed to store frame: %w", err)
	}
	r.frameSeq++
	if f.Err != nil {
		r.rejected++
	}

	if f.Move != nil {
		if _, err := r.moveRepo.Create(r.recordingID, r.moveIndex, *f.Move, &frameID); err != nil {
			return fmt.Errorf("failed to store move: %w", err)
		}
		r.moveIndex++
	}

	return nil
}

// RecordBattery stores a battery reading against the current recording, if
// any.
func (r *Recorder) RecordBattery(level int) error {
	r.mu.RLock()
	recordingID, deviceName := "", r.deviceName
	if r.state == StateRecording {
		recordingID = r.recordingID
	}
	r.mu.RUnlock()

	if _, err := r.batteryRepo.Create(recordingID, deviceName, time.Now(), level); err != nil {
		return err
	}
	if r.stateFile != nil {
		if err := r.stateFile.SetLastBattery(level); err != nil {
			r.log.Warn("failed to update state file", zap.Error(err))
		}
	}
	return nil
}
