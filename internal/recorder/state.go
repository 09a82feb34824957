// Package recorder persists live cube sessions to the database.
package recorder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// AppState represents the persistent application state.
type AppState struct {
	ActiveRecordingID string `json:"active_recording_id,omitempty"`
	LastDeviceID      string `json:"last_device_id,omitempty"`
	LastDeviceName    string `json:"last_device_name,omitempty"`
	LastBattery       *int   `json:"last_battery,omitempty"`
}

// StateFile manages the application state file.
type StateFile struct {
	path  string
	state AppState
}

// DefaultStatePath returns the default state file path.
func DefaultStatePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".giiker", "state.json"), nil
}

// NewStateFile creates a new state file manager. A missing file is an
// empty state.
func NewStateFile(path string) (*StateFile, error) {
	sf := &StateFile{path: path}

	if err := sf.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	return sf, nil
}

// Path returns the state file path.
func (sf *StateFile) Path() string {
	return sf.path
}

// Load loads the state from disk.
func (sf *StateFile) Load() error {
	data, err := os.ReadFile(sf.path)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, &sf.state); err != nil {
		return fmt.Errorf("failed to parse state file: %w", err)
	}
	return nil
}

// Save saves the state to disk.
func (sf *StateFile) Save() error {
	data, err := json.MarshalIndent(sf.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(sf.path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := os.WriteFile(sf.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	return nil
}

// State returns the current state.
func (sf *StateFile) State() AppState {
	return sf.state
}

// SetActiveRecording sets the active recording ID.
func (sf *StateFile) SetActiveRecording(recordingID string) error {
	sf.state.ActiveRecordingID = recordingID
	return sf.Save()
}

// ClearActiveRecording clears the active recording ID.
func (sf *StateFile) ClearActiveRecording() error {
	sf.state.ActiveRecordingID = ""
	return sf.Save()
}

// SetLastDevice sets the last connected device.
func (sf *StateFile) SetLastDevice(deviceID, deviceName string) error {
	sf.state.LastDeviceID = deviceID
	sf.state.LastDeviceName = deviceName
	return sf.Save()
}

// SetLastBattery records the last battery level read.
func (sf *StateFile) SetLastBattery(level int) error {
	sf.state.LastBattery = &level
	return sf.Save()
}

// HasActiveRecording returns true if a recording was left running.
func (sf *StateFile) HasActiveRecording() bool {
	return sf.state.ActiveRecordingID != ""
}
