package giiker

import (
	"errors"
	"fmt"
)

// Sentinel errors for the giiker package.
var (
	// Decoding errors
	ErrMalformedFrame  = errors.New("giiker: malformed frame")
	ErrIntegrity       = errors.New("giiker: integrity violation")
	ErrUnknownTurnCode = errors.New("giiker: unknown turn code")
	ErrUnknownFace     = errors.New("giiker: unknown face index")

	// Connection errors
	ErrTransport      = errors.New("giiker: transport failure")
	ErrNotConnected   = errors.New("giiker: not connected to device")
	ErrAlreadyStarted = errors.New("giiker: session already started")
	ErrDisconnected   = errors.New("giiker: device disconnected")
	ErrDeviceNotFound = errors.New("giiker: device not found")
	ErrTimeout        = errors.New("giiker: operation timed out")
	ErrBatteryBusy    = errors.New("giiker: battery request already in flight")

	// Parsing errors
	ErrInvalidNotation = errors.New("giiker: invalid move notation")
)

// FrameError reports a frame the session could not apply. The session keeps
// its previous state when one of these is raised.
type FrameError struct {
	Frame []byte
	Err   error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame % X: %v", e.Frame, e.Err)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}
