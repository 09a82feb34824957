// Package protocol defines the GATT layout and system commands of Giiker
// cubes, plus the hex text form of frames used by bridges and the CLI.
package protocol

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Giiker BLE service and characteristic UUIDs
const (
	ServiceUUID        = "0000aadb-0000-1000-8000-00805f9b34fb"
	StateCharUUID      = "0000aadc-0000-1000-8000-00805f9b34fb" // Read, Notify
	SystemServiceUUID  = "0000aaaa-0000-1000-8000-00805f9b34fb"
	SystemReadCharUUID = "0000aaab-0000-1000-8000-00805f9b34fb" // Notify
	SystemWriteUUID    = "0000aaac-0000-1000-8000-00805f9b34fb" // Write
)

// System commands
const (
	CmdBattery byte = 0xB5
)

// System reply errors
var (
	ErrShortReply = errors.New("protocol: reply too short")
	ErrLevelRange = errors.New("protocol: battery level out of range")
)

// MaxBatteryLevel is the highest percentage a battery reply may carry.
const MaxBatteryLevel = 100

// DecodeBattery decodes a reply to CmdBattery. The level is byte 1, a
// percentage; anything above MaxBatteryLevel is rejected.
func DecodeBattery(reply []byte) (int, error) {
	if len(reply) < 2 {
		return 0, fmt.Errorf("%w: battery reply has %d bytes", ErrShortReply, len(reply))
	}
	level := int(reply[1])
	if level > MaxBatteryLevel {
		return 0, fmt.Errorf("%w: %d", ErrLevelRange, level)
	}
	return level, nil
}

// ParseHex parses a frame written as hex. Whitespace, colons and dashes
// between bytes are ignored, as is an optional 0x prefix.
func ParseHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', ':', '-':
			return -1
		}
		return r
	}, s)
	data, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("protocol: invalid hex frame: %w", err)
	}
	return data, nil
}

// FormatHex writes a frame as space-separated upper-case hex bytes.
func FormatHex(data []byte) string {
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, " ")
}
