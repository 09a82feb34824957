// Package ble provides low-level BLE communication with Giiker devices.
package ble

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"tinygo.org/x/bluetooth"

	"github.com/SeamusWaldron/giiker_ble_library/internal/protocol"
)

// Errors
var (
	ErrNotConnected     = errors.New("ble: not connected to device")
	ErrAlreadyConnected = errors.New("ble: already connected to a device")
	ErrDeviceNotFound   = errors.New("ble: device not found")
	ErrServiceNotFound  = errors.New("ble: service not found")
)

// BLE UUIDs
var (
	serviceUUID       = mustParseUUID(protocol.ServiceUUID)
	stateCharUUID     = mustParseUUID(protocol.StateCharUUID)
	systemServiceUUID = mustParseUUID(protocol.SystemServiceUUID)
	systemReadUUID    = mustParseUUID(protocol.SystemReadCharUUID)
	systemWriteUUID   = mustParseUUID(protocol.SystemWriteUUID)
)

func mustParseUUID(s string) bluetooth.UUID {
	uuid, err := bluetooth.ParseUUID(s)
	if err != nil {
		panic(fmt.Sprintf("ble: invalid uuid %q: %v", s, err))
	}
	return uuid
}

// ScanResult represents a discovered Giiker device.
type ScanResult struct {
	Name    string
	UUID    string
	RSSI    int16
	Address bluetooth.Address
}

// Client manages the BLE connection to one Giiker device. A connected
// Client satisfies giiker.Transport.
type Client struct {
	adapter *bluetooth.Adapter
	log     *zap.Logger

	device      bluetooth.Device
	stateChar   bluetooth.DeviceCharacteristic
	systemRead  bluetooth.DeviceCharacteristic
	systemWrite bluetooth.DeviceCharacteristic

	mu         sync.RWMutex
	connected  bool
	deviceName string
	deviceUUID string

	onDisconnect func(error)
}

// NewClient creates a new BLE client for Giiker communication.
func NewClient(log *zap.Logger) (*Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	adapter := bluetooth.DefaultAdapter
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("failed to enable BLE adapter: %w", err)
	}

	c := &Client{
		adapter: adapter,
		log:     log.Named("ble"),
	}
	adapter.SetConnectHandler(c.handleConnect)
	return c, nil
}

// Scan scans for devices whose advertised name starts with prefix
// (case-insensitive) until the timeout elapses or ctx is done.
func (c *Client) Scan(ctx context.Context, prefix string, timeout time.Duration) ([]ScanResult, error) {
	c.mu.RLock()
	if c.connected {
		c.mu.RUnlock()
		return nil, ErrAlreadyConnected
	}
	c.mu.RUnlock()

	var results []ScanResult
	var mu sync.Mutex
	seen := make(map[string]bool)
	prefix = strings.ToLower(prefix)

	done := make(chan error, 1)

	go func() {
		done <- c.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
			name := result.LocalName()
			addr := result.Address.String()

			mu.Lock()
			defer mu.Unlock()
			if seen[addr] || !strings.HasPrefix(strings.ToLower(name), prefix) {
				return
			}
			seen[addr] = true
			results = append(results, ScanResult{
				Name:    name,
				UUID:    addr,
				RSSI:    result.RSSI,
				Address: result.Address,
			})
			c.log.Debug("device found", zap.String("name", name), zap.String("address", addr), zap.Int16("rssi", result.RSSI))
		})
	}()

	select {
	case <-time.After(timeout):
	case <-ctx.Done():
	}

	c.adapter.StopScan()
	if err := <-done; err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	return results, nil
}

// Connect connects to a device found by Scan and discovers the state and
// system characteristics.
func (c *Client) Connect(ctx context.Context, result ScanResult) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	device, err := c.adapter.Connect(result.Address, bluetooth.ConnectionParams{})
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	services, err := device.DiscoverServices([]bluetooth.UUID{serviceUUID, systemServiceUUID})
	if err != nil {
		device.Disconnect()
		return fmt.Errorf("failed to discover services: %w", err)
	}

	var stateChar, systemRead, systemWrite bluetooth.DeviceCharacteristic
	var haveState, haveSystemRead, haveSystemWrite bool
	for _, svc := range services {
		switch svc.UUID() {
		case serviceUUID:
			chars, err := svc.DiscoverCharacteristics([]bluetooth.UUID{stateCharUUID})
			if err != nil {
				device.Disconnect()
				return fmt.Errorf("failed to discover characteristics: %w", err)
			}
			for _, ch := range chars {
				if ch.UUID() == stateCharUUID {
					stateChar, haveState = ch, true
				}
			}
		case systemServiceUUID:
			chars, err := svc.DiscoverCharacteristics([]bluetooth.UUID{systemReadUUID, systemWriteUUID})
			if err != nil {
				device.Disconnect()
				return fmt.Errorf("failed to discover characteristics: %w", err)
			}
			for _, ch := range chars {
				switch ch.UUID() {
				case systemReadUUID:
					systemRead, haveSystemRead = ch, true
				case systemWriteUUID:
					systemWrite, haveSystemWrite = ch, true
				}
			}
		}
	}

	if !haveState || !haveSystemRead || !haveSystemWrite {
		device.Disconnect()
		return fmt.Errorf("%w: state=%t system-read=%t system-write=%t",
			ErrServiceNotFound, haveState, haveSystemRead, haveSystemWrite)
	}

	c.mu.Lock()
	c.device = device
	c.stateChar = stateChar
	c.systemRead = systemRead
	c.systemWrite = systemWrite
	c.connected = true
	c.deviceName = result.Name
	c.deviceUUID = result.UUID
	c.mu.Unlock()

	c.log.Info("connected", zap.String("name", result.Name), zap.String("address", result.UUID))
	return nil
}

// ReadState reads the state characteristic.
func (c *Client) ReadState(ctx context.Context) ([]byte, error) {
	c.mu.RLock()
	if !c.connected {
		c.mu.RUnlock()
		return nil, ErrNotConnected
	}
	char := c.stateChar
	c.mu.RUnlock()

	type readResult struct {
		data []byte
		err  error
	}
	ch := make(chan readResult, 1)
	go func() {
		buf := make([]byte, 64)
		n, err := char.Read(buf)
		ch <- readResult{data: buf[:n], err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("failed to read state: %w", r.err)
		}
		return r.data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// NotifyState subscribes fn to state notifications.
func (c *Client) NotifyState(fn func([]byte)) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.connected {
		return ErrNotConnected
	}
	if err := c.stateChar.EnableNotifications(fn); err != nil {
		return fmt.Errorf("failed to enable notifications: %w", err)
	}
	return nil
}

// NotifySystem subscribes fn to system replies.
func (c *Client) NotifySystem(fn func([]byte)) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.connected {
		return ErrNotConnected
	}
	if err := c.systemRead.EnableNotifications(fn); err != nil {
		return fmt.Errorf("failed to enable system notifications: %w", err)
	}
	return nil
}

// StopSystem stops system notifications.
func (c *Client) StopSystem() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.connected {
		return nil
	}
	return c.systemRead.EnableNotifications(nil)
}

// WriteSystem writes a command to the system characteristic.
func (c *Client) WriteSystem(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected {
		return ErrNotConnected
	}

	return writeCommand(c.systemWrite, data)
}

// commandWriter is the write side of a characteristic. Every platform
// supports writes without response.
type commandWriter interface {
	WriteWithoutResponse(p []byte) (int, error)
}

// responseWriter is only implemented on platforms with acknowledged writes
// (darwin, windows).
type responseWriter interface {
	Write(p []byte) (int, error)
}

// writeCommand writes without response and retries as an acknowledged
// write where the platform has one.
func writeCommand(w commandWriter, data []byte) error {
	_, err := w.WriteWithoutResponse(data)
	if err == nil {
		return nil
	}
	if rw, ok := w.(responseWriter); ok {
		if _, rerr := rw.Write(data); rerr == nil {
			return nil
		}
	}
	return err
}

// NotifyDisconnect registers fn to be called when the device drops the link.
func (c *Client) NotifyDisconnect(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDisconnect = fn
}

func (c *Client) handleConnect(device bluetooth.Device, connected bool) {
	if connected {
		return
	}

	c.mu.Lock()
	if !c.connected || device.Address.String() != c.deviceUUID {
		c.mu.Unlock()
		return
	}
	c.connected = false
	cb := c.onDisconnect
	name := c.deviceName
	c.mu.Unlock()

	c.log.Warn("link lost", zap.String("name", name))
	if cb != nil {
		cb(fmt.Errorf("ble: %s disconnected", name))
	}
}

// Close disconnects from the current device.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil
	}

	err := c.device.Disconnect()
	c.connected = false
	c.deviceName = ""
	c.deviceUUID = ""

	return err
}

// IsConnected returns true if connected to a device.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// DeviceName returns the connected device name.
func (c *Client) DeviceName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.deviceName
}

// DeviceUUID returns the connected device UUID.
func (c *Client) DeviceUUID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.deviceUUID
}
