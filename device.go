package giiker

import (
	"context"
	"fmt"

	"github.com/SeamusWaldron/giiker_ble_library/internal/ble"
	"go.uber.org/zap"
)

// Device represents a discovered Giiker cube.
// Devices are returned by the Scan function and can be passed to Connect.
type Device struct {
	Name string // Advertised name (e.g., "GiC12345")
	UUID string // Device address used for connection
	RSSI int16  // Signal strength in dBm (higher = stronger, typical range -30 to -90)

	result ble.ScanResult
}

// Scan discovers nearby Giiker cubes via Bluetooth Low Energy.
// Returns all devices whose name matches the configured prefix within the
// scan timeout.
//
//	devices, err := giiker.Scan(ctx, giiker.WithScanTimeout(5*time.Second))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, d := range devices {
//	    fmt.Printf("Found: %s (RSSI: %d)\n", d.Name, d.RSSI)
//	}
//
// Ensure the cube is not connected to another device (e.g., phone app).
func Scan(ctx context.Context, opts ...Option) ([]Device, error) {
	cfg := newConfig(opts)

	client, err := ble.NewClient(cfg.logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	results, err := client.Scan(ctx, cfg.namePrefix, cfg.scanTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	devices := make([]Device, len(results))
	for i, r := range results {
		devices[i] = Device{
			Name:   r.Name,
			UUID:   r.UUID,
			RSSI:   r.RSSI,
			result: r,
		}
	}

	return devices, nil
}

// Connect connects to a specific cube and starts a session on it. The
// returned session is already Connected.
func Connect(ctx context.Context, device Device, opts ...Option) (*Session, error) {
	cfg := newConfig(opts)

	client, err := ble.NewClient(cfg.logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	if err := client.Connect(ctx, device.result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	s := NewSession(client, opts...)
	if err := s.Start(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	cfg.logger.Info("session ready", zap.String("device", device.Name))
	return s, nil
}

// ConnectFirst scans and connects to the first cube found.
// This is a convenience function for quick prototyping and single-cube setups.
//
//	s, err := giiker.ConnectFirst(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
func ConnectFirst(ctx context.Context, opts ...Option) (*Session, error) {
	devices, err := Scan(ctx, opts...)
	if err != nil {
		return nil, err
	}

	if len(devices) == 0 {
		return nil, ErrDeviceNotFound
	}

	return Connect(ctx, devices[0], opts...)
}

// DeviceName returns the name of the connected device, if the transport
// knows it.
func (s *Session) DeviceName() string {
	if n, ok := s.transport.(interface{ DeviceName() string }); ok {
		return n.DeviceName()
	}
	return ""
}
