package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/SeamusWaldron/giiker_ble_library"
	"github.com/SeamusWaldron/giiker_ble_library/internal/bridge"
	"github.com/SeamusWaldron/giiker_ble_library/internal/recorder"
	"github.com/SeamusWaldron/giiker_ble_library/internal/storage"
)

// openDB opens the configured database.
func openDB() (*storage.DB, error) {
	db, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// openStateFile loads the configured app state file.
func openStateFile() (*recorder.StateFile, error) {
	sf, err := recorder.NewStateFile(cfg.Storage.StatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	return sf, nil
}

// sessionOptions maps configuration onto session options.
func sessionOptions() []giiker.Option {
	return []giiker.Option{
		giiker.WithLogger(logger),
		giiker.WithBatteryTimeout(cfg.Session.BatteryTimeout),
		giiker.WithMoveHistory(cfg.Session.MoveHistory),
		giiker.WithNamePrefix(cfg.BLE.NamePrefix),
		giiker.WithScanTimeout(cfg.BLE.ScanTimeout),
	}
}

// connection is a started session and where it came from.
type connection struct {
	session    *giiker.Session
	deviceName string
	deviceID   string
	initial    []byte
}

// connect starts a session over the configured bridge, or over BLE with
// the first cube found. The initial frame is kept for recordings.
func connect(ctx context.Context) (*connection, error) {
	var t giiker.Transport
	var name, id string

	if cfg.Bridge.Port != "" {
		bt, err := bridge.Open(ctx, cfg.Bridge.Port, cfg.Bridge.Baud, logger)
		if err != nil {
			return nil, err
		}
		t, name, id = bt, "bridge", cfg.Bridge.Port
	} else {
		fmt.Fprintln(os.Stderr, "Scanning for Giiker cubes...")
		devices, err := giiker.Scan(ctx, sessionOptions()...)
		if err != nil {
			return nil, err
		}
		if len(devices) == 0 {
			return nil, fmt.Errorf("%w\n\nTips:\n  - Rotate the cube to wake it up\n  - Make sure it is not connected to your phone", giiker.ErrDeviceNotFound)
		}
		fmt.Fprintf(os.Stderr, "Found: %s\n", devices[0].Name)

		s, err := giiker.Connect(ctx, devices[0], sessionOptions()...)
		if err != nil {
			return nil, err
		}
		rememberDevice(devices[0].UUID, devices[0].Name)
		raw := s.RawState()
		initial, _ := giiker.EncodeFrame(raw)
		return &connection{session: s, deviceName: devices[0].Name, deviceID: devices[0].UUID, initial: initial}, nil
	}

	// Capture the initial frame on its way into the session.
	ct := &capturingTransport{Transport: t}
	s := giiker.NewSession(ct, sessionOptions()...)
	if err := s.Start(ctx); err != nil {
		_ = t.Close()
		return nil, err
	}
	return &connection{session: s, deviceName: name, deviceID: id, initial: ct.initial}, nil
}

// capturingTransport remembers the frame returned by the first ReadState.
type capturingTransport struct {
	giiker.Transport
	initial []byte
}

func (c *capturingTransport) ReadState(ctx context.Context) ([]byte, error) {
	data, err := c.Transport.ReadState(ctx)
	if err == nil && c.initial == nil {
		c.initial = append([]byte(nil), data...)
	}
	return data, err
}

func rememberDevice(id, name string) {
	sf, err := openStateFile()
	if err != nil {
		logger.Debug("state file unavailable", zap.Error(err))
		return
	}
	if err := sf.SetLastDevice(id, name); err != nil {
		logger.Debug("failed to save last device", zap.Error(err))
	}
}

// signalContext is canceled on Ctrl+C or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// formatState renders the corner and edge slots one per line.
func formatState(v giiker.VisibleState) string {
	var b strings.Builder
	for _, c := range v.Corners {
		fmt.Fprintf(&b, "  %s%s%s  %s %s %s\n", c.Position[0], c.Position[1], c.Position[2],
			c.Colors[0], c.Colors[1], c.Colors[2])
	}
	for _, e := range v.Edges {
		fmt.Fprintf(&b, "  %s%s   %s %s\n", e.Position[0], e.Position[1], e.Colors[0], e.Colors[1])
	}
	return b.String()
}
