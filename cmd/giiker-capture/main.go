// giiker-capture dumps the raw state notifications of a Giiker cube as
// bridge lines, without decoding them. The output can be fed back with
// `giiker watch --bridge capture.txt` or `giiker decode`.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SeamusWaldron/giiker_ble_library"
	"github.com/SeamusWaldron/giiker_ble_library/internal/ble"
	"github.com/SeamusWaldron/giiker_ble_library/internal/bridge"
	"github.com/SeamusWaldron/giiker_ble_library/internal/logging"
	"github.com/SeamusWaldron/giiker_ble_library/internal/protocol"
)

var (
	output      string
	prefix      string
	scanTimeout time.Duration
	duration    time.Duration
	battery     bool
	verbose     bool
)

func main() {
	cmd := &cobra.Command{
		Use:          "giiker-capture",
		Short:        "Capture raw Giiker notifications as bridge lines",
		SilenceUsage: true,
		RunE:         run,
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Capture file (default: stdout)")
	cmd.Flags().StringVar(&prefix, "prefix", giiker.DefaultNamePrefix, "Device name prefix")
	cmd.Flags().DurationVar(&scanTimeout, "scan-timeout", 10*time.Second, "How long to scan")
	cmd.Flags().DurationVar(&duration, "duration", 0, "Stop after this long (default: until Ctrl+C)")
	cmd.Flags().BoolVar(&battery, "battery", false, "Also request the battery level and capture the reply")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	level := "info"
	if verbose {
		level = "debug"
	}
	log, err := logging.New(level, "console")
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create capture file: %w", err)
		}
		defer f.Close()
		w = f
	}

	client, err := ble.NewClient(log)
	if err != nil {
		return err
	}

	log.Info("scanning", zap.String("prefix", prefix), zap.Duration("timeout", scanTimeout))
	devices, err := client.Scan(ctx, prefix, scanTimeout)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		return ble.ErrDeviceNotFound
	}
	dev := devices[0]

	if err := client.Connect(ctx, dev); err != nil {
		return err
	}
	defer client.Close()

	// Lines come from the notification goroutines and this one.
	var mu sync.Mutex
	lines := 0
	writeLine := func(tag string, data []byte) {
		mu.Lock()
		defer mu.Unlock()
		if _, err := fmt.Fprintln(w, bridge.FormatLine(tag, data)); err != nil {
			log.Error("write failed", zap.Error(err))
			return
		}
		lines++
	}

	mu.Lock()
	fmt.Fprintf(w, "# %s %s captured %s\n", dev.Name, dev.UUID, time.Now().Format(time.RFC3339))
	mu.Unlock()

	initial, err := client.ReadState(ctx)
	if err != nil {
		return err
	}
	writeLine(bridge.TagState, initial)

	disconnected := make(chan error, 1)
	client.NotifyDisconnect(func(err error) { disconnected <- err })

	if err := client.NotifyState(func(data []byte) {
		log.Debug("state", zap.String("hex", protocol.FormatHex(data)))
		writeLine(bridge.TagState, data)
	}); err != nil {
		return err
	}

	if battery {
		if err := client.NotifySystem(func(data []byte) {
			writeLine(bridge.TagSystem, data)
			if level, err := protocol.DecodeBattery(data); err == nil {
				log.Info("battery", zap.Int("level", level))
			}
		}); err != nil {
			return err
		}
		if err := client.WriteSystem([]byte{protocol.CmdBattery}); err != nil {
			return err
		}
	}

	log.Info("capturing, turn the cube", zap.String("device", dev.Name))

	select {
	case <-ctx.Done():
	case err := <-disconnected:
		log.Warn("device disconnected", zap.Error(err))
	}

	mu.Lock()
	n := lines
	mu.Unlock()
	log.Info("capture finished", zap.Int("lines", n))
	return nil
}
