package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SeamusWaldron/giiker_ble_library/internal/codec"
	"github.com/SeamusWaldron/giiker_ble_library/internal/stream"
)

var (
	serveAddr            string
	serveCodec           string
	serveBatteryInterval time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Stream cube events over WebSocket",
	Long: `Connect to the cube and publish its moves, state and errors to
WebSocket clients.

Endpoints:
  /ws     - event stream; the current state is sent first
  /state  - current state as JSON

Examples:
  giiker serve
  giiker serve --addr :9000 --codec msgpack`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: serve.addr)")
	serveCmd.Flags().StringVar(&serveCodec, "codec", "", "Event encoding: json, msgpack or cbor (default: serve.codec)")
	serveCmd.Flags().DurationVar(&serveBatteryInterval, "battery-interval", 0, "Publish the battery level this often (0 disables)")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := cfg.Serve.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	name := cfg.Serve.Codec
	if serveCodec != "" {
		name = serveCodec
	}
	c, err := codec.New(name)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	conn, err := connect(ctx)
	if err != nil {
		return err
	}
	defer conn.session.Close()

	hub := stream.NewHub(c, conn.session, logger)
	hub.Attach(conn.session)
	defer hub.Close()

	srv := &http.Server{
		Addr:              addr,
		Handler:           hub.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info("serving", zap.String("addr", addr), zap.String("codec", c.Name()), zap.String("device", conn.deviceName))
	fmt.Printf("Streaming %s on ws://%s/ws\n", conn.deviceName, displayAddr(addr))

	if serveBatteryInterval > 0 {
		go pollBattery(ctx, conn, hub, serveBatteryInterval)
	}

	select {
	case <-ctx.Done():
	case <-conn.session.Done():
		logger.Info("cube disconnected", zap.Error(conn.session.Err()))
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}

func pollBattery(ctx context.Context, conn *connection, hub *stream.Hub, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		level, err := conn.session.BatteryLevel(ctx)
		if err == nil {
			hub.PublishBattery(level)
		} else {
			logger.Debug("battery poll failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-conn.session.Done():
			return
		case <-ticker.C:
		}
	}
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
