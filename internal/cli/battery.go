package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SeamusWaldron/giiker_ble_library/internal/storage"
)

var batteryTimeout time.Duration

var batteryCmd = &cobra.Command{
	Use:   "battery",
	Short: "Read the cube's battery level",
	Long: `Connect to the cube, ask for its battery level and print it. The
reading is stored in the database and remembered for status.`,
	RunE: runBattery,
}

func init() {
	rootCmd.AddCommand(batteryCmd)
	batteryCmd.Flags().DurationVar(&batteryTimeout, "timeout", 0, "How long to wait for the reply (default: session.battery_timeout)")
}

func runBattery(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	conn, err := connect(ctx)
	if err != nil {
		return err
	}
	defer conn.session.Close()

	reqCtx := ctx
	if batteryTimeout > 0 {
		var reqCancel context.CancelFunc
		reqCtx, reqCancel = context.WithTimeout(ctx, batteryTimeout)
		defer reqCancel()
	}

	level, err := conn.session.BatteryLevel(reqCtx)
	if err != nil {
		return fmt.Errorf("battery request failed: %w", err)
	}
	fmt.Printf("%s: %d%%\n", conn.deviceName, level)

	saveBattery(conn.deviceName, level)
	return nil
}

// saveBattery stores a reading outside any recording. Failures are logged;
// the reading itself has already been shown.
func saveBattery(deviceName string, level int) {
	db, err := openDB()
	if err != nil {
		logger.Debug("database unavailable", zap.Error(err))
		return
	}
	defer db.Close()

	if _, err := storage.NewBatteryRepository(db).Create("", deviceName, time.Now(), level); err != nil {
		logger.Warn("failed to store battery reading", zap.Error(err))
	}

	sf, err := openStateFile()
	if err != nil {
		logger.Debug("state file unavailable", zap.Error(err))
		return
	}
	if err := sf.SetLastBattery(level); err != nil {
		logger.Warn("failed to save battery level", zap.Error(err))
	}
}
