package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/SeamusWaldron/giiker_ble_library/internal/storage"
)

var statusScan bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration, recordings and cube information",
	Long: `Display where data is stored, recent recordings, the last cube used and
its last battery reading. With --scan, also look for nearby cubes.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusScan, "scan", false, "Also scan for nearby cubes")
}

func runStatus(cmd *cobra.Command, args []string) error {
	stateFile, err := openStateFile()
	if err != nil {
		return err
	}
	state := stateFile.State()

	fmt.Println("Giiker Status")
	fmt.Println("=============")
	fmt.Println()

	fmt.Printf("Database: %s\n", cfg.Storage.DBPath)
	fmt.Printf("State:    %s\n", stateFile.Path())
	if cfg.Bridge.Port != "" {
		fmt.Printf("Bridge:   %s (%d baud)\n", cfg.Bridge.Port, cfg.Bridge.Baud)
	}
	fmt.Println()

	db, err := openDB()
	if err != nil {
		fmt.Printf("Database unavailable: %v\n", err)
	} else {
		defer db.Close()
		printRecordings(db)
	}
	fmt.Println()

	if state.ActiveRecordingID != "" {
		fmt.Printf("Active recording: %s\n", state.ActiveRecordingID)
		fmt.Println("  (left over from an interrupted run, the next record clears it)")
		fmt.Println()
	}

	if state.LastDeviceID != "" {
		fmt.Printf("Last device: %s (%s)\n", state.LastDeviceName, state.LastDeviceID)
	} else {
		fmt.Println("No device history")
	}
	if state.LastBattery != nil {
		fmt.Printf("Last battery: %d%%\n", *state.LastBattery)
	}

	if !statusScan {
		return nil
	}

	fmt.Println()
	ctx, cancel := signalContext()
	defer cancel()

	devices, err := scanDevices(ctx)
	if err != nil {
		fmt.Printf("Scan error: %v\n", err)
		return nil
	}
	if len(devices) == 0 {
		fmt.Println("No Giiker cubes found")
		return nil
	}
	fmt.Printf("Found %d device(s):\n", len(devices))
	for _, d := range devices {
		fmt.Printf("  - %s (UUID: %s, RSSI: %d)\n", d.Name, d.UUID, d.RSSI)
	}
	return nil
}

func printRecordings(db *storage.DB) {
	if v, err := db.CurrentVersion(); err == nil {
		fmt.Printf("Schema version: %d\n", v)
	}

	repo := storage.NewRecordingRepository(db)
	total, err := repo.Count()
	if err != nil {
		fmt.Printf("Recordings: %v\n", err)
		return
	}
	fmt.Printf("Recordings: %d\n", total)

	recent, err := repo.List(5)
	if err != nil || len(recent) == 0 {
		return
	}
	moveRepo := storage.NewMoveRepository(db)
	for _, r := range recent {
		moves, _ := moveRepo.Count(r.RecordingID)
		line := fmt.Sprintf("  %s  %s  %3d moves", r.RecordingID[:8], r.StartedAt.Local().Format(time.DateTime), moves)
		if r.DurationMs != nil {
			line += fmt.Sprintf("  %s", (time.Duration(*r.DurationMs) * time.Millisecond).Round(time.Second))
		}
		fmt.Println(line)
	}

	if b, err := storage.NewBatteryRepository(db).Latest(); err == nil && b != nil {
		fmt.Printf("Latest stored battery: %d%% at %s\n", b.Level, time.UnixMilli(b.TsMs).Local().Format(time.DateTime))
	}
}
