package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SeamusWaldron/giiker_ble_library"
	"github.com/SeamusWaldron/giiker_ble_library/internal/bridge"
)

var scanPorts bool

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List nearby Giiker cubes",
	Long: `Scan for Giiker cubes over Bluetooth and list them with their signal
strength. With --ports, list serial ports a bridge could be attached to.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().BoolVar(&scanPorts, "ports", false, "List serial ports instead of scanning BLE")
}

func runScan(cmd *cobra.Command, args []string) error {
	if scanPorts {
		ports, err := bridge.Ports()
		if err != nil {
			return err
		}
		if len(ports) == 0 {
			fmt.Println("No serial ports found")
			return nil
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return nil
	}

	ctx, cancel := signalContext()
	defer cancel()

	devices, err := scanDevices(ctx)
	if err != nil {
		return err
	}

	if len(devices) == 0 {
		fmt.Println("No Giiker cubes found")
		fmt.Println()
		fmt.Println("Tips:")
		fmt.Println("  - Rotate the cube to wake it up")
		fmt.Println("  - Make sure it is not connected to your phone")
		fmt.Println("  - Check that Bluetooth is enabled")
		return nil
	}

	fmt.Printf("Found %d device(s):\n", len(devices))
	for _, d := range devices {
		fmt.Printf("  - %s (UUID: %s, RSSI: %d)\n", d.Name, d.UUID, d.RSSI)
	}
	return nil
}

func scanDevices(ctx context.Context) ([]giiker.Device, error) {
	fmt.Printf("Scanning for %s ...\n", cfg.BLE.ScanTimeout)
	return giiker.Scan(ctx, sessionOptions()...)
}
