// Package cli implements the command-line interface for giiker.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SeamusWaldron/giiker_ble_library/internal/config"
	"github.com/SeamusWaldron/giiker_ble_library/internal/logging"
)

const version = "0.1.0"

var (
	// Global flags
	cfgFile    string
	dbPath     string
	bridgePort string
	verbose    bool

	// Loaded in PersistentPreRunE
	cfg    *config.Config
	logger = zap.NewNop()
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "giiker",
	Short: "Giiker smart cube tool",
	Long: `giiker - decode, watch and record a Giiker smart cube.

Connect to the cube over Bluetooth (or a serial/websocket bridge), follow
its moves and state live, record sessions to a local database and replay
or export them later.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ./config.yaml or ~/.giiker/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database file path (default: ~/.giiker/giiker.db)")
	rootCmd.PersistentFlags().StringVar(&bridgePort, "bridge", "", "Use a line bridge instead of BLE: serial port, ws:// URL, capture file or - for stdin")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Flags win over file and environment
	if dbPath != "" {
		c.Storage.DBPath = dbPath
	}
	if bridgePort != "" {
		c.Bridge.Port = bridgePort
	}
	if verbose {
		c.Logging.Level = "debug"
	}

	l, err := logging.New(c.Logging.Level, c.Logging.Format)
	if err != nil {
		return err
	}

	cfg = c
	logger = l
	return nil
}
