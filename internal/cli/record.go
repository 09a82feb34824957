package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SeamusWaldron/giiker_ble_library/internal/recorder"
)

var recordNotes string

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a session to the database",
	Long: `Connect to the cube and store every frame and move it sends until you
quit. The frame the session started from is stored too, so the recording
can be replayed later.

Keyboard shortcuts are the same as for watch.

Examples:
  giiker record
  giiker record --notes "OLL practice"
  giiker record --bridge /dev/ttyUSB0 --plain`,
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.Flags().StringVar(&recordNotes, "notes", "", "Notes to store with the recording")
	recordCmd.Flags().BoolVar(&watchPlain, "plain", false, "Print one line per frame instead of the interactive view")
}

func runRecord(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	stateFile, err := openStateFile()
	if err != nil {
		return err
	}
	if stateFile.HasActiveRecording() {
		// A previous run died without ending its recording.
		logger.Warn("clearing stale active recording", zap.String("recording_id", stateFile.State().ActiveRecordingID))
		if err := stateFile.ClearActiveRecording(); err != nil {
			return err
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	conn, err := connect(ctx)
	if err != nil {
		return err
	}
	defer conn.session.Close()

	rec := recorder.New(db, stateFile, logger)
	id, err := rec.Start(conn.deviceName, conn.deviceID, recordNotes, conn.initial)
	if err != nil {
		return err
	}

	runErr := runLive(ctx, conn, rec)

	moves, rejected := rec.MoveCount(), rec.RejectedCount()
	if err := rec.End(); err != nil {
		return fmt.Errorf("failed to end recording: %w", err)
	}

	fmt.Printf("Recording %s saved: %d moves", id, moves)
	if rejected > 0 {
		fmt.Printf(", %d rejected frames", rejected)
	}
	fmt.Println()
	return runErr
}
