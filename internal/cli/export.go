package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SeamusWaldron/giiker_ble_library/internal/bridge"
	"github.com/SeamusWaldron/giiker_ble_library/internal/codec"
	"github.com/SeamusWaldron/giiker_ble_library/internal/storage"
)

var (
	exportID     string
	exportFormat string
	exportOutput string
	exportLast   bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recording data",
	Long:  `Export recording data in various formats.`,
}

var exportMovesCmd = &cobra.Command{
	Use:   "moves",
	Short: "Export a recording",
	Long: `Export the moves of a recording, plus its final state for the
structured formats. json, msgpack and cbor share one schema.

Examples:
  giiker export moves --last
  giiker export moves --id <recording_id> --format json
  giiker export moves --last --format cbor -o session.cbor`,
	RunE: runExportMoves,
}

var exportFramesCmd = &cobra.Command{
	Use:   "frames",
	Short: "Export raw frames as bridge lines",
	Long: `Write a recording's raw frames as bridge lines. The output can be fed
back with --bridge <file>.

Examples:
  giiker export frames --last -o capture.txt
  giiker watch --bridge capture.txt --plain`,
	RunE: runExportFrames,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.PersistentFlags().StringVar(&exportID, "id", "", "Recording ID to export")
	exportCmd.PersistentFlags().BoolVar(&exportLast, "last", false, "Export the last recording")
	exportCmd.PersistentFlags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")

	exportCmd.AddCommand(exportMovesCmd)
	exportMovesCmd.Flags().StringVar(&exportFormat, "format", "txt", "Export format (txt, "+strings.Join(codec.Names(), ", ")+")")

	exportCmd.AddCommand(exportFramesCmd)
}

func runExportMoves(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	rec, err := findRecording(db, exportID, exportLast)
	if err != nil {
		return err
	}

	moves, err := storage.NewMoveRepository(db).GetByRecording(rec.RecordingID)
	if err != nil {
		return fmt.Errorf("failed to get moves: %w", err)
	}

	format := strings.ToLower(exportFormat)
	if format == "txt" {
		notations := make([]string, 0, len(moves))
		for _, m := range moves {
			notations = append(notations, m.Notation)
		}
		return writeOutput([]byte(strings.Join(notations, " ")+"\n"), len(moves))
	}

	c, err := codec.New(format)
	if err != nil {
		return fmt.Errorf("unknown format: %s (use txt, %s)", exportFormat, strings.Join(codec.Names(), ", "))
	}
	if jc, ok := c.(codec.JSONCodec); ok {
		jc.Indent = true
		c = jc
	}

	frameRepo := storage.NewFrameRepository(db)
	frames, err := frameRepo.GetByRecording(rec.RecordingID)
	if err != nil {
		return err
	}
	rejected, err := frameRepo.CountRejected(rec.RecordingID)
	if err != nil {
		return err
	}

	out := codec.Recording{
		ID:        rec.RecordingID,
		StartedAt: rec.StartedAt.Format(time.RFC3339Nano),
		Frames:    len(frames),
		Rejected:  rejected,
		Moves:     make([]codec.Move, 0, len(moves)),
	}
	if rec.DeviceName != nil {
		out.Device = *rec.DeviceName
	}
	if rec.EndedAt != nil {
		out.EndedAt = rec.EndedAt.Format(time.RFC3339Nano)
	}
	if rec.DurationMs != nil {
		out.DurationMs = *rec.DurationMs
	}
	for _, m := range moves {
		out.Moves = append(out.Moves, codec.FromMove(m.Move()))
	}

	// The final state comes from replaying the stored frames.
	ctx, cancel := signalContext()
	defer cancel()
	if s, err := replay(ctx, rec, frames, nil); err != nil {
		logger.Warn("final state unavailable", zap.String("recording_id", rec.RecordingID), zap.Error(err))
	} else {
		final := codec.FromState(s.State())
		out.Final = &final
	}

	data, err := c.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", c.Name(), err)
	}
	if !c.Binary() {
		data = append(data, '\n')
	} else if exportOutput == "" {
		return fmt.Errorf("%s is binary, use -o to write it to a file", c.Name())
	}
	return writeOutput(data, len(moves))
}

func runExportFrames(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	rec, err := findRecording(db, exportID, exportLast)
	if err != nil {
		return err
	}

	frames, err := storage.NewFrameRepository(db).GetByRecording(rec.RecordingID)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# recording %s started %s\n", rec.RecordingID, rec.StartedAt.Format(time.RFC3339))
	if len(rec.InitialFrame) > 0 {
		b.WriteString(bridge.FormatLine(bridge.TagState, rec.InitialFrame) + "\n")
	}
	for _, f := range frames {
		if f.Error != nil {
			fmt.Fprintf(&b, "# rejected: %s\n", *f.Error)
		}
		b.WriteString(bridge.FormatLine(bridge.TagState, f.Data) + "\n")
	}
	return writeOutput([]byte(b.String()), len(frames))
}

func writeOutput(data []byte, count int) error {
	if exportOutput == "" {
		_, err := os.Stdout.Write(data)
		return err
	}

	dir := filepath.Dir(exportOutput)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if err := os.WriteFile(exportOutput, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	fmt.Printf("Exported %d records to %s\n", count, exportOutput)
	return nil
}
