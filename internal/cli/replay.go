package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/SeamusWaldron/giiker_ble_library"
	"github.com/SeamusWaldron/giiker_ble_library/internal/bridge"
	"github.com/SeamusWaldron/giiker_ble_library/internal/storage"
)

var (
	replayID      string
	replayLast    bool
	replayVerbose bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a recording through a fresh session",
	Long: `Feed a stored recording's frames through a new session, exactly as if
they had come from the cube, and print the moves and final state.

Examples:
  giiker replay --last
  giiker replay --id <recording_id> --frames`,
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().StringVar(&replayID, "id", "", "Recording ID to replay")
	replayCmd.Flags().BoolVar(&replayLast, "last", false, "Replay the last recording")
	replayCmd.Flags().BoolVar(&replayVerbose, "frames", false, "Print every frame as it is replayed")
}

func runReplay(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	rec, err := findRecording(db, replayID, replayLast)
	if err != nil {
		return err
	}

	frames, err := storage.NewFrameRepository(db).GetByRecording(rec.RecordingID)
	if err != nil {
		return err
	}

	var onFrame func(giiker.Frame)
	if replayVerbose {
		onFrame = func(f giiker.Frame) {
			line := bridge.FormatLine(bridge.TagState, f.Data)
			switch {
			case f.Err != nil:
				fmt.Printf("%s  !! %v\n", line, f.Err)
			case f.Move != nil:
				fmt.Printf("%s  %s\n", line, f.Move.Notation())
			default:
				fmt.Println(line)
			}
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	s, err := replay(ctx, rec, frames, onFrame)
	if err != nil {
		return err
	}

	moves := s.Moves()
	fmt.Printf("Recording: %s (%d frames)\n", rec.RecordingID, len(frames))
	fmt.Printf("Moves (%d): %s\n\n", len(moves), giiker.FormatMoves(moves))
	state := s.State()
	fmt.Print(state.Facelets().String())
	fmt.Printf("\nSolved: %t\n", state.IsSolved())
	return nil
}

// findRecording resolves --id or --last.
func findRecording(db *storage.DB, id string, last bool) (*storage.Recording, error) {
	if id == "" && !last {
		return nil, fmt.Errorf("specify --id or --last")
	}

	repo := storage.NewRecordingRepository(db)
	var rec *storage.Recording
	var err error
	if last {
		rec, err = repo.GetLast()
	} else {
		rec, err = repo.Get(id)
	}
	if err != nil {
		return nil, err
	}
	if rec == nil {
		if last {
			return nil, fmt.Errorf("no recordings found")
		}
		return nil, fmt.Errorf("recording not found: %s", id)
	}
	return rec, nil
}

// replay runs a recording through a new session over a read-only bridge
// and waits for it to drain. The returned session is disconnected.
func replay(ctx context.Context, rec *storage.Recording, frames []storage.FrameRecord, onFrame func(giiker.Frame)) (*giiker.Session, error) {
	if len(rec.InitialFrame) == 0 {
		return nil, fmt.Errorf("recording %s has no initial frame", rec.RecordingID)
	}

	var b strings.Builder
	b.WriteString("# recording " + rec.RecordingID + "\n")
	b.WriteString(bridge.FormatLine(bridge.TagState, rec.InitialFrame) + "\n")
	for _, f := range frames {
		b.WriteString(bridge.FormatLine(bridge.TagState, f.Data) + "\n")
	}

	t := bridge.NewReader(strings.NewReader(b.String()), logger)
	s := giiker.NewSession(t, sessionOptions()...)
	if onFrame != nil {
		s.OnFrame(onFrame)
	}
	if err := s.Start(ctx); err != nil {
		_ = t.Close()
		return nil, fmt.Errorf("failed to start replay: %w", err)
	}

	select {
	case <-s.Done():
	case <-ctx.Done():
		_ = s.Close()
		return nil, ctx.Err()
	case <-time.After(time.Minute):
		_ = s.Close()
		return nil, fmt.Errorf("replay did not finish")
	}

	if err := s.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("replay failed: %w", err)
	}
	return s, nil
}
