package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/SeamusWaldron/giiker_ble_library"
	"github.com/SeamusWaldron/giiker_ble_library/internal/analysis"
	"github.com/SeamusWaldron/giiker_ble_library/internal/codec"
	"github.com/SeamusWaldron/giiker_ble_library/internal/storage"
)

var (
	statsID    string
	statsLast  bool
	statsJSON  bool
	statsPause time.Duration
	statsMinN  int
	statsMaxN  int
	statsTopK  int
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show move statistics for a recording",
	Long: `Summarize the moves of a stored recording: turns per second, pauses,
face usage and the most repeated move sequences.

Examples:
  giiker stats --last
  giiker stats --id <recording_id> --json`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVar(&statsID, "id", "", "Recording ID")
	statsCmd.Flags().BoolVar(&statsLast, "last", false, "Use the last recording")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Print JSON")
	statsCmd.Flags().DurationVar(&statsPause, "pause", analysis.DefaultPauseThreshold, "Gap counted as a pause")
	statsCmd.Flags().IntVar(&statsMinN, "min-n", 4, "Shortest repeated sequence to report")
	statsCmd.Flags().IntVar(&statsMaxN, "max-n", 8, "Longest repeated sequence to report")
	statsCmd.Flags().IntVar(&statsTopK, "top", 3, "Sequences reported per length")
}

type statsReport struct {
	RecordingID string                `json:"recording_id"`
	Summary     *analysis.Summary     `json:"summary"`
	NGrams      *analysis.NGramReport `json:"ngrams"`
}

func runStats(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	rec, err := findRecording(db, statsID, statsLast)
	if err != nil {
		return err
	}

	records, err := storage.NewMoveRepository(db).GetByRecording(rec.RecordingID)
	if err != nil {
		return fmt.Errorf("failed to get moves: %w", err)
	}
	moves := make([]giiker.Move, len(records))
	for i, r := range records {
		moves[i] = r.Move()
	}

	report := statsReport{
		RecordingID: rec.RecordingID,
		Summary:     analysis.Summarize(moves, statsPause),
		NGrams:      analysis.MineNGrams(moves, statsMinN, statsMaxN, statsTopK),
	}

	if statsJSON {
		data, err := codec.JSONCodec{Indent: true}.Marshal(report)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	printStats(report)
	return nil
}

func printStats(r statsReport) {
	s := r.Summary
	fmt.Printf("Recording:        %s\n", r.RecordingID)
	fmt.Printf("Moves:            %d (%d after merging same-face turns)\n", s.TotalMoves, s.SimplifiedMoves)
	fmt.Printf("Duration:         %s\n", (time.Duration(s.DurationMs) * time.Millisecond).Round(time.Millisecond))
	fmt.Printf("TPS:              %.2f\n", s.TPSOverall)
	fmt.Printf("Avg gap:          %.0fms\n", s.AvgMoveGapMs)
	fmt.Printf("Longest pause:    %dms (%d pauses)\n", s.LongestPauseMs, len(s.Pauses))

	if s.TotalMoves == 0 {
		return
	}

	fmt.Println()
	fmt.Println("Face usage:")
	for _, face := range []giiker.Face{giiker.FaceU, giiker.FaceR, giiker.FaceF, giiker.FaceD, giiker.FaceL, giiker.FaceB} {
		n := s.Profile.FaceCounts[face]
		if n == 0 {
			continue
		}
		pct := float64(n) / float64(s.TotalMoves) * 100
		fmt.Printf("  %s: %4d (%5.1f%%) %s\n", face, n, pct, strings.Repeat("█", int(pct/5)))
	}

	lengths := make([]int, 0, len(r.NGrams.TopNGrams))
	for n := range r.NGrams.TopNGrams {
		lengths = append(lengths, n)
	}
	if len(lengths) == 0 {
		return
	}
	sort.Ints(lengths)

	fmt.Println()
	fmt.Println("Repeated sequences:")
	for _, n := range lengths {
		for _, ng := range r.NGrams.TopNGrams[n] {
			fmt.Printf("  %2d× %s\n", ng.Count, strings.Join(ng.Sequence, " "))
		}
	}
}
