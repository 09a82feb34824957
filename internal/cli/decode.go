package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SeamusWaldron/giiker_ble_library"
	"github.com/SeamusWaldron/giiker_ble_library/internal/codec"
	"github.com/SeamusWaldron/giiker_ble_library/internal/protocol"
)

var decodeFormat string

var decodeCmd = &cobra.Command{
	Use:   "decode <hex>...",
	Short: "Decode a state frame offline",
	Long: `Decode one frame given as hex and print its raw state, queued moves,
projected colors and facelet net. Arguments are joined, so spaces between
bytes are fine.

Examples:
  giiker decode 12345678 33333333 123456789ABC 0000
  giiker decode "12 34 56 78 33 33 33 33 12 34 56 78 9A BC 00 00 13"
  giiker decode --format json 1234567833333333123456789ABC0000`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().StringVar(&decodeFormat, "format", "text", "Output format (text, json)")
}

func runDecode(cmd *cobra.Command, args []string) error {
	data, err := protocol.ParseHex(strings.Join(args, ""))
	if err != nil {
		return err
	}

	raw, codes := giiker.DecodeFrame(data)
	moves, moveErrs := giiker.DecodeMoves(codes)
	visible, projErr := giiker.Project(raw)
	if len(data) < giiker.FrameSize {
		projErr = fmt.Errorf("%w: %d bytes, need %d", giiker.ErrMalformedFrame, len(data), giiker.FrameSize)
	}

	switch decodeFormat {
	case "json":
		type decoded struct {
			Frame  string       `json:"frame"`
			Moves  []codec.Move `json:"moves"`
			State  *codec.State `json:"state,omitempty"`
			Errors []string     `json:"errors,omitempty"`
		}
		out := decoded{Frame: protocol.FormatHex(data), Moves: []codec.Move{}}
		for _, m := range moves {
			out.Moves = append(out.Moves, codec.FromMove(m))
		}
		if projErr == nil {
			st := codec.FromState(visible)
			out.State = &st
		} else {
			out.Errors = append(out.Errors, projErr.Error())
		}
		for _, e := range moveErrs {
			out.Errors = append(out.Errors, e.Error())
		}
		b, err := codec.JSONCodec{Indent: true}.Marshal(out)
		if err != nil {
			return err
		}
		fmt.Println(string(b))

	case "text":
		fmt.Printf("Frame: %s (%d bytes)\n\n", protocol.FormatHex(data), len(data))
		fmt.Printf("Corner positions:    %v\n", raw.CornerPositions)
		fmt.Printf("Corner orientations: %v\n", raw.CornerOrientations)
		fmt.Printf("Edge positions:      %v\n", raw.EdgePositions)
		fmt.Printf("Edge flips:          %v\n\n", raw.EdgeOrientations)

		if len(codes) > 0 {
			fmt.Print("Queued moves:")
			for _, c := range codes {
				if m, err := giiker.DecodeMove(c); err == nil {
					fmt.Printf(" %s", m.Notation())
				} else {
					fmt.Printf(" ?%s", c)
				}
			}
			fmt.Println()
			fmt.Println()
		}

		if projErr != nil {
			fmt.Fprintf(os.Stderr, "State: %v\n", projErr)
		} else if visible.IsZero() {
			fmt.Println("State: empty")
		} else {
			fmt.Println("State:")
			fmt.Print(formatState(visible))
			fmt.Println()
			fmt.Print(visible.Facelets().String())
			fmt.Printf("\nSolved: %t\n", visible.IsSolved())
		}
		for _, e := range moveErrs {
			fmt.Fprintf(os.Stderr, "Move dropped: %v\n", e)
		}

	default:
		return fmt.Errorf("unknown format: %s (use text or json)", decodeFormat)
	}

	if projErr != nil {
		return projErr
	}
	return errors.Join(moveErrs...)
}
