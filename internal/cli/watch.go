package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/SeamusWaldron/giiker_ble_library"
	"github.com/SeamusWaldron/giiker_ble_library/internal/recorder"
)

var watchPlain bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the cube's moves and state live",
	Long: `Connect to the cube and show every move as it happens along with the
current facelet net.

Keyboard shortcuts:
  b       - Read the battery level
  c       - Clear the move history
  q/Esc   - Quit

When stdout is not a terminal (or with --plain) one line is printed per
frame instead.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVar(&watchPlain, "plain", false, "Print one line per frame instead of the interactive view")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	conn, err := connect(ctx)
	if err != nil {
		return err
	}
	defer conn.session.Close()

	return runLive(ctx, conn, nil)
}

// runLive drives a started session until the user quits or the cube goes
// away. rec, when set, receives every frame.
func runLive(ctx context.Context, conn *connection, rec *recorder.Recorder) error {
	if watchPlain || !term.IsTerminal(int(os.Stdout.Fd())) {
		return runPlain(ctx, conn, rec)
	}

	m := newLiveModel(conn, rec)
	conn.session.OnFrame(m.handleFrame)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// runPlain prints one line per frame until ctx is canceled or the session
// ends.
func runPlain(ctx context.Context, conn *connection, rec *recorder.Recorder) error {
	s := conn.session
	fmt.Printf("Connected to %s\n", conn.deviceName)
	fmt.Print(s.State().Facelets().String())

	s.OnFrame(func(f giiker.Frame) {
		if rec != nil {
			if err := rec.HandleFrame(f); err != nil {
				logger.Warn("failed to record frame", zap.Error(err))
			}
		}
		ts := f.Time.Format("15:04:05.000")
		switch {
		case f.Move != nil && f.Err != nil:
			fmt.Printf("%s  %-3s  rejected: %v\n", ts, f.Move.Notation(), f.Err)
		case f.Move != nil:
			solved := ""
			if s.State().IsSolved() {
				solved = "  solved"
			}
			fmt.Printf("%s  %-3s%s\n", ts, f.Move.Notation(), solved)
		case f.Err != nil:
			fmt.Printf("%s  ---  rejected: %v\n", ts, f.Err)
		}
	})

	select {
	case <-ctx.Done():
	case <-s.Done():
		if err := s.Err(); err != nil {
			fmt.Printf("Disconnected: %v\n", err)
		} else {
			fmt.Println("Disconnected")
		}
	}

	fmt.Printf("\n%d moves: %s\n", len(s.Moves()), giiker.FormatMoves(s.Moves()))
	return nil
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	solvedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	moveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

var stickerColors = map[giiker.Color]lipgloss.Color{
	giiker.Blue:   lipgloss.Color("27"),
	giiker.Yellow: lipgloss.Color("226"),
	giiker.Orange: lipgloss.Color("208"),
	giiker.White:  lipgloss.Color("255"),
	giiker.Red:    lipgloss.Color("196"),
	giiker.Green:  lipgloss.Color("40"),
}

// Messages
type tickMsg time.Time
type frameMsg giiker.Frame
type disconnectedMsg struct{ err error }
type batteryMsg struct {
	level int
	err   error
}

const maxShownMoves = 24

type liveModel struct {
	conn    *connection
	rec     *recorder.Recorder
	frames  chan giiker.Frame
	spinner spinner.Model

	state    giiker.VisibleState
	recent   []giiker.Move
	total    int
	rejected int
	lastErr  error

	battery        int
	batteryPending bool

	disconnected bool
	discErr      error
	quitting     bool
}

func newLiveModel(conn *connection, rec *recorder.Recorder) *liveModel {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = statusStyle
	return &liveModel{
		conn:    conn,
		rec:     rec,
		frames:  make(chan giiker.Frame, 100),
		spinner: sp,
		state:   conn.session.State(),
		battery: -1,
	}
}

// handleFrame runs on the session's goroutine. Recording happens here so no
// frame is lost to a slow UI.
func (m *liveModel) handleFrame(f giiker.Frame) {
	if m.rec != nil {
		if err := m.rec.HandleFrame(f); err != nil {
			logger.Warn("failed to record frame", zap.Error(err))
		}
	}
	select {
	case m.frames <- f:
	default:
		// UI is behind, it will catch up from session state
	}
}

func (m *liveModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listen(), m.tickCmd())
}

func (m *liveModel) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case f := <-m.frames:
			return frameMsg(f)
		case <-m.conn.session.Done():
			return disconnectedMsg{err: m.conn.session.Err()}
		}
	}
}

func (m *liveModel) tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *liveModel) readBattery() tea.Cmd {
	return func() tea.Msg {
		level, err := m.conn.session.BatteryLevel(context.Background())
		return batteryMsg{level: level, err: err}
	}
}

func (m *liveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "b":
			if m.disconnected || m.batteryPending {
				return m, nil
			}
			m.batteryPending = true
			return m, m.readBattery()
		case "c":
			m.conn.session.ClearHistory()
			m.recent = nil
			m.total = 0
		}

	case frameMsg:
		if msg.Move != nil {
			m.recent = append(m.recent, *msg.Move)
			if len(m.recent) > maxShownMoves {
				m.recent = m.recent[len(m.recent)-maxShownMoves:]
			}
			m.total++
		}
		if msg.Err != nil {
			m.rejected++
			m.lastErr = msg.Err
		}
		m.state = m.conn.session.State()
		return m, m.listen()

	case disconnectedMsg:
		m.disconnected = true
		m.discErr = msg.err
		return m, nil

	case batteryMsg:
		m.batteryPending = false
		if msg.err != nil {
			m.lastErr = msg.err
			return m, nil
		}
		m.battery = msg.level
		if m.rec != nil {
			if err := m.rec.RecordBattery(msg.level); err != nil {
				logger.Warn("failed to record battery", zap.Error(err))
			}
		}
		return m, nil

	case tickMsg:
		return m, m.tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *liveModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	title := "Giiker Watch"
	if m.rec != nil {
		title = "Giiker Recorder"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	status := fmt.Sprintf("Device: %s", m.conn.deviceName)
	if m.battery >= 0 {
		status += fmt.Sprintf("  Battery: %d%%", m.battery)
	}
	if m.disconnected {
		b.WriteString(statusStyle.Render(status))
		b.WriteString("  ")
		if m.discErr != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Disconnected: %v", m.discErr)))
		} else {
			b.WriteString(errorStyle.Render("Disconnected"))
		}
	} else {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(statusStyle.Render(status))
		if m.batteryPending {
			b.WriteString(statusStyle.Render("  (reading battery...)"))
		}
	}
	b.WriteString("\n")

	if m.rec != nil {
		b.WriteString(solvedStyle.Render(fmt.Sprintf("RECORDING: %s", formatElapsed(m.rec.Elapsed()))))
		b.WriteString(statusStyle.Render(fmt.Sprintf("  %s", m.rec.RecordingID())))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(renderNet(m.state.Facelets()))
	b.WriteString("\n")
	if m.state.IsSolved() {
		b.WriteString(solvedStyle.Render("SOLVED"))
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("Moves (%d): ", m.total))
	if len(m.recent) == 0 {
		b.WriteString(statusStyle.Render("turn a face"))
	} else {
		if m.total > len(m.recent) {
			b.WriteString(statusStyle.Render("... "))
		}
		b.WriteString(moveStyle.Render(giiker.FormatMoves(m.recent)))
	}
	b.WriteString("\n")

	if m.rejected > 0 {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Rejected frames: %d", m.rejected)))
		b.WriteString("\n")
	}
	if m.lastErr != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Last error: %v", m.lastErr)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("b: battery • c: clear moves • q: quit"))
	b.WriteString("\n")

	return b.String()
}

// renderNet draws the facelet net with colored stickers.
func renderNet(c *giiker.Cube) string {
	sticker := func(col giiker.Color) string {
		bg, ok := stickerColors[col]
		if !ok {
			return "? "
		}
		return lipgloss.NewStyle().Background(bg).Render("  ")
	}
	row := func(b *strings.Builder, f giiker.Face, r int) {
		face := c.Face(f)
		for col := 0; col < 3; col++ {
			b.WriteString(sticker(face[r*3+col]))
		}
		b.WriteString(" ")
	}

	var b strings.Builder
	for r := 0; r < 3; r++ {
		b.WriteString("       ")
		row(&b, giiker.FaceU, r)
		b.WriteString("\n")
	}
	for r := 0; r < 3; r++ {
		for _, f := range []giiker.Face{giiker.FaceL, giiker.FaceF, giiker.FaceR, giiker.FaceB} {
			row(&b, f, r)
		}
		b.WriteString("\n")
	}
	for r := 0; r < 3; r++ {
		b.WriteString("       ")
		row(&b, giiker.FaceD, r)
		b.WriteString("\n")
	}
	return b.String()
}

func formatElapsed(d time.Duration) string {
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	tenths := int(d.Milliseconds()/100) % 10
	return fmt.Sprintf("%02d:%02d.%d", mins, secs, tenths)
}
