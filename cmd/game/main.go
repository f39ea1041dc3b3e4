// Command game plays an interactive terminal match against the engine.
// Move the cursor with the arrow keys, place a mark with enter or
// space, quit with q.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tictac/game"
	"tictac/searcher"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	xStyle      = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#007e50", Dark: "#6afd76"}).Render
	oStyle      = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#0003ad", Dark: "#5f61fc"}).Render
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#960000", Dark: "#fc7e7e"}).Render
	faintStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#8f8f8f", Dark: "#5e5e5e"}).Render
	statStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#8a880f", Dark: "#ddda1d"}).Render
)

type botDoneMsg struct {
	action game.Action
	err    error
}

type model struct {
	board    game.Board
	cursor   game.Action
	human    game.Player
	toMove   game.Player
	bot      *searcher.MCTS
	spin     spinner.Model
	thinking bool
	gameOver bool
	outcome  game.Outcome
	lastInfo string
	err      error
}

func newModel(size int, human game.Player, bot *searcher.MCTS) *model {
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &model{
		board:  game.New(size),
		human:  human,
		toMove: game.PlayerX,
		bot:    bot,
		spin:   s,
	}
}

func (m *model) Init() tea.Cmd {
	if m.toMove != m.human {
		m.thinking = true
		return tea.Batch(m.spin.Tick, m.startSearch())
	}
	return nil
}

// startSearch runs the engine off the UI loop and delivers its move as
// a message.
func (m *model) startSearch() tea.Cmd {
	board, player := m.board, m.toMove
	return func() tea.Msg {
		action, err := m.bot.FindBestMove(context.Background(), board, player)
		return botDoneMsg{action: action, err: err}
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.thinking {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case botDoneMsg:
		m.thinking = false
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		if err := m.play(msg.action); err != nil {
			m.err = err
			return m, tea.Quit
		}
		metric := m.bot.Metric()
		m.lastInfo = fmt.Sprintf("engine played %v after %d iterations in %v",
			msg.action, metric.Iterations, metric.Duration.Round(time.Millisecond))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "up":
		m.cursor.Row = max(0, m.cursor.Row-1)
	case "down":
		m.cursor.Row = min(m.board.Size()-1, m.cursor.Row+1)
	case "left":
		m.cursor.Col = max(0, m.cursor.Col-1)
	case "right":
		m.cursor.Col = min(m.board.Size()-1, m.cursor.Col+1)

	case "enter", " ":
		if m.thinking || m.gameOver || m.toMove != m.human {
			return m, nil
		}
		if m.board.At(m.cursor.Row, m.cursor.Col) != game.None {
			return m, nil
		}
		if err := m.play(m.cursor); err != nil {
			m.err = err
			return m, tea.Quit
		}
		if !m.gameOver {
			m.thinking = true
			return m, tea.Batch(m.spin.Tick, m.startSearch())
		}
	}
	return m, nil
}

// play applies a move for the side to move and advances the turn.
func (m *model) play(a game.Action) error {
	board, err := m.board.Apply(a, m.toMove)
	if err != nil {
		return err
	}
	m.board = board
	m.toMove = m.toMove.Opponent()

	if outcome := board.Outcome(); outcome.Terminal() {
		m.gameOver = true
		m.outcome = outcome
	}
	return nil
}

func (m *model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("tictac %dx%d", m.board.Size(), m.board.Size())))
	b.WriteString("\n\n")

	for r := 0; r < m.board.Size(); r++ {
		for c := 0; c < m.board.Size(); c++ {
			b.WriteString(m.renderCell(r, c))
		}
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	switch {
	case m.err != nil:
		b.WriteString(fmt.Sprintf("error: %v\n", m.err))
	case m.gameOver:
		b.WriteString(m.verdict() + "\npress q to quit\n")
	case m.thinking:
		b.WriteString(m.spin.View() + " thinking...\n")
	default:
		b.WriteString(fmt.Sprintf("your move (%s)\n", m.human))
	}
	if m.lastInfo != "" {
		b.WriteString(statStyle(m.lastInfo) + "\n")
	}
	return b.String()
}

func (m *model) renderCell(r, c int) string {
	mark := m.board.At(r, c).String()
	switch m.board.At(r, c) {
	case game.PlayerX:
		mark = xStyle("X")
	case game.PlayerO:
		mark = oStyle("O")
	default:
		mark = faintStyle(".")
	}

	if !m.gameOver && !m.thinking && m.cursor.Row == r && m.cursor.Col == c {
		return cursorStyle("[") + mark + cursorStyle("]")
	}
	return " " + mark + " "
}

func (m *model) verdict() string {
	switch m.outcome.Winner() {
	case m.human:
		return "you win!"
	case m.human.Opponent():
		return "the engine wins!"
	}
	return "tie!"
}

func main() {
	size := flag.Int("size", 3, "board side length")
	iterations := flag.Int("iterations", 10_000, "search iterations per engine move")
	trees := flag.Int("trees", 1, "parallel search trees")
	seed := flag.Uint64("seed", 42, "random seed")
	side := flag.String("side", "x", "side to play: x moves first, o second")
	flag.Parse()

	human := game.PlayerX
	if strings.EqualFold(*side, "o") {
		human = game.PlayerO
	}

	bot := searcher.NewMCTS(
		searcher.WithIterations(*iterations),
		searcher.WithParallelTrees(*trees),
		searcher.WithSeed(*seed),
		searcher.WithTreeReuse(),
	)

	if _, err := tea.NewProgram(newModel(*size, human, bot)).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "game aborted: %v\n", err)
		os.Exit(1)
	}
}
