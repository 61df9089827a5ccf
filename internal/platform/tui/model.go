package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/flappygym/internal/core"
	"github.com/vovakirdan/flappygym/internal/env"
	"github.com/vovakirdan/flappygym/internal/games/flappy"
	"github.com/vovakirdan/flappygym/internal/registry"
	"github.com/vovakirdan/flappygym/internal/storage"
)

var hintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

// Model is the Bubble Tea model for playing an environment by hand.
type Model struct {
	env        registry.Env
	screen     *core.Screen
	store      *storage.Store
	config     core.RuntimeConfig
	keyMapper  *KeyMapper
	inputFrame core.InputFrame
	gameState  core.GameState
	highScore  int
	quitting   bool
	scoreSaved bool // Whether score has been saved for current game over
}

// NewModel resets e with cfg and wraps it in a Bubble Tea model. The first
// episode uses cfg.Seed; restarts draw a fresh seed from the clock.
// store may be nil, in which case scores are not saved.
func NewModel(e registry.Env, store *storage.Store, cfg core.RuntimeConfig) (Model, error) {
	if _, _, err := e.Reset(cfg); err != nil {
		return Model{}, err
	}

	m := Model{
		env:        e,
		screen:     env.NewFrameScreen(e),
		store:      store,
		config:     cfg,
		keyMapper:  NewKeyMapper(),
		inputFrame: core.NewInputFrame(),
		gameState:  e.State(),
	}
	if store != nil {
		m.highScore, _ = store.HighScore(e.ID())
	}
	return m, nil
}

// Init starts the tick loop.
func (m Model) Init() tea.Cmd {
	return tickCmd(m.config.TickRate)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case TickMsg:
		return m.handleTick()
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+s" {
		m.saveScreenshot()
		return m, nil
	}

	if m.keyMapper.MapKeyToFrame(msg, &m.inputFrame) {
		m.quitting = true
		return m, tea.Quit
	}

	// Pause toggles immediately so the frame shows it without waiting a tick
	if m.inputFrame.Has(core.ActionPause) && !m.gameState.GameOver {
		m.gameState.Paused = !m.gameState.Paused
		m.inputFrame.Clear()
	}

	return m, nil
}

// handleTick processes simulation ticks.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	// Consume the input collected since the last tick
	frame := m.inputFrame
	m.inputFrame.Clear()

	if m.gameState.GameOver {
		if frame.Has(core.ActionRestart) {
			m.restart()
		}
		return m, tickCmd(m.config.TickRate)
	}

	if m.gameState.Paused {
		return m, tickCmd(m.config.TickRate)
	}

	action := flappy.Idle
	if frame.Has(core.ActionFlap) {
		action = flappy.Flap
	}

	if _, err := m.env.Step(action); err != nil {
		// The env only refuses steps after the episode ended
		m.gameState.GameOver = true
		return m, tickCmd(m.config.TickRate)
	}
	m.gameState = m.env.State()

	// Save score on game over (once)
	if m.gameState.GameOver && !m.scoreSaved && m.gameState.Score > 0 {
		if m.store != nil {
			//nolint:errcheck // Best-effort save, game continues regardless
			m.store.SaveScore(m.env.ID(), m.gameState.Score)
		}
		m.highScore = core.Max(m.highScore, m.gameState.Score)
		m.scoreSaved = true
	}

	return m, tickCmd(m.config.TickRate)
}

// restart starts a new episode with a fresh seed.
func (m *Model) restart() {
	m.config.Seed = time.Now().UnixNano()
	if _, _, err := m.env.Reset(m.config); err != nil {
		return
	}
	m.gameState = m.env.State()
	m.scoreSaved = false
}

// saveScreenshot writes the current frame as plain text.
func (m *Model) saveScreenshot() {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	dir := filepath.Join(home, ".flappygym", "screenshots")
	//nolint:errcheck // Best-effort directory creation
	os.MkdirAll(dir, 0o755)

	timestamp := time.Now().Format("20060102_150405")
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.txt", m.env.ID(), timestamp))

	//nolint:errcheck // Best-effort save, game continues regardless
	os.WriteFile(path, []byte(env.Text(m.env)), 0o600)
}

// State returns the current episode state as seen by the player.
func (m Model) State() core.GameState {
	return m.gameState
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	m.env.Render(m.screen)
	switch {
	case m.gameState.GameOver:
		drawOverlay(m.screen, "GAME OVER", fmt.Sprintf("Score: %d", m.gameState.Score))
	case m.gameState.Paused:
		drawOverlay(m.screen, "PAUSED")
	}

	var b strings.Builder
	b.WriteString(RenderScreen(m.screen))
	b.WriteString("\n\n")
	b.WriteString(hintStyle.Render(m.statusLine()))
	return b.String()
}

// drawOverlay draws a framed message box in the middle of the screen.
func drawOverlay(s *core.Screen, lines ...string) {
	width := 0
	for _, line := range lines {
		width = core.Max(width, len([]rune(line)))
	}

	area := core.NewRect(0, 0, s.Width(), s.Height())
	box := area.Centered(width+4, len(lines)+2)
	s.DrawRect(box, ' ')
	s.DrawBox(box)
	for i, line := range lines {
		s.DrawTextCentered(box.Y+1+i, line)
	}
}

func (m Model) statusLine() string {
	best := fmt.Sprintf("best %d", m.highScore)
	switch {
	case m.gameState.GameOver:
		return fmt.Sprintf("Game over! r: restart  q: quit  (%s)", best)
	case m.gameState.Paused:
		return "Paused. p: resume  q: quit"
	default:
		return fmt.Sprintf("space: flap  p: pause  q: quit  (%s)", best)
	}
}

// Run starts the Bubble Tea program for the given environment.
func Run(e registry.Env, store *storage.Store, cfg core.RuntimeConfig) error {
	model, err := NewModel(e, store, cfg)
	if err != nil {
		return err
	}

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(), // Use alternate screen buffer
	)

	_, err = p.Run()
	return err
}
