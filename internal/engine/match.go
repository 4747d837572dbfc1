package engine

import (
	"context"
	"fmt"

	"github.com/hiimzein/connect4/internal/bot"
	"github.com/hiimzein/connect4/internal/models"
)

type Settings struct {
	Difficulty bot.Difficulty
	VsCPU      bool
	CPUColor   models.Player
}

func DefaultSettings() Settings {
	return Settings{
		Difficulty: bot.Medium,
		VsCPU:      true,
		CPUColor:   models.PlayerB,
	}
}

func (s Settings) Validate() error {
	if _, err := bot.ParseDifficulty(string(s.Difficulty)); err != nil {
		return err
	}
	if s.VsCPU && !s.CPUColor.Valid() {
		return fmt.Errorf("%w: cpu color %d", models.ErrInvalidPlayer, s.CPUColor)
	}
	return nil
}

func (s Settings) Model() models.GameSettings {
	gs := models.GameSettings{Difficulty: string(s.Difficulty), VsCPU: s.VsCPU}
	if s.VsCPU {
		gs.CPUColor = s.CPUColor.Color()
	}
	return gs
}

// Match is one game plus the difficulty controller that drives the CPU
// side. It is not safe for concurrent use; callers serialise access.
type Match struct {
	settings Settings
	depths   bot.DepthTable
	bot      *bot.Bot
	state    models.GameState
}

func NewMatch(settings Settings, depths bot.DepthTable, b *bot.Bot) (*Match, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if depths == nil {
		depths = bot.DefaultDepths()
	}
	if b == nil {
		b = defaultBot
	}
	return &Match{settings: settings, depths: depths, bot: b, state: NewGame()}, nil
}

func (m *Match) State() models.GameState {
	return m.state
}

func (m *Match) Settings() Settings {
	return m.settings
}

func (m *Match) Depth() int {
	return m.depths.Depth(m.settings.Difficulty)
}

func (m *Match) DepthFor(d bot.Difficulty) int {
	return m.depths.Depth(d)
}

// IsAutomated reports whether player's moves come from the search.
func (m *Match) IsAutomated(player models.Player) bool {
	return m.settings.VsCPU && player == m.settings.CPUColor
}

func (m *Match) CPUToMove() bool {
	return !m.state.IsTerminal() && m.IsAutomated(m.state.ToMove)
}

// Play applies a move for whoever is to move.
func (m *Match) Play(column int) (models.GameState, error) {
	next, err := ApplyMove(m.state, column, m.state.ToMove)
	if err != nil {
		return m.state, err
	}
	m.state = next
	return next, nil
}

// Think runs the search for the side to move at the configured depth
// without changing the match.
func (m *Match) Think(ctx context.Context) (bot.Result, error) {
	return ComputeAIMoveContext(ctx, m.bot, m.state, m.Depth())
}

func (m *Match) Reset() {
	m.state = NewGame()
}

// Configure swaps the settings and starts a fresh game.
func (m *Match) Configure(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	m.settings = settings
	m.Reset()
	return nil
}
