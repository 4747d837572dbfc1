package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/hiimzein/connect4/internal/bot"
	"github.com/hiimzein/connect4/internal/models"
)

func TestNewMatchValidatesSettings(t *testing.T) {
	if _, err := NewMatch(Settings{Difficulty: "silly", VsCPU: true, CPUColor: models.PlayerB}, nil, nil); err == nil {
		t.Fatalf("expected error for unknown difficulty")
	}
	if _, err := NewMatch(Settings{Difficulty: bot.Easy, VsCPU: true, CPUColor: models.Empty}, nil, nil); !errors.Is(err, models.ErrInvalidPlayer) {
		t.Fatalf("expected ErrInvalidPlayer, got %v", err)
	}
	if _, err := NewMatch(Settings{Difficulty: bot.Easy}, nil, nil); err != nil {
		t.Fatalf("two-player match rejected: %v", err)
	}
}

func TestMatchAutomatedPlayer(t *testing.T) {
	m, err := NewMatch(DefaultSettings(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !m.IsAutomated(models.PlayerB) || m.IsAutomated(models.PlayerA) {
		t.Fatalf("cpu should play yellow by default")
	}
	if m.CPUToMove() {
		t.Fatalf("red opens, cpu should wait")
	}
	if _, err := m.Play(3); err != nil {
		t.Fatal(err)
	}
	if !m.CPUToMove() {
		t.Fatalf("cpu should be to move after red")
	}

	res, err := m.Think(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Depth != bot.DefaultDepths()[bot.Medium] {
		t.Fatalf("searched depth %d", res.Depth)
	}
	if m.State().MoveCount != 1 {
		t.Fatalf("Think changed the match")
	}
	if _, err := m.Play(res.Column); err != nil {
		t.Fatalf("cpu column rejected: %v", err)
	}
}

func TestMatchTwoPlayerHasNoAutomation(t *testing.T) {
	m, _ := NewMatch(Settings{Difficulty: bot.Hard, VsCPU: false, CPUColor: models.PlayerB}, nil, nil)
	for _, p := range []models.Player{models.PlayerA, models.PlayerB} {
		if m.IsAutomated(p) {
			t.Fatalf("%v automated in two-player mode", p)
		}
	}
}

func TestMatchConfigureResets(t *testing.T) {
	m, _ := NewMatch(DefaultSettings(), bot.DepthTable{bot.Easy: 1, bot.Medium: 2, bot.Hard: 3}, nil)
	_, _ = m.Play(3)
	_, _ = m.Play(3)

	err := m.Configure(Settings{Difficulty: bot.Hard, VsCPU: true, CPUColor: models.PlayerA})
	if err != nil {
		t.Fatal(err)
	}
	st := m.State()
	if st.Board.Pieces() != 0 || st.ToMove != models.PlayerA {
		t.Fatalf("configure did not reset the board")
	}
	if !m.CPUToMove() {
		t.Fatalf("cpu plays red now and should open")
	}
	if m.Depth() != 3 {
		t.Fatalf("depth = %d, want 3", m.Depth())
	}

	before := m.Settings()
	if err := m.Configure(Settings{Difficulty: "nope"}); err == nil {
		t.Fatalf("bad settings accepted")
	}
	if m.Settings() != before {
		t.Fatalf("failed configure changed settings")
	}
}

func TestMatchResetLeavesSettings(t *testing.T) {
	m, _ := NewMatch(DefaultSettings(), nil, nil)
	_, _ = m.Play(0)
	m.Reset()
	if m.State().MoveCount != 0 || m.Settings() != DefaultSettings() {
		t.Fatalf("reset misbehaved")
	}
}
