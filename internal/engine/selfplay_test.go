package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/hiimzein/connect4/internal/models"
)

func TestSelfPlayFinishes(t *testing.T) {
	for _, opening := range [][]int{nil, {0}, {6, 5}, {3, 3, 2}} {
		state, err := SelfPlay(context.Background(), nil, 2, 1, opening)
		if err != nil {
			t.Fatalf("opening %v: %v", opening, err)
		}
		if !state.IsTerminal() {
			t.Fatalf("opening %v: game did not finish", opening)
		}
		if state.MoveCount != state.Board.Pieces() || state.MoveCount < 7 {
			t.Errorf("opening %v: %d moves, %d pieces", opening, state.MoveCount, state.Board.Pieces())
		}
		if state.Status == models.GameStatusWon {
			if w, _, ok := models.Winner(&state.Board); !ok || w != state.Winner {
				t.Errorf("opening %v: recorded winner %v, board says %v", opening, state.Winner, w)
			}
		}
	}
}

func TestSelfPlayIsDeterministic(t *testing.T) {
	a, err := SelfPlay(context.Background(), nil, 2, 2, []int{1})
	if err != nil {
		t.Fatal(err)
	}
	b, err := SelfPlay(context.Background(), nil, 2, 2, []int{1})
	if err != nil {
		t.Fatal(err)
	}
	if a.Board.Key() != b.Board.Key() {
		t.Fatal("same opening produced different games")
	}
}

func TestSelfPlayRejectsBadOpening(t *testing.T) {
	if _, err := SelfPlay(context.Background(), nil, 1, 1, []int{9}); !errors.Is(err, models.ErrInvalidColumn) {
		t.Fatalf("got %v", err)
	}
}

func TestSelfPlayCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := SelfPlay(ctx, nil, 2, 2, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v", err)
	}
}
