package engine

import (
	"context"
	"fmt"

	"github.com/hiimzein/connect4/internal/bot"
	"github.com/hiimzein/connect4/internal/models"
)

// SelfPlay plays the opening moves and then lets the bot finish the game,
// searching depthA plies for player A and depthB for player B.
func SelfPlay(ctx context.Context, b *bot.Bot, depthA, depthB int, opening []int) (models.GameState, error) {
	if b == nil {
		b = defaultBot
	}
	state := NewGame()
	for _, col := range opening {
		next, err := ApplyMove(state, col, state.ToMove)
		if err != nil {
			return state, fmt.Errorf("opening move %d: %w", col, err)
		}
		state = next
	}

	for !state.IsTerminal() {
		depth := depthA
		if state.ToMove == models.PlayerB {
			depth = depthB
		}
		res, err := ComputeAIMoveContext(ctx, b, state, depth)
		if err != nil {
			return state, err
		}
		if state, err = ApplyMove(state, res.Column, state.ToMove); err != nil {
			return state, err
		}
	}
	return state, nil
}
