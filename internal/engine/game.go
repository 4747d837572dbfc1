// Package engine is the function-call boundary used by the front end: it
// validates and applies moves and asks the bot for CPU replies.
package engine

import (
	"context"
	"fmt"

	"github.com/hiimzein/connect4/internal/bot"
	"github.com/hiimzein/connect4/internal/models"
)

var defaultBot = bot.New()

func NewGame() models.GameState {
	return models.GameState{
		Board:  models.NewBoard(),
		ToMove: models.PlayerA,
		Status: models.GameStatusOngoing,
	}
}

// ApplyMove returns the state after player drops into column. The input
// state is not modified.
func ApplyMove(state models.GameState, column int, player models.Player) (models.GameState, error) {
	if state.IsTerminal() {
		return state, models.ErrGameOver
	}
	if !player.Valid() {
		return state, fmt.Errorf("%w: %d", models.ErrInvalidPlayer, player)
	}
	if player != state.ToMove {
		return state, fmt.Errorf("%w: %s to move", models.ErrNotYourTurn, state.ToMove)
	}

	next := state
	row, err := next.Board.DropPiece(column, player)
	if err != nil {
		return state, err
	}
	next.MoveCount++
	next.LastMove = &models.Cell{Col: column, Row: row}

	if line, won := models.CheckWin(&next.Board, column, row, player); won {
		next.Status = models.GameStatusWon
		next.Winner = player
		next.Line = &line
		return next, nil
	}
	if next.Board.IsFull() {
		next.Status = models.GameStatusDraw
		return next, nil
	}
	next.ToMove = player.Opponent()
	return next, nil
}

// ComputeAIMove picks a column for the player to move. It never changes
// state; the caller feeds the column back through ApplyMove.
func ComputeAIMove(state models.GameState, depth int) (int, error) {
	res, err := ComputeAIMoveContext(context.Background(), defaultBot, state, depth)
	return res.Column, err
}

func ComputeAIMoveContext(ctx context.Context, b *bot.Bot, state models.GameState, depth int) (bot.Result, error) {
	if state.IsTerminal() {
		return bot.Result{Column: -1}, models.ErrGameOver
	}
	if state.Board.IsFull() {
		return bot.Result{Column: -1}, models.ErrNoLegalMove
	}
	return b.Search(ctx, state.Board, depth, state.ToMove)
}
