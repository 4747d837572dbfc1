package bot

import (
	"context"

	"github.com/hiimzein/connect4/internal/models"
)

const (
	WinScore = 100000
	infinity = 1 << 30

	cancelCheckMask = 1<<10 - 1
)

// CenterOut visits the middle column first and then alternates outwards.
var CenterOut = [models.Cols]int{3, 2, 4, 1, 5, 0, 6}

type Result struct {
	Column int   `json:"column"`
	Score  int   `json:"score"`
	Nodes  int64 `json:"nodes"`
	Depth  int   `json:"depth"`
}

type Option func(*Bot)

// WithOrder replaces the column ordering used at every node. Orders that
// are not a permutation of the columns are ignored.
func WithOrder(order [models.Cols]int) Option {
	return func(b *Bot) {
		var seen [models.Cols]bool
		for _, col := range order {
			if col < 0 || col >= models.Cols || seen[col] {
				return
			}
			seen[col] = true
		}
		b.order = order
	}
}

func (b *Bot) Order() [models.Cols]int {
	return b.order
}

// Bot runs negamax with alpha-beta pruning. It holds no per-search state
// and may be shared between goroutines.
type Bot struct {
	order [models.Cols]int
}

func New(opts ...Option) *Bot {
	b := &Bot{order: CenterOut}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BestMove returns the best column for player, or false when the board
// has no legal column.
func (b *Bot) BestMove(board models.Board, depth int, player models.Player) (int, bool) {
	res, err := b.Search(context.Background(), board, depth, player)
	if err != nil {
		return -1, false
	}
	return res.Column, true
}

// Search explores a private copy of board. When ctx is cancelled it
// returns ctx.Err() and no column.
func (b *Bot) Search(ctx context.Context, board models.Board, depth int, player models.Player) (Result, error) {
	if !player.Valid() {
		return Result{Column: -1}, models.ErrInvalidPlayer
	}
	if depth < 1 {
		depth = 1
	}
	if err := ctx.Err(); err != nil {
		return Result{Column: -1}, err
	}

	s := &search{ctx: ctx, board: board, order: b.order}
	best := Result{Column: -1, Score: -infinity, Depth: depth}
	alpha, beta := -infinity, infinity

	for _, col := range s.order {
		if !s.board.CanDrop(col) {
			continue
		}
		score := s.play(col, player, func() int {
			return -s.negamax(depth-1, player.Opponent(), -beta, -alpha)
		})
		if s.err != nil {
			return Result{Column: -1, Nodes: s.nodes}, s.err
		}
		if best.Column == -1 || score > best.Score {
			best.Column = col
			best.Score = score
		}
		if best.Score > alpha {
			alpha = best.Score
		}
	}

	best.Nodes = s.nodes
	if best.Column == -1 {
		return best, models.ErrNoLegalMove
	}
	return best, nil
}

type search struct {
	ctx   context.Context
	board models.Board
	order [models.Cols]int
	nodes int64
	err   error
}

// play drops a piece, runs fn and always takes the piece back.
func (s *search) play(col int, player models.Player, fn func() int) int {
	if _, err := s.board.DropPiece(col, player); err != nil {
		// callers only pass columns with room
		s.err = err
		return 0
	}
	defer s.board.Undo(col)
	return fn()
}

func (s *search) negamax(depth int, player models.Player, alpha, beta int) int {
	s.nodes++
	if s.nodes&cancelCheckMask == 0 && s.err == nil {
		s.err = s.ctx.Err()
	}
	if s.err != nil {
		return 0
	}

	if winner, _, won := models.Winner(&s.board); won {
		if winner == player {
			return WinScore + depth
		}
		return -(WinScore + depth)
	}
	if s.board.IsFull() {
		return 0
	}
	if depth == 0 {
		return Evaluate(&s.board, player)
	}

	best := -infinity
	for _, col := range s.order {
		if !s.board.CanDrop(col) {
			continue
		}
		val := s.play(col, player, func() int {
			return -s.negamax(depth-1, player.Opponent(), -beta, -alpha)
		})
		if s.err != nil {
			return 0
		}
		if val > best {
			best = val
		}
		if best > alpha {
			alpha = best
		}
		if alpha >= beta {
			break
		}
	}
	return best
}
