package bot

import (
	"testing"

	"github.com/hiimzein/connect4/internal/models"
)

// positions plays deterministic pseudo-random games and collects every
// non-terminal position along the way.
func positions(t *testing.T, games, maxMoves int) []models.Board {
	t.Helper()
	var out []models.Board
	x := uint32(88172645)
	for g := 0; g < games; g++ {
		b := models.NewBoard()
		p := models.PlayerA
		for m := 0; m < maxMoves && !b.IsFull(); m++ {
			x ^= x << 13
			x ^= x >> 17
			x ^= x << 5
			col := int(x % models.Cols)
			if !b.CanDrop(col) {
				continue
			}
			next := b
			row, err := next.DropPiece(col, p)
			if err != nil {
				t.Fatalf("drop: %v", err)
			}
			if _, won := models.CheckWin(&next, col, row, p); won {
				break
			}
			b = next
			p = p.Opponent()
			out = append(out, b)
		}
	}
	return out
}

func mustBoard(t *testing.T, moves ...int) models.Board {
	t.Helper()
	b := models.NewBoard()
	p := models.PlayerA
	for _, col := range moves {
		if _, err := b.DropPiece(col, p); err != nil {
			t.Fatalf("drop %d: %v", col, err)
		}
		p = p.Opponent()
	}
	return b
}

func toMove(b models.Board) models.Player {
	if b.Pieces()%2 == 0 {
		return models.PlayerA
	}
	return models.PlayerB
}
