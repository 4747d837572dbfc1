// Package book memoises completed searches. The search is deterministic, so
// a position searched once at a given depth for a given side always yields
// the same column.
package book

import (
	"context"
	"strconv"

	"github.com/hiimzein/connect4/internal/models"
)

type Store interface {
	// Get returns the stored column for key. found is false on a miss.
	Get(ctx context.Context, key string) (col int, found bool, err error)
	Put(ctx context.Context, key string, col int) error
}

// Key identifies a search: position, depth and side to move.
func Key(b *models.Board, depth int, player models.Player) string {
	return b.Key() + ":" + strconv.Itoa(depth) + ":" + strconv.Itoa(int(player))
}

type Nop struct{}

func (Nop) Get(context.Context, string) (int, bool, error) { return 0, false, nil }
func (Nop) Put(context.Context, string, int) error { return nil }

func validColumn(col int) bool {
	return col >= 0 && col < models.Cols
}
