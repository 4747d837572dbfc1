package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	Cols     = 7
	Rows     = 6
	ConnectN = 4
)

type Player int

const (
	Empty Player = iota
	PlayerA
	PlayerB
)

func (p Player) Valid() bool {
	return p == PlayerA || p == PlayerB
}

func (p Player) Opponent() Player {
	switch p {
	case PlayerA:
		return PlayerB
	case PlayerB:
		return PlayerA
	}
	return Empty
}

func (p Player) Color() PlayerColor {
	switch p {
	case PlayerA:
		return ColorRed
	case PlayerB:
		return ColorYellow
	}
	return ""
}

func (p Player) String() string {
	if c := p.Color(); c != "" {
		return string(c)
	}
	return "empty"
}

// Board is a Cols x Rows grid addressed as (col, row) with row 0 at the
// bottom. It is a plain value: assigning it copies the whole grid.
type Board struct {
	cells   [Cols][Rows]Player
	heights [Cols]int
}

func NewBoard() Board {
	return Board{}
}

func validColumn(col int) bool {
	return col >= 0 && col < Cols
}

// DropPiece places player's piece in the lowest empty row of col and
// returns that row. The board is left untouched on error.
func (b *Board) DropPiece(col int, player Player) (int, error) {
	if !validColumn(col) {
		return -1, fmt.Errorf("%w: %d", ErrInvalidColumn, col)
	}
	if !player.Valid() {
		return -1, fmt.Errorf("%w: %d", ErrInvalidPlayer, player)
	}
	row := b.heights[col]
	if row >= Rows {
		return -1, fmt.Errorf("%w: %d", ErrColumnFull, col)
	}
	b.cells[col][row] = player
	b.heights[col]++
	return row, nil
}

// Undo removes the topmost piece of col.
func (b *Board) Undo(col int) error {
	if !validColumn(col) {
		return fmt.Errorf("%w: %d", ErrInvalidColumn, col)
	}
	if b.heights[col] == 0 {
		return fmt.Errorf("%w: %d", ErrColumnEmpty, col)
	}
	b.heights[col]--
	b.cells[col][b.heights[col]] = Empty
	return nil
}

func (b *Board) Occupant(col, row int) Player {
	if !validColumn(col) || row < 0 || row >= Rows {
		return Empty
	}
	return b.cells[col][row]
}

func (b *Board) Height(col int) int {
	if !validColumn(col) {
		return 0
	}
	return b.heights[col]
}

func (b *Board) CanDrop(col int) bool {
	return validColumn(col) && b.heights[col] < Rows
}

func (b *Board) IsFull() bool {
	for col := 0; col < Cols; col++ {
		if b.heights[col] < Rows {
			return false
		}
	}
	return true
}

func (b *Board) Pieces() int {
	n := 0
	for col := 0; col < Cols; col++ {
		n += b.heights[col]
	}
	return n
}

// LegalMoves lists the columns with room, left to right.
func (b *Board) LegalMoves() []int {
	moves := make([]int, 0, Cols)
	for col := 0; col < Cols; col++ {
		if b.heights[col] < Rows {
			moves = append(moves, col)
		}
	}
	return moves
}

// Key encodes the board as Cols*Rows digits, column by column from the
// bottom up.
func (b *Board) Key() string {
	var sb strings.Builder
	sb.Grow(Cols * Rows)
	for col := 0; col < Cols; col++ {
		for row := 0; row < Rows; row++ {
			sb.WriteByte(byte('0' + b.cells[col][row]))
		}
	}
	return sb.String()
}

// ParseBoard is the inverse of Key. Pieces must rest on the bottom or on
// another piece.
func ParseBoard(key string) (Board, error) {
	var b Board
	if len(key) != Cols*Rows {
		return b, fmt.Errorf("%w: length %d", ErrInvalidBoard, len(key))
	}
	for col := 0; col < Cols; col++ {
		for row := 0; row < Rows; row++ {
			p := Player(key[col*Rows+row] - '0')
			if p == Empty {
				continue
			}
			if !p.Valid() {
				return Board{}, fmt.Errorf("%w: bad cell %q", ErrInvalidBoard, key[col*Rows+row])
			}
			if b.heights[col] != row {
				return Board{}, fmt.Errorf("%w: floating piece at (%d,%d)", ErrInvalidBoard, col, row)
			}
			b.cells[col][row] = p
			b.heights[col]++
		}
	}
	return b, nil
}

func (b *Board) String() string {
	var sb strings.Builder
	for row := Rows - 1; row >= 0; row-- {
		for col := 0; col < Cols; col++ {
			switch b.cells[col][row] {
			case PlayerA:
				sb.WriteByte('X')
			case PlayerB:
				sb.WriteByte('O')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

type boardJSON struct {
	Cells   [Cols][Rows]Player `json:"cells"`
	Heights [Cols]int          `json:"heights"`
}

func (b Board) MarshalJSON() ([]byte, error) {
	return json.Marshal(boardJSON{Cells: b.cells, Heights: b.heights})
}

func (b *Board) UnmarshalJSON(data []byte) error {
	var raw boardJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var sb strings.Builder
	for col := 0; col < Cols; col++ {
		for row := 0; row < Rows; row++ {
			p := raw.Cells[col][row]
			if p != Empty && !p.Valid() {
				return fmt.Errorf("%w: cell %d,%d holds %d", ErrInvalidBoard, col, row, p)
			}
			sb.WriteByte(byte('0' + p))
		}
	}
	parsed, err := ParseBoard(sb.String())
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
