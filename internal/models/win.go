package models

// Cell is a board coordinate, row 0 being the bottom row.
type Cell struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

type WinningLine [ConnectN]Cell

// axes in the order they are checked: horizontal, vertical, "/" and "\".
var axes = [4][2]int{{1, 0}, {0, 1}, {1, 1}, {1, -1}}

// CheckWin looks for a line of ConnectN through (col, row) owned by player.
// The returned line holds the first ConnectN contiguous cells of the run,
// ordered along the axis direction.
func CheckWin(b *Board, col, row int, player Player) (WinningLine, bool) {
	var line WinningLine
	if !player.Valid() || b.Occupant(col, row) != player {
		return line, false
	}

	for _, axis := range axes {
		dc, dr := axis[0], axis[1]

		back := 0
		for back < ConnectN-1 && b.Occupant(col-dc*(back+1), row-dr*(back+1)) == player {
			back++
		}
		fwd := 0
		for fwd < ConnectN-1 && b.Occupant(col+dc*(fwd+1), row+dr*(fwd+1)) == player {
			fwd++
		}
		if back+fwd+1 < ConnectN {
			continue
		}

		startCol, startRow := col-dc*back, row-dr*back
		for i := range line {
			line[i] = Cell{Col: startCol + dc*i, Row: startRow + dr*i}
		}
		return line, true
	}
	return line, false
}

// Winner scans the whole board for any line of ConnectN.
func Winner(b *Board) (Player, WinningLine, bool) {
	var line WinningLine
	for col := 0; col < Cols; col++ {
		for row := 0; row < b.heights[col]; row++ {
			p := b.cells[col][row]
			for _, axis := range axes {
				n := 1
				for n < ConnectN && b.Occupant(col+axis[0]*n, row+axis[1]*n) == p {
					n++
				}
				if n < ConnectN {
					continue
				}
				for i := range line {
					line[i] = Cell{Col: col + axis[0]*i, Row: row + axis[1]*i}
				}
				return p, line, true
			}
		}
	}
	return Empty, line, false
}

// IsDraw reports a full board without any winning line.
func IsDraw(b *Board) bool {
	if !b.IsFull() {
		return false
	}
	_, _, won := Winner(b)
	return !won
}
