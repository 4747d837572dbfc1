package bot

import "github.com/hiimzein/connect4/internal/models"

const CenterWeight = 6

// WindowWeights is indexed by the number of one player's pieces in a
// four-cell window that holds none of the other player's pieces.
var WindowWeights = [models.ConnectN + 1]int{0, 4, 16, 80, 1000}

type window [models.ConnectN]models.Cell

// windows lists every four-cell line segment on the board. Built once,
// never written afterwards.
var windows = buildWindows()

func buildWindows() []window {
	dirs := [4][2]int{{1, 0}, {0, 1}, {1, 1}, {1, -1}}
	var out []window
	for _, d := range dirs {
		for col := 0; col < models.Cols; col++ {
			for row := 0; row < models.Rows; row++ {
				endCol := col + d[0]*(models.ConnectN-1)
				endRow := row + d[1]*(models.ConnectN-1)
				if endCol < 0 || endCol >= models.Cols || endRow < 0 || endRow >= models.Rows {
					continue
				}
				var w window
				for i := range w {
					w[i] = models.Cell{Col: col + d[0]*i, Row: row + d[1]*i}
				}
				out = append(out, w)
			}
		}
	}
	return out
}

// Evaluate scores a position from player's point of view. Swapping the
// player negates the score exactly.
func Evaluate(b *models.Board, player models.Player) int {
	opp := player.Opponent()
	center := models.Cols / 2
	score := 0

	for row := 0; row < b.Height(center); row++ {
		switch b.Occupant(center, row) {
		case player:
			score += CenterWeight
		case opp:
			score -= CenterWeight
		}
	}

	for _, w := range windows {
		mine, theirs := 0, 0
		for _, c := range w {
			switch b.Occupant(c.Col, c.Row) {
			case player:
				mine++
			case opp:
				theirs++
			}
		}
		switch {
		case theirs == 0:
			score += WindowWeights[mine]
		case mine == 0:
			score -= WindowWeights[theirs]
		}
	}
	return score
}
