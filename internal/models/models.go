package models

import (
	"time"

	"github.com/google/uuid"
)

type PlayerColor string

const (
	ColorRed    PlayerColor = "red"
	ColorYellow PlayerColor = "yellow"
)

func ParseColor(s string) (Player, error) {
	switch PlayerColor(s) {
	case ColorRed:
		return PlayerA, nil
	case ColorYellow:
		return PlayerB, nil
	}
	return Empty, ErrInvalidPlayer
}

type GameStatus string

const (
	GameStatusOngoing GameStatus = "ongoing"
	GameStatusWon     GameStatus = "won"
	GameStatusDraw    GameStatus = "draw"
)

// GameState is one position of a game. Won and Draw are terminal.
type GameState struct {
	Board     Board        `json:"board"`
	ToMove    Player       `json:"to_move"`
	Status    GameStatus   `json:"status"`
	Winner    Player       `json:"winner,omitempty"`
	Line      *WinningLine `json:"winning_line,omitempty"`
	MoveCount int          `json:"move_count"`
	LastMove  *Cell        `json:"last_move,omitempty"`
}

func (s GameState) IsTerminal() bool {
	return s.Status == GameStatusWon || s.Status == GameStatusDraw
}

type GameSettings struct {
	Difficulty string      `json:"difficulty"`
	VsCPU      bool        `json:"vs_cpu"`
	CPUColor   PlayerColor `json:"cpu_color"`
}

// SessionView is what callers see of a hosted game.
type SessionView struct {
	GameID      uuid.UUID    `json:"game_id"`
	Settings    GameSettings `json:"settings"`
	State       GameState    `json:"state"`
	CurrentTurn PlayerColor  `json:"current_turn"`
	CPUThinking bool         `json:"cpu_thinking"`
	StartedAt   time.Time    `json:"started_at"`
}

type CreateGameRequest struct {
	Difficulty string      `json:"difficulty"`
	VsCPU      *bool       `json:"vs_cpu"`
	CPUColor   PlayerColor `json:"cpu_color"`
}

type MakeMoveRequest struct {
	Column *int `json:"column" binding:"required"`
}

type MovePayload struct {
	GameID     uuid.UUID    `json:"game_id"`
	Column     int          `json:"column"`
	Row        int          `json:"row"`
	Color      PlayerColor  `json:"color"`
	ByCPU      bool         `json:"by_cpu"`
	NextTurn   PlayerColor  `json:"next_turn,omitempty"`
	Status     GameStatus   `json:"status"`
	Winner     PlayerColor  `json:"winner,omitempty"`
	Line       *WinningLine `json:"winning_line,omitempty"`
	Board      Board        `json:"board"`
	MoveNumber int          `json:"move_number"`
}

type HintPayload struct {
	Column     int    `json:"column"`
	Score      int    `json:"score"`
	Nodes      int64  `json:"nodes"`
	Depth      int    `json:"depth"`
	Difficulty string `json:"difficulty"`
}

type ThinkingPayload struct {
	GameID uuid.UUID   `json:"game_id"`
	Color  PlayerColor `json:"color"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type WSMessageType string

const (
	WSMoveApplied WSMessageType = "move-applied"
	WSCPUThinking WSMessageType = "cpu-thinking"
	WSGameOver    WSMessageType = "game-over"
	WSGameReset   WSMessageType = "game-reset"
	WSGameState   WSMessageType = "game-state"
	WSError       WSMessageType = "error"
)

type WSMessage struct {
	Type    WSMessageType `json:"type"`
	Payload interface{}   `json:"payload"`
}

type DifficultyStats struct {
	Difficulty string    `json:"difficulty" db:"difficulty"`
	Games      int       `json:"games" db:"games"`
	CPUWins    int       `json:"cpu_wins" db:"cpu_wins"`
	HumanWins  int       `json:"human_wins" db:"human_wins"`
	Draws      int       `json:"draws" db:"draws"`
	TotalMoves int       `json:"total_moves" db:"total_moves"`
	CPUWinRate float64   `json:"cpu_win_rate"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

type ColumnStats struct {
	Column     int     `json:"column"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}
