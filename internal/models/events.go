package models

import (
	"time"

	"github.com/google/uuid"
)

type KafkaEventType string

const (
	EventGameStarted   KafkaEventType = "GAME_STARTED"
	EventMoveMade      KafkaEventType = "MOVE_MADE"
	EventGameCompleted KafkaEventType = "GAME_COMPLETED"
)

type GameStartedEvent struct {
	Type       KafkaEventType `json:"type"`
	GameID     uuid.UUID      `json:"game_id"`
	Difficulty string         `json:"difficulty"`
	VsCPU      bool           `json:"vs_cpu"`
	CPUColor   PlayerColor    `json:"cpu_color,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

type MoveMadeEvent struct {
	Type       KafkaEventType `json:"type"`
	GameID     uuid.UUID      `json:"game_id"`
	Column     int            `json:"column"`
	Row        int            `json:"row"`
	Color      PlayerColor    `json:"color"`
	ByCPU      bool           `json:"by_cpu"`
	MoveNumber int            `json:"move_number"`
	Nodes      int64          `json:"nodes,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

type GameCompletedEvent struct {
	Type       KafkaEventType `json:"type"`
	GameID     uuid.UUID      `json:"game_id"`
	Difficulty string         `json:"difficulty"`
	VsCPU      bool           `json:"vs_cpu"`
	CPUColor   PlayerColor    `json:"cpu_color,omitempty"`
	Status     GameStatus     `json:"status"`
	Winner     PlayerColor    `json:"winner,omitempty"`
	TotalMoves int            `json:"total_moves"`
	Duration   int            `json:"duration_seconds"`
	Timestamp  time.Time      `json:"timestamp"`
}
