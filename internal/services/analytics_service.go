package services

import (
	"context"

	"github.com/hiimzein/connect4/internal/models"
	"github.com/hiimzein/connect4/pkg/logger"

	"go.uber.org/zap"
)

type statsStore interface {
	RecordGameCompleted(ctx context.Context, event models.GameCompletedEvent) error
	RecordMove(ctx context.Context, column int) error
	GetDifficultyStats(ctx context.Context) ([]models.DifficultyStats, error)
	GetColumnStats(ctx context.Context) ([]models.ColumnStats, error)
}

type AnalyticsService struct {
	db statsStore
}

type Statistics struct {
	TotalGames   int                      `json:"total_games"`
	CPUWinRate   float64                  `json:"cpu_win_rate"`
	Difficulties []models.DifficultyStats `json:"difficulties"`
	Columns      []models.ColumnStats     `json:"columns"`
}

func NewAnalyticsService(db statsStore) *AnalyticsService {
	return &AnalyticsService{db: db}
}

func (as *AnalyticsService) ProcessGameStarted(_ context.Context, event models.GameStartedEvent) {
	logger.Log.Debug("Processed GAME_STARTED event",
		zap.String("game_id", event.GameID.String()),
		zap.String("difficulty", event.Difficulty),
	)
}

func (as *AnalyticsService) ProcessMoveMade(ctx context.Context, event models.MoveMadeEvent) {
	if event.Column < 0 || event.Column >= models.Cols {
		logger.Log.Warn("Dropping move with bad column", zap.Int("column", event.Column))
		return
	}
	if err := as.db.RecordMove(ctx, event.Column); err != nil {
		logger.Log.Error("Failed to store move", zap.Error(err))
	}
}

// ProcessGameCompleted only counts games against the computer; two-player
// games have no CPU side to score.
func (as *AnalyticsService) ProcessGameCompleted(ctx context.Context, event models.GameCompletedEvent) {
	if !event.VsCPU {
		return
	}
	if err := as.db.RecordGameCompleted(ctx, event); err != nil {
		logger.Log.Error("Failed to store game result", zap.Error(err))
		return
	}
	logger.Log.Info("Processed GAME_COMPLETED event",
		zap.String("game_id", event.GameID.String()),
		zap.String("status", string(event.Status)),
	)
}

func (as *AnalyticsService) GetStatistics(ctx context.Context) (*Statistics, error) {
	difficulties, err := as.db.GetDifficultyStats(ctx)
	if err != nil {
		return nil, err
	}
	columns, err := as.db.GetColumnStats(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{Difficulties: difficulties, Columns: columns}
	cpuWins := 0
	for _, d := range difficulties {
		stats.TotalGames += d.Games
		cpuWins += d.CPUWins
	}
	if stats.TotalGames > 0 {
		stats.CPUWinRate = float64(cpuWins) / float64(stats.TotalGames) * 100
	}
	return stats, nil
}
