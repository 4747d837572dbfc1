package services

import (
	"context"
	"time"

	"github.com/hiimzein/connect4/pkg/logger"

	"go.uber.org/zap"
)

// ReaperService closes games nobody has touched within the idle timeout.
type ReaperService struct {
	gameService *GameService
	idleTimeout time.Duration
	interval    time.Duration
}

func NewReaperService(gameService *GameService, idleTimeout time.Duration) *ReaperService {
	interval := idleTimeout / 4
	if interval < time.Second {
		interval = time.Second
	}
	return &ReaperService{
		gameService: gameService,
		idleTimeout: idleTimeout,
		interval:    interval,
	}
}

// Sweep runs one pass against now.
func (rs *ReaperService) Sweep(now time.Time) int {
	closed := rs.gameService.ReapIdle(now.Add(-rs.idleTimeout))
	if closed > 0 {
		logger.Log.Info("Closed idle games",
			zap.Int("closed", closed),
			zap.Int("active", rs.gameService.ActiveSessions()),
		)
	}
	return closed
}

// Start sweeps on a ticker until ctx is cancelled.
func (rs *ReaperService) Start(ctx context.Context) error {
	if rs.idleTimeout <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(rs.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			rs.Sweep(now)
		}
	}
}
