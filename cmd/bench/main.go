package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/hiimzein/connect4/internal/bot"
	"github.com/hiimzein/connect4/internal/config"
	"github.com/hiimzein/connect4/internal/engine"
	"github.com/hiimzein/connect4/internal/models"
	"github.com/hiimzein/connect4/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type tally struct {
	mu         sync.Mutex
	first      int
	second     int
	draws      int
	totalMoves int
	totalGames int
}

func (t *tally) add(state models.GameState, firstIsA bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totalGames++
	t.totalMoves += state.MoveCount
	switch {
	case state.Status == models.GameStatusDraw:
		t.draws++
	case (state.Winner == models.PlayerA) == firstIsA:
		t.first++
	default:
		t.second++
	}
}

func main() {
	games := flag.Int("games", 20, "number of games to play")
	first := flag.String("first", "hard", "difficulty of the first engine")
	second := flag.String("second", "easy", "difficulty of the second engine")
	openingPlies := flag.Int("opening", 2, "random plies played before the engines take over")
	parallel := flag.Int("parallel", runtime.NumCPU(), "games played at once")
	seed := flag.Int64("seed", 1, "seed for the random openings")
	flag.Parse()
	if *openingPlies > 6 {
		// Seven random plies could already end the game.
		*openingPlies = 6
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Server.Env); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	firstDiff, err := bot.ParseDifficulty(*first)
	if err != nil {
		logger.Log.Fatal("Bad -first", zap.Error(err))
	}
	secondDiff, err := bot.ParseDifficulty(*second)
	if err != nil {
		logger.Log.Fatal("Bad -second", zap.Error(err))
	}
	depths := bot.DepthTable{
		bot.Easy:   cfg.Game.EasyDepth,
		bot.Medium: cfg.Game.MediumDepth,
		bot.Hard:   cfg.Game.HardDepth,
	}
	firstDepth, secondDepth := depths.Depth(firstDiff), depths.Depth(secondDiff)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rng := rand.New(rand.NewSource(*seed))
	openings := make([][]int, *games)
	for i := range openings {
		for j := 0; j < *openingPlies; j++ {
			openings[i] = append(openings[i], rng.Intn(models.Cols))
		}
	}

	b := bot.New()
	var results tally
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(*parallel)
	for i := 0; i < *games; i++ {
		i := i
		g.Go(func() error {
			// Alternate who moves first so neither side keeps the tempo.
			firstIsA := i%2 == 0
			depthA, depthB := firstDepth, secondDepth
			if !firstIsA {
				depthA, depthB = secondDepth, firstDepth
			}
			state, err := engine.SelfPlay(gctx, b, depthA, depthB, openings[i])
			if err != nil {
				return fmt.Errorf("game %d: %w", i, err)
			}
			results.add(state, firstIsA)
			logger.Log.Debug("Game finished",
				zap.Int("game", i),
				zap.String("status", string(state.Status)),
				zap.Int("moves", state.MoveCount),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Log.Fatal("Self-play aborted", zap.Error(err))
	}

	avg := 0.0
	if results.totalGames > 0 {
		avg = float64(results.totalMoves) / float64(results.totalGames)
	}
	logger.Log.Info("Self-play finished",
		zap.String("first", fmt.Sprintf("%s (depth %d)", firstDiff, firstDepth)),
		zap.String("second", fmt.Sprintf("%s (depth %d)", secondDiff, secondDepth)),
		zap.Int("games", results.totalGames),
		zap.Int("first_wins", results.first),
		zap.Int("second_wins", results.second),
		zap.Int("draws", results.draws),
		zap.Float64("avg_moves", avg),
		zap.Duration("elapsed", time.Since(start)),
	)
}
