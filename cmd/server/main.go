package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hiimzein/connect4/internal/book"
	"github.com/hiimzein/connect4/internal/config"
	"github.com/hiimzein/connect4/internal/database"
	"github.com/hiimzein/connect4/internal/handlers"
	"github.com/hiimzein/connect4/internal/services"
	"github.com/hiimzein/connect4/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
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

	logger.Log.Info("Starting Connect4 server",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("book", cfg.Book.Backend),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The database is optional: it backs statistics and the postgres book.
	var db *database.Database
	if cfg.Database.DatabaseURL != "" {
		db, err = database.New(cfg)
		if err != nil {
			logger.Log.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()
	}

	store, closeBook, err := book.Open(ctx, cfg, db)
	if err != nil {
		logger.Log.Fatal("Failed to open move book", zap.Error(err))
	}
	defer closeBook()

	var publisher services.EventPublisher = services.NopPublisher{}
	if cfg.Kafka.Enabled() {
		producer, err := services.NewKafkaProducer(cfg)
		if err != nil {
			logger.Log.Fatal("Failed to create Kafka producer", zap.Error(err))
		}
		publisher = producer
	}
	defer publisher.Close()

	gameService := services.NewGameService(cfg, store, publisher)
	reaper := services.NewReaperService(gameService, cfg.Game.SessionIdleTimeout)

	var analyticsService *services.AnalyticsService
	health := handlers.NewHealthHandler(nil, gameService)
	if db != nil {
		analyticsService = services.NewAnalyticsService(db)
		health = handlers.NewHealthHandler(db, gameService)
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.Router{
		HTTP:      handlers.NewHTTPHandler(gameService),
		Analytics: handlers.NewAnalyticsHandler(analyticsService),
		Health:    health,
		WS:        handlers.NewWSHandler(gameService, cfg.Server.AllowedOrigins),
	}
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router.Engine(cfg.Server.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Log.Info("Server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return reaper.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		gameService.Shutdown()
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Log.Error("Server stopped with error", zap.Error(err))
	}
	logger.Log.Info("Server stopped")
}
