package book

import (
	"context"
	"fmt"

	"github.com/hiimzein/connect4/internal/config"
	"github.com/hiimzein/connect4/internal/database"
	"github.com/hiimzein/connect4/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Open builds the store named by cfg.Book.Backend. The returned close func
// is never nil. An unreachable Redis falls back to the in-memory book.
func Open(ctx context.Context, cfg *config.Config, db *database.Database) (Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Book.Backend {
	case config.BookNone:
		return Nop{}, noop, nil
	case config.BookMemory:
		return NewMemoryStore(cfg.Book.MaxEntries), noop, nil
	case config.BookRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Log.Warn("Redis unavailable, using in-memory book", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			_ = client.Close()
			return NewMemoryStore(cfg.Book.MaxEntries), noop, nil
		}
		logger.Log.Info("Redis book connected", zap.String("addr", cfg.Redis.Addr))
		return NewRedisStore(client, cfg.Book.TTL), client.Close, nil
	case config.BookPostgres:
		if db == nil {
			return nil, noop, fmt.Errorf("postgres book needs a database")
		}
		return NewPostgresStore(db), noop, nil
	}
	return nil, noop, fmt.Errorf("unknown book backend %q", cfg.Book.Backend)
}
