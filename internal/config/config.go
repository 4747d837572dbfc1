package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hiimzein/connect4/internal/bot"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Game     GameConfig
	Kafka    KafkaConfig
	Redis    RedisConfig
	Book     BookConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	DatabaseURL string
}

type GameConfig struct {
	DefaultDifficulty  string
	EasyDepth          int
	MediumDepth        int
	HardDepth          int
	BotMoveDelay       time.Duration
	SessionIdleTimeout time.Duration
	MaxSessions        int
}

type KafkaConfig struct {
	Brokers     []string
	TopicEvents string
	Username    string
	Password    string
	TLS         bool
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type BookConfig struct {
	Backend    string
	TTL        time.Duration
	MaxEntries int
}

const (
	BookNone     = "none"
	BookMemory   = "memory"
	BookRedis    = "redis"
	BookPostgres = "postgres"
)

func Load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            getEnv("ENV", "development"),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		},
		Database: DatabaseConfig{
			DatabaseURL: getEnv("DATABASE_URL", ""),
		},
		Game: GameConfig{
			DefaultDifficulty:  getEnv("DEFAULT_DIFFICULTY", "medium"),
			EasyDepth:          getEnvAsInt("EASY_DEPTH", 2),
			MediumDepth:        getEnvAsInt("MEDIUM_DEPTH", 4),
			HardDepth:          getEnvAsInt("HARD_DEPTH", 6),
			BotMoveDelay:       time.Duration(getEnvAsInt("BOT_MOVE_DELAY_MS", 220)) * time.Millisecond,
			SessionIdleTimeout: time.Duration(getEnvAsInt("SESSION_IDLE_TIMEOUT", 1800)) * time.Second,
			MaxSessions:        getEnvAsInt("MAX_SESSIONS", 1000),
		},
		Kafka: KafkaConfig{
			Brokers:     getEnvAsList("KAFKA_BROKERS", nil),
			TopicEvents: getEnv("KAFKA_TOPIC_EVENTS", "connect4.events"),
			Username:    getEnv("KAFKA_USERNAME", ""),
			Password:    getEnv("KAFKA_PASSWORD", ""),
			TLS:         getEnv("KAFKA_TLS", "false") == "true",
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_URL", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Book: BookConfig{
			Backend:    getEnv("BOOK_BACKEND", BookMemory),
			TTL:        time.Duration(getEnvAsInt("BOOK_TTL", 86400)) * time.Second,
			MaxEntries: getEnvAsInt("BOOK_MAX_ENTRIES", 100000),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	var errs []error
	for name, depth := range map[string]int{
		"EASY_DEPTH":   c.Game.EasyDepth,
		"MEDIUM_DEPTH": c.Game.MediumDepth,
		"HARD_DEPTH":   c.Game.HardDepth,
	} {
		if depth < 1 {
			errs = append(errs, fmt.Errorf("%s must be at least 1, got %d", name, depth))
		}
	}
	if _, err := bot.ParseDifficulty(c.Game.DefaultDifficulty); err != nil {
		errs = append(errs, fmt.Errorf("DEFAULT_DIFFICULTY: %w", err))
	}
	if c.Game.MaxSessions < 1 {
		errs = append(errs, fmt.Errorf("MAX_SESSIONS must be positive"))
	}
	switch c.Book.Backend {
	case BookNone, BookMemory, BookRedis:
	case BookPostgres:
		if c.Database.DatabaseURL == "" {
			errs = append(errs, errors.New("BOOK_BACKEND=postgres requires DATABASE_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown BOOK_BACKEND %q", c.Book.Backend))
	}
	return errors.Join(errs...)
}

func (c *Config) GetDatabaseDSN() (string, error) {
	if c.Database.DatabaseURL == "" {
		return "", errors.New("DATABASE_URL is not set")
	}
	return c.Database.DatabaseURL, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
