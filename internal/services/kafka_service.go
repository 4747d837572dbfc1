package services

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hiimzein/connect4/internal/config"
	"github.com/hiimzein/connect4/internal/models"
	"github.com/hiimzein/connect4/pkg/logger"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/scram"
	"go.uber.org/zap"
)

// EventPublisher ships game lifecycle events. Implementations must not
// block the caller for long; the session lock is held while publishing.
type EventPublisher interface {
	PublishGameStarted(event models.GameStartedEvent) error
	PublishMoveMade(event models.MoveMadeEvent) error
	PublishGameCompleted(event models.GameCompletedEvent) error
	Close() error
}

type NopPublisher struct{}

func (NopPublisher) PublishGameStarted(models.GameStartedEvent) error     { return nil }
func (NopPublisher) PublishMoveMade(models.MoveMadeEvent) error           { return nil }
func (NopPublisher) PublishGameCompleted(models.GameCompletedEvent) error { return nil }
func (NopPublisher) Close() error                                         { return nil }

func saslMechanism(cfg config.KafkaConfig) (sasl.Mechanism, error) {
	if cfg.Username == "" {
		return nil, nil
	}
	mechanism, err := scram.Mechanism(scram.SHA256, cfg.Username, cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to create SASL mechanism: %w", err)
	}
	return mechanism, nil
}

func tlsConfig(cfg config.KafkaConfig) *tls.Config {
	if !cfg.TLS {
		return nil
	}
	return &tls.Config{MinVersion: tls.VersionTLS12}
}

type KafkaProducer struct {
	writer *kafka.Writer
}

func NewKafkaProducer(cfg *config.Config) (*KafkaProducer, error) {
	if !cfg.Kafka.Enabled() {
		return nil, errors.New("no kafka brokers configured")
	}
	mechanism, err := saslMechanism(cfg.Kafka)
	if err != nil {
		return nil, err
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        cfg.Kafka.TopicEvents,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Compression:  kafka.Snappy,
		BatchTimeout: 50 * time.Millisecond,
		Transport: &kafka.Transport{
			SASL: mechanism,
			TLS:  tlsConfig(cfg.Kafka),
		},
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Log.Error("Kafka write failed", zap.Int("messages", len(messages)), zap.Error(err))
			}
		},
	}

	logger.Log.Info("Kafka producer initialized",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.TopicEvents),
	)
	return &KafkaProducer{writer: writer}, nil
}

func (kp *KafkaProducer) PublishGameStarted(event models.GameStartedEvent) error {
	return kp.publish(event.GameID, event)
}

func (kp *KafkaProducer) PublishMoveMade(event models.MoveMadeEvent) error {
	return kp.publish(event.GameID, event)
}

func (kp *KafkaProducer) PublishGameCompleted(event models.GameCompletedEvent) error {
	return kp.publish(event.GameID, event)
}

// publish keys messages by game so one game's events share a partition.
func (kp *KafkaProducer) publish(gameID uuid.UUID, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg := kafka.Message{Key: []byte(gameID.String()), Value: data, Time: time.Now()}
	if err := kp.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	logger.Log.Debug("Event published to Kafka", zap.Int("size", len(data)))
	return nil
}

func (kp *KafkaProducer) Close() error {
	if kp.writer != nil {
		return kp.writer.Close()
	}
	return nil
}

// EventSink receives decoded events from the consumer.
type EventSink interface {
	ProcessGameStarted(ctx context.Context, event models.GameStartedEvent)
	ProcessMoveMade(ctx context.Context, event models.MoveMadeEvent)
	ProcessGameCompleted(ctx context.Context, event models.GameCompletedEvent)
}

type KafkaConsumer struct {
	reader *kafka.Reader
	sink   EventSink
}

func NewKafkaConsumer(cfg *config.Config, sink EventSink) (*KafkaConsumer, error) {
	if !cfg.Kafka.Enabled() {
		return nil, errors.New("no kafka brokers configured")
	}
	mechanism, err := saslMechanism(cfg.Kafka)
	if err != nil {
		return nil, err
	}

	dialer := &kafka.Dialer{
		Timeout:       10 * time.Second,
		DualStack:     true,
		SASLMechanism: mechanism,
		TLS:           tlsConfig(cfg.Kafka),
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Kafka.Brokers,
		Topic:          cfg.Kafka.TopicEvents,
		GroupID:        "connect4-analytics-consumer",
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
		Dialer:         dialer,
	})

	logger.Log.Info("Kafka consumer initialized",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.TopicEvents),
	)
	return &KafkaConsumer{reader: reader, sink: sink}, nil
}

// Start reads until ctx is cancelled. Read errors are logged and retried
// after a pause.
func (kc *KafkaConsumer) Start(ctx context.Context) error {
	logger.Log.Info("Starting Kafka consumer")
	for {
		msg, err := kc.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Log.Info("Kafka consumer stopped")
				return nil
			}
			logger.Log.Error("Kafka read error", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(5 * time.Second):
			}
			continue
		}
		dispatchEvent(ctx, kc.sink, msg.Value)
	}
}

func (kc *KafkaConsumer) Close() error {
	if kc.reader != nil {
		return kc.reader.Close()
	}
	return nil
}

func dispatchEvent(ctx context.Context, sink EventSink, value []byte) {
	var base struct {
		Type models.KafkaEventType `json:"type"`
	}
	if err := json.Unmarshal(value, &base); err != nil {
		logger.Log.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	var err error
	switch base.Type {
	case models.EventGameStarted:
		var event models.GameStartedEvent
		if err = json.Unmarshal(value, &event); err == nil {
			sink.ProcessGameStarted(ctx, event)
		}
	case models.EventMoveMade:
		var event models.MoveMadeEvent
		if err = json.Unmarshal(value, &event); err == nil {
			sink.ProcessMoveMade(ctx, event)
		}
	case models.EventGameCompleted:
		var event models.GameCompletedEvent
		if err = json.Unmarshal(value, &event); err == nil {
			sink.ProcessGameCompleted(ctx, event)
		}
	default:
		logger.Log.Warn("Unknown event type", zap.String("type", string(base.Type)))
	}
	if err != nil {
		logger.Log.Error("Failed to decode event", zap.String("type", string(base.Type)), zap.Error(err))
	}
}
