package services

import (
	"sync"
	"testing"
	"time"

	"github.com/hiimzein/connect4/internal/book"
	"github.com/hiimzein/connect4/internal/config"
	"github.com/hiimzein/connect4/internal/models"
	"github.com/hiimzein/connect4/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.KafkaEventType
}

func (r *recordingPublisher) add(t models.KafkaEventType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, t)
	return nil
}

func (r *recordingPublisher) PublishGameStarted(e models.GameStartedEvent) error {
	return r.add(e.Type)
}

func (r *recordingPublisher) PublishMoveMade(e models.MoveMadeEvent) error {
	return r.add(e.Type)
}

func (r *recordingPublisher) PublishGameCompleted(e models.GameCompletedEvent) error {
	return r.add(e.Type)
}

func (r *recordingPublisher) Close() error { return nil }

func (r *recordingPublisher) count(t models.KafkaEventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == t {
			n++
		}
	}
	return n
}

type harness struct {
	svc       *GameService
	publisher *recordingPublisher
	messages  chan models.WSMessage
}

func testConfig(delay time.Duration) *config.Config {
	return &config.Config{
		Game: config.GameConfig{
			DefaultDifficulty: "medium",
			EasyDepth:         1,
			MediumDepth:       2,
			HardDepth:         3,
			BotMoveDelay:      delay,
			MaxSessions:       4,
		},
	}
}

func newHarness(t *testing.T, delay time.Duration, store book.Store) *harness {
	t.Helper()
	prev := logger.Log
	logger.Log = zaptest.NewLogger(t)

	h := &harness{
		publisher: &recordingPublisher{},
		messages:  make(chan models.WSMessage, 128),
	}
	h.svc = NewGameService(testConfig(delay), store, h.publisher)
	h.svc.SetMoveCallback(func(_ uuid.UUID, msg models.WSMessage) {
		select {
		case h.messages <- msg:
		default:
		}
	})
	t.Cleanup(func() {
		h.svc.Shutdown()
		logger.Log = prev
	})
	return h
}

// waitForCPUMove returns the next move pushed for the computer.
func (h *harness) waitForCPUMove(t *testing.T) *models.MovePayload {
	t.Helper()
	timeout := time.After(10 * time.Second)
	for {
		select {
		case msg := <-h.messages:
			if msg.Type != models.WSMoveApplied {
				continue
			}
			if p, ok := msg.Payload.(*models.MovePayload); ok && p.ByCPU {
				return p
			}
		case <-timeout:
			t.Fatal("timed out waiting for the computer's move")
			return nil
		}
	}
}

func (h *harness) drain() []models.WSMessage {
	var out []models.WSMessage
	for {
		select {
		case msg := <-h.messages:
			out = append(out, msg)
		default:
			return out
		}
	}
}
