package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hiimzein/connect4/internal/book"
	"github.com/hiimzein/connect4/internal/bot"
	"github.com/hiimzein/connect4/internal/engine"
	"github.com/hiimzein/connect4/internal/models"

	"github.com/google/uuid"
)

func twoPlayer() engine.Settings {
	s := engine.DefaultSettings()
	s.VsCPU = false
	return s
}

func cpuAs(p models.Player) engine.Settings {
	s := engine.DefaultSettings()
	s.CPUColor = p
	return s
}

func TestCreateSession(t *testing.T) {
	h := newHarness(t, time.Hour, nil)

	view, err := h.svc.CreateSession(engine.DefaultSettings())
	if err != nil {
		t.Fatal(err)
	}
	if view.CurrentTurn != models.ColorRed {
		t.Errorf("CurrentTurn = %q, want red", view.CurrentTurn)
	}
	if view.CPUThinking {
		t.Error("computer should not think before the human moves")
	}
	if view.Settings.CPUColor != models.ColorYellow || view.Settings.Difficulty != "medium" {
		t.Errorf("unexpected settings %+v", view.Settings)
	}
	if n := h.publisher.count(models.EventGameStarted); n != 1 {
		t.Errorf("published %d GAME_STARTED events, want 1", n)
	}

	got, err := h.svc.GetSession(view.GameID)
	if err != nil {
		t.Fatal(err)
	}
	if got.GameID != view.GameID {
		t.Errorf("GetSession returned %s", got.GameID)
	}
	if _, err := h.svc.GetSession(uuid.New()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("unknown id: got %v", err)
	}
}

func TestMakeMoveSchedulesCPUReply(t *testing.T) {
	h := newHarness(t, 0, nil)
	view, _ := h.svc.CreateSession(engine.DefaultSettings())

	move, err := h.svc.MakeMove(view.GameID, 3)
	if err != nil {
		t.Fatal(err)
	}
	if move.Color != models.ColorRed || move.NextTurn != models.ColorYellow || move.ByCPU {
		t.Fatalf("unexpected human move %+v", move)
	}

	reply := h.waitForCPUMove(t)
	if reply.Color != models.ColorYellow || reply.MoveNumber != 2 {
		t.Fatalf("unexpected reply %+v", reply)
	}

	got, _ := h.svc.GetSession(view.GameID)
	if got.State.MoveCount != 2 || got.CurrentTurn != models.ColorRed || got.CPUThinking {
		t.Fatalf("after reply: moves=%d turn=%q thinking=%v", got.State.MoveCount, got.CurrentTurn, got.CPUThinking)
	}
	if n := h.publisher.count(models.EventMoveMade); n != 2 {
		t.Errorf("published %d MOVE_MADE events, want 2", n)
	}
}

func TestCPUOpensInCenter(t *testing.T) {
	h := newHarness(t, 0, nil)
	if _, err := h.svc.CreateSession(cpuAs(models.PlayerA)); err != nil {
		t.Fatal(err)
	}
	reply := h.waitForCPUMove(t)
	if reply.Column != 3 || reply.Color != models.ColorRed {
		t.Fatalf("opening = %+v, want red in column 3", reply)
	}
}

func TestMakeMoveOnCPUTurn(t *testing.T) {
	h := newHarness(t, time.Hour, nil)
	view, _ := h.svc.CreateSession(engine.DefaultSettings())

	if _, err := h.svc.MakeMove(view.GameID, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := h.svc.MakeMove(view.GameID, 1); !errors.Is(err, ErrCPUTurn) {
		t.Fatalf("got %v, want ErrCPUTurn", err)
	}
	got, _ := h.svc.GetSession(view.GameID)
	if !got.CPUThinking {
		t.Error("CPUThinking should be set while the reply is pending")
	}
}

func TestMakeMoveRejectsBadColumns(t *testing.T) {
	h := newHarness(t, time.Hour, nil)
	view, _ := h.svc.CreateSession(twoPlayer())

	if _, err := h.svc.MakeMove(view.GameID, 7); !errors.Is(err, models.ErrInvalidColumn) {
		t.Errorf("column 7: got %v", err)
	}
	for i := 0; i < models.Rows; i++ {
		if _, err := h.svc.MakeMove(view.GameID, 2); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := h.svc.MakeMove(view.GameID, 2); !errors.Is(err, models.ErrColumnFull) {
		t.Errorf("full column: got %v", err)
	}
}

func TestResetCancelsPendingReply(t *testing.T) {
	h := newHarness(t, time.Hour, nil)
	view, _ := h.svc.CreateSession(engine.DefaultSettings())
	if _, err := h.svc.MakeMove(view.GameID, 3); err != nil {
		t.Fatal(err)
	}

	reset, err := h.svc.Reset(view.GameID)
	if err != nil {
		t.Fatal(err)
	}
	if reset.State.MoveCount != 0 || reset.CPUThinking {
		t.Fatalf("reset view: moves=%d thinking=%v", reset.State.MoveCount, reset.CPUThinking)
	}

	h.svc.Shutdown()
	got, _ := h.svc.GetSession(view.GameID)
	if got.State.MoveCount != 0 {
		t.Fatalf("stale reply landed after reset: %d moves", got.State.MoveCount)
	}

	sawReset := false
	for _, msg := range h.drain() {
		if p, ok := msg.Payload.(*models.MovePayload); ok && p.ByCPU {
			t.Errorf("unexpected CPU move %+v", p)
		}
		if msg.Type == models.WSGameReset {
			sawReset = true
		}
	}
	if !sawReset {
		t.Error("no game-reset message pushed")
	}
}

func TestCloseCancelsPendingReply(t *testing.T) {
	h := newHarness(t, time.Hour, nil)
	view, _ := h.svc.CreateSession(engine.DefaultSettings())
	if _, err := h.svc.MakeMove(view.GameID, 3); err != nil {
		t.Fatal(err)
	}

	if err := h.svc.Close(view.GameID); err != nil {
		t.Fatal(err)
	}
	if err := h.svc.Close(view.GameID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second close: got %v", err)
	}

	done := make(chan struct{})
	go func() {
		h.svc.Shutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pending reply was not cancelled")
	}
	if _, err := h.svc.MakeMove(view.GameID, 3); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("move on closed game: got %v", err)
	}
}

func TestMakeBotMove(t *testing.T) {
	h := newHarness(t, time.Hour, nil)
	view, _ := h.svc.CreateSession(engine.DefaultSettings())

	if _, err := h.svc.MakeBotMove(context.Background(), view.GameID); !errors.Is(err, models.ErrNotYourTurn) {
		t.Errorf("bot move on human turn: got %v", err)
	}
	if _, err := h.svc.MakeMove(view.GameID, 0); err != nil {
		t.Fatal(err)
	}
	move, err := h.svc.MakeBotMove(context.Background(), view.GameID)
	if err != nil {
		t.Fatal(err)
	}
	if !move.ByCPU || move.Color != models.ColorYellow {
		t.Fatalf("unexpected bot move %+v", move)
	}

	h.svc.Shutdown()
	got, _ := h.svc.GetSession(view.GameID)
	if got.State.MoveCount != 2 {
		t.Fatalf("scheduled reply also landed: %d moves", got.State.MoveCount)
	}
}

func TestMakeBotMoveRecoversCancelledReply(t *testing.T) {
	h := newHarness(t, time.Hour, nil)
	view, err := h.svc.CreateSession(cpuAs(models.PlayerA))
	if err != nil {
		t.Fatal(err)
	}

	// Cancelling the pending reply leaves the computer to move with nothing scheduled.
	h.svc.Shutdown()
	got, _ := h.svc.GetSession(view.GameID)
	if got.CPUThinking || got.State.MoveCount != 0 {
		t.Fatalf("after cancel: thinking %v, %d moves", got.CPUThinking, got.State.MoveCount)
	}
	if _, err := h.svc.MakeMove(view.GameID, 3); !errors.Is(err, ErrCPUTurn) {
		t.Fatalf("human move: got %v, want ErrCPUTurn", err)
	}
	for _, msg := range h.drain() {
		if msg.Type == models.WSError {
			t.Errorf("cancelled reply reported as failure: %+v", msg.Payload)
		}
	}

	move, err := h.svc.MakeBotMove(context.Background(), view.GameID)
	if err != nil {
		t.Fatal(err)
	}
	if !move.ByCPU || move.Color != models.ColorRed || move.MoveNumber != 1 {
		t.Errorf("recovery move = %+v", move)
	}
	if _, err := h.svc.MakeMove(view.GameID, 3); err != nil {
		t.Errorf("human move after recovery: %v", err)
	}
}

func TestFailedCPUReplyIsReported(t *testing.T) {
	h := newHarness(t, time.Hour, nil)
	view, _ := h.svc.CreateSession(cpuAs(models.PlayerA))
	h.drain()

	h.svc.sessionsMutex.RLock()
	s := h.svc.sessions[view.GameID]
	h.svc.sessionsMutex.RUnlock()
	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()

	h.svc.abandonCPU(s, gen, context.DeadlineExceeded)

	var reported bool
	for _, msg := range h.drain() {
		if p, ok := msg.Payload.(models.ErrorPayload); ok && msg.Type == models.WSError && p.Code == "CPU_MOVE_FAILED" {
			reported = true
		}
	}
	if !reported {
		t.Error("failed reply not pushed to clients")
	}
	got, _ := h.svc.GetSession(view.GameID)
	if got.CPUThinking {
		t.Error("game still marked thinking")
	}
	if _, err := h.svc.MakeBotMove(context.Background(), view.GameID); err != nil {
		t.Errorf("recovery: %v", err)
	}
}

func TestWatch(t *testing.T) {
	h := newHarness(t, time.Hour, nil)
	view, _ := h.svc.CreateSession(cpuAs(models.PlayerA))

	var seen models.SessionView
	if err := h.svc.Watch(view.GameID, func(v models.SessionView) { seen = v }); err != nil {
		t.Fatal(err)
	}
	if seen.GameID != view.GameID || !seen.CPUThinking || seen.State.MoveCount != 0 {
		t.Errorf("watch view = %+v", seen)
	}
	if err := h.svc.Watch(uuid.New(), func(models.SessionView) { t.Error("called for unknown game") }); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("unknown game: got %v", err)
	}
}

func TestHintLeavesGameUntouched(t *testing.T) {
	h := newHarness(t, time.Hour, nil)
	view, _ := h.svc.CreateSession(twoPlayer())
	for _, col := range []int{0, 6, 1, 6, 2, 5} {
		if _, err := h.svc.MakeMove(view.GameID, col); err != nil {
			t.Fatal(err)
		}
	}

	hint, err := h.svc.Hint(context.Background(), view.GameID, "")
	if err != nil {
		t.Fatal(err)
	}
	if hint.Column != 3 {
		t.Errorf("hint = %d, want the winning column 3", hint.Column)
	}
	if hint.Difficulty != string(bot.Medium) || hint.Depth != 2 {
		t.Errorf("hint ran at %s/%d", hint.Difficulty, hint.Depth)
	}

	hard, err := h.svc.Hint(context.Background(), view.GameID, "hard")
	if err != nil {
		t.Fatal(err)
	}
	if hard.Depth != 3 || hard.Column != 3 {
		t.Errorf("hard hint = %+v", hard)
	}
	if _, err := h.svc.Hint(context.Background(), view.GameID, "expert"); err == nil {
		t.Error("unknown difficulty accepted")
	}

	got, _ := h.svc.GetSession(view.GameID)
	if got.State.MoveCount != 6 {
		t.Fatalf("hint changed the game: %d moves", got.State.MoveCount)
	}
}

func TestTwoPlayerGameToWin(t *testing.T) {
	h := newHarness(t, time.Hour, nil)
	view, _ := h.svc.CreateSession(twoPlayer())

	var last *models.MovePayload
	for _, col := range []int{0, 1, 0, 1, 0, 1, 0} {
		var err error
		if last, err = h.svc.MakeMove(view.GameID, col); err != nil {
			t.Fatal(err)
		}
	}
	if last.Status != models.GameStatusWon || last.Winner != models.ColorRed || last.Line == nil {
		t.Fatalf("final move %+v", last)
	}
	if last.NextTurn != "" {
		t.Errorf("NextTurn = %q after the game ended", last.NextTurn)
	}
	if _, err := h.svc.MakeMove(view.GameID, 2); !errors.Is(err, models.ErrGameOver) {
		t.Errorf("move after win: got %v", err)
	}
	if n := h.publisher.count(models.EventGameCompleted); n != 1 {
		t.Errorf("published %d GAME_COMPLETED events, want 1", n)
	}

	sawOver := false
	for _, msg := range h.drain() {
		if msg.Type == models.WSGameOver {
			sawOver = true
		}
	}
	if !sawOver {
		t.Error("no game-over message pushed")
	}
}

func TestConfigureStartsNewGame(t *testing.T) {
	h := newHarness(t, time.Hour, nil)
	view, _ := h.svc.CreateSession(twoPlayer())
	if _, err := h.svc.MakeMove(view.GameID, 3); err != nil {
		t.Fatal(err)
	}

	settings := twoPlayer()
	settings.Difficulty = bot.Hard
	got, err := h.svc.Configure(view.GameID, settings)
	if err != nil {
		t.Fatal(err)
	}
	if got.State.MoveCount != 0 || got.Settings.Difficulty != "hard" {
		t.Fatalf("configure: moves=%d difficulty=%s", got.State.MoveCount, got.Settings.Difficulty)
	}

	bad := engine.DefaultSettings()
	bad.CPUColor = models.Empty
	if _, err := h.svc.Configure(view.GameID, bad); !errors.Is(err, models.ErrInvalidPlayer) {
		t.Errorf("invalid settings: got %v", err)
	}
	if n := h.publisher.count(models.EventGameStarted); n != 2 {
		t.Errorf("published %d GAME_STARTED events, want 2", n)
	}
}

func TestBookIsConsulted(t *testing.T) {
	store := book.NewMemoryStore(16)
	empty := models.NewBoard()
	if err := store.Put(context.Background(), book.Key(&empty, 2, models.PlayerA), 6); err != nil {
		t.Fatal(err)
	}

	h := newHarness(t, 0, store)
	if _, err := h.svc.CreateSession(cpuAs(models.PlayerA)); err != nil {
		t.Fatal(err)
	}
	if reply := h.waitForCPUMove(t); reply.Column != 6 {
		t.Fatalf("book move ignored: played %d", reply.Column)
	}
}

func TestSearchResultIsStoredInBook(t *testing.T) {
	store := book.NewMemoryStore(16)
	h := newHarness(t, 0, store)
	if _, err := h.svc.CreateSession(cpuAs(models.PlayerA)); err != nil {
		t.Fatal(err)
	}
	h.waitForCPUMove(t)

	empty := models.NewBoard()
	col, found, _ := store.Get(context.Background(), book.Key(&empty, 2, models.PlayerA))
	if !found || col != 3 {
		t.Fatalf("book entry = %d, %v", col, found)
	}
}

func TestTooManySessions(t *testing.T) {
	h := newHarness(t, time.Hour, nil)
	for i := 0; i < 4; i++ {
		if _, err := h.svc.CreateSession(twoPlayer()); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := h.svc.CreateSession(twoPlayer()); !errors.Is(err, ErrTooManySessions) {
		t.Fatalf("got %v, want ErrTooManySessions", err)
	}
}

func TestSettingsFromRequest(t *testing.T) {
	h := newHarness(t, time.Hour, nil)
	off := false

	tests := []struct {
		name    string
		req     models.CreateGameRequest
		want    engine.Settings
		wantErr bool
	}{
		{"defaults", models.CreateGameRequest{}, engine.DefaultSettings(), false},
		{"hard red cpu", models.CreateGameRequest{Difficulty: "Hard", CPUColor: models.ColorRed},
			engine.Settings{Difficulty: bot.Hard, VsCPU: true, CPUColor: models.PlayerA}, false},
		{"two player", models.CreateGameRequest{VsCPU: &off},
			engine.Settings{Difficulty: bot.Medium, VsCPU: false, CPUColor: models.PlayerB}, false},
		{"bad difficulty", models.CreateGameRequest{Difficulty: "impossible"}, engine.Settings{}, true},
		{"bad color", models.CreateGameRequest{CPUColor: "green"}, engine.Settings{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.svc.SettingsFromRequest(tt.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
