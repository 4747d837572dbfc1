package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hiimzein/connect4/internal/book"
	"github.com/hiimzein/connect4/internal/bot"
	"github.com/hiimzein/connect4/internal/config"
	"github.com/hiimzein/connect4/internal/engine"
	"github.com/hiimzein/connect4/internal/models"
	"github.com/hiimzein/connect4/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ErrSessionNotFound models.Error = "game not found"
	ErrCPUTurn         models.Error = "it is the computer's turn"
	ErrTooManySessions models.Error = "too many active games"
)

// MoveCallback receives every push message for a game. It is called with
// the session lock held, so it must not call back into the service.
type MoveCallback func(gameID uuid.UUID, msg models.WSMessage)

type session struct {
	mu         sync.Mutex
	id         uuid.UUID
	match      *engine.Match
	generation uint64
	cancel     context.CancelFunc
	thinking   bool
	closed     bool
	startedAt  time.Time
	lastActive time.Time
}

// invalidate drops any pending CPU reply. Callers hold s.mu.
func (s *session) invalidate() {
	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.thinking = false
}

type GameService struct {
	cfg       config.GameConfig
	depths    bot.DepthTable
	bot       *bot.Bot
	book      book.Store
	publisher EventPublisher

	sessions      map[uuid.UUID]*session
	sessionsMutex sync.RWMutex

	onMove  MoveCallback
	ctx     context.Context
	stop    context.CancelFunc
	workers sync.WaitGroup
}

func NewGameService(cfg *config.Config, store book.Store, publisher EventPublisher) *GameService {
	if store == nil {
		store = book.Nop{}
	}
	if publisher == nil {
		publisher = NopPublisher{}
	}
	ctx, stop := context.WithCancel(context.Background())
	return &GameService{
		cfg: cfg.Game,
		depths: bot.DepthTable{
			bot.Easy:   cfg.Game.EasyDepth,
			bot.Medium: cfg.Game.MediumDepth,
			bot.Hard:   cfg.Game.HardDepth,
		},
		bot:       bot.New(),
		book:      store,
		publisher: publisher,
		sessions:  make(map[uuid.UUID]*session),
		ctx:       ctx,
		stop:      stop,
	}
}

func (gs *GameService) SetMoveCallback(callback MoveCallback) {
	gs.onMove = callback
}

// SettingsFromRequest fills unset request fields from the service defaults.
func (gs *GameService) SettingsFromRequest(req models.CreateGameRequest) (engine.Settings, error) {
	settings := engine.DefaultSettings()
	if gs.cfg.DefaultDifficulty != "" {
		d, err := bot.ParseDifficulty(gs.cfg.DefaultDifficulty)
		if err != nil {
			return engine.Settings{}, fmt.Errorf("default difficulty: %w", err)
		}
		settings.Difficulty = d
	}
	return MergeSettings(settings, req)
}

// MergeSettings overlays the fields set in req onto base.
func MergeSettings(base engine.Settings, req models.CreateGameRequest) (engine.Settings, error) {
	settings := base
	if req.Difficulty != "" {
		d, err := bot.ParseDifficulty(req.Difficulty)
		if err != nil {
			return base, err
		}
		settings.Difficulty = d
	}
	if req.VsCPU != nil {
		settings.VsCPU = *req.VsCPU
	}
	if req.CPUColor != "" {
		p, err := models.ParseColor(string(req.CPUColor))
		if err != nil {
			return base, err
		}
		settings.CPUColor = p
	}
	return settings, settings.Validate()
}

func (gs *GameService) CreateSession(settings engine.Settings) (*models.SessionView, error) {
	match, err := engine.NewMatch(settings, gs.depths, gs.bot)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	s := &session{id: uuid.New(), match: match, startedAt: now, lastActive: now}

	gs.sessionsMutex.Lock()
	if gs.cfg.MaxSessions > 0 && len(gs.sessions) >= gs.cfg.MaxSessions {
		gs.sessionsMutex.Unlock()
		return nil, ErrTooManySessions
	}
	gs.sessions[s.id] = s
	gs.sessionsMutex.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	gs.publishStarted(s)
	gs.maybeScheduleCPU(s)

	logger.Log.Info("Game created",
		zap.String("game_id", s.id.String()),
		zap.String("difficulty", string(settings.Difficulty)),
		zap.Bool("vs_cpu", settings.VsCPU),
	)
	view := gs.view(s)
	return &view, nil
}

// acquire returns the session locked, or ErrSessionNotFound.
func (gs *GameService) acquire(id uuid.UUID) (*session, error) {
	gs.sessionsMutex.RLock()
	s, ok := gs.sessions[id]
	gs.sessionsMutex.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	s.lastActive = time.Now()
	return s, nil
}

func (gs *GameService) Settings(id uuid.UUID) (engine.Settings, error) {
	s, err := gs.acquire(id)
	if err != nil {
		return engine.Settings{}, err
	}
	defer s.mu.Unlock()
	return s.match.Settings(), nil
}

func (gs *GameService) GetSession(id uuid.UUID) (*models.SessionView, error) {
	s, err := gs.acquire(id)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	view := gs.view(s)
	return &view, nil
}

// Watch calls fn with the current view while the session is locked. Move
// notifications for the game are ordered after anything fn queues.
func (gs *GameService) Watch(id uuid.UUID, fn func(models.SessionView)) error {
	s, err := gs.acquire(id)
	if err != nil {
		return err
	}
	defer s.mu.Unlock()
	fn(gs.view(s))
	return nil
}

// MakeMove plays a human move for the side to move. In a game against the
// computer the reply is scheduled and arrives through the move callback.
func (gs *GameService) MakeMove(id uuid.UUID, column int) (*models.MovePayload, error) {
	s, err := gs.acquire(id)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	if s.match.CPUToMove() {
		return nil, ErrCPUTurn
	}
	payload, err := gs.apply(s, column, false, 0)
	if err != nil {
		return nil, err
	}
	gs.maybeScheduleCPU(s)
	return payload, nil
}

// MakeBotMove searches and plays the computer's move right away, replacing
// any scheduled reply.
func (gs *GameService) MakeBotMove(ctx context.Context, id uuid.UUID) (*models.MovePayload, error) {
	s, err := gs.acquire(id)
	if err != nil {
		return nil, err
	}
	if !s.match.CPUToMove() {
		terminal := s.match.State().IsTerminal()
		s.mu.Unlock()
		if terminal {
			return nil, models.ErrGameOver
		}
		return nil, fmt.Errorf("%w: the computer is not to move", models.ErrNotYourTurn)
	}
	s.invalidate()
	gen := s.generation
	state, depth := s.match.State(), s.match.Depth()
	s.mu.Unlock()

	column, nodes, err := gs.choose(ctx, state, depth)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.generation != gen {
		return nil, fmt.Errorf("%w: game changed during search", context.Canceled)
	}
	return gs.apply(s, column, true, nodes)
}

// Hint runs the search for the side to move without changing the game.
// An empty difficulty uses the game's own.
func (gs *GameService) Hint(ctx context.Context, id uuid.UUID, difficulty string) (*models.HintPayload, error) {
	s, err := gs.acquire(id)
	if err != nil {
		return nil, err
	}
	d := s.match.Settings().Difficulty
	if difficulty != "" {
		if d, err = bot.ParseDifficulty(difficulty); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}
	state, depth := s.match.State(), s.match.DepthFor(d)
	s.mu.Unlock()

	res, err := engine.ComputeAIMoveContext(ctx, gs.bot, state, depth)
	if err != nil {
		return nil, err
	}
	return &models.HintPayload{
		Column:     res.Column,
		Score:      res.Score,
		Nodes:      res.Nodes,
		Depth:      res.Depth,
		Difficulty: string(d),
	}, nil
}

func (gs *GameService) Reset(id uuid.UUID) (*models.SessionView, error) {
	s, err := gs.acquire(id)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	s.invalidate()
	s.match.Reset()
	gs.restarted(s)
	view := gs.view(s)
	return &view, nil
}

// Configure changes the settings of a game. Any change starts a new game.
func (gs *GameService) Configure(id uuid.UUID, settings engine.Settings) (*models.SessionView, error) {
	s, err := gs.acquire(id)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	s.invalidate()
	if err := s.match.Configure(settings); err != nil {
		return nil, err
	}
	gs.restarted(s)
	view := gs.view(s)
	return &view, nil
}

func (gs *GameService) restarted(s *session) {
	s.startedAt = time.Now()
	gs.notify(s.id, models.WSGameReset, gs.view(s))
	gs.publishStarted(s)
	gs.maybeScheduleCPU(s)
}

func (gs *GameService) Close(id uuid.UUID) error {
	gs.sessionsMutex.Lock()
	s, ok := gs.sessions[id]
	delete(gs.sessions, id)
	gs.sessionsMutex.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	s.mu.Lock()
	s.closed = true
	s.invalidate()
	s.mu.Unlock()

	logger.Log.Info("Game closed", zap.String("game_id", id.String()))
	return nil
}

func (gs *GameService) ActiveSessions() int {
	gs.sessionsMutex.RLock()
	defer gs.sessionsMutex.RUnlock()
	return len(gs.sessions)
}

// ReapIdle closes sessions untouched since before cutoff and returns how
// many were closed.
func (gs *GameService) ReapIdle(cutoff time.Time) int {
	var idle []uuid.UUID
	gs.sessionsMutex.RLock()
	for id, s := range gs.sessions {
		s.mu.Lock()
		if s.lastActive.Before(cutoff) && !s.thinking {
			idle = append(idle, id)
		}
		s.mu.Unlock()
	}
	gs.sessionsMutex.RUnlock()

	closed := 0
	for _, id := range idle {
		if gs.Close(id) == nil {
			closed++
		}
	}
	return closed
}

// Shutdown cancels every pending CPU reply and waits for them to exit.
func (gs *GameService) Shutdown() {
	gs.stop()
	gs.workers.Wait()
}

// maybeScheduleCPU starts the computer's reply when it is to move. Callers
// hold s.mu.
func (gs *GameService) maybeScheduleCPU(s *session) {
	if !s.match.CPUToMove() || s.thinking {
		return
	}
	ctx, cancel := context.WithCancel(gs.ctx)
	s.cancel = cancel
	s.thinking = true
	gen := s.generation
	state, depth := s.match.State(), s.match.Depth()

	gs.notify(s.id, models.WSCPUThinking, models.ThinkingPayload{GameID: s.id, Color: state.ToMove.Color()})

	gs.workers.Add(1)
	go func() {
		defer gs.workers.Done()
		defer cancel()
		gs.runCPU(ctx, s, gen, state, depth)
	}()
}

func (gs *GameService) runCPU(ctx context.Context, s *session, gen uint64, state models.GameState, depth int) {
	if gs.cfg.BotMoveDelay > 0 {
		timer := time.NewTimer(gs.cfg.BotMoveDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			gs.abandonCPU(s, gen, ctx.Err())
			return
		case <-timer.C:
		}
	}

	column, nodes, err := gs.choose(ctx, state, depth)
	if err != nil {
		gs.abandonCPU(s, gen, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.generation != gen {
		logger.Log.Debug("Discarding stale CPU move", zap.String("game_id", s.id.String()))
		return
	}
	s.thinking = false
	s.cancel = nil
	if _, err := gs.apply(s, column, true, nodes); err != nil {
		logger.Log.Error("CPU move rejected", zap.String("game_id", s.id.String()), zap.Int("column", column), zap.Error(err))
		gs.notify(s.id, models.WSError, models.ErrorPayload{Message: err.Error(), Code: "CPU_MOVE_FAILED"})
	}
}

// abandonCPU clears the pending reply of generation gen. Nothing else will
// move for the computer, so a real failure is pushed to clients, which
// recover through MakeBotMove.
func (gs *GameService) abandonCPU(s *session, gen uint64, err error) {
	canceled := errors.Is(err, context.Canceled)
	if !canceled {
		logger.Log.Error("CPU search failed", zap.String("game_id", s.id.String()), zap.Error(err))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.generation != gen {
		return
	}
	s.thinking = false
	s.cancel = nil
	if !canceled {
		gs.notify(s.id, models.WSError, models.ErrorPayload{Message: err.Error(), Code: "CPU_MOVE_FAILED"})
	}
}

// choose finds the computer's column, consulting the book first. A search
// that comes back without a column falls back to the first legal one.
func (gs *GameService) choose(ctx context.Context, state models.GameState, depth int) (int, int64, error) {
	key := book.Key(&state.Board, depth, state.ToMove)
	if col, found, err := gs.book.Get(ctx, key); err != nil {
		logger.Log.Warn("Move book lookup failed", zap.Error(err))
	} else if found && state.Board.CanDrop(col) {
		return col, 0, nil
	}

	res, err := engine.ComputeAIMoveContext(ctx, gs.bot, state, depth)
	if err != nil && !errors.Is(err, models.ErrNoLegalMove) {
		return -1, res.Nodes, err
	}
	if res.Column < 0 {
		legal := state.Board.LegalMoves()
		if len(legal) == 0 {
			return -1, res.Nodes, models.ErrNoLegalMove
		}
		return legal[0], res.Nodes, nil
	}

	if err := gs.book.Put(ctx, key, res.Column); err != nil {
		logger.Log.Warn("Move book store failed", zap.Error(err))
	}
	return res.Column, res.Nodes, nil
}

// apply plays column for the side to move and emits the move and, when the
// game ends, its result. Callers hold s.mu.
func (gs *GameService) apply(s *session, column int, byCPU bool, nodes int64) (*models.MovePayload, error) {
	next, err := s.match.Play(column)
	if err != nil {
		return nil, err
	}

	mover := next.Board.Occupant(next.LastMove.Col, next.LastMove.Row)
	payload := &models.MovePayload{
		GameID:     s.id,
		Column:     next.LastMove.Col,
		Row:        next.LastMove.Row,
		Color:      mover.Color(),
		ByCPU:      byCPU,
		Status:     next.Status,
		Line:       next.Line,
		Board:      next.Board,
		MoveNumber: next.MoveCount,
	}
	if !next.IsTerminal() {
		payload.NextTurn = next.ToMove.Color()
	}
	if next.Status == models.GameStatusWon {
		payload.Winner = next.Winner.Color()
	}

	if err := gs.publisher.PublishMoveMade(models.MoveMadeEvent{
		Type:       models.EventMoveMade,
		GameID:     s.id,
		Column:     payload.Column,
		Row:        payload.Row,
		Color:      payload.Color,
		ByCPU:      byCPU,
		MoveNumber: payload.MoveNumber,
		Nodes:      nodes,
		Timestamp:  time.Now(),
	}); err != nil {
		logger.Log.Warn("Failed to publish move", zap.Error(err))
	}
	gs.notify(s.id, models.WSMoveApplied, payload)

	if next.IsTerminal() {
		gs.completed(s, next)
		gs.notify(s.id, models.WSGameOver, payload)
	}

	logger.Log.Debug("Move applied",
		zap.String("game_id", s.id.String()),
		zap.Int("column", payload.Column),
		zap.Bool("by_cpu", byCPU),
	)
	return payload, nil
}

func (gs *GameService) completed(s *session, state models.GameState) {
	settings := s.match.Settings().Model()
	event := models.GameCompletedEvent{
		Type:       models.EventGameCompleted,
		GameID:     s.id,
		Difficulty: settings.Difficulty,
		VsCPU:      settings.VsCPU,
		CPUColor:   settings.CPUColor,
		Status:     state.Status,
		TotalMoves: state.MoveCount,
		Duration:   int(time.Since(s.startedAt).Seconds()),
		Timestamp:  time.Now(),
	}
	if state.Status == models.GameStatusWon {
		event.Winner = state.Winner.Color()
	}
	if err := gs.publisher.PublishGameCompleted(event); err != nil {
		logger.Log.Warn("Failed to publish game result", zap.Error(err))
	}
	logger.Log.Info("Game finished",
		zap.String("game_id", s.id.String()),
		zap.String("status", string(state.Status)),
		zap.String("winner", string(event.Winner)),
	)
}

func (gs *GameService) publishStarted(s *session) {
	settings := s.match.Settings().Model()
	err := gs.publisher.PublishGameStarted(models.GameStartedEvent{
		Type:       models.EventGameStarted,
		GameID:     s.id,
		Difficulty: settings.Difficulty,
		VsCPU:      settings.VsCPU,
		CPUColor:   settings.CPUColor,
		Timestamp:  s.startedAt,
	})
	if err != nil {
		logger.Log.Warn("Failed to publish game start", zap.Error(err))
	}
}

func (gs *GameService) notify(id uuid.UUID, kind models.WSMessageType, payload interface{}) {
	if gs.onMove != nil {
		gs.onMove(id, models.WSMessage{Type: kind, Payload: payload})
	}
}

func (gs *GameService) view(s *session) models.SessionView {
	state := s.match.State()
	view := models.SessionView{
		GameID:      s.id,
		Settings:    s.match.Settings().Model(),
		State:       state,
		CPUThinking: s.thinking,
		StartedAt:   s.startedAt,
	}
	if !state.IsTerminal() {
		view.CurrentTurn = state.ToMove.Color()
	}
	return view
}
