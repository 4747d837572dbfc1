package handlers

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hiimzein/connect4/internal/models"
	"github.com/hiimzein/connect4/internal/services"
	"github.com/hiimzein/connect4/internal/utils"
	"github.com/hiimzein/connect4/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 32
)

// subscriber is one websocket watching one game. Messages are queued on
// send and written by a single goroutine.
type subscriber struct {
	conn *websocket.Conn
	send chan models.WSMessage
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.send) })
}

type WSHandler struct {
	gameService *services.GameService
	upgrader    websocket.Upgrader
	subscribers map[uuid.UUID]map[*subscriber]struct{}
	connMutex   sync.RWMutex
}

func NewWSHandler(gameService *services.GameService, allowedOrigins []string) *WSHandler {
	handler := &WSHandler{
		gameService: gameService,
		subscribers: make(map[uuid.UUID]map[*subscriber]struct{}),
	}
	handler.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}

	gameService.SetMoveCallback(handler.Broadcast)
	return handler
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// GET /ws?game_id=
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	id, err := uuid.Parse(c.Query("game_id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_GAME_ID", "game_id query parameter is required")
		return
	}
	if _, err := h.gameService.GetSession(id); err != nil {
		writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.Error("Failed to upgrade connection", zap.Error(err))
		return
	}

	// Subscribe and queue the snapshot under the session lock so a CPU move
	// cannot land between them.
	sub := &subscriber{conn: conn, send: make(chan models.WSMessage, sendBuffer)}
	err = h.gameService.Watch(id, func(view models.SessionView) {
		h.subscribe(id, sub)
		sub.send <- models.WSMessage{Type: models.WSGameState, Payload: view}
	})
	if err != nil {
		logger.Log.Debug("Game closed before subscribe", zap.String("game_id", id.String()))
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "game closed"))
		conn.Close()
		return
	}
	logger.Log.Info("Websocket subscribed", zap.String("game_id", id.String()))

	go h.writePump(sub)
	h.readPump(id, sub)
}

func (h *WSHandler) subscribe(id uuid.UUID, sub *subscriber) {
	h.connMutex.Lock()
	defer h.connMutex.Unlock()
	subs, ok := h.subscribers[id]
	if !ok {
		subs = make(map[*subscriber]struct{})
		h.subscribers[id] = subs
	}
	subs[sub] = struct{}{}
}

func (h *WSHandler) unsubscribe(id uuid.UUID, sub *subscriber) {
	h.connMutex.Lock()
	if subs, ok := h.subscribers[id]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.subscribers, id)
		}
	}
	h.connMutex.Unlock()
	sub.close()
}

// Broadcast queues msg for every subscriber of the game. A subscriber whose
// queue is full is dropped rather than blocking the game.
func (h *WSHandler) Broadcast(id uuid.UUID, msg models.WSMessage) {
	h.connMutex.RLock()
	var slow []*subscriber
	for sub := range h.subscribers[id] {
		select {
		case sub.send <- msg:
		default:
			slow = append(slow, sub)
		}
	}
	h.connMutex.RUnlock()

	for _, sub := range slow {
		logger.Log.Warn("Dropping slow websocket", zap.String("game_id", id.String()))
		h.unsubscribe(id, sub)
	}
}

// readPump only watches for the client going away; clients act through
// the REST routes.
func (h *WSHandler) readPump(id uuid.UUID, sub *subscriber) {
	defer h.unsubscribe(id, sub)

	sub.conn.SetReadLimit(512)
	_ = sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Log.Debug("Websocket closed", zap.String("game_id", id.String()), zap.Error(err))
			}
			return
		}
	}
}

func (h *WSHandler) writePump(sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sub.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-sub.send:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = sub.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := sub.conn.WriteJSON(msg); err != nil {
				logger.Log.Error("Failed to send message", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
