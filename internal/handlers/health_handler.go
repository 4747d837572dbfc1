package handlers

import (
	"net/http"

	"github.com/hiimzein/connect4/internal/services"

	"github.com/gin-gonic/gin"
)

type pinger interface {
	Ping() error
}

type HealthHandler struct {
	db          pinger
	gameService *services.GameService
}

// NewHealthHandler accepts a nil db when the server runs without one.
func NewHealthHandler(db pinger, gameService *services.GameService) *HealthHandler {
	return &HealthHandler{db: db, gameService: gameService}
}

// GET /api/health
func (hh *HealthHandler) GetHealth(c *gin.Context) {
	body := gin.H{"status": "ok", "active_games": hh.gameService.ActiveSessions()}
	if hh.db == nil {
		body["database"] = "disabled"
		c.JSON(http.StatusOK, body)
		return
	}
	if err := hh.db.Ping(); err != nil {
		body["status"] = "unhealthy"
		body["database"] = "disconnected"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	body["database"] = "connected"
	c.JSON(http.StatusOK, body)
}
