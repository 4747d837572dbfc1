package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/hiimzein/connect4/internal/bot"
	"github.com/hiimzein/connect4/internal/models"
	"github.com/hiimzein/connect4/internal/services"
	"github.com/hiimzein/connect4/internal/utils"
	"github.com/hiimzein/connect4/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type HTTPHandler struct {
	gameService *services.GameService
}

func NewHTTPHandler(gameService *services.GameService) *HTTPHandler {
	return &HTTPHandler{gameService: gameService}
}

// POST /api/games
func (h *HTTPHandler) CreateGame(c *gin.Context) {
	var req models.CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	settings, err := h.gameService.SettingsFromRequest(req)
	if err != nil {
		writeError(c, err)
		return
	}
	view, err := h.gameService.CreateSession(settings)
	if err != nil {
		writeError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, view)
}

// GET /api/games/:id
func (h *HTTPHandler) GetGame(c *gin.Context) {
	id, ok := gameID(c)
	if !ok {
		return
	}
	view, err := h.gameService.GetSession(id)
	if err != nil {
		writeError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, view)
}

// POST /api/games/:id/moves
func (h *HTTPHandler) MakeMove(c *gin.Context) {
	id, ok := gameID(c)
	if !ok {
		return
	}
	var req models.MakeMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "column is required")
		return
	}

	move, err := h.gameService.MakeMove(id, *req.Column)
	if err != nil {
		writeError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, move)
}

// GET /api/games/:id/hint?difficulty=
func (h *HTTPHandler) GetHint(c *gin.Context) {
	id, ok := gameID(c)
	if !ok {
		return
	}
	hint, err := h.gameService.Hint(c.Request.Context(), id, c.Query("difficulty"))
	if err != nil {
		writeError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, hint)
}

// POST /api/games/:id/cpu-move plays the computer's move now. It also
// restarts a game whose scheduled reply failed.
func (h *HTTPHandler) PlayCPUMove(c *gin.Context) {
	id, ok := gameID(c)
	if !ok {
		return
	}
	move, err := h.gameService.MakeBotMove(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, move)
}

// POST /api/games/:id/reset
func (h *HTTPHandler) ResetGame(c *gin.Context) {
	id, ok := gameID(c)
	if !ok {
		return
	}
	view, err := h.gameService.Reset(id)
	if err != nil {
		writeError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, view)
}

// PUT /api/games/:id/settings
func (h *HTTPHandler) UpdateSettings(c *gin.Context) {
	id, ok := gameID(c)
	if !ok {
		return
	}
	var req models.CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	current, err := h.gameService.Settings(id)
	if err != nil {
		writeError(c, err)
		return
	}
	settings, err := services.MergeSettings(current, req)
	if err != nil {
		writeError(c, err)
		return
	}
	view, err := h.gameService.Configure(id, settings)
	if err != nil {
		writeError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, view)
}

// DELETE /api/games/:id
func (h *HTTPHandler) CloseGame(c *gin.Context) {
	id, ok := gameID(c)
	if !ok {
		return
	}
	if err := h.gameService.Close(id); err != nil {
		writeError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, gin.H{"game_id": id})
}

func gameID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_GAME_ID", "Invalid game id")
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps engine and service errors onto HTTP statuses. Anything
// unrecognised is a 500 and is logged.
func writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL_ERROR"
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		status, code = http.StatusNotFound, "GAME_NOT_FOUND"
	case errors.Is(err, models.ErrInvalidColumn):
		status, code = http.StatusBadRequest, "INVALID_COLUMN"
	case errors.Is(err, models.ErrInvalidPlayer):
		status, code = http.StatusBadRequest, "INVALID_PLAYER"
	case errors.Is(err, bot.ErrUnknownDifficulty):
		status, code = http.StatusBadRequest, "INVALID_DIFFICULTY"
	case errors.Is(err, models.ErrColumnFull):
		status, code = http.StatusConflict, "COLUMN_FULL"
	case errors.Is(err, models.ErrNotYourTurn), errors.Is(err, services.ErrCPUTurn):
		status, code = http.StatusConflict, "NOT_YOUR_TURN"
	case errors.Is(err, models.ErrGameOver):
		status, code = http.StatusConflict, "GAME_OVER"
	case errors.Is(err, services.ErrTooManySessions):
		status, code = http.StatusTooManyRequests, "TOO_MANY_GAMES"
	default:
		logger.Log.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		utils.ErrorResponse(c, status, code, "An internal error occurred")
		return
	}
	utils.ErrorResponse(c, status, code, err.Error())
}
