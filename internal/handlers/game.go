package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"betting-backend/internal/middleware"
	"betting-backend/internal/models"
	"betting-backend/internal/services"
)

type GameHandler struct {
	gameEngine *services.GameEngine
	logger     *zap.Logger
}

func NewGameHandler(gameEngine *services.GameEngine, logger *zap.Logger) *GameHandler {
	return &GameHandler{
		gameEngine: gameEngine,
		logger:     logger,
	}
}

func (h *GameHandler) PlayCrash(c *gin.Context) {
	var req models.CrashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	resp, err := h.gameEngine.PlayCrash(c.Request.Context(), middleware.AccountID(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *GameHandler) PlayCoinflip(c *gin.Context) {
	var req models.CoinflipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	resp, err := h.gameEngine.PlayCoinflip(c.Request.Context(), middleware.AccountID(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
