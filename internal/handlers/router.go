package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"betting-backend/internal/middleware"
	"betting-backend/internal/services"
)

type RouterConfig struct {
	Accounts *services.AccountService
	Engine   *services.GameEngine
	Admin    *services.AdminService
	Tokens   *services.JWTService
	Hub      *Hub
	// Limiter is optional; bets are not rate limited without it.
	Limiter       middleware.RateLimiter
	BetsPerMinute int
	CORSOrigin    string
	Logger        *zap.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	userHandler := NewUserHandler(cfg.Accounts, cfg.Logger)
	gameHandler := NewGameHandler(cfg.Engine, cfg.Logger)
	adminHandler := NewAdminHandler(cfg.Admin, cfg.Logger)
	wsHandler := NewWebSocketHandler(cfg.Hub, cfg.Logger)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(cfg.Logger), middleware.CORS(cfg.CORSOrigin))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"viewers": cfg.Hub.Connected(),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/register", userHandler.Register)
	router.POST("/login", userHandler.Login)
	router.GET("/ws", wsHandler.HandleWebSocket)

	protected := router.Group("/")
	protected.Use(middleware.AuthMiddleware(cfg.Tokens))
	{
		protected.GET("/me", userHandler.GetCurrentUser)
		protected.GET("/my-history", userHandler.GetHistory)

		games := protected.Group("/game")
		if cfg.Limiter != nil {
			games.Use(middleware.RateLimitMiddleware(cfg.Limiter, "bet", cfg.BetsPerMinute, cfg.Logger))
		}
		{
			games.POST("/crash", gameHandler.PlayCrash)
			games.POST("/coinflip", gameHandler.PlayCoinflip)
		}

		admin := protected.Group("/admin")
		admin.Use(middleware.AdminMiddleware(cfg.Admin, cfg.Logger))
		{
			admin.GET("/stats", adminHandler.GetStats)
			admin.GET("/users", adminHandler.ListUsers)
			admin.POST("/give-money", adminHandler.GiveMoney)
		}
	}

	return router
}
