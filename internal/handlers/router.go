package handlers

import (
	"github.com/hiimzein/connect4/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Router struct {
	HTTP      *HTTPHandler
	Analytics *AnalyticsHandler
	Health    *HealthHandler
	WS        *WSHandler
}

func (rt Router) Engine(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(allowedOrigins))
	r.Use(middleware.ErrorHandler())

	r.GET("/ws", rt.WS.HandleWebSocket)

	api := r.Group("/api")
	{
		api.GET("/health", rt.Health.GetHealth)
		api.GET("/stats", rt.Analytics.GetStatistics)

		games := api.Group("/games")
		games.POST("", rt.HTTP.CreateGame)
		games.GET("/:id", rt.HTTP.GetGame)
		games.DELETE("/:id", rt.HTTP.CloseGame)
		games.POST("/:id/moves", rt.HTTP.MakeMove)
		games.POST("/:id/cpu-move", rt.HTTP.PlayCPUMove)
		games.GET("/:id/hint", rt.HTTP.GetHint)
		games.POST("/:id/reset", rt.HTTP.ResetGame)
		games.PUT("/:id/settings", rt.HTTP.UpdateSettings)
	}
	return r
}
