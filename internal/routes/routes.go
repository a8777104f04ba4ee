package routes

import (
	"shortsale_backend/internal/handlers"
	"shortsale_backend/internal/logger"
	"shortsale_backend/internal/middleware"
	"shortsale_backend/internal/realtime"
	"shortsale_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все HTTP и WebSocket маршруты.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	rtHandler *realtime.Handler,
	tokenService services.AccessTokenService,
) {
	// Регистрация HTTP API v1
	api := ginRouter.Group("/api/v1")
	{
		appHandlers.AuthHandler.RegisterRoutes(api)
		appHandlers.TrackerHandler.RegisterRoutes(api)
		appHandlers.TransactionHandler.RegisterRoutes(api)
		appHandlers.PartyHandler.RegisterRoutes(api)
		appHandlers.DocumentRequestHandler.RegisterRoutes(api)
		appHandlers.MessageHandler.RegisterRoutes(api)
		appHandlers.UploadHandler.RegisterRoutes(api)
		appHandlers.NotificationHandler.RegisterRoutes(api)
		appHandlers.FileHandler.RegisterRoutes(api)

		me := api.Group("/me")
		me.Use(middleware.AuthMiddleware())
		{
			me.GET("", appHandlers.AuthHandler.GetCurrentUser)
		}
	}

	// Регистрация WebSocket
	wsSession := ginRouter.Group("/ws/transactions")
	wsSession.Use(middleware.AuthMiddleware())
	{
		wsSession.GET("/:id", rtHandler.ServeTransaction)
	}

	// Стороны сделки подключаются по своей tracker-ссылке
	wsTracker := ginRouter.Group("/ws/tracker")
	wsTracker.Use(middleware.TrackerTokenMiddleware(tokenService))
	{
		wsTracker.GET("", rtHandler.ServeTracker)
	}
	logger.Info("WebSocket routes registered", "session", "/ws/transactions/:id", "tracker", "/ws/tracker")
}
