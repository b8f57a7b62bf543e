package handler

import (
	"github.com/dafibh/piflow/piflow-backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, rateLimiter *middleware.RateLimiter, transferHandler *TransferHandler, addressHandler *AddressHandler, wsHandler *WebSocketHandler) {
	// API version 1
	api := e.Group("/api/v1")

	// Transfer routes (rate limited)
	transfer := api.Group("/transfer")
	transfer.Use(middleware.RateLimitMiddleware(rateLimiter))
	transfer.POST("", transferHandler.Transfer)
	transfer.POST("/start", transferHandler.StartLoop)
	transfer.POST("/stop", transferHandler.StopLoop)
	transfer.GET("/status", transferHandler.Status)

	// Address derivation
	api.GET("/check-address", addressHandler.CheckAddress)

	// Live progress feed
	api.GET("/ws", wsHandler.HandleWS)
}
