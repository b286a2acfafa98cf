package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/miko-factory/creamdash/internal/api/middleware"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, authCfg middleware.AuthConfig) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		// Dashboard reads (public)
		v1.GET("/tokens", handler.ListTokens)
		v1.GET("/batches", handler.ListBatches)
		v1.GET("/batches/recent", handler.ListRecentBatches)
		v1.GET("/timeline", handler.GetTimeline)
		v1.GET("/timeline/:batch_id/stations/:station", handler.GetStation)
		v1.GET("/timeline/:batch_id/stations/:station/units/:index", handler.GetUnit)

		// Manual refresh, managers only
		v1.POST("/refresh", middleware.RequireRole(authCfg, middleware.RoleManager), handler.Refresh)

		// Operator sessions
		sessions := v1.Group("/operator/sessions")
		sessions.POST("/badge", handler.LoginWithBadge)
		sessions.POST("/code", handler.LoginWithCode)
		sessions.GET("/:id", handler.GetSession)
		sessions.DELETE("/:id", handler.DeleteSession)
	}
}
