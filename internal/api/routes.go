package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/dfplayer/internal/api/middleware"
)

// RegisterPlayerRoutes 注册播放器控制路由（/api/player/*）
func RegisterPlayerRoutes(r gin.IRouter, handler *PlayerHandler, authCfg middleware.AuthConfig, logger *zap.Logger) {
	if r == nil || handler == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	api := r.Group("/api")
	api.Use(middleware.RequestID())
	if authCfg.Enabled {
		api.Use(middleware.APIKeyAuth(authCfg, logger))
		logger.Info("api authentication enabled", zap.Int("api_keys_count", len(authCfg.APIKeys)))
	} else {
		logger.Warn("api authentication disabled - only for development!")
	}

	player := api.Group("/player")
	player.GET("/operations", handler.ListOperations)
	player.POST("/commands/:op", handler.SendCommand)
	player.GET("/events", handler.RecentEvents)
	player.GET("/status", handler.Status)

	logger.Info("player routes registered", zap.Int("endpoints", 4))
}
