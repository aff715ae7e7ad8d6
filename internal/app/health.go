package app

import (
	"github.com/gin-gonic/gin"

	"github.com/taoyao-code/dfplayer/internal/health"
	"github.com/taoyao-code/dfplayer/internal/serialport"
)

// NewHealthAggregator 创建健康检查聚合器，初始只包含串口检查
func NewHealthAggregator(conn *serialport.Conn) *health.Aggregator {
	return health.NewAggregator(health.NewSerialChecker(conn))
}

// RegisterHealthRoutes 注册健康检查HTTP路由
func RegisterHealthRoutes(r *gin.Engine, aggregator *health.Aggregator) {
	health.RegisterHTTPRoutes(r, aggregator)
}
