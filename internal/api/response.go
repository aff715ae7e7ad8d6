package api

import (
	"time"

	"github.com/gin-gonic/gin"
)

// StandardResponse 标准响应格式
type StandardResponse struct {
	Code      int         `json:"code"`           // 0=成功, >0=错误码
	Message   string      `json:"message"`        // 消息
	Data      interface{} `json:"data,omitempty"` // 业务数据
	RequestID string      `json:"request_id"`     // 请求追踪ID
	Timestamp int64       `json:"timestamp"`      // 时间戳
}

// 业务错误码
const (
	CodeOK             = 0
	CodeBadRequest     = 40000
	CodeUnknownOp      = 40400
	CodeRateLimited    = 42900
	CodeSerialWriteErr = 50200
)

func respond(c *gin.Context, status, code int, message string, data interface{}) {
	c.JSON(status, StandardResponse{
		Code:      code,
		Message:   message,
		Data:      data,
		RequestID: c.GetString("request_id"),
		Timestamp: time.Now().Unix(),
	})
}
