package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/dfplayer/internal/events"
	"github.com/taoyao-code/dfplayer/internal/gateway"
	"github.com/taoyao-code/dfplayer/internal/protocol/dfplayer"
)

// PlayerController 下发命令与读取运行状态（*gateway.Gateway 满足）
type PlayerController interface {
	Command(op string, args ...int) error
	Status() gateway.Status
}

// EventSource 最近事件来源（*events.Recorder 满足）
type EventSource interface {
	Recent(limit int) []events.PlayerEvent
}

// PlayerHandler 播放器控制API处理器
type PlayerHandler struct {
	ctrl   PlayerController
	events EventSource
	logger *zap.Logger
}

// NewPlayerHandler 创建处理器；events 可为 nil
func NewPlayerHandler(ctrl PlayerController, events EventSource, logger *zap.Logger) *PlayerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlayerHandler{ctrl: ctrl, events: events, logger: logger}
}

// OperationView 命令目录条目
type OperationView struct {
	Name string             `json:"name"`
	Code string             `json:"code"`
	Args []dfplayer.ArgSpec `json:"args"`
}

// CommandRequest 下发命令请求；无参操作可省略 args
type CommandRequest struct {
	Args []int `json:"args"`
}

// ListOperations GET /api/player/operations
func (h *PlayerHandler) ListOperations(c *gin.Context) {
	ops := dfplayer.Operations()
	out := make([]OperationView, 0, len(ops))
	for _, op := range ops {
		args := op.Args
		if args == nil {
			args = []dfplayer.ArgSpec{}
		}
		out = append(out, OperationView{
			Name: op.Name,
			Code: fmt.Sprintf("0x%02X", op.Code),
			Args: args,
		})
	}
	respond(c, http.StatusOK, CodeOK, "ok", gin.H{"operations": out})
}

// SendCommand POST /api/player/commands/:op
func (h *PlayerHandler) SendCommand(c *gin.Context) {
	op := c.Param("op")

	var req CommandRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond(c, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error(), nil)
			return
		}
	}

	err := h.ctrl.Command(op, req.Args...)
	if err == nil {
		h.logger.Info("player command dispatched", zap.String("op", op), zap.Ints("args", req.Args))
		respond(c, http.StatusOK, CodeOK, "命令已发送", gin.H{"op": op, "args": req.Args})
		return
	}

	var rangeErr *dfplayer.ArgumentRangeError
	switch {
	case errors.Is(err, dfplayer.ErrUnknownOperation):
		respond(c, http.StatusBadRequest, CodeUnknownOp, err.Error(), nil)
	case errors.Is(err, dfplayer.ErrArgCount):
		respond(c, http.StatusBadRequest, CodeBadRequest, err.Error(), nil)
	case errors.As(err, &rangeErr):
		respond(c, http.StatusBadRequest, CodeBadRequest, err.Error(), gin.H{
			"arg":   rangeErr.Arg,
			"value": rangeErr.Value,
			"min":   rangeErr.Min,
			"max":   rangeErr.Max,
		})
	case errors.Is(err, gateway.ErrRateLimited):
		respond(c, http.StatusTooManyRequests, CodeRateLimited, err.Error(), nil)
	default:
		h.logger.Warn("player command failed", zap.String("op", op), zap.Error(err))
		respond(c, http.StatusBadGateway, CodeSerialWriteErr, err.Error(), nil)
	}
}

// RecentEvents GET /api/player/events?limit=N
func (h *PlayerHandler) RecentEvents(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respond(c, http.StatusBadRequest, CodeBadRequest, "invalid limit", nil)
			return
		}
		limit = n
	}
	list := []events.PlayerEvent{}
	if h.events != nil {
		list = h.events.Recent(limit)
	}
	respond(c, http.StatusOK, CodeOK, "ok", gin.H{"events": list})
}

// Status GET /api/player/status
func (h *PlayerHandler) Status(c *gin.Context) {
	respond(c, http.StatusOK, CodeOK, "ok", h.ctrl.Status())
}
