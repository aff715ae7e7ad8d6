package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/dfplayer/internal/events"
	"github.com/taoyao-code/dfplayer/internal/metrics"
	"github.com/taoyao-code/dfplayer/internal/protocol/dfplayer"
	"github.com/taoyao-code/dfplayer/internal/serialport"
)

// ErrRateLimited 下行命令超过限速
var ErrRateLimited = errors.New("command rate limited")

// Options 网关可选组件，均可为零值
type Options struct {
	Metrics   *metrics.AppMetrics
	Recorder  *events.Recorder
	Publisher events.Publisher
	Limiter   *serialport.RateLimiter
	Logger    *zap.Logger
	// Feedback 下行帧是否请求回执
	Feedback bool
	// LogResponses 为 true 时安装默认响应回调，把每条上行帧描述写入日志
	LogResponses bool
	// EventBuffer 待发布事件缓冲长度
	EventBuffer int
}

// Gateway 把一条串口连接绑定到一个 Player：
// 串口读循环驱动解码，解码结果进入指标、路由表与事件下游。
type Gateway struct {
	conn      *serialport.Conn
	player    *dfplayer.Player
	table     *dfplayer.Table
	limiter   *serialport.RateLimiter
	recorder  *events.Recorder
	publisher events.Publisher
	appm      *metrics.AppMetrics
	logger    *zap.Logger

	eventC chan events.PlayerEvent

	decoderPos    atomic.Int32
	framesTotal   atomic.Int64
	invalidTotal  atomic.Int64
	commandsTotal atomic.Int64
	droppedEvents atomic.Int64
	lastErrorCode atomic.Int32
	lastFrameAt   atomic.Int64
}

// New 创建网关
func New(conn *serialport.Conn, opts Options) *Gateway {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 64
	}
	g := &Gateway{
		conn:      conn,
		table:     dfplayer.NewTable(),
		limiter:   opts.Limiter,
		recorder:  opts.Recorder,
		publisher: opts.Publisher,
		appm:      opts.Metrics,
		logger:    logger,
		eventC:    make(chan events.PlayerEvent, opts.EventBuffer),
	}
	g.player = dfplayer.NewPlayer(conn,
		dfplayer.WithFeedback(opts.Feedback),
		dfplayer.WithLogger(logger.Named("player")),
		dfplayer.WithObserver(g),
	)
	if opts.LogResponses {
		g.player.SetDefaultResponseHandler()
	}
	g.registerRoutes()

	conn.SetOnRead(func(b []byte) {
		g.player.ProcessBytes(b)
		g.decoderPos.Store(int32(g.player.DecoderPos()))
	})
	if g.appm != nil {
		conn.SetByteHooks(
			func(n int) { g.appm.SerialBytesReceived.Add(float64(n)) },
			func(n int) { g.appm.SerialBytesSent.Add(float64(n)) },
		)
	}
	return g
}

// Player 返回底层 Player，便于直接调用具名操作
func (g *Gateway) Player() *dfplayer.Player { return g.player }

// Conn 返回串口连接
func (g *Gateway) Conn() *serialport.Conn { return g.conn }

// Recorder 返回最近事件记录器，可能为 nil
func (g *Gateway) Recorder() *events.Recorder { return g.recorder }

func (g *Gateway) registerRoutes() {
	g.table.Register(dfplayer.RspError, func(f dfplayer.Frame) error {
		g.lastErrorCode.Store(int32(f.Parameter))
		if g.appm != nil {
			g.appm.LastErrorCode.Set(float64(f.Parameter))
		}
		g.logger.Warn("dfplayer module error",
			zap.Uint16("code", f.Parameter),
			zap.String("desc", dfplayer.ErrorDescription(f.Parameter)))
		return nil
	})
	g.table.Register(dfplayer.RspOnline, func(f dfplayer.Frame) error {
		g.logger.Info("dfplayer module online", zap.String("desc", dfplayer.Describe(f)))
		return nil
	})
	g.table.SetFallback(func(dfplayer.Frame) error { return nil })
}

// Run 启动事件发布与串口读循环，阻塞直至 ctx 取消或串口结束
func (g *Gateway) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pubDone := make(chan struct{})
	go func() {
		defer close(pubDone)
		g.publishLoop(ctx)
	}()

	serveErr := make(chan error, 1)
	go func() { serveErr <- g.conn.Serve() }()

	var err error
	select {
	case <-ctx.Done():
		_ = g.conn.Close()
		err = <-serveErr
	case err = <-serveErr:
	}
	cancel()
	<-pubDone
	return err
}

func (g *Gateway) publishLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-g.eventC:
			g.publish(ctx, ev)
		}
	}
}

func (g *Gateway) publish(ctx context.Context, ev events.PlayerEvent) {
	if g.recorder != nil {
		_ = g.recorder.Publish(ctx, ev)
	}
	if g.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := g.publisher.Publish(pubCtx, ev); err != nil {
		g.logger.Warn("publish event failed",
			zap.String("event_id", ev.EventID),
			zap.String("event_type", string(ev.Type)),
			zap.Error(err))
	}
}

// Command 经限速与参数校验后发送命名操作
func (g *Gateway) Command(op string, args ...int) error {
	if g.limiter != nil && !g.limiter.Allow() {
		g.recordCommand(op, "rejected")
		return ErrRateLimited
	}
	return g.build(op, args...)
}

// CommandWait 与 Command 相同，但在限速时等待令牌
func (g *Gateway) CommandWait(ctx context.Context, op string, args ...int) error {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			g.recordCommand(op, "rejected")
			return fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
	}
	return g.build(op, args...)
}

func (g *Gateway) build(op string, args ...int) error {
	cmd, err := dfplayer.Build(op, args...)
	if err != nil {
		if errors.Is(err, dfplayer.ErrUnknownOperation) {
			op = "unknown"
		}
		g.recordCommand(op, "invalid")
		return err
	}
	return g.player.Send(cmd)
}

func (g *Gateway) recordCommand(op, result string) {
	if g.appm != nil {
		g.appm.CommandsTotal.WithLabelValues(op, result).Inc()
	}
}

// OnFrame 实现 dfplayer.Observer
func (g *Gateway) OnFrame(f dfplayer.Frame) {
	now := time.Now()
	g.framesTotal.Add(1)
	g.lastFrameAt.Store(now.UnixNano())
	if g.appm != nil {
		g.appm.FramesTotal.WithLabelValues(fmt.Sprintf("%02X", f.Command)).Inc()
	}
	if err := g.table.Route(f); err != nil {
		g.logger.Warn("route frame failed", zap.Uint8("cmd", f.Command), zap.Error(err))
	}

	ev := events.FromFrame(f, now)
	select {
	case g.eventC <- ev:
	default:
		g.droppedEvents.Add(1)
		if g.appm != nil {
			g.appm.EventsPublished.WithLabelValues("queue", "dropped").Inc()
		}
	}
}

// OnInvalid 实现 dfplayer.Observer
func (g *Gateway) OnInvalid(err error) {
	g.invalidTotal.Add(1)
	if g.appm == nil {
		return
	}
	reason := "framing"
	if errors.Is(err, dfplayer.ErrChecksum) {
		reason = "checksum"
	}
	g.appm.InvalidFramesTotal.WithLabelValues(reason).Inc()
}

// OnCommand 实现 dfplayer.Observer
func (g *Gateway) OnCommand(op string, err error) {
	g.commandsTotal.Add(1)
	result := "ok"
	if err != nil {
		result = "error"
	}
	g.recordCommand(op, result)
}

// Status 网关运行快照
type Status struct {
	Connected     bool                         `json:"connected"`
	DecoderPos    int                          `json:"decoder_pos"`
	BytesReceived int64                        `json:"bytes_received"`
	BytesSent     int64                        `json:"bytes_sent"`
	FramesTotal   int64                        `json:"frames_total"`
	InvalidTotal  int64                        `json:"invalid_total"`
	CommandsTotal int64                        `json:"commands_total"`
	DroppedEvents int64                        `json:"dropped_events"`
	LastErrorCode int                          `json:"last_error_code"`
	LastFrameAt   *time.Time                   `json:"last_frame_at,omitempty"`
	Breaker       *serialport.BreakerStats     `json:"breaker,omitempty"`
	Limiter       *serialport.RateLimiterStats `json:"limiter,omitempty"`
}

// Status 返回运行快照，可在任意 goroutine 调用
func (g *Gateway) Status() Status {
	st := Status{
		Connected:     !g.conn.Closed(),
		DecoderPos:    int(g.decoderPos.Load()),
		BytesReceived: g.conn.BytesReceived(),
		BytesSent:     g.conn.BytesSent(),
		FramesTotal:   g.framesTotal.Load(),
		InvalidTotal:  g.invalidTotal.Load(),
		CommandsTotal: g.commandsTotal.Load(),
		DroppedEvents: g.droppedEvents.Load(),
		LastErrorCode: int(g.lastErrorCode.Load()),
	}
	if ns := g.lastFrameAt.Load(); ns > 0 {
		t := time.Unix(0, ns)
		st.LastFrameAt = &t
	}
	if b := g.conn.Breaker(); b != nil {
		bs := b.Stats()
		st.Breaker = &bs
	}
	if g.limiter != nil {
		ls := g.limiter.Stats()
		st.Limiter = &ls
	}
	return st
}
