package bootstrap

import (
	"context"
	"errors"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/dfplayer/internal/api"
	"github.com/taoyao-code/dfplayer/internal/api/middleware"
	"github.com/taoyao-code/dfplayer/internal/app"
	cfgpkg "github.com/taoyao-code/dfplayer/internal/config"
	"github.com/taoyao-code/dfplayer/internal/events"
	"github.com/taoyao-code/dfplayer/internal/gateway"
	"github.com/taoyao-code/dfplayer/internal/health"
	"github.com/taoyao-code/dfplayer/internal/metrics"
	"github.com/taoyao-code/dfplayer/internal/script"
)

// Run 统一启动流程：串口 -> 事件下游 -> 网关 -> HTTP -> 启动脚本，收到信号后按逆序关闭
func Run(cfg *cfgpkg.Config, log *zap.Logger) error {
	log.Info("starting dfplayer gateway", zap.String("name", cfg.App.Name), zap.String("env", cfg.App.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ========== 阶段1: 基础组件 ==========
	reg, appm := app.NewMetrics()
	metricsHandler := metrics.Handler(reg)
	ready := health.New()

	// ========== 阶段2: 打开串口（失败直接返回）==========
	conn, err := app.OpenSerial(cfg, log)
	if err != nil {
		return err
	}
	ready.SetSerialReady(true)
	healthAgg := app.NewHealthAggregator(conn)

	// ========== 阶段3: 事件下游 ==========
	recorder := events.NewRecorder(cfg.Events.RecentSize)
	var sinks []events.Sink
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, log)
	if err != nil {
		// Redis 只承载事件下游，不可用时降级运行
		log.Warn("redis unavailable, events kept in memory only",
			zap.String("addr", cfg.Redis.Addr),
			zap.String("password", maskSecret(cfg.Redis.Password)),
			zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
		sinks = append(sinks, events.Sink{Name: "redis", Publisher: app.NewRedisPublisher(redisClient, cfg.Redis, log)})
		app.AddRedisChecker(healthAgg, redisClient)
	}
	var publisher events.Publisher
	if len(sinks) > 0 {
		publisher = app.NewEventFanout(appm, sinks...)
	}

	// ========== 阶段4: 网关（串口读循环）==========
	gw := gateway.New(conn, gateway.Options{
		Metrics:      appm,
		Recorder:     recorder,
		Publisher:    publisher,
		Limiter:      app.NewRateLimiter(cfg.Player),
		Logger:       log.Named("gateway"),
		Feedback:     cfg.Player.Feedback,
		LogResponses: cfg.Player.DefaultHandler,
	})
	gwDone := make(chan error, 1)
	go func() { gwDone <- gw.Run(ctx) }()
	log.Info("gateway started", zap.Bool("feedback", cfg.Player.Feedback))

	// ========== 阶段5: HTTP 服务 ==========
	httpSrv := app.NewHTTPServer(cfg, metricsHandler, ready.Ready, log)
	httpSrv.Register(func(r *gin.Engine) {
		authCfg := middleware.AuthConfig{
			APIKeys: cfg.API.APIKeys,
			Enabled: cfg.API.AuthEnabled,
		}
		api.RegisterPlayerRoutes(r, api.NewPlayerHandler(gw, recorder, log.Named("api")), authCfg, log)
		app.RegisterHealthRoutes(r, healthAgg)
	})
	go func() {
		if err := httpSrv.Start(); err != nil {
			log.Error("http server error", zap.Error(err))
		}
	}()
	log.Info("http server started", zap.String("addr", cfg.HTTP.Addr))

	// ========== 阶段6: 启动脚本 ==========
	if err := runStartupScript(ctx, cfg.Player.StartupScript, gw, log); err != nil {
		log.Error("startup script failed", zap.Error(err))
	}
	ready.SetStartupReady(true)
	log.Info("all services ready")

	// ========== 阶段7: 等待关闭信号或串口断开 ==========
	var runErr error
	select {
	case <-ctx.Done():
		log.Info("received shutdown signal, gracefully shutting down...")
	case runErr = <-gwDone:
		log.Error("serial gateway stopped", zap.Error(runErr))
		gwDone <- runErr
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	log.Info("http server stopped")

	_ = conn.Close()
	<-gwDone
	log.Info("shutdown complete")
	return runErr
}

func runStartupScript(ctx context.Context, path string, gw *gateway.Gateway, log *zap.Logger) error {
	if path == "" {
		return nil
	}
	s, err := script.Load(path)
	if err != nil {
		return err
	}
	log.Info("running startup script", zap.String("path", path), zap.Int("steps", len(s.Steps)))
	if err := s.Run(ctx, gw.Player(), log.Named("script")); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// maskSecret 脱敏口令（仅保留首字符）
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	return s[:1] + strings.Repeat("*", 4)
}
