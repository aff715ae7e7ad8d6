package health

import "sync/atomic"

// Readiness 启动阶段就绪标记：串口已打开且启动脚本已执行完
type Readiness struct {
	serialReady  atomic.Bool
	startupReady atomic.Bool
}

func New() *Readiness { return &Readiness{} }

func (r *Readiness) SetSerialReady(v bool)  { r.serialReady.Store(v) }
func (r *Readiness) SetStartupReady(v bool) { r.startupReady.Store(v) }

// Ready 总体就绪：各阶段均为 true
func (r *Readiness) Ready() bool {
	return r.serialReady.Load() && r.startupReady.Load()
}
