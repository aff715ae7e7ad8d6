package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry 创建自定义 Prometheus Registry，并注册常用采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// AppMetrics 播放器网关业务指标
type AppMetrics struct {
	SerialBytesReceived prometheus.Counter
	SerialBytesSent     prometheus.Counter
	FramesTotal         *prometheus.CounterVec // labels: cmd
	InvalidFramesTotal  *prometheus.CounterVec // labels: reason=framing|checksum
	CommandsTotal       *prometheus.CounterVec // labels: op, result=ok|error|rejected
	LastErrorCode       prometheus.Gauge       // 最近一次 0x40 错误码
	EventsPublished     *prometheus.CounterVec // labels: sink, result
}

// NewAppMetrics 注册并返回业务指标
func NewAppMetrics(reg prometheus.Registerer) *AppMetrics {
	m := &AppMetrics{
		SerialBytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "serial_bytes_received_total",
			Help: "Total bytes received from the serial port.",
		}),
		SerialBytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "serial_bytes_sent_total",
			Help: "Total bytes written to the serial port.",
		}),
		FramesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dfplayer_frames_total",
			Help: "Trustworthy frames decoded by response command.",
		}, []string{"cmd"}),
		InvalidFramesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dfplayer_invalid_frames_total",
			Help: "Candidate frames discarded by the decoder.",
		}, []string{"reason"}),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dfplayer_commands_total",
			Help: "Commands issued to the module.",
		}, []string{"op", "result"}),
		LastErrorCode: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dfplayer_last_error_code",
			Help: "Parameter of the most recent error response (0x40).",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dfplayer_events_published_total",
			Help: "Decoded events handed to publishers.",
		}, []string{"sink", "result"}),
	}
	reg.MustRegister(m.SerialBytesReceived, m.SerialBytesSent, m.FramesTotal, m.InvalidFramesTotal,
		m.CommandsTotal, m.LastErrorCode, m.EventsPublished)
	return m
}
