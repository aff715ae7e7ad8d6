package app

import (
	"github.com/taoyao-code/dfplayer/internal/events"
	"github.com/taoyao-code/dfplayer/internal/metrics"
)

// NewEventFanout 汇集事件下游，并按下游与结果计数
func NewEventFanout(appm *metrics.AppMetrics, sinks ...events.Sink) *events.Fanout {
	return events.NewFanout(func(sink string, err error) {
		if appm == nil {
			return
		}
		result := "ok"
		if err != nil {
			result = "error"
		}
		appm.EventsPublished.WithLabelValues(sink, result).Inc()
	}, sinks...)
}
