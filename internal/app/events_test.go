package app

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/taoyao-code/dfplayer/internal/events"
	"github.com/taoyao-code/dfplayer/internal/metrics"
)

type failingSink struct{}

func (failingSink) Publish(context.Context, events.PlayerEvent) error { return errors.New("down") }

func TestNewEventFanout(t *testing.T) {
	appm := metrics.NewAppMetrics(prometheus.NewRegistry())
	rec := events.NewRecorder(4)
	f := NewEventFanout(appm,
		events.Sink{Name: "memory", Publisher: rec},
		events.Sink{Name: "redis", Publisher: failingSink{}},
	)

	assert.Error(t, f.Publish(context.Background(), events.PlayerEvent{Type: events.TypeModuleAck}))
	assert.Equal(t, float64(1), testutil.ToFloat64(appm.EventsPublished.WithLabelValues("memory", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(appm.EventsPublished.WithLabelValues("redis", "error")))
}
