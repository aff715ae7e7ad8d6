package events

import (
	"context"
	"errors"
)

// Publisher 事件下游
type Publisher interface {
	Publish(ctx context.Context, ev PlayerEvent) error
}

// Sink 带名称的下游，名称用于指标与日志
type Sink struct {
	Name      string
	Publisher Publisher
}

// Fanout 依次投递到所有下游，单个下游失败不影响其他下游
type Fanout struct {
	sinks  []Sink
	result func(sink string, err error)
}

// NewFanout 创建扇出发布器；result 可为 nil
func NewFanout(result func(sink string, err error), sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks, result: result}
}

// Publish 投递事件，返回所有下游错误的合并
func (f *Fanout) Publish(ctx context.Context, ev PlayerEvent) error {
	var errs []error
	for _, s := range f.sinks {
		err := s.Publisher.Publish(ctx, ev)
		if f.result != nil {
			f.result(s.Name, err)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len 下游数量
func (f *Fanout) Len() int { return len(f.sinks) }
