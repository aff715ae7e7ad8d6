package events

import (
	"context"
	"sync"
)

// Recorder 固定容量的最近事件环形缓冲，供 API 查询
type Recorder struct {
	mu    sync.RWMutex
	buf   []PlayerEvent
	next  int
	full  bool
	total int64
}

// NewRecorder 创建容量为 size 的记录器
func NewRecorder(size int) *Recorder {
	if size <= 0 {
		size = 256
	}
	return &Recorder{buf: make([]PlayerEvent, size)}
}

// Publish 实现 Publisher，写入不会失败
func (r *Recorder) Publish(_ context.Context, ev PlayerEvent) error {
	r.mu.Lock()
	r.buf[r.next] = ev
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
	r.total++
	r.mu.Unlock()
	return nil
}

// Recent 按时间倒序返回最多 limit 条事件；limit<=0 返回全部
func (r *Recorder) Recent(limit int) []PlayerEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := r.next
	if r.full {
		n = len(r.buf)
	}
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]PlayerEvent, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (r.next - 1 - i + len(r.buf)) % len(r.buf)
		out = append(out, r.buf[idx])
	}
	return out
}

// Total 累计记录的事件数
func (r *Recorder) Total() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.total
}
