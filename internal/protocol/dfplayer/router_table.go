package dfplayer

import "sync"

// Handler 上行帧处理器
type Handler func(f Frame) error

// Table 路由表（上行 cmd -> handler）
type Table struct {
	mu       sync.RWMutex
	handlers map[byte]Handler
	fallback Handler
}

func NewTable() *Table { return &Table{handlers: make(map[byte]Handler)} }

func (t *Table) Register(cmd byte, h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[cmd] = h
}

// SetFallback 未注册命令的兜底处理器
func (t *Table) SetFallback(h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fallback = h
}

func (t *Table) Route(f Frame) error {
	t.mu.RLock()
	h, ok := t.handlers[f.Command]
	if !ok {
		h = t.fallback
	}
	t.mu.RUnlock()
	if h == nil {
		return nil
	}
	return h(f)
}
