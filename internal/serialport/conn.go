package serialport

import (
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	ErrConnClosed   = errors.New("serial connection closed")
	ErrWriteTimeout = errors.New("serial write queue timeout")
)

// Options Conn 运行参数
type Options struct {
	// WriteTimeout 排队加写入的最长等待时间；端口支持时也作为写截止时间
	WriteTimeout time.Duration
	// WriteQueue 写队列长度
	WriteQueue int
	// Breaker 为 nil 时不做熔断
	Breaker *CircuitBreaker
	Logger  *zap.Logger
}

// 写请求状态：排队中的请求可被调用方放弃，写循环取出后只发送未放弃的请求
const (
	reqQueued int32 = iota
	reqWriting
	reqAbandoned
)

type writeReq struct {
	b     []byte
	errC  chan error
	state *atomic.Int32
}

// deadlineWriter 由支持写截止时间的端口实现（如 net.Conn）
type deadlineWriter interface {
	SetWriteDeadline(t time.Time) error
}

// Conn 串口连接：单一读循环驱动上行解码，写入经队列串行化到端口。
// Write 同步等待实际写出结果，因此可直接作为 Player 的 io.Writer。
type Conn struct {
	rw     io.ReadWriteCloser
	opts   Options
	logger *zap.Logger

	writeC chan writeReq
	closeC chan struct{}
	doneC  chan struct{}
	closed atomic.Bool
	once   sync.Once

	onRead      func([]byte)
	onRecvBytes func(int)
	onSentBytes func(int)

	bytesRecv atomic.Int64
	bytesSent atomic.Int64
}

// NewConn 包装任意字节流（真实串口或测试用 net.Pipe）
func NewConn(rw io.ReadWriteCloser, opts Options) *Conn {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = time.Second
	}
	if opts.WriteQueue <= 0 {
		opts.WriteQueue = 32
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Conn{
		rw:     rw,
		opts:   opts,
		logger: logger,
		writeC: make(chan writeReq, opts.WriteQueue),
		closeC: make(chan struct{}),
		doneC:  make(chan struct{}),
	}
	go c.writeLoop()
	return c
}

// SetOnRead 安装读取回调，须在 Serve 之前调用
func (c *Conn) SetOnRead(h func([]byte)) { c.onRead = h }

// SetByteHooks 安装收发字节计数回调（通常接 metrics），须在 Serve 之前调用
func (c *Conn) SetByteHooks(onRecv, onSent func(int)) {
	c.onRecvBytes = onRecv
	c.onSentBytes = onSent
}

// Breaker 返回写熔断器，可能为 nil
func (c *Conn) Breaker() *CircuitBreaker { return c.opts.Breaker }

// BytesReceived 累计接收字节数
func (c *Conn) BytesReceived() int64 { return c.bytesRecv.Load() }

// BytesSent 累计发送字节数
func (c *Conn) BytesSent() int64 { return c.bytesSent.Load() }

// Closed 连接是否已关闭
func (c *Conn) Closed() bool { return c.closed.Load() }

// Write 复制 b 后入队，等待写循环写出。
// 超时或关闭前仍在排队的请求被放弃且不会再写出；已开始写出的请求等待端口返回真实结果。
func (c *Conn) Write(b []byte) (int, error) {
	if c.closed.Load() {
		return 0, ErrConnClosed
	}
	req := writeReq{
		b:     append([]byte(nil), b...),
		errC:  make(chan error, 1),
		state: new(atomic.Int32),
	}
	timer := time.NewTimer(c.opts.WriteTimeout)
	defer timer.Stop()

	select {
	case c.writeC <- req:
	case <-c.closeC:
		return 0, ErrConnClosed
	case <-timer.C:
		return 0, ErrWriteTimeout
	}

	var abandonErr error
	select {
	case err := <-req.errC:
		return writeResult(len(b), err)
	case <-c.closeC:
		abandonErr = ErrConnClosed
	case <-timer.C:
		abandonErr = ErrWriteTimeout
	}
	if req.state.CompareAndSwap(reqQueued, reqAbandoned) {
		return 0, abandonErr
	}
	// 已在写出：端口写截止时间或 Close 会让它返回
	return writeResult(len(b), <-req.errC)
}

func writeResult(n int, err error) (int, error) {
	if err == nil {
		return n, nil
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return 0, ErrWriteTimeout
	}
	return 0, err
}

func (c *Conn) writeLoop() {
	for {
		select {
		case <-c.closeC:
			return
		case req := <-c.writeC:
			if !req.state.CompareAndSwap(reqQueued, reqWriting) {
				c.logger.Debug("serial write dropped", zap.Int("len", len(req.b)))
				continue
			}
			req.errC <- c.writeOne(req.b)
		}
	}
}

func (c *Conn) writeOne(b []byte) error {
	write := func() error {
		if dw, ok := c.rw.(deadlineWriter); ok {
			_ = dw.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
		}
		n, err := c.rw.Write(b)
		if n > 0 {
			c.bytesSent.Add(int64(n))
			if c.onSentBytes != nil {
				c.onSentBytes(n)
			}
		}
		if err == nil && n < len(b) {
			err = io.ErrShortWrite
		}
		return err
	}
	if c.opts.Breaker == nil {
		return write()
	}
	return c.opts.Breaker.Call(write)
}

// Serve 阻塞读循环，直至端口出错或 Close
func (c *Conn) Serve() error {
	defer c.Close()
	buf := make([]byte, 256)
	for {
		n, err := c.rw.Read(buf)
		if n > 0 {
			c.bytesRecv.Add(int64(n))
			if c.onRecvBytes != nil {
				c.onRecvBytes(n)
			}
			if c.onRead != nil {
				c.onRead(buf[:n])
			}
		}
		if err != nil {
			if c.closed.Load() || errors.Is(err, io.EOF) {
				return nil
			}
			c.logger.Warn("serial read failed", zap.Error(err))
			return err
		}
		// go.bug.st/serial 读超时返回 n=0, err=nil
	}
}

// Close 关闭端口并广播结束
func (c *Conn) Close() error {
	var err error
	c.once.Do(func() {
		c.closed.Store(true)
		close(c.closeC)
		err = c.rw.Close()
		close(c.doneC)
	})
	return err
}

// Done 返回连接关闭通知通道
func (c *Conn) Done() <-chan struct{} { return c.doneC }
