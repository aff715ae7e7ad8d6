package serialport

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPipeConn(t *testing.T, opts Options) (*Conn, net.Conn) {
	t.Helper()
	local, peer := net.Pipe()
	c := NewConn(local, opts)
	t.Cleanup(func() {
		_ = c.Close()
		_ = peer.Close()
	})
	return c, peer
}

func TestConnWrite(t *testing.T) {
	t.Run("写入到达对端", func(t *testing.T) {
		c, peer := newPipeConn(t, Options{WriteTimeout: time.Second})

		var sent int
		c.SetByteHooks(nil, func(n int) { sent += n })

		got := make(chan []byte, 1)
		go func() {
			buf := make([]byte, 10)
			_, _ = io.ReadFull(peer, buf)
			got <- buf
		}()

		frame := []byte{0x7E, 0xFF, 0x06, 0x01, 0x00, 0x00, 0x00, 0xFE, 0xFA, 0xEF}
		n, err := c.Write(frame)
		require.NoError(t, err)
		assert.Equal(t, len(frame), n)
		assert.Equal(t, frame, <-got)
		assert.Equal(t, int64(10), c.BytesSent())
		assert.Equal(t, 10, sent)
	})

	t.Run("对端不读时写超时", func(t *testing.T) {
		c, _ := newPipeConn(t, Options{WriteTimeout: 50 * time.Millisecond})
		_, err := c.Write([]byte{0x01})
		assert.ErrorIs(t, err, ErrWriteTimeout)
	})

	t.Run("写超时后帧不再到达对端", func(t *testing.T) {
		breaker := NewCircuitBreaker(5, time.Minute)
		c, peer := newPipeConn(t, Options{WriteTimeout: 50 * time.Millisecond, Breaker: breaker})

		_, err := c.Write([]byte{0x7E, 0x01})
		require.ErrorIs(t, err, ErrWriteTimeout)
		assert.Equal(t, int64(0), c.BytesSent())
		assert.Equal(t, 1, breaker.Stats().Failures)

		require.NoError(t, peer.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
		buf := make([]byte, 2)
		n, err := peer.Read(buf)
		assert.Equal(t, 0, n)
		assert.ErrorIs(t, err, os.ErrDeadlineExceeded)
	})

	t.Run("排队中超时的请求被丢弃", func(t *testing.T) {
		p := newGatePort()
		c := NewConn(p, Options{WriteTimeout: 50 * time.Millisecond})
		defer c.Close()

		first := make(chan error, 1)
		go func() {
			_, err := c.Write([]byte{0x01})
			first <- err
		}()
		<-p.entered

		// 写循环阻塞在第一帧上，第二帧只能排队直至超时
		_, err := c.Write([]byte{0x02})
		require.ErrorIs(t, err, ErrWriteTimeout)

		close(p.release)
		require.NoError(t, <-first)

		_, err = c.Write([]byte{0x03})
		require.NoError(t, err)
		assert.Equal(t, []byte{0x01, 0x03}, p.written())
		assert.Equal(t, int64(2), c.BytesSent())
	})

	t.Run("关闭后写入失败", func(t *testing.T) {
		c, _ := newPipeConn(t, Options{})
		require.NoError(t, c.Close())
		_, err := c.Write([]byte{0x01})
		assert.ErrorIs(t, err, ErrConnClosed)
		assert.True(t, c.Closed())
	})

	t.Run("熔断后快速失败", func(t *testing.T) {
		breaker := NewCircuitBreaker(1, time.Minute)
		c := NewConn(&brokenPort{}, Options{Breaker: breaker})
		defer c.Close()

		_, err := c.Write([]byte{0x01})
		assert.ErrorIs(t, err, errBroken)
		_, err = c.Write([]byte{0x01})
		assert.ErrorIs(t, err, ErrCircuitOpen)
		assert.Equal(t, StateOpen, c.Breaker().State())
	})
}

func TestConnServe(t *testing.T) {
	t.Run("读回调收到上行字节", func(t *testing.T) {
		c, peer := newPipeConn(t, Options{})

		var mu sync.Mutex
		var got []byte
		c.SetOnRead(func(b []byte) {
			mu.Lock()
			got = append(got, b...)
			mu.Unlock()
		})

		served := make(chan error, 1)
		go func() { served <- c.Serve() }()

		_, err := peer.Write([]byte{0x7E, 0xFF, 0x06})
		require.NoError(t, err)
		_, err = peer.Write([]byte{0x3F, 0x00})
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return len(got) == 5
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, int64(5), c.BytesReceived())

		require.NoError(t, c.Close())
		select {
		case err := <-served:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("Serve 未退出")
		}
		<-c.Done()
	})

	t.Run("对端关闭时正常退出", func(t *testing.T) {
		c, peer := newPipeConn(t, Options{})
		served := make(chan error, 1)
		go func() { served <- c.Serve() }()

		require.NoError(t, peer.Close())
		select {
		case err := <-served:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("Serve 未退出")
		}
		assert.True(t, c.Closed())
	})

	t.Run("读超时不中断循环", func(t *testing.T) {
		p := &timeoutPort{reads: make(chan []byte, 2)}
		c := NewConn(p, Options{})
		got := make(chan []byte, 1)
		c.SetOnRead(func(b []byte) { got <- append([]byte(nil), b...) })
		go func() { _ = c.Serve() }()
		defer c.Close()

		p.reads <- []byte{0xEF}
		select {
		case b := <-got:
			assert.Equal(t, []byte{0xEF}, b)
		case <-time.After(time.Second):
			t.Fatal("未收到数据")
		}
	})
}

func TestRateLimiterWait(t *testing.T) {
	l := NewRateLimiter(1, 1)
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx))
	assert.Equal(t, int64(1), l.Stats().RejectedTotal)
}

var errBroken = errors.New("port broken")

type brokenPort struct{}

func (brokenPort) Read(p []byte) (int, error)  { select {} }
func (brokenPort) Write(p []byte) (int, error) { return 0, errBroken }
func (brokenPort) Close() error                { return nil }

// timeoutPort 模拟 go.bug.st/serial 的读超时：无数据时返回 0, nil
type timeoutPort struct {
	reads  chan []byte
	closed atomic.Bool
}

func (p *timeoutPort) Read(b []byte) (int, error) {
	select {
	case data := <-p.reads:
		return copy(b, data), nil
	case <-time.After(5 * time.Millisecond):
		if p.closed.Load() {
			return 0, io.EOF
		}
		return 0, nil
	}
}

func (p *timeoutPort) Write(b []byte) (int, error) { return len(b), nil }

func (p *timeoutPort) Close() error {
	p.closed.Store(true)
	return nil
}

// gatePort 第一次写入阻塞直至 release 关闭
type gatePort struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once

	mu  sync.Mutex
	buf []byte
}

func newGatePort() *gatePort {
	return &gatePort{entered: make(chan struct{}), release: make(chan struct{})}
}

func (p *gatePort) Read(b []byte) (int, error) { select {} }

func (p *gatePort) Write(b []byte) (int, error) {
	p.once.Do(func() { close(p.entered) })
	<-p.release
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buf = append(p.buf, b...)
	return len(b), nil
}

func (p *gatePort) Close() error { return nil }

func (p *gatePort) written() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.buf...)
}
