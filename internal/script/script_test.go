package script

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/dfplayer/internal/protocol/dfplayer"
)

const sample = `
steps:
  - op: specify-device
    args: [2]
    delay: 200ms
  - op: specify-volume
    args: [20]
  - op: specify-eq
    args: [5]
  - op: play
`

type call struct {
	op   string
	args []int
}

type recordingExecutor struct {
	calls []call
	err   error
}

func (r *recordingExecutor) Execute(op string, args ...int) error {
	r.calls = append(r.calls, call{op: op, args: args})
	return r.err
}

func TestParse(t *testing.T) {
	t.Run("解析步骤", func(t *testing.T) {
		s, err := Parse([]byte(sample))
		require.NoError(t, err)
		require.Len(t, s.Steps, 4)
		assert.Equal(t, Step{Op: "specify-device", Args: []int{2}, Delay: 200 * time.Millisecond}, s.Steps[0])
		assert.Equal(t, "play", s.Steps[3].Op)
		assert.Empty(t, s.Steps[3].Args)
	})

	t.Run("未知操作", func(t *testing.T) {
		_, err := Parse([]byte("steps:\n  - op: rewind\n"))
		assert.ErrorIs(t, err, dfplayer.ErrUnknownOperation)
	})

	t.Run("参数越界", func(t *testing.T) {
		_, err := Parse([]byte("steps:\n  - op: specify-volume\n    args: [31]\n"))
		var rangeErr *dfplayer.ArgumentRangeError
		assert.True(t, errors.As(err, &rangeErr))
	})

	t.Run("YAML 格式错误", func(t *testing.T) {
		_, err := Parse([]byte("steps: [\n"))
		assert.Error(t, err)
	})
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "startup.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))
	s, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, s.Steps, 4)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	t.Run("按顺序执行", func(t *testing.T) {
		s := &Script{Steps: []Step{
			{Op: dfplayer.OpSpecifyDevice, Args: []int{2}, Delay: time.Millisecond},
			{Op: dfplayer.OpSpecifyVolume, Args: []int{15}},
			{Op: dfplayer.OpPlay},
		}}
		exec := &recordingExecutor{}
		require.NoError(t, s.Run(context.Background(), exec, nil))
		require.Len(t, exec.calls, 3)
		assert.Equal(t, call{op: dfplayer.OpSpecifyVolume, args: []int{15}}, exec.calls[1])
	})

	t.Run("失败即停止", func(t *testing.T) {
		s := &Script{Steps: []Step{{Op: dfplayer.OpPlay}, {Op: dfplayer.OpPause}}}
		exec := &recordingExecutor{err: errors.New("port closed")}
		err := s.Run(context.Background(), exec, nil)
		assert.ErrorContains(t, err, "step 1 (play)")
		assert.Len(t, exec.calls, 1)
	})

	t.Run("取消中断等待", func(t *testing.T) {
		s := &Script{Steps: []Step{{Op: dfplayer.OpPlay, Delay: time.Hour}, {Op: dfplayer.OpPause}}}
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		exec := &recordingExecutor{}
		assert.ErrorIs(t, s.Run(ctx, exec, nil), context.DeadlineExceeded)
		assert.Len(t, exec.calls, 1)
	})

	t.Run("经 Player 写出帧", func(t *testing.T) {
		var buf bytes.Buffer
		p := dfplayer.NewPlayer(&buf, dfplayer.WithFeedback(false))
		s := &Script{Steps: []Step{{Op: dfplayer.OpSpecifyEQ, Args: []int{int(dfplayer.EQBass)}}}}
		require.NoError(t, s.Run(context.Background(), p, nil))
		want := dfplayer.Encode(dfplayer.CmdSpecifyEQ, false, uint16(dfplayer.EQBass))
		assert.Equal(t, want[:], buf.Bytes())
	})
}
