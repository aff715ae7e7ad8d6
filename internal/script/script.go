// Package script 运行启动脚本：串口打开后按顺序下发一组命令（选择存储设备、音量、EQ 等）。
package script

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/taoyao-code/dfplayer/internal/protocol/dfplayer"
)

// Step 单个脚本步骤；Delay 为该步骤发送后的等待时间
type Step struct {
	Op    string        `yaml:"op"`
	Args  []int         `yaml:"args,omitempty"`
	Delay time.Duration `yaml:"delay,omitempty"`
}

// Script 命令脚本
type Script struct {
	Steps []Step `yaml:"steps"`
}

// Executor 执行命名操作（*dfplayer.Player 满足该接口）
type Executor interface {
	Execute(op string, args ...int) error
}

// Parse 解析 YAML 并校验每一步的操作名与参数
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load 读取并解析脚本文件
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return Parse(data)
}

// Validate 在发送前一次性检查全部步骤
func (s *Script) Validate() error {
	for i, st := range s.Steps {
		if _, err := dfplayer.Build(st.Op, st.Args...); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, st.Op, err)
		}
		if st.Delay < 0 {
			return fmt.Errorf("step %d (%s): negative delay %s", i+1, st.Op, st.Delay)
		}
	}
	return nil
}

// Run 顺序执行步骤；任一步失败或 ctx 取消即停止
func (s *Script) Run(ctx context.Context, exec Executor, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	for i, st := range s.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := exec.Execute(st.Op, st.Args...); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, st.Op, err)
		}
		logger.Info("script step sent",
			zap.Int("step", i+1),
			zap.String("op", st.Op),
			zap.Ints("args", st.Args))
		if st.Delay > 0 {
			if err := sleep(ctx, st.Delay); err != nil {
				return err
			}
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
