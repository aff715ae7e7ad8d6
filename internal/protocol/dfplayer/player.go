package dfplayer

import (
	"io"

	"go.uber.org/zap"
)

// ResponseHandler 可信帧回调，按帧的五个字段展开；不得阻塞
type ResponseHandler func(version, length, command, feedback byte, parameter uint16)

// Observer 可选观测钩子（指标、审计），在解码/发送路径上同步调用
type Observer interface {
	OnFrame(f Frame)
	OnInvalid(err error)
	OnCommand(op string, err error)
}

// Player 分发适配器：持有解码状态与回调，并负责把命令帧写往传输层。
// 解码器不做内部同步：ProcessBytes 只能由单一读循环调用，
// 回调的替换应在读循环启动前或在读循环内完成。
type Player struct {
	w        io.Writer
	dec      Decoder
	handler  ResponseHandler
	observer Observer
	feedback bool
	logger   *zap.Logger
}

// Option Player 可选项
type Option func(*Player)

// WithFeedback 设置下行帧的回执标志（默认 true）
func WithFeedback(on bool) Option { return func(p *Player) { p.feedback = on } }

// WithLogger 设置日志器
func WithLogger(l *zap.Logger) Option {
	return func(p *Player) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithObserver 设置观测钩子
func WithObserver(o Observer) Option { return func(p *Player) { p.observer = o } }

// NewPlayer 基于传输层写端创建 Player
func NewPlayer(w io.Writer, opts ...Option) *Player {
	p := &Player{w: w, feedback: true, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetResponseHandler 安装响应回调
func (p *Player) SetResponseHandler(h ResponseHandler) { p.handler = h }

// RemoveResponseHandler 移除响应回调；之后帧仍被解析，只是不再上报
func (p *Player) RemoveResponseHandler() { p.handler = nil }

// SetDefaultResponseHandler 安装默认回调：将帧描述写入日志
func (p *Player) SetDefaultResponseHandler() {
	log := p.logger
	p.handler = func(version, length, command, feedback byte, parameter uint16) {
		f := Frame{Version: version, Length: length, Command: command, Feedback: feedback, Parameter: parameter}
		log.Info(Describe(f),
			zap.Uint8("cmd", command),
			zap.Uint16("param", parameter))
	}
}

// DecoderPos 当前解码位置
func (p *Player) DecoderPos() int { return p.dec.Pos() }

// PushByte 推进单个上行字节
func (p *Player) PushByte(b byte) Result {
	r := p.dec.PushByte(b)
	switch r.Kind {
	case FrameReady:
		if p.observer != nil {
			p.observer.OnFrame(r.Frame)
		}
		if h := p.handler; h != nil {
			f := r.Frame
			h(f.Version, f.Length, f.Command, f.Feedback, f.Parameter)
		}
	case Invalid:
		p.logger.Debug("dfplayer frame dropped", zap.Error(r.Err))
		if p.observer != nil {
			p.observer.OnInvalid(r.Err)
		}
	}
	return r
}

// ProcessBytes 按接收顺序处理一段上行字节
func (p *Player) ProcessBytes(b []byte) {
	for _, c := range b {
		p.PushByte(c)
	}
}

// Send 编码并立即发送一条命令（单帧在途，无排队合并）
func (p *Player) Send(cmd Command) error {
	frame := cmd.Frame(p.feedback)
	_, err := p.w.Write(frame[:])
	if err != nil {
		p.logger.Warn("dfplayer command write failed",
			zap.String("op", cmd.Op),
			zap.Uint8("cmd", cmd.Code),
			zap.Error(err))
	} else {
		p.logger.Debug("dfplayer command sent",
			zap.String("op", cmd.Op),
			zap.Uint8("cmd", cmd.Code),
			zap.Uint16("param", cmd.Parameter))
	}
	if p.observer != nil {
		p.observer.OnCommand(cmd.Op, err)
	}
	return err
}

// Execute 按名称校验参数后发送
func (p *Player) Execute(name string, args ...int) error {
	cmd, err := Build(name, args...)
	if err != nil {
		return err
	}
	return p.Send(cmd)
}

// send 按目录打包但不校验范围（范围属于调用约定）
func (p *Player) send(name string, args ...int) error {
	op, _ := Lookup(name)
	return p.Send(Command{Op: op.Name, Code: op.Code, Parameter: op.Parameter(args)})
}

// PlayNext 播放下一首
func (p *Player) PlayNext() error { return p.send(OpPlayNext) }

// PlayPrev 播放上一首
func (p *Player) PlayPrev() error { return p.send(OpPlayPrev) }

// SpecifyTrack 播放根目录指定曲目（1~3000）
func (p *Player) SpecifyTrack(num uint16) error { return p.send(OpSpecifyTrack, int(num)) }

// IncreaseVolume 音量 +1
func (p *Player) IncreaseVolume() error { return p.send(OpVolumeUp) }

// DecreaseVolume 音量 -1
func (p *Player) DecreaseVolume() error { return p.send(OpVolumeDown) }

// SpecifyVolume 设置音量（0~30）
func (p *Player) SpecifyVolume(vol uint16) error { return p.send(OpSpecifyVolume, int(vol)) }

// SpecifyEQ 设置均衡器
func (p *Player) SpecifyEQ(eq EQ) error { return p.send(OpSpecifyEQ, int(eq)) }

// SpecifySingleRepeat 单曲循环指定曲目
func (p *Player) SpecifySingleRepeat(num uint16) error { return p.send(OpSingleRepeat, int(num)) }

// SpecifyDevice 选择播放设备
func (p *Player) SpecifyDevice(d Device) error { return p.send(OpSpecifyDevice, int(d)) }

// Sleep 进入休眠
func (p *Player) Sleep() error { return p.send(OpSleep) }

// Reset 模块复位
func (p *Player) Reset() error { return p.send(OpReset) }

// Play 播放
func (p *Player) Play() error { return p.send(OpPlay) }

// Pause 暂停
func (p *Player) Pause() error { return p.send(OpPause) }

// SpecifyTrackInFolder 播放指定文件夹（1~99）中的曲目（1~255）
func (p *Player) SpecifyTrackInFolder(folder, num uint8) error {
	return p.send(OpFolderTrack, int(folder), int(num))
}

// SetAudioAmp 功放开关与增益（0~31）
func (p *Player) SetAudioAmp(on bool, gain uint8) error {
	return p.send(OpAudioAmp, int(boolByte(on)), int(gain))
}

// SetAudioAmpEnabled 仅切换功放，增益为 0
func (p *Player) SetAudioAmpEnabled(on bool) error { return p.SetAudioAmp(on, 0) }

// SetAllRepeatPlayback 根目录全部循环
func (p *Player) SetAllRepeatPlayback(on bool) error {
	return p.send(OpAllRepeat, int(boolByte(on)))
}

// SpecifyTrackInMP3 播放 MP3 目录中的曲目
func (p *Player) SpecifyTrackInMP3(num uint16) error { return p.send(OpMP3Track, int(num)) }

// InsertAd 插播 ADVERT 目录曲目，结束后恢复原曲目
func (p *Player) InsertAd(num uint16) error { return p.send(OpInsertAdvert, int(num)) }

// SpecifyTrackInBigFolder 播放大文件夹（1~15）中的曲目（1~3000）
func (p *Player) SpecifyTrackInBigFolder(folder uint8, num uint16) error {
	return p.send(OpBigFolderTrack, int(folder), int(num))
}

// StopAd 停止插播并恢复原曲目
func (p *Player) StopAd() error { return p.send(OpStopAdvert) }

// Stop 停止播放与解码
func (p *Player) Stop() error { return p.send(OpStop) }

// RepeatSpecificFolder 循环播放指定文件夹
func (p *Player) RepeatSpecificFolder(folder uint8) error {
	return p.send(OpFolderRepeat, int(folder))
}

// SetRandom 按物理顺序随机播放
func (p *Player) SetRandom() error { return p.send(OpRandomPlay) }

// RepeatCurrent 当前曲目循环开关
func (p *Player) RepeatCurrent(on bool) error {
	return p.send(OpRepeatCurrent, int(boolByte(on)))
}

// SetDAC DAC 开关
func (p *Player) SetDAC(on bool) error { return p.send(OpDAC, int(boolByte(on))) }
