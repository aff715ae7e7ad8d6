package dfplayer

import "fmt"

// 帧布局（固定 10 字节）：
// start[1]=0x7E | version[1]=0xFF | len[1]=0x06 | cmd[1] | feedback[1] | paramBE[2] | sumBE[2] | end[1]=0xEF
const (
	StartByte   byte = 0x7E
	VersionByte byte = 0xFF
	LengthByte  byte = 0x06
	EndByte     byte = 0xEF

	// FrameLength 一帧的固定字节数，整个状态机依赖该长度
	FrameLength = 10
)

// 帧内各字段偏移
const (
	offStart    = 0
	offVersion  = 1
	offLength   = 2
	offCommand  = 3
	offFeedback = 4
	offParamHi  = 5
	offParamLo  = 6
	offSumHi    = 7
	offSumLo    = 8
	offEnd      = 9
)

// Frame 已通过校验的可信帧
type Frame struct {
	Version   byte
	Length    byte
	Command   byte
	Feedback  byte
	Parameter uint16
}

// FeedbackRequested 是否要求模块回执
func (f Frame) FeedbackRequested() bool { return f.Feedback == 1 }

// Bytes 将帧重新编码为线上字节
func (f Frame) Bytes() [FrameLength]byte {
	return Encode(f.Command, f.Feedback == 1, f.Parameter)
}

func (f Frame) String() string {
	return fmt.Sprintf("cmd=0x%02X feedback=%d param=%d", f.Command, f.Feedback, f.Parameter)
}
