package dfplayer

import (
	"errors"
	"fmt"
	"slices"
)

// 下行命令码（与硬件逐位兼容，不可更改）
const (
	CmdPlayNext       byte = 0x01
	CmdPlayPrev       byte = 0x02
	CmdSpecifyTrack   byte = 0x03
	CmdVolumeUp       byte = 0x04
	CmdVolumeDown     byte = 0x05
	CmdSpecifyVolume  byte = 0x06
	CmdSpecifyEQ      byte = 0x07
	CmdSingleRepeat   byte = 0x08
	CmdSpecifyDevice  byte = 0x09
	CmdSleep          byte = 0x0A
	CmdReset          byte = 0x0C
	CmdPlay           byte = 0x0D
	CmdPause          byte = 0x0E
	CmdFolderTrack    byte = 0x0F
	CmdAudioAmp       byte = 0x10
	CmdAllRepeat      byte = 0x11
	CmdMP3Track       byte = 0x12
	CmdInsertAdvert   byte = 0x13
	CmdBigFolderTrack byte = 0x14
	CmdStopAdvert     byte = 0x15
	CmdStop           byte = 0x16
	CmdFolderRepeat   byte = 0x17
	CmdRandomPlay     byte = 0x18
	CmdRepeatCurrent  byte = 0x19
	CmdDAC            byte = 0x1A
)

// EQ 均衡器预设
type EQ byte

const (
	EQNormal EQ = iota
	EQPop
	EQRock
	EQJazz
	EQClassic
	EQBass
)

// Device 播放设备
type Device byte

const (
	DeviceUSB Device = 1
	DeviceSD  Device = 2
)

// 参数取值范围（调用约定，Player 方法本身不做校验）
const (
	MaxVolume         = 30
	MaxTrack          = 3000
	MaxFolder         = 99
	MaxFolderTrack    = 255
	MaxBigFolder      = 15
	MaxBigFolderTrack = 3000
	MaxAmpGain        = 31
)

var (
	// ErrUnknownOperation 命令目录中不存在该操作
	ErrUnknownOperation = errors.New("dfplayer: unknown operation")
	// ErrArgCount 参数个数与操作声明不符
	ErrArgCount = errors.New("dfplayer: wrong argument count")
)

// ArgumentRangeError 调用方传入的参数超出声明范围
type ArgumentRangeError struct {
	Op    string
	Arg   string
	Value int
	Min   int
	Max   int
}

func (e *ArgumentRangeError) Error() string {
	return fmt.Sprintf("dfplayer: %s: %s=%d out of range [%d,%d]", e.Op, e.Arg, e.Value, e.Min, e.Max)
}

// PackFolderTrack 文件夹+曲目打包：folder<<8 | track
func PackFolderTrack(folder, track uint8) uint16 {
	return uint16(folder)<<8 | uint16(track)
}

// UnpackFolderTrack PackFolderTrack 的逆运算
func UnpackFolderTrack(p uint16) (folder, track uint8) {
	return uint8(p >> 8), uint8(p)
}

// PackBigFolderTrack 大文件夹+曲目打包：folder<<12 | track（track 占低 12 位）
func PackBigFolderTrack(folder uint8, track uint16) uint16 {
	return uint16(folder&0x0F)<<12 | track&0x0FFF
}

// UnpackBigFolderTrack PackBigFolderTrack 的逆运算
func UnpackBigFolderTrack(p uint16) (folder uint8, track uint16) {
	return uint8(p >> 12), p & 0x0FFF
}

// PackAmplifier 功放开关+增益打包：on<<8 | gain
func PackAmplifier(on bool, gain uint8) uint16 {
	return uint16(boolByte(on))<<8 | uint16(gain)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// ArgSpec 单个逻辑参数的声明
type ArgSpec struct {
	Name string `json:"name"`
	Min  int    `json:"min"`
	Max  int    `json:"max"`
}

// Command 已打包、待编码的命令
type Command struct {
	Op        string
	Code      byte
	Parameter uint16
}

// Frame 编码为线上帧
func (c Command) Frame(feedback bool) [FrameLength]byte {
	return Encode(c.Code, feedback, c.Parameter)
}

// Operation 命名操作的值描述（无状态）
type Operation struct {
	Name string
	Code byte
	Args []ArgSpec
	pack func(args []int) uint16
}

// Arity 逻辑参数个数
func (op Operation) Arity() int { return len(op.Args) }

// Validate 检查参数个数与范围
func (op Operation) Validate(args []int) error {
	if len(args) != len(op.Args) {
		return fmt.Errorf("%w: %s expects %d, got %d", ErrArgCount, op.Name, len(op.Args), len(args))
	}
	for i, spec := range op.Args {
		if args[i] < spec.Min || args[i] > spec.Max {
			return &ArgumentRangeError{Op: op.Name, Arg: spec.Name, Value: args[i], Min: spec.Min, Max: spec.Max}
		}
	}
	return nil
}

// Parameter 按打包规则生成 16 位参数，不做校验
func (op Operation) Parameter(args []int) uint16 {
	if op.pack == nil {
		return 0
	}
	return op.pack(args)
}

// Build 校验后打包
func (op Operation) Build(args ...int) (Command, error) {
	if err := op.Validate(args); err != nil {
		return Command{}, err
	}
	return Command{Op: op.Name, Code: op.Code, Parameter: op.Parameter(args)}, nil
}

// 操作名
const (
	OpPlayNext       = "play-next"
	OpPlayPrev       = "play-prev"
	OpSpecifyTrack   = "specify-track"
	OpVolumeUp       = "volume-up"
	OpVolumeDown     = "volume-down"
	OpSpecifyVolume  = "specify-volume"
	OpSpecifyEQ      = "specify-eq"
	OpSingleRepeat   = "single-repeat"
	OpSpecifyDevice  = "specify-device"
	OpSleep          = "sleep"
	OpReset          = "reset"
	OpPlay           = "play"
	OpPause          = "pause"
	OpFolderTrack    = "folder-track"
	OpAudioAmp       = "audio-amp"
	OpAllRepeat      = "all-repeat"
	OpMP3Track       = "mp3-track"
	OpInsertAdvert   = "insert-advert"
	OpBigFolderTrack = "big-folder-track"
	OpStopAdvert     = "stop-advert"
	OpStop           = "stop"
	OpFolderRepeat   = "folder-repeat"
	OpRandomPlay     = "random-play"
	OpRepeatCurrent  = "repeat-current"
	OpDAC            = "dac"
)

var (
	argOn = ArgSpec{Name: "on", Min: 0, Max: 1}

	first = func(args []int) uint16 { return uint16(args[0]) }
	// 0x19/0x1A 语义相反：0 开启，1 关闭
	inverted = func(args []int) uint16 {
		if args[0] != 0 {
			return 0
		}
		return 1
	}
)

var catalog = []Operation{
	{Name: OpPlayNext, Code: CmdPlayNext},
	{Name: OpPlayPrev, Code: CmdPlayPrev},
	{Name: OpSpecifyTrack, Code: CmdSpecifyTrack, Args: []ArgSpec{{"track", 1, MaxTrack}}, pack: first},
	{Name: OpVolumeUp, Code: CmdVolumeUp},
	{Name: OpVolumeDown, Code: CmdVolumeDown},
	{Name: OpSpecifyVolume, Code: CmdSpecifyVolume, Args: []ArgSpec{{"volume", 0, MaxVolume}}, pack: first},
	{Name: OpSpecifyEQ, Code: CmdSpecifyEQ, Args: []ArgSpec{{"eq", int(EQNormal), int(EQBass)}}, pack: first},
	{Name: OpSingleRepeat, Code: CmdSingleRepeat, Args: []ArgSpec{{"track", 1, MaxTrack}}, pack: first},
	{Name: OpSpecifyDevice, Code: CmdSpecifyDevice, Args: []ArgSpec{{"device", int(DeviceUSB), int(DeviceSD)}}, pack: first},
	{Name: OpSleep, Code: CmdSleep},
	{Name: OpReset, Code: CmdReset},
	{Name: OpPlay, Code: CmdPlay},
	{Name: OpPause, Code: CmdPause},
	{
		Name: OpFolderTrack, Code: CmdFolderTrack,
		Args: []ArgSpec{{"folder", 1, MaxFolder}, {"track", 1, MaxFolderTrack}},
		pack: func(args []int) uint16 { return PackFolderTrack(uint8(args[0]), uint8(args[1])) },
	},
	{
		Name: OpAudioAmp, Code: CmdAudioAmp,
		Args: []ArgSpec{argOn, {"gain", 0, MaxAmpGain}},
		pack: func(args []int) uint16 { return PackAmplifier(args[0] != 0, uint8(args[1])) },
	},
	{Name: OpAllRepeat, Code: CmdAllRepeat, Args: []ArgSpec{argOn}, pack: first},
	{Name: OpMP3Track, Code: CmdMP3Track, Args: []ArgSpec{{"track", 0, 0xFFFF}}, pack: first},
	{Name: OpInsertAdvert, Code: CmdInsertAdvert, Args: []ArgSpec{{"track", 0, 0xFFFF}}, pack: first},
	{
		Name: OpBigFolderTrack, Code: CmdBigFolderTrack,
		Args: []ArgSpec{{"folder", 1, MaxBigFolder}, {"track", 1, MaxBigFolderTrack}},
		pack: func(args []int) uint16 { return PackBigFolderTrack(uint8(args[0]), uint16(args[1])) },
	},
	{Name: OpStopAdvert, Code: CmdStopAdvert},
	{Name: OpStop, Code: CmdStop},
	{Name: OpFolderRepeat, Code: CmdFolderRepeat, Args: []ArgSpec{{"folder", 1, MaxFolder}}, pack: first},
	{Name: OpRandomPlay, Code: CmdRandomPlay},
	{Name: OpRepeatCurrent, Code: CmdRepeatCurrent, Args: []ArgSpec{argOn}, pack: inverted},
	{Name: OpDAC, Code: CmdDAC, Args: []ArgSpec{argOn}, pack: inverted},
}

var catalogIndex = func() map[string]int {
	m := make(map[string]int, len(catalog))
	for i, op := range catalog {
		m[op.Name] = i
	}
	return m
}()

// Operations 返回命令目录的副本（按命令码顺序）
func Operations() []Operation {
	out := make([]Operation, len(catalog))
	copy(out, catalog)
	for i := range out {
		out[i].Args = slices.Clone(catalog[i].Args)
	}
	return out
}

// Lookup 按名称查找操作
func Lookup(name string) (Operation, bool) {
	i, ok := catalogIndex[name]
	if !ok {
		return Operation{}, false
	}
	op := catalog[i]
	op.Args = slices.Clone(op.Args)
	return op, true
}

// Build 按名称校验并打包命令
func Build(name string, args ...int) (Command, error) {
	op, ok := Lookup(name)
	if !ok {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownOperation, name)
	}
	return op.Build(args...)
}
