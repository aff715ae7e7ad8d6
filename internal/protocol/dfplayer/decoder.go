package dfplayer

import "encoding/binary"

// Kind PushByte 的结果类别
type Kind int

const (
	// Incomplete 仍在扫描候选帧（或丢弃了噪声字节）
	Incomplete Kind = iota
	// FrameReady 得到一帧可信帧
	FrameReady
	// Invalid 候选帧被丢弃（Err 为 ErrFraming 或 ErrChecksum）
	Invalid
)

func (k Kind) String() string {
	switch k {
	case Incomplete:
		return "incomplete"
	case FrameReady:
		return "frame"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Result 单字节推进的结果
type Result struct {
	Kind  Kind
	Frame Frame // 仅 Kind == FrameReady 时有效
	Err   error // 仅 Kind == Invalid 时有效
}

// Decoder 逐字节帧重组状态机。
// 每个连接独占一个实例，不做内部同步；调用方需保证按接收顺序、单线程推进。
type Decoder struct {
	pos int
	buf [FrameLength]byte
}

// NewDecoder 创建解码器（零值亦可用）
func NewDecoder() *Decoder { return &Decoder{} }

// Pos 当前扫描位置（0..9）
func (d *Decoder) Pos() int { return d.pos }

// Armed 是否正在扫描候选帧
func (d *Decoder) Armed() bool { return d.pos > 0 }

// Reset 回到初始状态
func (d *Decoder) Reset() {
	d.pos = 0
	d.buf = [FrameLength]byte{}
}

// arm 将当前字节视为可能的起始标记
func (d *Decoder) arm(b byte) {
	if b == StartByte {
		d.buf[offStart] = b
		d.pos = offVersion
	}
}

// PushByte 推进一个字节
func (d *Decoder) PushByte(b byte) Result {
	switch d.pos {
	case offStart:
		d.arm(b)
		return Result{Kind: Incomplete}

	case offVersion:
		if b != VersionByte {
			// 上一个 0x7E 只是噪声，当前字节重新参与同步
			d.Reset()
			d.arm(b)
			return Result{Kind: Incomplete}
		}

	case offLength:
		if b != LengthByte {
			d.Reset()
			d.arm(b)
			return Result{Kind: Invalid, Err: ErrFraming}
		}

	case offEnd:
		d.buf[offEnd] = b
		res := d.finish()
		d.Reset()
		return res
	}

	d.buf[d.pos] = b
	d.pos++
	return Result{Kind: Incomplete}
}

// Push 依次推进多个字节，返回其中解出的可信帧
func (d *Decoder) Push(p []byte) []Frame {
	var frames []Frame
	for _, b := range p {
		if r := d.PushByte(b); r.Kind == FrameReady {
			frames = append(frames, r.Frame)
		}
	}
	return frames
}

// finish 校验结束标记与校验和
func (d *Decoder) finish() Result {
	if d.buf[offEnd] != EndByte {
		return Result{Kind: Invalid, Err: ErrFraming}
	}
	got := binary.BigEndian.Uint16(d.buf[offSumHi:])
	if got != frameChecksum(&d.buf) {
		return Result{Kind: Invalid, Err: ErrChecksum}
	}
	return Result{
		Kind: FrameReady,
		Frame: Frame{
			Version:   d.buf[offVersion],
			Length:    d.buf[offLength],
			Command:   d.buf[offCommand],
			Feedback:  d.buf[offFeedback],
			Parameter: binary.BigEndian.Uint16(d.buf[offParamHi:]),
		},
	}
}
