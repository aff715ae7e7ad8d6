package dfplayer

import "errors"

var (
	// ErrFraming 起始/长度/结束标记不匹配
	ErrFraming = errors.New("dfplayer: framing error")
	// ErrChecksum 标记正确但校验和错误
	ErrChecksum = errors.New("dfplayer: checksum mismatch")
)

// Checksum 计算校验和：对 version..paramLo（帧内 1~6 字节）求和后取负（16 位回绕）
// b 为 version 起始的 6 个字节
func Checksum(b []byte) uint16 {
	var sum uint16
	for _, v := range b {
		sum += uint16(v)
	}
	return 0 - sum
}

// frameChecksum 基于完整帧缓冲计算应有的校验和
func frameChecksum(buf *[FrameLength]byte) uint16 {
	return Checksum(buf[offVersion : offParamLo+1])
}

// VerifyFrame 校验一帧完整的 10 字节数据
func VerifyFrame(raw []byte) error {
	if len(raw) != FrameLength {
		return ErrFraming
	}
	if raw[offStart] != StartByte || raw[offVersion] != VersionByte ||
		raw[offLength] != LengthByte || raw[offEnd] != EndByte {
		return ErrFraming
	}
	got := uint16(raw[offSumHi])<<8 | uint16(raw[offSumLo])
	if got != Checksum(raw[offVersion:offParamLo+1]) {
		return ErrChecksum
	}
	return nil
}
