package dfplayer

import "encoding/binary"

// Encode 构造一帧下行命令。调用方负责命令码与参数的合法性（由命令目录约束）。
func Encode(command byte, feedback bool, parameter uint16) [FrameLength]byte {
	var buf [FrameLength]byte
	buf[offStart] = StartByte
	buf[offVersion] = VersionByte
	buf[offLength] = LengthByte
	buf[offCommand] = command
	if feedback {
		buf[offFeedback] = 1
	}
	binary.BigEndian.PutUint16(buf[offParamHi:], parameter)
	binary.BigEndian.PutUint16(buf[offSumHi:], frameChecksum(&buf))
	buf[offEnd] = EndByte
	return buf
}
