package dfplayer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_SpecifyTrack(t *testing.T) {
	got := Encode(CmdSpecifyTrack, true, 5)
	// sum(FF 06 03 01 00 05) = 0x010E，取负为 0xFEF2
	want := [FrameLength]byte{0x7E, 0xFF, 0x06, 0x03, 0x01, 0x00, 0x05, 0xFE, 0xF2, 0xEF}
	assert.Equal(t, want, got)
}

func TestEncode_NoFeedback(t *testing.T) {
	got := Encode(CmdSpecifyTrack, false, 5)
	want := [FrameLength]byte{0x7E, 0xFF, 0x06, 0x03, 0x00, 0x00, 0x05, 0xFE, 0xF3, 0xEF}
	assert.Equal(t, want, got)
}

func TestEncode_ParameterBigEndian(t *testing.T) {
	got := Encode(CmdFolderTrack, true, 0x0A1B)
	assert.Equal(t, byte(0x0A), got[5])
	assert.Equal(t, byte(0x1B), got[6])
	require.NoError(t, VerifyFrame(got[:]))
}

func TestChecksum(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint16
	}{
		{"空数据", nil, 0x0000},
		{"模块上线", []byte{0xFF, 0x06, 0x3F, 0x00, 0x00, 0x02}, 0xFEBA},
		{"应答", []byte{0xFF, 0x06, 0x41, 0x00, 0x00, 0x00}, 0xFEBA},
		{"回绕", []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, 0xFA06},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Checksum(tt.data))
		})
	}
}

func TestVerifyFrame(t *testing.T) {
	ok := Encode(CmdPlay, true, 0)

	tests := []struct {
		name   string
		mutate func(b []byte) []byte
		want   error
	}{
		{"正确帧", func(b []byte) []byte { return b }, nil},
		{"长度不足", func(b []byte) []byte { return b[:9] }, ErrFraming},
		{"起始标记错误", func(b []byte) []byte { b[0] = 0x00; return b }, ErrFraming},
		{"长度字段错误", func(b []byte) []byte { b[2] = 0x07; return b }, ErrFraming},
		{"结束标记错误", func(b []byte) []byte { b[9] = 0x00; return b }, ErrFraming},
		{"校验和错误", func(b []byte) []byte { b[8] ^= 0x01; return b }, ErrChecksum},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := ok
			assert.ErrorIs(t, VerifyFrame(tt.mutate(raw[:])), tt.want)
		})
	}
}

func TestFrame_Bytes(t *testing.T) {
	f := Frame{Version: VersionByte, Length: LengthByte, Command: CmdSpecifyVolume, Feedback: 1, Parameter: 20}
	assert.Equal(t, Encode(CmdSpecifyVolume, true, 20), f.Bytes())
	assert.True(t, f.FeedbackRequested())
}
