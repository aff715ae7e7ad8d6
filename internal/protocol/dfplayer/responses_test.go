package dfplayer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name  string
		cmd   byte
		param uint16
		want  string
	}{
		{"SD上线", RspOnline, 2, "Module turned on. SD card online."},
		{"PC上线", RspOnline, 4, "Module turned on. PC online."},
		{"未知上线参数", RspOnline, 9, "Module turned on."},
		{"SD播放完成", RspSDFinished, 12, "Track number 12 finished playing from the SD card."},
		{"U盘播放完成", RspUSBFinished, 3, "Track number 3 finished playing from the USB flash drive."},
		{"应答", RspAck, 0, "Acknowledge returned."},
		{"校验错误", RspError, ErrCodeChecksum, "ERROR: The checksum is incorrect."},
		{"进入休眠", RspError, ErrCodeEnteredSleep, "ERROR: Entered into sleep mode."},
		{"未知错误", RspError, 42, "ERROR: Unknown error (42)."},
		{"插入SD", RspMediaInserted, 2, "SD card is plugged in."},
		{"拔出U盘", RspMediaRemoved, 1, "USB flash drive is pulled out."},
		{"音量查询", RspVolume, 15, "Volume: 15."},
		{"未知命令", 0x99, 1, "Unknown response 0x99 (parameter 1)."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(Frame{Command: tt.cmd, Parameter: tt.param}))
		})
	}
}
