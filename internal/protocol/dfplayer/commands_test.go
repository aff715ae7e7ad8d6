package dfplayer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_CodesAreFixed(t *testing.T) {
	want := map[string]byte{
		OpPlayNext:       0x01,
		OpPlayPrev:       0x02,
		OpSpecifyTrack:   0x03,
		OpVolumeUp:       0x04,
		OpVolumeDown:     0x05,
		OpSpecifyVolume:  0x06,
		OpSpecifyEQ:      0x07,
		OpSingleRepeat:   0x08,
		OpSpecifyDevice:  0x09,
		OpSleep:          0x0A,
		OpReset:          0x0C,
		OpPlay:           0x0D,
		OpPause:          0x0E,
		OpFolderTrack:    0x0F,
		OpAudioAmp:       0x10,
		OpAllRepeat:      0x11,
		OpMP3Track:       0x12,
		OpInsertAdvert:   0x13,
		OpBigFolderTrack: 0x14,
		OpStopAdvert:     0x15,
		OpStop:           0x16,
		OpFolderRepeat:   0x17,
		OpRandomPlay:     0x18,
		OpRepeatCurrent:  0x19,
		OpDAC:            0x1A,
	}
	ops := Operations()
	require.Len(t, ops, len(want))
	for _, op := range ops {
		code, ok := want[op.Name]
		require.True(t, ok, "unexpected op %s", op.Name)
		assert.Equal(t, code, op.Code, op.Name)
	}
}

func TestCatalog_RoundTrip(t *testing.T) {
	for _, op := range Operations() {
		samples := [][]int{{}}
		if op.Arity() > 0 {
			lo := make([]int, op.Arity())
			hi := make([]int, op.Arity())
			mid := make([]int, op.Arity())
			for i, a := range op.Args {
				lo[i], hi[i], mid[i] = a.Min, a.Max, (a.Min+a.Max)/2
			}
			samples = [][]int{lo, mid, hi}
		}
		for _, args := range samples {
			cmd, err := op.Build(args...)
			require.NoError(t, err, "%s %v", op.Name, args)

			raw := cmd.Frame(true)
			var d Decoder
			s := pushAll(&d, raw[:])
			require.Len(t, s.frames, 1, "%s %v", op.Name, args)
			assert.Empty(t, s.invalid)
			assert.Equal(t, op.Code, s.frames[0].Command)
			assert.Equal(t, cmd.Parameter, s.frames[0].Parameter)
		}
	}
}

func TestCatalog_ZeroArgumentParameter(t *testing.T) {
	for _, name := range []string{OpPlay, OpPause, OpStop, OpPlayNext, OpPlayPrev, OpSleep, OpReset, OpStopAdvert, OpRandomPlay} {
		cmd, err := Build(name)
		require.NoError(t, err)
		assert.Equal(t, uint16(0), cmd.Parameter, name)
	}
}

func TestCatalog_Packing(t *testing.T) {
	tests := []struct {
		name string
		op   string
		args []int
		want uint16
	}{
		{"文件夹曲目", OpFolderTrack, []int{2, 10}, 0x020A},
		{"大文件夹曲目", OpBigFolderTrack, []int{15, 3000}, 0xF000 | 3000},
		{"功放开启", OpAudioAmp, []int{1, 31}, 0x011F},
		{"功放关闭", OpAudioAmp, []int{0, 0}, 0x0000},
		{"全部循环开", OpAllRepeat, []int{1}, 1},
		{"全部循环关", OpAllRepeat, []int{0}, 0},
		{"单曲循环开", OpRepeatCurrent, []int{1}, 0},
		{"单曲循环关", OpRepeatCurrent, []int{0}, 1},
		{"DAC开", OpDAC, []int{1}, 0},
		{"DAC关", OpDAC, []int{0}, 1},
		{"均衡器", OpSpecifyEQ, []int{int(EQBass)}, 5},
		{"设备SD", OpSpecifyDevice, []int{int(DeviceSD)}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := Build(tt.op, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cmd.Parameter)
		})
	}
}

func TestPackFolderTrack_Invertible(t *testing.T) {
	for folder := 1; folder <= MaxFolder; folder++ {
		for track := 1; track <= MaxFolderTrack; track++ {
			f, tr := UnpackFolderTrack(PackFolderTrack(uint8(folder), uint8(track)))
			if int(f) != folder || int(tr) != track {
				t.Fatalf("unpack(pack(%d,%d)) = (%d,%d)", folder, track, f, tr)
			}
		}
	}
}

func TestPackBigFolderTrack_Invertible(t *testing.T) {
	for folder := 1; folder <= MaxBigFolder; folder++ {
		for _, track := range []int{1, 255, 256, 1024, MaxBigFolderTrack} {
			f, tr := UnpackBigFolderTrack(PackBigFolderTrack(uint8(folder), uint16(track)))
			assert.Equal(t, uint8(folder), f)
			assert.Equal(t, uint16(track), tr)
		}
	}
}

func TestBuild_Validation(t *testing.T) {
	_, err := Build(OpSpecifyVolume, 31)
	var rangeErr *ArgumentRangeError
	require.True(t, errors.As(err, &rangeErr))
	assert.Equal(t, "volume", rangeErr.Arg)
	assert.Equal(t, 31, rangeErr.Value)
	assert.Equal(t, MaxVolume, rangeErr.Max)

	_, err = Build(OpFolderTrack, 100, 1)
	require.True(t, errors.As(err, &rangeErr))
	assert.Equal(t, "folder", rangeErr.Arg)

	_, err = Build(OpFolderTrack, 1)
	assert.ErrorIs(t, err, ErrArgCount)

	_, err = Build("rewind")
	assert.ErrorIs(t, err, ErrUnknownOperation)
}

func TestOperation_ParameterIsUnvalidated(t *testing.T) {
	op, ok := Lookup(OpSpecifyVolume)
	require.True(t, ok)
	// 越界值按原样透传，范围由调用方保证
	assert.Equal(t, uint16(99), op.Parameter([]int{99}))
}

func TestOperations_ReturnsCopy(t *testing.T) {
	ops := Operations()
	ops[0].Code = 0xFF
	op, _ := Lookup(OpPlayNext)
	assert.Equal(t, CmdPlayNext, op.Code)

	for i := range ops {
		if ops[i].Name == OpSpecifyVolume {
			ops[i].Args[0].Max = 1000
		}
	}
	_, err := Build(OpSpecifyVolume, 500)
	var rangeErr *ArgumentRangeError
	assert.ErrorAs(t, err, &rangeErr)

	vol, ok := Lookup(OpSpecifyVolume)
	require.True(t, ok)
	vol.Args[0].Max = 1000
	_, err = Build(OpSpecifyVolume, 500)
	assert.ErrorAs(t, err, &rangeErr)
}
