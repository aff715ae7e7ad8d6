package dfplayer

import "fmt"

// 上行（模块 -> 主机）命令码
const (
	RspMediaInserted  byte = 0x3A
	RspMediaRemoved   byte = 0x3B
	RspUSBFinished    byte = 0x3C
	RspSDFinished     byte = 0x3D
	RspFlashFinished  byte = 0x3E
	RspOnline         byte = 0x3F
	RspError          byte = 0x40
	RspAck            byte = 0x41
	RspStatus         byte = 0x42
	RspVolume         byte = 0x43
	RspEQ             byte = 0x44
	RspUSBFileCount   byte = 0x47
	RspSDFileCount    byte = 0x48
	RspUSBCurrentFile byte = 0x4B
	RspSDCurrentFile  byte = 0x4C
	RspFolderCount    byte = 0x4E
	RspFolderFiles    byte = 0x4F
)

// 0x40 错误码
const (
	ErrCodeBusy            uint16 = 1
	ErrCodeSleeping        uint16 = 2
	ErrCodeIncompleteFrame uint16 = 3
	ErrCodeChecksum        uint16 = 4
	ErrCodeTrackOutOfScope uint16 = 5
	ErrCodeTrackNotFound   uint16 = 6
	ErrCodeInsertion       uint16 = 7
	ErrCodeSDReadFailed    uint16 = 8
	ErrCodeEnteredSleep    uint16 = 10
)

var errorDescriptions = map[uint16]string{
	ErrCodeBusy:            "Module is still initializing.",
	ErrCodeSleeping:        "Module is in sleep mode.",
	ErrCodeIncompleteFrame: "A frame has not been received completely yet.",
	ErrCodeChecksum:        "The checksum is incorrect.",
	ErrCodeTrackOutOfScope: "The specified track is outside the current track scope.",
	ErrCodeTrackNotFound:   "The specified track was not found.",
	ErrCodeInsertion:       "Insertion error.",
	ErrCodeSDReadFailed:    "SD card reading failed.",
	ErrCodeEnteredSleep:    "Entered into sleep mode.",
}

var onlineDescriptions = map[uint16]string{
	1: "USB flash drive online.",
	2: "SD card online.",
	3: "SD card and USB flash drive online.",
	4: "PC online.",
}

var mediaNames = map[uint16]string{
	1: "USB flash drive",
	2: "SD card",
	3: "USB cable connected to PC",
}

// ErrorDescription 返回 0x40 错误码的描述
func ErrorDescription(code uint16) string {
	if d, ok := errorDescriptions[code]; ok {
		return d
	}
	return fmt.Sprintf("Unknown error (%d).", code)
}

func mediaName(p uint16) string {
	if n, ok := mediaNames[p]; ok {
		return n
	}
	return fmt.Sprintf("Device %d", p)
}

// Describe 生成上行帧的可读描述
func Describe(f Frame) string {
	switch f.Command {
	case RspOnline:
		d, ok := onlineDescriptions[f.Parameter]
		if !ok {
			return "Module turned on."
		}
		return "Module turned on. " + d
	case RspSDFinished:
		return fmt.Sprintf("Track number %d finished playing from the SD card.", f.Parameter)
	case RspUSBFinished:
		return fmt.Sprintf("Track number %d finished playing from the USB flash drive.", f.Parameter)
	case RspFlashFinished:
		return fmt.Sprintf("Track number %d finished playing from flash.", f.Parameter)
	case RspAck:
		return "Acknowledge returned."
	case RspError:
		return "ERROR: " + ErrorDescription(f.Parameter)
	case RspMediaInserted:
		return mediaName(f.Parameter) + " is plugged in."
	case RspMediaRemoved:
		return mediaName(f.Parameter) + " is pulled out."
	case RspStatus:
		return fmt.Sprintf("Status: 0x%04X.", f.Parameter)
	case RspVolume:
		return fmt.Sprintf("Volume: %d.", f.Parameter)
	case RspEQ:
		return fmt.Sprintf("Equalizer: %d.", f.Parameter)
	case RspUSBFileCount, RspSDFileCount:
		return fmt.Sprintf("File count: %d.", f.Parameter)
	case RspUSBCurrentFile, RspSDCurrentFile:
		return fmt.Sprintf("Current file: %d.", f.Parameter)
	case RspFolderCount:
		return fmt.Sprintf("Folder count: %d.", f.Parameter)
	case RspFolderFiles:
		return fmt.Sprintf("Files in folder: %d.", f.Parameter)
	default:
		return fmt.Sprintf("Unknown response 0x%02X (parameter %d).", f.Command, f.Parameter)
	}
}
