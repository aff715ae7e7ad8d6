package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/taoyao-code/dfplayer/internal/protocol/dfplayer"
)

// Type 事件类型
type Type string

const (
	TypeModuleOnline  Type = "module.online"
	TypeTrackFinished Type = "track.finished"
	TypeMediaInserted Type = "media.inserted"
	TypeMediaRemoved  Type = "media.removed"
	TypeModuleError   Type = "module.error"
	TypeModuleAck     Type = "module.ack"
	TypeQueryReply    Type = "query.reply"
	TypeUnknown       Type = "unknown"
)

// PlayerEvent 一条已解码的上行帧
type PlayerEvent struct {
	EventID     string    `json:"event_id"`
	Type        Type      `json:"type"`
	Command     byte      `json:"command"`
	Parameter   uint16    `json:"parameter"`
	Feedback    byte      `json:"feedback"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

// Classify 按命令码归类上行帧
func Classify(cmd byte) Type {
	switch cmd {
	case dfplayer.RspOnline:
		return TypeModuleOnline
	case dfplayer.RspUSBFinished, dfplayer.RspSDFinished, dfplayer.RspFlashFinished:
		return TypeTrackFinished
	case dfplayer.RspMediaInserted:
		return TypeMediaInserted
	case dfplayer.RspMediaRemoved:
		return TypeMediaRemoved
	case dfplayer.RspError:
		return TypeModuleError
	case dfplayer.RspAck:
		return TypeModuleAck
	case dfplayer.RspStatus, dfplayer.RspVolume, dfplayer.RspEQ,
		dfplayer.RspUSBFileCount, dfplayer.RspSDFileCount,
		dfplayer.RspUSBCurrentFile, dfplayer.RspSDCurrentFile,
		dfplayer.RspFolderCount, dfplayer.RspFolderFiles:
		return TypeQueryReply
	default:
		return TypeUnknown
	}
}

// FromFrame 由上行帧构造事件
func FromFrame(f dfplayer.Frame, at time.Time) PlayerEvent {
	return PlayerEvent{
		EventID:     uuid.NewString(),
		Type:        Classify(f.Command),
		Command:     f.Command,
		Parameter:   f.Parameter,
		Feedback:    f.Feedback,
		Description: dfplayer.Describe(f),
		Timestamp:   at,
	}
}
