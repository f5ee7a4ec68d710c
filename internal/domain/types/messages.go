package types

// MessageType is the tag byte of a protocol record.
type MessageType uint8

const (
	MsgPairChannelInit MessageType = 0x01
	MsgPairChannelEst  MessageType = 0x02
	MsgFlakeZ          MessageType = 0x03
	MsgFlakeR          MessageType = 0x04
	MsgFlakeValidation MessageType = 0x05
	MsgCircleX         MessageType = 0x06
	MsgChat            MessageType = 0x07
)

// String returns the message type name.
func (t MessageType) String() string {
	switch t {
	case MsgPairChannelInit:
		return "pair_channel_init"
	case MsgPairChannelEst:
		return "pair_channel_est"
	case MsgFlakeZ:
		return "flake_z"
	case MsgFlakeR:
		return "flake_R"
	case MsgFlakeValidation:
		return "flake_validation"
	case MsgCircleX:
		return "circle_X"
	case MsgChat:
		return "msg"
	default:
		return "unknown"
	}
}

// MessageTypes lists every known message type.
func MessageTypes() []MessageType {
	return []MessageType{
		MsgPairChannelInit,
		MsgPairChannelEst,
		MsgFlakeZ,
		MsgFlakeR,
		MsgFlakeValidation,
		MsgCircleX,
		MsgChat,
	}
}
