package domain

import (
	interfaces "gotr/internal/domain/interfaces"
	types "gotr/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	Handle      = types.Handle
	IdentityKey = types.IdentityKey
	Fingerprint = types.Fingerprint
	State       = types.State
	MessageType = types.MessageType
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	Host          = interfaces.Host
	IdentityStore = interfaces.IdentityStore
)

// States of a remote participant.
const (
	StateUnknown                = types.StateUnknown
	StatePairChannelInit        = types.StatePairChannelInit
	StatePairChannelEstablished = types.StatePairChannelEstablished
	StateFlakeZExchanged        = types.StateFlakeZExchanged
	StateFlakeRExchanged        = types.StateFlakeRExchanged
	StateFlakeValidated         = types.StateFlakeValidated
	StateCircleKeyComputed      = types.StateCircleKeyComputed
	StateError                  = types.StateError
)

// Message type tags.
const (
	MsgPairChannelInit = types.MsgPairChannelInit
	MsgPairChannelEst  = types.MsgPairChannelEst
	MsgFlakeZ          = types.MsgFlakeZ
	MsgFlakeR          = types.MsgFlakeR
	MsgFlakeValidation = types.MsgFlakeValidation
	MsgCircleX         = types.MsgCircleX
	MsgChat            = types.MsgChat
)

// States lists every participant state in protocol order.
func States() []State { return types.States() }

// MessageTypes lists every message type.
func MessageTypes() []MessageType { return types.MessageTypes() }
