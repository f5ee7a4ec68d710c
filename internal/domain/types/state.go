package types

// State is the protocol state of one remote participant.
type State uint8

const (
	StateUnknown State = iota
	StatePairChannelInit
	StatePairChannelEstablished
	StateFlakeZExchanged
	StateFlakeRExchanged
	StateFlakeValidated
	StateCircleKeyComputed
	StateError
)

var stateNames = [...]string{
	StateUnknown:                "unknown",
	StatePairChannelInit:        "pair-channel-init",
	StatePairChannelEstablished: "pair-channel-established",
	StateFlakeZExchanged:        "flake-z-exchanged",
	StateFlakeRExchanged:        "flake-r-exchanged",
	StateFlakeValidated:         "flake-validated",
	StateCircleKeyComputed:      "circle-key-computed",
	StateError:                  "error",
}

// String returns the state name.
func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "invalid"
}

// States lists every state in protocol order.
func States() []State {
	return []State{
		StateUnknown,
		StatePairChannelInit,
		StatePairChannelEstablished,
		StateFlakeZExchanged,
		StateFlakeRExchanged,
		StateFlakeValidated,
		StateCircleKeyComputed,
		StateError,
	}
}
