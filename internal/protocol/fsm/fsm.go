package fsm

import (
	"fmt"

	"gotr/internal/domain"
)

type edge struct {
	from domain.State
	on   domain.MessageType
}

// transitions maps (state, received type) to the next state. Pairs missing
// from the table are rejected.
//
// (PairChannelInit, PairChannelInit) is the simultaneous-join case. It is
// legal only for the side with the greater identity key, which becomes the
// responder; the caller decides that before calling Next.
//
// (FlakeValidated, CircleX) stays in FlakeValidated. The room promotes every
// participant once the circle key is computed.
var transitions = map[edge]domain.State{
	{domain.StateUnknown, domain.MsgPairChannelInit}:         domain.StatePairChannelEstablished,
	{domain.StatePairChannelInit, domain.MsgPairChannelInit}: domain.StatePairChannelEstablished,
	{domain.StatePairChannelInit, domain.MsgPairChannelEst}:  domain.StatePairChannelEstablished,
	{domain.StatePairChannelEstablished, domain.MsgFlakeZ}:   domain.StateFlakeZExchanged,
	{domain.StateFlakeZExchanged, domain.MsgFlakeR}:          domain.StateFlakeRExchanged,
	{domain.StateFlakeRExchanged, domain.MsgFlakeValidation}: domain.StateFlakeValidated,
	{domain.StateFlakeValidated, domain.MsgCircleX}:          domain.StateFlakeValidated,
	{domain.StateCircleKeyComputed, domain.MsgCircleX}:       domain.StateCircleKeyComputed,
	{domain.StateCircleKeyComputed, domain.MsgChat}:          domain.StateCircleKeyComputed,
}

// Next returns the state reached from s on receiving a record of type t, or
// ErrStateMismatch.
func Next(s domain.State, t domain.MessageType) (domain.State, error) {
	next, ok := transitions[edge{s, t}]
	if !ok {
		return s, fmt.Errorf("%w: %s in state %s", domain.ErrStateMismatch, t, s)
	}
	return next, nil
}

// Accepts reports whether a record of type t is legal in state s.
func Accepts(s domain.State, t domain.MessageType) bool {
	_, ok := transitions[edge{s, t}]
	return ok
}

// Join is the transition taken when the host announces a new participant and
// the local side sends PairChannelInit.
func Join(s domain.State) (domain.State, error) {
	if s != domain.StateUnknown {
		return s, fmt.Errorf("%w: join in state %s", domain.ErrStateMismatch, s)
	}
	return domain.StatePairChannelInit, nil
}

// Promote marks a validated participant as part of a computed circle key.
func Promote(s domain.State) (domain.State, error) {
	switch s {
	case domain.StateFlakeValidated, domain.StateCircleKeyComputed:
		return domain.StateCircleKeyComputed, nil
	default:
		return s, fmt.Errorf("%w: promote in state %s", domain.ErrStateMismatch, s)
	}
}

// Reset drops a participant back to FlakeValidated after the ring changed.
// Other states are returned unchanged.
func Reset(s domain.State) domain.State {
	if s == domain.StateCircleKeyComputed {
		return domain.StateFlakeValidated
	}
	return s
}

// Validated reports whether s holds a validated flake key.
func Validated(s domain.State) bool {
	return s == domain.StateFlakeValidated || s == domain.StateCircleKeyComputed
}
