package room

import (
	"bytes"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"gotr/internal/crypto"
	"gotr/internal/domain"
	"gotr/internal/protocol/fsm"
	"gotr/internal/protocol/gka"
	"gotr/internal/protocol/wire"
	"gotr/internal/util/memzero"
)

// Receive handles a record that arrived by broadcast. The sender is found by
// the identity key in the record header.
func (r *Room) Receive(msg string) error {
	if r.closed {
		return domain.ErrClosed
	}
	return r.receive(nil, false, msg)
}

// ReceiveUser handles a record that arrived directly from the user behind h.
// A PairChannelInit from a new user binds h to the sender's identity key.
func (r *Room) ReceiveUser(h domain.Handle, msg string) error {
	if r.closed {
		return domain.ErrClosed
	}
	if err := checkHandle(h); err != nil {
		return err
	}
	return r.receive(h, true, msg)
}

func (r *Room) receive(h domain.Handle, direct bool, msg string) error {
	buf, err := crypto.FromB64(msg)
	if err != nil {
		r.log.Warn("dropped record", zap.Error(err))
		return err
	}
	m, err := wire.Parse(buf)
	if err != nil {
		r.log.Warn("dropped record", zap.Error(err))
		return err
	}
	if m.Sender() == r.self {
		return nil
	}

	p, fresh, err := r.route(h, direct, m)
	if err != nil {
		r.log.Warn("dropped record", zap.Stringer("type", m.Type()), zap.Error(err))
		return err
	}
	if err := r.step(p, m); err != nil {
		if fresh && p.state == domain.StateUnknown {
			r.users.remove(p)
			r.log.Warn("dropped record", zap.Stringer("type", m.Type()), zap.Error(err))
			return err
		}
		if errors.Is(err, domain.ErrCrypto) {
			r.fail(p, err)
			return err
		}
		r.log.Warn("dropped record",
			zap.String("user", p.label()),
			zap.Stringer("type", m.Type()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// route finds the participant a record belongs to, allocating one for a
// PairChannelInit from a new user on the direct path. fresh reports such an
// allocation; the caller frees the slot again if the record is rejected.
func (r *Room) route(h domain.Handle, direct bool, m wire.Message) (p *participant, fresh bool, err error) {
	sender := m.Sender()
	known := r.users.bySender(sender)
	if !direct {
		if known == nil {
			return nil, false, fmt.Errorf("%w: %s from unknown sender %s",
				domain.ErrStateMismatch, m.Type(), crypto.Fingerprint(sender))
		}
		return known, false, nil
	}

	p = r.users.byUser(h)
	switch {
	case p == nil && known == nil:
		if m.Type() != domain.MsgPairChannelInit {
			return nil, false, fmt.Errorf("%w: %s from unknown user", domain.ErrStateMismatch, m.Type())
		}
		p, err = r.users.alloc(h)
		return p, err == nil, err
	case p == nil:
		return known, false, nil
	case known != nil && known != p, p.bound && p.key != sender:
		return nil, false, fmt.Errorf("%w: user handle is bound to another identity", domain.ErrStateMismatch)
	}
	return p, false, nil
}

// step runs the key agreement step for one record. Nothing is modified
// unless the state machine and the tag accept the record.
func (r *Room) step(p *participant, m wire.Message) error {
	next, err := fsm.Next(p.state, m.Type())
	if err != nil {
		return err
	}
	if t, ok := m.(wire.Tagged); ok && m.Type() != domain.MsgChat {
		want := gka.Tag(&p.pairKey, t.AuthenticatedBytes())
		got := t.MessageTag()
		if !crypto.Equal(want[:], got[:]) {
			return fmt.Errorf("%w: %s tag", domain.ErrAuthentication, m.Type())
		}
	}

	switch m := m.(type) {
	case *wire.PairChannelInit:
		return r.onPairChannelInit(p, m, next)
	case *wire.PairChannelEst:
		return r.onPairChannelEst(p, m, next)
	case *wire.FlakeZ:
		return r.onFlakeZ(p, m, next)
	case *wire.FlakeR:
		return r.onFlakeR(p, m, next)
	case *wire.FlakeValidation:
		return r.onFlakeValidation(p, m, next)
	case *wire.CircleX:
		return r.onCircleX(p, m)
	case *wire.Chat:
		return r.onChat(p, m)
	default:
		return fmt.Errorf("%w: unhandled %s", domain.ErrDecode, m.Type())
	}
}

// onPairChannelInit answers as responder. When both sides sent
// PairChannelInit, the greater identity key answers and the other side
// drops the peer's init.
func (r *Room) onPairChannelInit(p *participant, m *wire.PairChannelInit, next domain.State) error {
	if p.state == domain.StatePairChannelInit && bytes.Compare(r.self[:], m.From[:]) <= 0 {
		return fmt.Errorf("%w: simultaneous pair channel init, staying initiator", domain.ErrStateMismatch)
	}

	hs, err := r.engine.NewHandshake()
	if err != nil {
		return err
	}
	defer hs.Erase()
	key, err := r.engine.ResponderKey(r.id, hs, m.From, m.Ephemeral[:])
	if err != nil {
		return err
	}
	confirm := gka.PairConfirm(&key, m.From, r.self, m.Ephemeral, hs.Ephemeral)

	p.handshake.Erase()
	p.handshake = nil
	p.pairKey = key
	p.initiator = false
	r.users.bind(p, m.From)
	r.transition(p, next)

	return r.sendUser(p, &wire.PairChannelEst{From: r.self, Ephemeral: hs.Ephemeral, Confirm: confirm})
}

// onPairChannelEst completes the channel as initiator and opens the flake
// round.
func (r *Room) onPairChannelEst(p *participant, m *wire.PairChannelEst, next domain.State) error {
	if p.handshake == nil {
		return fmt.Errorf("%w: no pending handshake", domain.ErrStateMismatch)
	}
	key, err := r.engine.InitiatorKey(r.id, p.handshake, m.From, m.Ephemeral[:])
	if err != nil {
		return err
	}
	if err := gka.VerifyPairConfirm(&key, r.self, m.From, p.handshake.Ephemeral, m.Ephemeral, m.Confirm[:]); err != nil {
		memzero.Zero(key[:])
		return err
	}

	p.handshake.Erase()
	p.handshake = nil
	p.pairKey = key
	p.initiator = true
	r.users.bind(p, m.From)
	r.transition(p, next)

	flake, err := r.engine.NewFlake()
	if err != nil {
		return err
	}
	p.flake = flake
	return r.sendPair(p, &wire.FlakeZ{From: r.self, Z: flake.Z()})
}

// onFlakeZ stores the peer's z values. The responder generates its own
// exponents now and answers with FlakeZ; the initiator moves on to FlakeR.
func (r *Room) onFlakeZ(p *participant, m *wire.FlakeZ, next domain.State) error {
	if p.flake == nil {
		flake, err := r.engine.NewFlake()
		if err != nil {
			return err
		}
		p.flake = flake
	}
	if err := r.engine.SetPeerZ(p.flake, m.Z[0][:], m.Z[1][:]); err != nil {
		return err
	}
	r.transition(p, next)

	if !p.initiator {
		return r.sendPair(p, &wire.FlakeZ{From: r.self, Z: p.flake.Z()})
	}
	R, err := p.flake.RValues()
	if err != nil {
		return err
	}
	return r.sendPair(p, &wire.FlakeR{From: r.self, R: R})
}

// onFlakeR computes the flake key. The responder answers with its own
// FlakeR; the initiator moves on to FlakeValidation.
func (r *Room) onFlakeR(p *participant, m *wire.FlakeR, next domain.State) error {
	if err := r.engine.SetPeerR(p.flake, m.R[0][:], m.R[1][:]); err != nil {
		return err
	}
	r.transition(p, next)

	if !p.initiator {
		R, err := p.flake.RValues()
		if err != nil {
			return err
		}
		return r.sendPair(p, &wire.FlakeR{From: r.self, R: R})
	}
	return r.sendPair(p, &wire.FlakeValidation{
		From:  r.self,
		Proof: gka.ValidationProof(p.flake.Key(), &p.pairKey, r.self, p.key),
	})
}

// onFlakeValidation checks the peer's proof and adds the peer to the ring.
// The responder answers with its own proof before the ring broadcast.
func (r *Room) onFlakeValidation(p *participant, m *wire.FlakeValidation, next domain.State) error {
	if err := gka.VerifyValidation(p.flakeKey(), &p.pairKey, p.key, r.self, m.Proof[:]); err != nil {
		return err
	}
	p.flake.Erase()
	r.transition(p, next)

	var sendErr error
	if !p.initiator {
		sendErr = r.sendPair(p, &wire.FlakeValidation{
			From:  r.self,
			Proof: gka.ValidationProof(p.flake.Key(), &p.pairKey, r.self, p.key),
		})
	}
	return errors.Join(sendErr, r.rebuildCircle())
}

// onCircleX stores the peer's circle value. Values for another ring are
// kept until the local ring catches up or the peer sends a newer one. A new
// value for the current ring replaces the circle key.
func (r *Room) onCircleX(p *participant, m *wire.CircleX) error {
	X, err := r.engine.DecodeX(m.X[:])
	if err != nil {
		return err
	}
	changed := p.x == nil || p.xDigest != m.Digest || p.x.Equal(X) != 1
	p.x = X
	p.xDigest = m.Digest
	if m.Digest != r.ring.Digest() {
		return nil
	}
	if changed && r.hasCircle {
		r.log.Debug("circle value changed", zap.String("user", p.label()))
		r.dropCircleKey()
	}
	r.tryCompleteCircle()
	return nil
}

// onChat authenticates a chat message and hands it to the host.
func (r *Room) onChat(p *participant, m *wire.Chat) error {
	want := crypto.MAC(&r.msgKey, m.AuthenticatedBytes())
	got := m.MessageTag()
	if !r.hasCircle || !crypto.Equal(want[:], got[:]) {
		return fmt.Errorf("%w: msg tag", domain.ErrAuthentication)
	}
	r.host.ReceiveUser(r.handle, p.handle, m.Body)
	return nil
}
