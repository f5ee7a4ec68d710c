package room

import (
	"filippo.io/edwards25519"
	"go.uber.org/zap"

	"gotr/internal/crypto"
	"gotr/internal/domain"
	"gotr/internal/protocol/fsm"
	"gotr/internal/protocol/gka"
	"gotr/internal/protocol/wire"
	"gotr/internal/util/memzero"
)

// rebuildCircle recomputes the ring from the validated participants,
// discards the old circle key and broadcasts the local circle value. A
// two-member ring needs no broadcast: both values are the identity.
func (r *Room) rebuildCircle() error {
	var others []domain.IdentityKey
	r.users.each(func(p *participant) {
		if fsm.Validated(p.state) {
			others = append(others, p.key)
		}
		p.state = fsm.Reset(p.state)
	})
	r.clearCircle()
	r.ring = gka.NewRing(r.self, others)
	r.log.Debug("ring changed", zap.Int("members", r.ring.Size()))

	if r.ring.Size() < 2 {
		return nil
	}
	prev, next := r.neighbourFlakes()
	r.selfX = gka.CircleX(prev, next)

	var err error
	if r.ring.Size() > 2 {
		err = r.sendAll(&wire.CircleX{
			From:   r.self,
			Digest: r.ring.Digest(),
			X:      crypto.EncodeElement(r.selfX),
		})
	}
	r.tryCompleteCircle()
	return err
}

// neighbourFlakes returns the flake keys shared with the previous and next
// ring members.
func (r *Room) neighbourFlakes() (prev, next *edwards25519.Point) {
	return r.users.bySender(r.ring.Prev()).flakeKey(), r.users.bySender(r.ring.Next()).flakeKey()
}

// tryCompleteCircle computes the circle key once every ring member has sent
// its value for the current ring. In a two-member ring the peer's value
// equals the local one.
func (r *Room) tryCompleteCircle() {
	if r.selfX == nil || r.hasCircle {
		return
	}
	digest := r.ring.Digest()
	xs := map[domain.IdentityKey]*edwards25519.Point{r.self: r.selfX}
	for _, k := range r.ring.Members() {
		if k == r.self {
			continue
		}
		if r.ring.Size() == 2 {
			xs[k] = r.selfX
			continue
		}
		p := r.users.bySender(k)
		if p == nil || p.x == nil || p.xDigest != digest {
			return
		}
		xs[k] = p.x
	}

	prev, _ := r.neighbourFlakes()
	key, err := gka.CircleKey(r.ring, prev, xs)
	if err != nil {
		r.log.Error("circle key", zap.Error(err))
		return
	}
	r.circle = key
	r.msgKey = gka.MessageKey(&key)
	r.hasCircle = true

	r.users.each(func(p *participant) {
		if next, err := fsm.Promote(p.state); err == nil {
			r.transition(p, next)
		}
	})
	r.log.Info("circle key computed",
		zap.Int("members", r.ring.Size()),
		zap.Stringer("fingerprint", r.Fingerprint()),
	)
}

// dropCircleKey forgets the circle key but keeps the ring and the local
// value, so the key can be recomputed from fresh peer values.
func (r *Room) dropCircleKey() {
	memzero.Zero(r.circle[:])
	memzero.Zero(r.msgKey[:])
	r.hasCircle = false
	r.users.each(func(p *participant) {
		p.state = fsm.Reset(p.state)
	})
}
