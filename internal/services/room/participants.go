package room

import (
	"fmt"
	"reflect"

	"filippo.io/edwards25519"

	"gotr/internal/crypto"
	"gotr/internal/domain"
	"gotr/internal/protocol/gka"
	"gotr/internal/util/memzero"
)

// participant is the local view of one remote user.
type participant struct {
	handle domain.Handle
	key    domain.IdentityKey
	bound  bool // key is known
	state  domain.State

	initiator bool
	handshake *gka.PairHandshake
	pairKey   crypto.Key
	flake     *gka.Flake

	// last circle value received, and the ring it was computed for
	x       *edwards25519.Point
	xDigest [crypto.KeySize]byte
}

func (p *participant) flakeKey() *edwards25519.Point {
	if p.flake == nil {
		return nil
	}
	return p.flake.Key()
}

// erase wipes every secret the participant holds.
func (p *participant) erase() {
	p.handshake.Erase()
	p.handshake = nil
	p.flake.Erase()
	p.flake = nil
	memzero.Zero(p.pairKey[:])
	p.x = nil
}

// reset returns the participant to Unknown, keeping its handle.
func (p *participant) reset() {
	p.erase()
	p.key = domain.IdentityKey{}
	p.bound = false
	p.state = domain.StateUnknown
	p.initiator = false
	p.xDigest = [crypto.KeySize]byte{}
}

// arena stores participants in index-stable slots. Freed slots are reused.
type arena struct {
	slots    []*participant
	free     []int
	byHandle map[domain.Handle]int
	byKey    map[domain.IdentityKey]int
	limit    int
}

func newArena(limit int) *arena {
	return &arena{
		byHandle: make(map[domain.Handle]int),
		byKey:    make(map[domain.IdentityKey]int),
		limit:    limit,
	}
}

// checkHandle rejects handles that cannot be used as map keys. nil is
// rejected too.
func checkHandle(h domain.Handle) error {
	if !reflect.ValueOf(h).Comparable() {
		return fmt.Errorf("%w: user handle %T is not comparable", domain.ErrAllocation, h)
	}
	return nil
}

func (a *arena) len() int { return len(a.byHandle) }

// alloc places a new participant with handle h in a free slot.
func (a *arena) alloc(h domain.Handle) (*participant, error) {
	if err := checkHandle(h); err != nil {
		return nil, err
	}
	if _, ok := a.byHandle[h]; ok {
		return nil, fmt.Errorf("%w: user handle already allocated", domain.ErrAllocation)
	}
	if a.len() >= a.limit {
		return nil, fmt.Errorf("%w: room is limited to %d users", domain.ErrAllocation, a.limit)
	}

	p := &participant{handle: h, state: domain.StateUnknown}
	var idx int
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
		a.slots[idx] = p
	} else {
		idx = len(a.slots)
		a.slots = append(a.slots, p)
	}
	a.byHandle[h] = idx
	return p, nil
}

// bind records the identity key of p once its pair channel is established.
func (a *arena) bind(p *participant, key domain.IdentityKey) {
	idx := a.byHandle[p.handle]
	p.key = key
	p.bound = true
	a.byKey[key] = idx
}

func (a *arena) byUser(h domain.Handle) *participant {
	if checkHandle(h) != nil {
		return nil
	}
	idx, ok := a.byHandle[h]
	if !ok {
		return nil
	}
	return a.slots[idx]
}

func (a *arena) bySender(key domain.IdentityKey) *participant {
	idx, ok := a.byKey[key]
	if !ok {
		return nil
	}
	return a.slots[idx]
}

// unbind forgets the identity key of p, as after a restart.
func (a *arena) unbind(p *participant) {
	if p.bound {
		delete(a.byKey, p.key)
	}
}

// remove erases p and frees its slot.
func (a *arena) remove(p *participant) {
	idx, ok := a.byHandle[p.handle]
	if !ok {
		return
	}
	a.unbind(p)
	p.erase()
	delete(a.byHandle, p.handle)
	a.slots[idx] = nil
	a.free = append(a.free, idx)
}

// each calls fn for every live participant in slot order.
func (a *arena) each(fn func(*participant)) {
	for _, p := range a.slots {
		if p != nil {
			fn(p)
		}
	}
}
