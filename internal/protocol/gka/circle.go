package gka

import (
	"bytes"
	"fmt"
	"slices"

	"filippo.io/edwards25519"

	"gotr/internal/crypto"
	"gotr/internal/domain"
)

// Ring is the ordered membership of a circle round.
type Ring struct {
	members []domain.IdentityKey
	self    int
	digest  [crypto.KeySize]byte
}

// NewRing orders self and others by identity key. Duplicates of self in
// others are ignored.
func NewRing(self domain.IdentityKey, others []domain.IdentityKey) *Ring {
	members := make([]domain.IdentityKey, 0, len(others)+1)
	members = append(members, self)
	for _, o := range others {
		if o != self {
			members = append(members, o)
		}
	}
	slices.SortFunc(members, func(a, b domain.IdentityKey) int { return bytes.Compare(a[:], b[:]) })
	members = slices.Compact(members)

	r := &Ring{members: members}
	r.self = slices.Index(members, self)

	parts := make([][]byte, len(members))
	for i := range members {
		parts[i] = members[i][:]
	}
	r.digest = crypto.Digest(parts...)
	return r
}

// Size returns the number of members including self.
func (r *Ring) Size() int { return len(r.members) }

// Digest identifies the membership.
func (r *Ring) Digest() [crypto.KeySize]byte { return r.digest }

// Members returns the ordered membership.
func (r *Ring) Members() []domain.IdentityKey { return slices.Clone(r.members) }

// Prev returns the member before self.
func (r *Ring) Prev() domain.IdentityKey {
	return r.members[(r.self+len(r.members)-1)%len(r.members)]
}

// Next returns the member after self.
func (r *Ring) Next() domain.IdentityKey {
	return r.members[(r.self+1)%len(r.members)]
}

// CircleX is the value self broadcasts: the flake key shared with the next
// member minus the one shared with the previous member.
func CircleX(prev, next *edwards25519.Point) *edwards25519.Point {
	return edwards25519.NewIdentityPoint().Subtract(next, prev)
}

// DecodeX parses a received CircleX value. The identity is legal; it is what
// a two-member ring produces.
func (e *Engine) DecodeX(b []byte) (*edwards25519.Point, error) {
	X, err := e.p.DecodeElement(b)
	if err != nil {
		return nil, fmt.Errorf("circle X: %w", err)
	}
	return X, nil
}

// CircleKey combines the flake key shared with the previous member and the X
// values of every member, self included:
//
//	K = n·f_prev + Σ_{k=0}^{n−2} (n−1−k)·X_{(s+k) mod n}
//
// which equals the sum of the flake keys around the ring for every member.
func CircleKey(r *Ring, prev *edwards25519.Point, xs map[domain.IdentityKey]*edwards25519.Point) (crypto.Key, error) {
	n := len(r.members)
	if n < 2 {
		return crypto.Key{}, fmt.Errorf("%w: circle needs at least two members", domain.ErrCrypto)
	}

	K := edwards25519.NewIdentityPoint().ScalarMult(crypto.ScalarFromUint(uint64(n)), prev)
	t := edwards25519.NewIdentityPoint()
	for k := 0; k <= n-2; k++ {
		member := r.members[(r.self+k)%n]
		X, ok := xs[member]
		if !ok {
			return crypto.Key{}, fmt.Errorf("%w: missing circle value of %s", domain.ErrCrypto, member)
		}
		t.ScalarMult(crypto.ScalarFromUint(uint64(n-1-k)), X)
		K.Add(K, t)
	}

	if K.Equal(edwards25519.NewIdentityPoint()) == 1 {
		return crypto.Key{}, fmt.Errorf("%w: degenerate circle key", domain.ErrCrypto)
	}
	return crypto.DeriveKey(K.Bytes(), r.digest[:], labelCircle), nil
}
