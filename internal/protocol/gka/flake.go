package gka

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"

	"gotr/internal/crypto"
	"gotr/internal/domain"
)

var errFlakeOrder = errors.New("flake step out of order")

// Flake is one side of the four-member ring shared with a single peer.
//
// The local side owns exponents r[0], r[1] with public values z[0], z[1];
// the peer's public values are y[0], y[1]. The ring runs
// y0 → z1 → z0 → y1 → y0, which both sides agree on because each side's z
// is the other's y.
type Flake struct {
	r   [2]*edwards25519.Scalar
	z   [2]*edwards25519.Point
	y   [2]*edwards25519.Point
	x   [2]*edwards25519.Point
	key *edwards25519.Point
}

// NewFlake generates the local exponents of a flake round.
func (e *Engine) NewFlake() (*Flake, error) {
	f := &Flake{}
	for i := range f.r {
		r, z, err := e.p.GenerateKeypair()
		if err != nil {
			f.Erase()
			return nil, err
		}
		f.r[i], f.z[i] = r, z
	}
	return f, nil
}

// Z returns the encoded public values sent in FlakeZ.
func (f *Flake) Z() [2][crypto.ElementSize]byte {
	return [2][crypto.ElementSize]byte{crypto.EncodeElement(f.z[0]), crypto.EncodeElement(f.z[1])}
}

// SetPeerZ records the peer's FlakeZ values and computes the local R values.
func (e *Engine) SetPeerZ(f *Flake, y0, y1 []byte) error {
	if f.r[0] == nil {
		return fmt.Errorf("%w: %w", domain.ErrCrypto, errFlakeOrder)
	}
	var err error
	if f.y[0], err = e.p.DecodePublic(y0); err != nil {
		return fmt.Errorf("flake y0: %w", err)
	}
	if f.y[1], err = e.p.DecodePublic(y1); err != nil {
		return fmt.Errorf("flake y1: %w", err)
	}

	// R0 = r0·(y1 − z1), R1 = r1·(z0 − y0)
	d := edwards25519.NewIdentityPoint().Subtract(f.y[1], f.z[1])
	f.x[0] = edwards25519.NewIdentityPoint().ScalarMult(f.r[0], d)
	d.Subtract(f.z[0], f.y[0])
	f.x[1] = edwards25519.NewIdentityPoint().ScalarMult(f.r[1], d)
	return nil
}

// RValues returns the encoded values sent in FlakeR.
func (f *Flake) RValues() ([2][crypto.ElementSize]byte, error) {
	if f.x[0] == nil {
		return [2][crypto.ElementSize]byte{}, fmt.Errorf("%w: %w", domain.ErrCrypto, errFlakeOrder)
	}
	return [2][crypto.ElementSize]byte{crypto.EncodeElement(f.x[0]), crypto.EncodeElement(f.x[1])}, nil
}

// SetPeerR records the peer's FlakeR values and computes the flake key
//
//	flake = 4·(r1·y0) + 3·R1 + 2·R0 + V1
//
// from the local position z1 in the ring.
func (e *Engine) SetPeerR(f *Flake, v0, v1 []byte) error {
	if f.x[0] == nil || f.r[1] == nil {
		return fmt.Errorf("%w: %w", domain.ErrCrypto, errFlakeOrder)
	}
	// V0 is not part of the key from this position but must still be a
	// valid element.
	if _, err := e.p.DecodeElement(v0); err != nil {
		return fmt.Errorf("flake V0: %w", err)
	}
	V1, err := e.p.DecodeElement(v1)
	if err != nil {
		return fmt.Errorf("flake V1: %w", err)
	}

	k := edwards25519.NewIdentityPoint().ScalarMult(f.r[1], f.y[0])
	k.ScalarMult(crypto.ScalarFromUint(4), k)
	t := edwards25519.NewIdentityPoint().ScalarMult(crypto.ScalarFromUint(3), f.x[1])
	k.Add(k, t)
	t.ScalarMult(crypto.ScalarFromUint(2), f.x[0])
	k.Add(k, t)
	k.Add(k, V1)

	if k.Equal(edwards25519.NewIdentityPoint()) == 1 {
		return fmt.Errorf("%w: degenerate flake key", domain.ErrCrypto)
	}
	f.key = k
	return nil
}

// Key returns the flake key, or nil before SetPeerR succeeded.
func (f *Flake) Key() *edwards25519.Point { return f.key }

// Erase wipes the exponents. The computed key survives; it is needed by the
// circle round until the participant leaves.
func (f *Flake) Erase() {
	if f == nil {
		return
	}
	for i := range f.r {
		crypto.WipeScalar(f.r[i])
		f.r[i] = nil
	}
}

// ValidationProof proves possession of the flake key to the peer.
func ValidationProof(flake *edwards25519.Point, pairKey *crypto.Key, from, to domain.IdentityKey) [crypto.KeySize]byte {
	k := crypto.DeriveKey(flake.Bytes(), pairKey[:], labelValidation)
	return crypto.MAC(&k, from[:], to[:])
}

// VerifyValidation checks the proof received from the peer.
func VerifyValidation(
	flake *edwards25519.Point,
	pairKey *crypto.Key,
	from, to domain.IdentityKey,
	proof []byte,
) error {
	if flake == nil {
		return fmt.Errorf("%w: %w", domain.ErrCrypto, errFlakeOrder)
	}
	want := ValidationProof(flake, pairKey, from, to)
	if !crypto.Equal(want[:], proof) {
		return fmt.Errorf("%w: flake validation mismatch", domain.ErrCrypto)
	}
	return nil
}
