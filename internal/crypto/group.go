package crypto

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"filippo.io/edwards25519"

	"gotr/internal/domain"
	"gotr/internal/util/memzero"
)

// ElementSize is the size of an encoded group element.
const ElementSize = 32

// GenerateKeypair returns a fresh ephemeral exponent and its public element.
func (p *Provider) GenerateKeypair() (*edwards25519.Scalar, *edwards25519.Point, error) {
	var buf [64]byte
	defer memzero.Zero(buf[:])

	if _, err := io.ReadFull(p.rand, buf[:]); err != nil {
		return nil, nil, fmt.Errorf("%w: reading randomness: %v", domain.ErrCrypto, err)
	}
	x, err := edwards25519.NewScalar().SetUniformBytes(buf[:])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrCrypto, err)
	}
	if x.Equal(edwards25519.NewScalar()) == 1 {
		return nil, nil, fmt.Errorf("%w: zero exponent", domain.ErrCrypto)
	}
	return x, edwards25519.NewIdentityPoint().ScalarBaseMult(x), nil
}

// DecodeElement parses a canonical element of the prime-order subgroup. The
// identity is allowed.
func (p *Provider) DecodeElement(b []byte) (*edwards25519.Point, error) {
	if len(b) != ElementSize {
		return nil, fmt.Errorf("%w: element is %d bytes", domain.ErrCrypto, len(b))
	}
	P, err := edwards25519.NewIdentityPoint().SetBytes(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCrypto, err)
	}
	if !bytes.Equal(P.Bytes(), b) {
		return nil, fmt.Errorf("%w: non-canonical element", domain.ErrCrypto)
	}
	if !p.inPrimeOrderSubgroup(P) {
		return nil, fmt.Errorf("%w: element outside prime-order subgroup", domain.ErrCrypto)
	}
	return P, nil
}

// DecodePublic is DecodeElement for Diffie–Hellman public values, which must
// not be the identity.
func (p *Provider) DecodePublic(b []byte) (*edwards25519.Point, error) {
	P, err := p.DecodeElement(b)
	if err != nil {
		return nil, err
	}
	if P.Equal(edwards25519.NewIdentityPoint()) == 1 {
		return nil, fmt.Errorf("%w: identity public value", domain.ErrCrypto)
	}
	return P, nil
}

// EncodeElement returns the canonical encoding of P.
func EncodeElement(P *edwards25519.Point) [ElementSize]byte {
	var out [ElementSize]byte
	copy(out[:], P.Bytes())
	return out
}

// ScalarFromUint returns n as a scalar.
func ScalarFromUint(n uint64) *edwards25519.Scalar {
	var b [32]byte
	binary.LittleEndian.PutUint64(b[:8], n)
	s, err := edwards25519.NewScalar().SetCanonicalBytes(b[:])
	if err != nil {
		// any uint64 is below the group order
		panic("crypto: small scalar rejected: " + err.Error())
	}
	return s
}
