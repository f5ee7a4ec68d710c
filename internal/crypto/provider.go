package crypto

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"

	"filippo.io/edwards25519"

	"gotr/internal/domain"
)

// Provider is the capability every group operation hangs off. Obtain it from
// Init.
type Provider struct {
	rand        io.Reader
	cofactorInv *edwards25519.Scalar
}

var (
	initOnce sync.Once
	provider *Provider
	initErr  error
)

// Init runs the start-up checks once per process and returns the shared
// Provider. Later calls return the same Provider, or the same error.
func Init() (*Provider, error) {
	initOnce.Do(func() {
		provider, initErr = newProvider(rand.Reader)
	})
	return provider, initErr
}

func newProvider(r io.Reader) (*Provider, error) {
	probe := make([]byte, 64)
	if _, err := io.ReadFull(r, probe); err != nil {
		return nil, fmt.Errorf("%w: randomness source: %v", domain.ErrCryptoInit, err)
	}

	p := &Provider{
		rand:        r,
		cofactorInv: edwards25519.NewScalar().Invert(ScalarFromUint(8)),
	}

	// generator self test: x·G must match the fixed-base result and stay in
	// the prime-order subgroup
	x, X, err := p.GenerateKeypair()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCryptoInit, err)
	}
	defer WipeScalar(x)
	Y := edwards25519.NewIdentityPoint().ScalarMult(x, edwards25519.NewGeneratorPoint())
	if Y.Equal(X) != 1 || !p.inPrimeOrderSubgroup(X) {
		return nil, fmt.Errorf("%w: group self test failed", domain.ErrCryptoInit)
	}
	return p, nil
}

// inPrimeOrderSubgroup reports whether P has no small-order component:
// [8⁻¹]([8]P) recovers P only then.
func (p *Provider) inPrimeOrderSubgroup(P *edwards25519.Point) bool {
	t := edwards25519.NewIdentityPoint().MultByCofactor(P)
	t.ScalarMult(p.cofactorInv, t)
	return t.Equal(P) == 1
}
