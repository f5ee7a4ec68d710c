package crypto

import (
	"crypto/ed25519"
	"crypto/sha512"
	"fmt"
	"io"

	"filippo.io/edwards25519"

	"gotr/internal/domain"
	"gotr/internal/util/memzero"
)

// SeedSize is the size of a persisted identity key.
const SeedSize = ed25519.SeedSize

// Identity carries the long-term Ed25519 key and the Diffie–Hellman exponent
// derived from it for the pair channel.
type Identity struct {
	priv ed25519.PrivateKey
	pub  domain.IdentityKey
	dh   *edwards25519.Scalar
}

// GenerateIdentity creates a fresh identity.
func (p *Provider) GenerateIdentity() (*Identity, error) {
	seed := make([]byte, SeedSize)
	defer memzero.Zero(seed)

	if _, err := io.ReadFull(p.rand, seed); err != nil {
		return nil, fmt.Errorf("%w: reading randomness: %v", domain.ErrCrypto, err)
	}
	return NewIdentityFromSeed(seed)
}

// NewIdentityFromSeed rebuilds an identity from its persisted seed. The seed
// is copied.
func NewIdentityFromSeed(seed []byte) (*Identity, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("%w: identity seed is %d bytes, want %d",
			domain.ErrKeyFile, len(seed), SeedSize)
	}

	priv := ed25519.NewKeyFromSeed(seed)
	id := &Identity{priv: priv}
	copy(id.pub[:], priv.Public().(ed25519.PublicKey))

	// same clamped scalar Ed25519 uses, so a·IK = a·s·G for every peer
	h := sha512.Sum512(seed)
	defer memzero.Zero(h[:])
	dh, err := edwards25519.NewScalar().SetBytesWithClamping(h[:32])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCrypto, err)
	}
	id.dh = dh
	return id, nil
}

// Public returns the public identity key.
func (id *Identity) Public() domain.IdentityKey { return id.pub }

// Seed returns a copy of the private seed for persistence.
func (id *Identity) Seed() []byte { return append([]byte(nil), id.priv.Seed()...) }

// Exponent returns the Diffie–Hellman exponent of the identity.
func (id *Identity) Exponent() *edwards25519.Scalar { return id.dh }

// Erase zeroes the private material. The identity is unusable afterwards.
func (id *Identity) Erase() {
	if id == nil {
		return
	}
	memzero.Zero(id.priv)
	WipeScalar(id.dh)
	id.priv = nil
	id.dh = nil
}
