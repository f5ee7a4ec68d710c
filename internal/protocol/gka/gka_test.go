package gka_test

import (
	"bytes"
	"fmt"
	"testing"

	"filippo.io/edwards25519"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gotr/internal/crypto"
	"gotr/internal/domain"
	"gotr/internal/protocol/gka"
)

func engine(t *testing.T) (*gka.Engine, *crypto.Provider) {
	t.Helper()
	p, err := crypto.Init()
	require.NoError(t, err)
	return gka.New(p), p
}

func identity(t *testing.T, p *crypto.Provider) *crypto.Identity {
	t.Helper()
	id, err := p.GenerateIdentity()
	require.NoError(t, err)
	t.Cleanup(id.Erase)
	return id
}

// pairKeys runs a full handshake and returns both sides' keys.
func pairKeys(t *testing.T, e *gka.Engine, alice, bob *crypto.Identity) (crypto.Key, crypto.Key) {
	t.Helper()
	hi, err := e.NewHandshake()
	require.NoError(t, err)
	hr, err := e.NewHandshake()
	require.NoError(t, err)
	defer hi.Erase()
	defer hr.Erase()

	kr, err := e.ResponderKey(bob, hr, alice.Public(), hi.Ephemeral[:])
	require.NoError(t, err)
	confirm := gka.PairConfirm(&kr, alice.Public(), bob.Public(), hi.Ephemeral, hr.Ephemeral)

	ki, err := e.InitiatorKey(alice, hi, bob.Public(), hr.Ephemeral[:])
	require.NoError(t, err)
	require.NoError(t, gka.VerifyPairConfirm(&ki, alice.Public(), bob.Public(), hi.Ephemeral, hr.Ephemeral, confirm[:]))
	return ki, kr
}

func TestPairChannel_BothSidesAgree(t *testing.T) {
	e, p := engine(t)
	alice, bob := identity(t, p), identity(t, p)

	ki, kr := pairKeys(t, e, alice, bob)
	assert.Equal(t, ki, kr)

	// a second run with fresh ephemerals yields a different key
	ki2, _ := pairKeys(t, e, alice, bob)
	assert.NotEqual(t, ki, ki2)
}

func TestPairChannel_WrongIdentityDisagrees(t *testing.T) {
	e, p := engine(t)
	alice, bob, mallory := identity(t, p), identity(t, p), identity(t, p)

	hi, err := e.NewHandshake()
	require.NoError(t, err)
	hr, err := e.NewHandshake()
	require.NoError(t, err)

	// bob believes the initiator is mallory
	kr, err := e.ResponderKey(bob, hr, mallory.Public(), hi.Ephemeral[:])
	require.NoError(t, err)
	confirm := gka.PairConfirm(&kr, mallory.Public(), bob.Public(), hi.Ephemeral, hr.Ephemeral)

	ki, err := e.InitiatorKey(alice, hi, bob.Public(), hr.Ephemeral[:])
	require.NoError(t, err)
	err = gka.VerifyPairConfirm(&ki, alice.Public(), bob.Public(), hi.Ephemeral, hr.Ephemeral, confirm[:])
	assert.ErrorIs(t, err, domain.ErrCrypto)
}

func TestPairChannel_RejectsBadEphemeral(t *testing.T) {
	e, p := engine(t)
	alice, bob := identity(t, p), identity(t, p)
	h, err := e.NewHandshake()
	require.NoError(t, err)

	identityPoint := edwards25519.NewIdentityPoint().Bytes()
	for name, b := range map[string][]byte{
		"identity": identityPoint,
		"short":    identityPoint[:31],
		"garbage":  bytes.Repeat([]byte{0xff}, 32),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := e.ResponderKey(bob, h, alice.Public(), b)
			assert.ErrorIs(t, err, domain.ErrCrypto)
		})
	}
}

// runFlake plays both sides of a flake round in protocol order.
func runFlake(t *testing.T, e *gka.Engine) (*gka.Flake, *gka.Flake) {
	t.Helper()
	a, err := e.NewFlake()
	require.NoError(t, err)
	b, err := e.NewFlake()
	require.NoError(t, err)

	za, zb := a.Z(), b.Z()
	require.NoError(t, e.SetPeerZ(b, za[0][:], za[1][:]))
	require.NoError(t, e.SetPeerZ(a, zb[0][:], zb[1][:]))

	ra, err := a.RValues()
	require.NoError(t, err)
	rb, err := b.RValues()
	require.NoError(t, err)
	require.NoError(t, e.SetPeerR(b, ra[0][:], ra[1][:]))
	require.NoError(t, e.SetPeerR(a, rb[0][:], rb[1][:]))
	return a, b
}

func TestFlake_Converges(t *testing.T) {
	e, _ := engine(t)
	for i := 0; i < 8; i++ {
		a, b := runFlake(t, e)
		require.NotNil(t, a.Key())
		assert.Equal(t, 1, a.Key().Equal(b.Key()), "round %d", i)
	}
}

func TestFlake_ValidationProof(t *testing.T) {
	e, p := engine(t)
	alice, bob := identity(t, p), identity(t, p)
	ki, kr := pairKeys(t, e, alice, bob)
	a, b := runFlake(t, e)
	a.Erase()
	b.Erase()

	proof := gka.ValidationProof(a.Key(), &ki, alice.Public(), bob.Public())
	assert.NoError(t, gka.VerifyValidation(b.Key(), &kr, alice.Public(), bob.Public(), proof[:]))

	// proofs are directional
	assert.ErrorIs(t, gka.VerifyValidation(b.Key(), &kr, bob.Public(), alice.Public(), proof[:]), domain.ErrCrypto)

	// a flake from another round does not validate
	c, _ := runFlake(t, e)
	assert.ErrorIs(t, gka.VerifyValidation(c.Key(), &kr, alice.Public(), bob.Public(), proof[:]), domain.ErrCrypto)
}

func TestFlake_OutOfOrder(t *testing.T) {
	e, _ := engine(t)
	f, err := e.NewFlake()
	require.NoError(t, err)

	_, err = f.RValues()
	assert.ErrorIs(t, err, domain.ErrCrypto)

	z := f.Z()
	assert.ErrorIs(t, e.SetPeerR(f, z[0][:], z[1][:]), domain.ErrCrypto)
	assert.Nil(t, f.Key())
}

func TestFlake_RejectsIdentityZ(t *testing.T) {
	e, _ := engine(t)
	f, err := e.NewFlake()
	require.NoError(t, err)
	id := edwards25519.NewIdentityPoint().Bytes()
	z := f.Z()
	assert.ErrorIs(t, e.SetPeerZ(f, id, z[1][:]), domain.ErrCrypto)
	assert.ErrorIs(t, e.SetPeerZ(f, z[0][:], id), domain.ErrCrypto)
}

func TestRing_Ordering(t *testing.T) {
	var a, b, c domain.IdentityKey
	a[0], b[0], c[0] = 1, 2, 3

	r := gka.NewRing(b, []domain.IdentityKey{c, a, b})
	assert.Equal(t, 3, r.Size())
	assert.Equal(t, []domain.IdentityKey{a, b, c}, r.Members())
	assert.Equal(t, a, r.Prev())
	assert.Equal(t, c, r.Next())

	// every member derives the same digest regardless of input order
	assert.Equal(t, r.Digest(), gka.NewRing(a, []domain.IdentityKey{b, c}).Digest())
	assert.NotEqual(t, r.Digest(), gka.NewRing(a, []domain.IdentityKey{b}).Digest())

	solo := gka.NewRing(a, nil)
	assert.Equal(t, 1, solo.Size())
	assert.Equal(t, a, solo.Prev())
	assert.Equal(t, a, solo.Next())
}

func TestCircleKey_Converges(t *testing.T) {
	e, p := engine(t)
	for n := 2; n <= 6; n++ {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			ids := make([]domain.IdentityKey, n)
			for i := range ids {
				ids[i] = identity(t, p).Public()
			}

			// flake keys between every pair, symmetric
			flake := map[[2]domain.IdentityKey]*edwards25519.Point{}
			for i := range ids {
				for j := i + 1; j < n; j++ {
					_, P, err := p.GenerateKeypair()
					require.NoError(t, err)
					flake[[2]domain.IdentityKey{ids[i], ids[j]}] = P
					flake[[2]domain.IdentityKey{ids[j], ids[i]}] = P
				}
			}

			rings := make([]*gka.Ring, n)
			xs := map[domain.IdentityKey]*edwards25519.Point{}
			for i, self := range ids {
				rings[i] = gka.NewRing(self, ids)
				prev := flake[[2]domain.IdentityKey{self, rings[i].Prev()}]
				next := flake[[2]domain.IdentityKey{self, rings[i].Next()}]
				X := gka.CircleX(prev, next)

				// what peers see comes off the wire
				enc := crypto.EncodeElement(X)
				xs[self], _ = e.DecodeX(enc[:])
				require.NotNil(t, xs[self])
			}

			var want crypto.Key
			for i, self := range ids {
				prev := flake[[2]domain.IdentityKey{self, rings[i].Prev()}]
				k, err := gka.CircleKey(rings[i], prev, xs)
				require.NoError(t, err)
				if i == 0 {
					want = k
					continue
				}
				assert.Equal(t, want, k, "member %d", i)
			}
		})
	}
}

func TestCircleKey_MissingValue(t *testing.T) {
	_, p := engine(t)
	a, b, c := identity(t, p).Public(), identity(t, p).Public(), identity(t, p).Public()
	_, f, err := p.GenerateKeypair()
	require.NoError(t, err)

	r := gka.NewRing(a, []domain.IdentityKey{b, c})
	_, err = gka.CircleKey(r, f, map[domain.IdentityKey]*edwards25519.Point{a: f})
	assert.ErrorIs(t, err, domain.ErrCrypto)

	_, err = gka.CircleKey(gka.NewRing(a, nil), f, nil)
	assert.ErrorIs(t, err, domain.ErrCrypto)
}

func TestMessageKey_Separated(t *testing.T) {
	var circle crypto.Key
	circle[0] = 7
	mk := gka.MessageKey(&circle)
	assert.NotEqual(t, circle, mk)
	assert.Equal(t, mk, gka.MessageKey(&circle))
}
