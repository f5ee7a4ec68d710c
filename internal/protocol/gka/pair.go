package gka

import (
	"fmt"

	"filippo.io/edwards25519"

	"gotr/internal/crypto"
	"gotr/internal/domain"
	"gotr/internal/util/memzero"
)

// PairHandshake holds one side of a pair channel handshake.
type PairHandshake struct {
	eph       *edwards25519.Scalar
	Ephemeral [crypto.ElementSize]byte
}

// NewHandshake generates the ephemeral key for one side of a pair channel.
func (e *Engine) NewHandshake() (*PairHandshake, error) {
	x, X, err := e.p.GenerateKeypair()
	if err != nil {
		return nil, err
	}
	return &PairHandshake{eph: x, Ephemeral: crypto.EncodeElement(X)}, nil
}

// Erase wipes the ephemeral exponent.
func (h *PairHandshake) Erase() {
	if h == nil {
		return
	}
	crypto.WipeScalar(h.eph)
	h.eph = nil
}

// InitiatorKey completes the handshake on the side that sent
// PairChannelInit.
func (e *Engine) InitiatorKey(
	id *crypto.Identity,
	h *PairHandshake,
	peer domain.IdentityKey,
	peerEphemeral []byte,
) (crypto.Key, error) {
	IKr, Er, err := e.decodePeer(peer, peerEphemeral)
	if err != nil {
		return crypto.Key{}, err
	}
	self := id.Public()
	return pairKey(self, peer,
		edwards25519.NewIdentityPoint().ScalarMult(id.Exponent(), Er),
		edwards25519.NewIdentityPoint().ScalarMult(h.eph, IKr),
		edwards25519.NewIdentityPoint().ScalarMult(h.eph, Er),
	), nil
}

// ResponderKey completes the handshake on the side that answers with
// PairChannelEst.
func (e *Engine) ResponderKey(
	id *crypto.Identity,
	h *PairHandshake,
	peer domain.IdentityKey,
	peerEphemeral []byte,
) (crypto.Key, error) {
	IKi, Ei, err := e.decodePeer(peer, peerEphemeral)
	if err != nil {
		return crypto.Key{}, err
	}
	self := id.Public()
	return pairKey(peer, self,
		edwards25519.NewIdentityPoint().ScalarMult(h.eph, IKi),
		edwards25519.NewIdentityPoint().ScalarMult(id.Exponent(), Ei),
		edwards25519.NewIdentityPoint().ScalarMult(h.eph, Ei),
	), nil
}

// PairConfirm is the key confirmation carried in PairChannelEst.
func PairConfirm(
	key *crypto.Key,
	initiator, responder domain.IdentityKey,
	initiatorEph, responderEph [crypto.ElementSize]byte,
) [crypto.KeySize]byte {
	return crypto.MAC(key, labelEst, initiator[:], responder[:], initiatorEph[:], responderEph[:])
}

// VerifyPairConfirm checks a received PairChannelEst confirmation.
func VerifyPairConfirm(
	key *crypto.Key,
	initiator, responder domain.IdentityKey,
	initiatorEph, responderEph [crypto.ElementSize]byte,
	got []byte,
) error {
	want := PairConfirm(key, initiator, responder, initiatorEph, responderEph)
	if !crypto.Equal(want[:], got) {
		return fmt.Errorf("%w: pair channel confirmation mismatch", domain.ErrCrypto)
	}
	return nil
}

func (e *Engine) decodePeer(
	peer domain.IdentityKey,
	peerEphemeral []byte,
) (*edwards25519.Point, *edwards25519.Point, error) {
	IK, err := e.p.DecodePublic(peer[:])
	if err != nil {
		return nil, nil, fmt.Errorf("peer identity key: %w", err)
	}
	E, err := e.p.DecodePublic(peerEphemeral)
	if err != nil {
		return nil, nil, fmt.Errorf("peer ephemeral key: %w", err)
	}
	return IK, E, nil
}

// pairKey derives the channel key from the three shared values, ordered as
// seen by the initiator.
func pairKey(initiator, responder domain.IdentityKey, dh1, dh2, dh3 *edwards25519.Point) crypto.Key {
	secret := make([]byte, 0, 3*crypto.ElementSize)
	secret = append(secret, dh1.Bytes()...)
	secret = append(secret, dh2.Bytes()...)
	secret = append(secret, dh3.Bytes()...)
	defer memzero.Zero(secret)

	return crypto.DeriveKey(secret, nil, labelPair, initiator[:], responder[:])
}
