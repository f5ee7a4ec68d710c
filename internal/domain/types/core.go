package types

import "encoding/hex"

// Handle is an opaque host-supplied reference to a room or a user. The core
// stores and forwards it but never interprets it. User handles are used as map
// keys and must therefore be comparable.
type Handle any

// IdentityKey is an Ed25519 public identity key as carried on the wire.
type IdentityKey [32]byte

// Slice returns the key as a []byte.
func (k IdentityKey) Slice() []byte { return k[:] }

// String returns the hex form of the key.
func (k IdentityKey) String() string { return hex.EncodeToString(k[:]) }

// IsZero reports whether the key is unset.
func (k IdentityKey) IsZero() bool { return k == IdentityKey{} }

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }
