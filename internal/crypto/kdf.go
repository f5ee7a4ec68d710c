package crypto

import (
	"crypto/sha256"
	"crypto/subtle"
	"io"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/hkdf"
)

// KeySize is the size of every derived key, tag and digest.
const KeySize = 32

// Key is a derived symmetric key.
type Key = [KeySize]byte

// DeriveKey expands secret into a 32-byte key bound to salt and info.
func DeriveKey(secret, salt []byte, info ...[]byte) Key {
	var label []byte
	for _, p := range info {
		label = append(label, p...)
	}
	var out Key
	r := hkdf.New(sha256.New, secret, salt, label)
	_, _ = io.ReadFull(r, out[:])
	return out
}

// MAC returns the keyed BLAKE2b-256 of the concatenated parts.
func MAC(key *Key, parts ...[]byte) [KeySize]byte {
	h, _ := blake2b.New256(key[:]) // 32-byte keys are always accepted
	for _, p := range parts {
		h.Write(p)
	}
	var out [KeySize]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Digest returns the unkeyed BLAKE2b-256 of the concatenated parts.
func Digest(parts ...[]byte) [KeySize]byte {
	h, _ := blake2b.New256(nil)
	for _, p := range parts {
		h.Write(p)
	}
	var out [KeySize]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Equal compares two tags in constant time.
func Equal(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
