// Package crypto exposes the primitives used by gotr.
//
// Contents
//
//   - One-time initialisation returning the Provider capability (Init)
//   - Ephemeral Diffie–Hellman elements in the prime-order edwards25519
//     subgroup (GenerateKeypair, DecodeElement, DecodePublic)
//   - Ed25519 identity keys and their Diffie–Hellman view (Identity)
//   - HKDF-SHA256 key derivation and keyed BLAKE2b tags (DeriveKey, MAC)
//   - Transport base64 (B64, FromB64)
//   - Short public-key fingerprints for display/logging (Fingerprint)
//   - Best-effort wiping of secret scalars and byte slices (WipeScalar)
//
// # Notes
//
// Every group element received from a peer must pass DecodeElement or
// DecodePublic before use. Both reject non-canonical encodings and points
// outside the prime-order subgroup, so byte equality of two encodings is
// equality of the elements.
package crypto
