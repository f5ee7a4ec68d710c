// Package store provides file-based persistence for the gotr identity key.
//
// The only thing gotr ever writes to disk is the long-term private key. It
// is stored as the raw 32-byte Ed25519 seed, with no header or encoding, in a
// file readable by the owner only (0600). Writes go through a temporary file
// in the same directory followed by a rename, so a crash never leaves a
// truncated key behind. Protocol state is never persisted.
package store
