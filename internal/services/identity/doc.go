// Package identity manages creation and loading of the local long-term key.
//
// The identity is an Ed25519 keypair. Its seed is persisted through a
// domain.IdentityStore; without a store every identity is ephemeral and
// nothing touches the filesystem.
package identity
