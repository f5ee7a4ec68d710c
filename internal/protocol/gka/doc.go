// Package gka implements the key agreement steps of a gotr room.
//
// Three layers build on each other:
//
//   - Pair channel: a deniable triple Diffie–Hellman between two identity
//     keys and two ephemeral keys. Its key authenticates every later
//     pairwise record.
//   - Flake: a four-member Burmester–Desmet ring in which each side of a
//     pair plays two members. Both sides end with the same group element,
//     the flake key, and prove possession to each other.
//   - Circle: a Burmester–Desmet ring over the room members, sorted by
//     identity key, in which the flake keys shared with both neighbours
//     stand in for the pairwise Diffie–Hellman values. Every member ends
//     with the same circle key.
//
// Every step that consumes peer input validates it and fails with
// domain.ErrCrypto.
package gka
