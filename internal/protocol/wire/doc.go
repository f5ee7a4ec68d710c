// Package wire implements the binary layout of every gotr protocol record.
//
// # Record Format
//
// Every record starts with a 34-byte header:
//   - Version (1 byte): 0x01
//   - Type (1 byte): message type tag
//   - Sender (32 bytes): Ed25519 public identity key of the sender
//
// followed by a type-specific payload. All records except Msg have a fixed
// total size; Msg carries a 4-byte big-endian body length. Records exchanged
// on an established pair channel, and Msg, end in a 32-byte tag over every
// preceding byte (see AuthenticatedBytes).
//
//	PairChannelInit   header | ephemeral(32)                    66 bytes
//	PairChannelEst    header | ephemeral(32) | confirm(32)      98 bytes
//	FlakeZ            header | z0(32) | z1(32) | tag(32)       130 bytes
//	FlakeR            header | R0(32) | R1(32) | tag(32)       130 bytes
//	FlakeValidation   header | proof(32) | tag(32)              98 bytes
//	CircleX           header | ring digest(32) | X(32)          98 bytes
//	Msg               header | length(4) | body | tag(32)   70+n bytes
//
// The package only moves bytes. It performs no cryptography and no group
// element validation; Parse guarantees only that the record is well formed.
package wire
