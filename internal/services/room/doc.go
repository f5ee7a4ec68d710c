// Package room implements the chatroom orchestrator.
//
// A Room owns the local identity, one participant per remote user and the
// state of the circle round. The host drives it through four calls:
//   - UserJoined: a user appeared; open a pair channel with them.
//   - ReceiveUser / Receive: a record arrived, directly or by broadcast.
//   - UserLeft: a user disappeared; drop them and rebuild the circle.
//   - Leave: tear everything down and erase the key material.
//
// Every received record runs the same pipeline: base64, wire.Parse, sender
// lookup, state machine check, tag check, key agreement step, encode and
// callback. A failure anywhere before the step commits leaves the room
// unchanged. A cryptographic failure during the step moves only the sending
// participant to the error state.
//
// The room is not safe for concurrent use. Hosts must not call into it from
// inside a Host callback; internal/relay shows a queueing host.
package room
