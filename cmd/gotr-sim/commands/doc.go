// Package commands defines the gotr-sim CLI, which runs a whole room inside
// one process over the in-memory relay.
//
// Usage
//
//	gotr-sim [--users N] [--key-dir DIR] [--message TEXT] [--leave] [--verbose]
//
// Behaviour
//
//   - N members join one after another. After each join the relay is flushed
//     until the room is quiet, and the circle key digest of every member is
//     printed.
//   - With --key-dir, member i loads or creates DIR/user-i.key, so repeated
//     runs keep their fingerprints. Without it identities are ephemeral.
//   - The first member then sends TEXT and every other member prints what it
//     received.
//   - With --leave, the last member leaves and the rest converge again.
//   - The command exits non-zero if the members do not converge.
//
// --verbose logs every transition and dropped record with a zap development
// logger.
package commands
