// Package gotr is the cryptographic core of a deniable, forward-secret group
// chat.
//
// Members of a room agree on a shared circle key with a two-level
// Burmester–Desmet key agreement. Each pair of members first runs a four-node
// ring, the flake, over a deniable pair channel. The room then runs a ring
// over all members in which the flake keys shared with both neighbours
// replace the pairwise Diffie–Hellman values.
//
// The package does no I/O of its own apart from the optional identity key
// file. All records leave through the Host callbacks as base64 strings and
// come back in through Room.Receive or Room.ReceiveUser:
//
//	if err := gotr.Init(); err != nil {
//		return err
//	}
//	room, err := gotr.Join(host, gotr.Config{KeyPath: "alice.key", Handle: "lobby"})
//	if err != nil {
//		return err
//	}
//	defer room.Leave()
//
//	room.UserJoined(bob)              // host saw bob arrive
//	room.ReceiveUser(bob, record)     // host got a record from bob
//	if room.Secure() {
//		room.Send([]byte("hello"))
//	}
//
// A Room is not safe for concurrent use and must not be called from inside
// one of its own Host callbacks.
package gotr
