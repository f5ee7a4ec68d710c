// Package relay provides an in-memory transport implementing the
// domain.Host callbacks for a set of rooms living in one process.
//
// The hub acts as a store-and-forward service between members. Records handed
// to SendAll or SendUser are queued and delivered in FIFO order by Flush, so
// a room is never re-entered from inside one of its own callbacks.
//
// Supported operations include:
//   - Attaching a member and announcing it to the existing members.
//   - Broadcasting a record to every other member.
//   - Sending a record to one member.
//   - Collecting chat messages each member authenticated.
//   - Detaching a member and announcing its departure.
package relay
