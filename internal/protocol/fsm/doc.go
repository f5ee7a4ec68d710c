// Package fsm holds the per-participant state machine of a gotr room.
//
// The machine is a pure transition table. It knows nothing about keys or
// messages beyond their type; the room consults it before every key
// agreement step and commits the new state only when the step succeeds.
package fsm
