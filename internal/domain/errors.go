package domain

import "errors"

// Error kinds. Callers match them with errors.Is; the returned errors wrap
// them with context.
var (
	// ErrCryptoInit means the primitives failed their start-up checks. Fatal.
	ErrCryptoInit = errors.New("crypto initialization failed")
	// ErrAllocation means a participant could not be allocated.
	ErrAllocation = errors.New("allocation failed")
	// ErrDecode means a malformed transport or binary record. The message is
	// dropped and the room is unaffected.
	ErrDecode = errors.New("decode failed")
	// ErrStateMismatch means the record is not legal in the participant's
	// current state. The message is dropped without a transition.
	ErrStateMismatch = errors.New("message not expected in current state")
	// ErrCrypto means a group arithmetic or validation failure during a key
	// agreement step. The participant moves to the error state.
	ErrCrypto = errors.New("key agreement step failed")
	// ErrAuthentication means a record carried a bad tag. The message is
	// dropped without a transition.
	ErrAuthentication = errors.New("message authentication failed")
	// ErrKeyFile means the identity key file could not be read or written.
	ErrKeyFile = errors.New("identity key file unusable")
	// ErrClosed is returned by operations on a room that has been left.
	ErrClosed = errors.New("room closed")
)
