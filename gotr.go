package gotr

import (
	"gotr/internal/app"
	"gotr/internal/crypto"
	"gotr/internal/domain"
	"gotr/internal/services/room"
)

type (
	// Room is one chatroom from the point of view of the local user.
	Room = room.Room
	// Host is the transport the application supplies.
	Host = domain.Host
	// Handle is an opaque room or user reference owned by the host.
	Handle = domain.Handle
	// Config configures Join.
	Config = app.Config
	// State is the protocol state of a remote user.
	State = domain.State
	// IdentityKey is a public identity key.
	IdentityKey = domain.IdentityKey
	// Fingerprint is a short printable form of an identity key.
	Fingerprint = domain.Fingerprint
)

// User states.
const (
	StateUnknown                = domain.StateUnknown
	StatePairChannelInit        = domain.StatePairChannelInit
	StatePairChannelEstablished = domain.StatePairChannelEstablished
	StateFlakeZExchanged        = domain.StateFlakeZExchanged
	StateFlakeRExchanged        = domain.StateFlakeRExchanged
	StateFlakeValidated         = domain.StateFlakeValidated
	StateCircleKeyComputed      = domain.StateCircleKeyComputed
	StateError                  = domain.StateError
)

// Errors returned by the package. Match them with errors.Is.
var (
	ErrCryptoInit     = domain.ErrCryptoInit
	ErrAllocation     = domain.ErrAllocation
	ErrDecode         = domain.ErrDecode
	ErrStateMismatch  = domain.ErrStateMismatch
	ErrCrypto         = domain.ErrCrypto
	ErrAuthentication = domain.ErrAuthentication
	ErrKeyFile        = domain.ErrKeyFile
	ErrClosed         = domain.ErrClosed
)

// Init checks the cryptographic primitives. Call it once before Join;
// later calls return the first result.
func Init() error {
	_, err := crypto.Init()
	return err
}

// Join enters a room. The identity is loaded from cfg.KeyPath, or generated
// and saved there with mode 0600 if the file does not exist. An empty
// KeyPath uses a fresh identity and touches no file.
func Join(host Host, cfg Config) (*Room, error) {
	return app.Join(host, cfg)
}
