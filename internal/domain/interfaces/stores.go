package interfaces

// IdentityStore persists the raw long-term identity key.
type IdentityStore interface {
	// LoadIdentity returns the stored key bytes. ok is false when nothing has
	// been stored yet.
	LoadIdentity() (seed []byte, ok bool, err error)
	SaveIdentity(seed []byte) error
}
