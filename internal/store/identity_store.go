package store

import (
	"fmt"
	"sync"

	"gotr/internal/crypto"
	"gotr/internal/domain"
)

// SeedSize is the size of an identity key file.
const SeedSize = crypto.SeedSize

// IdentityFileStore persists the local identity as a raw 32-byte private key
// with no header, readable by the owner only.
type IdentityFileStore struct {
	path string
	mu   sync.Mutex
}

// NewIdentityFileStore returns an IdentityFileStore for the file at path.
func NewIdentityFileStore(path string) *IdentityFileStore {
	return &IdentityFileStore{path: path}
}

// Path returns the key file location.
func (s *IdentityFileStore) Path() string { return s.path }

// SaveIdentity writes the key with mode 0600. An existing file is replaced
// atomically.
func (s *IdentityFileStore) SaveIdentity(seed []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(seed) != SeedSize {
		return fmt.Errorf("%w: key is %d bytes, want %d", domain.ErrKeyFile, len(seed), SeedSize)
	}
	if err := writeFile(s.path, seed, 0o600); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrKeyFile, err)
	}
	return nil
}

// CreateIdentity is SaveIdentity that refuses to overwrite an existing file.
func (s *IdentityFileStore) CreateIdentity(seed []byte) error {
	s.mu.Lock()
	ok, err := exists(s.path)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrKeyFile, err)
	}
	if ok {
		return fmt.Errorf("%w: %s already exists", domain.ErrKeyFile, s.path)
	}
	return s.SaveIdentity(seed)
}

// LoadIdentity reads the key. ok is false when the file does not exist.
func (s *IdentityFileStore) LoadIdentity() ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := readFile(s.path)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", domain.ErrKeyFile, err)
	}
	if b == nil {
		return nil, false, nil
	}
	if len(b) != SeedSize {
		return nil, false, fmt.Errorf("%w: %s is %d bytes, want %d",
			domain.ErrKeyFile, s.path, len(b), SeedSize)
	}
	return b, true, nil
}

// Compile-time assertion that IdentityFileStore implements domain.IdentityStore.
var _ domain.IdentityStore = (*IdentityFileStore)(nil)
