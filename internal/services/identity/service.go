package identity

import (
	"gotr/internal/crypto"
	"gotr/internal/domain"
	"gotr/internal/store"
	"gotr/internal/util/memzero"
)

// Service manages identity key creation and access using a backing store.
type Service struct {
	provider *crypto.Provider
	store    domain.IdentityStore
}

// New returns an identity service backed by the given store. A nil store
// makes every identity ephemeral.
func New(p *crypto.Provider, s domain.IdentityStore) *Service {
	return &Service{provider: p, store: s}
}

// ForPath returns a service persisting to the key file at path. An empty
// path yields an ephemeral service.
func ForPath(p *crypto.Provider, path string) *Service {
	if path == "" {
		return New(p, nil)
	}
	return New(p, store.NewIdentityFileStore(path))
}

// LoadOrGenerate returns the stored identity, or generates one and persists
// it before returning. Loading the same store twice yields the same key.
//
// A stored key of the wrong size, or a failed write, is domain.ErrKeyFile.
func (s *Service) LoadOrGenerate() (*crypto.Identity, error) {
	if s.store == nil {
		return s.provider.GenerateIdentity()
	}

	seed, ok, err := s.store.LoadIdentity()
	if err != nil {
		return nil, err
	}
	if ok {
		defer memzero.Zero(seed)
		return crypto.NewIdentityFromSeed(seed)
	}

	id, err := s.provider.GenerateIdentity()
	if err != nil {
		return nil, err
	}
	fresh := id.Seed()
	defer memzero.Zero(fresh)
	if err := s.store.SaveIdentity(fresh); err != nil {
		id.Erase()
		return nil, err
	}
	return id, nil
}

// Generate creates a fresh identity and returns its seed for the caller to
// persist. The identity itself is erased.
func (s *Service) Generate() ([]byte, domain.Fingerprint, error) {
	id, err := s.provider.GenerateIdentity()
	if err != nil {
		return nil, "", err
	}
	defer id.Erase()
	return id.Seed(), crypto.Fingerprint(id.Public()), nil
}

// Fingerprint returns a short fingerprint of the identity's public key.
func Fingerprint(id *crypto.Identity) domain.Fingerprint {
	return crypto.Fingerprint(id.Public())
}
