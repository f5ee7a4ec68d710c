package gka

import (
	"gotr/internal/crypto"
)

// Labels bind each derived key to its purpose.
var (
	labelPair       = []byte("gotr pair channel")
	labelEst        = []byte("est")
	labelValidation = []byte("gotr flake validation")
	labelCircle     = []byte("gotr circle key")
	labelMessage    = []byte("gotr msg auth")
)

// Engine runs key agreement steps on top of an initialised provider.
type Engine struct {
	p *crypto.Provider
}

// New returns an engine backed by p.
func New(p *crypto.Provider) *Engine { return &Engine{p: p} }

// Tag authenticates a pairwise record under the pair channel key.
func Tag(pairKey *crypto.Key, authenticated []byte) [crypto.KeySize]byte {
	return crypto.MAC(pairKey, authenticated)
}

// MessageKey derives the key that authenticates chat messages from the
// circle key.
func MessageKey(circle *crypto.Key) crypto.Key {
	return crypto.DeriveKey(circle[:], nil, labelMessage)
}
