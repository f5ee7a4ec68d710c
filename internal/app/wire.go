package app

import (
	"go.uber.org/zap"

	"gotr/internal/crypto"
	"gotr/internal/protocol/gka"
	"gotr/internal/services/identity"
)

// Wire bundles the provider, engine and identity service for one room.
type Wire struct {
	Provider *crypto.Provider
	Engine   *gka.Engine
	Identity *identity.Service
	Logger   *zap.Logger
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config) (*Wire, error) {
	// Process-wide primitives; fails with ErrCryptoInit
	p, err := crypto.Init()
	if err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Wire{
		Provider: p,
		Engine:   gka.New(p),
		Identity: identity.ForPath(p, cfg.KeyPath),
		Logger:   log,
	}, nil
}
