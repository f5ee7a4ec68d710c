package app

import (
	"fmt"

	"go.uber.org/zap"

	"gotr/internal/domain"
	"gotr/internal/services/room"
)

// Join loads or creates the identity at cfg.KeyPath and enters a room that
// talks to the world through host.
func Join(host domain.Host, cfg Config) (*room.Room, error) {
	w, err := NewWire(cfg)
	if err != nil {
		return nil, err
	}

	id, err := w.Identity.LoadOrGenerate()
	if err != nil {
		return nil, fmt.Errorf("load identity: %w", err)
	}

	r, err := room.New(host, w.Engine, id, room.Config{
		Handle:   cfg.Handle,
		Logger:   w.Logger.With(zap.Any("room", cfg.Handle)),
		MaxUsers: cfg.MaxUsers,
	})
	if err != nil {
		id.Erase()
		return nil, err
	}
	return r, nil
}
