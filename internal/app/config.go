package app

import (
	"go.uber.org/zap"

	"gotr/internal/domain"
)

// Config holds runtime wiring options for joining a room.
type Config struct {
	KeyPath  string        // identity key file; empty for an ephemeral identity
	Handle   domain.Handle // room handle passed back to every Host callback
	Logger   *zap.Logger   // optional; defaults to a no-op logger
	MaxUsers int           // optional; defaults to room.DefaultMaxUsers
}
