package room

import (
	"go.uber.org/zap"

	"gotr/internal/domain"
)

// DefaultMaxUsers bounds the participants of one room unless configured.
const DefaultMaxUsers = 256

// Config tunes a Room.
type Config struct {
	// Handle is passed back to every Host callback.
	Handle domain.Handle
	// Logger receives diagnostics. Nil disables logging.
	Logger *zap.Logger
	// MaxUsers bounds the participant arena. Zero means DefaultMaxUsers.
	MaxUsers int
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.MaxUsers <= 0 {
		c.MaxUsers = DefaultMaxUsers
	}
	return c
}
