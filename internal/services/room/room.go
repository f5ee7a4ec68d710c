package room

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"go.uber.org/zap"

	"gotr/internal/crypto"
	"gotr/internal/domain"
	"gotr/internal/protocol/fsm"
	"gotr/internal/protocol/gka"
	"gotr/internal/protocol/wire"
)

// Room is one chatroom from the point of view of the local user.
type Room struct {
	host   domain.Host
	handle domain.Handle
	log    *zap.Logger
	engine *gka.Engine

	id   *crypto.Identity
	self domain.IdentityKey

	users *arena

	ring      *gka.Ring
	selfX     *edwards25519.Point
	circle    crypto.Key
	msgKey    crypto.Key
	hasCircle bool

	closed bool
}

// New creates a room for identity id. The room owns id from now on and
// erases it on Leave.
func New(
	host domain.Host,
	engine *gka.Engine,
	id *crypto.Identity,
	cfg Config,
) (*Room, error) {
	if host == nil {
		return nil, errors.New("room: nil host")
	}
	if engine == nil || id == nil {
		return nil, errors.New("room: nil key material")
	}
	cfg = cfg.withDefaults()

	r := &Room{
		host:   host,
		handle: cfg.Handle,
		log:    cfg.Logger,
		engine: engine,
		id:     id,
		self:   id.Public(),
		users:  newArena(cfg.MaxUsers),
	}
	r.ring = gka.NewRing(r.self, nil)
	r.log.Debug("joined room", zap.Stringer("fingerprint", r.Fingerprint()))
	return r, nil
}

// Fingerprint identifies the local user.
func (r *Room) Fingerprint() domain.Fingerprint { return crypto.Fingerprint(r.self) }

// PublicKey returns the local identity key.
func (r *Room) PublicKey() domain.IdentityKey { return r.self }

// CircleKey returns the current circle key. ok is false until every member
// of the ring has contributed.
func (r *Room) CircleKey() (key [crypto.KeySize]byte, ok bool) {
	if !r.hasCircle {
		return key, false
	}
	return r.circle, true
}

// Secure reports whether a circle key is established.
func (r *Room) Secure() bool { return r.hasCircle }

// UserState returns the state of the participant behind h, or Unknown.
func (r *Room) UserState(h domain.Handle) domain.State {
	p := r.users.byUser(h)
	if p == nil {
		return domain.StateUnknown
	}
	return p.state
}

// Members returns the identity keys of the current ring, self included.
func (r *Room) Members() []domain.IdentityKey { return r.ring.Members() }

// UserJoined opens a pair channel with a new user by sending
// PairChannelInit. A user left in the error state is restarted.
func (r *Room) UserJoined(h domain.Handle) error {
	if r.closed {
		return domain.ErrClosed
	}

	p := r.users.byUser(h)
	if p != nil && p.state == domain.StateError {
		r.log.Debug("restarting user", zap.String("user", p.label()))
		r.users.unbind(p)
		p.reset()
	}
	if p == nil {
		var err error
		if p, err = r.users.alloc(h); err != nil {
			return err
		}
	}

	next, err := fsm.Join(p.state)
	if err != nil {
		return err
	}
	hs, err := r.engine.NewHandshake()
	if err != nil {
		r.fail(p, err)
		return err
	}
	p.handshake = hs
	r.transition(p, next)
	return r.sendUser(p, &wire.PairChannelInit{From: r.self, Ephemeral: hs.Ephemeral})
}

// UserLeft drops the participant behind h and rebuilds the circle if it was
// part of the ring.
func (r *Room) UserLeft(h domain.Handle) error {
	if r.closed {
		return domain.ErrClosed
	}
	p := r.users.byUser(h)
	if p == nil {
		return fmt.Errorf("%w: user not in room", domain.ErrStateMismatch)
	}

	inRing := fsm.Validated(p.state)
	r.log.Debug("user left", zap.String("user", p.label()), zap.Stringer("state", p.state))
	r.users.remove(p)
	if inRing {
		return r.rebuildCircle()
	}
	return nil
}

// Send broadcasts an authenticated chat message to the ring.
func (r *Room) Send(plaintext []byte) error {
	if r.closed {
		return domain.ErrClosed
	}
	if !r.hasCircle {
		return fmt.Errorf("%w: no circle key yet", domain.ErrStateMismatch)
	}
	if len(plaintext) > wire.MaxChatBody {
		return fmt.Errorf("%w: message of %d bytes exceeds limit", domain.ErrDecode, len(plaintext))
	}

	m := &wire.Chat{From: r.self, Body: plaintext}
	m.SetTag(crypto.MAC(&r.msgKey, m.AuthenticatedBytes()))
	return r.sendAll(m)
}

// Leave erases every participant and the identity. It is safe to call more
// than once; every other method returns ErrClosed afterwards.
func (r *Room) Leave() error {
	if r.closed {
		return nil
	}
	r.users.each(r.users.remove)
	r.clearCircle()
	r.id.Erase()
	r.closed = true
	r.log.Debug("left room")
	return nil
}

// transition commits a new state.
func (r *Room) transition(p *participant, next domain.State) {
	if p.state != next {
		r.log.Debug("transition",
			zap.String("user", p.label()),
			zap.Stringer("from", p.state),
			zap.Stringer("to", next),
		)
	}
	p.state = next
}

// fail moves p to the error state after a failed key agreement step.
func (r *Room) fail(p *participant, cause error) {
	inRing := fsm.Validated(p.state)
	r.log.Error("user entered error state",
		zap.String("user", p.label()),
		zap.Stringer("state", p.state),
		zap.Error(cause),
	)
	p.erase()
	p.state = domain.StateError
	if inRing {
		if err := r.rebuildCircle(); err != nil {
			r.log.Warn("circle rebuild", zap.Error(err))
		}
	}
}

func (r *Room) clearCircle() {
	r.dropCircleKey()
	r.selfX = nil
}

func (r *Room) sendUser(p *participant, m wire.Message) error {
	if err := r.host.SendUser(r.handle, p.handle, crypto.B64(m.Encode())); err != nil {
		return fmt.Errorf("send %s: %w", m.Type(), err)
	}
	return nil
}

// sendPair tags m under the pair channel key of p and sends it.
func (r *Room) sendPair(p *participant, m wire.Tagged) error {
	m.SetTag(gka.Tag(&p.pairKey, m.AuthenticatedBytes()))
	return r.sendUser(p, m)
}

func (r *Room) sendAll(m wire.Message) error {
	if err := r.host.SendAll(r.handle, crypto.B64(m.Encode())); err != nil {
		return fmt.Errorf("broadcast %s: %w", m.Type(), err)
	}
	return nil
}

func (p *participant) label() string {
	if p.bound {
		return crypto.Fingerprint(p.key).String()
	}
	return fmt.Sprintf("%v", p.handle)
}
