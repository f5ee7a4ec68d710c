package relay

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"gotr/internal/domain"
)

// ErrUnknownMember is returned for operations on a name that is not attached.
var ErrUnknownMember = errors.New("relay: unknown member")

// Endpoint is the room side of a member. *room.Room satisfies it.
type Endpoint interface {
	UserJoined(user domain.Handle) error
	UserLeft(user domain.Handle) error
	Receive(msg string) error
	ReceiveUser(user domain.Handle, msg string) error
}

// Delivery is a chat message a member authenticated.
type Delivery struct {
	From      string
	Plaintext []byte
}

type envelope struct {
	from   string
	to     string
	direct bool
	msg    string
}

// Hub connects members by name. User handles are member names.
type Hub struct {
	mu      sync.Mutex
	members map[string]Endpoint
	order   []string
	queue   []envelope
	inbox   map[string][]Delivery
	dropped int
	log     *zap.Logger
}

// NewHub returns an empty hub. A nil logger disables logging.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		members: make(map[string]Endpoint),
		inbox:   make(map[string][]Delivery),
		log:     log,
	}
}

// Host returns the callbacks for member name. Pass it to the member's room
// before calling Attach.
func (h *Hub) Host(name string) domain.Host { return &port{hub: h, name: name} }

// Attach registers ep under name and announces it to every existing member,
// which opens a pair channel with it. Records are queued until Flush.
func (h *Hub) Attach(name string, ep Endpoint) error {
	h.mu.Lock()
	if _, ok := h.members[name]; ok {
		h.mu.Unlock()
		return fmt.Errorf("relay: member %q already attached", name)
	}
	existing := slices.Clone(h.order)
	h.members[name] = ep
	h.order = append(h.order, name)
	h.mu.Unlock()

	var errs []error
	for _, other := range existing {
		if err := h.endpoint(other).UserJoined(name); err != nil {
			errs = append(errs, fmt.Errorf("%s: user joined %s: %w", other, name, err))
		}
	}
	return errors.Join(errs...)
}

// Detach removes name and announces the departure to the others.
func (h *Hub) Detach(name string) error {
	h.mu.Lock()
	if _, ok := h.members[name]; !ok {
		h.mu.Unlock()
		return ErrUnknownMember
	}
	delete(h.members, name)
	h.order = slices.DeleteFunc(h.order, func(n string) bool { return n == name })
	rest := slices.Clone(h.order)
	h.mu.Unlock()

	var errs []error
	for _, other := range rest {
		if err := h.endpoint(other).UserLeft(name); err != nil {
			errs = append(errs, fmt.Errorf("%s: user left %s: %w", other, name, err))
		}
	}
	return errors.Join(errs...)
}

// Flush delivers queued records, including the ones produced while
// delivering, until the queue is empty. It returns the number of records
// delivered. Rejections by a room are logged and counted, not returned.
func (h *Hub) Flush() int {
	delivered := 0
	for {
		env, ok := h.pop()
		if !ok {
			return delivered
		}
		ep := h.endpoint(env.to)
		if ep == nil {
			continue
		}
		var err error
		if env.direct {
			err = ep.ReceiveUser(env.from, env.msg)
		} else {
			err = ep.Receive(env.msg)
		}
		delivered++
		if err != nil {
			h.mu.Lock()
			h.dropped++
			h.mu.Unlock()
			h.log.Debug("record rejected",
				zap.String("from", env.from),
				zap.String("to", env.to),
				zap.Bool("direct", env.direct),
				zap.Error(err),
			)
		}
	}
}

// Pending returns the number of queued records.
func (h *Hub) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.queue)
}

// Dropped returns how many deliveries a room rejected so far.
func (h *Hub) Dropped() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

// Inbox returns the chat messages member name received.
func (h *Hub) Inbox(name string) []Delivery {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.inbox[name])
}

func (h *Hub) endpoint(name string) Endpoint {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.members[name]
}

func (h *Hub) push(envs ...envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.queue = append(h.queue, envs...)
}

func (h *Hub) pop() (envelope, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.queue) == 0 {
		return envelope{}, false
	}
	env := h.queue[0]
	h.queue = h.queue[1:]
	return env, true
}

// port implements domain.Host for one member.
type port struct {
	hub  *Hub
	name string
}

func (p *port) SendAll(_ domain.Handle, msg string) error {
	p.hub.mu.Lock()
	others := make([]envelope, 0, len(p.hub.order))
	for _, n := range p.hub.order {
		if n != p.name {
			others = append(others, envelope{from: p.name, to: n, msg: msg})
		}
	}
	p.hub.mu.Unlock()

	p.hub.push(others...)
	return nil
}

func (p *port) SendUser(_ domain.Handle, user domain.Handle, msg string) error {
	to, ok := user.(string)
	if !ok {
		return fmt.Errorf("relay: user handle %T is not a member name", user)
	}
	if p.hub.endpoint(to) == nil {
		return fmt.Errorf("%w: %q", ErrUnknownMember, to)
	}
	p.hub.push(envelope{from: p.name, to: to, direct: true, msg: msg})
	return nil
}

func (p *port) ReceiveUser(_ domain.Handle, user domain.Handle, plaintext []byte) {
	from, _ := user.(string)
	p.hub.mu.Lock()
	defer p.hub.mu.Unlock()
	p.hub.inbox[p.name] = append(p.hub.inbox[p.name], Delivery{
		From:      from,
		Plaintext: slices.Clone(plaintext),
	})
}

// Compile-time assertion that port implements domain.Host.
var _ domain.Host = (*port)(nil)
