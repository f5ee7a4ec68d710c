package room_test

import (
	"bytes"
	"encoding/base64"
	"testing"

	"filippo.io/edwards25519"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gotr/internal/crypto"
	"gotr/internal/domain"
	"gotr/internal/protocol/gka"
	"gotr/internal/protocol/wire"
	"gotr/internal/relay"
	"gotr/internal/services/room"
)

func newRoom(t *testing.T, host domain.Host, name string, cfg room.Config) *room.Room {
	t.Helper()
	p, err := crypto.Init()
	require.NoError(t, err)
	id, err := p.GenerateIdentity()
	require.NoError(t, err)

	cfg.Handle = name
	r, err := room.New(host, gka.New(p), id, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Leave() })
	return r
}

// join attaches a new member to the hub and runs the protocol to quiescence.
func join(t *testing.T, hub *relay.Hub, name string) *room.Room {
	t.Helper()
	r := newRoom(t, hub.Host(name), name, room.Config{})
	require.NoError(t, hub.Attach(name, r))
	hub.Flush()
	return r
}

func requireConverged(t *testing.T, rooms ...*room.Room) [crypto.KeySize]byte {
	t.Helper()
	want, ok := rooms[0].CircleKey()
	require.True(t, ok, "room 0 has no circle key")
	for i, r := range rooms[1:] {
		got, ok := r.CircleKey()
		require.True(t, ok, "room %d has no circle key", i+1)
		require.Equal(t, want, got, "room %d", i+1)
		assert.Len(t, r.Members(), len(rooms))
	}
	return want
}

func TestTwoUsers_Converge(t *testing.T) {
	hub := relay.NewHub(nil)
	alice := join(t, hub, "alice")
	assert.False(t, alice.Secure())

	bob := newRoom(t, hub.Host("bob"), "bob", room.Config{})
	require.NoError(t, hub.Attach("bob", bob))

	// Init, Est, FlakeZ×2, FlakeR×2, FlakeValidation×2
	assert.Equal(t, 8, hub.Flush())
	assert.Zero(t, hub.Dropped())

	requireConverged(t, alice, bob)
	assert.Equal(t, domain.StateCircleKeyComputed, alice.UserState("bob"))
	assert.Equal(t, domain.StateCircleKeyComputed, bob.UserState("alice"))
}

func TestThirdUser_ConvergesWithRing(t *testing.T) {
	hub := relay.NewHub(nil)
	alice := join(t, hub, "alice")
	bob := join(t, hub, "bob")
	pairKey := requireConverged(t, alice, bob)

	carol := join(t, hub, "carol")
	key := requireConverged(t, alice, bob, carol)
	assert.NotEqual(t, pairKey, key)

	for _, r := range []*room.Room{alice, bob} {
		assert.Equal(t, domain.StateCircleKeyComputed, r.UserState("carol"))
	}
	assert.Equal(t, domain.StateCircleKeyComputed, carol.UserState("alice"))
	assert.Equal(t, domain.StateCircleKeyComputed, carol.UserState("bob"))
}

func TestManyUsers_Converge(t *testing.T) {
	hub := relay.NewHub(nil)
	names := []string{"u1", "u2", "u3", "u4", "u5", "u6"}
	var rooms []*room.Room
	for _, n := range names {
		rooms = append(rooms, join(t, hub, n))
	}
	requireConverged(t, rooms...)
}

func TestUserLeft_Reconverges(t *testing.T) {
	hub := relay.NewHub(nil)
	alice := join(t, hub, "alice")
	bob := join(t, hub, "bob")
	carol := join(t, hub, "carol")
	before := requireConverged(t, alice, bob, carol)

	require.NoError(t, hub.Detach("carol"))
	hub.Flush()
	after := requireConverged(t, alice, bob)
	assert.NotEqual(t, before, after)
	assert.Equal(t, domain.StateUnknown, alice.UserState("carol"))
}

func TestSend_DeliversToRing(t *testing.T) {
	hub := relay.NewHub(nil)
	alice := join(t, hub, "alice")
	bob := join(t, hub, "bob")
	carol := join(t, hub, "carol")
	requireConverged(t, alice, bob, carol)

	require.NoError(t, alice.Send([]byte("hello, ring")))
	hub.Flush()

	for _, name := range []string{"bob", "carol"} {
		inbox := hub.Inbox(name)
		require.Len(t, inbox, 1, name)
		assert.Equal(t, "alice", inbox[0].From)
		assert.Equal(t, []byte("hello, ring"), inbox[0].Plaintext)
	}
	assert.Empty(t, hub.Inbox("alice"))
}

func TestSend_RequiresCircleKey(t *testing.T) {
	hub := relay.NewHub(nil)
	alice := join(t, hub, "alice")
	assert.ErrorIs(t, alice.Send([]byte("anyone?")), domain.ErrStateMismatch)
}

func TestReceive_TruncatedBase64IsNoOp(t *testing.T) {
	hub := relay.NewHub(nil)
	alice := join(t, hub, "alice")
	bob := join(t, hub, "bob")
	key := requireConverged(t, alice, bob)

	chat := &wire.Chat{From: bob.PublicKey(), Body: []byte("x")}
	enc := base64.StdEncoding.EncodeToString(chat.Encode())

	for _, msg := range []string{enc[:len(enc)-3], "!!!!", "QQ="} {
		assert.ErrorIs(t, alice.Receive(msg), domain.ErrDecode, msg)
		assert.ErrorIs(t, alice.ReceiveUser("bob", msg), domain.ErrDecode, msg)
	}

	// well-formed base64 of a truncated record
	short := base64.StdEncoding.EncodeToString(chat.Encode()[:40])
	assert.ErrorIs(t, alice.Receive(short), domain.ErrDecode)

	got, ok := alice.CircleKey()
	require.True(t, ok)
	assert.Equal(t, key, got)
	assert.Equal(t, domain.StateCircleKeyComputed, alice.UserState("bob"))
}

func TestReceive_OwnEchoIgnored(t *testing.T) {
	tap := &tapHost{}
	alice := newRoom(t, tap, "alice", room.Config{})
	require.NoError(t, alice.UserJoined("bob"))
	init := tap.last(t)
	assert.NoError(t, alice.ReceiveUser("bob", init))
	assert.NoError(t, alice.Receive(init))
	assert.Equal(t, domain.StatePairChannelInit, alice.UserState("bob"))
}

func TestLeave_Idempotent(t *testing.T) {
	hub := relay.NewHub(nil)
	alice := join(t, hub, "alice")
	bob := join(t, hub, "bob")
	requireConverged(t, alice, bob)

	require.NoError(t, alice.Leave())
	require.NoError(t, alice.Leave())

	assert.False(t, alice.Secure())
	assert.Equal(t, domain.StateUnknown, alice.UserState("bob"))
	assert.ErrorIs(t, alice.Send([]byte("x")), domain.ErrClosed)
	assert.ErrorIs(t, alice.Receive("AAAA"), domain.ErrClosed)
	assert.ErrorIs(t, alice.ReceiveUser("bob", "AAAA"), domain.ErrClosed)
	assert.ErrorIs(t, alice.UserJoined("carol"), domain.ErrClosed)
	assert.ErrorIs(t, alice.UserLeft("bob"), domain.ErrClosed)
}

func TestUserJoined_Allocation(t *testing.T) {
	tap := &tapHost{}
	r := newRoom(t, tap, "alice", room.Config{MaxUsers: 2})

	require.NoError(t, r.UserJoined("bob"))
	require.NoError(t, r.UserJoined("carol"))
	assert.ErrorIs(t, r.UserJoined("dave"), domain.ErrAllocation)

	// handles must be usable as map keys
	assert.ErrorIs(t, r.UserJoined([]byte("eve")), domain.ErrAllocation)
	assert.ErrorIs(t, r.UserJoined(nil), domain.ErrAllocation)

	// joining twice is a state mismatch, not a second participant
	assert.ErrorIs(t, r.UserJoined("bob"), domain.ErrStateMismatch)
	assert.Len(t, tap.sent, 2)

	// leaving frees the slot
	require.NoError(t, r.UserLeft("carol"))
	assert.NoError(t, r.UserJoined("dave"))
	assert.ErrorIs(t, r.UserLeft("carol"), domain.ErrStateMismatch)
}

// tapHost records outgoing records so tests can deliver them by hand.
type tapHost struct {
	sent      []tapped
	delivered [][]byte
}

type tapped struct {
	to  domain.Handle // nil for broadcast
	msg string
}

func (h *tapHost) SendAll(_ domain.Handle, msg string) error {
	h.sent = append(h.sent, tapped{msg: msg})
	return nil
}

func (h *tapHost) SendUser(_, user domain.Handle, msg string) error {
	h.sent = append(h.sent, tapped{to: user, msg: msg})
	return nil
}

func (h *tapHost) ReceiveUser(_, _ domain.Handle, plaintext []byte) {
	h.delivered = append(h.delivered, plaintext)
}

func (h *tapHost) last(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, h.sent)
	return h.sent[len(h.sent)-1].msg
}

// pairUp returns two rooms on tap hosts and brings them to
// PairChannelEstablished, with alice as initiator. It returns alice's
// pending FlakeZ.
func pairUp(t *testing.T) (alice, bob *room.Room, ta, tb *tapHost, flakeZ string) {
	t.Helper()
	ta, tb = &tapHost{}, &tapHost{}
	alice = newRoom(t, ta, "alice", room.Config{})
	bob = newRoom(t, tb, "bob", room.Config{})

	require.NoError(t, alice.UserJoined("bob"))
	require.NoError(t, bob.ReceiveUser("alice", ta.last(t)))
	require.NoError(t, alice.ReceiveUser("bob", tb.last(t)))
	require.Equal(t, domain.StatePairChannelEstablished, alice.UserState("bob"))
	require.Equal(t, domain.StatePairChannelEstablished, bob.UserState("alice"))
	return alice, bob, ta, tb, ta.last(t)
}

func TestReceive_FlakeValidationToUnknownRejected(t *testing.T) {
	tap := &tapHost{}
	alice := newRoom(t, tap, "alice", room.Config{})

	var stranger domain.IdentityKey
	stranger[0] = 0x42
	fv := &wire.FlakeValidation{From: stranger}
	msg := crypto.B64(fv.Encode())

	assert.ErrorIs(t, alice.ReceiveUser("mallory", msg), domain.ErrStateMismatch)
	assert.ErrorIs(t, alice.Receive(msg), domain.ErrStateMismatch)
	assert.Equal(t, domain.StateUnknown, alice.UserState("mallory"))
	assert.Empty(t, tap.sent)

	// nothing was allocated for the handle
	require.NoError(t, alice.UserJoined("mallory"))
	assert.Equal(t, domain.StatePairChannelInit, alice.UserState("mallory"))
}

func TestReceive_OutOfOrderRejected(t *testing.T) {
	alice, bob, _, _, flakeZ := pairUp(t)

	// a replayed Init is not legal once the channel is established
	init := &wire.PairChannelInit{From: alice.PublicKey()}
	assert.ErrorIs(t, bob.ReceiveUser("alice", crypto.B64(init.Encode())), domain.ErrStateMismatch)
	assert.Equal(t, domain.StatePairChannelEstablished, bob.UserState("alice"))

	require.NoError(t, bob.ReceiveUser("alice", flakeZ))
	assert.Equal(t, domain.StateFlakeZExchanged, bob.UserState("alice"))

	// the same FlakeZ again is out of order
	assert.ErrorIs(t, bob.ReceiveUser("alice", flakeZ), domain.ErrStateMismatch)
	assert.Equal(t, domain.StateFlakeZExchanged, bob.UserState("alice"))
}

func TestReceive_BadTagDropped(t *testing.T) {
	_, bob, _, tb, flakeZ := pairUp(t)
	sentBefore := len(tb.sent)

	raw, err := crypto.FromB64(flakeZ)
	require.NoError(t, err)
	tampered := bytes.Clone(raw)
	tampered[len(tampered)-1] ^= 0x01

	err = bob.ReceiveUser("alice", crypto.B64(tampered))
	assert.ErrorIs(t, err, domain.ErrAuthentication)
	assert.Equal(t, domain.StatePairChannelEstablished, bob.UserState("alice"))
	assert.Len(t, tb.sent, sentBefore)

	// the genuine record still goes through
	require.NoError(t, bob.ReceiveUser("alice", flakeZ))
	assert.Equal(t, domain.StateFlakeZExchanged, bob.UserState("alice"))
}

func TestReceive_BadConfirmMovesToError(t *testing.T) {
	ta, tb := &tapHost{}, &tapHost{}
	alice := newRoom(t, ta, "alice", room.Config{})
	bob := newRoom(t, tb, "bob", room.Config{})

	require.NoError(t, alice.UserJoined("bob"))
	require.NoError(t, bob.ReceiveUser("alice", ta.last(t)))

	raw, err := crypto.FromB64(tb.last(t))
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0x80

	err = alice.ReceiveUser("bob", crypto.B64(raw))
	assert.ErrorIs(t, err, domain.ErrCrypto)
	assert.Equal(t, domain.StateError, alice.UserState("bob"))

	// error is terminal until the host restarts the user
	assert.ErrorIs(t, alice.ReceiveUser("bob", tb.last(t)), domain.ErrStateMismatch)
	require.NoError(t, alice.UserJoined("bob"))
	assert.Equal(t, domain.StatePairChannelInit, alice.UserState("bob"))
}

func TestSimultaneousJoin_TieBreak(t *testing.T) {
	ta, tb := &tapHost{}, &tapHost{}
	alice := newRoom(t, ta, "alice", room.Config{})
	bob := newRoom(t, tb, "bob", room.Config{})

	require.NoError(t, alice.UserJoined("bob"))
	require.NoError(t, bob.UserJoined("alice"))
	initA, initB := ta.last(t), tb.last(t)

	errA := alice.ReceiveUser("bob", initB)
	errB := bob.ReceiveUser("alice", initA)

	// exactly one side becomes responder
	aKey, bKey := alice.PublicKey(), bob.PublicKey()
	if bytes.Compare(aKey[:], bKey[:]) > 0 {
		assert.NoError(t, errA)
		assert.ErrorIs(t, errB, domain.ErrStateMismatch)
		require.NoError(t, bob.ReceiveUser("alice", ta.last(t)))
	} else {
		assert.ErrorIs(t, errA, domain.ErrStateMismatch)
		assert.NoError(t, errB)
		require.NoError(t, alice.ReceiveUser("bob", tb.last(t)))
	}
	assert.Equal(t, domain.StatePairChannelEstablished, alice.UserState("bob"))
	assert.Equal(t, domain.StatePairChannelEstablished, bob.UserState("alice"))
}

func TestReceiveUser_HandleBoundToOtherIdentity(t *testing.T) {
	alice, _, _, _, _ := pairUp(t)

	tc := &tapHost{}
	carol := newRoom(t, tc, "carol", room.Config{})
	require.NoError(t, carol.UserJoined("alice"))

	// carol's Init arrives on the handle already bound to bob
	err := alice.ReceiveUser("bob", tc.last(t))
	assert.ErrorIs(t, err, domain.ErrStateMismatch)
	assert.Equal(t, domain.StatePairChannelEstablished, alice.UserState("bob"))
}

func TestReceive_BroadcastInitNeedsHandle(t *testing.T) {
	ta := &tapHost{}
	alice := newRoom(t, ta, "alice", room.Config{})
	require.NoError(t, alice.UserJoined("bob"))

	tb := &tapHost{}
	bob := newRoom(t, tb, "bob", room.Config{})
	assert.ErrorIs(t, bob.Receive(ta.last(t)), domain.ErrStateMismatch)
	assert.Empty(t, tb.sent)
}

func TestTwoUsers_NoRingBroadcast(t *testing.T) {
	alice, bob, ta, tb, flakeZ := pairUp(t)

	require.NoError(t, bob.ReceiveUser("alice", flakeZ))
	require.NoError(t, alice.ReceiveUser("bob", tb.last(t))) // FlakeZ
	require.NoError(t, bob.ReceiveUser("alice", ta.last(t))) // FlakeR
	require.NoError(t, alice.ReceiveUser("bob", tb.last(t))) // FlakeR
	require.NoError(t, bob.ReceiveUser("alice", ta.last(t))) // FlakeValidation
	require.NoError(t, alice.ReceiveUser("bob", tb.last(t))) // FlakeValidation

	assert.Equal(t, domain.StateCircleKeyComputed, alice.UserState("bob"))
	assert.Equal(t, domain.StateCircleKeyComputed, bob.UserState("alice"))
	requireConverged(t, alice, bob)

	for _, sent := range append(ta.sent, tb.sent...) {
		assert.NotNil(t, sent.to, "unexpected broadcast")
	}
	assert.Len(t, ta.sent, 4)
	assert.Len(t, tb.sent, 4)
}

func TestReceiveUser_RejectedInitFreesSlot(t *testing.T) {
	tap := &tapHost{}
	alice := newRoom(t, tap, "alice", room.Config{MaxUsers: 1})

	tb := &tapHost{}
	bob := newRoom(t, tb, "bob", room.Config{})

	var junk [crypto.ElementSize]byte
	for i := range junk {
		junk[i] = 0xff
	}
	badSender := &wire.PairChannelInit{From: domain.IdentityKey(junk)}
	badEphemeral := &wire.PairChannelInit{From: bob.PublicKey(), Ephemeral: junk}

	for _, m := range []*wire.PairChannelInit{badSender, badEphemeral} {
		assert.ErrorIs(t, alice.ReceiveUser("mallory", crypto.B64(m.Encode())), domain.ErrCrypto)
		assert.Equal(t, domain.StateUnknown, alice.UserState("mallory"))
	}
	assert.Empty(t, tap.sent)

	// the single slot is still free
	require.NoError(t, alice.UserJoined("bob"))
	assert.Equal(t, domain.StatePairChannelInit, alice.UserState("bob"))
}

func TestReceive_NewCircleValueReplacesKey(t *testing.T) {
	hub := relay.NewHub(nil)
	alice := join(t, hub, "alice")
	bob := join(t, hub, "bob")
	carol := join(t, hub, "carol")
	before := requireConverged(t, alice, bob, carol)

	// the value of alice's ring successor carries a non-zero weight in her key
	members := alice.Members()
	self := alice.PublicKey()
	var next domain.IdentityKey
	for i, k := range members {
		if k == self {
			next = members[(i+1)%len(members)]
		}
	}
	digest := gka.NewRing(self, members).Digest()

	cx := &wire.CircleX{
		From:   next,
		Digest: digest,
		X:      crypto.EncodeElement(edwards25519.NewGeneratorPoint()),
	}
	require.NoError(t, alice.Receive(crypto.B64(cx.Encode())))

	after, ok := alice.CircleKey()
	require.True(t, ok)
	assert.NotEqual(t, before, after)
	assert.Equal(t, domain.StateCircleKeyComputed, alice.UserState("bob"))
	assert.Equal(t, domain.StateCircleKeyComputed, alice.UserState("carol"))

	// the same value again leaves the key alone
	require.NoError(t, alice.Receive(crypto.B64(cx.Encode())))
	again, ok := alice.CircleKey()
	require.True(t, ok)
	assert.Equal(t, after, again)
}
