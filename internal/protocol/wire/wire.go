package wire

import (
	"encoding/binary"
	"fmt"

	"gotr/internal/domain"
)

// Protocol constants
const (
	Version     = 0x01
	HeaderSize  = 2 + 32
	ElementSize = 32
	TagSize     = 32

	// MaxChatBody bounds the body of a single Msg record.
	MaxChatBody = 1 << 20
)

// Record sizes
const (
	PairChannelInitSize = HeaderSize + ElementSize
	PairChannelEstSize  = HeaderSize + ElementSize + TagSize
	FlakeZSize          = HeaderSize + 2*ElementSize + TagSize
	FlakeRSize          = HeaderSize + 2*ElementSize + TagSize
	FlakeValidationSize = HeaderSize + TagSize + TagSize
	CircleXSize         = HeaderSize + TagSize + ElementSize
	ChatOverhead        = HeaderSize + 4 + TagSize
)

// Element is an encoded group element.
type Element = [ElementSize]byte

// Tag is a 32-byte MAC, proof or digest.
type Tag = [TagSize]byte

// Message is any protocol record.
type Message interface {
	Type() domain.MessageType
	Sender() domain.IdentityKey
	Encode() []byte
}

// Tagged is a record that ends in a tag over its other bytes.
type Tagged interface {
	Message
	AuthenticatedBytes() []byte
	MessageTag() Tag
	SetTag(Tag)
}

// Size returns the fixed record size for t, or 0 for variable or unknown
// types.
func Size(t domain.MessageType) int {
	switch t {
	case domain.MsgPairChannelInit:
		return PairChannelInitSize
	case domain.MsgPairChannelEst:
		return PairChannelEstSize
	case domain.MsgFlakeZ:
		return FlakeZSize
	case domain.MsgFlakeR:
		return FlakeRSize
	case domain.MsgFlakeValidation:
		return FlakeValidationSize
	case domain.MsgCircleX:
		return CircleXSize
	default:
		return 0
	}
}

// Parse decodes a record of any type.
func Parse(buf []byte) (Message, error) {
	if len(buf) < HeaderSize {
		return nil, fmt.Errorf("%w: record is %d bytes, shorter than header", domain.ErrDecode, len(buf))
	}
	if buf[0] != Version {
		return nil, fmt.Errorf("%w: unsupported version 0x%02x", domain.ErrDecode, buf[0])
	}

	var m interface {
		Message
		Decode([]byte) error
	}
	switch domain.MessageType(buf[1]) {
	case domain.MsgPairChannelInit:
		m = &PairChannelInit{}
	case domain.MsgPairChannelEst:
		m = &PairChannelEst{}
	case domain.MsgFlakeZ:
		m = &FlakeZ{}
	case domain.MsgFlakeR:
		m = &FlakeR{}
	case domain.MsgFlakeValidation:
		m = &FlakeValidation{}
	case domain.MsgCircleX:
		m = &CircleX{}
	case domain.MsgChat:
		m = &Chat{}
	default:
		return nil, fmt.Errorf("%w: unknown type 0x%02x", domain.ErrDecode, buf[1])
	}
	if err := m.Decode(buf); err != nil {
		return nil, err
	}
	return m, nil
}

func putHeader(buf []byte, t domain.MessageType, sender domain.IdentityKey) int {
	buf[0] = Version
	buf[1] = byte(t)
	copy(buf[2:HeaderSize], sender[:])
	return HeaderSize
}

// readHeader checks version, type and exact size and returns the sender.
func readHeader(buf []byte, t domain.MessageType, size int) (domain.IdentityKey, error) {
	var sender domain.IdentityKey
	if len(buf) != size {
		return sender, fmt.Errorf("%w: %s record is %d bytes, want %d", domain.ErrDecode, t, len(buf), size)
	}
	if buf[0] != Version {
		return sender, fmt.Errorf("%w: unsupported version 0x%02x", domain.ErrDecode, buf[0])
	}
	if domain.MessageType(buf[1]) != t {
		return sender, fmt.Errorf("%w: type 0x%02x is not %s", domain.ErrDecode, buf[1], t)
	}
	copy(sender[:], buf[2:HeaderSize])
	return sender, nil
}

// ===== PAIR CHANNEL INIT =====

// PairChannelInit opens a pair channel and carries the initiator's
// ephemeral public value.
type PairChannelInit struct {
	From      domain.IdentityKey
	Ephemeral Element
}

func (m *PairChannelInit) Type() domain.MessageType    { return domain.MsgPairChannelInit }
func (m *PairChannelInit) Sender() domain.IdentityKey { return m.From }

// Encode encodes the record to bytes.
func (m *PairChannelInit) Encode() []byte {
	buf := make([]byte, PairChannelInitSize)
	offset := putHeader(buf, m.Type(), m.From)
	copy(buf[offset:], m.Ephemeral[:])
	return buf
}

// Decode decodes the record from bytes.
func (m *PairChannelInit) Decode(buf []byte) error {
	from, err := readHeader(buf, m.Type(), PairChannelInitSize)
	if err != nil {
		return err
	}
	m.From = from
	copy(m.Ephemeral[:], buf[HeaderSize:])
	return nil
}

// ===== PAIR CHANNEL EST =====

// PairChannelEst answers PairChannelInit with the responder's ephemeral
// public value and a key confirmation over the handshake.
type PairChannelEst struct {
	From      domain.IdentityKey
	Ephemeral Element
	Confirm   Tag
}

func (m *PairChannelEst) Type() domain.MessageType    { return domain.MsgPairChannelEst }
func (m *PairChannelEst) Sender() domain.IdentityKey { return m.From }

// Encode encodes the record to bytes.
func (m *PairChannelEst) Encode() []byte {
	buf := make([]byte, PairChannelEstSize)
	offset := putHeader(buf, m.Type(), m.From)

	copy(buf[offset:], m.Ephemeral[:])
	offset += ElementSize

	copy(buf[offset:], m.Confirm[:])
	return buf
}

// Decode decodes the record from bytes.
func (m *PairChannelEst) Decode(buf []byte) error {
	from, err := readHeader(buf, m.Type(), PairChannelEstSize)
	if err != nil {
		return err
	}
	m.From = from
	offset := HeaderSize

	copy(m.Ephemeral[:], buf[offset:offset+ElementSize])
	offset += ElementSize

	copy(m.Confirm[:], buf[offset:offset+TagSize])
	return nil
}

// ===== FLAKE Z =====

// FlakeZ carries the sender's two ephemeral public values z[0], z[1].
type FlakeZ struct {
	From domain.IdentityKey
	Z    [2]Element
	Tag  Tag
}

func (m *FlakeZ) Type() domain.MessageType    { return domain.MsgFlakeZ }
func (m *FlakeZ) Sender() domain.IdentityKey { return m.From }
func (m *FlakeZ) MessageTag() Tag             { return m.Tag }
func (m *FlakeZ) SetTag(t Tag)                { m.Tag = t }

// AuthenticatedBytes returns the bytes covered by the tag.
func (m *FlakeZ) AuthenticatedBytes() []byte { return m.Encode()[:FlakeZSize-TagSize] }

// Encode encodes the record to bytes.
func (m *FlakeZ) Encode() []byte {
	buf := make([]byte, FlakeZSize)
	offset := putHeader(buf, m.Type(), m.From)
	offset = putPair(buf, offset, m.Z)
	copy(buf[offset:], m.Tag[:])
	return buf
}

// Decode decodes the record from bytes.
func (m *FlakeZ) Decode(buf []byte) error {
	from, err := readHeader(buf, m.Type(), FlakeZSize)
	if err != nil {
		return err
	}
	m.From = from
	var offset int
	m.Z, offset = readPair(buf, HeaderSize)
	copy(m.Tag[:], buf[offset:])
	return nil
}

// ===== FLAKE R =====

// FlakeR carries the sender's two intermediate values R[0], R[1].
type FlakeR struct {
	From domain.IdentityKey
	R    [2]Element
	Tag  Tag
}

func (m *FlakeR) Type() domain.MessageType    { return domain.MsgFlakeR }
func (m *FlakeR) Sender() domain.IdentityKey { return m.From }
func (m *FlakeR) MessageTag() Tag             { return m.Tag }
func (m *FlakeR) SetTag(t Tag)                { m.Tag = t }

// AuthenticatedBytes returns the bytes covered by the tag.
func (m *FlakeR) AuthenticatedBytes() []byte { return m.Encode()[:FlakeRSize-TagSize] }

// Encode encodes the record to bytes.
func (m *FlakeR) Encode() []byte {
	buf := make([]byte, FlakeRSize)
	offset := putHeader(buf, m.Type(), m.From)
	offset = putPair(buf, offset, m.R)
	copy(buf[offset:], m.Tag[:])
	return buf
}

// Decode decodes the record from bytes.
func (m *FlakeR) Decode(buf []byte) error {
	from, err := readHeader(buf, m.Type(), FlakeRSize)
	if err != nil {
		return err
	}
	m.From = from
	var offset int
	m.R, offset = readPair(buf, HeaderSize)
	copy(m.Tag[:], buf[offset:])
	return nil
}

// ===== FLAKE VALIDATION =====

// FlakeValidation proves the sender holds the flake key.
type FlakeValidation struct {
	From  domain.IdentityKey
	Proof Tag
	Tag   Tag
}

func (m *FlakeValidation) Type() domain.MessageType    { return domain.MsgFlakeValidation }
func (m *FlakeValidation) Sender() domain.IdentityKey { return m.From }
func (m *FlakeValidation) MessageTag() Tag             { return m.Tag }
func (m *FlakeValidation) SetTag(t Tag)                { m.Tag = t }

// AuthenticatedBytes returns the bytes covered by the tag.
func (m *FlakeValidation) AuthenticatedBytes() []byte {
	return m.Encode()[:FlakeValidationSize-TagSize]
}

// Encode encodes the record to bytes.
func (m *FlakeValidation) Encode() []byte {
	buf := make([]byte, FlakeValidationSize)
	offset := putHeader(buf, m.Type(), m.From)

	copy(buf[offset:], m.Proof[:])
	offset += TagSize

	copy(buf[offset:], m.Tag[:])
	return buf
}

// Decode decodes the record from bytes.
func (m *FlakeValidation) Decode(buf []byte) error {
	from, err := readHeader(buf, m.Type(), FlakeValidationSize)
	if err != nil {
		return err
	}
	m.From = from
	offset := HeaderSize

	copy(m.Proof[:], buf[offset:offset+TagSize])
	offset += TagSize

	copy(m.Tag[:], buf[offset:offset+TagSize])
	return nil
}

// ===== CIRCLE X =====

// CircleX broadcasts the sender's circle-round intermediate value for the
// ring identified by Digest.
type CircleX struct {
	From   domain.IdentityKey
	Digest Tag
	X      Element
}

func (m *CircleX) Type() domain.MessageType    { return domain.MsgCircleX }
func (m *CircleX) Sender() domain.IdentityKey { return m.From }

// Encode encodes the record to bytes.
func (m *CircleX) Encode() []byte {
	buf := make([]byte, CircleXSize)
	offset := putHeader(buf, m.Type(), m.From)

	copy(buf[offset:], m.Digest[:])
	offset += TagSize

	copy(buf[offset:], m.X[:])
	return buf
}

// Decode decodes the record from bytes.
func (m *CircleX) Decode(buf []byte) error {
	from, err := readHeader(buf, m.Type(), CircleXSize)
	if err != nil {
		return err
	}
	m.From = from
	offset := HeaderSize

	copy(m.Digest[:], buf[offset:offset+TagSize])
	offset += TagSize

	copy(m.X[:], buf[offset:offset+ElementSize])
	return nil
}

// ===== MSG =====

// Chat is a group chat message authenticated under the circle key.
type Chat struct {
	From domain.IdentityKey
	Body []byte
	Tag  Tag
}

func (m *Chat) Type() domain.MessageType    { return domain.MsgChat }
func (m *Chat) Sender() domain.IdentityKey { return m.From }
func (m *Chat) MessageTag() Tag             { return m.Tag }
func (m *Chat) SetTag(t Tag)                { m.Tag = t }

// Size returns the encoded size of the record.
func (m *Chat) Size() int { return ChatOverhead + len(m.Body) }

// AuthenticatedBytes returns the bytes covered by the tag.
func (m *Chat) AuthenticatedBytes() []byte {
	buf := m.Encode()
	return buf[:len(buf)-TagSize]
}

// Encode encodes the record to bytes.
func (m *Chat) Encode() []byte {
	buf := make([]byte, m.Size())
	offset := putHeader(buf, m.Type(), m.From)

	binary.BigEndian.PutUint32(buf[offset:], uint32(len(m.Body)))
	offset += 4

	copy(buf[offset:], m.Body)
	offset += len(m.Body)

	copy(buf[offset:], m.Tag[:])
	return buf
}

// Decode decodes the record from bytes.
func (m *Chat) Decode(buf []byte) error {
	if len(buf) < ChatOverhead {
		return fmt.Errorf("%w: msg record is %d bytes, want at least %d", domain.ErrDecode, len(buf), ChatOverhead)
	}
	bodyLen := binary.BigEndian.Uint32(buf[HeaderSize:])
	if bodyLen > MaxChatBody {
		return fmt.Errorf("%w: msg body of %d bytes exceeds limit", domain.ErrDecode, bodyLen)
	}
	from, err := readHeader(buf, m.Type(), ChatOverhead+int(bodyLen))
	if err != nil {
		return err
	}
	m.From = from
	offset := HeaderSize + 4

	m.Body = make([]byte, bodyLen)
	copy(m.Body, buf[offset:offset+int(bodyLen)])
	offset += int(bodyLen)

	copy(m.Tag[:], buf[offset:offset+TagSize])
	return nil
}

// ===== HELPERS =====

func putPair(buf []byte, offset int, pair [2]Element) int {
	copy(buf[offset:], pair[0][:])
	offset += ElementSize
	copy(buf[offset:], pair[1][:])
	return offset + ElementSize
}

func readPair(buf []byte, offset int) ([2]Element, int) {
	var pair [2]Element
	copy(pair[0][:], buf[offset:offset+ElementSize])
	offset += ElementSize
	copy(pair[1][:], buf[offset:offset+ElementSize])
	return pair, offset + ElementSize
}

// Compile-time assertions for the tagged records.
var (
	_ Tagged = (*FlakeZ)(nil)
	_ Tagged = (*FlakeR)(nil)
	_ Tagged = (*FlakeValidation)(nil)
	_ Tagged = (*Chat)(nil)
)
