// Package item implements the (key, value) record and its on-disk codec.
//
// The codec is a deterministic length-prefixed encoding: a 4-byte
// big-endian length of key, the key bytes, a 4-byte big-endian length of
// value, and the value bytes. len(AsBytes(x)) is what the stats sub-engine
// uses for the size counter, so the encoding must be stable and exact —
// no compression, no optional fields.
package item

import (
	"encoding/binary"
	"fmt"
)

const headerSize = 4

// Item is a single (key, value) record.
type Item struct {
	Key   []byte
	Value []byte
}

// New constructs an Item, copying both slices so the caller can reuse its
// buffers.
func New(key, value []byte) Item {
	return Item{
		Key:   append([]byte(nil), key...),
		Value: append([]byte(nil), value...),
	}
}

// AsBytes encodes the item to its stable on-disk form.
func (it Item) AsBytes() []byte {
	buf := make([]byte, 0, headerSize+len(it.Key)+headerSize+len(it.Value))
	var lenBuf [headerSize]byte

	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(it.Key)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, it.Key...)

	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(it.Value)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, it.Value...)

	return buf
}

// FromBytes decodes an item previously produced by AsBytes. It returns a
// DeserializationError if raw is truncated or its length header is
// internally inconsistent.
func FromBytes(raw []byte) (Item, error) {
	if len(raw) < headerSize {
		return Item{}, &DeserializationError{Reason: "truncated key length header"}
	}
	keyLen := binary.BigEndian.Uint32(raw[:headerSize])
	raw = raw[headerSize:]

	if uint64(len(raw)) < uint64(keyLen)+headerSize {
		return Item{}, &DeserializationError{Reason: "truncated key or value length header"}
	}
	key := raw[:keyLen]
	raw = raw[keyLen:]

	valueLen := binary.BigEndian.Uint32(raw[:headerSize])
	raw = raw[headerSize:]

	if uint64(len(raw)) != uint64(valueLen) {
		return Item{}, &DeserializationError{Reason: "value length does not match remaining bytes"}
	}

	return Item{
		Key:   append([]byte(nil), key...),
		Value: append([]byte(nil), raw...),
	}, nil
}

// SerializationError is returned (never currently produced, since AsBytes
// cannot fail on well-formed in-memory Items, but kept so a future codec
// change has somewhere to report from) when encoding fails.
type SerializationError struct {
	Reason string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("item serialization error: %s", e.Reason)
}

// DeserializationError is returned when raw bytes cannot be decoded into an
// Item.
type DeserializationError struct {
	Reason string
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("item deserialization error: %s", e.Reason)
}
