package item

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cases := []Item{
		New([]byte("hello"), []byte("world")),
		New([]byte(""), []byte("")),
		New([]byte("k"), []byte("")),
		New([]byte(""), []byte("v")),
		New([]byte{0x00, 0xFF, 0x00}, []byte{0x01, 0x02, 0x03}),
	}

	for _, it := range cases {
		raw := it.AsBytes()
		decoded, err := FromBytes(raw)
		require.NoError(t, err)
		assert.Equal(t, it.Key, decoded.Key)
		assert.Equal(t, it.Value, decoded.Value)
	}
}

func TestAsBytesLengthIsStable(t *testing.T) {
	it := New([]byte("hello"), []byte("world"))
	assert.Equal(t, len(it.AsBytes()), len(it.AsBytes()))
	assert.Len(t, it.AsBytes(), headerSize+5+headerSize+5)
}

func TestFromBytesRejectsTruncatedInput(t *testing.T) {
	_, err := FromBytes([]byte{0x00, 0x00})
	require.Error(t, err)

	it := New([]byte("hello"), []byte("world"))
	raw := it.AsBytes()
	_, err = FromBytes(raw[:len(raw)-2])
	require.Error(t, err)
}
