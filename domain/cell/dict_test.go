package cell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uintKey(value uint64, n int) []bool {
	bits := make([]bool, n)
	for i := n - 1; i >= 0; i-- {
		bits[i] = value&1 == 1
		value >>= 1
	}
	return bits
}

func uintValueCell(t *testing.T, value uint64) *Cell {
	b := NewBuilder()
	require.NoError(t, b.WriteUint(value, 32))
	return b.Cell()
}

func readUint16Key(key *Slice) (uint64, error) {
	return key.ReadUint(16)
}

func readUint32Value(value *Slice) (uint64, error) {
	return value.ReadUint(32)
}

func TestParseDictNilRoot(t *testing.T) {
	out, err := ParseDict(nil, 16, readUint16Key, readUint32Value)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDictTotality(t *testing.T) {
	entries := make([]DictEntry, 0, 20)
	expected := make(map[uint64]uint64, 20)
	for i := uint64(0); i < 20; i++ {
		key := i * 2654435761 % 65536
		entries = append(entries, DictEntry{Key: uintKey(key, 16), Value: uintValueCell(t, i)})
		expected[key] = i
	}

	root, err := BuildDict(16, entries)
	require.NoError(t, err)

	out, err := ParseDict(root, 16, readUint16Key, readUint32Value)
	require.NoError(t, err)
	assert.Equal(t, expected, out)
}

func TestDictOrderIndependence(t *testing.T) {
	forward := []DictEntry{
		{Key: uintKey(3, 16), Value: uintValueCell(t, 30)},
		{Key: uintKey(17, 16), Value: uintValueCell(t, 170)},
		{Key: uintKey(40000, 16), Value: uintValueCell(t, 9)},
	}
	backward := []DictEntry{forward[2], forward[1], forward[0]}

	a, err := BuildDict(16, forward)
	require.NoError(t, err)
	b, err := BuildDict(16, backward)
	require.NoError(t, err)

	aBoc, err := ToBocBase64(a)
	require.NoError(t, err)
	bBoc, err := ToBocBase64(b)
	require.NoError(t, err)
	assert.Equal(t, aBoc, bBoc)
}

func TestDictSingleEntry(t *testing.T) {
	root, err := BuildDict(16, []DictEntry{
		{Key: uintKey(511, 16), Value: uintValueCell(t, 1)},
	})
	require.NoError(t, err)

	out, err := ParseDict(root, 16, readUint16Key, readUint32Value)
	require.NoError(t, err)
	assert.Equal(t, map[uint64]uint64{511: 1}, out)
}

func TestDictLabelOverflow(t *testing.T) {
	// hml_same$11 with a length longer than the remaining key bits.
	b := NewBuilder()
	require.NoError(t, b.WriteUint(0b11, 2))
	require.NoError(t, b.WriteBit(true))
	require.NoError(t, b.WriteUint(9, lenBits(8)))

	_, err := ParseDict(b.Cell(), 8, func(key *Slice) (uint64, error) {
		return key.ReadUint(8)
	}, readUint32Value)
	assert.ErrorIs(t, err, ErrMalformedDictionary)
}

func TestDictMissingBranch(t *testing.T) {
	// A fork node with an empty label and no child references.
	b := NewBuilder()
	require.NoError(t, b.WriteUint(0b10, 2))
	require.NoError(t, b.WriteUint(0, lenBits(8)))

	_, err := ParseDict(b.Cell(), 8, func(key *Slice) (uint64, error) {
		return key.ReadUint(8)
	}, readUint32Value)
	assert.ErrorIs(t, err, ErrMalformedDictionary)
}

func TestBuildDictKeySizeMismatch(t *testing.T) {
	_, err := BuildDict(16, []DictEntry{
		{Key: uintKey(1, 8), Value: uintValueCell(t, 1)},
	})
	assert.ErrorIs(t, err, ErrMalformedDictionary)
}

func TestBuildDictEmpty(t *testing.T) {
	root, err := BuildDict(16, nil)
	require.NoError(t, err)
	assert.Nil(t, root)
}
