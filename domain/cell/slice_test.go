package cell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadUintRoundTrip(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.WriteUint(0xf96f7324, 32))
	require.NoError(t, b.WriteUint(5, 3))

	s := b.Cell().BeginParse()

	op, err := s.ReadUint(32)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xf96f7324), op)

	small, err := s.ReadUint(3)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), small)
	assert.Equal(t, 0, s.BitsRemaining())
}

func TestReadIntTwosComplement(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.WriteInt(-1, 8))
	require.NoError(t, b.WriteInt(-130, 16))
	require.NoError(t, b.WriteInt(127, 8))

	s := b.Cell().BeginParse()

	v, err := s.ReadInt(8)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), v)

	v, err = s.ReadInt(16)
	require.NoError(t, err)
	assert.Equal(t, int64(-130), v)

	v, err = s.ReadInt(8)
	require.NoError(t, err)
	assert.Equal(t, int64(127), v)
}

func TestReadCoins(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.WriteCoins(0))
	require.NoError(t, b.WriteCoins(1_000_000_000))
	require.NoError(t, b.WriteCoins(5_000_000_000_000_000))

	s := b.Cell().BeginParse()

	v, err := s.ReadCoins()
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)

	v, err = s.ReadCoins()
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000_000), v)

	v, err = s.ReadCoins()
	require.NoError(t, err)
	assert.Equal(t, int64(5_000_000_000_000_000), v)
}

func TestReadCoinsMinimalLength(t *testing.T) {
	// 1e9 fits in 4 bytes: prefix 4, then 32 bits of amount.
	b := NewBuilder()
	require.NoError(t, b.WriteCoins(1_000_000_000))
	assert.Equal(t, 4+32, b.BitsCount())
}

func TestReadTruncated(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.WriteUint(7, 16))
	s := b.Cell().BeginParse()

	_, err := s.ReadUint(32)
	assert.ErrorIs(t, err, ErrTruncatedRead)

	// A failed read does not consume bits.
	v, err := s.ReadUint(16)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), v)

	_, err = s.ReadBit()
	assert.ErrorIs(t, err, ErrTruncatedRead)
	_, err = s.ReadRef()
	assert.ErrorIs(t, err, ErrRefExhausted)
}

func TestReadMaybeRef(t *testing.T) {
	child := Empty()
	b := NewBuilder()
	require.NoError(t, b.WriteMaybeRef(nil))
	require.NoError(t, b.WriteMaybeRef(child))

	s := b.Cell().BeginParse()

	ref, err := s.ReadMaybeRef()
	require.NoError(t, err)
	assert.Nil(t, ref)

	ref, err = s.ReadMaybeRef()
	require.NoError(t, err)
	assert.Same(t, child, ref)
}

func TestReadBytes(t *testing.T) {
	payload := []byte{0xde, 0xad, 0xbe, 0xef}
	b := NewBuilder()
	require.NoError(t, b.WriteBytes(payload))

	s := b.Cell().BeginParse()
	buf, err := s.ReadBytes(4)
	require.NoError(t, err)
	assert.Equal(t, payload, buf)

	_, err = s.ReadBytes(1)
	assert.ErrorIs(t, err, ErrTruncatedRead)
}

func TestBuilderOverflow(t *testing.T) {
	b := NewBuilder()
	for i := 0; i < MaxBits; i++ {
		require.NoError(t, b.WriteBit(true))
	}
	assert.ErrorIs(t, b.WriteBit(false), ErrCellOverflow)

	b = NewBuilder()
	for i := 0; i < MaxRefs; i++ {
		require.NoError(t, b.WriteRef(Empty()))
	}
	assert.ErrorIs(t, b.WriteRef(Empty()), ErrCellOverflow)
}
