package cell

// Builder accumulates bits and references and seals them into a Cell.
type Builder struct {
	bits []bool
	refs []*Cell
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) BitsCount() int {
	return len(b.bits)
}

func (b *Builder) WriteBit(bit bool) error {
	if len(b.bits) >= MaxBits {
		return ErrCellOverflow
	}
	b.bits = append(b.bits, bit)
	return nil
}

func (b *Builder) WriteBits(bits []bool) error {
	if len(b.bits)+len(bits) > MaxBits {
		return ErrCellOverflow
	}
	b.bits = append(b.bits, bits...)
	return nil
}

// WriteUint writes the low n bits of value, big-endian.
func (b *Builder) WriteUint(value uint64, n int) error {
	bits := make([]bool, n)
	for i := n - 1; i >= 0; i-- {
		bits[i] = value&1 == 1
		value >>= 1
	}
	return b.WriteBits(bits)
}

// WriteInt writes value as an n-bit two's-complement integer.
func (b *Builder) WriteInt(value int64, n int) error {
	return b.WriteUint(uint64(value)&(^uint64(0)>>(64-uint(n))), n)
}

// WriteCoins writes the variable-length coins encoding: a 4-bit byte-length
// prefix followed by the minimal big-endian representation of value.
func (b *Builder) WriteCoins(value int64) error {
	length := 0
	for v := uint64(value); v > 0; v >>= 8 {
		length++
	}
	if err := b.WriteUint(uint64(length), 4); err != nil {
		return err
	}
	return b.WriteUint(uint64(value), length*8)
}

func (b *Builder) WriteBytes(buf []byte) error {
	for _, octet := range buf {
		if err := b.WriteUint(uint64(octet), 8); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) WriteRef(ref *Cell) error {
	if len(b.refs) >= MaxRefs {
		return ErrCellOverflow
	}
	b.refs = append(b.refs, ref)
	return nil
}

// WriteMaybeRef writes a presence bit and, for a non-nil ref, the reference.
func (b *Builder) WriteMaybeRef(ref *Cell) error {
	if ref == nil {
		return b.WriteBit(false)
	}
	if err := b.WriteBit(true); err != nil {
		return err
	}
	return b.WriteRef(ref)
}

// Cell seals the builder's content into an immutable cell.
func (b *Builder) Cell() *Cell {
	bits := make([]bool, len(b.bits))
	copy(bits, b.bits)
	refs := make([]*Cell, len(b.refs))
	copy(refs, b.refs)
	return &Cell{bits: bits, refs: refs}
}
