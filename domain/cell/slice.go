package cell

// Slice is a mutable read cursor over exactly one cell. Every read advances
// the bit or reference position in place. A Slice must not be shared between
// concurrent readers; it borrows the cell and never owns it.
type Slice struct {
	cell   *Cell
	bitPos int
	refPos int
}

func (s *Slice) BitsRemaining() int {
	return len(s.cell.bits) - s.bitPos
}

func (s *Slice) RefsRemaining() int {
	return len(s.cell.refs) - s.refPos
}

func (s *Slice) ReadBit() (bool, error) {
	if s.BitsRemaining() < 1 {
		return false, ErrTruncatedRead
	}
	bit := s.cell.bits[s.bitPos]
	s.bitPos++
	return bit, nil
}

func (s *Slice) ReadBits(n int) ([]bool, error) {
	if s.BitsRemaining() < n {
		return nil, ErrTruncatedRead
	}
	bits := s.cell.bits[s.bitPos : s.bitPos+n]
	s.bitPos += n
	return bits, nil
}

// ReadUint reads n bits, n <= 64, as a big-endian unsigned integer.
func (s *Slice) ReadUint(n int) (uint64, error) {
	bits, err := s.ReadBits(n)
	if err != nil {
		return 0, err
	}
	var value uint64
	for _, bit := range bits {
		value <<= 1
		if bit {
			value |= 1
		}
	}
	return value, nil
}

// ReadInt reads n bits, n <= 64, as a two's-complement signed integer.
func (s *Slice) ReadInt(n int) (int64, error) {
	value, err := s.ReadUint(n)
	if err != nil {
		return 0, err
	}
	if n > 0 && n < 64 && value&(1<<(n-1)) != 0 {
		return int64(value) - (1 << n), nil
	}
	return int64(value), nil
}

// ReadCoins reads a 4-bit byte-length prefix L followed by 8*L bits of
// big-endian unsigned amount in the smallest ledger unit. L=0 yields 0.
func (s *Slice) ReadCoins() (int64, error) {
	length, err := s.ReadUint(4)
	if err != nil {
		return 0, err
	}
	var value uint64
	for i := uint64(0); i < length; i++ {
		b, err := s.ReadUint(8)
		if err != nil {
			return 0, err
		}
		if value > (1<<55)-1 {
			return 0, ErrCoinsOverflow
		}
		value = value<<8 | b
	}
	if value > 1<<63-1 {
		return 0, ErrCoinsOverflow
	}
	return int64(value), nil
}

// ReadRef returns the next child cell and advances the reference cursor.
func (s *Slice) ReadRef() (*Cell, error) {
	if s.RefsRemaining() < 1 {
		return nil, ErrRefExhausted
	}
	ref := s.cell.refs[s.refPos]
	s.refPos++
	return ref, nil
}

// ReadMaybeRef reads one presence bit and, if it is set, the next child
// cell. An absent reference yields nil without error.
func (s *Slice) ReadMaybeRef() (*Cell, error) {
	present, err := s.ReadBit()
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	return s.ReadRef()
}

// ReadBytes reads n full bytes from the bit stream.
func (s *Slice) ReadBytes(n int) ([]byte, error) {
	if s.BitsRemaining() < n*8 {
		return nil, ErrTruncatedRead
	}
	buf := make([]byte, n)
	for i := range buf {
		b, err := s.ReadUint(8)
		if err != nil {
			return nil, err
		}
		buf[i] = byte(b)
	}
	return buf, nil
}
