package cell

import (
	"fmt"
	"math/bits"
)

// KeyReader decodes a dictionary key from a slice holding exactly the key
// bits.
type KeyReader[K comparable] func(key *Slice) (K, error)

// ValueReader decodes a dictionary value from the remainder of a leaf edge.
type ValueReader[V any] func(value *Slice) (V, error)

// ParseDict decodes a HashmapE dictionary with fixed keySize-bit keys from
// root. A nil root is the empty dictionary, not an error. Iteration order of
// the returned map is unrelated to the trie's bit-prefix order; callers must
// not assume any ordering.
func ParseDict[K comparable, V any](root *Cell, keySize int, readKey KeyReader[K], readValue ValueReader[V]) (map[K]V, error) {
	out := make(map[K]V)
	if root == nil {
		return out, nil
	}
	err := parseDictEdge(root.BeginParse(), keySize, nil, func(key []bool, value *Slice) error {
		keyCell := &Cell{bits: key}
		k, err := readKey(keyCell.BeginParse())
		if err != nil {
			return err
		}
		v, err := readValue(value)
		if err != nil {
			return err
		}
		out[k] = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// parseDictEdge walks one edge of the compressed trie: a label, then either
// a leaf value or two child branches.
func parseDictEdge(s *Slice, left int, prefix []bool, emit func(key []bool, value *Slice) error) error {
	label, err := readLabel(s, left)
	if err != nil {
		return err
	}
	prefix = append(prefix, label...)
	left -= len(label)
	if left == 0 {
		key := make([]bool, len(prefix))
		copy(key, prefix)
		return emit(key, s)
	}

	zero, err := s.ReadRef()
	if err != nil {
		return fmt.Errorf("%w: missing left branch", ErrMalformedDictionary)
	}
	one, err := s.ReadRef()
	if err != nil {
		return fmt.Errorf("%w: missing right branch", ErrMalformedDictionary)
	}
	if err := parseDictEdge(zero.BeginParse(), left-1, append(prefix, false), emit); err != nil {
		return err
	}
	return parseDictEdge(one.BeginParse(), left-1, append(prefix, true), emit)
}

// readLabel reads one of the three label encodings. The label of an edge
// with m undecided key bits may be at most m bits long; anything longer is
// trie corruption.
func readLabel(s *Slice, m int) ([]bool, error) {
	kind, err := s.ReadBit()
	if err != nil {
		return nil, fmt.Errorf("%w: truncated label", ErrMalformedDictionary)
	}
	if !kind {
		// hml_short$0: unary length, then the label bits.
		length := 0
		for {
			bit, err := s.ReadBit()
			if err != nil {
				return nil, fmt.Errorf("%w: truncated label", ErrMalformedDictionary)
			}
			if !bit {
				break
			}
			length++
		}
		return readLabelBits(s, length, m)
	}

	same, err := s.ReadBit()
	if err != nil {
		return nil, fmt.Errorf("%w: truncated label", ErrMalformedDictionary)
	}
	if !same {
		// hml_long$10: length in ceil(log2(m+1)) bits, then the label bits.
		length, err := s.ReadUint(lenBits(m))
		if err != nil {
			return nil, fmt.Errorf("%w: truncated label", ErrMalformedDictionary)
		}
		return readLabelBits(s, int(length), m)
	}

	// hml_same$11: one bit repeated length times.
	bit, err := s.ReadBit()
	if err != nil {
		return nil, fmt.Errorf("%w: truncated label", ErrMalformedDictionary)
	}
	length, err := s.ReadUint(lenBits(m))
	if err != nil {
		return nil, fmt.Errorf("%w: truncated label", ErrMalformedDictionary)
	}
	if int(length) > m {
		return nil, fmt.Errorf("%w: label length overflow", ErrMalformedDictionary)
	}
	label := make([]bool, length)
	for i := range label {
		label[i] = bit
	}
	return label, nil
}

func readLabelBits(s *Slice, length, m int) ([]bool, error) {
	if length > m {
		return nil, fmt.Errorf("%w: label length overflow", ErrMalformedDictionary)
	}
	label, err := s.ReadBits(length)
	if err != nil {
		return nil, fmt.Errorf("%w: truncated label", ErrMalformedDictionary)
	}
	return label, nil
}

// lenBits is the width of a long-form label length for m undecided bits.
func lenBits(m int) int {
	return bits.Len(uint(m))
}

// DictEntry is one key/value pair for BuildDict. Key must hold exactly the
// dictionary's key size; the value cell's bits and refs are written inline
// at the leaf.
type DictEntry struct {
	Key   []bool
	Value *Cell
}

// BuildDict serializes entries into a HashmapE root cell using long-form
// labels. The resulting trie depends only on the key set, never on the order
// entries are listed in.
func BuildDict(keySize int, entries []DictEntry) (*Cell, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	for _, e := range entries {
		if len(e.Key) != keySize {
			return nil, fmt.Errorf("%w: key size mismatch", ErrMalformedDictionary)
		}
	}
	suffixes := make([]DictEntry, len(entries))
	copy(suffixes, entries)
	return buildDictEdge(suffixes, keySize)
}

func buildDictEdge(entries []DictEntry, m int) (*Cell, error) {
	label := commonPrefix(entries)
	b := NewBuilder()
	// hml_long$10 encoding.
	if err := b.WriteUint(0b10, 2); err != nil {
		return nil, err
	}
	if err := b.WriteUint(uint64(len(label)), lenBits(m)); err != nil {
		return nil, err
	}
	if err := b.WriteBits(label); err != nil {
		return nil, err
	}

	left := m - len(label)
	if left == 0 {
		value := entries[0].Value
		if err := b.WriteBits(value.bits); err != nil {
			return nil, err
		}
		for _, ref := range value.refs {
			if err := b.WriteRef(ref); err != nil {
				return nil, err
			}
		}
		return b.Cell(), nil
	}

	var zero, one []DictEntry
	for _, e := range entries {
		tail := DictEntry{Key: e.Key[len(label)+1:], Value: e.Value}
		if e.Key[len(label)] {
			one = append(one, tail)
		} else {
			zero = append(zero, tail)
		}
	}
	zeroCell, err := buildDictEdge(zero, left-1)
	if err != nil {
		return nil, err
	}
	oneCell, err := buildDictEdge(one, left-1)
	if err != nil {
		return nil, err
	}
	if err := b.WriteRef(zeroCell); err != nil {
		return nil, err
	}
	if err := b.WriteRef(oneCell); err != nil {
		return nil, err
	}
	return b.Cell(), nil
}

func commonPrefix(entries []DictEntry) []bool {
	prefix := entries[0].Key
	for _, e := range entries[1:] {
		n := 0
		for n < len(prefix) && n < len(e.Key) && prefix[n] == e.Key[n] {
			n++
		}
		prefix = prefix[:n]
	}
	return prefix
}
