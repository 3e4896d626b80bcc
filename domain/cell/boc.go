package cell

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"sort"
)

// Bag-of-cells exchange encoding. Deserialization accepts the generic
// format with optional index and checksum; serialization emits the common
// canonical form: no index, CRC32-C appended.

const bocMagic = 0xb5ee9c72

var crcTable = crc32.MakeTable(crc32.Castagnoli)

// EmptyCellBoc is the canonical serialization of a single empty cell. The
// ledger stores message bodies in this exact form, so an equality check on
// the base64 string identifies an empty payload.
const EmptyCellBoc = "te6cckEBAQEAAgAAAEysuc0="

type bocReader struct {
	buf []byte
	pos int
}

func (r *bocReader) bytes(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, fmt.Errorf("%w: truncated", ErrMalformedBoc)
	}
	chunk := r.buf[r.pos : r.pos+n]
	r.pos += n
	return chunk, nil
}

func (r *bocReader) uint(n int) (uint64, error) {
	chunk, err := r.bytes(n)
	if err != nil {
		return 0, err
	}
	var value uint64
	for _, b := range chunk {
		value = value<<8 | uint64(b)
	}
	return value, nil
}

// FromBoc deserializes a bag of cells and returns its root cells.
func FromBoc(data []byte) ([]*Cell, error) {
	r := &bocReader{buf: data}

	magic, err := r.uint(4)
	if err != nil {
		return nil, err
	}
	if magic != bocMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrMalformedBoc)
	}
	flags, err := r.uint(1)
	if err != nil {
		return nil, err
	}
	hasIdx := flags&0x80 != 0
	hasCrc := flags&0x40 != 0
	sizeBytes := int(flags & 0x07)
	offBytes64, err := r.uint(1)
	if err != nil {
		return nil, err
	}
	offBytes := int(offBytes64)
	if sizeBytes < 1 || sizeBytes > 8 || offBytes < 1 || offBytes > 8 {
		return nil, fmt.Errorf("%w: bad size bytes", ErrMalformedBoc)
	}

	cellsCount, err := r.uint(sizeBytes)
	if err != nil {
		return nil, err
	}
	rootsCount, err := r.uint(sizeBytes)
	if err != nil {
		return nil, err
	}
	if _, err := r.uint(sizeBytes); err != nil { // absent cells, unused
		return nil, err
	}
	if _, err := r.uint(offBytes); err != nil { // total cells size, unused
		return nil, err
	}
	if cellsCount == 0 || rootsCount == 0 || rootsCount > cellsCount {
		return nil, fmt.Errorf("%w: bad cell counts", ErrMalformedBoc)
	}

	rootIndexes := make([]int, rootsCount)
	for i := range rootIndexes {
		idx, err := r.uint(sizeBytes)
		if err != nil {
			return nil, err
		}
		rootIndexes[i] = int(idx)
	}
	if hasIdx {
		if _, err := r.bytes(int(cellsCount) * offBytes); err != nil {
			return nil, err
		}
	}

	type rawCell struct {
		bits []bool
		refs []int
	}
	raw := make([]rawCell, cellsCount)
	for i := range raw {
		d1, err := r.uint(1)
		if err != nil {
			return nil, err
		}
		d2, err := r.uint(1)
		if err != nil {
			return nil, err
		}
		if d1&0x08 != 0 {
			return nil, fmt.Errorf("%w: exotic cells are not supported", ErrMalformedBoc)
		}
		refsCount := int(d1 & 0x07)
		if refsCount > MaxRefs {
			return nil, fmt.Errorf("%w: too many references", ErrMalformedBoc)
		}
		dataLen := int(d2+1) / 2
		data, err := r.bytes(dataLen)
		if err != nil {
			return nil, err
		}
		bits := bytesToBits(data)
		if d2%2 == 1 {
			// Padded byte: strip the completion tag.
			end := len(bits) - 1
			for end >= 0 && !bits[end] {
				end--
			}
			if end < 0 {
				return nil, fmt.Errorf("%w: missing completion tag", ErrMalformedBoc)
			}
			bits = bits[:end]
		}
		raw[i].bits = bits
		raw[i].refs = make([]int, refsCount)
		for j := range raw[i].refs {
			ref, err := r.uint(sizeBytes)
			if err != nil {
				return nil, err
			}
			if int(ref) <= i || ref >= cellsCount {
				return nil, fmt.Errorf("%w: bad reference order", ErrMalformedBoc)
			}
			raw[i].refs[j] = int(ref)
		}
	}

	if hasCrc {
		sum, err := r.bytes(4)
		if err != nil {
			return nil, err
		}
		if binary.LittleEndian.Uint32(sum) != crc32.Checksum(data[:len(data)-4], crcTable) {
			return nil, fmt.Errorf("%w: checksum mismatch", ErrMalformedBoc)
		}
	}

	cells := make([]*Cell, cellsCount)
	for i := int(cellsCount) - 1; i >= 0; i-- {
		refs := make([]*Cell, len(raw[i].refs))
		for j, ref := range raw[i].refs {
			refs[j] = cells[ref]
		}
		cells[i] = &Cell{bits: raw[i].bits, refs: refs}
	}

	roots := make([]*Cell, rootsCount)
	for i, idx := range rootIndexes {
		if idx >= int(cellsCount) {
			return nil, fmt.Errorf("%w: bad root index", ErrMalformedBoc)
		}
		roots[i] = cells[idx]
	}
	return roots, nil
}

// FromBocBase64 deserializes a base64-encoded bag of cells and returns its
// first root.
func FromBocBase64(s string) (*Cell, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBoc, err)
	}
	roots, err := FromBoc(data)
	if err != nil {
		return nil, err
	}
	return roots[0], nil
}

// ToBoc serializes the cell and everything reachable from it.
func ToBoc(root *Cell) ([]byte, error) {
	ordered := orderCells(root)
	index := make(map[*Cell]int, len(ordered))
	for i, c := range ordered {
		index[c] = i
	}

	sizeBytes := minimalBytes(uint64(len(ordered)))

	var payload []byte
	for _, c := range ordered {
		data, d2 := bitsToPaddedBytes(c.bits)
		payload = append(payload, byte(len(c.refs)), d2)
		payload = append(payload, data...)
		for _, ref := range c.refs {
			payload = appendUint(payload, uint64(index[ref]), sizeBytes)
		}
	}
	offBytes := minimalBytes(uint64(len(payload)))

	out := make([]byte, 0, len(payload)+16)
	out = appendUint(out, bocMagic, 4)
	out = append(out, byte(0x40|sizeBytes), byte(offBytes))
	out = appendUint(out, uint64(len(ordered)), sizeBytes)
	out = appendUint(out, 1, sizeBytes) // roots
	out = appendUint(out, 0, sizeBytes) // absent
	out = appendUint(out, uint64(len(payload)), offBytes)
	out = appendUint(out, 0, sizeBytes) // root index
	out = append(out, payload...)

	var sum [4]byte
	binary.LittleEndian.PutUint32(sum[:], crc32.Checksum(out, crcTable))
	return append(out, sum[:]...), nil
}

// ToBocBase64 serializes the cell into the canonical base64 form.
func ToBocBase64(root *Cell) (string, error) {
	data, err := ToBoc(root)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// orderCells lists the unique cells reachable from root so that every
// reference points to a higher index, as the encoding requires.
func orderCells(root *Cell) []*Cell {
	depth := make(map[*Cell]int)
	order := make(map[*Cell]int)
	next := 0
	var visit func(c *Cell, d int)
	visit = func(c *Cell, d int) {
		if seen, ok := depth[c]; !ok || d > seen {
			depth[c] = d
		}
		if _, ok := order[c]; !ok {
			order[c] = next
			next++
		}
		for _, ref := range c.refs {
			visit(ref, d+1)
		}
	}
	visit(root, 0)

	cells := make([]*Cell, 0, len(order))
	for c := range order {
		cells = append(cells, c)
	}
	sort.Slice(cells, func(i, j int) bool {
		if depth[cells[i]] != depth[cells[j]] {
			return depth[cells[i]] < depth[cells[j]]
		}
		return order[cells[i]] < order[cells[j]]
	})
	return cells
}

func bytesToBits(data []byte) []bool {
	bits := make([]bool, 0, len(data)*8)
	for _, b := range data {
		for i := 7; i >= 0; i-- {
			bits = append(bits, b&(1<<i) != 0)
		}
	}
	return bits
}

// bitsToPaddedBytes packs bits into bytes with a completion tag when the
// count is not a multiple of eight, and returns the d2 descriptor byte.
func bitsToPaddedBytes(bits []bool) ([]byte, byte) {
	d2 := byte(len(bits)/8 + (len(bits)+7)/8)
	padded := bits
	if len(bits)%8 != 0 {
		padded = make([]bool, len(bits), (len(bits)/8+1)*8)
		copy(padded, bits)
		padded = append(padded, true)
		for len(padded)%8 != 0 {
			padded = append(padded, false)
		}
	}
	data := make([]byte, len(padded)/8)
	for i, bit := range padded {
		if bit {
			data[i/8] |= 1 << (7 - i%8)
		}
	}
	return data, d2
}

func minimalBytes(value uint64) int {
	n := 1
	for n < 8 && value >= 1<<(8*n) {
		n++
	}
	return n
}

func appendUint(buf []byte, value uint64, n int) []byte {
	for i := n - 1; i >= 0; i-- {
		buf = append(buf, byte(value>>(8*i)))
	}
	return buf
}
