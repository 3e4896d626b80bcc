// Package cell implements the ledger's cell serialization format: bounded
// bit-string nodes with up to four child references, read cursors over them,
// compressed binary tries (HashmapE dictionaries) and the bag-of-cells
// exchange encoding.
package cell

import (
	"fmt"
)

const (
	// MaxBits is the payload capacity of a single cell.
	MaxBits = 1023
	// MaxRefs is the reference capacity of a single cell.
	MaxRefs = 4
)

var (
	ErrTruncatedRead       = fmt.Errorf("not enough bits left to read")
	ErrRefExhausted        = fmt.Errorf("no cell references left to read")
	ErrMalformedDictionary = fmt.Errorf("malformed dictionary")
	ErrCellOverflow        = fmt.Errorf("cell capacity exceeded")
	ErrMalformedBoc        = fmt.Errorf("malformed bag of cells")
	ErrCoinsOverflow       = fmt.Errorf("coins value does not fit in 63 bits")
)

// Cell is one immutable node of the serialization format. Children may be
// shared between cells; a cell always outlives any Slice reading it.
type Cell struct {
	bits []bool
	refs []*Cell
}

// Empty returns a cell with no payload bits and no references.
func Empty() *Cell {
	return &Cell{}
}

func (c *Cell) BitsCount() int {
	return len(c.bits)
}

func (c *Cell) RefsCount() int {
	return len(c.refs)
}

func (c *Cell) Refs() []*Cell {
	return c.refs
}

// BeginParse returns a fresh read cursor positioned at the start of the cell.
func (c *Cell) BeginParse() *Slice {
	return &Slice{cell: c}
}
