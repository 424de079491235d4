// Package huffman implements canonical Huffman coding with a fast-path
// lookup array for short codes and a spill tree for long codes, plus the
// wire serialization format shared by the endpoint, selector, and
// macroblock-symbol models (spec §4.1-4.2).
//
// The table-build algorithm (canonical code assignment via bit-reversed
// next-code walking, replicated fast-path entries) is grounded on
// deepteams-webp/internal/lossless/huffman.go's BuildHuffmanTable, adapted
// from WebP's two-level root/sub-table shape to this format's simpler
// single-level-fast-plus-spill-tree shape (our codes are length-limited to
// MaxCodeLength and the long tail is rare enough that a plain spill tree,
// rather than WebP's second-level tables, is the natural fit).
package huffman

import "errors"

// FastBits is the width of the direct-mapped fast lookup table.
const FastBits = 10

// MaxCodeLength is the maximum canonical code length this format allows.
const MaxCodeLength = 16

var (
	// ErrInvalidCodeLengths is returned when a set of code lengths does not
	// form a valid prefix code (the only valid single-symbol tree has
	// length 1, matching spec §4.1).
	ErrInvalidCodeLengths = errors.New("huffman: invalid code lengths")
)

// spillNode is one node of the overflow tree used for codes longer than
// FastBits. Negative fastTable entries index into spillNodes (sign-encoded,
// see Decode).
type spillNode struct {
	// leaf holds the decoded symbol when isLeaf is true.
	leaf   uint16
	isLeaf bool
	// zero/one are indices into the owning Table's spillNodes slice, or -1
	// if that branch is unassigned (decode error).
	zero, one int
}

// Table is a canonical Huffman decode table: codes up to FastBits long hit
// the direct-mapped fastTable; longer codes walk spillNodes bit by bit.
type Table struct {
	fastTable  []int32 // size 1<<FastBits; entries are (len<<16)|symbol, or -(spill root index)-1
	spillNodes []spillNode
	maxLen     int
	numSymbols int

	// codes/lengths hold the canonical assignment, indexed by symbol, for
	// encode-side use.
	codes   []uint32
	lengths []int
}

// Build constructs a canonical Huffman Table from per-symbol code lengths
// (0 meaning "symbol unused"). It fails with ErrInvalidCodeLengths if the
// lengths do not form a valid prefix code.
func Build(lengths []int) (*Table, error) {
	n := len(lengths)
	var count [MaxCodeLength + 1]int
	maxLen := 0
	used := 0
	for _, l := range lengths {
		if l < 0 || l > MaxCodeLength {
			return nil, ErrInvalidCodeLengths
		}
		if l > 0 {
			count[l]++
			used++
			if l > maxLen {
				maxLen = l
			}
		}
	}
	if used == 0 {
		return nil, ErrInvalidCodeLengths
	}
	if used == 1 {
		// Only valid single-symbol code has length 1, per spec §4.1.
		for _, l := range lengths {
			if l != 0 && l != 1 {
				return nil, ErrInvalidCodeLengths
			}
		}
	}

	// Verify Kraft's inequality holds with equality (complete prefix code).
	var sum uint64
	for l := 1; l <= MaxCodeLength; l++ {
		sum += uint64(count[l]) << uint(MaxCodeLength-l)
	}
	if sum != uint64(1)<<uint(MaxCodeLength) && used > 1 {
		return nil, ErrInvalidCodeLengths
	}

	// Canonical next-code assignment (Deflate-style).
	var nextCode [MaxCodeLength + 2]uint32
	code := uint32(0)
	for l := 1; l <= MaxCodeLength; l++ {
		code = (code + uint32(count[l-1])) << 1
		nextCode[l] = code
	}

	codes := make([]uint32, n)
	lengths2 := make([]int, n)
	copy(lengths2, lengths)
	for sym, l := range lengths {
		if l == 0 {
			continue
		}
		codes[sym] = nextCode[l]
		nextCode[l]++
	}

	// spillNodes[0] is a placeholder so no spill root is encoded as -1, the
	// fast-table marker for an unassigned slot.
	tbl := &Table{
		fastTable:  make([]int32, 1<<FastBits),
		spillNodes: []spillNode{{zero: -1, one: -1}},
		maxLen:     maxLen,
		numSymbols: n,
		codes:      codes,
		lengths:    lengths2,
	}
	for i := range tbl.fastTable {
		tbl.fastTable[i] = -1
	}

	for sym, l := range lengths {
		if l == 0 {
			continue
		}
		rev := reverseBits(codes[sym], l)
		if err := tbl.insert(rev, l, uint16(sym)); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

// insert places a bit-reversed code (LSB-first, matching how the reader
// peeks bits) of length l into the fast table (replicating across unused
// high bits) or the spill tree.
func (t *Table) insert(revCode uint32, l int, sym uint16) error {
	if l <= FastBits {
		step := 1 << uint(l)
		entry := int32(l)<<16 | int32(sym)
		for i := int(revCode); i < len(t.fastTable); i += step {
			if t.fastTable[i] != -1 {
				return ErrInvalidCodeLengths
			}
			t.fastTable[i] = entry
		}
		return nil
	}
	prefix := revCode & (1<<uint(FastBits) - 1)
	root := int(prefix)
	if t.fastTable[root] == -1 {
		idx := len(t.spillNodes)
		t.spillNodes = append(t.spillNodes, spillNode{zero: -1, one: -1})
		t.fastTable[root] = -int32(idx) - 1
	} else if t.fastTable[root] >= 0 {
		return ErrInvalidCodeLengths
	}
	nodeIdx := int(-t.fastTable[root] - 1)
	bits := revCode >> uint(FastBits)
	remaining := l - FastBits
	for i := 0; i < remaining; i++ {
		bit := (bits >> uint(i)) & 1
		node := &t.spillNodes[nodeIdx]
		if node.isLeaf {
			return ErrInvalidCodeLengths
		}
		next := node.zero
		if bit == 1 {
			next = node.one
		}
		if i == remaining-1 {
			if next != -1 {
				return ErrInvalidCodeLengths
			}
			leafIdx := len(t.spillNodes)
			t.spillNodes = append(t.spillNodes, spillNode{leaf: sym, isLeaf: true})
			if bit == 1 {
				t.spillNodes[nodeIdx].one = leafIdx
			} else {
				t.spillNodes[nodeIdx].zero = leafIdx
			}
			return nil
		}
		if next == -1 {
			newIdx := len(t.spillNodes)
			t.spillNodes = append(t.spillNodes, spillNode{zero: -1, one: -1})
			if bit == 1 {
				t.spillNodes[nodeIdx].one = newIdx
			} else {
				t.spillNodes[nodeIdx].zero = newIdx
			}
			next = newIdx
		}
		nodeIdx = next
	}
	return nil
}

// Decode reads one symbol from r using the fast table / spill tree.
func (t *Table) Decode(r bitReader) (uint16, error) {
	peek := r.PeekBits(FastBits)
	entry := t.fastTable[peek]
	if entry >= 0 {
		length := int(entry >> 16)
		sym := uint16(entry & 0xffff)
		r.RemoveBits(length)
		return sym, nil
	}
	if entry == -1 {
		return 0, ErrInvalidCodeLengths
	}
	r.RemoveBits(FastBits)
	nodeIdx := int(-entry - 1)
	for {
		node := &t.spillNodes[nodeIdx]
		if node.isLeaf {
			return node.leaf, nil
		}
		bit := r.GetBits(1)
		next := node.zero
		if bit == 1 {
			next = node.one
		}
		if next == -1 {
			return 0, ErrInvalidCodeLengths
		}
		nodeIdx = next
	}
}

// Encode writes the canonical code for sym to w.
func (t *Table) Encode(w bitWriter, sym int) {
	l := t.lengths[sym]
	code := t.codes[sym]
	rev := reverseBits(code, l)
	w.PutBits(rev, l)
}

// CodeLength returns the canonical code length assigned to sym (0 if unused).
func (t *Table) CodeLength(sym int) int {
	if sym < 0 || sym >= len(t.lengths) {
		return 0
	}
	return t.lengths[sym]
}

// NumSymbols returns the size of the symbol alphabet this table was built
// over (including unused symbols).
func (t *Table) NumSymbols() int {
	return t.numSymbols
}

// bitReader/bitWriter are the minimal interfaces this package needs from
// internal/bitio, kept local to avoid an import cycle risk and to make this
// package testable with a fake bit source.
type bitReader interface {
	PeekBits(n int) uint32
	RemoveBits(n int)
	GetBits(n int) uint32
}

type bitWriter interface {
	PutBits(value uint32, n int)
}

func reverseBits(v uint32, n int) uint32 {
	var r uint32
	for i := 0; i < n; i++ {
		r = (r << 1) | (v & 1)
		v >>= 1
	}
	return r
}
