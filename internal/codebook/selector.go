package codebook

import (
	"github.com/pkg/errors"

	"github.com/basisgo/transcoder/internal/bitio"
	"github.com/basisgo/transcoder/internal/huffman"
)

// SelectorEntry is a 4x4 grid of 2-bit selector values plus derived flags
// (spec §3).
type SelectorEntry struct {
	Selectors [16]uint8 // 2-bit values, row-major (4 rows of 4)
}

// HasMinSelector reports whether any texel uses selector value 0.
func (s SelectorEntry) HasMinSelector() bool {
	for _, v := range s.Selectors {
		if v == 0 {
			return true
		}
	}
	return false
}

// HasMaxSelector reports whether any texel uses selector value 3.
func (s SelectorEntry) HasMaxSelector() bool {
	for _, v := range s.Selectors {
		if v == 3 {
			return true
		}
	}
	return false
}

// DistinctCount returns the number of distinct selector values present.
func (s SelectorEntry) DistinctCount() int {
	var seen [4]bool
	n := 0
	for _, v := range s.Selectors {
		if !seen[v] {
			seen[v] = true
			n++
		}
	}
	return n
}

// Pack returns the entry's 32-bit packed representation (2 bits per texel,
// texel 0 in the low bits), used by the XOR-delta transmission mode.
func (s SelectorEntry) Pack() uint32 {
	var v uint32
	for i, sel := range s.Selectors {
		v |= uint32(sel&3) << uint(i*2)
	}
	return v
}

// unpackSelectorEntry is the inverse of Pack.
func unpackSelectorEntry(v uint32) SelectorEntry {
	var e SelectorEntry
	for i := range e.Selectors {
		e.Selectors[i] = uint8((v >> uint(i*2)) & 3)
	}
	return e
}

// selectorWireOrder is the fixed permutation between a selector entry's
// internal texel order and ETC1 wire order (spec §4.3).
var selectorWireOrder = [4]int{3, 2, 0, 1}

// ToWireOrder permutes one row of 4 two-bit values from internal to ETC1
// wire order.
func ToWireOrder(internal [4]uint8) [4]uint8 {
	var out [4]uint8
	for i, src := range selectorWireOrder {
		out[i] = internal[src]
	}
	return out
}

// SelectorPalette is the deduplicated set of selector entries used by a
// slice, in old/original order.
type SelectorPalette struct {
	Entries []SelectorEntry
}

// SelectorMode identifies the transmission mode chosen for a serialized
// selector palette (spec §4.3).
type SelectorMode uint8

const (
	SelectorModeDelta  SelectorMode = 0 // (a) XOR-delta over 32-bit words
	SelectorModeRaw    SelectorMode = 1 // (b) raw byte dump
	SelectorModeGlobal SelectorMode = 2 // (c) global-codebook (legacy)
)

var ErrUnsupportedSelectorMode = errors.New("codebook: unsupported selector transmission mode")

// DecodeSelectorPalette reads a serialized selector palette of the given
// count and newToOld reorder, in whichever of the three transmission modes
// the two leading flag bits select (spec §4.3). Mode (c), global-codebook,
// is accepted for backward compatibility but requires the caller to supply
// globalCodebook (may be nil if mode (c) is never used by the stream being
// read).
func DecodeSelectorPalette(r *bitio.Reader, count int, newToOld []int, globalCodebook []SelectorEntry) (*SelectorPalette, error) {
	if count < 0 || count > MaxPaletteSize {
		return nil, ErrPaletteTooLarge
	}
	mode := SelectorMode(r.GetBits(2))
	newOrder := make([]SelectorEntry, count)

	switch mode {
	case SelectorModeDelta:
		lengths, err := huffman.Deserialize(r)
		if err != nil {
			return nil, errors.Wrap(err, "codebook: selector delta huffman table")
		}
		table, err := huffman.Build(lengths)
		if err != nil {
			return nil, errors.Wrap(err, "codebook: selector delta huffman build")
		}
		var prev uint32
		for i := 0; i < count; i++ {
			var cur uint32
			for b := 0; b < 4; b++ {
				sym, err := table.Decode(r)
				if err != nil {
					return nil, errors.Wrap(err, "codebook: selector delta byte")
				}
				xorByte := uint32(sym)
				prevByte := (prev >> uint(b*8)) & 0xff
				cur |= (prevByte ^ xorByte) << uint(b*8)
			}
			newOrder[i] = unpackSelectorEntry(cur)
			prev = cur
		}
	case SelectorModeRaw:
		for i := 0; i < count; i++ {
			v := r.GetBitsWide(32)
			newOrder[i] = unpackSelectorEntry(v)
		}
	case SelectorModeGlobal:
		palBits := int(r.GetBits(5))
		modLengths, err := huffman.Deserialize(r)
		if err != nil {
			return nil, errors.Wrap(err, "codebook: selector global modifier huffman table")
		}
		modTable, err := huffman.Build(modLengths)
		if err != nil {
			return nil, errors.Wrap(err, "codebook: selector global modifier huffman build")
		}
		for i := 0; i < count; i++ {
			palIdx := r.GetBits(palBits)
			modSym, err := modTable.Decode(r)
			if err != nil {
				return nil, errors.Wrap(err, "codebook: selector global modifier symbol")
			}
			if globalCodebook == nil || int(palIdx) >= len(globalCodebook) {
				return nil, errors.New("codebook: global selector codebook index out of range")
			}
			newOrder[i] = applyGlobalModifier(globalCodebook[palIdx], uint8(modSym))
		}
	default:
		return nil, ErrUnsupportedSelectorMode
	}

	out := make([]SelectorEntry, count)
	for newIdx, oldIdx := range newToOld {
		if oldIdx < 0 || oldIdx >= count {
			return nil, errors.New("codebook: selector reorder table out of range")
		}
		out[oldIdx] = newOrder[newIdx]
	}
	return &SelectorPalette{Entries: out}, nil
}

// applyGlobalModifier is a legacy-mode helper that applies a modifier to a
// global-codebook base entry (spec §4.3: "legacy path retained only for
// backward compatibility"). It overwrites texel 0's selector with the low
// two bits of mod and leaves the other fifteen texels as in base; no XOR
// is applied. No encoder path in this package produces modifier entries.
func applyGlobalModifier(base SelectorEntry, mod uint8) SelectorEntry {
	out := base
	out.Selectors[0] = mod & 3
	return out
}

// EncodeSelectorPalette writes entries (old order) through oldToNew,
// choosing between delta mode (a) and raw mode (b) per spec §4.3: "the
// encoder chooses, after trying (a), whichever of (a) or (b) is smaller."
func EncodeSelectorPalette(w *bitio.Writer, entries []SelectorEntry, oldToNew []int) error {
	n := len(entries)
	newOrder := make([]SelectorEntry, n)
	for oldIdx, newIdx := range oldToNew {
		newOrder[newIdx] = entries[oldIdx]
	}

	deltaBuf, deltaOK := tryEncodeDelta(newOrder)
	rawBits := n * 32

	if deltaOK && deltaBuf.BitLength() <= rawBits {
		w.PutBits(uint32(SelectorModeDelta), 2)
		w.Splice(deltaBuf)
		return nil
	}

	w.PutBits(uint32(SelectorModeRaw), 2)
	for _, e := range newOrder {
		w.PutBitsWide(e.Pack(), 32)
	}
	return nil
}

func tryEncodeDelta(newOrder []SelectorEntry) (*bitio.Writer, bool) {
	freq := make([]int, 256)
	var prev uint32
	type xorBytes [4]byte
	xs := make([]xorBytes, len(newOrder))
	for i, e := range newOrder {
		cur := e.Pack()
		var xb xorBytes
		for b := 0; b < 4; b++ {
			curByte := byte(cur >> uint(b*8))
			prevByte := byte(prev >> uint(b*8))
			xb[b] = curByte ^ prevByte
			freq[xb[b]]++
		}
		xs[i] = xb
		prev = cur
	}
	lengths, err := huffmanLengthsOrFallback(freq)
	if err != nil {
		return nil, false
	}
	w := bitio.NewWriter(len(newOrder) * 2)
	if err := huffman.Serialize(w, lengths); err != nil {
		return nil, false
	}
	table, err := huffman.Build(lengths)
	if err != nil {
		return nil, false
	}
	for _, xb := range xs {
		for _, b := range xb {
			table.Encode(w, int(b))
		}
	}
	return w, true
}
