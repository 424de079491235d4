package codebook

import (
	"github.com/pkg/errors"

	"github.com/basisgo/transcoder/internal/bitio"
	"github.com/basisgo/transcoder/internal/huffman"
)

// MaxPaletteSize is the largest endpoint or selector palette this format
// allows (spec §3).
const MaxPaletteSize = 16384

// ErrPaletteTooLarge is returned when a palette's declared size exceeds
// MaxPaletteSize.
var ErrPaletteTooLarge = errors.New("codebook: palette size out of range")

// EndpointEntry is one entry of the endpoint palette: a 5:5:5 RGB base
// color, its predicted 4:4:4 variant, and a 3-bit intensity-table index
// (spec §3).
type EndpointEntry struct {
	R, G, B   uint8 // 5-bit values, stored in the low bits
	Pred4 [3]uint8  // predicted 4:4:4 R,G,B variant
	Inten     uint8 // 3-bit intensity-table index
}

// EndpointPalette is the deduplicated set of endpoint entries used by a
// slice, in transmission ("new") order after decode/reorder.
type EndpointPalette struct {
	Entries []EndpointEntry
}

// deltaCenter5 / deltaCenter3 are the bias added to each transmitted delta
// so that unsigned Huffman symbols can represent negative deltas (spec
// §4.3: "5-bit R,G,B deltas centered at 31", "3-bit intensity delta
// centered at 7").
const (
	deltaCenter5 = 31
	deltaCenter3 = 7
)

// DecodeEndpointPalette reads a serialized endpoint palette: two Huffman
// tables (delta-RGB, delta-intensity) followed by count entries streamed
// in new-order as accumulated deltas from (0,0,0,0), then applies
// newToOld so the returned slice indexes as the encoder originally
// produced it (spec §4.3).
func DecodeEndpointPalette(r *bitio.Reader, count int, newToOld []int) (*EndpointPalette, error) {
	if count < 0 || count > MaxPaletteSize {
		return nil, ErrPaletteTooLarge
	}
	rgbLengths, err := huffman.Deserialize(r)
	if err != nil {
		return nil, errors.Wrap(err, "codebook: endpoint rgb huffman table")
	}
	rgbTable, err := huffman.Build(rgbLengths)
	if err != nil {
		return nil, errors.Wrap(err, "codebook: endpoint rgb huffman build")
	}
	intenLengths, err := huffman.Deserialize(r)
	if err != nil {
		return nil, errors.Wrap(err, "codebook: endpoint intensity huffman table")
	}
	intenTable, err := huffman.Build(intenLengths)
	if err != nil {
		return nil, errors.Wrap(err, "codebook: endpoint intensity huffman build")
	}

	newOrder := make([]EndpointEntry, count)
	var prevR, prevG, prevB, prevI int
	for i := 0; i < count; i++ {
		dr, err := rgbTable.Decode(r)
		if err != nil {
			return nil, errors.Wrap(err, "codebook: endpoint r delta")
		}
		dg, err := rgbTable.Decode(r)
		if err != nil {
			return nil, errors.Wrap(err, "codebook: endpoint g delta")
		}
		db, err := rgbTable.Decode(r)
		if err != nil {
			return nil, errors.Wrap(err, "codebook: endpoint b delta")
		}
		di, err := intenTable.Decode(r)
		if err != nil {
			return nil, errors.Wrap(err, "codebook: endpoint intensity delta")
		}
		prevR = wrap5(prevR + int(dr) - deltaCenter5)
		prevG = wrap5(prevG + int(dg) - deltaCenter5)
		prevB = wrap5(prevB + int(db) - deltaCenter5)
		prevI = wrap3(prevI + int(di) - deltaCenter3)
		newOrder[i] = EndpointEntry{
			R:     uint8(prevR),
			G:     uint8(prevG),
			B:     uint8(prevB),
			Inten: uint8(prevI),
		}
		newOrder[i].Pred4 = predict444(newOrder[i])
	}

	out := make([]EndpointEntry, count)
	for newIdx, oldIdx := range newToOld {
		if oldIdx < 0 || oldIdx >= count {
			return nil, errors.New("codebook: endpoint reorder table out of range")
		}
		out[oldIdx] = newOrder[newIdx]
	}
	return &EndpointPalette{Entries: out}, nil
}

// EncodeEndpointPalette writes entries (in old/original order) through
// oldToNew to produce the new-order delta stream, building fresh Huffman
// tables for the RGB and intensity delta alphabets.
func EncodeEndpointPalette(w *bitio.Writer, entries []EndpointEntry, oldToNew []int) error {
	n := len(entries)
	newOrder := make([]EndpointEntry, n)
	for oldIdx, newIdx := range oldToNew {
		newOrder[newIdx] = entries[oldIdx]
	}

	rgbFreq := make([]int, 64)
	intenFreq := make([]int, 16)
	prevR, prevG, prevB, prevI := 0, 0, 0, 0
	type deltas struct{ dr, dg, db, di int }
	ds := make([]deltas, n)
	for i, e := range newOrder {
		dr := wrap5(int(e.R)-prevR) + deltaCenter5
		dg := wrap5(int(e.G)-prevG) + deltaCenter5
		db := wrap5(int(e.B)-prevB) + deltaCenter5
		di := wrap3(int(e.Inten)-prevI) + deltaCenter3
		dr = clamp(dr, 0, 63)
		dg = clamp(dg, 0, 63)
		db = clamp(db, 0, 63)
		di = clamp(di, 0, 15)
		ds[i] = deltas{dr, dg, db, di}
		rgbFreq[dr]++
		rgbFreq[dg]++
		rgbFreq[db]++
		intenFreq[di]++
		prevR, prevG, prevB, prevI = int(e.R), int(e.G), int(e.B), int(e.Inten)
	}

	rgbLengths, err := huffmanLengthsOrFallback(rgbFreq)
	if err != nil {
		return err
	}
	intenLengths, err := huffmanLengthsOrFallback(intenFreq)
	if err != nil {
		return err
	}
	if err := huffman.Serialize(w, rgbLengths); err != nil {
		return err
	}
	rgbTable, err := huffman.Build(rgbLengths)
	if err != nil {
		return err
	}
	if err := huffman.Serialize(w, intenLengths); err != nil {
		return err
	}
	intenTable, err := huffman.Build(intenLengths)
	if err != nil {
		return err
	}

	for _, d := range ds {
		rgbTable.Encode(w, d.dr)
		rgbTable.Encode(w, d.dg)
		rgbTable.Encode(w, d.db)
		intenTable.Encode(w, d.di)
	}
	return nil
}

// predict444 derives the predicted 4:4:4 variant from a 5:5:5 base color by
// truncating the low bit of each channel.
func predict444(e EndpointEntry) [3]uint8 {
	return [3]uint8{e.R >> 1, e.G >> 1, e.B >> 1}
}

func wrap5(v int) int {
	return ((v % 32) + 32) % 32
}

func wrap3(v int) int {
	return ((v % 8) + 8) % 8
}

// huffmanLengthsOrFallback builds canonical code lengths from a frequency
// histogram, falling back to a table that gives symbols 0 and 1 of the
// alphabet length 1 (all others 0) if no symbol was used at all, so
// callers never have to special-case empty palettes.
func huffmanLengthsOrFallback(freq []int) ([]int, error) {
	used := 0
	for _, f := range freq {
		if f > 0 {
			used++
		}
	}
	if used == 0 {
		lengths := make([]int, len(freq))
		if len(lengths) > 0 {
			lengths[0] = 1
		}
		if len(lengths) > 1 {
			lengths[1] = 1
		}
		return lengths, nil
	}
	return huffman.BuildLengthsFromFrequencies(freq)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
