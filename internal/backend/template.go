// Package backend implements the ETC1S backend encoder: the macroblock
// builder, endpoint-index template search, reorder-table wiring, and the
// rate-distortion selector-history substitution search (spec §4.4-§4.7).
//
// Grounded on deepteams-webp's internal/lossy encode_iterator.go/
// encode_frame.go for the per-macroblock iteration/threshold-search shape
// (an MBIterator walking raster positions, trying mode candidates against a
// distortion budget), generalized to this format's 2x2-block macroblocks,
// boustrophedon traversal, and endpoint-index template bookkeeping, none of
// which VP8 has a counterpart for.
package backend

// Template describes one fixed endpoint-index deduplication pattern: for
// each of the 8 endpoint slots (2 per block, 4 blocks), Pattern[i] is the
// slot's group id after normalizing by first-appearance order. NumLocal is
// the number of distinct local endpoint indices the template implies.
type Template struct {
	Pattern  [8]int
	NumLocal int
}

// TotalTemplates is the fixed template-table size (spec §4.4: "Huffman
// over 32 templates").
const TotalTemplates = 32

// Templates is the fixed table searched by the macroblock builder. The
// exact 32 patterns a production encoder ships are drawn from corpus
// statistics that aren't available to this implementation (spec.md
// leaves the table's contents unspecified beyond "a fixed table of
// endpoint-index templates" and the structural invariant that a match
// must always exist); this table is built to guarantee that invariant
// deterministically:
//
//   - entries 0-15 are the 16 "within-block-only" patterns: for each of
//     the 4 blocks, its own two endpoint slots are either merged (if the
//     front end assigned it one logical endpoint, common for flat
//     regions) or kept distinct, with no merging across block
//     boundaries. Every possible local dedup pattern the macroblock
//     builder's canonical fallback (spec §4.4 step 3) can produce is one
//     of these 16, so the fallback always finds a match.
//   - entries 16-31 layer common cross-block sharing patterns (adjacent
//     blocks, diagonals, and the fully-shared case) on top of entry 0's
//     all-distinct base, covering the common-content cases a real
//     encoder's first search pass exploits before falling back.
var Templates [TotalTemplates]Template

func init() {
	for mask := 0; mask < 16; mask++ {
		var raw [8]int
		next := 0
		for b := 0; b < 4; b++ {
			s0, s1 := 2*b, 2*b+1
			if mask&(1<<uint(b)) != 0 {
				raw[s0] = next
				raw[s1] = next
				next++
			} else {
				raw[s0] = next
				next++
				raw[s1] = next
				next++
			}
		}
		Templates[mask] = Template{Pattern: normalize(raw), NumLocal: next}
	}

	// Every pattern here keeps its distinct-group count within [4,8], matching
	// spec §3's "variable-length list of 4-8 endpoint-palette indices."
	crossPatterns := [16][8]int{
		{0, 1, 2, 3, 1, 0, 3, 2},             // blocks 0&2 and 1&3 swap-share pairwise
		{0, 1, 2, 3, 3, 2, 1, 0},             // blocks mirrored end to end
		{0, 1, 0, 1, 2, 3, 2, 3},             // top-row blocks share one pair, bottom-row blocks share another
		{0, 1, 1, 0, 2, 3, 3, 2},             // blocks 0&1 mirror, 2&3 mirror
		{0, 0, 1, 2, 0, 0, 3, 4},             // blocks 0&2 (left column) share
		{0, 1, 2, 2, 3, 1, 2, 2},             // blocks 0&2 share one endpoint, blocks 1&3 identical
		{0, 1, 2, 3, 0, 1, 2, 3},             // top and bottom block-rows identical
		{0, 1, 2, 3, 2, 3, 0, 1},             // diagonal swap sharing
		{0, 1, 2, 1, 3, 1, 2, 1},             // single endpoint reused across all four blocks
		{0, 0, 1, 1, 2, 2, 3, 3},             // every block collapses internally, no cross-sharing (same as mask=15 case, kept for search-order locality)
		{0, 1, 2, 3, 4, 1, 2, 3},             // block 2 reuses block 0's second endpoint, block 3 repeats block 1's pair
		{0, 1, 2, 3, 4, 5, 2, 3},             // last block reuses block 1's pair
		{0, 1, 2, 3, 4, 5, 6, 3},             // single shared slot, rest distinct
		{0, 1, 2, 3, 4, 5, 6, 7},             // fully distinct, identical to entry 0's base case
		{0, 1, 2, 3, 4, 5, 6, 4},             // two slots share, rest distinct
		{0, 1, 2, 3, 4, 2, 5, 3},             // two separate shared pairs among otherwise distinct slots
	}
	for i, raw := range crossPatterns {
		norm := normalize(raw)
		n := 0
		for _, v := range norm {
			if v+1 > n {
				n = v + 1
			}
		}
		Templates[16+i] = Template{Pattern: norm, NumLocal: n}
	}
}

// normalize relabels raw group ids by first-appearance order so two
// structurally identical patterns compare equal regardless of the labels
// used to build them.
func normalize(raw [8]int) [8]int {
	var out [8]int
	seen := map[int]int{}
	next := 0
	for i, v := range raw {
		id, ok := seen[v]
		if !ok {
			id = next
			seen[v] = id
			next++
		}
		out[i] = id
	}
	return out
}

// FindTemplate returns the index of the template whose normalized pattern
// matches raw, and whether a match was found.
func FindTemplate(raw [8]int) (int, bool) {
	norm := normalize(raw)
	for i, t := range Templates {
		if t.Pattern == norm {
			return i, true
		}
	}
	return 0, false
}

// WithinBlockFallback builds the canonical non-dedup pattern (spec §4.4
// step 3: "two local indices per block, skipping the second when identical
// to the first") from the eight raw per-slot endpoint-palette indices. The
// result always matches one of Templates[0:16].
func WithinBlockFallback(slots [8]int) [8]int {
	var raw [8]int
	next := 0
	for b := 0; b < 4; b++ {
		s0, s1 := 2*b, 2*b+1
		raw[s0] = next
		next++
		if slots[s1] == slots[s0] {
			raw[s1] = raw[s0]
		} else {
			raw[s1] = next
			next++
		}
	}
	return raw
}
