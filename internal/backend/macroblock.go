package backend

import (
	"github.com/pkg/errors"

	"github.com/basisgo/transcoder/internal/etc1block"
)

// ErrNoMatchingTemplate signals the structural invariant violation spec
// §4.4 calls out: "existence of a matching template is a structural
// invariant that must always hold."
var ErrNoMatchingTemplate = errors.New("backend: no endpoint-index template matches macroblock")

// ErrNotDiffRepresentable signals a front-end cluster assignment that
// cannot be packed as a valid ETC1 differential block (spec §3 endpoint
// palette invariant).
var ErrNotDiffRepresentable = errors.New("backend: endpoint pair is not ETC1-diff-representable")

// BlockClusterInput is one 4x4 block's front-end cluster assignment: two
// endpoint-palette indices (one per ETC1 half) and one selector-palette
// index, plus the source pixels needed for RDO distortion measurement
// (spec §4.4 step 1, §4.6 step 1).
type BlockClusterInput struct {
	EndpointIdx [2]int // old-order endpoint palette indices, one per half
	SelectorIdx int    // old-order selector palette index
	Flip        bool
	SourcePixels [16][4]uint8
}

// MacroblockInput is one 2x2 group of block cluster assignments, in
// raster order within the group (top-left, top-right, bottom-left,
// bottom-right).
type MacroblockInput struct {
	Blocks [4]BlockClusterInput
}

// Macroblock is the built wire-ready representation of one 2x2 block
// group (spec §3): flip/diff masks, the chosen template, the deduped
// local endpoint-palette index list, and the four (possibly RDO-
// substituted) selector-palette indices.
type Macroblock struct {
	FlipMask byte // bit b set => block b has Flip
	DiffMask byte // bit b set => block b is diff-representable (always set for ETC1S)

	TemplateIndex int
	LocalEndpoints []int // deduped old-order endpoint indices, length == template.NumLocal
	SelectorIdx   [4]int // per-block old-order selector-palette indices, possibly RDO-substituted
	HistoryHit    [4]bool // whether this block's selector came from an MTF substitution
	HistoryIndex  [4]int  // MTF index used, when HistoryHit is true
}

// BuildMacroblock runs the encoder's per-macroblock construction (spec
// §4.4 steps 1-4): it derives the 8-slot endpoint pattern, searches the
// fixed template table, falls back to the within-block canonical layout on
// miss, records the flip/diff masks, and re-verifies diff representability
// using endpointColors (old-order endpoint palette RGB, needed only for the
// diff check — the palette itself is owned by the caller).
func BuildMacroblock(in MacroblockInput, endpointColors [][3]uint8) (*Macroblock, error) {
	var slots [8]int
	for b, blk := range in.Blocks {
		slots[2*b] = blk.EndpointIdx[0]
		slots[2*b+1] = blk.EndpointIdx[1]
	}

	var raw [8]int
	next := 0
	seen := map[int]int{}
	for i, idx := range slots {
		id, ok := seen[idx]
		if !ok {
			id = next
			seen[idx] = id
			next++
		}
		raw[i] = id
	}

	tmplIdx, ok := FindTemplate(raw)
	if !ok {
		fallback := WithinBlockFallback(slots)
		tmplIdx, ok = FindTemplate(fallback)
		if !ok {
			return nil, ErrNoMatchingTemplate
		}
		raw = fallback
	}

	tmpl := Templates[tmplIdx]
	localCount := tmpl.NumLocal
	localEndpoints := make([]int, localCount)
	assigned := make([]bool, localCount)
	for i, groupID := range tmpl.Pattern {
		if !assigned[groupID] {
			localEndpoints[groupID] = slots[i]
			assigned[groupID] = true
		}
	}

	mb := &Macroblock{
		TemplateIndex:  tmplIdx,
		LocalEndpoints: localEndpoints,
	}
	for b, blk := range in.Blocks {
		if blk.Flip {
			mb.FlipMask |= 1 << uint(b)
		}
		mb.SelectorIdx[b] = blk.SelectorIdx

		base0 := endpointColors[blk.EndpointIdx[0]]
		base1 := endpointColors[blk.EndpointIdx[1]]
		if !etc1block.DiffRepresentable(base0, base1) {
			return nil, ErrNotDiffRepresentable
		}
		mb.DiffMask |= 1 << uint(b)
	}
	return mb, nil
}
