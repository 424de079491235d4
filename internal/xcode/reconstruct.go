package xcode

import (
	"github.com/pkg/errors"

	"github.com/basisgo/transcoder/internal/backend"
	"github.com/basisgo/transcoder/internal/codebook"
	"github.com/basisgo/transcoder/internal/etc1block"
)

// ReconstructMacroblock rebuilds the eight-slot endpoint vector from the
// template plus the deduped local-endpoint list, reconstructs the four
// selector indices, and composes four logical ETC1 blocks (spec §4.8
// steps 2-4). flip masks are not transmitted on the wire (spec §4.7) — the
// caller supplies them from whatever side channel it tracks; ETC1S sets
// diff unconditionally, so this package reconstructs diff-always blocks.
func ReconstructMacroblock(
	syn *DecodedSyntax,
	flipMask byte,
	endpointNewOrder []codebook.EndpointEntry,
	selectorNewOrder []codebook.SelectorEntry,
) (*DecodedMacroblock, error) {
	if syn.TemplateIndex < 0 || syn.TemplateIndex >= backend.TotalTemplates {
		return nil, wrapErr(ErrKindInternalInvariantViolated, errors.New("xcode: template index out of range"))
	}
	tmpl := backend.Templates[syn.TemplateIndex]
	if len(syn.LocalEndpoints) != tmpl.NumLocal {
		return nil, wrapErr(ErrKindInvalidMacroblock, errors.New("xcode: local endpoint count does not match template"))
	}

	var slots [8]int
	for i, groupID := range tmpl.Pattern {
		if groupID < 0 || groupID >= len(syn.LocalEndpoints) {
			return nil, wrapErr(ErrKindInternalInvariantViolated, errors.New("xcode: template group id out of range"))
		}
		slots[i] = syn.LocalEndpoints[groupID]
	}

	var out DecodedMacroblock
	for b := 0; b < 4; b++ {
		e0Idx, e1Idx := slots[2*b], slots[2*b+1]
		if e0Idx < 0 || e0Idx >= len(endpointNewOrder) || e1Idx < 0 || e1Idx >= len(endpointNewOrder) {
			return nil, wrapErr(ErrKindInvalidCodebook, errors.New("xcode: endpoint index out of range"))
		}
		e0, e1 := endpointNewOrder[e0Idx], endpointNewOrder[e1Idx]

		selIdx := syn.SelectorNew[b]
		if selIdx < 0 || selIdx >= len(selectorNewOrder) {
			return nil, wrapErr(ErrKindInvalidCodebook, errors.New("xcode: selector index out of range"))
		}
		sel := selectorNewOrder[selIdx]

		if !etc1block.DiffRepresentable([3]uint8{e0.R, e0.G, e0.B}, [3]uint8{e1.R, e1.G, e1.B}) {
			return nil, wrapErr(ErrKindInvalidMacroblock, errors.New("xcode: endpoint pair not diff-representable"))
		}

		out.Blocks[b] = etc1block.Block{
			Flip:       flipMask&(1<<uint(b)) != 0,
			Diff:       true,
			Base5:      [2][3]uint8{{e0.R, e0.G, e0.B}, {e1.R, e1.G, e1.B}},
			IntenTable: [2]uint8{e0.Inten, e1.Inten},
			Selectors:  sel.Selectors,
		}
	}
	return &out, nil
}
