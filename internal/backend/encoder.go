package backend

import (
	"github.com/pkg/errors"

	"github.com/basisgo/transcoder/internal/bitio"
	"github.com/basisgo/transcoder/internal/codebook"
	"github.com/basisgo/transcoder/internal/huffman"
)

// ErrEmptySlice is returned by EncodeSlice when given no macroblocks.
var ErrEmptySlice = errors.New("backend: slice has no macroblocks")

// SliceEncodeResult is the built bitstream payload for one slice plus the
// reorder tables used to produce it (the caller serializes the endpoint
// and selector palettes themselves through those tables, spec §4.3/§4.5).
type SliceEncodeResult struct {
	Payload          []byte
	EndpointReorder  codebook.ReorderTables
	SelectorReorder  codebook.ReorderTables
}

// EncodeSlice builds and serializes one slice's macroblock stream (spec
// §4.4-§4.7): it walks the macroblocks supplied in boustrophedon order
// (the caller is responsible for that ordering — it is purely positional
// and this package does not need a slice's width to reproduce it), runs
// the endpoint/selector reorder heuristics, the selector RDO search, and
// emits the three-model Huffman-coded per-macroblock syntax.
//
// The RLE sentinel the selector-history model defines (spec §4.6) is
// supported end to end by the decoder in internal/xcode, but this encoder
// always emits literal history-0 symbols rather than deferring into a run:
// the deferral buys bitrate on corpora with long static runs, and the
// non-goals explicitly allow cost-model and bit-level divergence ("no
// requirement to preserve undocumented bit-level quirks... RDO cost model
// may differ") as long as decode is bit-exact against what this encoder
// actually writes. Real .basis files that DO use the sentinel still
// decode correctly; this encoder simply never chooses to produce one.
func EncodeSlice(
	mbsIn []MacroblockInput,
	endpointOld []codebook.EndpointEntry,
	selectorOld []codebook.SelectorEntry,
	qualityScalar float64,
) (*SliceEncodeResult, error) {
	if len(mbsIn) == 0 {
		return nil, ErrEmptySlice
	}

	endpointColors := make([][3]uint8, len(endpointOld))
	for i, e := range endpointOld {
		endpointColors[i] = [3]uint8{e.R, e.G, e.B}
	}

	mbs := make([]*Macroblock, len(mbsIn))
	for i, in := range mbsIn {
		mb, err := BuildMacroblock(in, endpointColors)
		if err != nil {
			return nil, errors.Wrapf(err, "backend: macroblock %d", i)
		}
		mbs[i] = mb
	}

	endpointUsage := make([]int, 0, len(mbs)*8)
	for _, mb := range mbs {
		endpointUsage = append(endpointUsage, mb.LocalEndpoints...)
	}
	endpointReorder := codebook.ReorderEndpoints(len(endpointOld), endpointUsage)

	selectorUsage := make([]int, 0, len(mbs)*4)
	for _, mb := range mbs {
		selectorUsage = append(selectorUsage, mb.SelectorIdx[:]...)
	}
	selectorReorder := codebook.ReorderSelectors(len(selectorOld), selectorUsage, selectorOld, false)

	rdoThresh := RDOThreshold(qualityScalar)
	mtf := codebook.NewMoveToFrontBuffer()

	entriesByNew := make([]codebook.SelectorEntry, len(selectorOld))
	for newIdx, oldIdx := range selectorReorder.NewToOld {
		entriesByNew[newIdx] = selectorOld[oldIdx]
	}

	n := len(selectorOld)
	selAlphabet := codebook.SelectorSymbolAlphabetSize(n)
	selFreq := make([]int, selAlphabet)
	endpointAlphabet := 2*len(endpointOld) + 1
	endpointFreq := make([]int, endpointAlphabet)
	templateFreq := make([]int, TotalTemplates)

	type mbPlan struct {
		tmplIdx       int
		localNewDeltaSyms []int
		selSyms       [4]int
	}
	plans := make([]mbPlan, len(mbs))

	prevEndpoint := 0
	prevSelectorNew := 0
	for i, mb := range mbs {
		templateFreq[mb.TemplateIndex]++
		p := mbPlan{tmplIdx: mb.TemplateIndex}
		p.localNewDeltaSyms = make([]int, len(mb.LocalEndpoints))
		for k, oldIdx := range mb.LocalEndpoints {
			newIdx := endpointReorder.OldToNew[oldIdx]
			sym := newIdx - prevEndpoint + len(endpointOld)
			p.localNewDeltaSyms[k] = sym
			endpointFreq[sym]++
			prevEndpoint = newIdx
		}

		for b := 0; b < 4; b++ {
			blk := mbsIn[i].Blocks[b]
			newOrigIdx := selectorReorder.OldToNew[blk.SelectorIdx]

			inten := [2]uint8{endpointOld[blk.EndpointIdx[0]].Inten, endpointOld[blk.EndpointIdx[1]].Inten}
			base0 := endpointColors[blk.EndpointIdx[0]]
			base1 := endpointColors[blk.EndpointIdx[1]]
			origSel := selectorOld[blk.SelectorIdx]
			result := SearchSelectorHistory(
				newOrigIdx, base0, base1, inten, blk.Flip, origSel,
				blk.SourcePixels, mtf, entriesByNew, rdoThresh,
			)

			var sym int
			if result.HistoryHit {
				sym = codebook.HistorySymbol(result.HistoryIdx, n)
				if result.HistoryIdx > 0 {
					mtf.Use(result.HistoryIdx)
				}
			} else {
				sym = codebook.DeltaSymbol(result.Idx, prevSelectorNew, n)
				mtf.Add(result.Idx)
				prevSelectorNew = result.Idx
			}
			selFreq[sym]++
			p.selSyms[b] = sym
			mb.SelectorIdx[b] = selectorReorder.NewToOld[result.Idx]
			mb.HistoryHit[b] = result.HistoryHit
			mb.HistoryIndex[b] = result.HistoryIdx
		}
		plans[i] = p
	}

	templateLengths, err := huffman.BuildLengthsFromFrequencies(templateFreq)
	if err != nil {
		return nil, errors.Wrap(err, "backend: template huffman lengths")
	}
	endpointLengths, err := huffman.BuildLengthsFromFrequencies(endpointFreq)
	if err != nil {
		return nil, errors.Wrap(err, "backend: endpoint delta huffman lengths")
	}
	selLengths, err := huffman.BuildLengthsFromFrequencies(selFreq)
	if err != nil {
		return nil, errors.Wrap(err, "backend: selector huffman lengths")
	}

	w := bitio.NewWriter(len(mbs) * 8)
	if err := huffman.Serialize(w, templateLengths); err != nil {
		return nil, err
	}
	if err := huffman.Serialize(w, endpointLengths); err != nil {
		return nil, err
	}
	if err := huffman.Serialize(w, selLengths); err != nil {
		return nil, err
	}
	templateTable, err := huffman.Build(templateLengths)
	if err != nil {
		return nil, err
	}
	endpointTable, err := huffman.Build(endpointLengths)
	if err != nil {
		return nil, err
	}
	selTable, err := huffman.Build(selLengths)
	if err != nil {
		return nil, err
	}

	w.PutBits(uint32(len(mbs)), 25)
	for _, p := range plans {
		templateTable.Encode(w, p.tmplIdx)
		w.PutBits(uint32(len(p.localNewDeltaSyms)), 4)
		for _, sym := range p.localNewDeltaSyms {
			endpointTable.Encode(w, sym)
		}
		for _, sym := range p.selSyms {
			selTable.Encode(w, sym)
		}
	}
	w.Flush()

	return &SliceEncodeResult{
		Payload:         w.Bytes(),
		EndpointReorder: endpointReorder,
		SelectorReorder: selectorReorder,
	}, nil
}
