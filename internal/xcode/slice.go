package xcode

import (
	"github.com/pkg/errors"

	"github.com/basisgo/transcoder/internal/bitio"
	"github.com/basisgo/transcoder/internal/codebook"
)

// DecodeSliceWithIndices behaves exactly like DecodeSlice but additionally
// returns each decoded macroblock's resolved local endpoint indices and
// selector indices in new order — the per-macroblock state a video
// I-frame snapshots into a VideoState's previous-frame buffer for later
// P-frames to reuse (spec §4.14).
func DecodeSliceWithIndices(
	payload []byte,
	endpointNewOrder []codebook.EndpointEntry,
	selectorNewOrder []codebook.SelectorEntry,
	flipMasks []byte,
) ([]*DecodedMacroblock, [][]int, [][4]int, error) {
	r := bitio.NewReader(payload)

	models, err := ParseSliceModels(r)
	if err != nil {
		return nil, nil, nil, err
	}

	count := DecodeMacroblockCount(r)
	if count < 0 {
		return nil, nil, nil, wrapErr(ErrKindInvalidSlice, errors.New("xcode: negative macroblock count"))
	}
	if len(flipMasks) != count {
		return nil, nil, nil, wrapErr(ErrKindInvalidSlice, errors.New("xcode: flip mask count does not match macroblock count"))
	}

	st := NewTranscoderState()
	blocks := make([]*DecodedMacroblock, count)
	endpoints := make([][]int, count)
	selectors := make([][4]int, count)
	for i := 0; i < count; i++ {
		syn, err := st.DecodeMacroblockSyntax(r, models, len(endpointNewOrder), len(selectorNewOrder))
		if err != nil {
			return nil, nil, nil, errors.Wrapf(err, "xcode: macroblock %d", i)
		}
		mb, err := ReconstructMacroblock(syn, flipMasks[i], endpointNewOrder, selectorNewOrder)
		if err != nil {
			return nil, nil, nil, errors.Wrapf(err, "xcode: macroblock %d", i)
		}
		blocks[i] = mb
		endpoints[i] = syn.LocalEndpoints
		selectors[i] = syn.SelectorNew
	}
	return blocks, endpoints, selectors, nil
}

// DecodeSlice decodes one slice payload end to end: the three Huffman
// models, the macroblock count, then each macroblock's syntax and logical
// ETC1 blocks in turn (spec §4.7-§4.8). flipMasks supplies one flip mask
// per macroblock in the same boustrophedon order the encoder used, since
// flip bits are not carried on the wire (spec §4.7); the caller gets this
// from whatever source produced the original traversal (for ETC1S-only
// content without a flip channel, pass an all-zero mask). It discards the
// per-macroblock index snapshot only a video I-frame needs; see
// DecodeSliceWithIndices.
func DecodeSlice(
	payload []byte,
	endpointNewOrder []codebook.EndpointEntry,
	selectorNewOrder []codebook.SelectorEntry,
	flipMasks []byte,
) ([]*DecodedMacroblock, error) {
	blocks, _, _, err := DecodeSliceWithIndices(payload, endpointNewOrder, selectorNewOrder, flipMasks)
	return blocks, err
}
