// Package xcode implements the container-level transcoder: it decodes one
// slice's macroblock stream (the mirror image of internal/backend's
// encoder) and reconstructs logical ETC1 blocks ready for
// internal/blockfmt's target-format converters.
//
// Grounded on deepteams-webp's internal/lossy decode_mb.go/decode_frame.go
// for the decode-loop shape (typed sentinel errors, per-macroblock mode
// fetch then reconstruct) and internal/lossless/decode_image.go for the
// "several simultaneous Huffman models consumed per symbol position"
// pattern, which this format's three-model-per-macroblock syntax mirrors
// directly.
package xcode

import (
	"github.com/pkg/errors"

	"github.com/basisgo/transcoder/internal/bitio"
	"github.com/basisgo/transcoder/internal/codebook"
	"github.com/basisgo/transcoder/internal/etc1block"
	"github.com/basisgo/transcoder/internal/huffman"
)

// ErrorKind classifies a decode failure, mirroring the ErrorCode enum
// am-sokolov-go-astc-encoder/astc/errors.go uses for its codec API.
type ErrorKind int

const (
	ErrKindInvalidHeader ErrorKind = iota
	ErrKindCrcMismatch
	ErrKindInvalidHuffman
	ErrKindInvalidCodebook
	ErrKindInvalidSlice
	ErrKindInvalidMacroblock
	ErrKindUnsupportedTargetFormat
	ErrKindIncompatibleTargetDimensions
	ErrKindOutputBufferTooSmall
	ErrKindNotReady
	ErrKindInternalInvariantViolated
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKindInvalidHeader:
		return "InvalidHeader"
	case ErrKindCrcMismatch:
		return "CrcMismatch"
	case ErrKindInvalidHuffman:
		return "InvalidHuffman"
	case ErrKindInvalidCodebook:
		return "InvalidCodebook"
	case ErrKindInvalidSlice:
		return "InvalidSlice"
	case ErrKindInvalidMacroblock:
		return "InvalidMacroblock"
	case ErrKindUnsupportedTargetFormat:
		return "UnsupportedTargetFormat"
	case ErrKindIncompatibleTargetDimensions:
		return "IncompatibleTargetDimensions"
	case ErrKindOutputBufferTooSmall:
		return "OutputBufferTooSmall"
	case ErrKindNotReady:
		return "NotReady"
	default:
		return "InternalInvariantViolated"
	}
}

// Error is the typed error every exported xcode function returns on
// failure.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string { return e.Kind.String() + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

func wrapErr(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// DecodedMacroblock is one 2x2 group of fully reconstructed logical ETC1
// blocks, ready for BlockFormatConverters.
type DecodedMacroblock struct {
	Blocks [4]etc1block.Block
}

// SliceModels holds the three Huffman models a slice's macroblock stream
// is coded against (spec §4.7): template, endpoint-delta, and
// selector-delta/history.
type SliceModels struct {
	Template *huffman.Table
	Endpoint *huffman.Table
	Selector *huffman.Table
}

// ParseSliceModels deserializes the three per-slice Huffman tables from the
// front of a slice payload, in the same order EncodeSlice wrote them.
func ParseSliceModels(r *bitio.Reader) (*SliceModels, error) {
	tmplLengths, err := huffman.Deserialize(r)
	if err != nil {
		return nil, wrapErr(ErrKindInvalidHuffman, err)
	}
	tmplTable, err := huffman.Build(tmplLengths)
	if err != nil {
		return nil, wrapErr(ErrKindInvalidHuffman, err)
	}
	epLengths, err := huffman.Deserialize(r)
	if err != nil {
		return nil, wrapErr(ErrKindInvalidHuffman, err)
	}
	epTable, err := huffman.Build(epLengths)
	if err != nil {
		return nil, wrapErr(ErrKindInvalidHuffman, err)
	}
	selLengths, err := huffman.Deserialize(r)
	if err != nil {
		return nil, wrapErr(ErrKindInvalidHuffman, err)
	}
	selTable, err := huffman.Build(selLengths)
	if err != nil {
		return nil, wrapErr(ErrKindInvalidHuffman, err)
	}
	return &SliceModels{Template: tmplTable, Endpoint: epTable, Selector: selTable}, nil
}

// TranscoderState owns the per-slice decode cursor: the selector
// move-to-front buffer and the running endpoint/selector delta
// accumulators (spec §3: "a TranscoderState owns the selector-history
// buffer").
type TranscoderState struct {
	mtf             *codebook.MoveToFrontBuffer
	prevEndpointNew int
	prevSelectorNew int
	pendingZeroRun  int // remaining history-index-0 events from a decoded RLE run
}

// NewTranscoderState creates a fresh decode state for one slice.
func NewTranscoderState() *TranscoderState {
	return &TranscoderState{mtf: codebook.NewMoveToFrontBuffer()}
}

// DecodeMacroblockCount reads the 25-bit macroblock count EncodeSlice
// writes immediately after the three model tables.
func DecodeMacroblockCount(r *bitio.Reader) int {
	return int(r.GetBits(25))
}

// DecodedSyntax is one macroblock's decoded-but-not-yet-reconstructed
// syntax: the template index, the local endpoint-palette indices (new
// order), and the four selector symbols' resolved new-order selector
// indices.
type DecodedSyntax struct {
	TemplateIndex  int
	LocalEndpoints []int // new-order endpoint-palette indices
	SelectorNew    [4]int
}

// DecodeMacroblockSyntax reads one macroblock's template, endpoint-delta,
// and selector-delta/history/sentinel symbols, advancing st's running
// state (spec §4.7, §4.6).
func (st *TranscoderState) DecodeMacroblockSyntax(
	r *bitio.Reader, models *SliceModels, endpointPaletteSize, selectorPaletteSize int,
) (*DecodedSyntax, error) {
	tmplSym, err := models.Template.Decode(r)
	if err != nil {
		return nil, wrapErr(ErrKindInvalidMacroblock, err)
	}
	if int(tmplSym) < 0 || int(tmplSym) >= 32 {
		return nil, wrapErr(ErrKindInvalidMacroblock, errors.New("xcode: template index out of range"))
	}

	numLocal := int(r.GetBits(4))
	if numLocal < 1 || numLocal > 8 {
		return nil, wrapErr(ErrKindInvalidMacroblock, errors.New("xcode: local endpoint count out of range"))
	}
	locals := make([]int, numLocal)
	for i := 0; i < numLocal; i++ {
		sym, err := models.Endpoint.Decode(r)
		if err != nil {
			return nil, wrapErr(ErrKindInvalidMacroblock, err)
		}
		delta := int(sym) - endpointPaletteSize
		idx := st.prevEndpointNew + delta
		if idx < 0 || idx >= endpointPaletteSize {
			return nil, wrapErr(ErrKindInvalidCodebook, errors.New("xcode: endpoint index out of range"))
		}
		locals[i] = idx
		st.prevEndpointNew = idx
	}

	var selNew [4]int
	n := selectorPaletteSize
	for b := 0; b < 4; b++ {
		if st.pendingZeroRun > 0 {
			st.pendingZeroRun--
			selNew[b] = st.mtf.At(0)
			continue
		}
		sym, err := models.Selector.Decode(r)
		if err != nil {
			return nil, wrapErr(ErrKindInvalidMacroblock, err)
		}
		s := int(sym)
		switch {
		case codebook.IsDeltaSymbol(s, n):
			delta := codebook.DeltaFromSymbol(s, n)
			idx := st.prevSelectorNew + delta
			if idx < 0 || idx >= n {
				return nil, wrapErr(ErrKindInvalidCodebook, errors.New("xcode: selector index out of range"))
			}
			st.mtf.Add(idx)
			st.prevSelectorNew = idx
			selNew[b] = idx
		case codebook.IsHistorySymbol(s, n):
			j := codebook.HistoryIndexFromSymbol(s, n)
			if j < 0 || j >= st.mtf.Size() {
				return nil, wrapErr(ErrKindInvalidCodebook, errors.New("xcode: history index out of range"))
			}
			idx := st.mtf.At(j)
			if j > 0 {
				st.mtf.Use(j)
			}
			selNew[b] = idx
		default:
			// Sentinel: a real RLE-coded run of history-index-0 events.
			// This encoder never emits it (see internal/backend), so this
			// path is unexercised by this package's own round trip; a real
			// bitstream's run-length count should come from its own second
			// Huffman model (spec §4.6), which this decoder does not
			// separately build, reusing the selector model's table as a
			// placeholder instead.
			bucketSym, err := models.Selector.Decode(r)
			if err != nil {
				return nil, wrapErr(ErrKindInvalidMacroblock, err)
			}
			bucket := int(bucketSym)
			overflow := bucket == codebook.RLEMaxBucket
			var remainder uint32
			if overflow {
				remainder = r.GetRice(codebook.RiceBits)
			}
			run := codebook.RLERunLength(bucket, remainder, overflow)
			if run < codebook.RLEThresh {
				return nil, wrapErr(ErrKindInvalidMacroblock, errors.New("xcode: RLE run shorter than threshold"))
			}
			// All run entries resolve to history index 0's current value;
			// only the first of the run occupies this loop iteration, the
			// rest are consumed by the caller across subsequent blocks.
			// To keep this function's signature one-symbol-per-block, we
			// require run == 1 worth of consumption here and surface the
			// remainder via st for the next calls.
			idx := st.mtf.At(0)
			selNew[b] = idx
			st.pendingZeroRun += run - 1
		}
	}

	return &DecodedSyntax{TemplateIndex: int(tmplSym), LocalEndpoints: locals, SelectorNew: selNew}, nil
}
