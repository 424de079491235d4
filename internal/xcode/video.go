package xcode

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/basisgo/transcoder/internal/bitio"
	"github.com/basisgo/transcoder/internal/codebook"
)

// MaxPrevFrameLevels bounds how many mip levels' previous-frame state a
// VideoState retains simultaneously (spec §3, carried into SPEC_FULL.md
// §4.14: "bounded by cMaxPrevFrameLevels = 16").
const MaxPrevFrameLevels = 16

// PrevFrame is one mip level's previous-frame decode state (spec §4.14):
// every macroblock's resolved local endpoint indices and selector
// indices in new-order, plus the fully reconstructed logical blocks a
// P-frame's no-change macroblocks reuse verbatim.
type PrevFrame struct {
	Endpoints [][]int
	Selectors [][4]int
	Blocks    []*DecodedMacroblock
}

// VideoState owns the previous-frame buffers for every mip level of one
// video-frames-type image (spec §3, §4.14). Unlike TranscoderState, which
// is reset on every DecodeSlice call, a VideoState must persist across
// the whole sequence of frames sharing a level, so its owner (the
// top-level transcoder) creates exactly one and keeps it alive for the
// lifetime of the decoded container.
type VideoState struct {
	mu     sync.Mutex
	levels map[int]*PrevFrame
}

// NewVideoState creates an empty VideoState with no previous-frame buffer
// for any level.
func NewVideoState() *VideoState {
	return &VideoState{levels: make(map[int]*PrevFrame)}
}

func checkVideoLevel(level int) error {
	if level < 0 || level >= MaxPrevFrameLevels {
		return wrapErr(ErrKindIncompatibleTargetDimensions,
			errors.Errorf("xcode: video level %d exceeds cMaxPrevFrameLevels (%d)", level, MaxPrevFrameLevels))
	}
	return nil
}

// Prev returns level's previous-frame buffer, or nil if none has been
// decoded yet (the level's first I-frame, or after DropFrame). Safe for
// concurrent use with Snapshot/DropFrame on the same VideoState.
func (vs *VideoState) Prev(level int) *PrevFrame {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return vs.levels[level]
}

// Snapshot records level's freshly decoded frame (I-frame or a just-
// decoded P-frame rolled forward) as the new previous-frame buffer,
// replacing whatever was there before. Every subsequent P-frame at this
// level references the buffer this call installs. Safe for concurrent use
// with Prev/DropFrame on the same VideoState: one mutex guards every
// level's buffer, so each call is atomic, and calls for different levels
// share that lock.
func (vs *VideoState) Snapshot(level int, endpoints [][]int, selectors [][4]int, blocks []*DecodedMacroblock) error {
	if err := checkVideoLevel(level); err != nil {
		return err
	}
	vs.mu.Lock()
	defer vs.mu.Unlock()
	vs.levels[level] = &PrevFrame{Endpoints: endpoints, Selectors: selectors, Blocks: blocks}
	return nil
}

// DropFrame clears level's previous-frame buffer (spec §4.14: "dropping
// or skipping a frame ... clears that level's buffer to avoid P-frame
// delta desync"). A P-frame decoded for this level afterward, before a
// fresh I-frame re-establishes the buffer, fails with
// InternalInvariantViolated. Safe for concurrent use with Prev/Snapshot.
func (vs *VideoState) DropFrame(level int) {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	delete(vs.levels, level)
}

// DecodeSliceP decodes one P-frame slice payload against prev, the same
// level's previous-frame buffer (spec §4.14). Every macroblock is
// preceded by one no-change bit: when set, the macroblock is absent from
// the rest of the bitstream and this decoder reuses prev's reconstructed
// content verbatim; when clear, the macroblock's syntax is decoded
// exactly as DecodeSliceWithIndices would for an I-frame. A P-frame with
// no previous-frame buffer for this level — decoded before any I-frame,
// or after DropFrame cleared it — is a bitstream/caller invariant
// violation, not a recoverable decode error.
func DecodeSliceP(
	payload []byte,
	endpointNewOrder []codebook.EndpointEntry,
	selectorNewOrder []codebook.SelectorEntry,
	flipMasks []byte,
	prev *PrevFrame,
) ([]*DecodedMacroblock, [][]int, [][4]int, error) {
	if prev == nil {
		return nil, nil, nil, wrapErr(ErrKindInternalInvariantViolated,
			errors.New("xcode: P-frame slice decoded with no previous-frame buffer for this level"))
	}

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
	if len(prev.Blocks) != count {
		return nil, nil, nil, wrapErr(ErrKindInvalidSlice, errors.New("xcode: P-frame macroblock count does not match previous frame's"))
	}

	st := NewTranscoderState()
	blocks := make([]*DecodedMacroblock, count)
	endpoints := make([][]int, count)
	selectors := make([][4]int, count)
	for i := 0; i < count; i++ {
		if r.GetBits(1) != 0 {
			blocks[i] = prev.Blocks[i]
			endpoints[i] = prev.Endpoints[i]
			selectors[i] = prev.Selectors[i]
			continue
		}
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
