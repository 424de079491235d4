package transcoder

import (
	"testing"

	"github.com/basisgo/transcoder/internal/backend"
	"github.com/basisgo/transcoder/internal/bitio"
	"github.com/basisgo/transcoder/internal/blockfmt"
	"github.com/basisgo/transcoder/internal/codebook"
	"github.com/basisgo/transcoder/internal/container"
	"github.com/basisgo/transcoder/internal/etc1block"
)

func init() { Init() }

// buildSingleSliceFile assembles a minimal one-image, one-level, one-slice
// .basis byte buffer around an already-encoded slice payload, the same way
// a real encoder lays out endpoint codebook, selector codebook, slice
// descriptor table, and slice data back to back after the fixed header.
func buildSingleSliceFile(t *testing.T, payload []byte, epBytes, selBytes []byte, epCount, selCount, blocksX, blocksY int) []byte {
	t.Helper()

	epOffset := container.HeaderSize
	selOffset := epOffset + len(epBytes)
	sliceDescOffset := selOffset + len(selBytes)
	sliceDataOffset := sliceDescOffset + container.SliceDescSize

	slice := container.SliceDesc{
		ImageIndex: 0,
		LevelIndex: 0,
		OrigWidth:  uint16(blocksX * 4),
		OrigHeight: uint16(blocksY * 4),
		NumBlocksX: uint16(blocksX),
		NumBlocksY: uint16(blocksY),
		FileOffset: uint32(sliceDataOffset),
		FileSize:   uint32(len(payload)),
	}
	slice.SliceDataCRC16 = container.CRC16(payload)
	sliceDescBytes := container.EncodeSliceDesc(slice)

	dataRegion := make([]byte, 0, len(epBytes)+len(selBytes)+len(sliceDescBytes)+len(payload))
	dataRegion = append(dataRegion, epBytes...)
	dataRegion = append(dataRegion, selBytes...)
	dataRegion = append(dataRegion, sliceDescBytes...)
	dataRegion = append(dataRegion, payload...)

	h := container.Header{
		Version:          1,
		HeaderSize:       container.HeaderSize,
		DataSize:         uint32(len(dataRegion)),
		TotalSlices:      1,
		TotalImages:      1,
		TexFormat:        container.TexFormatETC1S,
		EndpointCBCount:  uint32(epCount),
		EndpointCBOffset: uint32(epOffset),
		EndpointCBSize:   uint32(len(epBytes)),
		SelectorCBCount:  uint32(selCount),
		SelectorCBOffset: uint32(selOffset),
		SelectorCBSize:   uint32(len(selBytes)),
		SliceDescOffset:  uint32(sliceDescOffset),
		SliceDescSize:    uint32(len(sliceDescBytes)),
	}
	h.DataCRC16 = container.CRC16(dataRegion)

	out := append(container.EncodeHeader(h), dataRegion...)
	return out
}

// buildOneMacroblockSlice encodes a single macroblock over a two-entry
// endpoint/selector palette (the same fixture internal/xcode's round-trip
// test uses) and returns the serialized payload plus the two codebooks,
// already reordered into transmission order.
func buildOneMacroblockSlice(t *testing.T) (payload, epBytes, selBytes []byte) {
	t.Helper()

	endpointOld := []codebook.EndpointEntry{
		{R: 10, G: 10, B: 10, Inten: 0},
		{R: 12, G: 10, B: 10, Inten: 0},
	}
	selectorOld := []codebook.SelectorEntry{
		{Selectors: [16]uint8{}},
		{Selectors: [16]uint8{1, 1, 1, 1, 1, 1, 1, 1}},
	}
	mbsIn := []backend.MacroblockInput{
		{
			Blocks: [4]backend.BlockClusterInput{
				{EndpointIdx: [2]int{0, 1}, SelectorIdx: 0},
				{EndpointIdx: [2]int{0, 1}, SelectorIdx: 1},
				{EndpointIdx: [2]int{0, 1}, SelectorIdx: 0},
				{EndpointIdx: [2]int{0, 1}, SelectorIdx: 1},
			},
		},
	}

	result, err := backend.EncodeSlice(mbsIn, endpointOld, selectorOld, 1.0)
	if err != nil {
		t.Fatalf("EncodeSlice: %v", err)
	}

	epw := bitio.NewWriter(32)
	if err := codebook.EncodeEndpointPalette(epw, endpointOld, result.EndpointReorder.OldToNew); err != nil {
		t.Fatalf("EncodeEndpointPalette: %v", err)
	}
	epw.Flush()

	selw := bitio.NewWriter(32)
	if err := codebook.EncodeSelectorPalette(selw, selectorOld, result.SelectorReorder.OldToNew); err != nil {
		t.Fatalf("EncodeSelectorPalette: %v", err)
	}
	selw.Flush()

	return result.Payload, epw.Bytes(), selw.Bytes()
}

// wantBlock0 is the logical block every test in this file expects at
// macroblock (0,0), block slot 0 — the only slot that survives clipping
// against a 1x1-block (4x4 pixel) level.
func wantBlock0() etc1block.Block {
	return etc1block.Block{
		Diff:       true,
		Base5:      [2][3]uint8{{10, 10, 10}, {12, 10, 10}},
		IntenTable: [2]uint8{0, 0},
		Selectors:  [16]uint8{},
	}
}

func TestStartTranscoding_ThenTranscodeToETC1(t *testing.T) {
	payload, epBytes, selBytes := buildOneMacroblockSlice(t)
	raw := buildSingleSliceFile(t, payload, epBytes, selBytes, 2, 2, 1, 1)

	tc := NewTranscoder()
	if err := tc.StartTranscoding(raw); err != nil {
		t.Fatalf("StartTranscoding: %v", err)
	}

	out := make([]byte, 8)
	if err := tc.TranscodeImageLevel(0, 0, blockfmt.FormatETC1, 0, out, 0); err != nil {
		t.Fatalf("TranscodeImageLevel: %v", err)
	}

	var v uint64
	for _, b := range out {
		v = v<<8 | uint64(b)
	}
	got := etc1block.Unpack(v)
	want := wantBlock0()
	if got.Diff != want.Diff || got.Base5 != want.Base5 || got.IntenTable != want.IntenTable || got.Selectors != want.Selectors {
		t.Fatalf("unpacked block = %+v, want %+v", got, want)
	}
}

func TestTranscodeImageLevel_RGBA32MatchesETC1Decode(t *testing.T) {
	payload, epBytes, selBytes := buildOneMacroblockSlice(t)
	raw := buildSingleSliceFile(t, payload, epBytes, selBytes, 2, 2, 1, 1)

	tc := NewTranscoder()
	if err := tc.StartTranscoding(raw); err != nil {
		t.Fatalf("StartTranscoding: %v", err)
	}

	out := make([]byte, 4*4*4)
	if err := tc.TranscodeImageLevel(0, 0, blockfmt.FormatRGBA32, 0, out, 0); err != nil {
		t.Fatalf("TranscodeImageLevel: %v", err)
	}

	want := wantBlock0()
	expected := want.DecodeRGBA()
	for p := 0; p < 16; p++ {
		px := out[p*4 : p*4+4]
		for c := 0; c < 4; c++ {
			if px[c] != expected[p][c] {
				t.Fatalf("pixel %d channel %d = %d, want %d", p, c, px[c], expected[p][c])
			}
		}
	}
}

func TestStartTranscoding_RejectsCorruptedHeaderCRC(t *testing.T) {
	payload, epBytes, selBytes := buildOneMacroblockSlice(t)
	raw := buildSingleSliceFile(t, payload, epBytes, selBytes, 2, 2, 1, 1)
	raw[30] ^= 0xFF // corrupt UserData0, a field only the header CRC16 covers

	tc := NewTranscoder()
	if err := tc.StartTranscoding(raw); err == nil {
		t.Fatalf("expected error decoding a corrupted header")
	}
}

func TestTranscodeImageLevel_RequiresStartTranscoding(t *testing.T) {
	tc := NewTranscoder()
	out := make([]byte, 8)
	err := tc.TranscodeImageLevel(0, 0, blockfmt.FormatETC1, 0, out, 0)
	if err == nil {
		t.Fatalf("expected NotReady error before StartTranscoding")
	}
	te, ok := err.(*Error)
	if !ok || te.Kind != ErrKindNotReady {
		t.Fatalf("got %v, want ErrKindNotReady", err)
	}
}

func TestTranscodeImageLevel_RejectsTooSmallBuffer(t *testing.T) {
	payload, epBytes, selBytes := buildOneMacroblockSlice(t)
	raw := buildSingleSliceFile(t, payload, epBytes, selBytes, 2, 2, 1, 1)

	tc := NewTranscoder()
	if err := tc.StartTranscoding(raw); err != nil {
		t.Fatalf("StartTranscoding: %v", err)
	}

	out := make([]byte, 4)
	err := tc.TranscodeImageLevel(0, 0, blockfmt.FormatETC1, 0, out, 0)
	te, ok := err.(*Error)
	if !ok || te.Kind != ErrKindOutputBufferTooSmall {
		t.Fatalf("got %v, want ErrKindOutputBufferTooSmall", err)
	}
}

func TestTranscodeImageLevelsParallel_IndependentBuffers(t *testing.T) {
	payload, epBytes, selBytes := buildOneMacroblockSlice(t)
	raw := buildSingleSliceFile(t, payload, epBytes, selBytes, 2, 2, 1, 1)

	tc := NewTranscoder()
	if err := tc.StartTranscoding(raw); err != nil {
		t.Fatalf("StartTranscoding: %v", err)
	}

	etc1Out := make([]byte, 8)
	rgbaOut := make([]byte, 4*4*4)
	reqs := []LevelRequest{
		{Image: 0, Level: 0, Target: blockfmt.FormatETC1, Out: etc1Out},
		{Image: 0, Level: 0, Target: blockfmt.FormatRGBA32, Out: rgbaOut},
	}
	if err := tc.TranscodeImageLevelsParallel(reqs); err != nil {
		t.Fatalf("TranscodeImageLevelsParallel: %v", err)
	}

	want := wantBlock0()
	expected := want.DecodeRGBA()
	if rgbaOut[0] != expected[0][0] || rgbaOut[1] != expected[0][1] || rgbaOut[2] != expected[0][2] || rgbaOut[3] != expected[0][3] {
		t.Fatalf("rgba pixel 0 = %v, want %v", rgbaOut[:4], expected[0])
	}

	var v uint64
	for _, b := range etc1Out {
		v = v<<8 | uint64(b)
	}
	got := etc1block.Unpack(v)
	if got.Base5 != want.Base5 {
		t.Fatalf("etc1 base5 = %v, want %v", got.Base5, want.Base5)
	}
}

func TestGetImageInfo_AfterStartTranscoding(t *testing.T) {
	payload, epBytes, selBytes := buildOneMacroblockSlice(t)
	raw := buildSingleSliceFile(t, payload, epBytes, selBytes, 2, 2, 1, 1)

	tc := NewTranscoder()
	if err := tc.StartTranscoding(raw); err != nil {
		t.Fatalf("StartTranscoding: %v", err)
	}

	infos, err := tc.GetImageInfo()
	if err != nil {
		t.Fatalf("GetImageInfo: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("got %d images, want 1", len(infos))
	}
	if infos[0].Width != 4 || infos[0].Height != 4 || infos[0].NumBlocksX != 1 || infos[0].NumBlocksY != 1 {
		t.Fatalf("unexpected image info: %+v", infos[0])
	}
	if infos[0].AlphaFlag {
		t.Fatalf("expected no alpha slice")
	}
}
