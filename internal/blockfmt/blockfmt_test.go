package blockfmt

import (
	"testing"

	"github.com/basisgo/transcoder/internal/etc1block"
)

func uniformBlock(r, g, b uint8) SourceBlock {
	return SourceBlock{Block: etc1block.Block{
		Diff:       true,
		Base5:      [2][3]uint8{{r, g, b}, {r, g, b}},
		IntenTable: [2]uint8{0, 0},
		Selectors:  [16]uint8{},
	}}
}

func TestToETC1_IdentityRoundTrips(t *testing.T) {
	src := uniformBlock(10, 15, 20)
	out := ToETC1(src)
	if len(out) != 8 {
		t.Fatalf("got %d bytes, want 8", len(out))
	}
	var v uint64
	for _, b := range out {
		v = v<<8 | uint64(b)
	}
	decoded := etc1block.Unpack(v)
	if *decoded != src.Block {
		t.Fatalf("round trip mismatch: got %+v, want %+v", *decoded, src.Block)
	}
}

func TestToASTC4x4_UniformBlockUsesVoidExtent(t *testing.T) {
	uniform := uniformBlock(10, 15, 20)
	out := ToASTC4x4(uniform)
	if len(out) != 16 {
		t.Fatalf("got %d bytes, want 16", len(out))
	}
	wantVoidExtent := astcVoidExtent(uniform.DecodeRGBA()[0])
	for i := range out {
		if out[i] != wantVoidExtent[i] {
			t.Fatalf("byte %d = %#x, want %#x (void-extent encoding)", i, out[i], wantVoidExtent[i])
		}
	}

	varied := SourceBlock{Block: etc1block.Block{
		Diff:       true,
		Base5:      [2][3]uint8{{2, 2, 2}, {28, 28, 28}},
		IntenTable: [2]uint8{7, 7},
		Selectors:  [16]uint8{0, 1, 2, 3, 0, 1, 2, 3, 0, 1, 2, 3, 0, 1, 2, 3},
	}}
	out2 := ToASTC4x4(varied)
	if len(out2) != 16 {
		t.Fatalf("got %d bytes, want 16", len(out2))
	}
}

func TestToBC1_EndpointsBracketUniformColor(t *testing.T) {
	src := uniformBlock(31, 0, 0) // fully saturated red in 5-bit space
	out := encodeBC1Block(src.DecodeRGBA(), 0)
	w0 := uint16(out[0]) | uint16(out[1])<<8
	w1 := uint16(out[2]) | uint16(out[3])<<8
	if w0 == 0 && w1 == 0 {
		t.Fatalf("expected non-zero BC1 endpoints for a red block")
	}
}

func TestEncodeEACChannel_FlatInputIsLowError(t *testing.T) {
	var values [16]uint8
	for i := range values {
		values[i] = 128
	}
	out := encodeEACChannel(values)
	if len(out) != 8 {
		t.Fatalf("got %d bytes, want 8", len(out))
	}
	base := int(out[0])
	if base < 120 || base > 136 {
		t.Fatalf("base = %d, want near 128", base)
	}
}

func TestIsFormatSupported_MatchesMatrix(t *testing.T) {
	if !IsFormatSupported(FormatBC7, SourceETC1S) {
		t.Fatalf("expected ETC1S -> BC7 to be supported")
	}
	if !IsFormatSupported(FormatATCRGB, SourceETC1S) {
		t.Fatalf("expected ETC1S -> ATC RGB to be supported")
	}
	if IsFormatSupported(FormatPVRTC1_4BPP, SourceUASTC) {
		t.Fatalf("expected UASTC -> PVRTC1 to be unsupported: no UASTC decode path exists")
	}
	if IsFormatSupported(FormatBC7, SourceUASTC) {
		t.Fatalf("expected UASTC -> BC7 to be unsupported: no UASTC decode path exists")
	}
}

func TestValidatePVRTC1Dimensions_RejectsNonPowerOfTwo(t *testing.T) {
	if err := ValidatePVRTC1Dimensions(3, 4); err == nil {
		t.Fatalf("expected an error for non-power-of-two block dimensions")
	}
	if err := ValidatePVRTC1Dimensions(4, 4); err != nil {
		t.Fatalf("unexpected error for power-of-two dimensions: %v", err)
	}
}

func TestConvertBlock_DispatchesEveryBlockCompressedFormat(t *testing.T) {
	src := uniformBlock(5, 9, 13)
	targets := []Format{
		FormatETC1, FormatETC2RGBA, FormatETC2EACA8, FormatETC2EACR11,
		FormatETC2EACRG11, FormatBC1, FormatBC3, FormatBC4, FormatBC5,
		FormatBC7, FormatASTC4x4, FormatPVRTC1_4BPP,
		FormatATCRGB, FormatATCRGBA, FormatPVRTC2_4BPP,
	}
	for _, target := range targets {
		out, err := ConvertBlock(src, target, 0)
		if err != nil {
			t.Fatalf("ConvertBlock(%v): %v", target, err)
		}
		if len(out) != BytesPerBlock(target) {
			t.Fatalf("ConvertBlock(%v) wrote %d bytes, want %d", target, len(out), BytesPerBlock(target))
		}
	}
}

func TestConvertBlock_BC1ForbidThreeColorBlocksForcesFourColorMode(t *testing.T) {
	src := uniformBlock(5, 9, 13)
	out, err := ConvertBlock(src, FormatBC1, ConvertBC1ForbidThreeColorBlocks)
	if err != nil {
		t.Fatalf("ConvertBlock: %v", err)
	}
	w0 := uint16(out[0]) | uint16(out[1])<<8
	w1 := uint16(out[2]) | uint16(out[3])<<8
	if w0 <= w1 {
		t.Fatalf("w0=%d w1=%d, want w0 > w1 (four-color mode) with ConvertBC1ForbidThreeColorBlocks set", w0, w1)
	}
}

func TestWriteUncompressedBlock_WritesExpectedByteCounts(t *testing.T) {
	src := uniformBlock(1, 2, 3)
	targets := []Format{FormatRGBA32, FormatRGB565, FormatBGR565, FormatRGBA4444}
	for _, target := range targets {
		out := make([]byte, 16*BytesPerPixel(target))
		if err := WriteUncompressedBlock(src, target, out, 0); err != nil {
			t.Fatalf("WriteUncompressedBlock(%v): %v", target, err)
		}
	}
}
