// Package blockfmt implements the pure, allocation-light per-block format
// converters ContainerTranscoder dispatches to once it has reconstructed a
// logical ETC1S block: one function per source-to-target arc, plus the
// target-format capability matrix callers use for device-side negotiation.
//
// Grounded on deepteams-webp/internal/dsp/transforms.go for the "small pure
// functions operating on fixed-size byte/int slices, dispatched from a
// table, unrolled rather than looped for clarity over cleverness" shape,
// and on am-sokolov-go-astc-encoder/astc/decode_block.go for the
// constant/void-extent-block special case a from-scratch ASTC encoder
// needs to special-case uniform-color input.
package blockfmt

// Format enumerates every target GPU texture format the transcoder can
// emit (spec §4.9/§4.10).
type Format int

const (
	FormatETC1 Format = iota
	FormatETC2RGBA
	FormatETC2EACA8
	FormatETC2EACR11
	FormatETC2EACRG11
	FormatBC1
	FormatBC3
	FormatBC4
	FormatBC5
	FormatBC7
	FormatASTC4x4
	FormatPVRTC1_4BPP
	FormatATCRGB
	FormatATCRGBA
	FormatPVRTC2_4BPP
	FormatRGBA32
	FormatRGB565
	FormatBGR565
	FormatRGBA4444
)

// BytesPerBlock returns the fixed block-compressed stride for formats that
// have one; it panics for uncompressed formats, which use BytesPerPixel
// instead.
func BytesPerBlock(f Format) int {
	switch f {
	case FormatETC1, FormatETC2EACA8, FormatETC2EACR11, FormatBC1, FormatBC4:
		return 8
	case FormatETC2RGBA, FormatETC2EACRG11, FormatBC3, FormatBC5, FormatBC7, FormatASTC4x4:
		return 16
	case FormatPVRTC1_4BPP, FormatATCRGB, FormatPVRTC2_4BPP:
		return 8 // per 4x4 tile group is handled by the converter itself
	case FormatATCRGBA:
		return 16
	default:
		panic("blockfmt: BytesPerBlock called on an uncompressed format")
	}
}

// BytesPerPixel returns the fixed per-pixel stride for uncompressed target
// formats; it panics for block-compressed formats.
func BytesPerPixel(f Format) int {
	switch f {
	case FormatRGBA32:
		return 4
	case FormatRGB565, FormatBGR565, FormatRGBA4444:
		return 2
	default:
		panic("blockfmt: BytesPerPixel called on a block-compressed format")
	}
}

// IsBlockCompressed reports whether f writes fixed-size blocks (true) or
// raster pixels (false).
func IsBlockCompressed(f Format) bool {
	switch f {
	case FormatRGBA32, FormatRGB565, FormatBGR565, FormatRGBA4444:
		return false
	default:
		return true
	}
}

// SourceTexFormat mirrors internal/container.TexFormat without importing
// it, keeping this package free of a container dependency it doesn't
// otherwise need.
type SourceTexFormat int

const (
	SourceETC1S SourceTexFormat = iota
	SourceUASTC
)

// capabilityMatrix implements spec §4.10. FXT1 is never wired (its
// 8x4/4x8 texel footprint doesn't fit this
// package's fixed 4x4-in/fixed-block-out converter model), so it has no
// row entry for either source format and IsFormatSupported always reports
// it unsupported. The UASTC-HDR / ASTC-HDR-6x6 source row is out of
// scope: spec.md's own Non-goals exclude "the HDR (UASTC-HDR /
// ASTC-HDR-6x6) encoders", and decoding their logical block layout (a
// prerequisite for any HDR target conversion) was never specified beyond
// "interface only" (spec §4.9) — there is no encoder anywhere in this
// tree that could ever produce one to transcode, so BC6H/ASTC-HDR/
// RGB9E5/half-float targets are not implemented.
//
// The SourceUASTC row is deliberately empty (every target unsupported):
// TranscodeImageLevel has no UASTC logical-block decoder anywhere in this
// tree — every slice is decoded through the ETC1S macroblock/codebook
// path regardless of the container's declared TexFormat — so advertising
// UASTC support here would mislead a caller doing device-side format
// negotiation (spec §4.10) into requesting a transcode this package
// cannot perform. Implementing a UASTC decoder is future work, not
// something this capability table should paper over.
var capabilityMatrix = map[SourceTexFormat]map[Format]bool{
	SourceETC1S: {
		FormatETC1: true, FormatETC2RGBA: true, FormatETC2EACA8: true,
		FormatETC2EACR11: true, FormatETC2EACRG11: true,
		FormatBC1: true, FormatBC3: true, FormatBC4: true, FormatBC5: true, FormatBC7: true,
		FormatASTC4x4: true, FormatPVRTC1_4BPP: true,
		FormatATCRGB: true, FormatATCRGBA: true, FormatPVRTC2_4BPP: true,
		FormatRGBA32: true, FormatRGB565: true, FormatBGR565: true, FormatRGBA4444: true,
	},
	SourceUASTC: {},
}

// IsFormatSupported implements is_format_supported(target, source) (spec
// §4.10); callers use it for device-side format negotiation before ever
// calling transcode_image_level.
func IsFormatSupported(target Format, source SourceTexFormat) bool {
	row, ok := capabilityMatrix[source]
	if !ok {
		return false
	}
	return row[target]
}

// RequiresPowerOfTwo reports whether target needs power-of-two slice
// dimensions (PVRTC1's two-pass tiling scheme, spec §4.9). PVRTC2 relaxes
// this requirement versus PVRTC1 (its tiling math tolerates non-power-of-
// two extents), so it is deliberately absent from this check.
func RequiresPowerOfTwo(target Format) bool {
	return target == FormatPVRTC1_4BPP
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// ConvertFlags mirrors the subset of the top-level transcoder.DecodeFlags
// bitmask (spec §6) that changes a single block converter's own output,
// kept as this package's own type rather than importing the top-level
// package's DecodeFlags directly (which would create an import cycle:
// transcoder depends on blockfmt already).
type ConvertFlags uint32

const (
	// ConvertBC1ForbidThreeColorBlocks forces BC1 output (and BC3's color
	// half, which shares encodeBC1Block) into four-color mode, never the
	// three-color/punch-through-alpha mode BC1 can also represent. The ATC
	// and PVRTC converters do not read it.
	ConvertBC1ForbidThreeColorBlocks ConvertFlags = 1 << iota
	// ConvertHighQuality selects a bounding-box endpoint search instead of
	// the cheaper furthest-pixel-pair heuristic in every converter that
	// picks endpoints through pickBC1Endpoints (BC1, BC3, ATC, PVRTC1,
	// PVRTC2); the other converters ignore it.
	ConvertHighQuality
	// ConvertOutputHasAlphaIndices requests PVRTC1/PVRTC2's alpha-aware
	// color word layout instead of the opaque-only one.
	ConvertOutputHasAlphaIndices
	// ConvertPVRTCDecodeToNextPow2 records that the caller has already
	// rounded the slice's dimensions up to the next power of two and
	// wants PVRTC1/PVRTC2 conversion to proceed despite that padding; no
	// converter in this package reads it directly; the transcoder package
	// uses it to decide whether to bypass RequiresPowerOfTwo's dimension
	// check before ever reaching ConvertBlock. It is still threaded
	// through ConvertBlock's flags parameter for signature uniformity
	// with the other three flags.
	ConvertPVRTCDecodeToNextPow2
)
