// Package transcoder implements the public API of a universal GPU-texture
// supercompression transcoder: it parses a `.basis` or KTX2 container,
// rebuilds the Huffman/codebook state internal/backend wrote, and converts
// each requested image level into a caller's target block format through
// internal/blockfmt — without ever materializing an intermediate
// uncompressed image.
//
// Grounded on deepteams-webp/webp.go + encode.go for the package-level
// shape this mirrors: a package init() registering process-wide state, a
// small set of top-level entry points operating on a parsed in-memory
// byte buffer, typed sentinel errors, and plain option/info structs
// instead of a builder API.
package transcoder

import (
	"github.com/pkg/errors"

	"github.com/basisgo/transcoder/internal/bitio"
	"github.com/basisgo/transcoder/internal/blockfmt"
	"github.com/basisgo/transcoder/internal/codebook"
	"github.com/basisgo/transcoder/internal/container"
	"github.com/basisgo/transcoder/internal/xcode"
)

var initialized bool

// Init performs process-wide one-time setup (spec §6: "init() (process-
// wide, idempotent, must be called once before any other call)"). This
// implementation has no global tables to build beyond what package-level
// init() functions already construct at load time, so Init only flips the
// readiness flag StartTranscoding requires before it will do any work.
func Init() {
	initialized = true
}

// ErrorKind classifies a transcoder-level failure, spec §7.
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

// Error is the typed error every exported transcoder function returns on
// failure.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string { return "transcoder: " + e.Kind.String() + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

func wrapErr(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// DecodeFlags is a bitmask of caller-controllable transcode behaviors
// (spec §6).
type DecodeFlags uint32

const (
	// PVRTCDecodeToNextPow2 tells TranscodeImageLevel the caller has
	// already rounded the slice's dimensions up to the next power of two
	// and wants PVRTC1/PVRTC2 conversion to proceed despite that padding,
	// bypassing the strict ValidatePVRTC1Dimensions check that otherwise
	// gates PVRTC1 output.
	PVRTCDecodeToNextPow2 DecodeFlags = 1 << iota
	TranscodeAlphaDataToOpaqueFormats
	// BC1ForbidThreeColorBlocks forces BC1 output (and BC3's color half)
	// into four-color mode, never the three-color/punch-through-alpha
	// mode BC1 can also represent (see blockfmt's encodeBC1Block doc
	// comment for the mode-selection rule this overrides). ATC and PVRTC
	// output is unaffected.
	BC1ForbidThreeColorBlocks
	// OutputHasAlphaIndices requests PVRTC1/PVRTC2's alpha-aware color
	// word layout instead of the opaque-only one.
	OutputHasAlphaIndices
	// HighQuality selects a bounding-box endpoint search instead of the
	// cheaper furthest-pixel-pair heuristic every flag-aware converter in
	// internal/blockfmt otherwise defaults to.
	HighQuality
	// NoETC1SChromaFiltering is a documented no-op in this
	// implementation: the original transcoder's chroma filtering smooths
	// ETC1S's inherent chroma subsampling artifacts during RGB
	// reconstruction, but this package's etc1block.DecodeRGBA always
	// performs an exact per-half base-color-plus-intensity-modifier
	// decode with no chroma resampling step to disable in the first
	// place, so there is nothing for this flag to turn off.
	NoETC1SChromaFiltering
	// NoDeblockFiltering disables internal/xcode's deblock post-filter
	// unconditionally, overriding ForceDeblockFiltering if both are set.
	NoDeblockFiltering
	// StrongerDeblockFiltering doubles FilterMacroblockSeams' blend
	// strength when the filter runs at all.
	StrongerDeblockFiltering
	// ForceDeblockFiltering turns on internal/xcode's deblock post-filter
	// for a transcode that would otherwise skip it (this implementation's
	// default is filtering off, since it has no per-slice "smooth
	// content" hint the original transcoder gates automatic filtering on).
	ForceDeblockFiltering
	// XUASTCLDRDisableFastBC7Transcoding is a documented no-op: it only
	// has meaning for a UASTC LDR source's direct bit-twiddled path to
	// BC7, and this implementation has no UASTC logical-block decoder at
	// all (every slice transcodes through the ETC1S path regardless of
	// the container's declared TexFormat — see
	// blockfmt.capabilityMatrix's SourceUASTC row), so there is no fast
	// path here for the flag to disable.
	XUASTCLDRDisableFastBC7Transcoding
)

// FileInfo is the original transcoder's basisu_file_info, populated purely
// from the parsed header (spec §4.11).
type FileInfo struct {
	Version        uint16
	TotalImages    uint32
	TotalSlices    uint32
	TexFormat      container.TexFormat
	Flags          container.HeaderFlags
	UserData0      uint32
	UserData1      uint32
	HasAlphaSlices bool
}

// ImageInfo is the original transcoder's basisu_image_info, populated
// purely from the grouped slice table (spec §4.11).
type ImageInfo struct {
	ImageIndex int
	Width      int
	Height     int
	NumBlocksX int
	NumBlocksY int
	NumLevels  int
	AlphaFlag  bool
	IFrameFlag bool
}

// ImageLevelInfo is the original transcoder's basisu_image_level_info
// (spec §4.11).
type ImageLevelInfo struct {
	ImageIndex      int
	LevelIndex      int
	OrigWidth       int
	OrigHeight      int
	NumBlocksX      int
	NumBlocksY      int
	TotalBlocks     int
	AlphaFlag       bool
	IFrameFlag      bool
	FirstSliceIndex int
	RGBFileOffset   uint32
	RGBFileLength   uint32
	AlphaFileOffset uint32
	AlphaFileLength uint32
}

// Transcoder owns one parsed container's header, palettes, and image
// table. It is re-entrant across distinct instances. StartTranscoding
// must not run concurrently with any other call on the same instance;
// once it has returned, TranscodeImageLevel and the info getters only
// read the instance (a video container's previous-frame state has its own
// lock), so TranscodeImageLevelsParallel may drive them from several
// goroutines at once (spec §5).
type Transcoder struct {
	ready bool

	header container.Header
	raw    []byte
	images []container.Image

	endpoints []codebook.EndpointEntry
	selectors []codebook.SelectorEntry

	// video is non-nil only for a TextureTypeVideoFrames container. It
	// holds one VideoState per mip level across the container's whole
	// decoded lifetime, unlike xcode.TranscoderState which is scoped to a
	// single DecodeSlice call (spec §4.14).
	video *xcode.VideoState
}

// NewTranscoder constructs an unstarted Transcoder. Init must have been
// called at least once in the process before StartTranscoding succeeds.
func NewTranscoder() *Transcoder {
	return &Transcoder{}
}

// ValidateHeader implements validate_header(bytes): structural parse plus
// header CRC, without touching palettes or slices.
func ValidateHeader(data []byte) error {
	h, err := container.ParseHeader(data)
	if err != nil {
		return wrapErr(ErrKindInvalidHeader, err)
	}
	if err := container.VerifyHeaderCRC(data[:h.HeaderSize]); err != nil {
		return wrapErr(ErrKindCrcMismatch, err)
	}
	return nil
}

// ValidateFileChecksums implements validate_file_checksums(bytes, full):
// when full is true it also verifies the whole-payload data CRC16, not
// just the header.
func ValidateFileChecksums(data []byte, full bool) error {
	h, err := container.ParseHeader(data)
	if err != nil {
		return wrapErr(ErrKindInvalidHeader, err)
	}
	if err := container.VerifyHeaderCRC(data[:h.HeaderSize]); err != nil {
		return wrapErr(ErrKindCrcMismatch, err)
	}
	if full {
		if err := container.VerifyDataCRC(h, data); err != nil {
			return wrapErr(ErrKindCrcMismatch, err)
		}
	}
	return nil
}

// GetFileInfo returns FileInfo from an unstarted or started container;
// it only needs the header.
func GetFileInfo(data []byte) (FileInfo, error) {
	h, err := container.ParseHeader(data)
	if err != nil {
		return FileInfo{}, wrapErr(ErrKindInvalidHeader, err)
	}
	return FileInfo{
		Version:        h.Version,
		TotalImages:    h.TotalImages,
		TotalSlices:    h.TotalSlices,
		TexFormat:      h.TexFormat,
		Flags:          h.Flags,
		UserData0:      h.UserData0,
		UserData1:      h.UserData1,
		HasAlphaSlices: h.Flags&container.HeaderFlagHasAlphaSlices != 0,
	}, nil
}

// requireReady returns ErrKindNotReady unless StartTranscoding already
// succeeded on t (spec §7: "NotReady (operations called before
// start_transcoding)").
func (t *Transcoder) requireReady() error {
	if !t.ready {
		return wrapErr(ErrKindNotReady, errors.New("transcoder: start_transcoding was not called"))
	}
	return nil
}

// GetImageInfo returns per-image summary info for every image in the
// started container (spec §4.11).
func (t *Transcoder) GetImageInfo() ([]ImageInfo, error) {
	if err := t.requireReady(); err != nil {
		return nil, err
	}
	out := make([]ImageInfo, len(t.images))
	for i, img := range t.images {
		if len(img.Levels) == 0 {
			return nil, wrapErr(ErrKindInvalidSlice, errors.New("transcoder: image has no levels"))
		}
		lvl0 := img.Levels[0]
		out[i] = ImageInfo{
			ImageIndex: img.ImageIndex,
			Width:      lvl0.Width,
			Height:     lvl0.Height,
			NumBlocksX: lvl0.BlocksX,
			NumBlocksY: lvl0.BlocksY,
			NumLevels:  len(img.Levels),
			AlphaFlag:  lvl0.AlphaSlice != nil,
			IFrameFlag: lvl0.RGBSlice.Flags&container.SliceFlagFrameIsIFrame != 0,
		}
	}
	return out, nil
}

// GetImageLevelInfo returns the detailed per-level info for one (image,
// level) pair (spec §4.11).
func (t *Transcoder) GetImageLevelInfo(image, level int) (ImageLevelInfo, error) {
	if err := t.requireReady(); err != nil {
		return ImageLevelInfo{}, err
	}
	lvl, _, err := t.findLevel(image, level)
	if err != nil {
		return ImageLevelInfo{}, err
	}
	info := ImageLevelInfo{
		ImageIndex:      image,
		LevelIndex:      level,
		OrigWidth:       int(lvl.RGBSlice.OrigWidth),
		OrigHeight:      int(lvl.RGBSlice.OrigHeight),
		NumBlocksX:      lvl.BlocksX,
		NumBlocksY:      lvl.BlocksY,
		TotalBlocks:     lvl.BlocksX * lvl.BlocksY,
		AlphaFlag:       lvl.AlphaSlice != nil,
		IFrameFlag:      lvl.RGBSlice.Flags&container.SliceFlagFrameIsIFrame != 0,
		RGBFileOffset:   lvl.RGBSlice.FileOffset,
		RGBFileLength:   lvl.RGBSlice.FileSize,
	}
	if lvl.AlphaSlice != nil {
		info.AlphaFileOffset = lvl.AlphaSlice.FileOffset
		info.AlphaFileLength = lvl.AlphaSlice.FileSize
	}
	return info, nil
}

func (t *Transcoder) findLevel(image, level int) (container.ImageLevel, container.Image, error) {
	for _, img := range t.images {
		if img.ImageIndex != image {
			continue
		}
		for _, lvl := range img.Levels {
			if lvl.LevelIndex == level {
				return lvl, img, nil
			}
		}
		return container.ImageLevel{}, container.Image{}, wrapErr(ErrKindInvalidSlice, errors.New("transcoder: level index out of range"))
	}
	return container.ImageLevel{}, container.Image{}, wrapErr(ErrKindInvalidSlice, errors.New("transcoder: image index out of range"))
}

// IsFormatSupported implements is_format_supported(target, source) at the
// public API surface, delegating to internal/blockfmt's capability
// matrix (spec §4.10).
func IsFormatSupported(target blockfmt.Format, source blockfmt.SourceTexFormat) bool {
	return blockfmt.IsFormatSupported(target, source)
}

// StartTranscoding implements start_transcoding(bytes) (spec §4.8, §6):
// it parses the header, validates both the header and full-payload CRC16,
// then reads the endpoint palette, selector palette, and slice descriptor
// table once. The palettes are decoded with an identity reorder because
// the reorder tables used at encode time are never themselves transmitted
// (spec §9's open question: "a decoder never knows which path was taken
// because the reorder tables are not transmitted") — the macroblock
// stream's endpoint/selector indices already refer to transmission
// ("new") order, so the palettes must stay in that same order rather
// than being un-reordered back to a front-end order the decoder never
// had.
func (t *Transcoder) StartTranscoding(data []byte) error {
	if !initialized {
		return wrapErr(ErrKindNotReady, errors.New("transcoder: Init was not called"))
	}
	h, err := container.ParseHeader(data)
	if err != nil {
		return wrapErr(ErrKindInvalidHeader, err)
	}
	if err := container.VerifyHeaderCRC(data[:h.HeaderSize]); err != nil {
		return wrapErr(ErrKindCrcMismatch, err)
	}
	if err := container.VerifyDataCRC(h, data); err != nil {
		return wrapErr(ErrKindCrcMismatch, err)
	}

	epEnd := int(h.EndpointCBOffset) + int(h.EndpointCBSize)
	if epEnd > len(data) {
		return wrapErr(ErrKindInvalidCodebook, errors.New("transcoder: endpoint codebook extends past end of file"))
	}
	epIdentity := codebook.Identity(int(h.EndpointCBCount))
	epPal, err := codebook.DecodeEndpointPalette(bitio.NewReader(data[h.EndpointCBOffset:epEnd]), int(h.EndpointCBCount), epIdentity.NewToOld)
	if err != nil {
		return wrapErr(ErrKindInvalidCodebook, err)
	}

	selEnd := int(h.SelectorCBOffset) + int(h.SelectorCBSize)
	if selEnd > len(data) {
		return wrapErr(ErrKindInvalidCodebook, errors.New("transcoder: selector codebook extends past end of file"))
	}
	selIdentity := codebook.Identity(int(h.SelectorCBCount))
	selPal, err := codebook.DecodeSelectorPalette(bitio.NewReader(data[h.SelectorCBOffset:selEnd]), int(h.SelectorCBCount), selIdentity.NewToOld, nil)
	if err != nil {
		return wrapErr(ErrKindInvalidCodebook, err)
	}

	if int(h.SliceDescOffset) > len(data) {
		return wrapErr(ErrKindInvalidSlice, errors.New("transcoder: slice descriptor table extends past end of file"))
	}
	descs, err := container.ParseSliceDescs(data[h.SliceDescOffset:], int(h.TotalSlices), len(data))
	if err != nil {
		return wrapErr(ErrKindInvalidSlice, err)
	}
	for _, d := range descs {
		if err := container.VerifySliceCRC(d, data); err != nil {
			return wrapErr(ErrKindCrcMismatch, err)
		}
	}
	images, err := container.GroupSlices(descs)
	if err != nil {
		return wrapErr(ErrKindInvalidSlice, err)
	}

	t.header = h
	t.raw = data
	t.images = images
	t.endpoints = epPal.Entries
	t.selectors = selPal.Entries
	t.ready = true
	if h.TextureType == container.TextureTypeVideoFrames {
		t.video = xcode.NewVideoState()
	} else {
		t.video = nil
	}
	return nil
}

// DropVideoFrame implements the video-sequence "skip a frame" operation
// (spec §4.14): it clears level's previous-frame buffer so a later
// P-frame at that level cannot desync against a frame the caller never
// decoded. It is only meaningful for a TextureTypeVideoFrames container.
func (t *Transcoder) DropVideoFrame(image, level int) error {
	if err := t.requireReady(); err != nil {
		return err
	}
	if t.video == nil {
		return wrapErr(ErrKindInternalInvariantViolated, errors.New("transcoder: DropVideoFrame called on a non-video container"))
	}
	if _, _, err := t.findLevel(image, level); err != nil {
		return err
	}
	t.video.DropFrame(level)
	return nil
}

// formatCarriesAlpha reports whether target has a dedicated alpha channel
// a level's separate alpha slice should be merged into (spec §4.9's RGBA
// target list).
func formatCarriesAlpha(f blockfmt.Format) bool {
	switch f {
	case blockfmt.FormatETC2RGBA, blockfmt.FormatBC3, blockfmt.FormatBC7, blockfmt.FormatRGBA32, blockfmt.FormatRGBA4444:
		return true
	default:
		return false
	}
}

// convertXcodeErr re-wraps an internal/xcode decode error as a transcoder
// Error, translating its ErrorKind one-for-one (the two enums are kept in
// the same declaration order precisely so this mapping is a plain cast).
func convertXcodeErr(err error) error {
	if xe, ok := err.(*xcode.Error); ok {
		return &Error{Kind: ErrorKind(xe.Kind), Err: xe.Err}
	}
	return wrapErr(ErrKindInternalInvariantViolated, err)
}

// decodeSliceMacroblocks decodes one slice's full macroblock stream. This
// implementation never transmits flip bits on the wire (spec §4.7 notes
// they are "reconstructed on the decoder side"; this encoder/decoder pair
// reconstructs ETC1S content, which never sets flip), so every macroblock
// gets an all-zero flip mask.
//
// For a TextureTypeVideoFrames container (spec §4.14), level selects which
// VideoState buffer this slice participates in: an I-frame slice decodes
// normally and then snapshots its per-macroblock state as that level's new
// previous frame; a P-frame slice decodes against that buffer via
// xcode.DecodeSliceP and rolls the buffer forward to its own result.
func (t *Transcoder) decodeSliceMacroblocks(slice container.SliceDesc, blocksX, blocksY, level int) ([]*xcode.DecodedMacroblock, error) {
	end := int(slice.FileOffset) + int(slice.FileSize)
	if end > len(t.raw) {
		return nil, wrapErr(ErrKindInvalidSlice, errors.New("transcoder: slice data extends past end of file"))
	}
	mbWide, mbHigh := xcode.MacroblockGridSize(blocksX, blocksY)
	flipMasks := make([]byte, mbWide*mbHigh)
	payload := t.raw[slice.FileOffset:end]

	if t.video == nil {
		mbs, err := xcode.DecodeSlice(payload, t.endpoints, t.selectors, flipMasks)
		if err != nil {
			return nil, convertXcodeErr(err)
		}
		return mbs, nil
	}

	if slice.Flags&container.SliceFlagFrameIsIFrame != 0 {
		mbs, eps, sels, err := xcode.DecodeSliceWithIndices(payload, t.endpoints, t.selectors, flipMasks)
		if err != nil {
			return nil, convertXcodeErr(err)
		}
		if err := t.video.Snapshot(level, eps, sels, mbs); err != nil {
			return nil, convertXcodeErr(err)
		}
		return mbs, nil
	}

	prev := t.video.Prev(level)
	mbs, eps, sels, err := xcode.DecodeSliceP(payload, t.endpoints, t.selectors, flipMasks, prev)
	if err != nil {
		return nil, convertXcodeErr(err)
	}
	if err := t.video.Snapshot(level, eps, sels, mbs); err != nil {
		return nil, convertXcodeErr(err)
	}
	return mbs, nil
}

// TranscodeImageLevel implements transcode_image_level(image, level, out,
// out_len_blocks_or_pixels, target_format, flags, row_pitch, rows) (spec
// §4.8, §6): it decodes one slice's macroblock/selector-history stream and
// writes target-format blocks (or, for uncompressed targets, raster
// pixels at rowPitch stride) directly into out — no intermediate
// uncompressed image is ever materialized. rowPitch is ignored for
// block-compressed targets; a zero rowPitch for an uncompressed target
// defaults to width*BytesPerPixel(target) (tightly packed).
func (t *Transcoder) TranscodeImageLevel(image, level int, target blockfmt.Format, flags DecodeFlags, out []byte, rowPitch int) error {
	if err := t.requireReady(); err != nil {
		return err
	}
	lvl, _, err := t.findLevel(image, level)
	if err != nil {
		return err
	}

	source := blockfmt.SourceETC1S
	if t.header.TexFormat == container.TexFormatUASTC {
		source = blockfmt.SourceUASTC
	}
	if !blockfmt.IsFormatSupported(target, source) {
		return wrapErr(ErrKindUnsupportedTargetFormat, errors.New("transcoder: target format unsupported for this source format"))
	}
	if blockfmt.RequiresPowerOfTwo(target) && flags&PVRTCDecodeToNextPow2 == 0 {
		if err := blockfmt.ValidatePVRTC1Dimensions(lvl.BlocksX, lvl.BlocksY); err != nil {
			return wrapErr(ErrKindIncompatibleTargetDimensions, err)
		}
	}

	// TranscodeAlphaDataToOpaqueFormats redirects the primary source to
	// the alpha slice when the caller wants the alpha channel's content
	// out of a target format that has no alpha channel of its own to
	// carry it (spec §6 flag list).
	colorSlice := lvl.RGBSlice
	if flags&TranscodeAlphaDataToOpaqueFormats != 0 && lvl.AlphaSlice != nil && !formatCarriesAlpha(target) {
		colorSlice = *lvl.AlphaSlice
	}
	colorBlocks, err := t.decodeSliceMacroblocks(colorSlice, lvl.BlocksX, lvl.BlocksY, level)
	if err != nil {
		return err
	}

	var alphaBlocks []*xcode.DecodedMacroblock
	if lvl.AlphaSlice != nil && formatCarriesAlpha(target) && colorSlice.FileOffset != lvl.AlphaSlice.FileOffset {
		alphaBlocks, err = t.decodeSliceMacroblocks(*lvl.AlphaSlice, lvl.BlocksX, lvl.BlocksY, level)
		if err != nil {
			return err
		}
	}

	mbWide, mbHigh := xcode.MacroblockGridSize(lvl.BlocksX, lvl.BlocksY)
	order := xcode.BoustrophedonOrder(mbWide, mbHigh)
	if len(order) != len(colorBlocks) {
		return wrapErr(ErrKindInternalInvariantViolated, errors.New("transcoder: macroblock traversal count does not match decoded macroblock count"))
	}

	return t.emitBlocks(order, colorBlocks, alphaBlocks, lvl, target, flags, out, rowPitch)
}

// toConvertFlags translates the subset of DecodeFlags a block converter
// itself needs into blockfmt.ConvertFlags (spec §6). blockfmt cannot import
// this package's DecodeFlags directly without creating an import cycle
// (this package already imports blockfmt), so the two flag sets are kept
// distinct and mapped bit-for-bit here.
func (t *Transcoder) toConvertFlags(flags DecodeFlags) blockfmt.ConvertFlags {
	var out blockfmt.ConvertFlags
	if flags&BC1ForbidThreeColorBlocks != 0 {
		out |= blockfmt.ConvertBC1ForbidThreeColorBlocks
	}
	if flags&HighQuality != 0 {
		out |= blockfmt.ConvertHighQuality
	}
	if flags&OutputHasAlphaIndices != 0 {
		out |= blockfmt.ConvertOutputHasAlphaIndices
	}
	if flags&PVRTCDecodeToNextPow2 != 0 {
		out |= blockfmt.ConvertPVRTCDecodeToNextPow2
	}
	return out
}

// deblockStrength reports whether the deblock post-filter should run for
// this transcode and, if so, at what strength (spec §4.12, §6):
// NoDeblockFiltering always wins and disables the filter; otherwise
// ForceDeblockFiltering turns it on; the default (neither flag set) is
// off, since this implementation has no per-slice "smooth content" hint
// the original transcoder used to gate automatic filtering. When active,
// StrongerDeblockFiltering doubles the blend strength.
func deblockStrength(flags DecodeFlags) (active bool, strength int) {
	if flags&NoDeblockFiltering != 0 {
		return false, 0
	}
	if flags&ForceDeblockFiltering == 0 {
		return false, 0
	}
	if flags&StrongerDeblockFiltering != 0 {
		return true, 2
	}
	return true, 1
}

// emitBlocks walks every macroblock in traversal order, dispatches each of
// its four logical ETC1S blocks to the target converter, and writes the
// result into out at the right block or pixel offset, clipping
// uncompressed output to the slice's un-padded dimensions (spec §4.8:
// "for uncompressed formats ... clipping to the original un-padded
// dimensions").
func (t *Transcoder) emitBlocks(
	order []xcode.MacroblockCoord,
	colorBlocks, alphaBlocks []*xcode.DecodedMacroblock,
	lvl container.ImageLevel,
	target blockfmt.Format,
	flags DecodeFlags,
	out []byte,
	rowPitch int,
) error {
	blockCompressed := blockfmt.IsBlockCompressed(target)
	convertFlags := t.toConvertFlags(flags)
	deblockOn, deblockStr := deblockStrength(flags)

	var bpb, bpp int
	if blockCompressed {
		bpb = blockfmt.BytesPerBlock(target)
		if need := lvl.BlocksX * lvl.BlocksY * bpb; len(out) < need {
			return wrapErr(ErrKindOutputBufferTooSmall, errors.New("transcoder: output buffer too small for target blocks"))
		}
	} else {
		bpp = blockfmt.BytesPerPixel(target)
		if rowPitch <= 0 {
			rowPitch = lvl.Width * bpp
		}
		if need := rowPitch * lvl.Height; len(out) < need {
			return wrapErr(ErrKindOutputBufferTooSmall, errors.New("transcoder: output buffer too small for target pixels"))
		}
	}

	for mi, mb := range order {
		colorMB := colorBlocks[mi]
		var alphaMB *xcode.DecodedMacroblock
		if alphaBlocks != nil {
			alphaMB = alphaBlocks[mi]
		}

		coords := [4][2]int{
			{2 * mb.X, 2 * mb.Y},
			{2*mb.X + 1, 2 * mb.Y},
			{2 * mb.X, 2*mb.Y + 1},
			{2*mb.X + 1, 2*mb.Y + 1},
		}
		if blockCompressed {
			for b := 0; b < 4; b++ {
				bx, by := coords[b][0], coords[b][1]
				if bx >= lvl.BlocksX || by >= lvl.BlocksY {
					continue
				}
				src := blockfmt.SourceBlock{Block: colorMB.Blocks[b]}
				if alphaMB != nil {
					ab := alphaMB.Blocks[b]
					src.AlphaBlock = &ab
				}
				enc, err := blockfmt.ConvertBlock(src, target, convertFlags)
				if err != nil {
					return wrapErr(ErrKindUnsupportedTargetFormat, err)
				}
				offset := (by*lvl.BlocksX + bx) * bpb
				copy(out[offset:offset+bpb], enc)
			}
			continue
		}

		// Uncompressed targets decode every sub-block of the macroblock
		// to RGBA8 up front so the deblock post-filter (spec §4.12) can
		// see and smooth the two internal seams shared within this
		// macroblock before any sub-block is packed to the target pixel
		// format.
		var quad [4][16][4]uint8
		for b := 0; b < 4; b++ {
			src := blockfmt.SourceBlock{Block: colorMB.Blocks[b]}
			if alphaMB != nil {
				ab := alphaMB.Blocks[b]
				src.AlphaBlock = &ab
			}
			quad[b] = src.DecodeRGBA()
		}
		if deblockOn {
			quad = xcode.FilterMacroblockSeams(quad, deblockStr)
		}

		for b := 0; b < 4; b++ {
			bx, by := coords[b][0], coords[b][1]
			if bx >= lvl.BlocksX || by >= lvl.BlocksY {
				continue
			}

			tmp := make([]byte, 16*bpp)
			if err := blockfmt.WriteUncompressedPixels(quad[b], target, tmp); err != nil {
				return wrapErr(ErrKindUnsupportedTargetFormat, err)
			}
			for py := 0; py < 4; py++ {
				gy := by*4 + py
				if gy >= lvl.Height {
					continue
				}
				for px := 0; px < 4; px++ {
					gx := bx*4 + px
					if gx >= lvl.Width {
						continue
					}
					srcOff := (py*4 + px) * bpp
					dstOff := gy*rowPitch + gx*bpp
					copy(out[dstOff:dstOff+bpp], tmp[srcOff:srcOff+bpp])
				}
			}
		}
	}
	return nil
}
