package blockfmt

import (
	"github.com/basisgo/transcoder/internal/etc1block"
)

// ErrUnsupportedConversion is returned when a converter is asked to
// produce a target IsFormatSupported has already ruled out, or when a
// non-power-of-two slice is handed to a converter that requires one.
type ErrUnsupportedConversion struct {
	Target Format
	Reason string
}

func (e *ErrUnsupportedConversion) Error() string {
	return "blockfmt: " + e.Reason
}

// SourceBlock is the decoded ETC1S logical block ContainerTranscoder
// composes per spec §4.8 step 4: two endpoints, one intensity table per
// half, flip/diff bits, and 16 selector values. Converters never see raw
// pixels except through DecodeRGBA, keeping every arc traceable back to
// the same palette data the wire format carries.
type SourceBlock struct {
	Block etc1block.Block

	// AlphaBlock is the logical block decoded from the same (image, level,
	// macroblock, sub-block) position in a level's separate alpha slice,
	// when one is present (spec §3: images are "one slice (opaque) or two
	// slices (color + alpha)"). ETC1S carries alpha as a grayscale ETC1S
	// block, so its decoded R channel supplies the alpha value; nil means
	// the level has no alpha slice and DecodeRGBA's alpha stays opaque.
	AlphaBlock *etc1block.Block
}

// DecodeRGBA expands the logical block to 16 raster-order RGBA8 texels,
// the shared starting point for every converter that doesn't have a
// direct bit-for-bit relationship with the ETC1 encoding (everything but
// the ETC1 identity converter). When AlphaBlock is set, its R channel
// overrides the opaque alpha DecodeRGBA would otherwise report.
func (s SourceBlock) DecodeRGBA() [16][4]uint8 {
	out := s.Block.DecodeRGBA()
	if s.AlphaBlock != nil {
		alpha := s.AlphaBlock.DecodeRGBA()
		for i := range out {
			out[i][3] = alpha[i][0]
		}
	}
	return out
}
