package blockfmt

// ToPVRTC1_4BPP writes one 8-byte PVRTC1 4bpp tile for a single 4x4
// source block. PVRTC1's real encoding interpolates ColorA/ColorB across
// neighboring tiles (the "bowtie" filter) before choosing per-texel
// modulation weights, which needs the full slice's tile grid, not a
// single block in isolation — spec §4.9 itself calls this converter a
// "two-pass: pre-compute modulation per-block, then emit bit-swizzled
// tiles" operation, unlike every other converter in this package that is
// a pure single-block function. This implementation only performs the
// second pass on tile-local data (both ColorA and ColorB are derived
// from this tile's own pixels, with no cross-tile blend), which keeps
// the block's bit geometry PVRTC1-shaped (5:5:5 RGB + opacity bit per
// color, 32-bit 2bpp modulation word) but is not bit-exact against a
// reference PVRTC1 decoder's bilinear-upscaled reconstruction.
//
// RequiresPowerOfTwo(FormatPVRTC1_4BPP) still gates this at the slice
// level the way a full two-pass implementation would, since PVRTC1's
// tiling scheme is undefined for non-power-of-two dimensions regardless
// of how faithfully the per-tile color math is implemented.
//
// ConvertOutputHasAlphaIndices switches ColorA/ColorB from the opaque
// 1:5:5:5 layout (bit 15 set, no alpha precision) to PVRTC1's alpha-aware
// layout (bit 15 clear, one bit of blue precision traded for a 3-bit
// alpha field per color), carrying the source block's decoded alpha
// instead of always encoding fully opaque tiles. ConvertHighQuality routes
// through the same bounding-box endpoint picker every other converter in
// this package uses for that flag.
func ToPVRTC1_4BPP(src SourceBlock, flags ConvertFlags) []byte {
	rgba := src.DecodeRGBA()
	lo, hi := pickBC1Endpoints(rgba, flags)

	useAlpha := flags&ConvertOutputHasAlphaIndices != 0
	colorWord := func(c [3]uint8, a uint8) uint16 {
		if useAlpha {
			r4 := c[0] >> 4
			g4 := c[1] >> 4
			b3 := c[2] >> 5
			a3 := a >> 5
			return uint16(a3)<<12 | uint16(r4)<<8 | uint16(g4)<<4 | uint16(b3)<<1
		}
		r5 := c[0] >> 3
		g5 := c[1] >> 3
		b5 := c[2] >> 3
		return 1<<15 | uint16(r5)<<10 | uint16(g5)<<5 | uint16(b5)
	}
	colorA := colorWord(lo, rgba[0][3])
	colorB := colorWord(hi, rgba[15][3])

	r0, g0, b0 := unpack565(pack565(lo[0], lo[1], lo[2]))
	r1, g1, b1 := unpack565(pack565(hi[0], hi[1], hi[2]))
	var modulation uint32
	for i := 15; i >= 0; i-- {
		px := [3]int{int(rgba[i][0]), int(rgba[i][1]), int(rgba[i][2])}
		best, bestIdx := 1<<30, 0
		for k, w := range bc7ColorWeights {
			cand := [3]int{
				bc7Interp(int(r0), int(r1), w),
				bc7Interp(int(g0), int(g1), w),
				bc7Interp(int(b0), int(b1), w),
			}
			d := sqDist3(px, cand)
			if d < best {
				best, bestIdx = d, k
			}
		}
		modulation = modulation<<2 | uint32(bestIdx)
	}

	out := make([]byte, 8)
	out[0], out[1] = byte(colorA), byte(colorA>>8)
	out[2], out[3] = byte(colorB), byte(colorB>>8)
	out[4] = byte(modulation)
	out[5] = byte(modulation >> 8)
	out[6] = byte(modulation >> 16)
	out[7] = byte(modulation >> 24)
	return out
}

// ValidatePVRTC1Dimensions enforces spec §4.9's "requires power-of-two
// slice dimensions" invariant; callers check this before dispatching any
// block in the slice to ToPVRTC1_4BPP.
func ValidatePVRTC1Dimensions(widthBlocks, heightBlocks int) error {
	if !isPowerOfTwo(widthBlocks) || !isPowerOfTwo(heightBlocks) {
		return &ErrUnsupportedConversion{
			Target: FormatPVRTC1_4BPP,
			Reason: "PVRTC1 4bpp requires power-of-two slice dimensions",
		}
	}
	return nil
}

// ToPVRTC2_4BPP writes one 8-byte PVRTC2 4bpp tile for a single 4x4 source
// block, the same tile-local-only approximation ToPVRTC1_4BPP's doc
// comment describes. PVRTC2 adds a "hard transition" mode bit (distinct
// from PVRTC1's bowtie-filtered bilinear reconstruction) that selects
// non-interpolated colors at a tile's boundary; since this converter, like
// ToPVRTC1_4BPP, only ever reconstructs from one tile's own pixels with no
// cross-tile blend to begin with, every emitted tile sets that bit.
// RequiresPowerOfTwo does not gate this target the way it gates
// FormatPVRTC1_4BPP — PVRTC2's tiling scheme tolerates non-power-of-two
// extents.
func ToPVRTC2_4BPP(src SourceBlock, flags ConvertFlags) []byte {
	rgba := src.DecodeRGBA()
	lo, hi := pickBC1Endpoints(rgba, flags)

	const hardTransitionBit = 1 << 14
	useAlpha := flags&ConvertOutputHasAlphaIndices != 0
	colorWord := func(c [3]uint8, a uint8) uint16 {
		if useAlpha {
			r4 := c[0] >> 4
			g4 := c[1] >> 4
			b3 := c[2] >> 5
			a3 := a >> 5
			return hardTransitionBit | uint16(a3)<<12 | uint16(r4)<<8 | uint16(g4)<<4 | uint16(b3)<<1
		}
		r5 := c[0] >> 3
		g5 := c[1] >> 3
		b5 := c[2] >> 3
		return 1<<15 | hardTransitionBit | uint16(r5)<<10 | uint16(g5)<<5 | uint16(b5)
	}
	colorA := colorWord(lo, rgba[0][3])
	colorB := colorWord(hi, rgba[15][3])

	r0, g0, b0 := unpack565(pack565(lo[0], lo[1], lo[2]))
	r1, g1, b1 := unpack565(pack565(hi[0], hi[1], hi[2]))
	var modulation uint32
	for i := 15; i >= 0; i-- {
		px := [3]int{int(rgba[i][0]), int(rgba[i][1]), int(rgba[i][2])}
		best, bestIdx := 1<<30, 0
		for k, w := range bc7ColorWeights {
			cand := [3]int{
				bc7Interp(int(r0), int(r1), w),
				bc7Interp(int(g0), int(g1), w),
				bc7Interp(int(b0), int(b1), w),
			}
			d := sqDist3(px, cand)
			if d < best {
				best, bestIdx = d, k
			}
		}
		modulation = modulation<<2 | uint32(bestIdx)
	}

	out := make([]byte, 8)
	out[0], out[1] = byte(colorA), byte(colorA>>8)
	out[2], out[3] = byte(colorB), byte(colorB>>8)
	out[4] = byte(modulation)
	out[5] = byte(modulation >> 8)
	out[6] = byte(modulation >> 16)
	out[7] = byte(modulation >> 24)
	return out
}
