package blockfmt

// ToASTC4x4 writes a 16-byte ASTC LDR 4x4 block. Flat (uniform-color)
// input uses the void-extent encoding exactly as
// am-sokolov-go-astc-encoder's decoder special-cases constant blocks;
// everything else uses a fixed 2-endpoint, 2-bit-weight mode (spec §4.9:
// "void-extent for solid blocks, fixed 2-endpoint / 2-bit-weight mode
// otherwise"), which keeps this converter from needing ASTC's full
// block-mode/partition search space.
func ToASTC4x4(src SourceBlock) []byte {
	rgba := src.DecodeRGBA()
	if isUniform(rgba) {
		return astcVoidExtent(rgba[0])
	}
	return astcSimpleMode(rgba)
}

func isUniform(rgba [16][4]uint8) bool {
	first := rgba[0]
	for _, px := range rgba[1:] {
		if px != first {
			return false
		}
	}
	return true
}

// astcVoidExtent packs the 128-bit void-extent block: a 12-bit marker
// 0xDFC in bits [0:12) (block mode 0x1FC, bit 9 clear for LDR, two
// reserved 1 bits) followed by four 13-bit
// coordinate fields (fixed to all-ones, "don't care" per the ASTC
// specification for a non-sparse single-block texture) and four 16-bit
// color channels in R,G,B,A order, replicated from 8-bit to 16-bit by
// bit duplication.
func astcVoidExtent(c [4]uint8) []byte {
	w := &bc7BitWriter{buf: [16]byte{}}
	w.put(0xDFC, 12) // void-extent block-mode marker, LDR profile
	for i := 0; i < 4; i++ {
		w.put(0x1FFF, 13) // coordinate field, "don't care"
	}
	rep16 := func(v uint8) uint32 { return uint32(v)<<8 | uint32(v) }
	w.put(rep16(c[0]), 16)
	w.put(rep16(c[1]), 16)
	w.put(rep16(c[2]), 16)
	w.put(rep16(c[3]), 16)
	out := make([]byte, 16)
	copy(out, w.buf[:])
	return out
}

// astcSimpleMode packs a single-partition, two-endpoint, 2-bit-weight
// ASTC block using block mode 2 (4x4 weight grid, range-5 "quint"
// unused — this implementation always emits the simplest LDR RGBA
// direct endpoint pair, color endpoint mode 12 "LDR RGBA direct") and
// raw weight indices, skipping ASTC's integer-sequence-encoding (ISE)
// bit-packing in favor of the format's permitted byte-aligned trivial
// case when weight range is a power of two (2 bits/weight, range 4).
func astcSimpleMode(rgba [16][4]uint8) []byte {
	lo, hi := [4]uint8{255, 255, 255, 255}, [4]uint8{0, 0, 0, 0}
	for _, px := range rgba {
		for c := 0; c < 4; c++ {
			if px[c] < lo[c] {
				lo[c] = px[c]
			}
			if px[c] > hi[c] {
				hi[c] = px[c]
			}
		}
	}

	w := &bc7BitWriter{buf: [16]byte{}}
	w.put(0b00000000010, 11) // block mode: 4x4 weight grid, range-4 weights
	w.put(0, 2)              // partition count - 1 = 0 (single partition)
	w.put(12, 4)             // color endpoint mode: LDR RGBA direct

	for c := 0; c < 4; c++ {
		w.put(uint32(lo[c]), 8)
		w.put(uint32(hi[c]), 8)
	}

	for _, px := range rgba {
		best, bestIdx := 1<<30, 0
		for k := 0; k < 4; k++ {
			var cand [4]int
			for c := 0; c < 4; c++ {
				cand[c] = bc7Interp(int(lo[c]), int(hi[c]), bc7ColorWeights[k])
			}
			d := 0
			for c := 0; c < 4; c++ {
				diff := cand[c] - int(px[c])
				d += diff * diff
			}
			if d < best {
				best, bestIdx = d, k
			}
		}
		w.put(uint32(bestIdx), 2)
	}

	out := make([]byte, 16)
	copy(out, w.buf[:])
	return out
}
