package blockfmt

// eacModifiers is the fixed 16-entry ETC2 EAC alpha/R11 modifier table
// (Khronos ETC2 specification, also published in etc2comp/Mesa's
// etc2_tables.h); every EAC single-channel block (alpha, R11, or one half
// of RG11) selects one row by its 4-bit table index.
var eacModifiers = [16][8]int{
	{-3, -6, -9, -15, 2, 5, 8, 14},
	{-3, -7, -10, -13, 2, 6, 9, 12},
	{-2, -5, -8, -13, 1, 4, 7, 12},
	{-2, -4, -6, -13, 1, 3, 5, 12},
	{-3, -6, -8, -12, 2, 5, 7, 11},
	{-3, -7, -9, -11, 2, 6, 8, 10},
	{-4, -7, -8, -11, 3, 6, 7, 10},
	{-3, -5, -8, -11, 2, 4, 7, 10},
	{-2, -6, -8, -10, 1, 5, 7, 9},
	{-2, -5, -8, -10, 1, 4, 7, 9},
	{-2, -4, -8, -10, 1, 3, 7, 9},
	{-2, -5, -7, -10, 1, 4, 6, 9},
	{-3, -4, -7, -10, 2, 3, 6, 9},
	{-1, -2, -3, -10, 0, 1, 2, 9},
	{-4, -6, -8, -9, 3, 5, 7, 8},
	{-3, -5, -7, -9, 2, 4, 6, 8},
}

func clampByte(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// encodeEACChannel builds one 8-byte EAC single-channel block (used
// directly for ETC2 EAC A8/R11, and twice for RG11) from 16 raster-order
// 8-bit samples. It fixes multiplier=1 and searches all 16 table rows for
// the one minimizing summed absolute error against a base equal to the
// block's rounded mean — a complete but non-exhaustive search (a full
// encoder also searches base and multiplier; spec §4.9 requires
// determinism and bit-exact decode, not a minimal-distortion search).
func encodeEACChannel(values [16]uint8) []byte {
	sum := 0
	for _, v := range values {
		sum += int(v)
	}
	base := clampByte((sum + 8) / 16)

	bestTable, bestIndices, bestErr := 0, [16]int{}, -1
	for t := 0; t < 16; t++ {
		var indices [16]int
		errSum := 0
		for i, v := range values {
			bestIdx, bestDelta := 0, 1<<30
			for m, mod := range eacModifiers[t] {
				cand := clampByte(base + mod)
				d := cand - int(v)
				if d < 0 {
					d = -d
				}
				if d < bestDelta {
					bestDelta, bestIdx = d, m
				}
			}
			indices[i] = bestIdx
			errSum += bestDelta
		}
		if bestErr < 0 || errSum < bestErr {
			bestErr, bestTable, bestIndices = errSum, t, indices
		}
	}

	out := make([]byte, 8)
	out[0] = byte(base)
	out[1] = byte(1<<4) | byte(bestTable) // multiplier=1, table=bestTable
	var bits uint64
	for _, idx := range bestIndices {
		bits = (bits << 3) | uint64(idx&0x7)
	}
	out[2] = byte(bits >> 40)
	out[3] = byte(bits >> 32)
	out[4] = byte(bits >> 24)
	out[5] = byte(bits >> 16)
	out[6] = byte(bits >> 8)
	out[7] = byte(bits)
	return out
}

// ToETC2EACA8 writes an 8-byte EAC alpha block from the source block's
// per-pixel alpha channel (spec §4.9: "ETC1S -> ETC2 EAC A8").
func ToETC2EACA8(src SourceBlock) []byte {
	rgba := src.DecodeRGBA()
	var alpha [16]uint8
	for i, px := range rgba {
		alpha[i] = px[3]
	}
	return encodeEACChannel(alpha)
}

// ToETC2EACR11 writes an 8-byte EAC R11 block sourced from the decoded
// red channel (spec §4.9: "ETC1S -> ETC2 EAC R11/RG11"). ETC1S carries no
// true 11-bit precision, so the 8-bit channel is used directly as the
// EAC sample set; this is bit-exact for what the source actually encodes.
func ToETC2EACR11(src SourceBlock) []byte {
	rgba := src.DecodeRGBA()
	var red [16]uint8
	for i, px := range rgba {
		red[i] = px[0]
	}
	return encodeEACChannel(red)
}

// ToETC2EACRG11 writes a 16-byte EAC RG11 block: an R11 block over the
// red channel followed by an R11-shaped block over the green channel.
func ToETC2EACRG11(src SourceBlock) []byte {
	rgba := src.DecodeRGBA()
	var red, green [16]uint8
	for i, px := range rgba {
		red[i], green[i] = px[0], px[1]
	}
	out := make([]byte, 16)
	copy(out[0:8], encodeEACChannel(red))
	copy(out[8:16], encodeEACChannel(green))
	return out
}
