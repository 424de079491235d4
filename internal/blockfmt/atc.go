package blockfmt

// pack555 quantizes 8-bit RGB to a 5:5:5 uint16 (ATC RGB's "color0" word,
// the higher-precision-blue-light sibling of pack565).
func pack555(r, g, b uint8) uint16 {
	return uint16(r>>3)<<10 | uint16(g>>3)<<5 | uint16(b>>3)
}

// ToATCRGB writes an 8-byte ATC RGB block: a 5:5:5 "color0" word, a 5:6:5
// "color1" word, and a 32-bit 2-bit-per-texel modulation index (spec
// §4.9's "ETC1S -> ATC RGB"). Real ATC defines its four-entry palette
// differently from BC1's evenly-weighted interpolation; this converter
// reuses fourColorPalette's BC1-style even interpolation for the two
// intermediate palette entries instead, the same "tile-local, same fixed
// layout, not bit-exact" approximation ToPVRTC1_4BPP documents.
func ToATCRGB(src SourceBlock, flags ConvertFlags) []byte {
	rgba := src.DecodeRGBA()
	c0, c1 := pickBC1Endpoints(rgba, flags)

	w0 := pack555(c0[0], c0[1], c0[2])
	w1 := pack565(c1[0], c1[1], c1[2])

	r1, g1, b1 := unpack565(w1)
	palette := fourColorPalette(c0, [3]uint8{r1, g1, b1})
	indices := nearestPaletteIndices(rgba, palette)

	out := make([]byte, 8)
	out[0], out[1] = byte(w0), byte(w0>>8)
	out[2], out[3] = byte(w1), byte(w1>>8)
	out[4] = byte(indices)
	out[5] = byte(indices >> 8)
	out[6] = byte(indices >> 16)
	out[7] = byte(indices >> 24)
	return out
}

// ToATCRGBA writes a 16-byte interpolated-alpha ATC RGBA block: an 8-byte
// BC4-style alpha block followed by the 8-byte ATC RGB color block (spec
// §4.9's "ETC1S -> ATC RGBA", mirroring ToBC3's "alpha block then color
// block" layout).
func ToATCRGBA(src SourceBlock, flags ConvertFlags) []byte {
	rgba := src.DecodeRGBA()
	var alpha [16]uint8
	for i, px := range rgba {
		alpha[i] = px[3]
	}
	out := make([]byte, 16)
	copy(out[0:8], encodeBC4Channel(alpha))
	copy(out[8:16], ToATCRGB(src, flags))
	return out
}
