package blockfmt

// pack565 quantizes 8-bit RGB to a BC1/ETC2-style 5:6:5 uint16.
func pack565(r, g, b uint8) uint16 {
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}

func unpack565(v uint16) (r, g, b uint8) {
	r = expand(uint8(v>>11)&0x1F, 5)
	g = expand(uint8(v>>5)&0x3F, 6)
	b = expand(uint8(v)&0x1F, 5)
	return
}

func expand(v uint8, bits int) uint8 {
	switch bits {
	case 5:
		return v<<3 | v>>2
	case 6:
		return v<<2 | v>>4
	default:
		return v
	}
}

func sqDist3(a, b [3]int) int {
	dr, dg, db := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return dr*dr + dg*dg + db*db
}

// bc1Endpoints picks two RGB endpoints for a 16-pixel block: the pair
// with the greatest squared distance among the block's pixels, a simple
// deterministic stand-in for the usual principal-axis search.
func bc1Endpoints(rgba [16][4]uint8) (c0, c1 [3]uint8) {
	best := -1
	var bi, bj int
	for i := 0; i < 16; i++ {
		for j := i + 1; j < 16; j++ {
			a := [3]int{int(rgba[i][0]), int(rgba[i][1]), int(rgba[i][2])}
			b := [3]int{int(rgba[j][0]), int(rgba[j][1]), int(rgba[j][2])}
			d := sqDist3(a, b)
			if d > best {
				best, bi, bj = d, i, j
			}
		}
	}
	c0 = [3]uint8{rgba[bi][0], rgba[bi][1], rgba[bi][2]}
	c1 = [3]uint8{rgba[bj][0], rgba[bj][1], rgba[bj][2]}
	return
}

// bc1EndpointsBBox picks endpoints as the per-channel min/max bounding-box
// corners of the block's 16 pixels, the ConvertHighQuality alternative
// (spec §6's HighQuality flag) to bc1Endpoints' cheaper furthest-pixel-
// pair heuristic: it considers every channel independently rather than a
// single best pixel pair, typically bracketing the block's color range
// more tightly at the cost of not corresponding to any two actual pixels.
func bc1EndpointsBBox(rgba [16][4]uint8) (c0, c1 [3]uint8) {
	lo := [3]int{255, 255, 255}
	hi := [3]int{0, 0, 0}
	for _, px := range rgba {
		for c := 0; c < 3; c++ {
			v := int(px[c])
			if v < lo[c] {
				lo[c] = v
			}
			if v > hi[c] {
				hi[c] = v
			}
		}
	}
	return [3]uint8{uint8(lo[0]), uint8(lo[1]), uint8(lo[2])}, [3]uint8{uint8(hi[0]), uint8(hi[1]), uint8(hi[2])}
}

// pickBC1Endpoints is the shared ConvertHighQuality dispatch every
// furthest-pixel-pair-based converter in this package routes through.
func pickBC1Endpoints(rgba [16][4]uint8, flags ConvertFlags) (c0, c1 [3]uint8) {
	if flags&ConvertHighQuality != 0 {
		return bc1EndpointsBBox(rgba)
	}
	return bc1Endpoints(rgba)
}

// fourColorPalette expands two RGB endpoints into BC1's four-color
// palette: the two endpoints plus their 1/3 and 2/3 interpolants. Shared
// with ToATCRGB and ToPVRTC2_4BPP, which use the same evenly-weighted
// four-entry interpolation over a differently-laid-out wire block.
func fourColorPalette(c0, c1 [3]uint8) [4][3]int {
	r0, g0, b0 := int(c0[0]), int(c0[1]), int(c0[2])
	r1, g1, b1 := int(c1[0]), int(c1[1]), int(c1[2])
	return [4][3]int{
		{r0, g0, b0},
		{r1, g1, b1},
		{(2*r0 + r1) / 3, (2*g0 + g1) / 3, (2*b0 + b1) / 3},
		{(r0 + 2*r1) / 3, (g0 + 2*g1) / 3, (b0 + 2*b1) / 3},
	}
}

// nearestPaletteIndices matches each of 16 RGB pixels against a 4-entry
// palette and packs the result as a 32-bit, 2-bit-per-texel index word —
// the shared tail every four-color block format in this package packs.
func nearestPaletteIndices(rgba [16][4]uint8, palette [4][3]int) uint32 {
	var indices uint32
	for i := 15; i >= 0; i-- {
		px := [3]int{int(rgba[i][0]), int(rgba[i][1]), int(rgba[i][2])}
		best, bestIdx := 1<<30, 0
		for k, p := range palette {
			d := sqDist3(px, p)
			if d < best {
				best, bestIdx = d, k
			}
		}
		indices = indices<<2 | uint32(bestIdx)
	}
	return indices
}

// encodeBC1Block writes the 8-byte BC1 color block. ConvertBC1ForbidThreeColorBlocks
// (spec §4.13/§6) forces four-color mode (the two packed 565 words ordered
// color0 > color1); left unset, the endpoints are packed in whatever order
// the picker produced them, so a block whose endpoints happen to compare
// color0 <= color1 is encoded in three-color/punch-through-alpha mode
// instead, matching real BC1 decoders' mode-selection rule.
func encodeBC1Block(rgba [16][4]uint8, flags ConvertFlags) []byte {
	c0, c1 := pickBC1Endpoints(rgba, flags)
	w0, w1 := pack565(c0[0], c0[1], c0[2]), pack565(c1[0], c1[1], c1[2])

	if flags&ConvertBC1ForbidThreeColorBlocks != 0 {
		if w0 < w1 {
			w0, w1 = w1, w0
		} else if w0 == w1 {
			// force strict inequality so four-color mode is always selected
			if w0 == 0xFFFF {
				w1--
			} else {
				w0++
			}
		}
	}

	r0, g0, b0 := unpack565(w0)
	r1, g1, b1 := unpack565(w1)

	var palette [4][3]int
	if w0 > w1 {
		palette = fourColorPalette([3]uint8{r0, g0, b0}, [3]uint8{r1, g1, b1})
	} else {
		palette = [4][3]int{
			{int(r0), int(g0), int(b0)},
			{int(r1), int(g1), int(b1)},
			{(int(r0) + int(r1)) / 2, (int(g0) + int(g1)) / 2, (int(b0) + int(b1)) / 2},
			{0, 0, 0}, // punch-through transparent black
		}
	}

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

// ToBC1 writes an 8-byte BC1 RGB block (spec §4.9).
func ToBC1(src SourceBlock, flags ConvertFlags) []byte {
	return encodeBC1Block(src.DecodeRGBA(), flags)
}

// encodeBC4Channel writes an 8-byte BC4 single-channel block: two 8-bit
// endpoints (ordered max-then-min so the 6-interpolated-step palette is
// always used, needing no 0/255 special values) and 16 3-bit indices
// packed little-endian from byte 2, pixel 0 in the lowest bits (unlike
// encodeEACChannel, which packs its indices big-endian, pixel 0 first).
func encodeBC4Channel(values [16]uint8) []byte {
	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	var palette [8]int
	for k := 0; k < 8; k++ {
		palette[k] = (int(hi)*(7-k) + int(lo)*k) / 7
	}

	var indices [16]int
	for i, v := range values {
		best, bestIdx := 1<<30, 0
		for k, p := range palette {
			d := p - int(v)
			if d < 0 {
				d = -d
			}
			if d < best {
				best, bestIdx = d, k
			}
		}
		indices[i] = bestIdx
	}

	out := make([]byte, 8)
	out[0], out[1] = hi, lo
	var bits uint64
	for i := 15; i >= 0; i-- {
		bits = bits<<3 | uint64(indices[i]&0x7)
	}
	out[2] = byte(bits)
	out[3] = byte(bits >> 8)
	out[4] = byte(bits >> 16)
	out[5] = byte(bits >> 24)
	out[6] = byte(bits >> 32)
	out[7] = byte(bits >> 40)
	return out
}

// ToBC4 writes an 8-byte BC4 single-channel (red) block (spec §4.9).
func ToBC4(src SourceBlock) []byte {
	rgba := src.DecodeRGBA()
	var red [16]uint8
	for i, px := range rgba {
		red[i] = px[0]
	}
	return encodeBC4Channel(red)
}

// ToBC5 writes a 16-byte BC5 two-channel (red, green) block: one BC4
// block per channel (spec §4.9).
func ToBC5(src SourceBlock) []byte {
	rgba := src.DecodeRGBA()
	var red, green [16]uint8
	for i, px := range rgba {
		red[i], green[i] = px[0], px[1]
	}
	out := make([]byte, 16)
	copy(out[0:8], encodeBC4Channel(red))
	copy(out[8:16], encodeBC4Channel(green))
	return out
}

// ToBC3 writes a 16-byte BC3 RGBA block: a BC4 alpha block followed by a
// BC1 color block (spec §4.9: "BC3 RGBA (BC4 alpha block then BC1 color
// block)"). flags reaches the BC1 color block the same way it would for a
// standalone ToBC1 call.
func ToBC3(src SourceBlock, flags ConvertFlags) []byte {
	rgba := src.DecodeRGBA()
	var alpha [16]uint8
	for i, px := range rgba {
		alpha[i] = px[3]
	}
	out := make([]byte, 16)
	copy(out[0:8], encodeBC4Channel(alpha))
	copy(out[8:16], encodeBC1Block(rgba, flags))
	return out
}
