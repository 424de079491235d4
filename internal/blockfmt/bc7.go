package blockfmt

// bc7BitWriter accumulates LSB-first bits into a fixed 16-byte BC7 block,
// matching the format's own bit order (the mode field starts at bit 0).
type bc7BitWriter struct {
	buf [16]byte
	pos int
}

func (w *bc7BitWriter) put(value uint32, bits int) {
	for i := 0; i < bits; i++ {
		if value&(1<<uint(i)) != 0 {
			w.buf[w.pos/8] |= 1 << uint(w.pos%8)
		}
		w.pos++
	}
}

// bc7ColorWeights are the fixed 2-bit interpolation weights BC7 mode 5
// uses for both its color and alpha index arrays.
var bc7ColorWeights = [4]int{0, 21, 43, 64}

func bc7Interp(a, b, weight int) int {
	return (a*(64-weight) + b*weight + 32) >> 6
}

// bc7ChannelEndpoints picks the two most distant 8-bit samples in values,
// the same greedy stand-in bc1Endpoints uses for RGB.
func bc7ChannelEndpoints(values [16]int) (lo, hi int) {
	best := -1
	for i := 0; i < 16; i++ {
		for j := i + 1; j < 16; j++ {
			d := values[i] - values[j]
			if d < 0 {
				d = -d
			}
			if d > best {
				best, lo, hi = d, values[i], values[j]
			}
		}
	}
	return
}

// bc7Indices computes a 2-bit index per sample against the two endpoints
// interpolated through bc7ColorWeights, then — honoring BC7's implicit
// top-bit-of-the-anchor-index convention — swaps the endpoints and
// reruns if sample 0's index has its high bit set.
func bc7Indices(values [16]int, lo, hi int) (indices [16]int, swappedLo, swappedHi int) {
	compute := func(a, b int) [16]int {
		var idx [16]int
		for i, v := range values {
			best, bestIdx := 1<<30, 0
			for k, w := range bc7ColorWeights {
				d := bc7Interp(a, b, w) - v
				if d < 0 {
					d = -d
				}
				if d < best {
					best, bestIdx = d, k
				}
			}
			idx[i] = bestIdx
		}
		return idx
	}
	idx := compute(lo, hi)
	if idx[0] >= 2 {
		lo, hi = hi, lo
		idx = compute(lo, hi)
	}
	return idx, lo, hi
}

// ToBC7 writes a 16-byte BC7 block in mode 5: no partitioning, 7-bit RGB
// endpoints, 8-bit alpha endpoints, independent 2-bit color and alpha
// index arrays, rotation fixed to 0 (spec §4.9: "BC7 mode-5").
func ToBC7(src SourceBlock) []byte {
	rgba := src.DecodeRGBA()

	var red, green, blue, alpha [16]int
	for i, px := range rgba {
		red[i], green[i], blue[i], alpha[i] = int(px[0]), int(px[1]), int(px[2]), int(px[3])
	}

	// Pick RGB endpoints by the greatest-distance pixel pair (matching
	// bc1Endpoints), then quantize each channel to BC7 mode 5's 7 bits.
	var bestPair [2]int
	bestDist := -1
	for i := 0; i < 16; i++ {
		for j := i + 1; j < 16; j++ {
			a := [3]int{red[i], green[i], blue[i]}
			b := [3]int{red[j], green[j], blue[j]}
			d := sqDist3(a, b)
			if d > bestDist {
				bestDist, bestPair = d, [2]int{i, j}
			}
		}
	}
	c0 := [3]int{red[bestPair[0]], green[bestPair[0]], blue[bestPair[0]]}
	c1 := [3]int{red[bestPair[1]], green[bestPair[1]], blue[bestPair[1]]}
	quant7 := func(v int) int { return v >> 1 }

	colorIdx, q0, q1 := bc7RGBIndices(red, green, blue, [3]int{quant7(c0[0]), quant7(c0[1]), quant7(c0[2])}, [3]int{quant7(c1[0]), quant7(c1[1]), quant7(c1[2])})

	aLo, aHi := bc7ChannelEndpoints(alpha)
	alphaIdx, aLoFinal, aHiFinal := bc7Indices(alpha, aLo, aHi)

	w := &bc7BitWriter{}
	w.put(1<<5, 6) // mode 5: five 0 bits then a 1 bit
	w.put(0, 2)    // rotation = 0 (no channel swap between color and alpha)

	w.put(uint32(q0[0]), 7)
	w.put(uint32(q1[0]), 7)
	w.put(uint32(q0[1]), 7)
	w.put(uint32(q1[1]), 7)
	w.put(uint32(q0[2]), 7)
	w.put(uint32(q1[2]), 7)

	w.put(uint32(aLoFinal), 8)
	w.put(uint32(aHiFinal), 8)

	for i, idx := range colorIdx {
		if i == 0 {
			w.put(uint32(idx&0x1), 1) // anchor: top bit implicit
		} else {
			w.put(uint32(idx&0x3), 2)
		}
	}
	for i, idx := range alphaIdx {
		if i == 0 {
			w.put(uint32(idx&0x1), 1)
		} else {
			w.put(uint32(idx&0x3), 2)
		}
	}

	out := make([]byte, 16)
	copy(out, w.buf[:])
	return out
}

// bc7RGBIndices mirrors bc7Indices for the three-channel RGB case used by
// mode 5's color subset.
func bc7RGBIndices(red, green, blue [16]int, q0, q1 [3]int) (indices [16]int, swapped0, swapped1 [3]int) {
	compute := func(a, b [3]int) [16]int {
		var idx [16]int
		for i := range red {
			px := [3]int{red[i], green[i], blue[i]}
			best, bestIdx := 1<<30, 0
			for k, w := range bc7ColorWeights {
				cand := [3]int{bc7Interp(a[0], b[0], w), bc7Interp(a[1], b[1], w), bc7Interp(a[2], b[2], w)}
				d := sqDist3(px, cand)
				if d < best {
					best, bestIdx = d, k
				}
			}
			idx[i] = bestIdx
		}
		return idx
	}
	idx := compute(q0, q1)
	if idx[0] >= 2 {
		q0, q1 = q1, q0
		idx = compute(q0, q1)
	}
	return idx, q0, q1
}
