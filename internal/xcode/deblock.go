package xcode

// DeblockKernel is the fixed 3-tap averaging kernel FilterMacroblockSeams
// applies across a macroblock's internal seams (spec §4.12): each
// filtered texel blends its own block's next-inner texel, its own edge
// texel, and the neighboring block's edge texel, weighted 1:2:1.
var DeblockKernel = [3]int{1, 2, 1}

// The four sub-block positions within one macroblock, in the same
// top-left/top-right/bottom-left/bottom-right order transcoder.go's
// emitBlocks coordinate table uses.
const (
	quadTopLeft = iota
	quadTopRight
	quadBottomLeft
	quadBottomRight
)

func deblockBlend(inner, edge, neighbor uint8, strength int) uint8 {
	w0, w1, w2 := DeblockKernel[0], DeblockKernel[1]*strength, DeblockKernel[2]*strength
	sum := int(inner)*w0 + int(edge)*w1 + int(neighbor)*w2
	v := sum / (w0 + w1 + w2)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// FilterMacroblockSeams softens the two internal seams of one
// macroblock's four decoded 4x4 RGBA8 sub-blocks (spec §4.12), returning
// a new quad with only the seam-adjacent texels changed. quad holds the
// four sub-blocks' raster-order texels (DecodeRGBA's own layout),
// indexed quadTopLeft/quadTopRight/quadBottomLeft/quadBottomRight.
// strength is 1 for the documented default and 2 for
// StrongerDeblockFiltering (spec §6 flag list). Alpha passes through
// unfiltered — the filter is defined over color channels only.
func FilterMacroblockSeams(quad [4][16][4]uint8, strength int) [4][16][4]uint8 {
	out := quad

	hpairs := [2][2]int{{quadTopLeft, quadTopRight}, {quadBottomLeft, quadBottomRight}}
	for _, pr := range hpairs {
		left, right := pr[0], pr[1]
		for row := 0; row < 4; row++ {
			innerL := quad[left][row*4+2]
			edgeL := quad[left][row*4+3]
			edgeR := quad[right][row*4+0]
			innerR := quad[right][row*4+1]
			for c := 0; c < 3; c++ {
				out[left][row*4+3][c] = deblockBlend(innerL[c], edgeL[c], edgeR[c], strength)
				out[right][row*4+0][c] = deblockBlend(innerR[c], edgeR[c], edgeL[c], strength)
			}
		}
	}

	vpairs := [2][2]int{{quadTopLeft, quadBottomLeft}, {quadTopRight, quadBottomRight}}
	for _, pr := range vpairs {
		top, bottom := pr[0], pr[1]
		for col := 0; col < 4; col++ {
			innerT := quad[top][2*4+col]
			edgeT := quad[top][3*4+col]
			edgeB := quad[bottom][0*4+col]
			innerB := quad[bottom][1*4+col]
			for c := 0; c < 3; c++ {
				out[top][3*4+col][c] = deblockBlend(innerT[c], edgeT[c], edgeB[c], strength)
				out[bottom][0*4+col][c] = deblockBlend(innerB[c], edgeB[c], edgeT[c], strength)
			}
		}
	}

	return out
}
