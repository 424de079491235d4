package blockfmt

// WriteUncompressedPixels packs 16 already-decoded raster-order RGBA8
// texels into the given uncompressed target format at out. This is the
// shared tail both WriteUncompressedBlock (through SourceBlock.DecodeRGBA)
// and the transcoder's deblock-filtered output path (which already has
// post-filtered RGBA8 pixels in hand, not a SourceBlock) pack through.
func WriteUncompressedPixels(rgba [16][4]uint8, target Format, out []byte) error {
	switch target {
	case FormatRGBA32:
		for i, px := range rgba {
			copy(out[i*4:i*4+4], px[:])
		}
	case FormatRGB565:
		for i, px := range rgba {
			v := pack565(px[0], px[1], px[2])
			out[i*2], out[i*2+1] = byte(v), byte(v>>8)
		}
	case FormatBGR565:
		for i, px := range rgba {
			v := pack565(px[2], px[1], px[0])
			out[i*2], out[i*2+1] = byte(v), byte(v>>8)
		}
	case FormatRGBA4444:
		for i, px := range rgba {
			r4, g4, b4, a4 := px[0]>>4, px[1]>>4, px[2]>>4, px[3]>>4
			v := uint16(r4)<<12 | uint16(g4)<<8 | uint16(b4)<<4 | uint16(a4)
			out[i*2], out[i*2+1] = byte(v), byte(v>>8)
		}
	default:
		return &ErrUnsupportedConversion{Target: target, Reason: "not an uncompressed target, or unsupported"}
	}
	return nil
}

// WriteRGBA32 writes 16 raster-order RGBA8 pixels (4 bytes each) at out.
func WriteRGBA32(src SourceBlock, out []byte) { _ = WriteUncompressedPixels(src.DecodeRGBA(), FormatRGBA32, out) }

// WriteRGB565 writes 16 raster-order RGB565 pixels (2 bytes each,
// little-endian) at out.
func WriteRGB565(src SourceBlock, out []byte) { _ = WriteUncompressedPixels(src.DecodeRGBA(), FormatRGB565, out) }

// WriteBGR565 is WriteRGB565 with red and blue swapped before packing.
func WriteBGR565(src SourceBlock, out []byte) { _ = WriteUncompressedPixels(src.DecodeRGBA(), FormatBGR565, out) }

// WriteRGBA4444 writes 16 raster-order RGBA4444 pixels (2 bytes each,
// little-endian, R in the high nibble of the high byte) at out.
func WriteRGBA4444(src SourceBlock, out []byte) {
	_ = WriteUncompressedPixels(src.DecodeRGBA(), FormatRGBA4444, out)
}
