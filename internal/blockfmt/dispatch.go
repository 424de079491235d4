package blockfmt

// ConvertBlock dispatches one decoded source block to the given target
// block-compressed format, returning the bytes to write at the caller's
// out_ptr (spec §4.8 step 4 / §4.9). Uncompressed targets are not routed
// through here — see WriteUncompressedBlock. flags carries the subset of
// the caller's DecodeFlags that change a converter's own output (spec
// §6); formats that don't read any flag ignore it.
func ConvertBlock(src SourceBlock, target Format, flags ConvertFlags) ([]byte, error) {
	switch target {
	case FormatETC1:
		return ToETC1(src), nil
	case FormatETC2RGBA:
		return ToETC2RGBA(src), nil
	case FormatETC2EACA8:
		return ToETC2EACA8(src), nil
	case FormatETC2EACR11:
		return ToETC2EACR11(src), nil
	case FormatETC2EACRG11:
		return ToETC2EACRG11(src), nil
	case FormatBC1:
		return ToBC1(src, flags), nil
	case FormatBC3:
		return ToBC3(src, flags), nil
	case FormatBC4:
		return ToBC4(src), nil
	case FormatBC5:
		return ToBC5(src), nil
	case FormatBC7:
		return ToBC7(src), nil
	case FormatASTC4x4:
		return ToASTC4x4(src), nil
	case FormatPVRTC1_4BPP:
		return ToPVRTC1_4BPP(src, flags), nil
	case FormatATCRGB:
		return ToATCRGB(src, flags), nil
	case FormatATCRGBA:
		return ToATCRGBA(src, flags), nil
	case FormatPVRTC2_4BPP:
		return ToPVRTC2_4BPP(src, flags), nil
	default:
		return nil, &ErrUnsupportedConversion{Target: target, Reason: "not a block-compressed target, or unsupported"}
	}
}

// WriteUncompressedBlock dispatches one decoded source block's 16 texels
// to the given uncompressed target format, writing BytesPerPixel(target)
// bytes per texel at out (len(out) must be at least 16*BytesPerPixel).
// flags is accepted for the same signature-uniformity reason ConvertBlock
// takes it; no uncompressed target currently reads any convert flag.
func WriteUncompressedBlock(src SourceBlock, target Format, out []byte, flags ConvertFlags) error {
	return WriteUncompressedPixels(src.DecodeRGBA(), target, out)
}
